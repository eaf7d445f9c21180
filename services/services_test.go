package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akinalp/circle/config"
	"github.com/akinalp/circle/database"
	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg/email"
	"github.com/akinalp/circle/repository"
	"github.com/akinalp/circle/ws"
)

const testAppURL = "https://circle.test"

// ─── Fakes ───

type recordingSender struct {
	mu       sync.Mutex
	messages []email.Message
	fail     error
}

func (s *recordingSender) Send(_ context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.messages = append(s.messages, msg)
	return nil
}

func (s *recordingSender) To(addr string) []email.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []email.Message
	for _, m := range s.messages {
		if m.To == addr {
			out = append(out, m)
		}
	}
	return out
}

func (s *recordingSender) Tagged(tag string) []email.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []email.Message
	for _, m := range s.messages {
		if m.Tag == tag {
			out = append(out, m)
		}
	}
	return out
}

type sentEvent struct {
	All   bool
	Users []string
	Event ws.Event
}

type recordingHub struct {
	mu     sync.Mutex
	events []sentEvent
}

func (h *recordingHub) record(e sentEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHub) BroadcastToAll(event ws.Event) {
	h.record(sentEvent{All: true, Event: event})
}

func (h *recordingHub) BroadcastToUser(userID string, event ws.Event) {
	h.record(sentEvent{Users: []string{userID}, Event: event})
}

func (h *recordingHub) BroadcastToUsers(userIDs []string, event ws.Event) {
	h.record(sentEvent{Users: append([]string(nil), userIDs...), Event: event})
}

func (h *recordingHub) GetOnlineUserIDs() []string { return nil }

func (h *recordingHub) Op(op string) []sentEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []sentEvent
	for _, e := range h.events {
		if e.Event.Op == op {
			out = append(out, e)
		}
	}
	return out
}

// ─── Environment ───

type testEnv struct {
	db *sql.DB

	users         repository.UserRepository
	sessions      repository.SessionRepository
	resets        repository.PasswordResetRepository
	apps          repository.ApplicationRepository
	groups        repository.GroupRepository
	goals         repository.GoalRepository
	tasks         repository.TaskRepository
	reflections   repository.ReflectionRepository
	questions     repository.QuestionRepository
	answers       repository.AnswerRepository
	notifications repository.NotificationRepository
	templateRepo  repository.TemplateRepository
	auditRepo     repository.AuditRepository
	deletions     repository.DeletionRepository

	sender *recordingSender
	hub    *recordingHub

	audit        AuditService
	templates    TemplateService
	notifier     NotificationService
	auth         AuthService
	applications ApplicationService
	groupSvc     GroupService
	dashboard    DashboardService
	qa           QAService
	deletion     DeletionService
	members      MemberService
	digest       DigestWorker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "circle.db"), database.Migrations(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := zap.NewNop()
	conn := db.Conn

	env := &testEnv{
		db:            conn,
		users:         repository.NewSQLiteUserRepo(conn),
		sessions:      repository.NewSQLiteSessionRepo(conn),
		resets:        repository.NewSQLiteResetTokenRepo(conn),
		apps:          repository.NewSQLiteApplicationRepo(conn),
		groups:        repository.NewSQLiteGroupRepo(conn),
		goals:         repository.NewSQLiteGoalRepo(conn),
		tasks:         repository.NewSQLiteTaskRepo(conn),
		reflections:   repository.NewSQLiteReflectionRepo(conn),
		questions:     repository.NewSQLiteQuestionRepo(conn),
		answers:       repository.NewSQLiteAnswerRepo(conn),
		notifications: repository.NewSQLiteNotificationRepo(conn),
		templateRepo:  repository.NewSQLiteTemplateRepo(conn),
		auditRepo:     repository.NewSQLiteAuditRepo(conn),
		deletions:     repository.NewSQLiteDeletionRepo(conn),
		sender:        &recordingSender{},
		hub:           &recordingHub{},
	}

	env.audit = NewAuditService(env.auditRepo, log)
	env.templates = NewTemplateService(env.templateRepo, env.sender, env.audit, log)
	t.Cleanup(env.templates.Close)
	env.notifier = NewNotificationService(env.notifications, env.users, env.templates, log)
	env.auth = NewAuthService(
		env.users, env.sessions, env.resets, env.apps, env.templates,
		config.JWTConfig{Secret: "test-secret", AccessTokenExpiry: 15, RefreshTokenExpiry: 7},
		config.AdminConfig{BootstrapEmails: []string{"founder@circle.test"}},
		testAppURL, log,
	)
	env.applications = NewApplicationService(env.apps, env.templates, env.audit, testAppURL, log)
	env.groupSvc = NewGroupService(
		env.groups, env.users, env.goals, env.tasks, env.reflections,
		env.notifier, env.audit, env.hub, testAppURL, log,
	)
	env.dashboard = NewDashboardService(env.goals, env.tasks, env.reflections, env.groupSvc, log)
	env.qa = NewQAService(env.questions, env.answers, env.groups, env.users, env.notifier, env.hub, testAppURL, log)
	env.deletion = NewDeletionService(
		env.deletions, env.users, repository.NewSQLiteAccountEraser(conn),
		env.templates, env.audit, log,
	)
	env.members = NewMemberService(env.users, env.audit, log)
	env.digest = NewDigestWorker(env.notifications, env.users, env.templates, testAppURL, "0 8 * * *", 30, log)

	return env
}

// user inserts an account directly, skipping signup.
func (e *testEnv) user(t *testing.T, emailAddr string, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{
		Email:        emailAddr,
		FullName:     "Name " + emailAddr,
		PasswordHash: "unused",
		Role:         role,
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) member(t *testing.T, emailAddr string) *models.User {
	return e.user(t, emailAddr, models.UserRoleMember)
}

func (e *testEnv) admin(t *testing.T, emailAddr string) *models.User {
	return e.user(t, emailAddr, models.UserRoleAdmin)
}

// group creates a group holding members.
func (e *testEnv) group(t *testing.T, name string, members ...*models.User) *models.Group {
	t.Helper()
	ctx := context.Background()
	g := &models.Group{Name: name, Capacity: models.DefaultGroupCapacity}
	require.NoError(t, e.groups.Create(ctx, g))
	for _, m := range members {
		require.NoError(t, e.groups.AddMember(ctx, g.ID, m.ID))
	}
	return g
}

func (e *testEnv) setFrequency(t *testing.T, userID string, f models.EmailFrequency) {
	t.Helper()
	_, err := e.notifier.UpdatePreferences(context.Background(), userID, &models.UpdatePreferencesRequest{Frequency: &f})
	require.NoError(t, err)
}

func strPtr(s string) *string { return &s }
