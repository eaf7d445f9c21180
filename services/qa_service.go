package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
	"github.com/akinalp/circle/repository"
	"github.com/akinalp/circle/ws"
)

// QAService runs the discussion board. Community questions are visible to
// every member; group questions only to that group (and admins).
type QAService interface {
	ListQuestions(ctx context.Context, user *models.User, limit, offset int) ([]models.Question, error)
	GetQuestion(ctx context.Context, user *models.User, id string) (*models.QuestionWithAnswers, error)
	CreateQuestion(ctx context.Context, user *models.User, req *models.CreateQuestionRequest) (*models.Question, error)
	// DeleteQuestion is allowed for the author and admins.
	DeleteQuestion(ctx context.Context, user *models.User, id string) error
	CreateAnswer(ctx context.Context, user *models.User, questionID string, req *models.CreateAnswerRequest) (*models.Answer, error)
	// DeleteAnswer is allowed for the author and admins.
	DeleteAnswer(ctx context.Context, user *models.User, id string) error
}

const (
	defaultQuestionPage = 50
	maxQuestionPage     = 100
	excerptLength       = 200
)

type qaService struct {
	questionRepo repository.QuestionRepository
	answerRepo   repository.AnswerRepository
	groupRepo    repository.GroupRepository
	userRepo     repository.UserRepository
	notifier     NotificationService
	hub          ws.EventPublisher
	appURL       string
	log          *zap.Logger
}

// NewQAService is the constructor.
func NewQAService(
	questionRepo repository.QuestionRepository,
	answerRepo repository.AnswerRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	notifier NotificationService,
	hub ws.EventPublisher,
	appURL string,
	log *zap.Logger,
) QAService {
	return &qaService{
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
		groupRepo:    groupRepo,
		userRepo:     userRepo,
		notifier:     notifier,
		hub:          hub,
		appURL:       appURL,
		log:          log.Named("qa"),
	}
}

func (s *qaService) ListQuestions(ctx context.Context, user *models.User, limit, offset int) ([]models.Question, error) {
	if limit <= 0 {
		limit = defaultQuestionPage
	}
	if limit > maxQuestionPage {
		limit = maxQuestionPage
	}
	if offset < 0 {
		offset = 0
	}

	groupID, err := s.groupIDOf(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	questions, err := s.questionRepo.ListVisible(ctx, groupID, limit, offset)
	if err != nil {
		return nil, err
	}
	if questions == nil {
		questions = []models.Question{}
	}
	return questions, nil
}

func (s *qaService) GetQuestion(ctx context.Context, user *models.User, id string) (*models.QuestionWithAnswers, error) {
	q, err := s.visibleQuestion(ctx, user, id)
	if err != nil {
		return nil, err
	}

	answers, err := s.answerRepo.ListByQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if answers == nil {
		answers = []models.Answer{}
	}

	return &models.QuestionWithAnswers{Question: *q, Answers: answers}, nil
}

func (s *qaService) CreateQuestion(ctx context.Context, user *models.User, req *models.CreateQuestionRequest) (*models.Question, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	q := &models.Question{
		AuthorID: &user.ID,
		Title:    req.Title,
		Body:     req.Body,
	}

	if req.GroupOnly {
		groupID, err := s.groupIDOf(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if groupID == nil {
			return nil, fmt.Errorf("%w: you are not in a group, ask the whole community instead", pkg.ErrBadRequest)
		}
		q.GroupID = groupID
	}

	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, err
	}
	q.AuthorName = &user.FullName

	audience, err := s.questionAudience(ctx, q)
	if err != nil {
		s.log.Warn("failed to resolve question audience", zap.String("question_id", q.ID), zap.Error(err))
		return q, nil
	}

	s.publish(q.GroupID, audience, ws.Event{Op: ws.OpQuestionCreate, Data: q})

	link := s.questionLink(q.ID)
	s.dispatch(ctx, Notification{
		Kind:          models.KindQuestion,
		Recipients:    audience,
		ExcludeUserID: user.ID,
		Template:      models.TemplateNewQuestion,
		Vars: map[string]string{
			"author_name":      user.FullName,
			"question_title":   q.Title,
			"question_excerpt": models.Excerpt(q.Body, excerptLength),
			"link":             link,
		},
		Subject: "New question: " + q.Title,
		Summary: user.FullName + " asked: " + models.Excerpt(q.Body, excerptLength),
		Link:    link,
	})

	return q, nil
}

func (s *qaService) DeleteQuestion(ctx context.Context, user *models.User, id string) error {
	q, err := s.visibleQuestion(ctx, user, id)
	if err != nil {
		return err
	}
	if !canModerate(user, q.AuthorID) {
		return fmt.Errorf("%w: only the author or an admin can delete this question", pkg.ErrForbidden)
	}

	if err := s.questionRepo.Delete(ctx, id); err != nil {
		return err
	}

	audience, err := s.questionAudience(ctx, q)
	if err != nil {
		s.log.Warn("failed to resolve question audience", zap.String("question_id", id), zap.Error(err))
		return nil
	}
	s.publish(q.GroupID, audience, ws.Event{
		Op:   ws.OpQuestionDelete,
		Data: ws.QuestionDeleteData{ID: id, GroupID: q.GroupID},
	})

	return nil
}

func (s *qaService) CreateAnswer(ctx context.Context, user *models.User, questionID string, req *models.CreateAnswerRequest) (*models.Answer, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	q, err := s.visibleQuestion(ctx, user, questionID)
	if err != nil {
		return nil, err
	}

	answer := &models.Answer{
		QuestionID: questionID,
		AuthorID:   &user.ID,
		Body:       req.Body,
	}
	if err := s.answerRepo.Create(ctx, answer); err != nil {
		return nil, err
	}
	answer.AuthorName = &user.FullName

	audience, err := s.questionAudience(ctx, q)
	if err != nil {
		// Without the roster nobody can be proven to still see the thread.
		s.log.Warn("failed to resolve question audience", zap.String("question_id", q.ID), zap.Error(err))
		return answer, nil
	}
	s.publish(q.GroupID, audience, ws.Event{Op: ws.OpAnswerCreate, Data: answer})

	// The thread participants: the asker and everyone who answered before,
	// minus anyone who can no longer see the question.
	participants, err := s.answerRepo.ListAuthorIDs(ctx, questionID)
	if err != nil {
		s.log.Warn("failed to list answer authors", zap.String("question_id", questionID), zap.Error(err))
	}
	if q.AuthorID != nil {
		participants = append(participants, *q.AuthorID)
	}
	participants = intersect(participants, audience)

	link := s.questionLink(q.ID)
	s.dispatch(ctx, Notification{
		Kind:          models.KindAnswer,
		Recipients:    participants,
		ExcludeUserID: user.ID,
		Template:      models.TemplateNewAnswer,
		Vars: map[string]string{
			"author_name":    user.FullName,
			"question_title": q.Title,
			"answer_excerpt": models.Excerpt(answer.Body, excerptLength),
			"link":           link,
		},
		Subject: "New answer on: " + q.Title,
		Summary: user.FullName + " answered: " + models.Excerpt(answer.Body, excerptLength),
		Link:    link,
	})

	return answer, nil
}

func (s *qaService) DeleteAnswer(ctx context.Context, user *models.User, id string) error {
	answer, err := s.answerRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	q, err := s.visibleQuestion(ctx, user, answer.QuestionID)
	if err != nil {
		return err
	}
	if !canModerate(user, answer.AuthorID) {
		return fmt.Errorf("%w: only the author or an admin can delete this answer", pkg.ErrForbidden)
	}

	if err := s.answerRepo.Delete(ctx, id); err != nil {
		return err
	}

	audience, err := s.questionAudience(ctx, q)
	if err != nil {
		s.log.Warn("failed to resolve question audience", zap.String("question_id", q.ID), zap.Error(err))
		return nil
	}
	s.publish(q.GroupID, audience, ws.Event{
		Op:   ws.OpAnswerDelete,
		Data: ws.AnswerDeleteData{ID: id, QuestionID: q.ID},
	})

	return nil
}

// ─── Private Helpers ───

// visibleQuestion loads a question and hides group questions from outsiders
// behind ErrNotFound. Admins see everything.
func (s *qaService) visibleQuestion(ctx context.Context, user *models.User, id string) (*models.Question, error) {
	q, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.GroupID == nil || user.IsAdmin() {
		return q, nil
	}

	groupID, err := s.groupIDOf(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if groupID == nil || *groupID != *q.GroupID {
		return nil, fmt.Errorf("%w: question", pkg.ErrNotFound)
	}
	return q, nil
}

func (s *qaService) groupIDOf(ctx context.Context, userID string) (*string, error) {
	group, err := s.groupRepo.GetByUserID(ctx, userID)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group.ID, nil
}

// questionAudience is every member for community questions and the group
// roster for group questions.
func (s *qaService) questionAudience(ctx context.Context, q *models.Question) ([]string, error) {
	if q.GroupID == nil {
		return s.userRepo.ListIDs(ctx)
	}

	members, err := s.groupRepo.ListMembers(ctx, *q.GroupID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	return ids, nil
}

func (s *qaService) publish(groupID *string, audience []string, event ws.Event) {
	if groupID == nil {
		s.hub.BroadcastToAll(event)
		return
	}
	s.hub.BroadcastToUsers(audience, event)
}

func (s *qaService) dispatch(ctx context.Context, n Notification) {
	if _, err := s.notifier.Dispatch(ctx, n); err != nil {
		s.log.Warn("failed to dispatch notification", zap.String("kind", string(n.Kind)), zap.Error(err))
	}
}

func (s *qaService) questionLink(id string) string {
	return s.appURL + "/questions/" + id
}

func canModerate(user *models.User, authorID *string) bool {
	if user.IsAdmin() {
		return true
	}
	return authorID != nil && *authorID == user.ID
}

// intersect keeps the ids that also appear in allowed, in their original order.
func intersect(ids, allowed []string) []string {
	keep := make(map[string]bool, len(allowed))
	for _, id := range allowed {
		keep[id] = true
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if keep[id] {
			out = append(out, id)
		}
	}
	return out
}
