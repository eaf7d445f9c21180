package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
	"github.com/akinalp/circle/repository"
)

// DashboardService is the member's own workspace: goals, weekly tasks and
// reflections. Every operation is scoped to the calling user; another
// member's rows are reported as not found.
type DashboardService interface {
	ListGoals(ctx context.Context, userID string, status models.GoalStatus) ([]models.Goal, error)
	CreateGoal(ctx context.Context, userID string, req *models.CreateGoalRequest) (*models.Goal, error)
	UpdateGoal(ctx context.Context, userID, goalID string, req *models.UpdateGoalRequest) (*models.Goal, error)
	DeleteGoal(ctx context.Context, userID, goalID string) error

	// ListTasks returns the tasks of week, the current week when empty.
	ListTasks(ctx context.Context, user *models.User, week string) ([]models.WeeklyTask, error)
	CreateTask(ctx context.Context, user *models.User, req *models.CreateTaskRequest) (*models.WeeklyTask, error)
	UpdateTask(ctx context.Context, userID, taskID string, req *models.UpdateTaskRequest) (*models.WeeklyTask, error)
	ToggleTask(ctx context.Context, userID, taskID string) (*models.WeeklyTask, error)
	DeleteTask(ctx context.Context, userID, taskID string) error

	GetReflection(ctx context.Context, user *models.User, week string) (*models.Reflection, error)
	UpsertReflection(ctx context.Context, user *models.User, week string, req *models.UpsertReflectionRequest) (*models.Reflection, error)
	ListReflections(ctx context.Context, userID string, limit int) ([]models.Reflection, error)

	Summary(ctx context.Context, user *models.User, week string) (*models.DashboardSummary, error)
}

const (
	defaultReflectionHistory = 12
	maxReflectionHistory     = 104
)

type dashboardService struct {
	goalRepo       repository.GoalRepository
	taskRepo       repository.TaskRepository
	reflectionRepo repository.ReflectionRepository
	activity       GroupActivity
	log            *zap.Logger
}

// NewDashboardService is the constructor. activity may be nil, in which case
// changes are not published to the member's group.
func NewDashboardService(
	goalRepo repository.GoalRepository,
	taskRepo repository.TaskRepository,
	reflectionRepo repository.ReflectionRepository,
	activity GroupActivity,
	log *zap.Logger,
) DashboardService {
	return &dashboardService{
		goalRepo:       goalRepo,
		taskRepo:       taskRepo,
		reflectionRepo: reflectionRepo,
		activity:       activity,
		log:            log.Named("dashboard"),
	}
}

// ─── Goals ───

func (s *dashboardService) ListGoals(ctx context.Context, userID string, status models.GoalStatus) ([]models.Goal, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown goal status %q", pkg.ErrBadRequest, status)
	}

	goals, err := s.goalRepo.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, err
	}
	if goals == nil {
		goals = []models.Goal{}
	}
	return goals, nil
}

func (s *dashboardService) CreateGoal(ctx context.Context, userID string, req *models.CreateGoalRequest) (*models.Goal, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	goal := &models.Goal{
		UserID: userID,
		Title:  req.Title,
		Status: models.GoalActive,
	}
	if req.Description != "" {
		goal.Description = &req.Description
	}
	if req.TargetDate != "" {
		goal.TargetDate = &req.TargetDate
	}

	if err := s.goalRepo.Create(ctx, goal); err != nil {
		return nil, err
	}

	s.publish(ctx, userID)
	return goal, nil
}

func (s *dashboardService) UpdateGoal(ctx context.Context, userID, goalID string, req *models.UpdateGoalRequest) (*models.Goal, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	goal, err := s.ownGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	req.Apply(goal)
	if err := s.goalRepo.Update(ctx, goal); err != nil {
		return nil, err
	}

	s.publish(ctx, userID)
	return goal, nil
}

func (s *dashboardService) DeleteGoal(ctx context.Context, userID, goalID string) error {
	if _, err := s.ownGoal(ctx, userID, goalID); err != nil {
		return err
	}
	if err := s.goalRepo.Delete(ctx, goalID); err != nil {
		return err
	}

	s.publish(ctx, userID)
	return nil
}

// ─── Tasks ───

func (s *dashboardService) ListTasks(ctx context.Context, user *models.User, week string) ([]models.WeeklyTask, error) {
	week, err := resolveWeek(user, week)
	if err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListByUserWeek(ctx, user.ID, week)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.WeeklyTask{}
	}
	return tasks, nil
}

func (s *dashboardService) CreateTask(ctx context.Context, user *models.User, req *models.CreateTaskRequest) (*models.WeeklyTask, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	week, err := resolveWeek(user, req.WeekStart)
	if err != nil {
		return nil, err
	}

	task := &models.WeeklyTask{
		UserID:    user.ID,
		Title:     req.Title,
		WeekStart: week,
	}
	if req.GoalID != "" {
		if _, err := s.ownGoal(ctx, user.ID, req.GoalID); err != nil {
			return nil, err
		}
		task.GoalID = &req.GoalID
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	s.publish(ctx, user.ID)
	return task, nil
}

func (s *dashboardService) UpdateTask(ctx context.Context, userID, taskID string, req *models.UpdateTaskRequest) (*models.WeeklyTask, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	task, err := s.ownTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.GoalID != nil {
		if *req.GoalID == "" {
			task.GoalID = nil
		} else {
			if _, err := s.ownGoal(ctx, userID, *req.GoalID); err != nil {
				return nil, err
			}
			task.GoalID = req.GoalID
		}
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *dashboardService) ToggleTask(ctx context.Context, userID, taskID string) (*models.WeeklyTask, error) {
	task, err := s.ownTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	completed := !task.Completed
	if err := s.taskRepo.SetCompleted(ctx, taskID, completed, now); err != nil {
		return nil, err
	}

	task.Completed = completed
	task.CompletedAt = nil
	if completed {
		task.CompletedAt = &now
	}

	s.publish(ctx, userID)
	return task, nil
}

func (s *dashboardService) DeleteTask(ctx context.Context, userID, taskID string) error {
	if _, err := s.ownTask(ctx, userID, taskID); err != nil {
		return err
	}
	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return err
	}

	s.publish(ctx, userID)
	return nil
}

// ─── Reflections ───

func (s *dashboardService) GetReflection(ctx context.Context, user *models.User, week string) (*models.Reflection, error) {
	week, err := resolveWeek(user, week)
	if err != nil {
		return nil, err
	}
	return s.reflectionRepo.GetByUserWeek(ctx, user.ID, week)
}

// UpsertReflection writes the week's reflection. Peers are notified the
// first time the week's reflection is shared; later edits and
// unshare/share toggles stay quiet.
func (s *dashboardService) UpsertReflection(ctx context.Context, user *models.User, week string, req *models.UpsertReflectionRequest) (*models.Reflection, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	week, err := resolveWeek(user, week)
	if err != nil {
		return nil, err
	}

	wasShared := false
	previous, err := s.reflectionRepo.GetByUserWeek(ctx, user.ID, week)
	switch {
	case err == nil:
		wasShared = previous.Shared
	case !errors.Is(err, pkg.ErrNotFound):
		return nil, err
	}

	reflection := &models.Reflection{
		UserID:     user.ID,
		WeekStart:  week,
		Wins:       req.Wins,
		Challenges: req.Challenges,
		NextFocus:  req.NextFocus,
		Rating:     req.Rating,
		Shared:     req.Shared,
	}
	if err := s.reflectionRepo.Upsert(ctx, reflection); err != nil {
		return nil, err
	}

	if reflection.Shared || wasShared {
		s.publishReason(ctx, user.ID, GroupReasonReflection)
	}
	if reflection.Shared && s.activity != nil {
		first, err := s.reflectionRepo.ClaimShareNotification(ctx, reflection.ID, time.Now())
		if err != nil {
			s.log.Warn("failed to stamp reflection share",
				zap.String("reflection_id", reflection.ID), zap.Error(err))
		} else if first {
			s.activity.ReflectionShared(ctx, user, week)
		}
	}

	return reflection, nil
}

func (s *dashboardService) ListReflections(ctx context.Context, userID string, limit int) ([]models.Reflection, error) {
	if limit <= 0 {
		limit = defaultReflectionHistory
	}
	if limit > maxReflectionHistory {
		limit = maxReflectionHistory
	}

	reflections, err := s.reflectionRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if reflections == nil {
		reflections = []models.Reflection{}
	}
	return reflections, nil
}

// ─── Summary ───

func (s *dashboardService) Summary(ctx context.Context, user *models.User, week string) (*models.DashboardSummary, error) {
	week, err := resolveWeek(user, week)
	if err != nil {
		return nil, err
	}

	active, err := s.goalRepo.CountActive(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	counts, err := s.taskRepo.CountByUserWeek(ctx, user.ID, week)
	if err != nil {
		return nil, err
	}

	submitted := true
	if _, err := s.reflectionRepo.GetByUserWeek(ctx, user.ID, week); err != nil {
		if !errors.Is(err, pkg.ErrNotFound) {
			return nil, err
		}
		submitted = false
	}

	summary := &models.DashboardSummary{
		Week:                week,
		ActiveGoals:         active,
		TasksTotal:          counts.Total,
		TasksCompleted:      counts.Completed,
		ReflectionSubmitted: submitted,
	}
	if counts.Total > 0 {
		summary.CompletionRate = float64(counts.Completed) / float64(counts.Total)
	}

	return summary, nil
}

// ─── Private Helpers ───

func (s *dashboardService) ownGoal(ctx context.Context, userID, goalID string) (*models.Goal, error) {
	goal, err := s.goalRepo.GetByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if goal.UserID != userID {
		return nil, fmt.Errorf("%w: goal", pkg.ErrNotFound)
	}
	return goal, nil
}

func (s *dashboardService) ownTask(ctx context.Context, userID, taskID string) (*models.WeeklyTask, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, fmt.Errorf("%w: task", pkg.ErrNotFound)
	}
	return task, nil
}

func (s *dashboardService) publish(ctx context.Context, userID string) {
	s.publishReason(ctx, userID, GroupReasonProgress)
}

func (s *dashboardService) publishReason(ctx context.Context, userID, reason string) {
	if s.activity == nil {
		return
	}
	s.activity.PublishActivity(ctx, userID, reason)
}
