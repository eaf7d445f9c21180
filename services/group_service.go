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
	"github.com/akinalp/circle/ws"
)

// Reasons carried by group_update events.
const (
	GroupReasonUpdated       = "updated"
	GroupReasonDeleted       = "deleted"
	GroupReasonMemberAdded   = "member_added"
	GroupReasonMemberRemoved = "member_removed"
	GroupReasonProgress      = "progress"
	GroupReasonReflection    = "reflection"
)

// GroupService manages accountability groups (admin) and builds the
// member-facing group view.
type GroupService interface {
	Create(ctx context.Context, adminID string, req *models.CreateGroupRequest) (*models.Group, error)
	List(ctx context.Context) ([]models.Group, error)
	Get(ctx context.Context, id string) (*models.GroupDetail, error)
	Update(ctx context.Context, adminID, id string, req *models.UpdateGroupRequest) (*models.Group, error)
	Delete(ctx context.Context, adminID, id string) error
	// AddMember fails with ErrAlreadyExists when the user is in any group and
	// with ErrBadRequest when the group is full.
	AddMember(ctx context.Context, adminID, groupID, userID string) error
	RemoveMember(ctx context.Context, adminID, groupID, userID string) error

	// View returns the caller's group with every member's progress for the
	// week. ErrNotFound when the caller has no group.
	View(ctx context.Context, user *models.User, week string) (*models.GroupView, error)

	GroupActivity
}

// GroupActivity is how dashboard changes reach the member's group.
type GroupActivity interface {
	// PublishActivity tells the user's group to refresh. No-op when the user
	// has no group.
	PublishActivity(ctx context.Context, userID, reason string)
	// ReflectionShared notifies the user's peers by email or digest.
	ReflectionShared(ctx context.Context, user *models.User, week string)
}

type groupService struct {
	groupRepo      repository.GroupRepository
	userRepo       repository.UserRepository
	goalRepo       repository.GoalRepository
	taskRepo       repository.TaskRepository
	reflectionRepo repository.ReflectionRepository
	notifier       NotificationService
	audit          AuditService
	hub            ws.EventPublisher
	appURL         string
	log            *zap.Logger
}

// NewGroupService is the constructor.
func NewGroupService(
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	goalRepo repository.GoalRepository,
	taskRepo repository.TaskRepository,
	reflectionRepo repository.ReflectionRepository,
	notifier NotificationService,
	audit AuditService,
	hub ws.EventPublisher,
	appURL string,
	log *zap.Logger,
) GroupService {
	return &groupService{
		groupRepo:      groupRepo,
		userRepo:       userRepo,
		goalRepo:       goalRepo,
		taskRepo:       taskRepo,
		reflectionRepo: reflectionRepo,
		notifier:       notifier,
		audit:          audit,
		hub:            hub,
		appURL:         appURL,
		log:            log.Named("groups"),
	}
}

func (s *groupService) Create(ctx context.Context, adminID string, req *models.CreateGroupRequest) (*models.Group, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	group := &models.Group{
		Name:        req.Name,
		Description: req.Description,
		Capacity:    req.Capacity,
	}
	if req.MeetingSchedule != "" {
		group.MeetingSchedule = &req.MeetingSchedule
	}

	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, adminID, models.AuditGroupCreate, "group", group.ID, map[string]any{
		"name":     group.Name,
		"capacity": group.Capacity,
	})

	return group, nil
}

func (s *groupService) List(ctx context.Context) ([]models.Group, error) {
	groups, err := s.groupRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []models.Group{}
	}
	return groups, nil
}

func (s *groupService) Get(ctx context.Context, id string) (*models.GroupDetail, error) {
	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	members, err := s.groupRepo.ListMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []models.GroupMember{}
	}

	return &models.GroupDetail{Group: *group, Members: members}, nil
}

func (s *groupService) Update(ctx context.Context, adminID, id string, req *models.UpdateGroupRequest) (*models.Group, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		group.Name = *req.Name
	}
	if req.Description != nil {
		group.Description = *req.Description
	}
	if req.Capacity != nil {
		if *req.Capacity < group.MemberCount {
			return nil, fmt.Errorf("%w: capacity cannot be below the current %d members", pkg.ErrBadRequest, group.MemberCount)
		}
		group.Capacity = *req.Capacity
	}
	if req.MeetingSchedule != nil {
		if *req.MeetingSchedule == "" {
			group.MeetingSchedule = nil
		} else {
			group.MeetingSchedule = req.MeetingSchedule
		}
	}

	if err := s.groupRepo.Update(ctx, group); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, adminID, models.AuditGroupUpdate, "group", id, map[string]any{
		"name":     group.Name,
		"capacity": group.Capacity,
	})
	s.broadcastToGroup(ctx, id, ws.GroupUpdateData{GroupID: id, Reason: GroupReasonUpdated})

	return group, nil
}

func (s *groupService) Delete(ctx context.Context, adminID, id string) error {
	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	// Read the roster first, it is gone after the delete.
	memberIDs, err := s.memberIDs(ctx, id)
	if err != nil {
		return err
	}

	if err := s.groupRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, adminID, models.AuditGroupDelete, "group", id, map[string]any{
		"name":    group.Name,
		"members": len(memberIDs),
	})
	s.hub.BroadcastToUsers(memberIDs, ws.Event{
		Op:   ws.OpGroupUpdate,
		Data: ws.GroupUpdateData{GroupID: id, Reason: GroupReasonDeleted},
	})

	return nil
}

func (s *groupService) AddMember(ctx context.Context, adminID, groupID, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user_id is required", pkg.ErrBadRequest)
	}

	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return err
	}

	if group.MemberCount >= group.Capacity {
		return fmt.Errorf("%w: group is full (%d/%d)", pkg.ErrBadRequest, group.MemberCount, group.Capacity)
	}

	if err := s.groupRepo.AddMember(ctx, groupID, userID); err != nil {
		if errors.Is(err, pkg.ErrAlreadyExists) {
			return fmt.Errorf("%w: member already belongs to a group", pkg.ErrAlreadyExists)
		}
		return err
	}

	s.audit.Record(ctx, adminID, models.AuditGroupMemberAdd, "group", groupID, map[string]any{
		"user_id": userID,
	})
	s.broadcastToGroup(ctx, groupID, ws.GroupUpdateData{
		GroupID: groupID,
		Reason:  GroupReasonMemberAdded,
		UserID:  userID,
	})

	return nil
}

func (s *groupService) RemoveMember(ctx context.Context, adminID, groupID, userID string) error {
	if err := s.groupRepo.RemoveMember(ctx, groupID, userID); err != nil {
		return err
	}

	s.audit.Record(ctx, adminID, models.AuditGroupMemberRemove, "group", groupID, map[string]any{
		"user_id": userID,
	})

	data := ws.GroupUpdateData{GroupID: groupID, Reason: GroupReasonMemberRemoved, UserID: userID}
	s.broadcastToGroup(ctx, groupID, data)
	s.hub.BroadcastToUser(userID, ws.Event{Op: ws.OpGroupUpdate, Data: data})

	return nil
}

func (s *groupService) View(ctx context.Context, user *models.User, week string) (*models.GroupView, error) {
	week, err := resolveWeek(user, week)
	if err != nil {
		return nil, err
	}

	group, err := s.groupRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: you are not in a group yet", pkg.ErrNotFound)
		}
		return nil, err
	}

	members, err := s.groupRepo.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}

	goals, err := s.goalRepo.ListActiveByUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	counts, err := s.taskRepo.CountByUsersWeek(ctx, ids, week)
	if err != nil {
		return nil, err
	}
	reflections, err := s.reflectionRepo.ListSharedByUsers(ctx, ids, week)
	if err != nil {
		return nil, err
	}

	view := &models.GroupView{
		Group:   *group,
		Week:    week,
		Members: make([]models.PeerProgress, 0, len(members)),
	}
	for _, m := range members {
		peerGoals := goals[m.UserID]
		if peerGoals == nil {
			peerGoals = []models.Goal{}
		}
		c := counts[m.UserID]
		view.Members = append(view.Members, models.PeerProgress{
			UserID:         m.UserID,
			FullName:       m.FullName,
			ActiveGoals:    peerGoals,
			TasksTotal:     c.Total,
			TasksCompleted: c.Completed,
			Reflection:     reflections[m.UserID],
		})
	}

	return view, nil
}

func (s *groupService) PublishActivity(ctx context.Context, userID, reason string) {
	group, err := s.groupRepo.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, pkg.ErrNotFound) {
			s.log.Warn("failed to resolve group for activity", zap.String("user_id", userID), zap.Error(err))
		}
		return
	}

	s.broadcastToGroup(ctx, group.ID, ws.GroupUpdateData{
		GroupID: group.ID,
		Reason:  reason,
		UserID:  userID,
	})
}

func (s *groupService) ReflectionShared(ctx context.Context, user *models.User, week string) {
	group, err := s.groupRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, pkg.ErrNotFound) {
			s.log.Warn("failed to resolve group for reflection", zap.String("user_id", user.ID), zap.Error(err))
		}
		return
	}

	ids, err := s.memberIDs(ctx, group.ID)
	if err != nil {
		s.log.Warn("failed to list group members", zap.String("group_id", group.ID), zap.Error(err))
		return
	}

	link := s.appURL + "/group?week=" + week
	_, err = s.notifier.Dispatch(ctx, Notification{
		Kind:          models.KindGroupActivity,
		Recipients:    ids,
		ExcludeUserID: user.ID,
		Template:      models.TemplateReflectionShared,
		Vars: map[string]string{
			"author_name": user.FullName,
			"week":        week,
			"link":        link,
		},
		Subject: user.FullName + " shared their week",
		Summary: "Reflection for the week of " + week,
		Link:    link,
	})
	if err != nil {
		s.log.Warn("failed to dispatch reflection notification", zap.String("user_id", user.ID), zap.Error(err))
	}
}

// ─── Private Helpers ───

func (s *groupService) memberIDs(ctx context.Context, groupID string) ([]string, error) {
	members, err := s.groupRepo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	return ids, nil
}

func (s *groupService) broadcastToGroup(ctx context.Context, groupID string, data ws.GroupUpdateData) {
	ids, err := s.memberIDs(ctx, groupID)
	if err != nil {
		s.log.Warn("failed to list group members for broadcast", zap.String("group_id", groupID), zap.Error(err))
		return
	}
	s.hub.BroadcastToUsers(ids, ws.Event{Op: ws.OpGroupUpdate, Data: data})
}

// resolveWeek validates week, defaulting to the current week in the user's
// time zone.
func resolveWeek(user *models.User, week string) (string, error) {
	if week == "" {
		return models.WeekStart(time.Now(), user.Location()), nil
	}
	parsed, err := models.ParseWeek(week)
	if err != nil {
		return "", fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	return parsed, nil
}
