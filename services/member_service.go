package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
	"github.com/akinalp/circle/repository"
)

// MemberService covers account management outside of auth: the admin
// member list and role changes, and the caller's own profile.
type MemberService interface {
	List(ctx context.Context) ([]models.MemberListItem, error)
	// SetRole changes another user's role. Admins cannot change their own.
	SetRole(ctx context.Context, adminID, userID string, req *models.SetRoleRequest) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error)
	// Promote makes the account registered with email an admin. Used by the
	// command line.
	Promote(ctx context.Context, email string) (*models.User, error)
}

type memberService struct {
	userRepo repository.UserRepository
	audit    AuditService
	log      *zap.Logger
}

// NewMemberService is the constructor.
func NewMemberService(userRepo repository.UserRepository, audit AuditService, log *zap.Logger) MemberService {
	return &memberService{
		userRepo: userRepo,
		audit:    audit,
		log:      log.Named("members"),
	}
}

func (s *memberService) List(ctx context.Context) ([]models.MemberListItem, error) {
	members, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []models.MemberListItem{}
	}
	return members, nil
}

func (s *memberService) SetRole(ctx context.Context, adminID, userID string, req *models.SetRoleRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	if adminID == userID {
		return nil, fmt.Errorf("%w: you cannot change your own role", pkg.ErrBadRequest)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == req.Role {
		return user, nil
	}

	if err := s.userRepo.UpdateRole(ctx, userID, req.Role); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, adminID, models.AuditMemberRole, "user", userID, map[string]any{
		"from": string(user.Role),
		"to":   string(req.Role),
	})

	user.Role = req.Role
	return user, nil
}

func (s *memberService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Timezone != nil {
		user.Timezone = *req.Timezone
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, user.FullName, user.Timezone); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *memberService) Promote(ctx context.Context, email string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	if !user.IsAdmin() {
		if err := s.userRepo.UpdateRole(ctx, user.ID, models.UserRoleAdmin); err != nil {
			return nil, err
		}
		user.Role = models.UserRoleAdmin
		s.log.Info("user promoted to admin", zap.String("user_id", user.ID))
	}
	return user, nil
}
