// Package services holds the business rules of the service.
//
// Services sit between handlers and repositories: they validate requests,
// enforce ownership and role checks, and orchestrate repositories, email and
// realtime events. A service never sees http.Request and never runs SQL.
package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/circle/config"
	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
	"github.com/akinalp/circle/repository"
)

const (
	bcryptCost = 12

	resetTokenTTL       = 20 * time.Minute
	resetResendCooldown = 90 * time.Second
)

// AuthService handles accounts, sessions and password recovery. Signup is
// gated: only approved applicants and bootstrap admins may register.
type AuthService interface {
	// CheckEligibility reports whether email may register now.
	CheckEligibility(ctx context.Context, email string) (bool, error)
	Register(ctx context.Context, req *models.RegisterRequest) (*AuthTokens, error)
	Login(ctx context.Context, req *models.LoginRequest) (*AuthTokens, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
	ChangePassword(ctx context.Context, userID string, req *models.ChangePasswordRequest) error
	// ForgotPassword emails a reset link. It returns the remaining cooldown
	// in seconds when a link was sent recently, and succeeds silently for
	// unknown addresses.
	ForgotPassword(ctx context.Context, email string) (int, error)
	// ResetPassword consumes a reset token and revokes every session.
	ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error
}

// AuthTokens is returned after login, signup and refresh.
type AuthTokens struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

type authService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	resetRepo   repository.PasswordResetRepository
	appRepo     repository.ApplicationRepository
	templates   TemplateService
	admin       config.AdminConfig
	appURL      string
	jwtSecret   []byte
	accessExp   time.Duration
	refreshExp  time.Duration
	log         *zap.Logger
}

// NewAuthService is the constructor.
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	resetRepo repository.PasswordResetRepository,
	appRepo repository.ApplicationRepository,
	templates TemplateService,
	jwtCfg config.JWTConfig,
	admin config.AdminConfig,
	appURL string,
	log *zap.Logger,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		resetRepo:   resetRepo,
		appRepo:     appRepo,
		templates:   templates,
		admin:       admin,
		appURL:      appURL,
		jwtSecret:   []byte(jwtCfg.Secret),
		accessExp:   time.Duration(jwtCfg.AccessTokenExpiry) * time.Minute,
		refreshExp:  time.Duration(jwtCfg.RefreshTokenExpiry) * 24 * time.Hour,
		log:         log.Named("auth"),
	}
}

func (s *authService) CheckEligibility(ctx context.Context, email string) (bool, error) {
	email = models.NormalizeEmail(email)
	if !models.ValidEmail(email) {
		return false, fmt.Errorf("%w: invalid email format", pkg.ErrBadRequest)
	}

	_, _, err := s.eligibility(ctx, email)
	if errors.Is(err, pkg.ErrForbidden) || errors.Is(err, pkg.ErrAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// eligibility returns the role and the approved application a new account
// for email would get. Registered addresses fail with ErrAlreadyExists,
// addresses without an approved application with ErrForbidden.
func (s *authService) eligibility(ctx context.Context, email string) (models.UserRole, *models.Application, error) {
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return "", nil, fmt.Errorf("%w: an account with this email already exists", pkg.ErrAlreadyExists)
	}
	if !errors.Is(err, pkg.ErrNotFound) {
		return "", nil, err
	}

	if s.admin.IsBootstrapEmail(email) {
		return models.UserRoleAdmin, nil, nil
	}

	app, err := s.appRepo.FindLatestByEmail(ctx, email, models.ApplicationApproved)
	if errors.Is(err, pkg.ErrNotFound) {
		return "", nil, fmt.Errorf("%w: no approved application for this email", pkg.ErrForbidden)
	}
	if err != nil {
		return "", nil, err
	}
	return models.UserRoleMember, app, nil
}

func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*AuthTokens, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	role, app, err := s.eligibility(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: string(hash),
		Role:         role,
		Timezone:     "UTC",
	}
	if app != nil {
		user.ApplicationID = &app.ID
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("account registered", zap.String("user_id", user.ID), zap.String("role", string(role)))

	return s.generateTokens(ctx, user)
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*AuthTokens, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", pkg.ErrUnauthorized)
	}

	return s.generateTokens(ctx, user)
}

// RefreshToken rotates a refresh token: the presented session is deleted
// and a new pair is issued.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	session, err := s.sessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid refresh token", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if err := s.sessionRepo.DeleteByID(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("failed to delete old session: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		return nil, fmt.Errorf("%w: refresh token expired", pkg.ErrUnauthorized)
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: account no longer exists", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	return s.generateTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.sessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil
		}
		return err
	}

	return s.sessionRepo.DeleteByID(ctx, session.ID)
}

func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}

	return claims, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID string, req *models.ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", pkg.ErrUnauthorized)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	return s.userRepo.UpdatePassword(ctx, userID, string(hash))
}

func (s *authService) ForgotPassword(ctx context.Context, email string) (int, error) {
	email = models.NormalizeEmail(email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	latest, err := s.resetRepo.GetLatestByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return 0, err
	}
	if latest != nil {
		if wait := resetResendCooldown - time.Since(latest.CreatedAt); wait > 0 {
			return int(wait.Seconds()) + 1, nil
		}
	}

	if err := s.resetRepo.DeleteByUserID(ctx, user.ID); err != nil {
		return 0, fmt.Errorf("failed to revoke old reset tokens: %w", err)
	}

	plain, err := randomToken()
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	token := &models.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hashToken(plain),
		ExpiresAt: now.Add(resetTokenTTL),
		CreatedAt: now,
	}
	if err := s.resetRepo.Create(ctx, token); err != nil {
		return 0, fmt.Errorf("failed to store reset token: %w", err)
	}

	sendBestEffort(ctx, s.templates, s.log, models.TemplatePasswordReset, user.Email, map[string]string{
		"full_name":       user.FullName,
		"reset_url":       s.appURL + "/reset-password?token=" + url.QueryEscape(plain),
		"expires_minutes": strconv.Itoa(int(resetTokenTTL.Minutes())),
	})

	return 0, nil
}

func (s *authService) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	token, err := s.resetRepo.GetByTokenHash(ctx, hashToken(req.Token))
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return fmt.Errorf("%w: invalid or expired reset link", pkg.ErrBadRequest)
		}
		return err
	}

	if time.Now().After(token.ExpiresAt) {
		if err := s.resetRepo.DeleteByID(ctx, token.ID); err != nil {
			s.log.Warn("failed to delete expired reset token", zap.Error(err))
		}
		return fmt.Errorf("%w: invalid or expired reset link", pkg.ErrBadRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, token.UserID, string(hash)); err != nil {
		return err
	}
	if err := s.resetRepo.DeleteByUserID(ctx, token.UserID); err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}
	if err := s.sessionRepo.DeleteByUserID(ctx, token.UserID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	return nil
}

// ─── Private Helpers ───

func (s *authService) generateTokens(ctx context.Context, user *models.User) (*AuthTokens, error) {
	now := time.Now()
	accessClaims := &models.TokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExp)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "circle",
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessString, err := accessToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshString, err := randomToken()
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: refreshString,
		ExpiresAt:    now.Add(s.refreshExp).UTC(),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	user.PasswordHash = ""

	return &AuthTokens{
		AccessToken:  accessString,
		RefreshToken: refreshString,
		User:         *user,
	}, nil
}

// randomToken returns 32 random bytes, hex encoded.
func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// hashToken is how reset tokens are stored: a leaked table cannot be
// replayed.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
