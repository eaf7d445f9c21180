// Service wire-up.
//
// Ordering matters in two places:
//  1. audit and templates come first, almost every service records or mails.
//  2. groups come before the dashboard, the group service is the dashboard's
//     GroupActivity sink.
package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/akinalp/circle/config"
	"github.com/akinalp/circle/pkg/email"
	"github.com/akinalp/circle/pkg/ratelimit"
	"github.com/akinalp/circle/services"
	"github.com/akinalp/circle/ws"
)

// sweepInterval is how often expired sessions and reset tokens are purged.
const sweepInterval = time.Hour

// Services holds every service instance.
type Services struct {
	Auth         services.AuthService
	Application  services.ApplicationService
	Audit        services.AuditService
	Template     services.TemplateService
	Notification services.NotificationService
	Dashboard    services.DashboardService
	Group        services.GroupService
	QA           services.QAService
	Deletion     services.DeletionService
	Member       services.MemberService
	Digest       services.DigestWorker
	Sweeper      services.MaintenanceSweeper
}

// RateLimiters holds the in-memory limiters of the public and posting
// endpoints.
type RateLimiters struct {
	Login       *ratelimit.LoginRateLimiter
	Submit      *ratelimit.SubmitLimiter
	Eligibility *ratelimit.SubmitLimiter
	Post        *ratelimit.PostRateLimiter
}

// Stop releases the cleanup goroutines of every limiter.
func (rl *RateLimiters) Stop() {
	rl.Login.Stop()
	rl.Submit.Stop()
	rl.Eligibility.Stop()
	rl.Post.Stop()
}

func initServices(
	repos *Repositories,
	hub ws.EventPublisher,
	sender email.Sender,
	cfg *config.Config,
	log *zap.Logger,
) (*Services, *RateLimiters) {
	appURL := cfg.Email.AppURL

	audit := services.NewAuditService(repos.Audit, log)
	templates := services.NewTemplateService(repos.Template, sender, audit, log)
	notifications := services.NewNotificationService(repos.Notification, repos.User, templates, log)

	groups := services.NewGroupService(
		repos.Group,
		repos.User,
		repos.Goal,
		repos.Task,
		repos.Reflection,
		notifications,
		audit,
		hub,
		appURL,
		log,
	)

	svcs := &Services{
		Auth: services.NewAuthService(
			repos.User,
			repos.Session,
			repos.ResetToken,
			repos.Application,
			templates,
			cfg.JWT,
			cfg.Admin,
			appURL,
			log,
		),
		Application:  services.NewApplicationService(repos.Application, templates, audit, appURL, log),
		Audit:        audit,
		Template:     templates,
		Notification: notifications,
		Dashboard:    services.NewDashboardService(repos.Goal, repos.Task, repos.Reflection, groups, log),
		Group:        groups,
		QA: services.NewQAService(
			repos.Question,
			repos.Answer,
			repos.Group,
			repos.User,
			notifications,
			hub,
			appURL,
			log,
		),
		Deletion: services.NewDeletionService(repos.Deletion, repos.User, repos.Eraser, templates, audit, log),
		Member:   services.NewMemberService(repos.User, audit, log),
		Digest: services.NewDigestWorker(
			repos.Notification,
			repos.User,
			templates,
			appURL,
			cfg.Notifications.DigestSchedule,
			cfg.Notifications.QueueRetentionDays,
			log,
		),
		Sweeper: services.NewMaintenanceSweeper(repos.Session, repos.ResetToken, sweepInterval, log),
	}

	limiters := &RateLimiters{
		Login:       ratelimit.NewLoginRateLimiter(cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow),
		Submit:      ratelimit.NewSubmitLimiter(cfg.RateLimit.ApplicationsPerMinute, cfg.RateLimit.ApplicationBurst),
		Eligibility: ratelimit.NewSubmitLimiter(cfg.RateLimit.EligibilityPerMinute, cfg.RateLimit.EligibilityPerMinute),
		Post:        ratelimit.NewPostRateLimiter(cfg.RateLimit.PostsPerWindow, cfg.RateLimit.PostWindow, cfg.RateLimit.PostCooldown),
	}

	return svcs, limiters
}
