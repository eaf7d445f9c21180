// Handler wire-up. Handlers are thin: parse the request, call a service,
// write the envelope.
package main

import (
	"github.com/akinalp/circle/config"
	"github.com/akinalp/circle/handlers"
	"github.com/akinalp/circle/pkg/ratelimit"
	"github.com/akinalp/circle/ws"
)

// Handlers holds every HTTP handler instance.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Application  *handlers.ApplicationHandler
	Dashboard    *handlers.DashboardHandler
	Group        *handlers.GroupHandler
	QA           *handlers.QAHandler
	Notification *handlers.NotificationHandler
	Member       *handlers.MemberHandler
	Deletion     *handlers.DeletionHandler
	Template     *handlers.TemplateHandler
	Audit        *handlers.AuditHandler
	Health       *handlers.HealthHandler
	WS           *ws.Handler
}

func initHandlers(
	svcs *Services,
	limiters *RateLimiters,
	hub *ws.Hub,
	db handlers.Pinger,
	cfg *config.Config,
) *Handlers {
	proxies := ratelimit.TrustedProxies(cfg.Server.TrustedProxies)

	return &Handlers{
		Auth:         handlers.NewAuthHandler(svcs.Auth, limiters.Login, limiters.Eligibility, proxies),
		Application:  handlers.NewApplicationHandler(svcs.Application, limiters.Submit, proxies),
		Dashboard:    handlers.NewDashboardHandler(svcs.Dashboard),
		Group:        handlers.NewGroupHandler(svcs.Group),
		QA:           handlers.NewQAHandler(svcs.QA, limiters.Post),
		Notification: handlers.NewNotificationHandler(svcs.Notification),
		Member:       handlers.NewMemberHandler(svcs.Member),
		Deletion:     handlers.NewDeletionHandler(svcs.Deletion),
		Template:     handlers.NewTemplateHandler(svcs.Template),
		Audit:        handlers.NewAuditHandler(svcs.Audit),
		Health:       handlers.NewHealthHandler(db),
		WS:           ws.NewHandler(hub, svcs.Auth, cfg.Server.AllowedOrigins),
	}
}
