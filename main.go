// Command circle is the membership backend of a paid accountability group.
//
// Subcommands:
//
//	circle serve            run the HTTP + WebSocket server, digest and sweeper
//	circle migrate          apply pending migrations and exit
//	circle digest           flush the notification digest once and exit
//	circle promote <email>  make an existing account an admin
//
// Startup order for serve:
//  1. config (.env + environment)
//  2. zap logger
//  3. SQLite + embedded migrations
//  4. email sender (Resend, or a logging sender when email is not configured)
//  5. repositories, hub, services, handlers
//  6. routes, metrics, CORS
//  7. background jobs (hub loop, digest cron, maintenance sweeper)
//  8. HTTP server with graceful shutdown
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/akinalp/circle/config"
	"github.com/akinalp/circle/database"
	"github.com/akinalp/circle/middleware"
	"github.com/akinalp/circle/pkg/email"
	"github.com/akinalp/circle/pkg/logger"
	"github.com/akinalp/circle/ws"
)

var rootCmd = &cobra.Command{
	Use:           "circle",
	Short:         "Membership backend for an accountability group",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Send queued digest notifications now",
	Long: `Flush the digest queue once, outside the cron schedule.

Every user with unsent digest items gets one email; items are marked
sent only after the email was accepted.`,
	RunE: runDigest,
}

var promoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Grant the admin role to an existing account",
	Args:  cobra.ExactArgs(1),
	RunE:  runPromote,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, digestCmd, promoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// runtimeDeps is what every subcommand needs before doing its work.
type runtimeDeps struct {
	cfg *config.Config
	log *zap.Logger
	db  *database.DB
}

func (d *runtimeDeps) close() {
	if err := d.db.Close(); err != nil {
		d.log.Warn("failed to close database", zap.Error(err))
	}
	_ = d.log.Sync()
}

// bootstrap loads config, builds the logger and opens the database, which
// also applies pending migrations.
func bootstrap() (*runtimeDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}

	db, err := database.New(cfg.Database.Path, database.Migrations(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &runtimeDeps{cfg: cfg, log: log, db: db}, nil
}

// newSender picks Resend when it is fully configured. Without it every
// email is written to the log so local development still shows the links.
func newSender(cfg config.EmailConfig, log *zap.Logger) email.Sender {
	if cfg.Enabled() {
		return email.NewResendSender(cfg.ResendAPIKey, cfg.FromName, cfg.FromEmail)
	}
	log.Warn("email is not configured, emails will only be logged")
	return email.NewLogSender(log)
}

// buildServices wires repositories and services. The hub is returned
// unstarted; only serve runs its loop.
func buildServices(deps *runtimeDeps) (*Repositories, *ws.Hub, *Services, *RateLimiters) {
	repos := initRepositories(deps.db.Conn)
	hub := ws.NewHub(deps.log)
	sender := newSender(deps.cfg.Email, deps.log)
	svcs, limiters := initServices(repos, hub, sender, deps.cfg, deps.log)
	return repos, hub, svcs, limiters
}

func runServe(cmd *cobra.Command, _ []string) error {
	deps, err := bootstrap()
	if err != nil {
		return err
	}
	defer deps.close()
	log := deps.log.Named("main")

	repos, hub, svcs, limiters := buildServices(deps)
	defer limiters.Stop()
	defer svcs.Template.Close()

	go hub.Run()

	if err := svcs.Digest.Start(); err != nil {
		return fmt.Errorf("failed to start digest worker: %w", err)
	}
	defer svcs.Digest.Stop()

	svcs.Sweeper.Start()
	defer svcs.Sweeper.Stop()

	h := initHandlers(svcs, limiters, hub, deps.db.Conn, deps.cfg)

	mux := http.NewServeMux()
	initRoutes(mux, h, svcs.Auth, repos.User)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   deps.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         deps.cfg.Server.Addr(),
		Handler:      middleware.Metrics(corsHandler.Handler(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-done:
	case err := <-serveErr:
		hub.Shutdown()
		return fmt.Errorf("server error: %w", err)
	}
	log.Info("shutting down")

	// Sockets first so clients see the close, then stop accepting requests
	// and let in-flight ones finish.
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func runMigrate(_ *cobra.Command, _ []string) error {
	deps, err := bootstrap()
	if err != nil {
		return err
	}
	defer deps.close()

	deps.log.Named("main").Info("migrations applied", zap.String("path", deps.cfg.Database.Path))
	return nil
}

func runDigest(cmd *cobra.Command, _ []string) error {
	deps, err := bootstrap()
	if err != nil {
		return err
	}
	defer deps.close()

	_, _, svcs, limiters := buildServices(deps)
	defer limiters.Stop()
	defer svcs.Template.Close()

	sent, err := svcs.Digest.Flush(cmd.Context())
	if err != nil {
		return fmt.Errorf("digest flush: %w", err)
	}

	deps.log.Named("main").Info("digest flushed", zap.Int("sent", sent))
	return nil
}

func runPromote(cmd *cobra.Command, args []string) error {
	deps, err := bootstrap()
	if err != nil {
		return err
	}
	defer deps.close()

	_, _, svcs, limiters := buildServices(deps)
	defer limiters.Stop()
	defer svcs.Template.Close()

	user, err := svcs.Member.Promote(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("promote %s: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now an admin\n", user.Email, user.ID)
	return nil
}
