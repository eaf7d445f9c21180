package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/akinalp/circle/repository"
)

// MaintenanceSweeper periodically deletes expired refresh sessions and
// password reset tokens.
type MaintenanceSweeper interface {
	// Start runs one sweep immediately, then one per interval, in a
	// background goroutine.
	Start()
	// Stop ends the loop. Safe to call more than once.
	Stop()
	// Sweep runs a single pass.
	Sweep(ctx context.Context)
}

type maintenanceSweeper struct {
	sessionRepo repository.SessionRepository
	resetRepo   repository.PasswordResetRepository

	interval time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	mu       sync.Mutex // guards started
	started  bool
	log      *zap.Logger
}

// NewMaintenanceSweeper is the constructor.
func NewMaintenanceSweeper(
	sessionRepo repository.SessionRepository,
	resetRepo repository.PasswordResetRepository,
	interval time.Duration,
	log *zap.Logger,
) MaintenanceSweeper {
	return &maintenanceSweeper{
		sessionRepo: sessionRepo,
		resetRepo:   resetRepo,
		interval:    interval,
		stopCh:      make(chan struct{}),
		log:         log.Named("sweeper"),
	}
}

func (m *maintenanceSweeper) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return
	}
	m.started = true

	m.log.Info("starting", zap.Duration("interval", m.interval))

	go func() {
		m.run()

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.run()
			case <-m.stopCh:
				m.log.Info("stopped")
				return
			}
		}
	}()
}

func (m *maintenanceSweeper) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
}

func (m *maintenanceSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	m.Sweep(ctx)
}

func (m *maintenanceSweeper) Sweep(ctx context.Context) {
	now := time.Now().UTC()

	purged, err := m.sessionRepo.DeleteExpired(ctx, now)
	if err != nil {
		m.log.Warn("failed to purge expired sessions", zap.Error(err))
	} else if purged > 0 {
		m.log.Debug("purged expired sessions", zap.Int64("count", purged))
	}

	if err := m.resetRepo.DeleteExpired(ctx, now); err != nil {
		m.log.Warn("failed to purge expired reset tokens", zap.Error(err))
	}
}
