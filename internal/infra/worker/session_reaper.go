package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/products-cms/internal/infra/http/middleware"
)

// SessionStore is the part of usecase.ConsoleStore the reaper drives.
type SessionStore interface {
	Reap(idle time.Duration) int
	Len() int
}

// SessionReaper evicts console sessions nobody has touched for a while.
type SessionReaper struct {
	store        SessionStore
	idle         time.Duration
	tickInterval time.Duration
	log          *zap.Logger
	// Sweepers run on every tick after the sessions are reaped.
	Sweepers []func()
}

func NewSessionReaper(store SessionStore, idle, tick time.Duration, log *zap.Logger) *SessionReaper {
	return &SessionReaper{
		store:        store,
		idle:         idle,
		tickInterval: tick,
		log:          log.Named("session-reaper"),
	}
}

func (w *SessionReaper) Start(ctx context.Context) {
	w.log.Info("🕒 Session reaper started",
		zap.Duration("idle", w.idle),
		zap.Duration("interval", w.tickInterval),
	)

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Session reaper stopped")
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep runs one eviction pass and returns how many sessions were dropped.
func (w *SessionReaper) Sweep() int {
	reaped := w.store.Reap(w.idle)
	middleware.SetActiveSessions(w.store.Len())
	if reaped > 0 {
		w.log.Info("Idle console sessions evicted", zap.Int("count", reaped))
	}
	for _, sweep := range w.Sweepers {
		sweep()
	}
	return reaped
}
