package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eduhub/eduhub-backend/internal/session"
)

// DemoReaper ticks the demo session timers. Each tick asks the session
// manager to sweep its demo registry, which fires the expiry transition
// for any session that crossed its deadline since the previous tick.
type DemoReaper struct {
	sessions  *session.Manager
	logger    *zap.SugaredLogger
	interval  time.Duration
	cancelCtx context.CancelFunc
}

func NewDemoReaper(sessions *session.Manager, logger *zap.SugaredLogger, interval time.Duration) *DemoReaper {
	if interval <= 0 {
		interval = time.Second
	}
	return &DemoReaper{
		sessions: sessions,
		logger:   logger,
		interval: interval,
	}
}

func (r *DemoReaper) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	r.cancelCtx = cancel

	r.logger.Infow("Starting demo session reaper", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Infow("Demo session reaper stopping due to context cancellation")
			return ctx.Err()
		case <-ticker.C:
			r.sessions.Sweep(ctx)
		}
	}
}

func (r *DemoReaper) Stop() {
	if r.cancelCtx != nil {
		r.cancelCtx()
	}
}
