// Package refresh keeps the ledger current while a user is signed in by
// periodically re-dispatching the passive read intents. Failures follow the
// read-channel policy and stay quiet.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/PointDesk/loyalty_client/internal/app/orchestrator"
	sessionstore "github.com/PointDesk/loyalty_client/internal/app/store/session"
	"github.com/PointDesk/loyalty_client/internal/app/system"
	"github.com/PointDesk/loyalty_client/pkg/logger"
)

var _ system.Service = (*Refresher)(nil)

// Refresher is a lifecycle-managed ticker that dispatches balance and
// reward-tier refreshes through the orchestrator. The orchestrator's
// latest-wins policy makes overlapping ticks harmless.
type Refresher struct {
	orch     *orchestrator.Orchestrator
	sessions *sessionstore.Store
	log      *logger.Logger
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// New creates a refresher. A non-positive interval defaults to 30s.
func New(orch *orchestrator.Orchestrator, sessions *sessionstore.Store, log *logger.Logger, interval time.Duration) *Refresher {
	if log == nil {
		log = logger.NewDefault("ledger-refresher")
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Refresher{
		orch:     orch,
		sessions: sessions,
		log:      log,
		interval: interval,
	}
}

func (r *Refresher) Name() string { return "ledger-refresher" }

func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				r.tick(runCtx)
			}
		}
	}()

	r.log.Info("ledger refresher started")
	return nil
}

func (r *Refresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.log.Info("ledger refresher stopped")
	return nil
}

func (r *Refresher) tick(ctx context.Context) {
	if !r.sessions.Authenticated() {
		return
	}
	r.orch.FetchBalance(ctx)
	r.orch.FetchRewardTier(ctx)
}
