package app

import (
	"context"
	"fmt"

	"github.com/PointDesk/loyalty_client/internal/app/gateway"
	"github.com/PointDesk/loyalty_client/internal/app/gateway/httpgateway"
	"github.com/PointDesk/loyalty_client/internal/app/orchestrator"
	"github.com/PointDesk/loyalty_client/internal/app/refresh"
	loyaltystore "github.com/PointDesk/loyalty_client/internal/app/store/loyalty"
	"github.com/PointDesk/loyalty_client/internal/app/store/notify"
	sessionstore "github.com/PointDesk/loyalty_client/internal/app/store/session"
	"github.com/PointDesk/loyalty_client/internal/app/system"
	"github.com/PointDesk/loyalty_client/internal/config"
	"github.com/PointDesk/loyalty_client/pkg/logger"
)

// Application ties the stores, the orchestrator and the gateway together
// and manages the background service lifecycle. It is the single
// process-scoped state container; consumers read store snapshots and
// dispatch intents through Orchestrator.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Sessions     *sessionstore.Store
	Ledger       *loyaltystore.Store
	Notices      *notify.Queue
	Orchestrator *orchestrator.Orchestrator
	Gateway      gateway.Remote
	Refresher    *refresh.Refresher

	// tokens is non-nil when the default HTTP gateway is in use.
	tokens *httpgateway.TokenStore
}

// New builds a fully wired application. A nil remote defaults to the HTTP
// gateway configured by cfg, with its unauthorized teardown wired to the
// session store.
func New(cfg *config.Config, remote gateway.Remote, log *logger.Logger) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.NewDefault("app")
	}

	a := &Application{
		manager:  system.NewManager(),
		log:      log,
		Sessions: sessionstore.New(log.WithField("store", "session")),
		Ledger:   loyaltystore.New(log.WithField("store", "ledger")),
		Notices:  notify.New(log.WithField("store", "notify")),
	}

	if remote == nil {
		tokens := httpgateway.NewTokenStore()
		client, err := httpgateway.New(httpgateway.Config{
			BaseURL:           cfg.Gateway.BaseURL,
			Timeout:           cfg.Gateway.TimeoutDuration(),
			Retry:             retryConfig(cfg),
			RequestsPerSecond: cfg.Gateway.RequestsPerSecond,
			Burst:             cfg.Gateway.Burst,
		}, tokens, log.WithField("gateway", "http"))
		if err != nil {
			return nil, fmt.Errorf("build http gateway: %w", err)
		}
		// Out-of-band session invalidation: the transport clears the token
		// and resets the local session state. Navigation is the UI's job.
		client.SetUnauthorizedHook(func() {
			a.Sessions.Logout()
			a.Ledger.Reset()
		})
		a.tokens = tokens
		remote = client
	}
	a.Gateway = remote

	a.Orchestrator = orchestrator.New(remote, a.Sessions, a.Ledger, a.Notices, log.WithField("module", "orchestrator"))
	if a.tokens != nil {
		a.Orchestrator.SetTokenSink(a.tokens.Set)
	}

	if cfg.Refresh.Enabled {
		a.Refresher = refresh.New(a.Orchestrator, a.Sessions, log.WithField("module", "refresher"), cfg.Refresh.IntervalDuration())
		if err := a.manager.Register(a.Refresher); err != nil {
			return nil, fmt.Errorf("register refresher: %w", err)
		}
	}

	return a, nil
}

// Start launches the background services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.StartAll(ctx)
}

// Stop halts the background services and waits for in-flight gateway calls
// to settle.
func (a *Application) Stop(ctx context.Context) error {
	err := a.manager.StopAll(ctx)
	a.Orchestrator.Wait()
	return err
}

// Logout synchronously clears the session, the ledger and any stored
// bearer token.
func (a *Application) Logout() {
	a.Sessions.Logout()
	a.Ledger.Reset()
	if a.tokens != nil {
		a.tokens.Clear()
	}
}

func retryConfig(cfg *config.Config) httpgateway.RetryConfig {
	r := httpgateway.DefaultRetryConfig()
	r.MaxRetries = cfg.Gateway.MaxRetries
	return r
}
