// Package orchestrator maps dispatched intents to at most one outstanding
// gateway call per channel and translates each settlement into exactly one
// store transition plus an optional notification.
//
// Concurrency policy is latest-wins: every dispatch bumps a per-channel
// sequence number; a settlement is applied only if its captured sequence is
// still current. Superseded calls are allowed to complete on the wire but
// their results are discarded at settlement, so stale responses can never
// clobber newer state.
package orchestrator

import (
	"context"
	"sync"
	"time"

	domainloyalty "github.com/PointDesk/loyalty_client/internal/app/domain/loyalty"
	domainnotify "github.com/PointDesk/loyalty_client/internal/app/domain/notify"
	domainsession "github.com/PointDesk/loyalty_client/internal/app/domain/session"
	"github.com/PointDesk/loyalty_client/internal/app/gateway"
	"github.com/PointDesk/loyalty_client/internal/app/metrics"
	loyaltystore "github.com/PointDesk/loyalty_client/internal/app/store/loyalty"
	"github.com/PointDesk/loyalty_client/internal/app/store/notify"
	sessionstore "github.com/PointDesk/loyalty_client/internal/app/store/session"
	"github.com/PointDesk/loyalty_client/pkg/logger"
)

// HistoryRequest parameterises a fetchHistory dispatch. Reset clears the
// stored transaction list synchronously at dispatch time.
type HistoryRequest struct {
	Cursor string
	Reset  bool
}

// Orchestrator owns the per-channel dispatch bookkeeping. One instance
// serves the whole engine.
type Orchestrator struct {
	gw       gateway.Remote
	sessions *sessionstore.Store
	ledger   *loyaltystore.Store
	notices  *notify.Queue
	log      *logger.Logger

	// onToken receives the bearer token from successful login/register
	// settlements so the transport layer can persist it.
	onToken func(token string)

	mu      sync.Mutex
	seq     map[Channel]uint64
	pending map[Channel]*Ticket

	wg sync.WaitGroup
}

// New constructs an orchestrator over the given stores and gateway.
func New(gw gateway.Remote, sessions *sessionstore.Store, ledger *loyaltystore.Store, notices *notify.Queue, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.NewDefault("orchestrator")
	}
	return &Orchestrator{
		gw:       gw,
		sessions: sessions,
		ledger:   ledger,
		notices:  notices,
		log:      log,
		seq:      make(map[Channel]uint64),
		pending:  make(map[Channel]*Ticket),
	}
}

// SetTokenSink registers the callback invoked with the bearer token on
// successful authentication. Must be called before the first dispatch.
func (o *Orchestrator) SetTokenSink(sink func(token string)) {
	o.onToken = sink
}

// Login dispatches an authentication attempt.
func (o *Orchestrator) Login(ctx context.Context, creds domainsession.Credentials) *Ticket {
	return o.dispatch(ctx, ChannelLogin,
		o.sessions.Begin,
		func(ctx context.Context) (func(), error) {
			res, err := o.gw.Login(ctx, creds)
			if err != nil {
				return nil, err
			}
			return func() { o.applyAuth(res) }, nil
		},
		o.sessions.ApplyFailure,
	)
}

// Register dispatches a sign-up attempt.
func (o *Orchestrator) Register(ctx context.Context, reg domainsession.Registration) *Ticket {
	return o.dispatch(ctx, ChannelRegister,
		o.sessions.Begin,
		func(ctx context.Context) (func(), error) {
			res, err := o.gw.Register(ctx, reg)
			if err != nil {
				return nil, err
			}
			return func() { o.applyAuth(res) }, nil
		},
		o.sessions.ApplyFailure,
	)
}

// FetchBalance dispatches a passive balance refresh.
func (o *Orchestrator) FetchBalance(ctx context.Context) *Ticket {
	return o.dispatch(ctx, ChannelFetchBalance,
		o.ledger.Begin,
		func(ctx context.Context) (func(), error) {
			balance, err := o.gw.Balance(ctx)
			if err != nil {
				return nil, err
			}
			return func() { o.ledger.ApplyBalance(balance) }, nil
		},
		o.ledger.ApplyFailure,
	)
}

// FetchRewardTier dispatches a passive reward-tier refresh.
func (o *Orchestrator) FetchRewardTier(ctx context.Context) *Ticket {
	return o.dispatch(ctx, ChannelFetchRewardTier,
		o.ledger.Begin,
		func(ctx context.Context) (func(), error) {
			snap, err := o.gw.RewardTier(ctx)
			if err != nil {
				return nil, err
			}
			return func() { o.ledger.ApplyRewardTier(snap.Balance, snap.RewardTier) }, nil
		},
		o.ledger.ApplyFailure,
	)
}

// FetchHistory dispatches a history page fetch. The returned batch is
// appended when the store held a cursor before this dispatch and the
// request is not a reset; otherwise it replaces the list.
func (o *Orchestrator) FetchHistory(ctx context.Context, req HistoryRequest) *Ticket {
	var appendPage bool
	return o.dispatch(ctx, ChannelFetchHistory,
		func() { appendPage = o.ledger.BeginHistory(req.Reset) },
		func(ctx context.Context) (func(), error) {
			page, err := o.gw.History(ctx, req.Cursor)
			if err != nil {
				return nil, err
			}
			return func() { o.ledger.ApplyHistory(page.Transactions, page.Cursor, appendPage) }, nil
		},
		o.ledger.ApplyFailure,
	)
}

// EarnPoints dispatches a purchase-tied accrual.
func (o *Orchestrator) EarnPoints(ctx context.Context, req gateway.EarnRequest) *Ticket {
	return o.dispatch(ctx, ChannelEarnPoints,
		o.ledger.Begin,
		func(ctx context.Context) (func(), error) {
			res, err := o.gw.EarnPoints(ctx, req)
			if err != nil {
				return nil, err
			}
			return func() { o.applyMutation(res) }, nil
		},
		o.ledger.ApplyFailure,
	)
}

// RedeemPoints dispatches a reward redemption.
func (o *Orchestrator) RedeemPoints(ctx context.Context, req gateway.RedeemRequest) *Ticket {
	return o.dispatch(ctx, ChannelRedeemPoints,
		o.ledger.Begin,
		func(ctx context.Context) (func(), error) {
			res, err := o.gw.RedeemPoints(ctx, req)
			if err != nil {
				return nil, err
			}
			return func() { o.applyMutation(res) }, nil
		},
		o.ledger.ApplyFailure,
	)
}

// Wait blocks until every in-flight gateway call has settled. Intended for
// shutdown and tests.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) applyAuth(res gateway.AuthResult) {
	o.sessions.ApplyAuth(res.User)
	if o.onToken != nil {
		o.onToken(res.Token)
	}
}

func (o *Orchestrator) applyMutation(res gateway.MutationResult) {
	var tier *domainloyalty.RewardTier
	if res.RewardTier != nil {
		t := *res.RewardTier
		tier = &t
	}
	o.ledger.ApplyMutation(res.Balance, tier, res.Transaction)
}

// dispatch runs the shared channel bookkeeping: bump the sequence, mark any
// still-pending dispatch superseded immediately, apply the synchronous
// request transition, then invoke the gateway in a goroutine. invoke
// returns the success transition as a closure so settle can apply it under
// the orchestrator lock; fail applies the failure transition.
func (o *Orchestrator) dispatch(ctx context.Context, ch Channel, begin func(), invoke func(context.Context) (func(), error), fail func(msg string)) *Ticket {
	o.mu.Lock()
	o.seq[ch]++
	t := newTicket(ch, o.seq[ch])
	if prev := o.pending[ch]; prev != nil {
		if prev.finish(OutcomeSuperseded) {
			metrics.RecordSettlement(string(ch), string(OutcomeSuperseded))
			o.log.WithField("channel", string(ch)).Debug("pending dispatch superseded")
		}
	}
	o.pending[ch] = t
	begin()
	o.mu.Unlock()

	metrics.RecordDispatch(string(ch))

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		start := time.Now()
		apply, err := invoke(ctx)
		metrics.RecordGatewayCall(string(ch), time.Since(start))
		o.settle(t, apply, err, fail)
	}()
	return t
}

// settle applies at most one transition for a settled call. A dispatch that
// is no longer the latest on its channel is discarded silently: no store
// mutation, no notification.
func (o *Orchestrator) settle(t *Ticket, apply func(), err error, fail func(msg string)) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.seq[t.channel] != t.seq {
		// Already marked superseded by a newer dispatch.
		return
	}
	delete(o.pending, t.channel)

	if err != nil {
		msg := failureMessage(t.channel, err)
		fail(msg)
		if isAction(t.channel) {
			o.notices.Enqueue(msg, domainnotify.SeverityError)
			metrics.SetNotificationDepth(o.notices.Len())
		}
		t.finish(OutcomeFailed)
		metrics.RecordSettlement(string(t.channel), string(OutcomeFailed))
		o.log.WithField("channel", string(t.channel)).
			WithError(err).
			Warn("dispatch failed")
		return
	}

	apply()
	if msg, ok := successMessage[t.channel]; ok {
		o.notices.Enqueue(msg, domainnotify.SeveritySuccess)
		metrics.SetNotificationDepth(o.notices.Len())
	}
	t.finish(OutcomeApplied)
	metrics.RecordSettlement(string(t.channel), string(OutcomeApplied))
}
