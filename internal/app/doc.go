// Package app wires the loyalty dashboard engine together.
//
// The engine models every server interaction as a dispatch on one of seven
// intent channels (login, register, fetchBalance, fetchRewardTier,
// fetchHistory, earnPoints, redeemPoints). Each channel admits at most one
// outstanding gateway call; a newer dispatch supersedes the older one
// immediately and the older result is discarded at settlement. Settled
// calls apply exactly one transition to the owning store — session, ledger
// or the notification queue — and the consuming UI renders snapshots.
//
// Layout:
//
//	domain/        pure models (session, loyalty, notify)
//	store/         mutex-guarded stores with reducer-style transitions
//	orchestrator/  per-channel dispatch bookkeeping and settlement
//	gateway/       remote API contract; httpgateway is the HTTP client
//	refresh/       background balance/tier refresher
//	metrics/       Prometheus collectors
//	system/        lifecycle Service interface and Manager
//
// Balance arithmetic never happens client-side: stores record the absolute
// values the server returns. The only client-side ledger logic is the
// pagination merge (append a page iff a cursor was already held and the
// request was not a reset) and the newest-first prepend of freshly created
// transactions.
package app
