package orchestrator

import "sync"

// Outcome is the terminal state of a dispatched intent.
type Outcome string

const (
	// OutcomePending means the gateway call has not settled yet.
	OutcomePending Outcome = "pending"
	// OutcomeApplied means the success transition was applied to the store.
	OutcomeApplied Outcome = "applied"
	// OutcomeFailed means the failure transition was applied to the store.
	OutcomeFailed Outcome = "failed"
	// OutcomeSuperseded means a newer dispatch on the same channel preempted
	// this one; its result was discarded without touching any store.
	OutcomeSuperseded Outcome = "superseded"
)

// Ticket is the handle returned by a dispatch. Done is closed once the
// dispatch reaches a terminal state.
type Ticket struct {
	channel Channel
	seq     uint64

	mu      sync.Mutex
	outcome Outcome
	done    chan struct{}
}

func newTicket(ch Channel, seq uint64) *Ticket {
	return &Ticket{channel: ch, seq: seq, outcome: OutcomePending, done: make(chan struct{})}
}

// Channel returns the intent channel this ticket was dispatched on.
func (t *Ticket) Channel() Channel { return t.channel }

// Done returns a channel closed when the dispatch reaches a terminal state.
func (t *Ticket) Done() <-chan struct{} { return t.done }

// Outcome returns the current state of the dispatch.
func (t *Ticket) Outcome() Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outcome
}

// finish moves the ticket to a terminal state. Reports false if the ticket
// was already terminal.
func (t *Ticket) finish(o Outcome) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.outcome != OutcomePending {
		return false
	}
	t.outcome = o
	close(t.done)
	return true
}
