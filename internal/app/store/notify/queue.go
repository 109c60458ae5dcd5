// Package notify implements the process-wide queue of transient user-facing
// messages. The display surface consumes the head; everything else waits in
// FIFO order.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/PointDesk/loyalty_client/internal/app/domain/notify"
	"github.com/PointDesk/loyalty_client/pkg/logger"
)

// Queue is an unbounded FIFO of notifications. Safe for concurrent use.
type Queue struct {
	mu      sync.RWMutex
	entries []domain.Notification
	log     *logger.Logger
}

// New creates an empty queue.
func New(log *logger.Logger) *Queue {
	if log == nil {
		log = logger.NewDefault("notify-queue")
	}
	return &Queue{log: log}
}

// Enqueue appends a notification with a fresh id and timestamp and returns
// it. Never blocks and never drops.
func (q *Queue) Enqueue(message string, severity domain.Severity) domain.Notification {
	n := domain.Notification{
		ID:        uuid.New().String(),
		Message:   message,
		Severity:  severity,
		CreatedAt: time.Now().UTC(),
	}

	q.mu.Lock()
	q.entries = append(q.entries, n)
	q.mu.Unlock()

	q.log.WithField("severity", string(severity)).Debug("notification enqueued")
	return n
}

// Dismiss removes the notification with the given id. Removing an absent id
// is a no-op; the method reports whether anything was removed. If the head
// is dismissed the next entry becomes active.
func (q *Queue) Dismiss(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, n := range q.entries {
		if n.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Active returns the currently displayed notification, the head of the
// queue, if any.
func (q *Queue) Active() (domain.Notification, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if len(q.entries) == 0 {
		return domain.Notification{}, false
	}
	return q.entries[0], true
}

// List returns a copy of all queued notifications in FIFO order.
func (q *Queue) List() []domain.Notification {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]domain.Notification(nil), q.entries...)
}

// Len reports the number of queued notifications.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}
