package notify

import (
	"testing"

	domain "github.com/PointDesk/loyalty_client/internal/app/domain/notify"
)

func TestFIFOOrder(t *testing.T) {
	q := New(nil)

	first := q.Enqueue("one", domain.SeveritySuccess)
	second := q.Enqueue("two", domain.SeverityError)
	third := q.Enqueue("three", domain.SeverityInfo)

	if first.ID == second.ID || second.ID == third.ID {
		t.Fatalf("ids must be unique")
	}

	active, ok := q.Active()
	if !ok || active.ID != first.ID {
		t.Fatalf("head should be the oldest entry: %+v", active)
	}

	if !q.Dismiss(first.ID) {
		t.Fatalf("dismiss of present id should report removal")
	}
	active, ok = q.Active()
	if !ok || active.ID != second.ID {
		t.Fatalf("next entry should become active: %+v", active)
	}

	list := q.List()
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != third.ID {
		t.Fatalf("order not preserved: %+v", list)
	}
}

func TestDismissIsIdempotent(t *testing.T) {
	q := New(nil)
	n := q.Enqueue("hello", domain.SeverityWarning)
	q.Enqueue("world", domain.SeverityInfo)

	if !q.Dismiss(n.ID) {
		t.Fatalf("first dismiss should remove")
	}
	before := q.Len()
	if q.Dismiss(n.ID) {
		t.Fatalf("second dismiss must be a no-op")
	}
	if q.Len() != before {
		t.Fatalf("queue mutated on repeated dismiss")
	}
	if q.Dismiss("never-existed") {
		t.Fatalf("absent id must be a no-op, not an error")
	}
}

func TestEnqueuePopulatesMetadata(t *testing.T) {
	q := New(nil)
	n := q.Enqueue("saved", domain.SeveritySuccess)
	if n.ID == "" || n.CreatedAt.IsZero() {
		t.Fatalf("metadata not populated: %+v", n)
	}
	if n.Severity != domain.SeveritySuccess || n.Message != "saved" {
		t.Fatalf("payload not preserved: %+v", n)
	}
}

func TestActiveOnEmptyQueue(t *testing.T) {
	q := New(nil)
	if _, ok := q.Active(); ok {
		t.Fatalf("empty queue must have no active entry")
	}
	if q.Len() != 0 {
		t.Fatalf("unexpected length")
	}
}
