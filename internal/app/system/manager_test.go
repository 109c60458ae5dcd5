package system

import (
	"context"
	"fmt"
	"testing"
)

type recordingService struct {
	NoopService
	events   *[]string
	failName string
}

func (s recordingService) Start(_ context.Context) error {
	if s.failName == s.ServiceName {
		return fmt.Errorf("boom")
	}
	*s.events = append(*s.events, "start:"+s.ServiceName)
	return nil
}

func (s recordingService) Stop(_ context.Context) error {
	*s.events = append(*s.events, "stop:"+s.ServiceName)
	return nil
}

func TestStartStopOrdering(t *testing.T) {
	var events []string
	m := NewManager()
	for _, name := range []string{"a", "b", "c"} {
		if err := m.Register(recordingService{NoopService: NoopService{ServiceName: name}, events: &events}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	if err := m.StartAll(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.StopAll(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := []string{"start:a", "start:b", "start:c", "stop:c", "stop:b", "stop:a"}
	if len(events) != len(want) {
		t.Fatalf("unexpected events: %v", events)
	}
	for i, e := range want {
		if events[i] != e {
			t.Fatalf("event %d: got %s want %s", i, events[i], e)
		}
	}
}

func TestStartFailureUnwindsStartedServices(t *testing.T) {
	var events []string
	m := NewManager()
	_ = m.Register(recordingService{NoopService: NoopService{ServiceName: "a"}, events: &events})
	_ = m.Register(recordingService{NoopService: NoopService{ServiceName: "b"}, events: &events, failName: "b"})

	if err := m.StartAll(context.Background()); err == nil {
		t.Fatalf("expected start failure")
	}
	want := []string{"start:a", "stop:a"}
	if len(events) != 2 || events[0] != want[0] || events[1] != want[1] {
		t.Fatalf("unwind incorrect: %v", events)
	}
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	m := NewManager()
	if err := m.Register(NoopService{ServiceName: "x"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := m.Register(NoopService{ServiceName: "x"}); err == nil {
		t.Fatalf("duplicate name must be rejected")
	}
}
