package modules

import "testing"

func TestEmitAccumulatesInOrder(t *testing.T) {
	m := NewEventsModule()
	m.Emit(0, "deposit", []byte("a"))
	m.Emit(1, "withdraw", []byte("b"))

	events := m.All()
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Type != "deposit" || events[1].Type != "withdraw" {
		t.Fatalf("unexpected event order: %+v", events)
	}
}

func TestRollbackToDepthDiscardsDeeperEvents(t *testing.T) {
	m := NewEventsModule()
	m.Emit(0, "root-event", nil)
	m.Emit(1, "child-event", nil)
	m.Emit(2, "grandchild-event", nil)

	m.RollbackToDepth(1)

	events := m.All()
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1, got %+v", len(events), events)
	}
	if events[0].Type != "root-event" {
		t.Fatalf("expected only root-event to survive, got %+v", events[0])
	}
}

func TestEmitCopiesPayload(t *testing.T) {
	m := NewEventsModule()
	payload := []byte("mutable")
	m.Emit(0, "event", payload)
	payload[0] = 'X'

	if string(m.All()[0].Payload) != "mutable" {
		t.Fatalf("Emit should copy the payload, mutation leaked through")
	}
}
