package modules

import "testing"

func TestCheckInvokeRejectsPastMaxDepth(t *testing.T) {
	m := NewLimitsModule(LimitsConfig{MaxCallDepth: 2, MaxInvokePayloadSize: 1024})
	if err := m.CheckInvoke(1, 10); err != nil {
		t.Fatalf("CheckInvoke at depth 1: %v", err)
	}
	if err := m.CheckInvoke(2, 10); err == nil {
		t.Fatalf("expected CheckInvoke to reject depth 2 against MaxCallDepth 2")
	}
}

func TestCheckInvokeRejectsOversizedPayload(t *testing.T) {
	m := NewLimitsModule(LimitsConfig{MaxCallDepth: 8, MaxInvokePayloadSize: 100})
	if err := m.CheckInvoke(0, 1000); err == nil {
		t.Fatalf("expected CheckInvoke to reject a 1000 byte payload against a 100 byte limit")
	}
}

func TestNoteNewTrackEntryRejectsPastCap(t *testing.T) {
	m := NewLimitsModule(LimitsConfig{MaxNumberOfSubstatesInTrack: 2})
	if err := m.NoteNewTrackEntry(); err != nil {
		t.Fatalf("1st entry: %v", err)
	}
	if err := m.NoteNewTrackEntry(); err != nil {
		t.Fatalf("2nd entry: %v", err)
	}
	if err := m.NoteNewTrackEntry(); err == nil {
		t.Fatalf("expected 3rd entry to exceed the cap of 2")
	}
}

func TestNoteEventRejectsOversizedOrTooMany(t *testing.T) {
	m := NewLimitsModule(LimitsConfig{MaxNumberOfEvents: 1, MaxEventSize: 10})
	if err := m.NoteEvent(1000); err == nil {
		t.Fatalf("expected oversized event to be rejected")
	}
	if err := m.NoteEvent(5); err != nil {
		t.Fatalf("1st event: %v", err)
	}
	if err := m.NoteEvent(5); err == nil {
		t.Fatalf("expected 2nd event to exceed MaxNumberOfEvents 1")
	}
}

func TestNoteLogRejectsOversizedOrTooMany(t *testing.T) {
	m := NewLimitsModule(LimitsConfig{MaxNumberOfLogs: 1, MaxLogSize: 10})
	if err := m.NoteLog(1000); err == nil {
		t.Fatalf("expected oversized log to be rejected")
	}
	if err := m.NoteLog(5); err != nil {
		t.Fatalf("1st log: %v", err)
	}
	if err := m.NoteLog(5); err == nil {
		t.Fatalf("expected 2nd log to exceed MaxNumberOfLogs 1")
	}
}
