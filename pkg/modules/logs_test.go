package modules

import "testing"

func TestLogsModuleAccumulatesInOrder(t *testing.T) {
	m := NewLogsModule()
	m.Append("first")
	m.Append("second")

	got := m.All()
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Fatalf("All() = %v", got)
	}
}

func TestLogsModuleAllReturnsACopy(t *testing.T) {
	m := NewLogsModule()
	m.Append("first")

	got := m.All()
	got[0] = "mutated"

	if m.lines[0] != "first" {
		t.Fatalf("expected internal slice to be unaffected by mutating All()'s result")
	}
}
