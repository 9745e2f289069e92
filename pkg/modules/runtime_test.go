package modules

import (
	"testing"

	"github.com/ledgerkernel/txkernel/pkg/substate"
)

func TestNextNodeIdIsDeterministicAndDistinct(t *testing.T) {
	hash := [32]byte{1, 2, 3}
	a := NewTransactionRuntimeModule(hash)
	b := NewTransactionRuntimeModule(hash)

	id1a := a.NextNodeId(substate.EntityInternalObject)
	id1b := b.NextNodeId(substate.EntityInternalObject)
	if id1a != id1b {
		t.Fatalf("same tx hash and counter should produce the same NodeId, got %v and %v", id1a, id1b)
	}

	id2a := a.NextNodeId(substate.EntityInternalObject)
	if id1a == id2a {
		t.Fatalf("successive NodeIds from the same module should differ")
	}
	if id1a.Type != substate.EntityInternalObject {
		t.Fatalf("NodeId.Type = %v, want EntityInternalObject", id1a.Type)
	}
}

func TestNextUUIDIsDeterministicAndDistinct(t *testing.T) {
	hash := [32]byte{9, 9, 9}
	a := NewTransactionRuntimeModule(hash)
	b := NewTransactionRuntimeModule(hash)

	u1a, err := a.NextUUID()
	if err != nil {
		t.Fatalf("NextUUID: %v", err)
	}
	u1b, err := b.NextUUID()
	if err != nil {
		t.Fatalf("NextUUID: %v", err)
	}
	if u1a != u1b {
		t.Fatalf("same tx hash and counter should produce the same UUID")
	}

	u2a, err := a.NextUUID()
	if err != nil {
		t.Fatalf("NextUUID: %v", err)
	}
	if u1a == u2a {
		t.Fatalf("successive UUIDs from the same module should differ")
	}
}

func TestNextUUIDExhaustsCounter(t *testing.T) {
	m := NewTransactionRuntimeModule([32]byte{})
	m.nextId = 1 << 32
	if _, err := m.NextUUID(); err == nil {
		t.Fatalf("expected NextUUID to fail once the 32-bit counter is exhausted")
	}
}

func TestNextUUIDBoundary(t *testing.T) {
	m := NewTransactionRuntimeModule([32]byte{})
	m.nextId = (1 << 32) - 2 // math.MaxUint32 - 1
	if _, err := m.NextUUID(); err != nil {
		t.Fatalf("expected NextUUID to succeed at MaxUint32-1, got %v", err)
	}
	if m.nextId != (1<<32)-1 {
		t.Fatalf("expected counter to advance to MaxUint32, got %d", m.nextId)
	}
	if _, err := m.NextUUID(); err == nil {
		t.Fatalf("expected NextUUID to fail at MaxUint32")
	}
}
