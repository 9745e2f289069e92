package modules

import (
	"testing"

	"github.com/ledgerkernel/txkernel/pkg/substate"
)

func testNode(entityType substate.EntityType, n byte) substate.NodeId {
	return substate.NodeId{Type: entityType, Bytes: [8]byte{0, 0, 0, 0, 0, 0, 0, n}}
}

func TestValidateMoveDownRejectsGlobalAndKeyValueStore(t *testing.T) {
	m := NewNodeMoveModule()
	if err := m.ValidateMoveDown(testNode(substate.EntityGlobalComponent, 1), false); err == nil {
		t.Fatalf("expected global component move to be rejected")
	}
	if err := m.ValidateMoveDown(testNode(substate.EntityKeyValueStore, 1), false); err == nil {
		t.Fatalf("expected key-value-store move to be rejected")
	}
}

func TestValidateMoveDownAllowsPlainNode(t *testing.T) {
	m := NewNodeMoveModule()
	if err := m.ValidateMoveDown(testNode(substate.EntityInternalObject, 1), false); err != nil {
		t.Fatalf("ValidateMoveDown: %v", err)
	}
}

func TestValidateMoveDownRestrictsProofOnSecondCross(t *testing.T) {
	m := NewNodeMoveModule()
	proof := testNode(substate.EntityInternalObject, 7)
	if err := m.ValidateMoveDown(proof, true); err != nil {
		t.Fatalf("first cross: %v", err)
	}
	if err := m.ValidateMoveDown(proof, true); err == nil {
		t.Fatalf("expected second cross of a restricted proof to be rejected")
	}
}

func TestValidateMoveUpRejectsGlobalAndKeyValueStore(t *testing.T) {
	m := NewNodeMoveModule()
	if err := m.ValidateMoveUp(testNode(substate.EntityGlobalResource, 1)); err == nil {
		t.Fatalf("expected global resource move to be rejected")
	}
}
