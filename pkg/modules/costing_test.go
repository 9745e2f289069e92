package modules

import (
	"testing"

	"github.com/ledgerkernel/txkernel/pkg/feereserve"
	"github.com/ledgerkernel/txkernel/pkg/substate"
)

func costingTestVault() substate.NodeId {
	return substate.NodeId{Type: substate.EntityInternalObject, Bytes: [8]byte{0, 0, 0, 0, 0, 0, 0, 1}}
}

func TestCostingModuleChargesAgainstReserve(t *testing.T) {
	reserve := feereserve.New(feereserve.Options{ExecutionCostUnitLimit: 1_000_000, RoyaltyCostUnitLimit: 1_000_000})
	costing := NewCostingModule(reserve, DefaultFeeTable())

	if err := costing.ChargeTxBaseFee(); err != nil {
		t.Fatalf("ChargeTxBaseFee: %v", err)
	}
	if err := costing.ChargeInvoke(100); err != nil {
		t.Fatalf("ChargeInvoke: %v", err)
	}
	if err := costing.ChargeCreateNode(64); err != nil {
		t.Fatalf("ChargeCreateNode: %v", err)
	}
	if err := costing.ChargeLockSubstate(); err != nil {
		t.Fatalf("ChargeLockSubstate: %v", err)
	}
	if err := costing.ChargeReadSubstate(32); err != nil {
		t.Fatalf("ChargeReadSubstate: %v", err)
	}
	if err := costing.ChargeWriteSubstate(32); err != nil {
		t.Fatalf("ChargeWriteSubstate: %v", err)
	}
	if err := costing.ChargeDropLock(); err != nil {
		t.Fatalf("ChargeDropLock: %v", err)
	}
	if err := costing.ChargeDropNode(64); err != nil {
		t.Fatalf("ChargeDropNode: %v", err)
	}
}

func TestCostingModuleFailsPastExecutionLimit(t *testing.T) {
	reserve := feereserve.New(feereserve.Options{ExecutionCostUnitLimit: 10, RoyaltyCostUnitLimit: 10})
	costing := NewCostingModule(reserve, DefaultFeeTable())

	if err := costing.ChargeTxBaseFee(); err == nil {
		t.Fatalf("expected ChargeTxBaseFee to exceed the tiny execution limit")
	}
}

func TestChargeTxPayloadScalesWithSize(t *testing.T) {
	reserve := feereserve.New(feereserve.DefaultOptions())
	costing := NewCostingModule(reserve, DefaultFeeTable())
	if err := costing.ChargeTxPayload(1000); err != nil {
		t.Fatalf("ChargeTxPayload: %v", err)
	}
}

func TestChargeRoyaltyAppliesRegisteredChargesToEachRecipient(t *testing.T) {
	reserve := feereserve.New(feereserve.DefaultOptions())
	costing := NewCostingModule(reserve, DefaultFeeTable())
	costing.SetRoyalty("Vault", "withdraw",
		RoyaltyCharge{Recipient: "package_owner", Amount: 10},
		RoyaltyCharge{Recipient: "component_owner", Amount: 5},
	)

	if err := costing.ChargeRoyalty("Vault", "withdraw"); err != nil {
		t.Fatalf("ChargeRoyalty: %v", err)
	}

	reserve.LockFee(costingTestVault(), 1000, false)
	summary, err := reserve.Finalize(true)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if summary.RoyaltyByRecipient["package_owner"] != 10 {
		t.Fatalf("package_owner royalty = %d, want 10", summary.RoyaltyByRecipient["package_owner"])
	}
	if summary.RoyaltyByRecipient["component_owner"] != 5 {
		t.Fatalf("component_owner royalty = %d, want 5", summary.RoyaltyByRecipient["component_owner"])
	}
}

func TestChargeRoyaltyIsANoOpForUnregisteredMethods(t *testing.T) {
	reserve := feereserve.New(feereserve.DefaultOptions())
	costing := NewCostingModule(reserve, DefaultFeeTable())
	if err := costing.ChargeRoyalty("Vault", "deposit"); err != nil {
		t.Fatalf("ChargeRoyalty: %v", err)
	}
	reserve.LockFee(costingTestVault(), 1000, false)
	summary, err := reserve.Finalize(true)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if summary.RoyaltyCostUnitsConsumed != 0 {
		t.Fatalf("expected no royalty consumed, got %d", summary.RoyaltyCostUnitsConsumed)
	}
}
