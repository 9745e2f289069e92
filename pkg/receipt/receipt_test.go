package receipt

import (
	"testing"

	"github.com/ledgerkernel/txkernel/pkg/accessrules"
	"github.com/ledgerkernel/txkernel/pkg/feereserve"
	"github.com/ledgerkernel/txkernel/pkg/kernelerrors"
	"github.com/ledgerkernel/txkernel/pkg/modules"
	"github.com/ledgerkernel/txkernel/pkg/substate"
	"github.com/ledgerkernel/txkernel/pkg/substatedb"
	"github.com/ledgerkernel/txkernel/pkg/track"
)

func newTestPipeline(t *testing.T, reserve *feereserve.FeeReserve) *modules.Pipeline {
	t.Helper()
	auth := modules.NewAuthModule(accessrules.NewTable())
	return modules.New(modules.StandardModules, reserve, modules.DefaultFeeTable(), modules.DefaultLimitsConfig(), auth, [32]byte{1})
}

func vaultNode() substate.NodeId {
	return substate.NodeId{Type: substate.EntityInternalObject, Bytes: [8]byte{1}}
}

func TestFinalizeCommitSuccess(t *testing.T) {
	reserve := feereserve.New(feereserve.DefaultOptions())
	reserve.LockFee(vaultNode(), 1000, false)
	if err := reserve.ConsumeExecution("test", 200); err != nil {
		t.Fatalf("ConsumeExecution: %v", err)
	}
	pipeline := newTestPipeline(t, reserve)
	pipeline.Events.Emit(0, "ok", nil)
	pipeline.Logs.Append("hello")

	tr := track.New(substatedb.NewMemDB())

	r, err := Finalize(nil, true, reserve, tr, pipeline)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if r.Outcome != OutcomeCommitSuccess {
		t.Fatalf("Outcome = %v, want commit(success)", r.Outcome)
	}
	if r.TotalCostUnits != 200 {
		t.Fatalf("TotalCostUnits = %d, want 200", r.TotalCostUnits)
	}
	if r.FeePaid != 200 {
		t.Fatalf("FeePaid = %d, want 200", r.FeePaid)
	}
	if len(r.Events) != 1 || len(r.Logs) != 1 {
		t.Fatalf("expected one event and one log, got %+v / %+v", r.Events, r.Logs)
	}
}

func TestFinalizeCommitFailureKeepsCostsButMarksFailure(t *testing.T) {
	reserve := feereserve.New(feereserve.DefaultOptions())
	reserve.LockFee(vaultNode(), 1000, false)
	if err := reserve.ConsumeExecution("test", 50); err != nil {
		t.Fatalf("ConsumeExecution: %v", err)
	}
	pipeline := newTestPipeline(t, reserve)
	tr := track.New(substatedb.NewMemDB())

	execErr := kernelerrors.NewKernelError("callee panicked")
	r, err := Finalize(execErr, true, reserve, tr, pipeline)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if r.Outcome != OutcomeCommitFailure {
		t.Fatalf("Outcome = %v, want commit(failure)", r.Outcome)
	}
	if r.FailureError == nil {
		t.Fatalf("expected FailureError to be set")
	}
	if r.FeePaid != 50 {
		t.Fatalf("FeePaid = %d, want 50 (the fee is still charged on failure)", r.FeePaid)
	}
}

func TestFinalizeRejectsWhenLockedFeeCannotCoverTheBill(t *testing.T) {
	reserve := feereserve.New(feereserve.DefaultOptions())
	reserve.LockFee(vaultNode(), 10, false)
	if err := reserve.ConsumeExecution("test", 500); err == nil {
		t.Fatalf("expected ConsumeExecution to fail past the cost unit limit")
	}
	reserve.ConsumeDeferred("deferred", 20)
	pipeline := newTestPipeline(t, reserve)
	tr := track.New(substatedb.NewMemDB())

	r, err := Finalize(nil, true, reserve, tr, pipeline)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if r.Outcome != OutcomeRejected {
		t.Fatalf("Outcome = %v, want rejected", r.Outcome)
	}
	if r.RejectReason == "" {
		t.Fatalf("expected a non-empty reject reason")
	}
}
