// Package receipt produces the transaction's final outcome (spec §7's
// "transaction output"): rejected, committed with success, or committed
// with failure, plus the cost totals, fee payment, state diff, events,
// logs, and optional execution trace that go with it. It is grounded on
// feereserve.FeeReserve.Finalize for the "can the locked vaults cover the
// bill" decision and on track.Track.Finalize/RevertNonForceWrites for how
// a committed-failure outcome keeps force writes (fee debits) while
// discarding everything else.
package receipt

import (
	"github.com/ledgerkernel/txkernel/pkg/feereserve"
	"github.com/ledgerkernel/txkernel/pkg/modules"
	"github.com/ledgerkernel/txkernel/pkg/substate"
	"github.com/ledgerkernel/txkernel/pkg/track"
)

// Outcome tags which of the three shapes spec §7 names a Receipt carries.
type Outcome uint8

const (
	OutcomeRejected Outcome = iota
	OutcomeCommitSuccess
	OutcomeCommitFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRejected:
		return "rejected"
	case OutcomeCommitSuccess:
		return "commit(success)"
	case OutcomeCommitFailure:
		return "commit(failure)"
	default:
		return "unknown"
	}
}

// Receipt is the finalized result of running one transaction's
// instruction list through the kernel.
type Receipt struct {
	Outcome Outcome

	// RejectReason is set only when Outcome is OutcomeRejected.
	RejectReason string
	// FailureError is set only when Outcome is OutcomeCommitFailure.
	FailureError error

	ExecutionCostUnits uint64
	RoyaltyCostUnits   uint64
	TotalCostUnits     uint64
	// RoyaltyByRecipient breaks RoyaltyCostUnits down by the recipient
	// each royalty charge named (spec §7: "total royalty cost broken
	// down by recipient").
	RoyaltyByRecipient map[string]uint64

	// FeePaid is the sum of VaultChange, the total actually withdrawn
	// from locked fee vaults to cover TotalCostUnits.
	FeePaid uint64
	// VaultChange is the amount withdrawn from each locked vault.
	VaultChange map[substate.NodeId]uint64

	// StateDiff is empty for a rejected transaction (no state change per
	// spec §7) and otherwise holds whatever writes survived: every write
	// for commit(success), force writes only for commit(failure).
	StateDiff track.Diff

	Events []modules.Event
	Logs   []string
	// Trace is the zstd-compressed preview-mode execution trace, nil
	// unless ModExecutionTrace was enabled for this transaction.
	Trace []byte
}

// Finalize settles fees against reserve and drains tr into the Receipt's
// state diff, choosing between the three outcomes spec §7 describes.
// executionErr is the error (if any) the instruction list itself ended
// with; committed tells Finalize whether contingent fee locks (e.g.
// royalty vaults that should not be charged on failure) are payable.
//
// If the locked vaults cannot cover the final bill, the whole
// transaction is rejected regardless of executionErr — "not committed
// with failure" per spec §4.4's finalize() contract — and the Receipt
// carries no StateDiff: non-force writes are reverted, and the force
// writes left in tr are not drained into the Receipt.
func Finalize(executionErr error, committed bool, reserve *feereserve.FeeReserve, tr *track.Track, pipeline *modules.Pipeline) (Receipt, error) {
	events, logs, traceBytes, err := pipeline.OnExecutionFinish()
	if err != nil {
		return Receipt{}, err
	}

	summary, feeErr := reserve.Finalize(committed)
	if feeErr != nil {
		tr.RevertNonForceWrites()
		return Receipt{
			Outcome:      OutcomeRejected,
			RejectReason: feeErr.Error(),
			Events:       events,
			Logs:         logs,
			Trace:        traceBytes,
		}, nil
	}

	base := Receipt{
		ExecutionCostUnits: summary.ExecutionCostUnitsConsumed,
		RoyaltyCostUnits:   summary.RoyaltyCostUnitsConsumed,
		TotalCostUnits:     summary.TotalCostUnits,
		VaultChange:        summary.VaultPayments,
		RoyaltyByRecipient: summary.RoyaltyByRecipient,
		Events:             events,
		Logs:               logs,
		Trace:              traceBytes,
	}
	for _, paid := range summary.VaultPayments {
		base.FeePaid += paid
	}

	if executionErr != nil {
		tr.RevertNonForceWrites()
		diff, err := tr.Finalize()
		if err != nil {
			return Receipt{}, err
		}
		base.Outcome = OutcomeCommitFailure
		base.FailureError = executionErr
		base.StateDiff = diff
		return base, nil
	}

	diff, err := tr.Finalize()
	if err != nil {
		return Receipt{}, err
	}
	base.Outcome = OutcomeCommitSuccess
	base.StateDiff = diff
	return base, nil
}
