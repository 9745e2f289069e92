// Package feereserve is the kernel's FeeReserve (spec §4.4): the running
// ledger of cost-unit consumption and locked vault balances a transaction
// is charged against. It repurposes the teacher's pkg/wal: the durable,
// CRC32-checksummed, LSN-ordered append log becomes an in-memory,
// sequence-numbered cost ledger — each consumption is one entry, carrying
// the same "monotonic sequence number plus checksum" shape as a WAL entry,
// but never written to disk, since Non-goals exclude durable writes.
package feereserve

import (
	"hash/crc32"
	"sync"

	"github.com/ledgerkernel/txkernel/pkg/kernelerrors"
	"github.com/ledgerkernel/txkernel/pkg/substate"
)

var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// CostEntry is one charge against the reserve, shaped like the teacher's
// wal.WALHeader (Seq plays LSN's role, Checksum plays CRC32's role) but
// held only in memory.
type CostEntry struct {
	Seq      uint64
	Reason   string
	Amount   uint64
	Checksum uint32
}

func newCostEntry(seq uint64, reason string, amount uint64) CostEntry {
	e := CostEntry{Seq: seq, Reason: reason, Amount: amount}
	e.Checksum = crc32.Checksum([]byte(reason), castagnoliTable) ^ uint32(amount) ^ uint32(amount>>32)
	return e
}

// Options configures a FeeReserve, mirroring the teacher's
// wal.Options/DefaultOptions pattern.
type Options struct {
	ExecutionCostUnitLimit uint64
	RoyaltyCostUnitLimit   uint64
}

func DefaultOptions() Options {
	return Options{
		ExecutionCostUnitLimit: 100_000_000,
		RoyaltyCostUnitLimit:   100_000_000,
	}
}

type lockRecord struct {
	vault      substate.NodeId
	amount     uint64
	contingent bool
}

// Summary is the final accounting produced by Finalize: how much was
// consumed in each category, and how much was actually withdrawn from each
// locked vault to cover it.
type Summary struct {
	ExecutionCostUnitsConsumed uint64
	RoyaltyCostUnitsConsumed   uint64
	DeferredCostUnitsConsumed  uint64
	TotalCostUnits             uint64
	VaultPayments              map[substate.NodeId]uint64
	// RoyaltyByRecipient breaks RoyaltyCostUnitsConsumed down by the
	// recipient each charge named (spec §7's receipt field of the same
	// shape).
	RoyaltyByRecipient map[string]uint64
	Ledger             []CostEntry
}

// FeeReserve tracks cost-unit consumption and locked vault balances for one
// transaction.
type FeeReserve struct {
	mu sync.Mutex

	opts Options

	executionConsumed uint64
	royaltyConsumed   uint64
	deferredConsumed  uint64

	royaltyByRecipient map[string]uint64

	locks []lockRecord

	ledger  []CostEntry
	nextSeq uint64
}

func New(opts Options) *FeeReserve {
	return &FeeReserve{opts: opts}
}

// LockFee locks amount from vault against this transaction's eventual fee
// payment. contingent marks the lock as payable only if the transaction
// ultimately commits successfully (the Radix "contingent lock" used by
// royalty vaults that should not be charged on a failed call).
func (fr *FeeReserve) LockFee(vault substate.NodeId, amount uint64, contingent bool) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	fr.locks = append(fr.locks, lockRecord{vault: vault, amount: amount, contingent: contingent})
}

// ConsumeExecution charges amount cost units against the execution budget.
// It fails with an Abortable InsufficientBalanceError if the budget is
// exhausted, per spec §9's Costing module behavior.
func (fr *FeeReserve) ConsumeExecution(reason string, amount uint64) error {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	next := fr.executionConsumed + amount
	if next < fr.executionConsumed || next > fr.opts.ExecutionCostUnitLimit {
		return &kernelerrors.InsufficientBalanceError{
			Requested: amount,
			Remaining: fr.opts.ExecutionCostUnitLimit - fr.executionConsumed,
			Reason:    "execution cost unit limit exceeded: " + reason,
		}
	}
	fr.executionConsumed = next
	fr.appendLocked(reason, amount)
	return nil
}

// ConsumeRoyalty charges amount cost units against the royalty budget on
// behalf of recipient (spec §4.6's consume_royalty(amount, recipient,
// vault)), accumulating a per-recipient total a Receipt can later break
// down (spec §7's "total royalty cost broken down by recipient").
func (fr *FeeReserve) ConsumeRoyalty(recipient, reason string, amount uint64) error {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	next := fr.royaltyConsumed + amount
	if next < fr.royaltyConsumed || next > fr.opts.RoyaltyCostUnitLimit {
		return &kernelerrors.InsufficientBalanceError{
			Requested: amount,
			Remaining: fr.opts.RoyaltyCostUnitLimit - fr.royaltyConsumed,
			Reason:    "royalty cost unit limit exceeded: " + reason,
		}
	}
	fr.royaltyConsumed = next
	if fr.royaltyByRecipient == nil {
		fr.royaltyByRecipient = make(map[string]uint64)
	}
	fr.royaltyByRecipient[recipient] += amount
	fr.appendLocked(reason, amount)
	return nil
}

// ConsumeDeferred records a cost that can only be computed once execution
// has finished (e.g. state-expansion cost proportional to the final state
// diff). It is not checked against a limit immediately; Finalize rejects
// the whole transaction if the locked vaults cannot cover the final total.
func (fr *FeeReserve) ConsumeDeferred(reason string, amount uint64) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	fr.deferredConsumed += amount
	fr.appendLocked(reason, amount)
}

func (fr *FeeReserve) appendLocked(reason string, amount uint64) {
	fr.nextSeq++
	fr.ledger = append(fr.ledger, newCostEntry(fr.nextSeq, reason, amount))
}

// Finalize settles the reserve: it computes the total cost, withdraws it
// from the locked vaults in the order they were locked (contingent locks
// included only when committed is true), and reports what was
// actually paid from each vault.
func (fr *FeeReserve) Finalize(committed bool) (Summary, error) {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	total := fr.executionConsumed + fr.royaltyConsumed + fr.deferredConsumed

	var available uint64
	for _, l := range fr.locks {
		if !l.contingent || committed {
			available += l.amount
		}
	}
	if available < total {
		return Summary{}, &kernelerrors.InsufficientBalanceError{
			Requested: total,
			Remaining: available,
			Reason:    "locked vaults cannot cover total transaction cost",
		}
	}

	payments := make(map[substate.NodeId]uint64, len(fr.locks))
	remaining := total
	for _, l := range fr.locks {
		if l.contingent && !committed {
			continue
		}
		if remaining == 0 {
			break
		}
		take := l.amount
		if take > remaining {
			take = remaining
		}
		payments[l.vault] += take
		remaining -= take
	}

	royaltyByRecipient := make(map[string]uint64, len(fr.royaltyByRecipient))
	for recipient, amount := range fr.royaltyByRecipient {
		royaltyByRecipient[recipient] = amount
	}

	return Summary{
		ExecutionCostUnitsConsumed: fr.executionConsumed,
		RoyaltyCostUnitsConsumed:   fr.royaltyConsumed,
		DeferredCostUnitsConsumed:  fr.deferredConsumed,
		TotalCostUnits:             total,
		VaultPayments:              payments,
		RoyaltyByRecipient:         royaltyByRecipient,
		Ledger:                     append([]CostEntry(nil), fr.ledger...),
	}, nil
}
