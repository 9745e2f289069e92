// Package kernel ties the Track, Heap, call-frame stack, and system
// module pipeline into the single entry point spec §4 calls "the
// kernel": allocate_node_id, create_node, drop_node, the open/read/
// write/close substate cycle, and invoke (before_push_frame -> push ->
// dispatch -> pop -> before_pop_frame, short-circuiting on the first
// module veto; no per-call on_execution_finish step runs). It is grounded on the
// teacher's WriteTransaction as the shape for "one mutex-guarded object
// threading several sub-components through a fixed operation sequence",
// generalized from a single write buffer to the kernel's five
// cooperating pieces.
package kernel

import (
	"github.com/ledgerkernel/txkernel/pkg/callframe"
	"github.com/ledgerkernel/txkernel/pkg/codebackend"
	"github.com/ledgerkernel/txkernel/pkg/heapstate"
	"github.com/ledgerkernel/txkernel/pkg/kernelerrors"
	"github.com/ledgerkernel/txkernel/pkg/metrics"
	"github.com/ledgerkernel/txkernel/pkg/modules"
	"github.com/ledgerkernel/txkernel/pkg/substate"
	"github.com/ledgerkernel/txkernel/pkg/substatedb"
	"github.com/ledgerkernel/txkernel/pkg/track"
)

// Kernel is the root object a transaction's execution runs against: one
// Track over the backing database, one Heap for un-globalized nodes, one
// call-frame stack, one module pipeline, and a method registry resolving
// invocations to native or user code.
type Kernel struct {
	Track    *track.Track
	Heap     *heapstate.Heap
	Frames   *callframe.Stack
	Modules  *modules.Pipeline
	Registry *codebackend.Registry

	// Metrics is optional; when set via SetMetrics, substate reads,
	// writes, and lock contention are published as Prometheus counters
	// alongside whatever the Costing module already publishes through
	// its own Metrics field.
	Metrics *metrics.Registry

	// openLocks maps an open SubstateHandle back to whether it targeted a
	// heap-resident node (and, if so, which) or a Track substate, since
	// Read/Write/Close need to route to the right backing store.
	openLocks map[codebackend.SubstateHandle]openLock
	nextLock  codebackend.SubstateHandle
}

type openLock struct {
	node      substate.NodeId
	partition substate.PartitionNumber
	key       substate.SubstateKey
	heap      bool
	trackHdl  track.Handle
}

// New builds a Kernel over db, bounded by maxDepth call frames and driven
// by pipeline (see modules.New).
func New(db substatedb.Database, maxDepth int, pipeline *modules.Pipeline, registry *codebackend.Registry) *Kernel {
	return &Kernel{
		Track:     track.New(db),
		Heap:      heapstate.New(),
		Frames:    callframe.New(maxDepth),
		Modules:   pipeline,
		Registry:  registry,
		openLocks: make(map[codebackend.SubstateHandle]openLock),
	}
}

// SetMetrics wires m into both the Kernel's own substate counters and
// the Costing module's per-reason cost-unit counters.
func (k *Kernel) SetMetrics(m *metrics.Registry) {
	k.Metrics = m
	if k.Modules.Enabled&modules.ModCosting != 0 {
		k.Modules.Costing.Metrics = m
	}
}

// AllocateNodeId mints a fresh, deterministic NodeId via the
// TransactionRuntime module.
func (k *Kernel) AllocateNodeId(entityType substate.EntityType) substate.NodeId {
	return k.Modules.Runtime.NextNodeId(entityType)
}

// CreateNode places a brand-new node in the Heap, owned by the current
// frame, and charges the Costing module for it.
func (k *Kernel) CreateNode(id substate.NodeId, initial map[substate.PartitionNumber][]heapstate.Substate) error {
	size := 0
	for _, entries := range initial {
		for _, e := range entries {
			encoded, err := substate.Encode(e.Value)
			if err != nil {
				return kernelerrors.Wrap(err, "create_node: failed to encode initial substate")
			}
			size += len(encoded)
		}
	}

	if k.Modules.Enabled&modules.ModCosting != 0 {
		if err := k.Modules.Costing.ChargeCreateNode(size); err != nil {
			return err
		}
	}

	frame := k.Frames.Current()
	if err := k.Heap.CreateNode(id, frame.Depth, initial); err != nil {
		return err
	}
	k.Frames.GrantReference(id, callframe.VisibilityOwned)
	return nil
}

// DropNode removes a heap-resident node, enforcing the Heap's own
// lock/children invariants, and charges the Costing module.
func (k *Kernel) DropNode(id substate.NodeId) (map[substate.PartitionNumber][]heapstate.Substate, error) {
	contents, err := k.Heap.DropNode(id)
	if err != nil {
		return nil, err
	}
	size := 0
	for _, entries := range contents {
		size += len(entries)
	}
	if k.Modules.Enabled&modules.ModCosting != 0 {
		if err := k.Modules.Costing.ChargeDropNode(size); err != nil {
			return nil, err
		}
	}
	return contents, nil
}

// GlobalizeNode moves a heap-resident node's substates into the Track,
// making it a permanent, globally addressable node. NodeMove's
// key-value-store/global restriction is enforced on the way out.
func (k *Kernel) GlobalizeNode(id substate.NodeId) error {
	if k.Modules.Enabled&modules.ModNodeMove != 0 {
		if err := k.Modules.NodeMove.ValidateMoveUp(id); err != nil {
			return err
		}
	}
	contents, err := k.Heap.Globalize(id)
	if err != nil {
		return err
	}
	for partition, entries := range contents {
		for _, e := range entries {
			encoded, err := substate.Encode(e.Value)
			if err != nil {
				return kernelerrors.Wrap(err, "globalize_node: failed to encode substate")
			}
			if err := k.Track.Create(id, partition, e.Key, encoded); err != nil {
				return err
			}
			if k.Modules.Enabled&modules.ModLimits != 0 {
				if err := k.Modules.Limits.NoteNewTrackEntry(); err != nil {
					return err
				}
			}
		}
	}
	k.Frames.GrantReference(id, callframe.VisibilityGlobal)
	return nil
}

// LockFeeFromVault implements the transaction processor's lock-fee
// instruction (spec §4.7): it force-writes amount off of vault's balance
// substate, so the debit survives RevertNonForceWrites even when the rest
// of the transaction is discarded (spec §3, §8.6's force-write invariant),
// and locks the same amount against the fee reserve. contingent marks the
// lock payable only if the transaction ultimately commits (e.g. a royalty
// vault that should not be charged on a failed call). The vault must
// already be a globalized Track substate; lock_fee is a root-frame-only
// instruction and never runs against a heap-resident node.
func (k *Kernel) LockFeeFromVault(vault substate.NodeId, amount uint64, contingent bool) error {
	handle, err := k.Track.Open(vault, 0, substate.FieldKey(0), track.FlagMutable|track.FlagForceWrite)
	if err != nil {
		return err
	}

	raw, _, err := k.Track.Read(handle)
	if err != nil {
		return err
	}
	current, err := substate.Decode(raw)
	if err != nil {
		return kernelerrors.Wrap(err, "lock_fee: failed to decode vault balance")
	}
	balance, _ := current.Get("balance")
	have, _ := balance.(int64)
	if have < int64(amount) {
		return &kernelerrors.InsufficientBalanceError{
			Requested: amount,
			Remaining: uint64(have),
			Reason:    "lock_fee: vault " + vault.String(),
		}
	}

	updated := substate.Value{}.WithField("balance", have-int64(amount))
	encoded, err := substate.Encode(updated)
	if err != nil {
		return kernelerrors.Wrap(err, "lock_fee: failed to encode vault balance")
	}
	if err := k.Track.Update(handle, encoded); err != nil {
		return err
	}
	if err := k.Track.Close(handle); err != nil {
		return err
	}

	k.Modules.Costing.Reserve.LockFee(vault, amount, contingent)
	return nil
}

// OpenSubstate opens a lock on (node, partition, key), routing to the
// Heap if the node is still heap-resident or to the Track otherwise, and
// charges the Costing module for the lock.
func (k *Kernel) OpenSubstate(node substate.NodeId, partition substate.PartitionNumber, key substate.SubstateKey, mutable bool) (codebackend.SubstateHandle, error) {
	if k.Modules.Enabled&modules.ModCosting != 0 {
		if err := k.Modules.Costing.ChargeLockSubstate(); err != nil {
			return 0, err
		}
	}

	k.nextLock++
	handle := k.nextLock

	if k.Heap.Contains(node) {
		if err := k.Heap.Lock(node); err != nil {
			if k.Metrics != nil {
				k.Metrics.LockWaits.Inc()
			}
			return 0, err
		}
		k.openLocks[handle] = openLock{node: node, partition: partition, key: key, heap: true}
		return handle, nil
	}

	flags := track.Flags(0)
	if mutable {
		flags |= track.FlagMutable
	}
	trackHandle, err := k.Track.Open(node, partition, key, flags)
	if err != nil {
		if k.Metrics != nil {
			k.Metrics.LockWaits.Inc()
		}
		return 0, err
	}
	k.openLocks[handle] = openLock{node: node, partition: partition, key: key, trackHdl: trackHandle}
	return handle, nil
}

// ReadSubstate returns the raw encoded value behind handle, charging the
// Costing module and counting the read.
func (k *Kernel) ReadSubstate(handle codebackend.SubstateHandle) ([]byte, error) {
	lock, ok := k.openLocks[handle]
	if !ok {
		return nil, &kernelerrors.InvalidHandleError{Handle: uint64(handle)}
	}

	var raw []byte
	if lock.heap {
		value, exists, err := k.Heap.Read(lock.node, lock.partition, lock.key)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, nil
		}
		encoded, err := substate.Encode(value)
		if err != nil {
			return nil, err
		}
		raw = encoded
	} else {
		value, _, err := k.Track.Read(lock.trackHdl)
		if err != nil {
			return nil, err
		}
		raw = value
	}

	if k.Modules.Enabled&modules.ModCosting != 0 {
		if err := k.Modules.Costing.ChargeReadSubstate(len(raw)); err != nil {
			return nil, err
		}
	}
	if k.Metrics != nil {
		k.Metrics.SubstateReads.Inc()
	}
	return raw, nil
}

// WriteSubstate writes raw encoded bytes through handle, charging the
// Costing module and checking the Limits module's size cap.
func (k *Kernel) WriteSubstate(handle codebackend.SubstateHandle, raw []byte) error {
	lock, ok := k.openLocks[handle]
	if !ok {
		return &kernelerrors.InvalidHandleError{Handle: uint64(handle)}
	}
	if k.Modules.Enabled&modules.ModLimits != 0 {
		if err := k.Modules.Limits.CheckSubstateSize(len(raw)); err != nil {
			return err
		}
	}
	if k.Modules.Enabled&modules.ModCosting != 0 {
		if err := k.Modules.Costing.ChargeWriteSubstate(len(raw)); err != nil {
			return err
		}
	}
	if lock.heap {
		decoded, err := substate.Decode(raw)
		if err != nil {
			return kernelerrors.Wrap(err, "write_substate: failed to decode value")
		}
		if err := k.Heap.Write(lock.node, lock.partition, lock.key, decoded); err != nil {
			return err
		}
	} else if err := k.Track.Update(lock.trackHdl, raw); err != nil {
		return err
	}
	if k.Metrics != nil {
		k.Metrics.SubstateWrites.Inc()
	}
	return nil
}

// CloseSubstate releases handle's lock, charging the Costing module.
func (k *Kernel) CloseSubstate(handle codebackend.SubstateHandle) error {
	lock, ok := k.openLocks[handle]
	if !ok {
		return &kernelerrors.InvalidHandleError{Handle: uint64(handle)}
	}
	delete(k.openLocks, handle)

	if k.Modules.Enabled&modules.ModCosting != 0 {
		if err := k.Modules.Costing.ChargeDropLock(); err != nil {
			return err
		}
	}
	if lock.heap {
		return k.Heap.Unlock(lock.node)
	}
	return k.Track.Close(lock.trackHdl)
}
