// Package track is the kernel's Track (spec §4.2): the transactional
// write-buffer layered over a read-only substatedb.Database. It is the
// teacher's buffered WriteTransaction re-purposed: the teacher accumulates
// a writeSet of table/index/key/document operations and applies them to the
// B+Tree via an atomic Upsert callback at Commit; the Track instead hands
// out lock handles keyed by (node, partition, key), accumulates an
// in-flight overlay, and exposes that overlay as a diff at Finalize instead
// of writing straight through to storage (the kernel commits the diff to a
// substatedb.Database only once, outside the Track, per spec §4.2).
package track

import (
	"sync"

	"github.com/ledgerkernel/txkernel/pkg/kernelerrors"
	"github.com/ledgerkernel/txkernel/pkg/substate"
	"github.com/ledgerkernel/txkernel/pkg/substatedb"
)

// Flags mirror spec §4.2's lock flags, combined as a bitset.
type Flags uint8

const (
	// FlagMutable requests a writer lock; absent, Open grants a reader lock.
	FlagMutable Flags = 1 << iota
	// FlagUnmodifiedBase asserts no write has yet landed on this substate in
	// this transaction; Open fails the assertion with
	// UnmodifiedBaseViolationError otherwise.
	FlagUnmodifiedBase
	// FlagForceWrite marks a write as surviving RevertNonForceWrites — used
	// by the Costing module to charge fees against a vault substate even
	// when the rest of the transaction is later discarded.
	FlagForceWrite
)

// Handle is an opaque reference to a single open substate lock.
type Handle uint64

type substateId struct {
	node      substate.NodeId
	partition substate.PartitionNumber
	keyBytes  string
}

type identity struct {
	node      substate.NodeId
	partition substate.PartitionNumber
	key       substate.SubstateKey
}

type lockState struct {
	writerOpen  bool
	readerCount int
}

type openHandle struct {
	id      substateId
	ident   identity
	flags   Flags
	value   []byte
	exists  bool
	dirty   bool
}

type writeRecord struct {
	value []byte
	force bool
}

// Upsert is one entry of a Diff: a substate whose value changed (or was
// created) during the transaction.
type Upsert struct {
	Node      substate.NodeId
	Partition substate.PartitionNumber
	Key       substate.SubstateKey
	Value     []byte
}

// Diff is the full set of pending writes, returned by Finalize and applied
// by the caller to a substatedb.Database in one pass.
type Diff struct {
	Upserts []Upsert
}

// Track buffers substate reads and writes for one transaction over a
// read-only backing Database.
type Track struct {
	mu      sync.Mutex
	db      substatedb.Database
	locks   map[substateId]*lockState
	handles map[Handle]*openHandle
	next    Handle
	pending map[substateId]writeRecord
	idents  map[substateId]identity
}

func New(db substatedb.Database) *Track {
	return &Track{
		db:      db,
		locks:   make(map[substateId]*lockState),
		handles: make(map[Handle]*openHandle),
		pending: make(map[substateId]writeRecord),
		idents:  make(map[substateId]identity),
	}
}

func makeId(node substate.NodeId, partition substate.PartitionNumber, key substate.SubstateKey) substateId {
	return substateId{node: node, partition: partition, keyBytes: string(key.Bytes())}
}

// Open acquires a lock on (node, partition, key) and returns a handle to
// read and, if FlagMutable is set, write it. Concurrent opens enforce the
// one-writer-XOR-N-readers invariant: a writer request fails while any
// reader or writer is open, and a reader request fails while a writer is
// open.
func (t *Track) Open(node substate.NodeId, partition substate.PartitionNumber, key substate.SubstateKey, flags Flags) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := makeId(node, partition, key)

	lock, ok := t.locks[id]
	if !ok {
		lock = &lockState{}
		t.locks[id] = lock
	}

	wantsWrite := flags&FlagMutable != 0
	if wantsWrite {
		if lock.writerOpen || lock.readerCount > 0 {
			return 0, &kernelerrors.SubstateLockedError{Node: node.String(), Partition: uint32(partition)}
		}
	} else if lock.writerOpen {
		return 0, &kernelerrors.SubstateLockedError{Node: node.String(), Partition: uint32(partition)}
	}

	if flags&FlagUnmodifiedBase != 0 {
		if _, written := t.pending[id]; written {
			return 0, &kernelerrors.UnmodifiedBaseViolationError{Node: node.String(), Partition: uint32(partition)}
		}
	}

	value, exists, err := t.currentValueLocked(id, node, partition, key)
	if err != nil {
		return 0, err
	}

	if wantsWrite {
		lock.writerOpen = true
	} else {
		lock.readerCount++
	}

	t.next++
	handle := t.next
	t.handles[handle] = &openHandle{
		id:     id,
		ident:  identity{node: node, partition: partition, key: key},
		flags:  flags,
		value:  value,
		exists: exists,
	}
	return handle, nil
}

// currentValueLocked resolves a substate's current value, preferring an
// in-flight write from this transaction over the backing database.
func (t *Track) currentValueLocked(id substateId, node substate.NodeId, partition substate.PartitionNumber, key substate.SubstateKey) ([]byte, bool, error) {
	if rec, ok := t.pending[id]; ok {
		return append([]byte(nil), rec.value...), true, nil
	}
	value, ok, err := t.db.Get(node, partition, key)
	if err != nil {
		return nil, false, kernelerrors.Wrap(err, "track: backing database read failed")
	}
	return value, ok, nil
}

// Read returns the current value visible through handle.
func (t *Track) Read(handle Handle) ([]byte, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.handles[handle]
	if !ok {
		return nil, false, &kernelerrors.InvalidHandleError{Handle: uint64(handle)}
	}
	return h.value, h.exists, nil
}

// Update writes a new value through handle. handle must have been opened
// with FlagMutable.
func (t *Track) Update(handle Handle, value []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.handles[handle]
	if !ok {
		return &kernelerrors.InvalidHandleError{Handle: uint64(handle)}
	}
	if h.flags&FlagMutable == 0 {
		return kernelerrors.NewKernelError("update called on a handle opened without MUTABLE")
	}
	h.value = append([]byte(nil), value...)
	h.exists = true
	h.dirty = true
	return nil
}

// Close releases handle's lock. If the handle accumulated a write, it is
// recorded as pending, tagged force or non-force per the handle's
// FlagForceWrite bit.
func (t *Track) Close(handle Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.handles[handle]
	if !ok {
		return &kernelerrors.InvalidHandleError{Handle: uint64(handle)}
	}

	lock := t.locks[h.id]
	if h.flags&FlagMutable != 0 {
		lock.writerOpen = false
	} else {
		lock.readerCount--
	}

	if h.dirty {
		t.pending[h.id] = writeRecord{value: h.value, force: h.flags&FlagForceWrite != 0}
		t.idents[h.id] = h.ident
	}

	delete(t.handles, handle)
	return nil
}

// Create registers a brand-new substate directly, without going through an
// Open/Update/Close cycle (used when globalizing a heap node, or inserting
// a fresh key-value-store entry). Created substates are non-force: a later
// RevertNonForceWrites discards them along with ordinary updates.
func (t *Track) Create(node substate.NodeId, partition substate.PartitionNumber, key substate.SubstateKey, value []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := makeId(node, partition, key)
	t.pending[id] = writeRecord{value: append([]byte(nil), value...), force: false}
	t.idents[id] = identity{node: node, partition: partition, key: key}
	return nil
}

// Finalize drains the pending write overlay into a Diff. All handles must
// have been closed first.
func (t *Track) Finalize() (Diff, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.handles) != 0 {
		return Diff{}, kernelerrors.NewFatalKernelError("finalize called with open substate lock handles")
	}

	diff := Diff{Upserts: make([]Upsert, 0, len(t.pending))}
	for id, rec := range t.pending {
		ident := t.idents[id]
		diff.Upserts = append(diff.Upserts, Upsert{
			Node:      ident.node,
			Partition: ident.partition,
			Key:       ident.key,
			Value:     rec.value,
		})
	}

	t.pending = make(map[substateId]writeRecord)
	t.idents = make(map[substateId]identity)
	return diff, nil
}

// RevertNonForceWrites discards every pending write not marked
// FlagForceWrite, keeping force writes (e.g. fee vault debits) intact. Used
// when a transaction aborts after costing has already taken effect.
func (t *Track) RevertNonForceWrites() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, rec := range t.pending {
		if !rec.force {
			delete(t.pending, id)
			delete(t.idents, id)
		}
	}
}
