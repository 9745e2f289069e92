// Package heapstate is the kernel's Heap (spec §4.3): in-memory storage
// for nodes created within the transaction but not yet globalized. It is
// the teacher's pkg/heap re-purposed: the teacher's segmented, disk-backed,
// version-chained record store becomes a single in-memory map keyed by
// NodeId, and the teacher's RecordHeader (Valid/CreateLSN/DeleteLSN) becomes
// a lock/ownership header, since heap nodes never need MVCC versioning (one
// transaction, one snapshot) but do need the §3 lifecycle invariants: "no
// open locks, no children with outstanding references" before a drop.
package heapstate

import (
	"sync"

	"github.com/ledgerkernel/txkernel/pkg/kernelerrors"
	"github.com/ledgerkernel/txkernel/pkg/substate"
)

// Substate pairs a key with its value. substate.SubstateKey holds slice
// fields and so cannot itself be a map key; partition contents are
// exchanged with callers as slices of pairs instead.
type Substate struct {
	Key   substate.SubstateKey
	Value substate.Value
}

// Header mirrors the shape of the teacher's heap.RecordHeader (Valid,
// ownership, lock accounting) without the disk offsets/LSNs a durable heap
// needs.
type Header struct {
	OwnerFrame int // index of the call frame that currently owns this node
	LockCount  int // number of open substate locks against this node
	Children   map[substate.NodeId]struct{}
}

type partitionEntry struct {
	key   substate.SubstateKey
	value substate.Value
}

type partitionData map[string]partitionEntry // map key: SubstateKey.Bytes()

// Node is one heap-resident node: its owner, lock accounting, and its
// partitions of substates.
type Node struct {
	Id         substate.NodeId
	Header     Header
	Partitions map[substate.PartitionNumber]partitionData
}

// Heap holds every node created in this transaction that has not yet been
// globalized (and thus handed off to the Track).
type Heap struct {
	mu    sync.Mutex
	nodes map[substate.NodeId]*Node
}

func New() *Heap {
	return &Heap{nodes: make(map[substate.NodeId]*Node)}
}

// CreateNode places a new node in the heap, owned by ownerFrame.
func (h *Heap) CreateNode(id substate.NodeId, ownerFrame int, initial map[substate.PartitionNumber][]Substate) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.nodes[id]; exists {
		return kernelerrors.NewFatalKernelError("create_node: node id already present in heap")
	}

	partitions := make(map[substate.PartitionNumber]partitionData, len(initial))
	for p, substates := range initial {
		data := make(partitionData, len(substates))
		for _, s := range substates {
			data[string(s.Key.Bytes())] = partitionEntry{key: s.Key, value: s.Value}
		}
		partitions[p] = data
	}

	h.nodes[id] = &Node{
		Id:         id,
		Header:     Header{OwnerFrame: ownerFrame, Children: make(map[substate.NodeId]struct{})},
		Partitions: partitions,
	}
	return nil
}

// Contains reports whether id is currently heap-resident.
func (h *Heap) Contains(id substate.NodeId) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.nodes[id]
	return ok
}

// Owner returns the owning frame index of a heap-resident node.
func (h *Heap) Owner(id substate.NodeId) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, ok := h.nodes[id]
	if !ok {
		return 0, false
	}
	return n.Header.OwnerFrame, true
}

// Reown transfers ownership of id to newOwnerFrame (used by push/pop when a
// node moves between frames as an owned reference).
func (h *Heap) Reown(id substate.NodeId, newOwnerFrame int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, ok := h.nodes[id]
	if !ok {
		return &kernelerrors.NodeNotFoundError{Node: id.String()}
	}
	n.Header.OwnerFrame = newOwnerFrame
	return nil
}

// AddChild / RemoveChild track the parent/child ownership tree used by the
// drop-node invariant ("no children with outstanding references").
func (h *Heap) AddChild(parent, child substate.NodeId) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, ok := h.nodes[parent]
	if !ok {
		return &kernelerrors.NodeNotFoundError{Node: parent.String()}
	}
	n.Header.Children[child] = struct{}{}
	return nil
}

func (h *Heap) RemoveChild(parent, child substate.NodeId) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n, ok := h.nodes[parent]; ok {
		delete(n.Header.Children, child)
	}
}

// Lock / Unlock track open substate-lock count, enforced at DropNode.
func (h *Heap) Lock(id substate.NodeId) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, ok := h.nodes[id]
	if !ok {
		return &kernelerrors.NodeNotFoundError{Node: id.String()}
	}
	n.Header.LockCount++
	return nil
}

func (h *Heap) Unlock(id substate.NodeId) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, ok := h.nodes[id]
	if !ok {
		return &kernelerrors.NodeNotFoundError{Node: id.String()}
	}
	if n.Header.LockCount == 0 {
		return kernelerrors.NewKernelError("unlock: lock count already zero")
	}
	n.Header.LockCount--
	return nil
}

// Read / Write substates within a heap-resident node's partition.
func (h *Heap) Read(id substate.NodeId, partition substate.PartitionNumber, key substate.SubstateKey) (substate.Value, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, ok := h.nodes[id]
	if !ok {
		return substate.Value{}, false, &kernelerrors.NodeNotFoundError{Node: id.String()}
	}
	data, ok := n.Partitions[partition]
	if !ok {
		return substate.Value{}, false, nil
	}
	e, ok := data[string(key.Bytes())]
	return e.value, ok, nil
}

func (h *Heap) Write(id substate.NodeId, partition substate.PartitionNumber, key substate.SubstateKey, value substate.Value) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, ok := h.nodes[id]
	if !ok {
		return &kernelerrors.NodeNotFoundError{Node: id.String()}
	}
	data, ok := n.Partitions[partition]
	if !ok {
		data = make(partitionData)
		n.Partitions[partition] = data
	}
	data[string(key.Bytes())] = partitionEntry{key: key, value: value}
	return nil
}

// DropNode removes id from the heap, enforcing spec §4.3's lifecycle
// invariant: no outstanding locks, no children with outstanding references.
// It returns the dropped node's substates so the caller can inspect them
// (e.g. a native handler tearing down a bucket and returning its contents
// to the worktop).
func (h *Heap) DropNode(id substate.NodeId) (map[substate.PartitionNumber][]Substate, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, ok := h.nodes[id]
	if !ok {
		return nil, &kernelerrors.NodeNotFoundError{Node: id.String()}
	}
	if n.Header.LockCount != 0 {
		return nil, kernelerrors.NewKernelError("drop_node: node has outstanding substate locks")
	}
	if len(n.Header.Children) != 0 {
		return nil, kernelerrors.NewKernelError("drop_node: node has live children references")
	}

	out := snapshotPartitionsLocked(n)
	delete(h.nodes, id)
	return out, nil
}

// Globalize removes id from the heap without invariant checks, returning
// its full partition contents for the Track to persist. Called only when
// the node is transitioning to a globalized, track-owned node (a one-shot
// transition per spec §3).
func (h *Heap) Globalize(id substate.NodeId) (map[substate.PartitionNumber][]Substate, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, ok := h.nodes[id]
	if !ok {
		return nil, &kernelerrors.NodeNotFoundError{Node: id.String()}
	}
	if n.Header.LockCount != 0 {
		return nil, kernelerrors.NewKernelError("globalize: node has outstanding substate locks")
	}

	result := snapshotPartitionsLocked(n)
	delete(h.nodes, id)
	return result, nil
}

func snapshotPartitionsLocked(n *Node) map[substate.PartitionNumber][]Substate {
	out := make(map[substate.PartitionNumber][]Substate, len(n.Partitions))
	for p, data := range n.Partitions {
		entries := make([]Substate, 0, len(data))
		for _, e := range data {
			entries = append(entries, Substate{Key: e.key, Value: e.value})
		}
		out[p] = entries
	}
	return out
}
