package substatedb

import (
	"sort"
	"sync"

	"github.com/ledgerkernel/txkernel/pkg/kernelerrors"
	"github.com/ledgerkernel/txkernel/pkg/substate"
)

type entry struct {
	key   substate.SubstateKey
	value []byte
}

type partitionKey struct {
	node      substate.NodeId
	partition substate.PartitionNumber
}

// MemDB is an in-memory, order-preserving reference Database. Each
// (node, partition) owns a sorted slice of entries; inserts use
// sort.Search the same way the teacher's B+Tree locates a leaf insertion
// point (pkg/btree/btree.go, FindLeafLowerBound), but there is a single
// lock for the whole database rather than per-node latch crabbing, because
// Non-goals exclude concurrent transactions against one database.
type MemDB struct {
	mu         sync.RWMutex
	partitions map[partitionKey][]entry
}

func NewMemDB() *MemDB {
	return &MemDB{partitions: make(map[partitionKey][]entry)}
}

// Seed installs a substate directly, bypassing any transaction — used to
// set up the "immutable point-in-time view" a test or example wants the
// engine to start from.
func (m *MemDB) Seed(node substate.NodeId, partition substate.PartitionNumber, key substate.SubstateKey, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertLocked(node, partition, key, value)
}

func (m *MemDB) upsertLocked(node substate.NodeId, partition substate.PartitionNumber, key substate.SubstateKey, value []byte) {
	pk := partitionKey{node: node, partition: partition}
	entries := m.partitions[pk]
	i := sort.Search(len(entries), func(i int) bool { return entries[i].key.Compare(key) >= 0 })
	if i < len(entries) && entries[i].key.Compare(key) == 0 {
		entries[i].value = value
		return
	}
	entries = append(entries, entry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = entry{key: key, value: value}
	m.partitions[pk] = entries
}

func (m *MemDB) Get(node substate.NodeId, partition substate.PartitionNumber, key substate.SubstateKey) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.partitions[partitionKey{node: node, partition: partition}]
	i := sort.Search(len(entries), func(i int) bool { return entries[i].key.Compare(key) >= 0 })
	if i < len(entries) && entries[i].key.Compare(key) == 0 {
		return entries[i].value, true, nil
	}
	return nil, false, nil
}

func (m *MemDB) Scan(node substate.NodeId, partition substate.PartitionNumber, from *substate.SubstateKey, dir Direction) (Iterator, error) {
	m.mu.RLock()
	entries := append([]entry(nil), m.partitions[partitionKey{node: node, partition: partition}]...)
	m.mu.RUnlock()

	start := 0
	if from != nil {
		start = sort.Search(len(entries), func(i int) bool { return entries[i].key.Compare(*from) >= 0 })
	}

	if dir == Descending {
		// Reverse the relevant slice so Next() always walks forward through it.
		if from != nil {
			entries = entries[:minInt(start+1, len(entries))]
		}
		reverse(entries)
		start = 0
	} else {
		entries = entries[start:]
		start = 0
	}

	return &memIterator{entries: entries, idx: start}, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func reverse(e []entry) {
	for i, j := 0, len(e)-1; i < j; i, j = i+1, j-1 {
		e[i], e[j] = e[j], e[i]
	}
}

type memIterator struct {
	entries []entry
	idx     int
}

func (it *memIterator) Valid() bool              { return it.idx < len(it.entries) }
func (it *memIterator) Key() substate.SubstateKey { return it.entries[it.idx].key }
func (it *memIterator) Value() []byte             { return it.entries[it.idx].value }
func (it *memIterator) Next()                     { it.idx++ }
func (it *memIterator) Close() error              { it.entries = nil; return nil }

var _ Database = (*MemDB)(nil)

// mustGet is a small helper for call sites that already know the key
// exists (tests, examples); it panics via a KernelError-shaped message if
// not, matching the kernel's "this is always fatal" stance on invariant
// breaks outside the hot path.
func mustGet(db Database, node substate.NodeId, partition substate.PartitionNumber, key substate.SubstateKey) []byte {
	v, ok, err := db.Get(node, partition, key)
	if err != nil || !ok {
		panic(kernelerrors.NewFatalKernelError("mustGet: substate unexpectedly absent"))
	}
	return v
}
