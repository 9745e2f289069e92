// Package substatedb defines the read-only SubstateDatabase interface
// consumed by the Track (spec §4.1) and ships two reference
// implementations: an in-memory ordered store (adapted from the teacher's
// latch-crabbing B+Tree cursor, pkg/btree, simplified to a single sorted
// slice per partition since Non-goals rule out concurrent transactions
// against one database instance) and a disk-backed store on
// github.com/cockroachdb/pebble.
package substatedb

import (
	"github.com/ledgerkernel/txkernel/pkg/substate"
)

// Direction controls Scan's iteration order.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Database is the read-only interface the engine consumes (spec §6). All
// writes during a transaction accumulate in the Track; the database itself
// is never mutated by the engine.
type Database interface {
	Get(node substate.NodeId, partition substate.PartitionNumber, key substate.SubstateKey) ([]byte, bool, error)
	Scan(node substate.NodeId, partition substate.PartitionNumber, from *substate.SubstateKey, dir Direction) (Iterator, error)
}

// Iterator walks a ordered range of substates within one partition.
type Iterator interface {
	Valid() bool
	Key() substate.SubstateKey
	Value() []byte
	Next()
	Close() error
}
