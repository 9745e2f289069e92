// Package substate holds the core addressing and value types of the data
// model described in spec §3: nodes, partitions, substate keys, and the
// encoded substate value itself.
package substate

import (
	"encoding/hex"
	"fmt"
)

// EntityType tags a NodeId with the kind of entity it addresses.
type EntityType uint8

const (
	EntityGlobalComponent EntityType = iota
	EntityGlobalResource
	EntityInternalObject
	EntityKeyValueStore
	EntityTransactionRuntime
)

func (t EntityType) String() string {
	switch t {
	case EntityGlobalComponent:
		return "GlobalComponent"
	case EntityGlobalResource:
		return "GlobalResource"
	case EntityInternalObject:
		return "InternalObject"
	case EntityKeyValueStore:
		return "KeyValueStore"
	case EntityTransactionRuntime:
		return "TransactionRuntime"
	default:
		return "Unknown"
	}
}

// Global reports whether this entity type is, by construction, always a
// globally addressable node (as opposed to owned-until-globalized).
func (t EntityType) Global() bool {
	return t == EntityGlobalComponent || t == EntityGlobalResource || t == EntityTransactionRuntime
}

// NodeId is a fixed-width identifier tagged by entity type. Bytes are the
// low 8 bytes of sha256(tx_hash || counter), allocated deterministically
// by modules.TransactionRuntimeModule.NextNodeId; Type carries the
// EntityType tag so a NodeId alone is enough to tell a reader what kind
// of node it addresses.
type NodeId struct {
	Type  EntityType
	Bytes [8]byte
}

// String renders a NodeId as "<type>:<hex>", used in error messages and logs.
func (n NodeId) String() string {
	return fmt.Sprintf("%s:%s", n.Type, hex.EncodeToString(n.Bytes[:]))
}

// Compare orders NodeIds by type then by counter bytes, so they can be used
// as B+Tree keys (pkg/substatedb) or map keys via a comparable array.
func (n NodeId) Compare(other NodeId) int {
	if n.Type != other.Type {
		if n.Type < other.Type {
			return -1
		}
		return 1
	}
	for i := range n.Bytes {
		if n.Bytes[i] != other.Bytes[i] {
			if n.Bytes[i] < other.Bytes[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// PartitionNumber namespaces a submap within a node.
type PartitionNumber uint8

// KeyKind distinguishes the three substate key shapes named in spec §3.
type KeyKind uint8

const (
	KeyField KeyKind = iota
	KeyMap
	KeySorted
)

// SubstateKey keys a single substate within a partition: a field index, an
// arbitrary map key, or a sorted (u16, bytes) pair used for ordered
// iteration (e.g. auth-zone proof ordering, NFT id indices).
type SubstateKey struct {
	Kind    KeyKind
	Field   uint8
	MapKey  []byte
	SortPre uint16
	SortKey []byte
}

func FieldKey(field uint8) SubstateKey { return SubstateKey{Kind: KeyField, Field: field} }
func MapKeyOf(key []byte) SubstateKey  { return SubstateKey{Kind: KeyMap, MapKey: append([]byte(nil), key...)} }
func SortedKeyOf(prefix uint16, key []byte) SubstateKey {
	return SubstateKey{Kind: KeySorted, SortPre: prefix, SortKey: append([]byte(nil), key...)}
}

// Compare gives SubstateKey a total order: by Kind first (Field < Map <
// Sorted), then by the kind-specific payload. Map keys compare bytewise;
// sorted keys compare by the u16 prefix first, matching the teacher's
// B+Tree latch-crabbing traversal order (pkg/btree, adapted in
// pkg/substatedb).
func (k SubstateKey) Compare(other SubstateKey) int {
	if k.Kind != other.Kind {
		if k.Kind < other.Kind {
			return -1
		}
		return 1
	}
	switch k.Kind {
	case KeyField:
		switch {
		case k.Field < other.Field:
			return -1
		case k.Field > other.Field:
			return 1
		default:
			return 0
		}
	case KeyMap:
		return compareBytes(k.MapKey, other.MapKey)
	case KeySorted:
		if k.SortPre != other.SortPre {
			if k.SortPre < other.SortPre {
				return -1
			}
			return 1
		}
		return compareBytes(k.SortKey, other.SortKey)
	default:
		return 0
	}
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Bytes renders the key to a flat byte string, used as the on-the-wire form
// stored by pkg/substatedb reference implementations.
func (k SubstateKey) Bytes() []byte {
	switch k.Kind {
	case KeyField:
		return []byte{byte(k.Kind), k.Field}
	case KeyMap:
		return append([]byte{byte(k.Kind)}, k.MapKey...)
	case KeySorted:
		buf := make([]byte, 0, 3+len(k.SortKey))
		buf = append(buf, byte(k.Kind), byte(k.SortPre>>8), byte(k.SortPre))
		return append(buf, k.SortKey...)
	default:
		return nil
	}
}
