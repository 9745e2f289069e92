package substatedb

import (
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/golang/snappy"
	"github.com/ledgerkernel/txkernel/pkg/substate"
)

// PebbleDB is a disk-backed reference Database built on
// github.com/cockroachdb/pebble. Values are snappy-compressed before Set
// and decompressed on Get, the way pebble deployments commonly layer their
// own block compression with an additional application-level codec when
// values are themselves compressible documents (BSON substate values,
// pkg/substate.Value).
type PebbleDB struct {
	db *pebble.DB
}

// OpenPebbleDB opens (creating if absent) a pebble store at dir.
func OpenPebbleDB(dir string) (*PebbleDB, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble database: %w", err)
	}
	return &PebbleDB{db: db}, nil
}

func (p *PebbleDB) Close() error { return p.db.Close() }

func wireKey(node substate.NodeId, partition substate.PartitionNumber, key substate.SubstateKey) []byte {
	buf := make([]byte, 0, 9+len(key.Bytes()))
	buf = append(buf, byte(node.Type))
	buf = append(buf, node.Bytes[:]...)
	buf = append(buf, byte(partition))
	return append(buf, key.Bytes()...)
}

func (p *PebbleDB) Get(node substate.NodeId, partition substate.PartitionNumber, key substate.SubstateKey) ([]byte, bool, error) {
	v, closer, err := p.db.Get(wireKey(node, partition, key))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("pebble get: %w", err)
	}
	defer closer.Close()

	decoded, err := snappy.Decode(nil, v)
	if err != nil {
		return nil, false, fmt.Errorf("pebble value decompress: %w", err)
	}
	return decoded, true, nil
}

// Put is a test/example-only helper: the engine itself never writes to the
// database directly, only through the Track's finalized diff.
func (p *PebbleDB) Put(node substate.NodeId, partition substate.PartitionNumber, key substate.SubstateKey, value []byte) error {
	compressed := snappy.Encode(nil, value)
	return p.db.Set(wireKey(node, partition, key), compressed, pebble.Sync)
}

func (p *PebbleDB) Scan(node substate.NodeId, partition substate.PartitionNumber, from *substate.SubstateKey, dir Direction) (Iterator, error) {
	prefix := make([]byte, 0, 9)
	prefix = append(prefix, byte(node.Type))
	prefix = append(prefix, node.Bytes[:]...)
	prefix = append(prefix, byte(partition))

	lower := prefix
	if from != nil {
		lower = wireKey(node, partition, *from)
	}
	upper := upperBound(prefix)

	iter, err := p.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, fmt.Errorf("pebble scan: %w", err)
	}

	var ok bool
	if dir == Descending {
		ok = iter.Last()
	} else {
		ok = iter.First()
	}

	return &pebbleIterator{iter: iter, prefixLen: len(prefix), dir: dir, valid: ok}, nil
}

func upperBound(prefix []byte) []byte {
	up := append([]byte(nil), prefix...)
	for i := len(up) - 1; i >= 0; i-- {
		if up[i] != 0xff {
			up[i]++
			return up[:i+1]
		}
	}
	return nil // prefix is all 0xff: unbounded
}

type pebbleIterator struct {
	iter      *pebble.Iterator
	prefixLen int
	dir       Direction
	valid     bool
}

func (it *pebbleIterator) Valid() bool { return it.valid && it.iter.Valid() }

func (it *pebbleIterator) Key() substate.SubstateKey {
	raw := it.iter.Key()[it.prefixLen:]
	return decodeKeyBytes(raw)
}

func (it *pebbleIterator) Value() []byte {
	decoded, err := snappy.Decode(nil, it.iter.Value())
	if err != nil {
		return nil
	}
	return decoded
}

func (it *pebbleIterator) Next() {
	if it.dir == Descending {
		it.valid = it.iter.Prev()
		return
	}
	it.valid = it.iter.Next()
}

func (it *pebbleIterator) Close() error { return it.iter.Close() }

// decodeKeyBytes is SubstateKey.Bytes's inverse, enough to recover ordering
// information for scans (field index, map key, or sorted prefix+key).
func decodeKeyBytes(raw []byte) substate.SubstateKey {
	if len(raw) == 0 {
		return substate.SubstateKey{}
	}
	kind := substate.KeyKind(raw[0])
	switch kind {
	case substate.KeyField:
		if len(raw) < 2 {
			return substate.FieldKey(0)
		}
		return substate.FieldKey(raw[1])
	case substate.KeyMap:
		return substate.MapKeyOf(raw[1:])
	case substate.KeySorted:
		if len(raw) < 3 {
			return substate.SortedKeyOf(0, nil)
		}
		prefix := uint16(raw[1])<<8 | uint16(raw[2])
		return substate.SortedKeyOf(prefix, raw[3:])
	default:
		return substate.SubstateKey{}
	}
}

var _ Database = (*PebbleDB)(nil)
