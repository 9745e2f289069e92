package substate

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ValueKind tags a Value so a reader can tell what concrete Go shape
// Fields decodes into, without re-parsing the BSON document.
type ValueKind uint8

const (
	KindDocument ValueKind = iota // arbitrary field/value map (a component's own state)
	KindVaultBalance
	KindProof
	KindMetadataEntry
	KindRaw // opaque bytes, not BSON-decodable (native handlers that manage their own layout)
)

// Value is an encoded substate record: "a type kind" (spec §3) plus its
// BSON-encoded fields. This is the direct successor of the teacher's
// JsonToBson/BsonToJson pair in pkg/storage/bson.go — instead of JSON in,
// BSON out, callers build a bson.D directly and Encode/Decode round-trip it.
type Value struct {
	Kind   ValueKind
	Fields bson.D
	Raw    []byte // used only when Kind == KindRaw
}

// Encode serializes a Value to the bytes stored by Track/SubstateDatabase.
// The first byte is the ValueKind tag; the remainder is the BSON document
// (or, for KindRaw, the raw payload verbatim).
func Encode(v Value) ([]byte, error) {
	if v.Kind == KindRaw {
		out := make([]byte, 0, len(v.Raw)+1)
		out = append(out, byte(KindRaw))
		return append(out, v.Raw...), nil
	}
	body, err := bson.Marshal(v.Fields)
	if err != nil {
		return nil, fmt.Errorf("substate value encode failed: %w", err)
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, byte(v.Kind))
	return append(out, body...), nil
}

// Decode is Encode's inverse. Decoding then re-encoding any Value produced
// by Encode yields byte-identical output (spec §8 round-trip property).
func Decode(data []byte) (Value, error) {
	if len(data) == 0 {
		return Value{}, fmt.Errorf("substate value decode failed: empty payload")
	}
	kind := ValueKind(data[0])
	if kind == KindRaw {
		return Value{Kind: KindRaw, Raw: append([]byte(nil), data[1:]...)}, nil
	}
	var doc bson.D
	if err := bson.Unmarshal(data[1:], &doc); err != nil {
		return Value{}, fmt.Errorf("substate value decode failed: %w", err)
	}
	return Value{Kind: kind, Fields: doc}, nil
}

// Get returns the first field named key, mirroring the teacher's
// DoesTheKeyExist/GetValueFromBson pair.
func (v Value) Get(key string) (any, bool) {
	for _, e := range v.Fields {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// WithField returns a copy of v with key set to value, appending if absent.
func (v Value) WithField(key string, value any) Value {
	out := Value{Kind: v.Kind, Fields: make(bson.D, 0, len(v.Fields)+1)}
	replaced := false
	for _, e := range v.Fields {
		if e.Key == key {
			out.Fields = append(out.Fields, bson.E{Key: key, Value: value})
			replaced = true
			continue
		}
		out.Fields = append(out.Fields, e)
	}
	if !replaced {
		out.Fields = append(out.Fields, bson.E{Key: key, Value: value})
	}
	return out
}
