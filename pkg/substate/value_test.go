package substate

import (
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	v := Value{
		Kind: KindVaultBalance,
		Fields: bson.D{
			{Key: "amount", Value: int64(42)},
			{Key: "resource", Value: "xrd"},
		},
	}

	data, err := Encode(v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if decoded.Kind != v.Kind {
		t.Fatalf("kind mismatch: got %v want %v", decoded.Kind, v.Kind)
	}

	amount, ok := decoded.Get("amount")
	if !ok || amount.(int64) != 42 {
		t.Fatalf("amount field mismatch: %v", amount)
	}

	reEncoded, err := Encode(decoded)
	if err != nil {
		t.Fatalf("re-Encode: %v", err)
	}
	if string(reEncoded) != string(data) {
		t.Fatalf("encode(decode(x)) != x")
	}
}

func TestRawRoundTrip(t *testing.T) {
	v := Value{Kind: KindRaw, Raw: []byte{1, 2, 3, 4}}
	data, err := Encode(v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded.Raw) != 4 || decoded.Raw[2] != 3 {
		t.Fatalf("raw payload mismatch: %v", decoded.Raw)
	}
}

func TestWithField(t *testing.T) {
	v := Value{Fields: bson.D{{Key: "a", Value: 1}}}
	v2 := v.WithField("a", 2).WithField("b", 3)

	a, _ := v2.Get("a")
	b, _ := v2.Get("b")
	if a.(int) != 2 || b.(int) != 3 {
		t.Fatalf("unexpected fields: a=%v b=%v", a, b)
	}
	if _, ok := v.Get("b"); ok {
		t.Fatalf("original value must not be mutated")
	}
}
