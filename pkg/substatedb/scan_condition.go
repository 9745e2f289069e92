package substatedb

import "github.com/ledgerkernel/txkernel/pkg/substate"

// Operator is a scan comparison, adapted from the teacher's
// pkg/query.ScanOperator for substate keys instead of table index keys.
type Operator int

const (
	OpEqual Operator = iota
	OpNotEqual
	OpGreaterThan
	OpGreaterOrEqual
	OpLessThan
	OpLessOrEqual
	OpBetween
)

// ScanCondition narrows a partition Scan to the keys matching it; used by
// native blueprints scanning a key-value-store partition, and by the §8
// read-only replay check.
type ScanCondition struct {
	Operator Operator
	Value    substate.SubstateKey
	ValueEnd substate.SubstateKey
}

func Equal(v substate.SubstateKey) *ScanCondition { return &ScanCondition{Operator: OpEqual, Value: v} }
func NotEqual(v substate.SubstateKey) *ScanCondition {
	return &ScanCondition{Operator: OpNotEqual, Value: v}
}
func GreaterThan(v substate.SubstateKey) *ScanCondition {
	return &ScanCondition{Operator: OpGreaterThan, Value: v}
}
func GreaterOrEqual(v substate.SubstateKey) *ScanCondition {
	return &ScanCondition{Operator: OpGreaterOrEqual, Value: v}
}
func LessThan(v substate.SubstateKey) *ScanCondition {
	return &ScanCondition{Operator: OpLessThan, Value: v}
}
func LessOrEqual(v substate.SubstateKey) *ScanCondition {
	return &ScanCondition{Operator: OpLessOrEqual, Value: v}
}
func Between(start, end substate.SubstateKey) *ScanCondition {
	return &ScanCondition{Operator: OpBetween, Value: start, ValueEnd: end}
}

// Matches reports whether key satisfies the condition.
func (sc *ScanCondition) Matches(key substate.SubstateKey) bool {
	switch sc.Operator {
	case OpEqual:
		return key.Compare(sc.Value) == 0
	case OpNotEqual:
		return key.Compare(sc.Value) != 0
	case OpGreaterThan:
		return key.Compare(sc.Value) > 0
	case OpGreaterOrEqual:
		return key.Compare(sc.Value) >= 0
	case OpLessThan:
		return key.Compare(sc.Value) < 0
	case OpLessOrEqual:
		return key.Compare(sc.Value) <= 0
	case OpBetween:
		return key.Compare(sc.Value) >= 0 && key.Compare(sc.ValueEnd) <= 0
	default:
		return false
	}
}

// ShouldSeek reports whether Scan can jump straight to GetStartKey instead
// of walking the whole partition from the beginning.
func (sc *ScanCondition) ShouldSeek() bool {
	switch sc.Operator {
	case OpEqual, OpGreaterThan, OpGreaterOrEqual, OpBetween:
		return true
	default:
		return false
	}
}

// GetStartKey returns the key to seek to when ShouldSeek is true.
func (sc *ScanCondition) GetStartKey() substate.SubstateKey {
	return sc.Value
}

// ShouldContinue reports whether the scan should keep walking past key.
func (sc *ScanCondition) ShouldContinue(key substate.SubstateKey) bool {
	switch sc.Operator {
	case OpEqual:
		return key.Compare(sc.Value) <= 0
	case OpLessThan:
		return key.Compare(sc.Value) < 0
	case OpLessOrEqual:
		return key.Compare(sc.Value) <= 0
	case OpBetween:
		return key.Compare(sc.ValueEnd) <= 0
	default:
		return true
	}
}
