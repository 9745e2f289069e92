package modules

// FeeTable is the fixed per-operation cost-unit price list the Costing
// module charges against the FeeReserve. Values are carried over verbatim
// from the original fee table (base transaction fee, per-byte payload
// cost, per-signature verification cost, and the fixed low/medium/high
// tiers most native operations are billed at).
type FeeTable struct {
	TxBaseFee                     uint64
	TxPayloadCostPerByte          uint64
	TxSignatureVerificationPerSig uint64
	TxBlobPricePerByte            uint64
	FixedLow                      uint64
	FixedMedium                   uint64
	FixedHigh                     uint64
}

func DefaultFeeTable() FeeTable {
	return FeeTable{
		TxBaseFee:                     50_000,
		TxPayloadCostPerByte:          5,
		TxSignatureVerificationPerSig: 100_000,
		TxBlobPricePerByte:            5,
		FixedLow:                      500,
		FixedMedium:                   2_500,
		FixedHigh:                     5_000,
	}
}

// InvokeCost returns the cost of invoking a function/method with the given
// input payload size.
func (ft FeeTable) InvokeCost(inputSize int) uint64 {
	return ft.FixedLow + uint64(inputSize)*ft.TxPayloadCostPerByte
}

// CreateNodeCost / DropNodeCost price node lifecycle operations by size.
func (ft FeeTable) CreateNodeCost(size int) uint64 { return ft.FixedMedium + uint64(size) }
func (ft FeeTable) DropNodeCost(size int) uint64    { return ft.FixedLow + uint64(size) }

// LockSubstateCost / ReadSubstateCost / WriteSubstateCost / DropLockCost
// price the Track's Open/Read/Update/Close operations.
func (ft FeeTable) LockSubstateCost() uint64          { return ft.FixedLow }
func (ft FeeTable) ReadSubstateCost(size int) uint64  { return ft.FixedLow + uint64(size) }
func (ft FeeTable) WriteSubstateCost(size int) uint64 { return ft.FixedMedium + uint64(size) }
func (ft FeeTable) DropLockCost() uint64              { return ft.FixedLow }
