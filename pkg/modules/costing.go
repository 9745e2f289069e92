package modules

import (
	"github.com/ledgerkernel/txkernel/pkg/feereserve"
	"github.com/ledgerkernel/txkernel/pkg/metrics"
)

// RoyaltyCharge pairs a recipient identifier (a package owner's or
// component owner's badge/address) with the amount charged per call to a
// royalty-bearing method, spec §4.6's consume_royalty(amount, recipient,
// vault).
type RoyaltyCharge struct {
	Recipient string
	Amount    uint64
}

// CostingModule is the Costing system module (spec §5): it translates
// kernel operations into FeeTable-priced charges against a FeeReserve,
// grounded directly on the original fee_table.rs CostingEntry variants
// (Invoke, CreateNode, DropNode, LockSubstate, ReadSubstate, WriteSubstate,
// DropLock), plus the package/component royalty spec §4.5.1 requires
// before_push_frame to apply ahead of the invoke charge itself.
type CostingModule struct {
	Reserve *feereserve.FeeReserve
	Table   FeeTable

	// royalties maps "blueprintName::ident" to the package and/or
	// component royalty charged per call to that method.
	royalties map[string][]RoyaltyCharge

	// Metrics is optional; when set, every charge is also published as a
	// Prometheus counter labeled by reason.
	Metrics *metrics.Registry
}

func NewCostingModule(reserve *feereserve.FeeReserve, table FeeTable) *CostingModule {
	return &CostingModule{Reserve: reserve, Table: table, royalties: make(map[string][]RoyaltyCharge)}
}

// SetRoyalty registers the royalty charges levied per call to
// blueprintName's ident method — typically one RoyaltyCharge naming the
// package owner and one naming the component owner, mirroring spec
// §4.5.1's "package royalty and component royalty". A method with no
// registered charges is free to call.
func (c *CostingModule) SetRoyalty(blueprintName, ident string, charges ...RoyaltyCharge) {
	c.royalties[royaltyKey(blueprintName, ident)] = charges
}

// ChargeRoyalty applies every royalty charge registered against
// blueprintName's ident method, accumulating the amount against each
// charge's recipient in the FeeReserve (spec §7's receipt royalty
// breakdown).
func (c *CostingModule) ChargeRoyalty(blueprintName, ident string) error {
	for _, charge := range c.royalties[royaltyKey(blueprintName, ident)] {
		if err := c.Reserve.ConsumeRoyalty(charge.Recipient, "royalty:"+royaltyKey(blueprintName, ident), charge.Amount); err != nil {
			return err
		}
		if c.Metrics != nil {
			c.Metrics.CostUnitsConsumed.WithLabelValues("royalty:" + charge.Recipient).Add(float64(charge.Amount))
		}
	}
	return nil
}

func royaltyKey(blueprintName, ident string) string {
	return blueprintName + "::" + ident
}

func (c *CostingModule) charge(reason string, amount uint64) error {
	if err := c.Reserve.ConsumeExecution(reason, amount); err != nil {
		return err
	}
	if c.Metrics != nil {
		c.Metrics.CostUnitsConsumed.WithLabelValues(reason).Add(float64(amount))
	}
	return nil
}

func (c *CostingModule) ChargeTxBaseFee() error {
	return c.charge("tx_base_fee", c.Table.TxBaseFee)
}

func (c *CostingModule) ChargeSignatureVerification(count int) error {
	return c.charge("signature_verification", uint64(count)*c.Table.TxSignatureVerificationPerSig)
}

func (c *CostingModule) ChargeTxPayload(payloadSize int) error {
	return c.charge("tx_payload_cost", uint64(payloadSize)*c.Table.TxPayloadCostPerByte)
}

func (c *CostingModule) ChargeInvoke(inputSize int) error {
	return c.charge("invoke", c.Table.InvokeCost(inputSize))
}

func (c *CostingModule) ChargeCreateNode(size int) error {
	return c.charge("create_node", c.Table.CreateNodeCost(size))
}

func (c *CostingModule) ChargeDropNode(size int) error {
	return c.charge("drop_node", c.Table.DropNodeCost(size))
}

func (c *CostingModule) ChargeLockSubstate() error {
	return c.charge("lock_substate", c.Table.LockSubstateCost())
}

func (c *CostingModule) ChargeReadSubstate(size int) error {
	return c.charge("read_substate", c.Table.ReadSubstateCost(size))
}

func (c *CostingModule) ChargeWriteSubstate(size int) error {
	return c.charge("write_substate", c.Table.WriteSubstateCost(size))
}

func (c *CostingModule) ChargeDropLock() error {
	return c.charge("drop_lock", c.Table.DropLockCost())
}
