// Package modules implements the System Module Pipeline (spec §5): the
// fixed sequence of cross-cutting modules the kernel drives on every
// frame push/pop and every substate access. Each module is grounded on
// its own original source file (see the per-file doc comments); Pipeline
// wires them into the single ordered object the kernel calls through,
// mirroring the original's SystemModuleMixer dispatch order: KernelTrace,
// Limits, Costing, Auth, NodeMove, TransactionRuntime, Events,
// ExecutionTrace.
package modules

import "github.com/ledgerkernel/txkernel/pkg/feereserve"

// EnabledModules is a bitset selecting which optional modules run, so a
// preview execution can skip Auth or turn on ExecutionTrace without the
// kernel needing a second code path.
type EnabledModules uint16

const (
	ModKernelTrace EnabledModules = 1 << iota
	ModLimits
	ModCosting
	ModAuth
	ModNodeMove
	ModTransactionRuntime
	ModEvents
	ModExecutionTrace
)

// StandardModules is the module set a normal (non-preview) transaction
// runs with: every module except KernelTrace and ExecutionTrace, which
// are debugging/preview aids off by default in production (spec §5).
const StandardModules = ModLimits | ModCosting | ModAuth | ModNodeMove | ModTransactionRuntime | ModEvents

// Pipeline bundles one instance of each system module and the bitset
// selecting which of them are live.
type Pipeline struct {
	Enabled EnabledModules

	Trace     *KernelTraceModule
	Limits    *LimitsModule
	Costing   *CostingModule
	Auth      *AuthModule
	NodeMove  *NodeMoveModule
	Runtime   *TransactionRuntimeModule
	Events    *EventsModule
	Logs      *LogsModule
	ExecTrace *ExecutionTraceModule
}

// New builds a Pipeline with one instance of every module. The enabled
// bits gate Limits, Costing, Auth, NodeMove and Events at their call
// sites and switch KernelTrace and ExecutionTrace recording on or off;
// TransactionRuntime and Logs are used whatever the bits say.
func New(enabled EnabledModules, reserve *feereserve.FeeReserve, feeTable FeeTable, limitsConfig LimitsConfig, authModule *AuthModule, txHash [32]byte) *Pipeline {
	return &Pipeline{
		Enabled:   enabled,
		Trace:     NewKernelTraceModule(enabled&ModKernelTrace != 0, nil),
		Limits:    NewLimitsModule(limitsConfig),
		Costing:   NewCostingModule(reserve, feeTable),
		Auth:      authModule,
		NodeMove:  NewNodeMoveModule(),
		Runtime:   NewTransactionRuntimeModule(txHash),
		Events:    NewEventsModule(),
		Logs:      NewLogsModule(),
		ExecTrace: NewExecutionTraceModule(enabled&ModExecutionTrace != 0),
	}
}

// OnInit is the pipeline's on_init hook (spec §4.5.1): before the first
// instruction runs, it pre-consumes the transaction's base fee, its
// payload cost (proportional to payloadSize, the serialized transaction's
// byte length), and its signature verification cost (proportional to
// signatureCount).
func (p *Pipeline) OnInit(payloadSize, signatureCount int) error {
	if p.Enabled&ModCosting == 0 {
		return nil
	}
	if err := p.Costing.ChargeTxBaseFee(); err != nil {
		return err
	}
	if err := p.Costing.ChargeTxPayload(payloadSize); err != nil {
		return err
	}
	return p.Costing.ChargeSignatureVerification(signatureCount)
}

// BeforePushFrame runs the pre-push checks every module contributes, in
// pipeline order, stopping at the first error (a "veto"): Limits checks
// depth and payload size, Auth rejects the call if blueprintName's ident
// method is role-guarded and the visible auth zone does not satisfy it,
// royalty is charged against the callee, Costing charges for the invoke
// itself, and KernelTrace logs the attempt regardless of outcome.
func (p *Pipeline) BeforePushFrame(currentDepth int, blueprintName, ident string, inputSize int) error {
	actorDescription := blueprintName + "::" + ident
	p.Trace.OnInvoke(currentDepth, actorDescription, inputSize)
	if p.Enabled&ModLimits != 0 {
		if err := p.Limits.CheckInvoke(currentDepth, inputSize); err != nil {
			return err
		}
	}
	if p.Enabled&ModAuth != 0 && p.Auth != nil {
		if err := p.Auth.CheckMethodAuth(blueprintName, ident); err != nil {
			return err
		}
	}
	if p.Enabled&ModCosting != 0 {
		if err := p.Costing.ChargeRoyalty(blueprintName, ident); err != nil {
			return err
		}
		if err := p.Costing.ChargeInvoke(inputSize); err != nil {
			return err
		}
	}
	return nil
}

// AfterPushFrame notifies modules that a frame was successfully pushed.
func (p *Pipeline) AfterPushFrame(depth int, actorDescription string, authBadges []string) {
	p.Trace.OnPushFrame(depth, actorDescription)
	if p.Enabled&ModAuth != 0 && p.Auth != nil {
		p.Auth.PushAuthZone(authBadges)
	}
}

// BeforePopFrame notifies modules that a frame is about to be popped,
// either because it returned successfully (aborted == false) or because
// it failed (aborted == true, in which case Events rolls back anything
// emitted at this depth or deeper).
func (p *Pipeline) BeforePopFrame(depth int, actorDescription string, aborted bool) {
	if aborted && p.Enabled&ModEvents != 0 {
		p.Events.RollbackToDepth(depth)
	}
	if p.Enabled&ModAuth != 0 && p.Auth != nil {
		p.Auth.PopAuthZone()
	}
	p.Trace.OnPopFrame(depth, actorDescription)
}

// OnExecutionFinish is the kernel's end-of-transaction hook: it finalizes
// whatever modules accumulate state across the whole execution. Fee
// reserve finalization happens separately (pkg/receipt owns committed
// vs. rejected classification), so this only touches Events, Logs, and
// ExecutionTrace.
func (p *Pipeline) OnExecutionFinish() ([]Event, []string, []byte, error) {
	var events []Event
	if p.Enabled&ModEvents != 0 {
		events = p.Events.All()
	}
	logs := p.Logs.All()
	var trace []byte
	if p.Enabled&ModExecutionTrace != 0 {
		compressed, err := p.ExecTrace.Compress()
		if err != nil {
			return nil, nil, nil, err
		}
		trace = compressed
	}
	return events, logs, trace, nil
}
