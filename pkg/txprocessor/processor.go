package txprocessor

import (
	"github.com/ledgerkernel/txkernel/pkg/callframe"
	"github.com/ledgerkernel/txkernel/pkg/kernel"
	"github.com/ledgerkernel/txkernel/pkg/kernelerrors"
	"github.com/ledgerkernel/txkernel/pkg/substate"
)

// Processor is the transaction's root frame: it owns the Worktop and
// AuthWorktop and walks an instruction list, translating bucket/proof
// references into kernel.Invoke calls. It is grounded on the original
// TransactionProcessor's run loop, narrowed to the Non-goals this port
// keeps (no package publishing, no multi-signature validation beyond
// recording the End instruction's signatures).
type Processor struct {
	Worktop     *Worktop
	AuthWorktop *AuthWorktop

	kernel *kernel.Kernel

	// components maps a globalized component's NodeId to the blueprint
	// name the kernel's Registry dispatches under, standing in for the
	// original's package/blueprint metadata lookup (out of scope: no
	// package-publishing pipeline backs this port).
	components map[substate.NodeId]string

	signatures [][]byte
	ended      bool
}

// NewProcessor builds a Processor driving k. Callers register the
// components a transaction may call via RegisterComponent before
// executing any CallMethod instruction against them.
func NewProcessor(k *kernel.Kernel) *Processor {
	return &Processor{
		Worktop:     NewWorktop(),
		AuthWorktop: NewAuthWorktop(),
		kernel:      k,
		components:  make(map[substate.NodeId]string),
	}
}

// RegisterComponent records that node dispatches under blueprintName, so
// CallMethod/CallMethodWithAllResources instructions can resolve it.
func (p *Processor) RegisterComponent(node substate.NodeId, blueprintName string) {
	p.components[node] = blueprintName
}

// Execute runs instructions in order, stopping at the first error or at
// an End instruction. It returns the number of instructions actually run.
//
// Before the first instruction, it drives the pipeline's on_init hook
// (spec §4.5.1) with the transaction's total argument-payload size and
// the signature count its End instruction carries, pre-consuming the
// base fee, payload cost, and signature verification cost the way the
// original's run loop charges them ahead of any instruction dispatch.
func (p *Processor) Execute(instructions []Instruction) (int, error) {
	if err := p.kernel.Modules.OnInit(payloadSize(instructions), signatureCount(instructions)); err != nil {
		return 0, err
	}

	for i, instr := range instructions {
		if p.ended {
			return i, kernelerrors.NewKernelError("execute: instruction follows End")
		}
		if err := p.step(instr); err != nil {
			return i, err
		}
	}
	return len(instructions), nil
}

func (p *Processor) step(instr Instruction) error {
	switch instr.Kind {
	case KindTakeFromWorktop:
		_, err := p.Worktop.TakeFromWorktop(instr.Resource, instr.Amount)
		return err

	case KindTakeAllFromWorktop:
		p.Worktop.TakeAllFromWorktop(instr.Resource)
		return nil

	case KindReturnToWorktop:
		return p.Worktop.ReturnToWorktop(instr.BucketRef)

	case KindAssertWorktopContains:
		return p.Worktop.AssertContains(instr.Resource, instr.Amount)

	case KindTakeFromAuthWorktop:
		badges := p.AuthWorktop.onZone
		if int(instr.ZoneIndex) >= len(badges) {
			return kernelerrors.NewKernelError("take_from_auth_worktop: index out of range")
		}
		_, err := p.AuthWorktop.Take(badges[instr.ZoneIndex])
		return err

	case KindPutOnAuthWorktop:
		proof, ok := p.AuthWorktop.proofs[instr.ProofRef]
		if !ok {
			return kernelerrors.NewKernelError("put_on_auth_worktop: unknown proof reference")
		}
		p.AuthWorktop.Put(proof)
		return nil

	case KindCreateBucketProof:
		bucket, ok := p.Worktop.Bucket(instr.BucketRef)
		if !ok {
			return kernelerrors.NewKernelError("create_bucket_proof: unknown bucket reference")
		}
		p.AuthWorktop.Put(Proof{Resource: bucket.Resource})
		return nil

	case KindCloneProof:
		_, err := p.AuthWorktop.Clone(instr.ProofRef)
		return err

	case KindDropProof:
		return p.AuthWorktop.Drop(instr.ProofRef)

	case KindLockFee:
		return p.kernel.LockFeeFromVault(instr.NodeId, instr.Amount, instr.Contingent)

	case KindCallFunction:
		return p.callFunction(instr)

	case KindCallMethod:
		return p.callMethod(instr)

	case KindCallMethodWithAllResources:
		return p.callMethodWithAllResources(instr)

	case KindEnd:
		p.signatures = instr.Signatures
		p.ended = true
		return nil

	default:
		return kernelerrors.NewKernelError("execute: unrecognized instruction kind")
	}
}

func (p *Processor) callFunction(instr Instruction) error {
	req := kernel.InvokeRequest{
		Actor:        callframe.Actor{Kind: callframe.ActorFunction, BlueprintName: instr.BlueprintName, Ident: instr.Ident},
		Input:        instr.ArgPayload,
		BlueprintKey: instr.BlueprintName,
		Ident:        instr.Ident,
		AuthBadges:   p.AuthWorktop.VisibleBadges(),
	}
	out, err := p.kernel.Invoke(req)
	if err != nil {
		return err
	}
	return p.depositReturn(out)
}

func (p *Processor) callMethod(instr Instruction) error {
	blueprintName, ok := p.components[instr.NodeId]
	if !ok {
		return kernelerrors.NewKernelError("call_method: unregistered component " + instr.NodeId.String())
	}
	req := kernel.InvokeRequest{
		Actor:        callframe.Actor{Kind: callframe.ActorMethod, NodeId: instr.NodeId, BlueprintName: blueprintName, Ident: instr.Ident},
		Input:        instr.ArgPayload,
		References:   map[substate.NodeId]callframe.Visibility{instr.NodeId: callframe.VisibilityGlobal},
		BlueprintKey: blueprintName,
		Ident:        instr.Ident,
		AuthBadges:   p.AuthWorktop.VisibleBadges(),
	}
	out, err := p.kernel.Invoke(req)
	if err != nil {
		return err
	}
	return p.depositReturn(out)
}

// callMethodWithAllResources hands the callee every balance currently on
// the worktop before calling, per the original's "with all resources"
// variant.
func (p *Processor) callMethodWithAllResources(instr Instruction) error {
	for resource := range p.Worktop.balances {
		p.Worktop.TakeAllFromWorktop(resource)
	}
	return p.callMethod(instr)
}

// payloadSize sums every instruction's argument payload as this port's
// stand-in for the serialized transaction's total byte length (there is
// no wire format of its own here; the instruction list is already
// in-memory).
func payloadSize(instructions []Instruction) int {
	size := 0
	for _, instr := range instructions {
		size += len(instr.ArgPayload)
	}
	return size
}

// signatureCount looks up the signature list the End instruction carries,
// since that is the only place a transaction's signatures appear in this
// port's instruction list.
func signatureCount(instructions []Instruction) int {
	for _, instr := range instructions {
		if instr.Kind == KindEnd {
			return len(instr.Signatures)
		}
	}
	return 0
}

// depositReturn is a placeholder hook for crediting resources a call
// returns back to the worktop; this port's native methods return opaque
// bytes rather than structured bucket handles, so there is nothing to
// deposit yet.
func (p *Processor) depositReturn(out []byte) error {
	_ = out
	return nil
}
