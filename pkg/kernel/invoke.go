package kernel

import (
	"github.com/ledgerkernel/txkernel/pkg/callframe"
	"github.com/ledgerkernel/txkernel/pkg/codebackend"
	"github.com/ledgerkernel/txkernel/pkg/heapstate"
	"github.com/ledgerkernel/txkernel/pkg/modules"
	"github.com/ledgerkernel/txkernel/pkg/substate"
)

// InvokeRequest describes one call the kernel is asked to dispatch: the
// callee (blueprint + method/function ident), the raw argument bytes,
// which nodes move into the callee's ownership, which references it
// should additionally see, and the badges presented for auth zone
// purposes.
type InvokeRequest struct {
	Actor        callframe.Actor
	Input        []byte
	NodesToMove  []substate.NodeId
	References   map[substate.NodeId]callframe.Visibility
	AuthBadges   []string
	BlueprintKey string // blueprint name used to resolve the method in Registry
	Ident        string
}

// notImplementedError marks a KernelHandle operation this port does not
// support yet (re-entrant method/function calls from within a running
// invocation): building a full recursive dispatcher is pkg/txprocessor's
// job once it resolves callee node/blueprint identities from the
// worktop, not this package's.
type notImplementedError struct{ op string }

func (e *notImplementedError) Error() string {
	return "kernel: " + e.op + " is not implemented at this invocation depth"
}

// handleAdapter satisfies codebackend.KernelHandle by delegating back
// into the owning Kernel, so native functions and user-code backends
// share one capability surface with the rest of this package.
type handleAdapter struct {
	k *Kernel
}

func (a handleAdapter) AllocateNodeId(entityType substate.EntityType) substate.NodeId {
	return a.k.AllocateNodeId(entityType)
}

// CreateNode assigns sequential field keys (0, 1, 2, ...) to the given
// values, since the KernelHandle contract passes ordered field values
// without keys of their own.
func (a handleAdapter) CreateNode(id substate.NodeId, initial map[substate.PartitionNumber][]substate.Value) error {
	converted := make(map[substate.PartitionNumber][]heapstate.Substate, len(initial))
	for partition, values := range initial {
		entries := make([]heapstate.Substate, len(values))
		for i, v := range values {
			entries[i] = heapstate.Substate{Key: substate.FieldKey(uint8(i)), Value: v}
		}
		converted[partition] = entries
	}
	return a.k.CreateNode(id, converted)
}

func (a handleAdapter) DropNode(id substate.NodeId) error {
	_, err := a.k.DropNode(id)
	return err
}

func (a handleAdapter) Globalize(id substate.NodeId) error { return a.k.GlobalizeNode(id) }

func (a handleAdapter) OpenSubstate(node substate.NodeId, partition substate.PartitionNumber, key substate.SubstateKey, mutable bool) (codebackend.SubstateHandle, error) {
	return a.k.OpenSubstate(node, partition, key, mutable)
}

func (a handleAdapter) ReadSubstate(handle codebackend.SubstateHandle) ([]byte, error) {
	return a.k.ReadSubstate(handle)
}

func (a handleAdapter) WriteSubstate(handle codebackend.SubstateHandle, value []byte) error {
	return a.k.WriteSubstate(handle, value)
}

func (a handleAdapter) CloseSubstate(handle codebackend.SubstateHandle) error {
	return a.k.CloseSubstate(handle)
}

func (a handleAdapter) CallMethod(node substate.NodeId, ident string, args []byte) ([]byte, error) {
	return nil, &notImplementedError{op: "call_method re-entry"}
}

func (a handleAdapter) CallFunction(blueprintName, ident string, args []byte) ([]byte, error) {
	return nil, &notImplementedError{op: "call_function re-entry"}
}

func (a handleAdapter) EmitEvent(eventType string, payload []byte) error {
	if a.k.Modules.Enabled&modules.ModEvents == 0 {
		return nil
	}
	if a.k.Modules.Enabled&modules.ModLimits != 0 {
		if err := a.k.Modules.Limits.NoteEvent(len(payload)); err != nil {
			return err
		}
	}
	a.k.Modules.Events.Emit(a.k.Frames.Depth(), eventType, payload)
	return nil
}

func (a handleAdapter) Log(message string) error {
	if a.k.Modules.Enabled&modules.ModLimits != 0 {
		if err := a.k.Modules.Limits.NoteLog(len(message)); err != nil {
			return err
		}
	}
	a.k.Modules.Logs.Append(message)
	return nil
}

func (a handleAdapter) ActorInfo() codebackend.ActorInfo {
	actor := a.k.Frames.Current().Actor
	return codebackend.ActorInfo{
		BlueprintName: actor.BlueprintName,
		Ident:         actor.Ident,
		NodeId:        actor.NodeId,
		DirectAccess:  actor.DirectAccess,
	}
}

// Invoke runs one call (spec §4.1's invoke) in this order: the pipeline's
// BeforePushFrame, NodeMove validation of every node in NodesToMove, the
// frame push, AfterPushFrame, dispatch, the frame pop, and then
// BeforePopFrame. A module veto during BeforePushFrame aborts before any
// frame is pushed; a dispatch error still runs BeforePopFrame (tagged
// aborted) so Events can roll back what the failed frame emitted. No
// per-call on_execution_finish step runs: Pipeline.OnExecutionFinish is
// called once per transaction, by receipt.Finalize.
func (k *Kernel) Invoke(req InvokeRequest) ([]byte, error) {
	currentDepth := k.Frames.Depth()
	actorDesc := req.BlueprintKey + "::" + req.Ident

	if err := k.Modules.BeforePushFrame(currentDepth, req.BlueprintKey, req.Ident, len(req.Input)); err != nil {
		return nil, err
	}

	if k.Modules.Enabled&modules.ModNodeMove != 0 {
		for _, node := range req.NodesToMove {
			if err := k.Modules.NodeMove.ValidateMoveDown(node, false); err != nil {
				return nil, err
			}
		}
	}

	msg := callframe.Message{NodesToMove: req.NodesToMove, References: req.References}
	frame, err := k.Frames.Push(req.Actor, msg)
	if err != nil {
		return nil, err
	}
	k.Modules.AfterPushFrame(frame.Depth, actorDesc, req.AuthBadges)

	output, dispatchErr := k.Registry.Dispatch(req.BlueprintKey, req.Ident, req.Input, handleAdapter{k: k})

	if _, popErr := k.Frames.Pop(); popErr != nil && dispatchErr == nil {
		dispatchErr = popErr
	}
	k.Modules.BeforePopFrame(frame.Depth, actorDesc, dispatchErr != nil)

	return output, dispatchErr
}
