// Package codebackend defines the kernel's code-execution boundary (spec
// §6): the interface a WASM engine or native-code dispatcher implements to
// run blueprint code, and the capability object ("kernel handle") that
// implementation is allowed to call back into the kernel through. Neither
// concrete WASM engine nor the native blueprint implementations
// (resources, accounts, packages) are in scope here — those are external
// collaborators the spec deliberately keeps out; this package only fixes
// the boundary between them and the kernel.
package codebackend

import "github.com/ledgerkernel/txkernel/pkg/substate"

// ActorInfo describes the frame a Backend.Invoke call is currently
// running in, mirroring callframe.Actor's exported fields without
// importing the callframe package directly (KernelHandle implementations
// live outside this module's control).
type ActorInfo struct {
	BlueprintName string
	Ident         string
	NodeId        substate.NodeId
	DirectAccess  bool
}

// SubstateHandle identifies an open substate lock, opaque to backend code.
type SubstateHandle uint64

// KernelHandle is the capability object a Backend is handed on every
// Invoke call: the only way blueprint code can touch kernel state. It is
// intentionally narrow — no direct access to Track, Heap, or the module
// pipeline — so a backend cannot bypass metering or access control.
type KernelHandle interface {
	AllocateNodeId(entityType substate.EntityType) substate.NodeId
	CreateNode(id substate.NodeId, initial map[substate.PartitionNumber][]substate.Value) error
	DropNode(id substate.NodeId) error
	Globalize(id substate.NodeId) error

	OpenSubstate(id substate.NodeId, partition substate.PartitionNumber, key substate.SubstateKey, mutable bool) (SubstateHandle, error)
	ReadSubstate(handle SubstateHandle) ([]byte, error)
	WriteSubstate(handle SubstateHandle, value []byte) error
	CloseSubstate(handle SubstateHandle) error

	CallMethod(node substate.NodeId, ident string, args []byte) ([]byte, error)
	CallFunction(blueprintName, ident string, args []byte) ([]byte, error)

	EmitEvent(eventType string, payload []byte) error
	Log(message string) error

	ActorInfo() ActorInfo
}

// Backend is the code-execution backend contract: given the exported
// function to run, its raw input bytes, and a handle back into the
// kernel, produce raw output bytes or fail. Both flavours named in spec
// §6 (WASM engine, native dispatcher) implement this same signature, so
// the kernel's invoke path never needs to know which one it is calling.
//
// Grounded on other_examples' go-core CVMInterpreter.Run(contract *Contract,
// input []byte, readOnly bool) (ret []byte, err error): the same shape of
// "take a pre-resolved callable, raw input, and a side channel back into
// host state; return raw output or an error".
type Backend interface {
	Invoke(exportName string, input []byte, handle KernelHandle) ([]byte, error)
}

// NativeFunc is a Go function implementing a native blueprint method
// directly, without going through a Backend at all.
type NativeFunc func(input []byte, handle KernelHandle) ([]byte, error)

// MethodKind tags a MethodTarget as the tagged sum spec §6 calls for:
// {Native(fn) | UserCode(export_name)}.
type MethodKind uint8

const (
	MethodNative MethodKind = iota
	MethodUserCode
)

// MethodTarget is the resolved destination of a (blueprint, ident) call.
type MethodTarget struct {
	Kind       MethodKind
	Native     NativeFunc
	ExportName string
}
