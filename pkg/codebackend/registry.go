package codebackend

import (
	"fmt"
	"sync"

	"github.com/ledgerkernel/txkernel/pkg/kernelerrors"
)

// methodKey is the dynamic-dispatch lookup spec §6 describes: "(blueprint_id,
// ident) -> handler".
type methodKey struct {
	BlueprintName string
	Ident         string
}

// Registry is the method resolution table the system/blueprint layer
// consults on every invoke: native handlers registered at startup, user
// code registered from a published package record, both resolved through
// the same (blueprint, ident) key.
type Registry struct {
	mu      sync.RWMutex
	methods map[methodKey]MethodTarget
	backend Backend
}

// NewRegistry builds an empty registry backed by the given user-code
// Backend (the WASM engine, or any stand-in implementing the same
// interface); backend may be nil if this registry only ever serves
// native methods.
func NewRegistry(backend Backend) *Registry {
	return &Registry{methods: make(map[methodKey]MethodTarget), backend: backend}
}

// RegisterNative binds a blueprint method directly to a Go function,
// bypassing the Backend entirely.
func (r *Registry) RegisterNative(blueprintName, ident string, fn NativeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[methodKey{blueprintName, ident}] = MethodTarget{Kind: MethodNative, Native: fn}
}

// RegisterUserCode binds a blueprint method to an export name the
// registry's Backend will be asked to run.
func (r *Registry) RegisterUserCode(blueprintName, ident, exportName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[methodKey{blueprintName, ident}] = MethodTarget{Kind: MethodUserCode, ExportName: exportName}
}

// Resolve looks up the handler for a (blueprint, ident) pair without
// invoking it.
func (r *Registry) Resolve(blueprintName, ident string) (MethodTarget, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	target, ok := r.methods[methodKey{blueprintName, ident}]
	return target, ok
}

// Dispatch resolves and runs the handler for (blueprintName, ident),
// routing to the Native function or through the registry's Backend
// depending on MethodTarget.Kind.
func (r *Registry) Dispatch(blueprintName, ident string, input []byte, handle KernelHandle) ([]byte, error) {
	target, ok := r.Resolve(blueprintName, ident)
	if !ok {
		return nil, &kernelerrors.ObjectModuleDoesNotExistError{Module: blueprintName + "::" + ident}
	}
	switch target.Kind {
	case MethodNative:
		return target.Native(input, handle)
	case MethodUserCode:
		if r.backend == nil {
			return nil, kernelerrors.NewFatalKernelError(fmt.Sprintf("codebackend: no backend registered for user code export %q", target.ExportName))
		}
		return r.backend.Invoke(target.ExportName, input, handle)
	default:
		return nil, kernelerrors.NewFatalKernelError(fmt.Sprintf("codebackend: unknown method kind %d for %s::%s", target.Kind, blueprintName, ident))
	}
}
