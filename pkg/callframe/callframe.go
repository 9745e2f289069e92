// Package callframe is the kernel's call-frame stack (spec §4.1): the
// nested invocation contexts an Actor runs in, each carrying the set of
// nodes and references visible to it. It is grounded on two sources: the
// teacher's WriteTransaction lifecycle (begin/in-progress/finished state
// machine, guarded by a mutex) for the Frame's own lifecycle, and the
// original kernel's actor.rs sum type (Root/Method/Function/BlueprintHook)
// for the Actor variants a Frame can run as.
package callframe

import (
	"sync"

	"github.com/ledgerkernel/txkernel/pkg/kernelerrors"
	"github.com/ledgerkernel/txkernel/pkg/substate"
)

// ActorKind distinguishes the four invocation contexts named in spec §4.1.
type ActorKind uint8

const (
	ActorRoot ActorKind = iota
	ActorMethod
	ActorFunction
	ActorBlueprintHook
)

// Actor identifies who is running in a frame.
type Actor struct {
	Kind ActorKind

	// Method actor fields.
	NodeId       substate.NodeId
	DirectAccess bool

	// Function / BlueprintHook shared fields.
	BlueprintName string
	Ident         string
}

// Visibility is the reference mode a node has within a frame, per spec
// §4.1: a frame may see a node as a permanent global reference, a
// direct-access reference that does not survive the call, a borrowed
// transient reference handed down by the caller, or a node it owns
// outright.
type Visibility uint8

const (
	VisibilityGlobal Visibility = iota
	VisibilityDirectAccess
	VisibilityBorrowedTransient
	VisibilityOwned
)

// ReferenceOrigin records how a frame came to see a node: handed down in
// its push Message, or granted to the frame afterwards. It is stored with
// each visible node; no exported method returns it.
type ReferenceOrigin uint8

const (
	OriginInherited ReferenceOrigin = iota // granted to the frame outside a push (GrantReference)
	OriginReceived                         // handed down in this frame's push Message
)

type visibleNode struct {
	mode   Visibility
	origin ReferenceOrigin
}

// Message is exchanged between a caller and callee at push/pop time: the
// set of nodes the caller is moving into (or out of) the callee's
// ownership, plus any additional references granted alongside the move.
type Message struct {
	NodesToMove []substate.NodeId
	References  map[substate.NodeId]Visibility
}

// Frame is one entry in the call-frame stack.
type Frame struct {
	Depth   int
	Actor   Actor
	visible map[substate.NodeId]visibleNode
	owned   map[substate.NodeId]struct{}
}

// IsVisible reports whether node is reachable from this frame under any
// visibility mode.
func (f *Frame) IsVisible(node substate.NodeId) bool {
	_, ok := f.visible[node]
	return ok
}

// VisibilityOf returns the mode node is visible under, if any.
func (f *Frame) VisibilityOf(node substate.NodeId) (Visibility, bool) {
	v, ok := f.visible[node]
	return v.mode, ok
}

// Owns reports whether this frame owns node (created it, or received it as
// an owned move and has not yet passed it on).
func (f *Frame) Owns(node substate.NodeId) bool {
	_, ok := f.owned[node]
	return ok
}

// Stack is the kernel's call-frame stack: Root at index 0, growing with
// each Invoke, bounded by MaxDepth.
type Stack struct {
	mu       sync.Mutex
	frames   []*Frame
	maxDepth int
}

// New creates a Stack with Root already pushed, bounded to maxDepth nested
// invocations beyond Root.
func New(maxDepth int) *Stack {
	root := &Frame{
		Depth:   0,
		Actor:   Actor{Kind: ActorRoot},
		visible: make(map[substate.NodeId]visibleNode),
		owned:   make(map[substate.NodeId]struct{}),
	}
	return &Stack{frames: []*Frame{root}, maxDepth: maxDepth}
}

// Current returns the top-of-stack frame.
func (s *Stack) Current() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames[len(s.frames)-1]
}

// Depth returns the current stack depth (0 at Root).
func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames) - 1
}

// Push enters a new frame running actor, inheriting msg's moved nodes as
// owned and msg's references at the granted visibility. It fails with
// MaxCallDepthError if the new depth would exceed maxDepth.
func (s *Stack) Push(actor Actor, msg Message) (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newDepth := len(s.frames)
	if newDepth > s.maxDepth {
		return nil, &kernelerrors.MaxCallDepthError{Depth: newDepth, Max: s.maxDepth}
	}

	frame := &Frame{
		Depth:   newDepth,
		Actor:   actor,
		visible: make(map[substate.NodeId]visibleNode),
		owned:   make(map[substate.NodeId]struct{}),
	}

	for _, node := range msg.NodesToMove {
		frame.owned[node] = struct{}{}
		frame.visible[node] = visibleNode{mode: VisibilityOwned, origin: OriginReceived}
	}
	for node, vis := range msg.References {
		if _, alreadyOwned := frame.visible[node]; alreadyOwned {
			continue
		}
		frame.visible[node] = visibleNode{mode: vis, origin: OriginReceived}
	}

	s.frames = append(s.frames, frame)
	return frame, nil
}

// Pop leaves the current frame, returning it. The caller (kernel.Invoke) is
// responsible for checking the popped frame's invariants (no open locks on
// owned-but-not-returned nodes) before calling Pop; Pop itself only
// enforces that Root is never popped.
func (s *Stack) Pop() (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.frames) <= 1 {
		return nil, kernelerrors.NewFatalKernelError("pop called on the root frame")
	}

	popped := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return popped, nil
}

// GrantReference adds node to the current frame's visible set at the given
// mode, without a full push (used when a kernel operation hands the
// current frame a newly allocated node's reference).
func (s *Stack) GrantReference(node substate.NodeId, mode Visibility) {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame := s.frames[len(s.frames)-1]
	frame.visible[node] = visibleNode{mode: mode, origin: OriginInherited}
}
