// Package kernelerrors is the error taxonomy shared by every layer of the
// kernel: invariant violations raised by the kernel itself, vetoes raised by
// system modules, and application errors surfaced by blueprint code.
package kernelerrors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/getsentry/sentry-go"
)

// InitFaultReporting configures the process-wide Sentry client that
// NewFatalKernelError reports through. Call it once at process startup
// with a DSN; with no DSN configured, sentry.CaptureException is a
// documented no-op, so reporting is always safe to call unconditionally.
func InitFaultReporting(dsn string) error {
	return sentry.Init(sentry.ClientOptions{Dsn: dsn})
}

// Abortable is implemented by errors that must be distinguished from an
// ordinary application error when the transaction processor decides between
// rejection and commit-failure (spec §7).
type Abortable interface {
	error
	Abortable() bool
}

// KernelError is an invariant violation inside the kernel itself: an invalid
// lock handle, an unknown node id, a frame popped with open locks. These are
// always fatal within the transaction.
type KernelError struct {
	Reason string
}

func (e *KernelError) Error() string { return fmt.Sprintf("kernel invariant violated: %s", e.Reason) }

// NewKernelError wraps a KernelError with a captured stack trace so it
// survives unwinding through several call frames. Used both for genuine
// kernel-layer invariant violations and for processor-level bookkeeping
// errors (a malformed instruction list referencing a bucket or proof
// that was never issued) that share the same "this should never happen
// given well-formed input" shape but don't warrant paging anyone.
func NewKernelError(reason string) error {
	return errors.WithStack(&KernelError{Reason: reason})
}

// NewFatalKernelError is NewKernelError plus a Sentry report (spec §4.4:
// "leaking a lock is a bug" — these are always programmer errors inside
// the kernel's own bookkeeping, never ordinary transaction failures, so
// they are worth paging someone over). Reserved for invariant violations
// raised by the kernel's own components (heap, track, call-frame stack,
// substate database, method registry), never by transaction-supplied
// input.
func NewFatalKernelError(reason string) error {
	err := errors.WithStack(&KernelError{Reason: reason})
	sentry.CaptureException(err)
	return err
}

// NodeNotFoundError is returned when a kernel operation references a NodeId
// that is neither in the heap nor resolvable through the track.
type NodeNotFoundError struct {
	Node string
}

func (e *NodeNotFoundError) Error() string { return fmt.Sprintf("node %q not found", e.Node) }

// InvalidHandleError is returned when a substate lock handle is closed,
// read, or written twice, or was never issued by this track.
type InvalidHandleError struct {
	Handle uint64
}

func (e *InvalidHandleError) Error() string {
	return fmt.Sprintf("invalid or expired substate lock handle %d", e.Handle)
}

// SubstateLockedError is returned by Track.Open when the requested lock mode
// conflicts with an existing writer (or an existing writer conflicts with a
// new reader/writer request).
type SubstateLockedError struct {
	Node      string
	Partition uint32
}

func (e *SubstateLockedError) Error() string {
	return fmt.Sprintf("substate (%s, partition %d) is locked by a conflicting holder", e.Node, e.Partition)
}

// SubstateNotFoundError is returned by Track.Open when the substate is
// absent from both the in-flight overlay and the backing database.
type SubstateNotFoundError struct {
	Node      string
	Partition uint32
}

func (e *SubstateNotFoundError) Error() string {
	return fmt.Sprintf("substate (%s, partition %d) not found", e.Node, e.Partition)
}

// UnmodifiedBaseViolationError is returned when UNMODIFIED_BASE is requested
// on a substate already modified in this transaction.
type UnmodifiedBaseViolationError struct {
	Node      string
	Partition uint32
}

func (e *UnmodifiedBaseViolationError) Error() string {
	return fmt.Sprintf("substate (%s, partition %d) already modified in this transaction; UNMODIFIED_BASE unavailable", e.Node, e.Partition)
}

// CostingError is raised by the Costing module: fee reserve exhaustion or a
// depth/payload limit violation. Abortable reports whether the underlying
// cause is a fee-reserve exhaustion (always abortable) as opposed to a
// configuration-only violation.
type CostingError struct {
	Reason    string
	abortable bool
}

func (e *CostingError) Error() string  { return fmt.Sprintf("costing error: %s", e.Reason) }
func (e *CostingError) Abortable() bool { return e.abortable }

func NewCostingError(reason string) error {
	return &CostingError{Reason: reason, abortable: true}
}

func NewCostingLimitError(reason string) error {
	return &CostingError{Reason: reason, abortable: false}
}

// MaxCallDepthError is a specific CostingError raised when the call-frame
// stack would exceed max_call_depth.
type MaxCallDepthError struct {
	Depth, Max int
}

func (e *MaxCallDepthError) Error() string {
	return fmt.Sprintf("max call depth reached: depth %d exceeds limit %d", e.Depth, e.Max)
}
func (e *MaxCallDepthError) Abortable() bool { return false }

// InsufficientBalanceError is raised when the fee reserve cannot cover a
// requested charge. It is always abortable.
type InsufficientBalanceError struct {
	Requested, Remaining uint64
	Reason               string
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient fee reserve balance: requested %d, remaining %d (%s)", e.Requested, e.Remaining, e.Reason)
}
func (e *InsufficientBalanceError) Abortable() bool { return true }

// TransactionLimitsError is raised by the Limits module.
type TransactionLimitsError struct {
	Limit   string
	Value   uint64
	Allowed uint64
}

func (e *TransactionLimitsError) Error() string {
	return fmt.Sprintf("transaction limit %q exceeded: %d > %d", e.Limit, e.Value, e.Allowed)
}

// AuthError is raised by the Auth module when a method's access requirements
// are not satisfied against the current auth zone.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return fmt.Sprintf("authorization failed: %s", e.Reason) }

// CycleCheckError is a specific AuthError raised when a role-rule mutation
// would introduce a cycle in the role requirement graph.
type CycleCheckError struct {
	Cycle []string
}

func (e *CycleCheckError) Error() string {
	return fmt.Sprintf("cyclic role definition detected: %v", e.Cycle)
}

// LockedRuleError is raised when a caller attempts to mutate a role rule
// whose mutability rule is deny_all (permanently locked).
type LockedRuleError struct {
	Role string
}

func (e *LockedRuleError) Error() string {
	return fmt.Sprintf("role %q is locked and cannot be mutated", e.Role)
}

// NodeMoveError is raised by the NodeMove module.
type NodeMoveError struct {
	Reason string
}

func (e *NodeMoveError) Error() string { return fmt.Sprintf("node move rejected: %s", e.Reason) }

// RestrictedProofError is a specific NodeMoveError for a proof that already
// crossed a non-auth-zone boundary being moved again.
type RestrictedProofError struct {
	Proof string
}

func (e *RestrictedProofError) Error() string {
	return fmt.Sprintf("proof %q is restricted and cannot move further", e.Proof)
}

// OutOfUuidError is raised by the transaction-runtime module when the
// 32-bit id counter is exhausted.
type OutOfUuidError struct{}

func (e *OutOfUuidError) Error() string { return "transaction runtime exhausted its id counter" }

// ApplicationError wraps an error surfaced by blueprint/native code, kept
// distinct from kernel/system errors so the processor can still commit
// whatever force-written state exists.
type ApplicationError struct {
	Cause error
}

func (e *ApplicationError) Error() string   { return fmt.Sprintf("application error: %s", e.Cause) }
func (e *ApplicationError) Unwrap() error   { return e.Cause }
func (e *ApplicationError) Abortable() bool { return false }

// ObjectModuleDoesNotExistError / AssertAccessRuleFailedError /
// CallFrameVisibilityError are "system errors" (spec §7) raised by the
// system/blueprint layer, not by the kernel proper.
type ObjectModuleDoesNotExistError struct{ Module string }

func (e *ObjectModuleDoesNotExistError) Error() string {
	return fmt.Sprintf("object module %q does not exist on this node", e.Module)
}

type AssertAccessRuleFailedError struct{ Rule string }

func (e *AssertAccessRuleFailedError) Error() string {
	return fmt.Sprintf("assert_access_rule failed: %s", e.Rule)
}

type CallFrameVisibilityError struct{ Node string }

func (e *CallFrameVisibilityError) Error() string {
	return fmt.Sprintf("node %q is not visible to the current frame", e.Node)
}

// IsAbortable reports whether err (possibly wrapped with cockroachdb/errors)
// carries the Abortable marker and, if so, whether it is abortable.
func IsAbortable(err error) (abortable bool, ok bool) {
	var a Abortable
	if errors.As(err, &a) {
		return a.Abortable(), true
	}
	return false, false
}

// Wrap attaches a stack trace and a short marker message, for errors that
// escape the kernel boundary and need to be diagnosable from a receipt's
// rejection/failure reason.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}
