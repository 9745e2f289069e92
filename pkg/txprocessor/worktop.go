// Package txprocessor is the kernel's root frame (spec §4.9): it holds
// the worktop (resources taken out of method/function calls and not yet
// consumed) and the auth worktop (a stack of proofs presented for
// authorization), executes the transaction's instruction list against
// them, and translates instruction-level bucket/proof references into
// kernel.Invoke calls. Native resource/account/package blueprints
// themselves are out of scope (spec's explicit external-collaborator
// list); this package only implements the processor's own bookkeeping of
// what instructions hand it.
package txprocessor

import "github.com/ledgerkernel/txkernel/pkg/kernelerrors"

// BucketRef and ProofRef are indices into the Processor's live bucket/
// proof tables, assigned in allocation order (spec's bucket_id/proof_id).
type BucketRef uint32
type ProofRef uint32

// Bucket is a fungible resource amount taken off the worktop, grounded on
// the original Instruction::TakeFromWorktop/TakeAllFromWorktop's
// Decimal-amount-plus-resource-address shape, simplified to a uint64
// amount (spec's Non-goals exclude a full Decimal/NonFungibleId model).
type Bucket struct {
	Resource string
	Amount   uint64
}

// Proof is a presented badge for a resource, grounded on the original
// Instruction::CreateBucketProof/PutOnAuthWorktop.
type Proof struct {
	Resource string
}

// Worktop is the root frame's scratch bag of resources (spec §9's
// glossary entry), addressable by resource kind.
type Worktop struct {
	balances map[string]uint64
	buckets  map[BucketRef]Bucket
	nextBkt  BucketRef
}

func NewWorktop() *Worktop {
	return &Worktop{balances: make(map[string]uint64), buckets: make(map[BucketRef]Bucket)}
}

// Deposit adds amount of resource directly to the worktop. No Processor
// instruction calls it: Processor.depositReturn credits nothing back.
func (w *Worktop) Deposit(resource string, amount uint64) {
	w.balances[resource] += amount
}

// TakeFromWorktop removes amount of resource from the worktop balance
// into a newly minted bucket.
func (w *Worktop) TakeFromWorktop(resource string, amount uint64) (BucketRef, error) {
	if w.balances[resource] < amount {
		return 0, &kernelerrors.InsufficientBalanceError{Requested: amount, Remaining: w.balances[resource], Reason: "worktop resource " + resource}
	}
	w.balances[resource] -= amount
	w.nextBkt++
	ref := w.nextBkt
	w.buckets[ref] = Bucket{Resource: resource, Amount: amount}
	return ref, nil
}

// TakeAllFromWorktop removes the entire balance of resource into a bucket.
func (w *Worktop) TakeAllFromWorktop(resource string) BucketRef {
	amount := w.balances[resource]
	delete(w.balances, resource)
	w.nextBkt++
	ref := w.nextBkt
	w.buckets[ref] = Bucket{Resource: resource, Amount: amount}
	return ref
}

// ReturnToWorktop puts a bucket's contents back onto the worktop balance
// and retires the bucket reference.
func (w *Worktop) ReturnToWorktop(ref BucketRef) error {
	bucket, ok := w.buckets[ref]
	if !ok {
		return kernelerrors.NewKernelError("return_to_worktop: unknown bucket reference")
	}
	w.balances[bucket.Resource] += bucket.Amount
	delete(w.buckets, ref)
	return nil
}

// Bucket looks up a live bucket by reference without consuming it.
func (w *Worktop) Bucket(ref BucketRef) (Bucket, bool) {
	b, ok := w.buckets[ref]
	return b, ok
}

// ConsumeBucket removes ref from the live table (passed by value into a
// call's arguments; it does not return to the worktop).
func (w *Worktop) ConsumeBucket(ref BucketRef) (Bucket, error) {
	b, ok := w.buckets[ref]
	if !ok {
		return Bucket{}, kernelerrors.NewKernelError("bucket reference not found")
	}
	delete(w.buckets, ref)
	return b, nil
}

// AssertContains fails unless the worktop holds at least amount of
// resource (spec's AssertWorktopContains instruction).
func (w *Worktop) AssertContains(resource string, amount uint64) error {
	if w.balances[resource] < amount {
		return &kernelerrors.InsufficientBalanceError{Requested: amount, Remaining: w.balances[resource], Reason: "worktop resource " + resource}
	}
	return nil
}
