package txprocessor

import "github.com/ledgerkernel/txkernel/pkg/substate"

// Kind tags which instruction variant an Instruction carries, grounded on
// the original Instruction enum's variant list. PublishPackage and
// TakeNonFungiblesFromWorktop are out of scope: package publishing is a
// native-blueprint concern this port never implements, and non-fungible
// ids fall under the Decimal/NonFungibleId modeling this port's Non-goals
// exclude in favor of a plain fungible uint64 amount.
type Kind uint8

const (
	KindTakeFromWorktop Kind = iota
	KindTakeAllFromWorktop
	KindReturnToWorktop
	KindAssertWorktopContains
	KindTakeFromAuthWorktop
	KindPutOnAuthWorktop
	KindCreateBucketProof
	KindCloneProof
	KindDropProof
	KindLockFee
	KindCallFunction
	KindCallMethod
	KindCallMethodWithAllResources
	KindEnd
)

// Instruction is one step of a transaction's instruction list. Only the
// fields relevant to Kind are populated; the rest are left zero. This
// flattens the original's per-variant struct fields into one shape,
// Go's usual substitute for a sum type when the variants are this
// small and this numerous.
type Instruction struct {
	Kind Kind

	Resource string // TakeFromWorktop, TakeAllFromWorktop, AssertWorktopContains
	Amount   uint64 // TakeFromWorktop, AssertWorktopContains

	BucketRef BucketRef // ReturnToWorktop, CreateBucketProof
	ProofRef  ProofRef  // PutOnAuthWorktop, CloneProof, DropProof
	ZoneIndex uint32    // TakeFromAuthWorktop: position within the current auth zone

	BlueprintName string          // CallFunction
	NodeId        substate.NodeId // CallMethod, CallMethodWithAllResources, LockFee: target component/vault
	Ident         string          // CallFunction, CallMethod, CallMethodWithAllResources

	// Contingent marks a LockFee lock as payable only if the transaction
	// ultimately commits successfully (spec §4.6's contingent lock, used
	// by royalty vaults that should not be charged on a failed call).
	Contingent bool // LockFee

	// Args holds the buckets and proofs this instruction hands to the
	// callee, plus any opaque argument payload already serialized by the
	// caller (spec's "Buckets and proofs in arguments move from the
	// transaction context to the callee").
	ArgBuckets []BucketRef
	ArgProofs  []ProofRef
	ArgPayload []byte

	// Signatures closes a transaction (the original's End instruction).
	Signatures [][]byte
}
