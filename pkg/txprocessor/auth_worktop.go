package txprocessor

import "github.com/ledgerkernel/txkernel/pkg/kernelerrors"

// AuthWorktop is the root frame's stack of presented proofs (spec §9's
// glossary entry for the auth zone), grounded on the original
// Instruction::{TakeFromAuthWorktop,PutOnAuthWorktop,CreateBucketProof,
// CloneProof,DropProof} vocabulary. Proofs live in a flat table addressed
// by ProofRef, same pattern as Worktop's buckets, plus an ordered stack
// of refs currently "on" the auth worktop and visible to auth checks.
type AuthWorktop struct {
	proofs  map[ProofRef]Proof
	onZone  []ProofRef
	nextRef ProofRef
}

func NewAuthWorktop() *AuthWorktop {
	return &AuthWorktop{proofs: make(map[ProofRef]Proof)}
}

// Put stores a freshly created proof and pushes it onto the auth zone,
// returning its reference (spec's PutOnAuthWorktop / CreateBucketProof).
func (a *AuthWorktop) Put(p Proof) ProofRef {
	a.nextRef++
	ref := a.nextRef
	a.proofs[ref] = p
	a.onZone = append(a.onZone, ref)
	return ref
}

// Take removes ref from the auth zone without discarding the proof
// itself (spec's TakeFromAuthWorktop: the proof moves to the caller's
// argument list, not off the table).
func (a *AuthWorktop) Take(ref ProofRef) (Proof, error) {
	p, ok := a.proofs[ref]
	if !ok {
		return Proof{}, kernelerrors.NewKernelError("take_from_auth_worktop: unknown proof reference")
	}
	for i, r := range a.onZone {
		if r == ref {
			a.onZone = append(a.onZone[:i], a.onZone[i+1:]...)
			break
		}
	}
	return p, nil
}

// Clone duplicates ref's proof under a new reference, leaving the
// original in place (spec's CloneProof).
func (a *AuthWorktop) Clone(ref ProofRef) (ProofRef, error) {
	p, ok := a.proofs[ref]
	if !ok {
		return 0, kernelerrors.NewKernelError("clone_proof: unknown proof reference")
	}
	a.nextRef++
	clone := a.nextRef
	a.proofs[clone] = p
	return clone, nil
}

// Drop retires ref entirely, removing it from the auth zone if present.
func (a *AuthWorktop) Drop(ref ProofRef) error {
	if _, ok := a.proofs[ref]; !ok {
		return kernelerrors.NewKernelError("drop_proof: unknown proof reference")
	}
	delete(a.proofs, ref)
	for i, r := range a.onZone {
		if r == ref {
			a.onZone = append(a.onZone[:i], a.onZone[i+1:]...)
			break
		}
	}
	return nil
}

// VisibleBadges returns the resource names of every proof currently on
// the auth zone, the shape modules.AuthModule.PushAuthZone expects.
func (a *AuthWorktop) VisibleBadges() []string {
	badges := make([]string, 0, len(a.onZone))
	for _, ref := range a.onZone {
		badges = append(badges, a.proofs[ref].Resource)
	}
	return badges
}
