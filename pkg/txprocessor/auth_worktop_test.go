package txprocessor

import "testing"

func TestPutPushesOntoZoneAndVisibleBadges(t *testing.T) {
	a := NewAuthWorktop()
	a.Put(Proof{Resource: "admin"})

	badges := a.VisibleBadges()
	if len(badges) != 1 || badges[0] != "admin" {
		t.Fatalf("badges = %v, want [admin]", badges)
	}
}

func TestTakeRemovesFromZoneButKeepsProof(t *testing.T) {
	a := NewAuthWorktop()
	ref := a.Put(Proof{Resource: "admin"})

	proof, err := a.Take(ref)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if proof.Resource != "admin" {
		t.Fatalf("proof = %+v", proof)
	}
	if len(a.VisibleBadges()) != 0 {
		t.Fatalf("expected the zone to be empty after Take")
	}
	if _, ok := a.proofs[ref]; !ok {
		t.Fatalf("expected the proof to remain in the table after Take")
	}
}

func TestCloneDuplicatesProofUnderNewReference(t *testing.T) {
	a := NewAuthWorktop()
	ref := a.Put(Proof{Resource: "admin"})

	clone, err := a.Clone(ref)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if clone == ref {
		t.Fatalf("expected a distinct reference for the clone")
	}
	if a.proofs[clone].Resource != "admin" {
		t.Fatalf("clone resource = %q, want admin", a.proofs[clone].Resource)
	}
	if _, ok := a.proofs[ref]; !ok {
		t.Fatalf("expected the original proof to survive cloning")
	}
}

func TestDropRetiresProofAndRemovesFromZone(t *testing.T) {
	a := NewAuthWorktop()
	ref := a.Put(Proof{Resource: "admin"})

	if err := a.Drop(ref); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if _, ok := a.proofs[ref]; ok {
		t.Fatalf("expected the proof to be gone after Drop")
	}
	if len(a.VisibleBadges()) != 0 {
		t.Fatalf("expected the zone to be empty after Drop")
	}
}

func TestTakeRejectsUnknownReference(t *testing.T) {
	a := NewAuthWorktop()
	if _, err := a.Take(99); err == nil {
		t.Fatalf("expected an error taking an unknown proof")
	}
}
