package txprocessor

import "testing"

func TestTakeFromWorktopDebitsBalance(t *testing.T) {
	w := NewWorktop()
	w.Deposit("xrd", 100)

	ref, err := w.TakeFromWorktop("xrd", 40)
	if err != nil {
		t.Fatalf("TakeFromWorktop: %v", err)
	}
	if w.balances["xrd"] != 60 {
		t.Fatalf("remaining balance = %d, want 60", w.balances["xrd"])
	}
	bucket, ok := w.Bucket(ref)
	if !ok || bucket.Amount != 40 || bucket.Resource != "xrd" {
		t.Fatalf("unexpected bucket %+v", bucket)
	}
}

func TestTakeFromWorktopRejectsInsufficientBalance(t *testing.T) {
	w := NewWorktop()
	w.Deposit("xrd", 10)

	if _, err := w.TakeFromWorktop("xrd", 11); err == nil {
		t.Fatalf("expected an error taking more than the balance")
	}
}

func TestTakeAllFromWorktopZeroesBalance(t *testing.T) {
	w := NewWorktop()
	w.Deposit("xrd", 100)

	ref := w.TakeAllFromWorktop("xrd")
	bucket, ok := w.Bucket(ref)
	if !ok || bucket.Amount != 100 {
		t.Fatalf("unexpected bucket %+v", bucket)
	}
	if bal := w.balances["xrd"]; bal != 0 {
		t.Fatalf("balance after take-all = %d, want 0", bal)
	}
}

func TestReturnToWorktopRestoresBalanceAndRetiresBucket(t *testing.T) {
	w := NewWorktop()
	w.Deposit("xrd", 100)
	ref, _ := w.TakeFromWorktop("xrd", 40)

	if err := w.ReturnToWorktop(ref); err != nil {
		t.Fatalf("ReturnToWorktop: %v", err)
	}
	if w.balances["xrd"] != 100 {
		t.Fatalf("balance after return = %d, want 100", w.balances["xrd"])
	}
	if _, ok := w.Bucket(ref); ok {
		t.Fatalf("expected bucket to be retired after return")
	}
}

func TestReturnToWorktopRejectsUnknownBucket(t *testing.T) {
	w := NewWorktop()
	if err := w.ReturnToWorktop(99); err == nil {
		t.Fatalf("expected an error returning an unknown bucket")
	}
}

func TestConsumeBucketRetiresReferenceWithoutCreditingWorktop(t *testing.T) {
	w := NewWorktop()
	w.Deposit("xrd", 100)
	ref, _ := w.TakeFromWorktop("xrd", 40)

	bucket, err := w.ConsumeBucket(ref)
	if err != nil {
		t.Fatalf("ConsumeBucket: %v", err)
	}
	if bucket.Amount != 40 {
		t.Fatalf("bucket amount = %d, want 40", bucket.Amount)
	}
	if w.balances["xrd"] != 60 {
		t.Fatalf("worktop balance should not change on consume, got %d", w.balances["xrd"])
	}
	if _, ok := w.Bucket(ref); ok {
		t.Fatalf("expected bucket to be gone after consume")
	}
}

func TestAssertContainsFailsBelowThreshold(t *testing.T) {
	w := NewWorktop()
	w.Deposit("xrd", 5)

	if err := w.AssertContains("xrd", 10); err == nil {
		t.Fatalf("expected AssertContains to fail below balance")
	}
	if err := w.AssertContains("xrd", 5); err != nil {
		t.Fatalf("AssertContains at exact balance: %v", err)
	}
}
