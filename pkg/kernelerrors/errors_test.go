package kernelerrors

import "testing"

func TestErrors_ErrorMethod(t *testing.T) {
	errs := []error{
		&KernelError{Reason: "leaked lock"},
		&NodeNotFoundError{Node: "n1"},
		&InvalidHandleError{Handle: 7},
		&SubstateLockedError{Node: "n1", Partition: 1},
		&SubstateNotFoundError{Node: "n1", Partition: 1},
		&UnmodifiedBaseViolationError{Node: "n1", Partition: 1},
		&CostingError{Reason: "out of units"},
		&MaxCallDepthError{Depth: 9, Max: 8},
		&InsufficientBalanceError{Requested: 10, Remaining: 2, Reason: "execution"},
		&TransactionLimitsError{Limit: "max_log_size", Value: 10, Allowed: 5},
		&AuthError{Reason: "missing proof"},
		&CycleCheckError{Cycle: []string{"A", "B", "A"}},
		&LockedRuleError{Role: "admin"},
		&NodeMoveError{Reason: "kv store cannot move"},
		&RestrictedProofError{Proof: "p1"},
		&OutOfUuidError{},
		&ApplicationError{Cause: &KernelError{Reason: "inner"}},
		&ObjectModuleDoesNotExistError{Module: "metadata"},
		&AssertAccessRuleFailedError{Rule: "require(badge)"},
		&CallFrameVisibilityError{Node: "n2"},
	}

	for _, e := range errs {
		if e.Error() == "" {
			t.Errorf("Error() returned empty string for %T", e)
		}
	}
}

func TestIsAbortable(t *testing.T) {
	cases := []struct {
		err           error
		wantOK        bool
		wantAbortable bool
	}{
		{NewCostingError("exhausted"), true, true},
		{NewCostingLimitError("depth"), true, false},
		{&InsufficientBalanceError{Reason: "royalty"}, true, true},
		{&MaxCallDepthError{Depth: 9, Max: 8}, true, false},
		{&TransactionLimitsError{Limit: "x"}, false, false},
	}

	for _, c := range cases {
		abortable, ok := IsAbortable(c.err)
		if ok != c.wantOK {
			t.Fatalf("IsAbortable(%v) ok=%v, want %v", c.err, ok, c.wantOK)
		}
		if ok && abortable != c.wantAbortable {
			t.Fatalf("IsAbortable(%v) abortable=%v, want %v", c.err, abortable, c.wantAbortable)
		}
	}
}

func TestWrapPreservesCause(t *testing.T) {
	if Wrap(nil, "x") != nil {
		t.Fatal("Wrap(nil) must return nil")
	}
	base := &KernelError{Reason: "boom"}
	wrapped := Wrap(base, "while closing substate")
	if wrapped == nil {
		t.Fatal("expected non-nil wrapped error")
	}
}
