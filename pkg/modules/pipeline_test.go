package modules

import (
	"testing"

	"github.com/ledgerkernel/txkernel/pkg/accessrules"
	"github.com/ledgerkernel/txkernel/pkg/feereserve"
)

func newTestPipeline(t *testing.T, enabled EnabledModules) *Pipeline {
	t.Helper()
	reserve := feereserve.New(feereserve.DefaultOptions())
	auth := NewAuthModule(accessrules.NewTable())
	return New(enabled, reserve, DefaultFeeTable(), DefaultLimitsConfig(), auth, [32]byte{1})
}

func TestOnInitPreConsumesBaseFeePayloadAndSignatureCosts(t *testing.T) {
	p := newTestPipeline(t, StandardModules)
	if err := p.OnInit(256, 2); err != nil {
		t.Fatalf("OnInit: %v", err)
	}
}

func TestBeforePushFrameChargesAndChecksLimits(t *testing.T) {
	p := newTestPipeline(t, StandardModules)
	if err := p.BeforePushFrame(0, "Blueprint", "method", 100); err != nil {
		t.Fatalf("BeforePushFrame: %v", err)
	}
}

func TestBeforePushFrameRejectsPastMaxDepth(t *testing.T) {
	p := newTestPipeline(t, StandardModules)
	p.Limits = NewLimitsModule(LimitsConfig{MaxCallDepth: 1, MaxInvokePayloadSize: 1024})
	if err := p.BeforePushFrame(1, "Blueprint", "method", 10); err == nil {
		t.Fatalf("expected BeforePushFrame to reject a push at the max depth")
	}
}

func TestBeforePushFrameRejectsUnauthorizedMethod(t *testing.T) {
	table := accessrules.NewTable()
	if err := table.DefineRole("withdraw_role", accessrules.RequireBadge("owner_badge"), accessrules.DenyAll()); err != nil {
		t.Fatalf("DefineRole: %v", err)
	}
	reserve := feereserve.New(feereserve.DefaultOptions())
	auth := NewAuthModule(table)
	auth.RequireRoleForMethod("Vault", "withdraw", "withdraw_role")
	p := New(StandardModules, reserve, DefaultFeeTable(), DefaultLimitsConfig(), auth, [32]byte{1})

	if err := p.BeforePushFrame(0, "Vault", "withdraw", 10); err == nil {
		t.Fatalf("expected BeforePushFrame to reject a role-guarded method with no presented badge")
	}
}

func TestBeforePushFrameAllowsAuthorizedMethod(t *testing.T) {
	table := accessrules.NewTable()
	if err := table.DefineRole("withdraw_role", accessrules.RequireBadge("owner_badge"), accessrules.DenyAll()); err != nil {
		t.Fatalf("DefineRole: %v", err)
	}
	reserve := feereserve.New(feereserve.DefaultOptions())
	auth := NewAuthModule(table)
	auth.RequireRoleForMethod("Vault", "withdraw", "withdraw_role")
	p := New(StandardModules, reserve, DefaultFeeTable(), DefaultLimitsConfig(), auth, [32]byte{1})
	auth.PushAuthZone([]string{"owner_badge"})

	if err := p.BeforePushFrame(0, "Vault", "withdraw", 10); err != nil {
		t.Fatalf("expected BeforePushFrame to allow a role-guarded method once the badge is presented: %v", err)
	}
}

func TestAfterPushAndBeforePopManageAuthZoneStack(t *testing.T) {
	p := newTestPipeline(t, StandardModules)
	p.AfterPushFrame(1, "method", []string{"badge"})
	if len(p.Auth.authZones) != 1 {
		t.Fatalf("expected one auth zone after AfterPushFrame, got %d", len(p.Auth.authZones))
	}
	p.BeforePopFrame(1, "method", false)
	if len(p.Auth.authZones) != 0 {
		t.Fatalf("expected the auth zone to be popped, got %d remaining", len(p.Auth.authZones))
	}
}

func TestBeforePopFrameRollsBackEventsOnAbort(t *testing.T) {
	p := newTestPipeline(t, StandardModules)
	p.Events.Emit(0, "root-event", nil)
	p.Events.Emit(1, "child-event", nil)

	p.BeforePopFrame(1, "method", true)

	events := p.Events.All()
	if len(events) != 1 || events[0].Type != "root-event" {
		t.Fatalf("expected only root-event to survive an abort at depth 1, got %+v", events)
	}
}

func TestOnExecutionFinishReturnsAccumulatedEvents(t *testing.T) {
	p := newTestPipeline(t, StandardModules)
	p.Events.Emit(0, "event", nil)

	events, _, trace, err := p.OnExecutionFinish()
	if err != nil {
		t.Fatalf("OnExecutionFinish: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if trace != nil {
		t.Fatalf("expected nil trace when ModExecutionTrace is disabled")
	}
}

func TestOnExecutionFinishReturnsAccumulatedLogs(t *testing.T) {
	p := newTestPipeline(t, StandardModules)
	p.Logs.Append("hello")

	_, logs, _, err := p.OnExecutionFinish()
	if err != nil {
		t.Fatalf("OnExecutionFinish: %v", err)
	}
	if len(logs) != 1 || logs[0] != "hello" {
		t.Fatalf("logs = %v, want [hello]", logs)
	}
}

func TestOnExecutionFinishCompressesTraceWhenEnabled(t *testing.T) {
	p := newTestPipeline(t, StandardModules|ModExecutionTrace)
	p.ExecTrace.RecordMovement(ResourceMovement{Depth: 0, NodeId: "n", FromVault: "a", ToVault: "b", Amount: "1"})

	_, _, trace, err := p.OnExecutionFinish()
	if err != nil {
		t.Fatalf("OnExecutionFinish: %v", err)
	}
	if len(trace) == 0 {
		t.Fatalf("expected a non-empty compressed trace when ModExecutionTrace is enabled")
	}
}
