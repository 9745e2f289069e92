package modules

import (
	"bytes"
	"log"
	"testing"
)

func TestKernelTraceModuleSilentWhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	m := NewKernelTraceModule(false, log.New(&buf, "", 0))
	m.OnPushFrame(1, "method")
	m.OnPopFrame(1, "method")
	m.OnInvoke(0, "export", 10)
	if buf.Len() != 0 {
		t.Fatalf("disabled trace module should not write anything")
	}
}

func TestKernelTraceModuleLogsWhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	m := NewKernelTraceModule(true, log.New(&buf, "", 0))
	m.OnPushFrame(1, "method")
	if buf.Len() == 0 {
		t.Fatalf("enabled trace module should have written a line")
	}
}

func TestExecutionTraceModuleCompressRoundTrips(t *testing.T) {
	m := NewExecutionTraceModule(true)
	m.RecordMovement(ResourceMovement{Depth: 1, NodeId: "n1", FromVault: "v1", ToVault: "v2", Amount: "100"})
	m.RecordMovement(ResourceMovement{Depth: 2, NodeId: "n2", FromVault: "v2", ToVault: "v3", Amount: "50"})

	compressed, err := m.Compress()
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(compressed) == 0 {
		t.Fatalf("expected non-empty compressed trace")
	}

	raw, err := Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Contains(raw, []byte("v1")) || !bytes.Contains(raw, []byte("v3")) {
		t.Fatalf("decompressed trace missing recorded vaults: %q", raw)
	}
}

func TestExecutionTraceModuleDisabledProducesNothing(t *testing.T) {
	m := NewExecutionTraceModule(false)
	m.RecordMovement(ResourceMovement{Depth: 0, NodeId: "n", FromVault: "a", ToVault: "b", Amount: "1"})
	compressed, err := m.Compress()
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if compressed != nil {
		t.Fatalf("expected nil compressed output when tracing is disabled")
	}
}
