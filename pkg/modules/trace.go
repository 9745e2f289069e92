package modules

import (
	"fmt"
	"log"

	"github.com/DataDog/zstd"
	"github.com/ledgerkernel/txkernel/pkg/kernelerrors"
)

// KernelTraceModule prints a line for every frame push/pop and invoke when
// enabled, matching the teacher's plain stdlib log.Printf debug style
// (examples/vacuum_demo). It is off by default, per spec §5 ("KernelTrace,
// disabled in production").
type KernelTraceModule struct {
	Enabled bool
	logger  *log.Logger
}

func NewKernelTraceModule(enabled bool, logger *log.Logger) *KernelTraceModule {
	if logger == nil {
		logger = log.Default()
	}
	return &KernelTraceModule{Enabled: enabled, logger: logger}
}

func (m *KernelTraceModule) OnPushFrame(depth int, actor string) {
	if m.Enabled {
		m.logger.Printf("kernel: push frame depth=%d actor=%s", depth, actor)
	}
}

func (m *KernelTraceModule) OnPopFrame(depth int, actor string) {
	if m.Enabled {
		m.logger.Printf("kernel: pop frame depth=%d actor=%s", depth, actor)
	}
}

func (m *KernelTraceModule) OnInvoke(depth int, export string, inputSize int) {
	if m.Enabled {
		m.logger.Printf("kernel: invoke depth=%d export=%s input_bytes=%d", depth, export, inputSize)
	}
}

// ResourceMovement is one line of an ExecutionTrace: an amount moving from
// one vault to another, recorded with the call-frame depth it happened at
// (spec §5's preview-mode execution trace).
type ResourceMovement struct {
	Depth     int
	NodeId    string
	FromVault string
	ToVault   string
	Amount    string
}

// ExecutionTraceModule accumulates resource movements during preview-mode
// execution, returning them zstd-compressed so a large trace does not
// bloat the receipt the way an uncompressed dump would.
type ExecutionTraceModule struct {
	Enabled   bool
	movements []ResourceMovement
}

func NewExecutionTraceModule(enabled bool) *ExecutionTraceModule {
	return &ExecutionTraceModule{Enabled: enabled}
}

func (m *ExecutionTraceModule) RecordMovement(mv ResourceMovement) {
	if m.Enabled {
		m.movements = append(m.movements, mv)
	}
}

// Compress serializes the recorded movements into a simple line-oriented
// text form and zstd-compresses it, returning nil if tracing was disabled
// or nothing was recorded.
func (m *ExecutionTraceModule) Compress() ([]byte, error) {
	if !m.Enabled || len(m.movements) == 0 {
		return nil, nil
	}
	var raw []byte
	for _, mv := range m.movements {
		line := fmt.Sprintf("%d\t%s\t%s\t%s\t%s\n", mv.Depth, mv.NodeId, mv.FromVault, mv.ToVault, mv.Amount)
		raw = append(raw, line...)
	}
	compressed, err := zstd.Compress(nil, raw)
	if err != nil {
		return nil, kernelerrors.Wrap(err, "execution trace: zstd compression failed")
	}
	return compressed, nil
}

// Decompress reverses Compress, for tooling that reads a stored trace back.
func Decompress(compressed []byte) ([]byte, error) {
	raw, err := zstd.Decompress(nil, compressed)
	if err != nil {
		return nil, kernelerrors.Wrap(err, "execution trace: zstd decompression failed")
	}
	return raw, nil
}
