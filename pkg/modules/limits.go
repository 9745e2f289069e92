package modules

import "github.com/ledgerkernel/txkernel/pkg/kernelerrors"

// LimitsConfig mirrors the original TransactionLimitsConfig: the fixed
// caps the Limits module enforces through a transaction's execution.
type LimitsConfig struct {
	MaxCallDepth                int
	MaxInvokePayloadSize        int
	MaxSubstateSize             int
	MaxNumberOfSubstatesInTrack int
	MaxNumberOfEvents           int
	MaxEventSize                int
	MaxNumberOfLogs             int
	MaxLogSize                  int
}

func DefaultLimitsConfig() LimitsConfig {
	return LimitsConfig{
		MaxCallDepth:                8,
		MaxInvokePayloadSize:        1024 * 1024,
		MaxSubstateSize:             2 * 1024 * 1024,
		MaxNumberOfSubstatesInTrack: 65_536,
		MaxNumberOfEvents:           256,
		MaxEventSize:                64 * 1024,
		MaxNumberOfLogs:             256,
		MaxLogSize:                  64 * 1024,
	}
}

// LimitsModule tracks cumulative counters against LimitsConfig, raising a
// TransactionLimitsError the moment any boundary is crossed.
type LimitsModule struct {
	config LimitsConfig

	substatesInTrack int
	eventsEmitted    int
	logsEmitted      int
}

func NewLimitsModule(config LimitsConfig) *LimitsModule {
	return &LimitsModule{config: config}
}

// CheckInvoke validates a pending invocation's depth and payload size
// before the kernel pushes a new frame for it.
func (m *LimitsModule) CheckInvoke(currentDepth, inputSize int) error {
	if currentDepth >= m.config.MaxCallDepth {
		return &kernelerrors.MaxCallDepthError{Depth: currentDepth + 1, Max: m.config.MaxCallDepth}
	}
	if inputSize > m.config.MaxInvokePayloadSize {
		return &kernelerrors.TransactionLimitsError{
			Limit: "max_invoke_payload_size", Value: uint64(inputSize), Allowed: uint64(m.config.MaxInvokePayloadSize),
		}
	}
	return nil
}

// CheckSubstateSize validates a substate value about to be written.
func (m *LimitsModule) CheckSubstateSize(size int) error {
	if size > m.config.MaxSubstateSize {
		return &kernelerrors.TransactionLimitsError{
			Limit: "max_substate_size", Value: uint64(size), Allowed: uint64(m.config.MaxSubstateSize),
		}
	}
	return nil
}

// NoteNewTrackEntry records a substate newly created in the Track and
// checks it against the total-entries cap.
func (m *LimitsModule) NoteNewTrackEntry() error {
	m.substatesInTrack++
	if m.substatesInTrack > m.config.MaxNumberOfSubstatesInTrack {
		return &kernelerrors.TransactionLimitsError{
			Limit: "max_number_of_substates_in_track", Value: uint64(m.substatesInTrack), Allowed: uint64(m.config.MaxNumberOfSubstatesInTrack),
		}
	}
	return nil
}

// NoteEvent records an emitted event and checks both the per-event size
// cap and the cumulative event count cap.
func (m *LimitsModule) NoteEvent(size int) error {
	if size > m.config.MaxEventSize {
		return &kernelerrors.TransactionLimitsError{
			Limit: "max_event_size", Value: uint64(size), Allowed: uint64(m.config.MaxEventSize),
		}
	}
	m.eventsEmitted++
	if m.eventsEmitted > m.config.MaxNumberOfEvents {
		return &kernelerrors.TransactionLimitsError{
			Limit: "max_number_of_events", Value: uint64(m.eventsEmitted), Allowed: uint64(m.config.MaxNumberOfEvents),
		}
	}
	return nil
}

// NoteLog records an emitted log line and checks both caps.
func (m *LimitsModule) NoteLog(size int) error {
	if size > m.config.MaxLogSize {
		return &kernelerrors.TransactionLimitsError{
			Limit: "max_log_size", Value: uint64(size), Allowed: uint64(m.config.MaxLogSize),
		}
	}
	m.logsEmitted++
	if m.logsEmitted > m.config.MaxNumberOfLogs {
		return &kernelerrors.TransactionLimitsError{
			Limit: "max_number_of_logs", Value: uint64(m.logsEmitted), Allowed: uint64(m.config.MaxNumberOfLogs),
		}
	}
	return nil
}
