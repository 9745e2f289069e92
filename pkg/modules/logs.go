package modules

// LogsModule accumulates the log lines a running transaction emits
// (spec §9's receipt "logs" field), mirroring EventsModule's shape but
// without per-depth rollback: unlike events, a failed call's log lines
// are still useful for debugging a committed-failure outcome, so nothing
// here is discarded when a frame aborts.
type LogsModule struct {
	lines []string
}

func NewLogsModule() *LogsModule {
	return &LogsModule{}
}

// Append records one log line.
func (m *LogsModule) Append(message string) {
	m.lines = append(m.lines, message)
}

// All returns every log line recorded so far, in emission order.
func (m *LogsModule) All() []string {
	out := make([]string, len(m.lines))
	copy(out, m.lines)
	return out
}
