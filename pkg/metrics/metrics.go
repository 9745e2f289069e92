// Package metrics is the kernel's Prometheus surface: execution cost
// units consumed by reason, substates read/written, and lock-wait
// counts, all published through github.com/prometheus/client_golang —
// listed in the teacher's go.mod but never wired into its own tree.
// Non-goals exclude a server (nothing here listens on a socket); a
// caller that wants these counters exposed registers Registry.Registerer
// with their own HTTP handler.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles the collectors the kernel publishes through. Each
// Kernel/Pipeline owns one, created fresh per transaction so metrics
// from concurrent-but-not-actually-concurrent executions (Non-goals:
// no multi-tx concurrency) never collide in a shared global registry.
type Registry struct {
	Registerer *prometheus.Registry

	CostUnitsConsumed *prometheus.CounterVec
	SubstateReads     prometheus.Counter
	SubstateWrites    prometheus.Counter
	LockWaits         prometheus.Counter
}

// New builds a Registry with every collector registered against a fresh
// prometheus.Registry.
func New() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		Registerer: reg,
		CostUnitsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "txkernel_cost_units_consumed_total",
			Help: "Cost units consumed by the Costing module, labeled by charge reason.",
		}, []string{"reason"}),
		SubstateReads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "txkernel_substate_reads_total",
			Help: "Substates read through the kernel's OpenSubstate/ReadSubstate cycle.",
		}),
		SubstateWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "txkernel_substate_writes_total",
			Help: "Substates written through the kernel's WriteSubstate.",
		}),
		LockWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "txkernel_substate_lock_contention_total",
			Help: "OpenSubstate calls that failed because the target lock was already held.",
		}),
	}
	reg.MustRegister(r.CostUnitsConsumed, r.SubstateReads, r.SubstateWrites, r.LockWaits)
	return r
}
