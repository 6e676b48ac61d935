// Package metrics exposes the indexer's Prometheus counters. It is a
// supplemented concern (spec's Non-goals exclude fee computation and
// reorg handling, not observability) carried because the teacher's
// stack and the rest of the example pack both treat metrics as
// ambient infrastructure.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder bundles the counters a running indexer emits.
type Recorder struct {
	ingestTotal   *prometheus.CounterVec
	rollbackTotal *prometheus.CounterVec
	gateTimeouts  prometheus.Counter
}

// New registers the indexer's metrics against reg and returns a
// Recorder bound to them.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		ingestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "utxo_indexer_ingest_total",
			Help: "Total number of processed /blocks requests, partitioned by outcome.",
		}, []string{"outcome"}),
		rollbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "utxo_indexer_rollback_total",
			Help: "Total number of processed /rollback requests, partitioned by outcome.",
		}, []string{"outcome"}),
		gateTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "utxo_indexer_gate_timeouts_total",
			Help: "Total number of Serialization Gate acquires that timed out.",
		}),
	}
	reg.MustRegister(r.ingestTotal, r.rollbackTotal, r.gateTimeouts)
	return r
}

func outcomeLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// ObserveIngest records the outcome of one ProcessBlock call.
func (r *Recorder) ObserveIngest(ok bool) {
	r.ingestTotal.WithLabelValues(outcomeLabel(ok)).Inc()
}

// ObserveRollback records the outcome of one RollbackToHeight call.
func (r *Recorder) ObserveRollback(ok bool) {
	r.rollbackTotal.WithLabelValues(outcomeLabel(ok)).Inc()
}

// ObserveGateTimeout records a MutexTimeout from the Serialization Gate.
func (r *Recorder) ObserveGateTimeout() {
	r.gateTimeouts.Inc()
}
