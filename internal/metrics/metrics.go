// Copyright 2025 Certen Protocol
//
// Prometheus metrics for the ledger core. Grounded on the teacher's use of
// github.com/prometheus/client_golang across its batch/consensus packages:
// package-level collectors registered against a shared registry, labels kept
// to a small bounded cardinality (tier, type) rather than per-artifact-id.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors bundles every metric the ledger core emits. A zero Collectors
// is unusable; construct with NewCollectors.
type Collectors struct {
	BlocksMined          prometheus.Counter
	MiningDuration       prometheus.Histogram
	ArtifactsSubmitted   *prometheus.CounterVec // labels: tier, type
	ContradictionsFound  *prometheus.CounterVec // labels: severity
	ConsentDecisions     *prometheus.CounterVec // labels: decision
	ResolutionFailures   *prometheus.CounterVec // labels: reason
}

// NewCollectors builds the metric set and registers it against reg.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		BlocksMined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evidence_ledger",
			Name:      "blocks_mined_total",
			Help:      "Total number of blocks successfully sealed.",
		}),
		MiningDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "evidence_ledger",
			Name:      "mining_duration_seconds",
			Help:      "Time spent mining a block to completion.",
			Buckets:   prometheus.DefBuckets,
		}),
		ArtifactsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evidence_ledger",
			Name:      "artifacts_submitted_total",
			Help:      "Total artifacts submitted, by tier and type.",
		}, []string{"tier", "type"}),
		ContradictionsFound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evidence_ledger",
			Name:      "contradictions_found_total",
			Help:      "Total contradictions detected, by severity.",
		}, []string{"severity"}),
		ConsentDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evidence_ledger",
			Name:      "consent_decisions_total",
			Help:      "Total consent-gate decisions, by outcome.",
		}, []string{"decision"}),
		ResolutionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evidence_ledger",
			Name:      "resolution_failures_total",
			Help:      "Total dependency-resolution failures, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		c.BlocksMined,
		c.MiningDuration,
		c.ArtifactsSubmitted,
		c.ContradictionsFound,
		c.ConsentDecisions,
		c.ResolutionFailures,
	)
	return c
}

// NewNoop returns a Collectors registered against a private registry, for
// callers (tests, CLI one-shots) that want the instrumentation calls to be
// safe no-ops without wiring a real exporter.
func NewNoop() *Collectors {
	return NewCollectors(prometheus.NewRegistry())
}
