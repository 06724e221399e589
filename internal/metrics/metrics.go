package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Runs counts pipeline runs by terminal outcome.
var Runs = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "claimtrace",
	Name:      "pipeline_runs_total",
	Help:      "Pipeline runs by outcome.",
}, []string{"outcome"})

// StageDuration observes wall time per pipeline stage.
var StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "claimtrace",
	Name:      "pipeline_stage_seconds",
	Help:      "Duration of each pipeline stage.",
	Buckets:   prometheus.DefBuckets,
}, []string{"stage"})

// QuotaDenials counts requests denied at the quota gate. The usage/billing
// subsystem scrapes this alongside grants.
var QuotaDenials = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "claimtrace",
	Name:      "quota_denials_total",
	Help:      "Runs denied before extraction because the user budget was spent.",
})

// DegradedTraces counts runs whose origin trace fell back to Unknown.
var DegradedTraces = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "claimtrace",
	Name:      "degraded_traces_total",
	Help:      "Origin traces that returned the degraded Unknown result.",
})
