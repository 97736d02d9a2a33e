package derivative

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_derivatives_generated_total",
		Help: "Derivatives produced and merged onto their document.",
	}, []string{"kind"})

	skippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_derivatives_skipped_total",
		Help: "Finalize events short-circuited before any work.",
	}, []string{"kind", "reason"})

	failedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_derivatives_failed_total",
		Help: "Trigger invocations that ended in a <kind>Error merge.",
	}, []string{"kind"})
)
