package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RendersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "marblecutter",
		Subsystem: "render",
		Name:      "requests_total",
		Help:      "Total render requests processed",
	})

	RenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "marblecutter",
		Subsystem: "render",
		Name:      "duration_seconds",
		Help:      "Render request latency in seconds",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	SourceReadErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "marblecutter",
		Subsystem: "window",
		Name:      "source_read_errors_total",
		Help:      "Total failed primary raster reads",
	})

	MaskFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "marblecutter",
		Subsystem: "window",
		Name:      "mask_fallbacks_total",
		Help:      "Total reads that fell back to the nodata-derived mask because the companion mask was unavailable",
	})
)
