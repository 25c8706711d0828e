package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels successful predictions.
	OutcomeSuccess = "success"
	// OutcomeError labels failed predictions (bad input or pipeline failure).
	OutcomeError = "error"
)

var (
	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "credit_risk",
			Name:      "predictions_total",
			Help:      "Total number of predictions handled, partitioned by outcome and risk tier.",
		},
		[]string{"outcome", "tier"},
	)

	predictionDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "credit_risk",
			Name:      "prediction_seconds",
			Help:      "Prediction latency in seconds, explanation included.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	explanationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "credit_risk",
			Name:      "explanation_failures_total",
			Help:      "Explanations that failed while the prediction itself succeeded.",
		},
	)

	artifactLoadSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "credit_risk",
			Name:      "artifact_load_seconds",
			Help:      "Time spent deserializing the model artifact at startup.",
		},
	)
)

// Register attaches credit-risk collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		predictionsTotal,
		predictionDurationSeconds,
		explanationFailuresTotal,
		artifactLoadSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObservePrediction records a prediction duration, outcome and tier label.
func ObservePrediction(duration time.Duration, outcome, tier string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	if tier == "" {
		tier = "none"
	}
	predictionsTotal.WithLabelValues(label, tier).Inc()
	if duration < 0 {
		duration = 0
	}
	predictionDurationSeconds.Observe(duration.Seconds())
}

// IncExplanationFailure counts an explanation that degraded to an error notice.
func IncExplanationFailure() {
	explanationFailuresTotal.Inc()
}

// ObserveArtifactLoad records how long the artifact took to load.
func ObserveArtifactLoad(duration time.Duration) {
	artifactLoadSeconds.Set(duration.Seconds())
}
