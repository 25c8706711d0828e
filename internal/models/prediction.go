package models

import "time"

// RiskTier is the coarse bucketing of a default probability.
type RiskTier string

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

// Label returns the human-facing banner text for the tier.
func (t RiskTier) Label() string {
	switch t {
	case RiskHigh:
		return "High Risk Customer"
	case RiskMedium:
		return "Medium Risk Customer"
	case RiskLow:
		return "Low Risk Customer"
	default:
		return "Unknown Risk"
	}
}

// PredictionResult summarises one scored request.
type PredictionResult struct {
	PredictionID string
	Record       InputRecord
	Probability  float64
	Tier         RiskTier
	Notes        []string
	ScoredAt     time.Time

	// Explanation is nil when not requested or when it failed; ExplanationError
	// carries the failure in the latter case.
	Explanation      *Explanation
	ExplanationError string
}

// Contribution pairs a transformed feature with its signed attribution.
type Contribution struct {
	Feature string
	Value   float64
	Data    float64
}

// Explanation is the local attribution of a single prediction on the margin scale.
type Explanation struct {
	Baseline      float64
	Output        float64
	FeatureNames  []string
	Values        []float64
	Data          []float64
	Top           []Contribution
	OtherSum      float64
	OtherFeatures int
}
