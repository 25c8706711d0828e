package engine

import (
	"errors"
	"fmt"

	"github.com/miradorstack/credit-risk/internal/inference"
	"github.com/miradorstack/credit-risk/internal/models"
)

// Tier boundaries on the positive-class probability. A probability equal to a
// boundary belongs to the lower tier.
const (
	HighRiskThreshold   = 0.6
	MediumRiskThreshold = 0.4
)

// TierFor maps a default probability to its risk tier.
func TierFor(p float64) models.RiskTier {
	switch {
	case p > HighRiskThreshold:
		return models.RiskHigh
	case p > MediumRiskThreshold:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// Score runs the full pipeline and returns the probability of the positive
// (default) class.
func Score(pipeline *inference.Pipeline, rec models.InputRecord) (float64, error) {
	if pipeline == nil {
		return 0, errors.New("score: pipeline not loaded")
	}
	p, err := pipeline.PredictProba(rec)
	if err != nil {
		return 0, fmt.Errorf("score: %w", err)
	}
	return p, nil
}
