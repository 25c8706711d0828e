package inference

import (
	"errors"
	"fmt"
)

// LogisticRegression is a linear classifier over the transformed features.
type LogisticRegression struct {
	coef      []float64
	intercept float64
}

// NewLogisticRegression builds a linear classifier from fitted weights.
func NewLogisticRegression(coef []float64, intercept float64) (*LogisticRegression, error) {
	if len(coef) == 0 {
		return nil, errors.New("logistic regression has no coefficients")
	}
	return &LogisticRegression{coef: append([]float64(nil), coef...), intercept: intercept}, nil
}

// NumFeatures returns the coefficient count.
func (l *LogisticRegression) NumFeatures() int { return len(l.coef) }

// PredictProba returns the positive-class probability for x.
func (l *LogisticRegression) PredictProba(x []float64) (float64, error) {
	if len(x) != len(l.coef) {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrDimensionMismatch, len(x), len(l.coef))
	}
	z := l.intercept
	for i, w := range l.coef {
		z += w * x[i]
	}
	return Sigmoid(z), nil
}
