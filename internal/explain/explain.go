// Package explain attributes a single prediction of a tree-ensemble classifier
// to its transformed input features using path-dependent TreeSHAP.
package explain

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/miradorstack/credit-risk/internal/inference"
	"github.com/miradorstack/credit-risk/internal/models"
)

var (
	// ErrUnsupportedClassifier is returned when the pipeline's final stage is
	// not a tree ensemble.
	ErrUnsupportedClassifier = errors.New("classifier does not support tree attribution")
	// ErrIncompatibleModel is returned when tree statistics needed for
	// attribution are missing or inconsistent.
	ErrIncompatibleModel = errors.New("tree ensemble lacks usable cover statistics")
)

// DefaultMaxDisplay is how many contributions are shown individually.
const DefaultMaxDisplay = 7

// Explainer produces display-ready explanations for pipeline predictions.
type Explainer struct {
	registry   *Registry
	maxDisplay int
}

// Option configures an Explainer.
type Option func(*Explainer)

// WithRegistry replaces DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(e *Explainer) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithMaxDisplay sets how many top contributions are kept; values below one
// fall back to DefaultMaxDisplay.
func WithMaxDisplay(n int) Option {
	return func(e *Explainer) {
		if n > 0 {
			e.maxDisplay = n
		}
	}
}

// NewExplainer builds an explainer backed by DefaultRegistry unless overridden.
func NewExplainer(opts ...Option) *Explainer {
	e := &Explainer{registry: DefaultRegistry, maxDisplay: DefaultMaxDisplay}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxDisplay returns the configured display size.
func (e *Explainer) MaxDisplay() int { return e.maxDisplay }

// Explain computes the attribution of rec's prediction under pipeline.
func (e *Explainer) Explain(pipeline *inference.Pipeline, rec models.InputRecord) (models.Explanation, error) {
	if pipeline == nil {
		return models.Explanation{}, errors.New("explain: nil pipeline")
	}
	ens, ok := pipeline.Classifier().(*inference.TreeEnsemble)
	if !ok {
		return models.Explanation{}, fmt.Errorf("%w: %T", ErrUnsupportedClassifier, pipeline.Classifier())
	}

	x, err := pipeline.Transformer().Transform(rec)
	if err != nil {
		return models.Explanation{}, fmt.Errorf("explain: transform: %w", err)
	}

	engine, err := e.registry.For(ens)
	if err != nil {
		return models.Explanation{}, fmt.Errorf("explain: build engine: %w", err)
	}

	values, err := engine.ShapValues(x)
	if err != nil {
		return models.Explanation{}, fmt.Errorf("explain: %w", err)
	}
	margin, err := ens.Margin(x)
	if err != nil {
		return models.Explanation{}, fmt.Errorf("explain: %w", err)
	}

	names := pipeline.Transformer().FeatureNames()
	top, otherSum, otherCount := TopContributions(names, values, x, e.maxDisplay)
	return models.Explanation{
		Baseline:      engine.ExpectedValue(),
		Output:        margin,
		FeatureNames:  append([]string(nil), names...),
		Values:        values,
		Data:          x,
		Top:           top,
		OtherSum:      otherSum,
		OtherFeatures: otherCount,
	}, nil
}

// TopContributions returns the n contributions with the largest magnitude,
// ordered by descending |value|, plus the sum and count of the rest. Ties keep
// feature order.
func TopContributions(names []string, values, data []float64, n int) ([]models.Contribution, float64, int) {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return math.Abs(values[order[a]]) > math.Abs(values[order[b]])
	})

	n = min(max(n, 0), len(order))
	top := make([]models.Contribution, 0, n)
	for _, i := range order[:n] {
		c := models.Contribution{Feature: names[i], Value: values[i]}
		if i < len(data) {
			c.Data = data[i]
		}
		top = append(top, c)
	}

	rest := 0.0
	for _, i := range order[n:] {
		rest += values[i]
	}
	return top, rest, len(order) - n
}
