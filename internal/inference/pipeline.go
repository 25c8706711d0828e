package inference

import (
	"errors"
	"fmt"

	"github.com/miradorstack/credit-risk/internal/models"
)

// ErrDimensionMismatch is returned when the transformer output does not match the
// feature count the classifier was trained on.
var ErrDimensionMismatch = errors.New("feature dimension mismatch")

// Transformer maps a raw record into the classifier's numeric feature space.
type Transformer interface {
	Transform(rec models.InputRecord) ([]float64, error)
	FeatureNames() []string
}

// Classifier maps a numeric feature vector to the positive-class probability.
type Classifier interface {
	PredictProba(x []float64) (float64, error)
	NumFeatures() int
}

// Pipeline composes the fitted preprocessing and classifier stages. It is
// immutable once built and safe for concurrent use.
type Pipeline struct {
	transformer Transformer
	classifier  Classifier
	version     string
}

// NewPipeline wires a transformer and classifier, checking their shapes agree.
func NewPipeline(transformer Transformer, classifier Classifier, version string) (*Pipeline, error) {
	if transformer == nil || classifier == nil {
		return nil, errors.New("pipeline requires both a transformer and a classifier")
	}
	if got, want := len(transformer.FeatureNames()), classifier.NumFeatures(); got != want {
		return nil, fmt.Errorf("%w: transformer emits %d features, classifier expects %d", ErrDimensionMismatch, got, want)
	}
	return &Pipeline{transformer: transformer, classifier: classifier, version: version}, nil
}

// Transformer returns the preprocessing stage.
func (p *Pipeline) Transformer() Transformer { return p.transformer }

// Classifier returns the classifier stage.
func (p *Pipeline) Classifier() Classifier { return p.classifier }

// Version reports the artifact version string the pipeline was loaded from.
func (p *Pipeline) Version() string { return p.version }

// PredictProba runs both stages on a single record.
func (p *Pipeline) PredictProba(rec models.InputRecord) (float64, error) {
	x, err := p.transformer.Transform(rec)
	if err != nil {
		return 0, fmt.Errorf("transform: %w", err)
	}
	prob, err := p.classifier.PredictProba(x)
	if err != nil {
		return 0, fmt.Errorf("classify: %w", err)
	}
	return prob, nil
}
