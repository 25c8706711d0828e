package explain

import (
	"fmt"
	"math"
	"sync"

	"github.com/miradorstack/credit-risk/internal/inference"
)

// coverTolerance is the relative slack allowed when child covers are summed
// against their parent; fitted covers are stored as float32 upstream.
const coverTolerance = 1e-4

// TreeExplainer computes per-feature attributions for one fitted ensemble.
// It holds no mutable state and is safe for concurrent use.
type TreeExplainer struct {
	ensemble *inference.TreeEnsemble
	expected float64
}

// NewTreeExplainer validates the ensemble's cover statistics and precomputes
// the baseline.
func NewTreeExplainer(ens *inference.TreeEnsemble) (*TreeExplainer, error) {
	if ens == nil {
		return nil, fmt.Errorf("%w: nil ensemble", ErrUnsupportedClassifier)
	}
	expected := ens.BaseMargin()
	for ti, tree := range ens.Trees() {
		if err := validateCovers(tree); err != nil {
			return nil, fmt.Errorf("%w: tree %d: %v", ErrIncompatibleModel, ti, err)
		}
		expected += expectedValue(tree, 0)
	}
	return &TreeExplainer{ensemble: ens, expected: expected}, nil
}

func validateCovers(tree inference.Tree) error {
	for i, n := range tree.Nodes {
		if !(n.Cover > 0) || math.IsInf(n.Cover, 0) {
			return fmt.Errorf("node %d has cover %v", i, n.Cover)
		}
		if n.IsLeaf() {
			continue
		}
		sum := tree.Nodes[n.Left].Cover + tree.Nodes[n.Right].Cover
		if math.Abs(sum-n.Cover) > coverTolerance*n.Cover {
			return fmt.Errorf("node %d cover %v does not match children sum %v", i, n.Cover, sum)
		}
	}
	return nil
}

// ExpectedValue is the model's mean margin over the training distribution.
func (e *TreeExplainer) ExpectedValue() float64 { return e.expected }

// ShapValues returns one margin-scale attribution per feature of x.
func (e *TreeExplainer) ShapValues(x []float64) ([]float64, error) {
	if len(x) != e.ensemble.NumFeatures() {
		return nil, fmt.Errorf("%w: got %d features, want %d", inference.ErrDimensionMismatch, len(x), e.ensemble.NumFeatures())
	}
	phi := make([]float64, len(x))
	for _, tree := range e.ensemble.Trees() {
		treeShap(tree, x, phi)
	}
	return phi, nil
}

type registryEntry struct {
	once      sync.Once
	explainer *TreeExplainer
	err       error
}

// Registry caches one TreeExplainer per ensemble instance. Construction runs at
// most once per instance, including under concurrent first use.
type Registry struct {
	mu      sync.Mutex
	entries map[*inference.TreeEnsemble]*registryEntry
	builds  int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[*inference.TreeEnsemble]*registryEntry)}
}

// DefaultRegistry is shared by every Explainer that is not given its own.
var DefaultRegistry = NewRegistry()

// For returns the cached explainer for ens, building it on first request.
func (r *Registry) For(ens *inference.TreeEnsemble) (*TreeExplainer, error) {
	r.mu.Lock()
	entry, ok := r.entries[ens]
	if !ok {
		entry = &registryEntry{}
		r.entries[ens] = entry
	}
	r.mu.Unlock()

	entry.once.Do(func() {
		r.mu.Lock()
		r.builds++
		r.mu.Unlock()
		entry.explainer, entry.err = NewTreeExplainer(ens)
	})
	return entry.explainer, entry.err
}

// Builds reports how many explainers have been constructed.
func (r *Registry) Builds() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.builds
}
