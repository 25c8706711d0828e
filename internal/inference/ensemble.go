package inference

import (
	"errors"
	"fmt"
	"math"
)

// Node is one entry of a flattened regression tree. Leaves have Left < 0.
type Node struct {
	Left      int
	Right     int
	Missing   int
	Feature   int
	Threshold float64
	Leaf      float64
	Cover     float64
}

// IsLeaf reports whether the node terminates a path.
func (n Node) IsLeaf() bool { return n.Left < 0 }

// Tree is a single regression tree; node 0 is the root.
type Tree struct {
	Nodes []Node
}

// Next returns the child index x follows at an internal node. NaN takes the
// missing branch; otherwise x < threshold goes left.
func (t Tree) Next(n Node, x []float64) int {
	v := x[n.Feature]
	switch {
	case math.IsNaN(v):
		return n.Missing
	case v < n.Threshold:
		return n.Left
	default:
		return n.Right
	}
}

// Predict returns the leaf value x lands on.
func (t Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return n.Leaf
		}
		i = t.Next(n, x)
	}
}

// MaxDepth returns the number of edges on the longest root-to-leaf path.
func (t Tree) MaxDepth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

// TreeEnsemble is a gradient-boosted tree classifier with a logistic link.
type TreeEnsemble struct {
	trees       []Tree
	baseMargin  float64
	numFeatures int
}

// NewTreeEnsemble validates tree structure and converts base_score into a margin.
func NewTreeEnsemble(trees []Tree, baseScore float64, numFeatures int) (*TreeEnsemble, error) {
	if len(trees) == 0 {
		return nil, errors.New("ensemble has no trees")
	}
	if !(baseScore > 0 && baseScore < 1) {
		return nil, fmt.Errorf("base_score %v outside (0,1)", baseScore)
	}
	if numFeatures <= 0 {
		return nil, errors.New("ensemble needs a positive feature count")
	}
	for ti, tree := range trees {
		if err := validateTree(tree, numFeatures); err != nil {
			return nil, fmt.Errorf("tree %d: %w", ti, err)
		}
	}
	copied := make([]Tree, len(trees))
	for i, tree := range trees {
		copied[i] = Tree{Nodes: append([]Node(nil), tree.Nodes...)}
	}
	return &TreeEnsemble{
		trees:       copied,
		baseMargin:  math.Log(baseScore / (1 - baseScore)),
		numFeatures: numFeatures,
	}, nil
}

// Children are required to have larger indices than their parent, which rules
// out cycles and shared subtrees.
func validateTree(tree Tree, numFeatures int) error {
	if len(tree.Nodes) == 0 {
		return errors.New("empty tree")
	}
	for i, n := range tree.Nodes {
		if n.IsLeaf() {
			continue
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(tree.Nodes) || n.Right >= len(tree.Nodes) || n.Left == n.Right {
			return fmt.Errorf("node %d has invalid children (%d, %d)", i, n.Left, n.Right)
		}
		if n.Missing != n.Left && n.Missing != n.Right {
			return fmt.Errorf("node %d missing branch %d is not a child", i, n.Missing)
		}
		if n.Feature < 0 || n.Feature >= numFeatures {
			return fmt.Errorf("node %d splits on feature %d outside [0,%d)", i, n.Feature, numFeatures)
		}
		if math.IsNaN(n.Threshold) {
			return fmt.Errorf("node %d has NaN threshold", i)
		}
	}
	return nil
}

// Trees exposes the fitted trees. Callers must not mutate them.
func (e *TreeEnsemble) Trees() []Tree { return e.trees }

// BaseMargin is the log-odds of base_score.
func (e *TreeEnsemble) BaseMargin() float64 { return e.baseMargin }

// NumFeatures returns the expected feature vector length.
func (e *TreeEnsemble) NumFeatures() int { return e.numFeatures }

// Margin returns the raw log-odds output for x.
func (e *TreeEnsemble) Margin(x []float64) (float64, error) {
	if len(x) != e.numFeatures {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrDimensionMismatch, len(x), e.numFeatures)
	}
	m := e.baseMargin
	for _, t := range e.trees {
		m += t.Predict(x)
	}
	return m, nil
}

// PredictProba returns the positive-class probability for x.
func (e *TreeEnsemble) PredictProba(x []float64) (float64, error) {
	m, err := e.Margin(x)
	if err != nil {
		return 0, err
	}
	return Sigmoid(m), nil
}

// Sigmoid is the logistic link.
func Sigmoid(m float64) float64 {
	return 1 / (1 + math.Exp(-m))
}
