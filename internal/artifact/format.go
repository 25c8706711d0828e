package artifact

import (
	"errors"
	"fmt"
	"slices"

	"github.com/miradorstack/credit-risk/internal/inference"
	"github.com/miradorstack/credit-risk/internal/models"
)

const (
	// FormatName identifies pipeline artifacts written by the training job.
	FormatName = "credit-risk-pipeline"
	// FormatVersion is the only artifact layout this reader understands.
	FormatVersion = 1

	classifierGBTree = "gbtree"
	classifierLinear = "linear"
	objectiveLogit   = "binary:logistic"
)

// ErrIncompatible marks an artifact whose layout does not match this reader.
var ErrIncompatible = errors.New("incompatible artifact")

// Document is the on-disk JSON layout of a fitted pipeline.
type Document struct {
	Format       string           `json:"format"`
	Version      int              `json:"version"`
	ModelID      string           `json:"model_id"`
	InputColumns []string         `json:"input_columns"`
	Preprocessor PreprocessorSpec `json:"preprocessor"`
	Classifier   ClassifierSpec   `json:"classifier"`
}

// PreprocessorSpec holds the fitted column-transformer parameters.
type PreprocessorSpec struct {
	Numeric     []NumericSpec     `json:"numeric"`
	Categorical []CategoricalSpec `json:"categorical"`
}

// NumericSpec is one standard-scaled column.
type NumericSpec struct {
	Column string  `json:"column"`
	Mean   float64 `json:"mean"`
	Scale  float64 `json:"scale"`
}

// CategoricalSpec is one one-hot encoded column.
type CategoricalSpec struct {
	Column     string   `json:"column"`
	Categories []string `json:"categories"`
}

// ClassifierSpec describes the classifier stage. Trees is used by gbtree,
// Coef/Intercept by linear.
type ClassifierSpec struct {
	Type        string     `json:"type"`
	Objective   string     `json:"objective"`
	BaseScore   float64    `json:"base_score"`
	NumFeatures int        `json:"num_features"`
	Trees       []TreeSpec `json:"trees,omitempty"`
	Coef        []float64  `json:"coef,omitempty"`
	Intercept   float64    `json:"intercept,omitempty"`
}

// TreeSpec is a flattened tree.
type TreeSpec struct {
	Nodes []NodeSpec `json:"nodes"`
}

// NodeSpec is one tree node. A node without children (or left == -1) is a leaf.
type NodeSpec struct {
	Left      *int    `json:"left,omitempty"`
	Right     *int    `json:"right,omitempty"`
	Missing   *int    `json:"missing,omitempty"`
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Leaf      float64 `json:"leaf,omitempty"`
	Cover     float64 `json:"cover"`
}

// Build converts a decoded document into an immutable pipeline.
func Build(doc Document) (*inference.Pipeline, error) {
	if doc.Format != FormatName {
		return nil, fmt.Errorf("%w: format %q, want %q", ErrIncompatible, doc.Format, FormatName)
	}
	if doc.Version != FormatVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrIncompatible, doc.Version, FormatVersion)
	}
	if !slices.Equal(doc.InputColumns, models.Schema) {
		return nil, fmt.Errorf("%w: input columns %v do not match schema %v", ErrIncompatible, doc.InputColumns, models.Schema)
	}

	numeric := make([]inference.NumericScaler, 0, len(doc.Preprocessor.Numeric))
	for _, n := range doc.Preprocessor.Numeric {
		numeric = append(numeric, inference.NumericScaler{Column: n.Column, Mean: n.Mean, Scale: n.Scale})
	}
	categorical := make([]inference.OneHot, 0, len(doc.Preprocessor.Categorical))
	for _, c := range doc.Preprocessor.Categorical {
		categorical = append(categorical, inference.OneHot{Column: c.Column, Categories: c.Categories})
	}
	transformer, err := inference.NewColumnTransformer(numeric, categorical)
	if err != nil {
		return nil, fmt.Errorf("%w: preprocessor: %v", ErrIncompatible, err)
	}

	classifier, err := buildClassifier(doc.Classifier)
	if err != nil {
		return nil, fmt.Errorf("%w: classifier: %v", ErrIncompatible, err)
	}

	version := fmt.Sprintf("%s/v%d", doc.ModelID, doc.Version)
	pipeline, err := inference.NewPipeline(transformer, classifier, version)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompatible, err)
	}
	return pipeline, nil
}

func buildClassifier(spec ClassifierSpec) (inference.Classifier, error) {
	if spec.Objective != objectiveLogit {
		return nil, fmt.Errorf("unsupported objective %q", spec.Objective)
	}
	switch spec.Type {
	case classifierGBTree:
		trees := make([]inference.Tree, 0, len(spec.Trees))
		for _, ts := range spec.Trees {
			trees = append(trees, toTree(ts))
		}
		return inference.NewTreeEnsemble(trees, spec.BaseScore, spec.NumFeatures)
	case classifierLinear:
		if spec.NumFeatures != len(spec.Coef) {
			return nil, fmt.Errorf("num_features %d but %d coefficients", spec.NumFeatures, len(spec.Coef))
		}
		return inference.NewLogisticRegression(spec.Coef, spec.Intercept)
	default:
		return nil, fmt.Errorf("unsupported classifier type %q", spec.Type)
	}
}

func toTree(ts TreeSpec) inference.Tree {
	nodes := make([]inference.Node, 0, len(ts.Nodes))
	for _, ns := range ts.Nodes {
		n := inference.Node{
			Left:      -1,
			Right:     -1,
			Missing:   -1,
			Feature:   ns.Feature,
			Threshold: ns.Threshold,
			Leaf:      ns.Leaf,
			Cover:     ns.Cover,
		}
		if ns.Left != nil && *ns.Left >= 0 {
			n.Left = *ns.Left
			if ns.Right != nil {
				n.Right = *ns.Right
			}
			n.Missing = n.Left
			if ns.Missing != nil {
				n.Missing = *ns.Missing
			}
		}
		nodes = append(nodes, n)
	}
	return inference.Tree{Nodes: nodes}
}
