package inference

import (
	"errors"
	"fmt"
	"math"

	"github.com/miradorstack/credit-risk/internal/models"
)

// NumericScaler standardises one numeric column with fitted mean and scale.
type NumericScaler struct {
	Column string
	Mean   float64
	Scale  float64
}

// OneHot expands one categorical column over its fitted categories.
// Values outside Categories encode as all zeros.
type OneHot struct {
	Column     string
	Categories []string
}

// ColumnTransformer applies the numeric block, then the categorical block.
type ColumnTransformer struct {
	numeric     []NumericScaler
	categorical []OneHot
	positions   map[string]int
	names       []string
}

// NewColumnTransformer validates fitted parameters against the record schema.
func NewColumnTransformer(numeric []NumericScaler, categorical []OneHot) (*ColumnTransformer, error) {
	positions := make(map[string]int, len(models.Schema))
	for i, col := range models.Schema {
		positions[col] = i
	}
	sample := models.DefaultRecord().Values()

	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, n := range numeric {
		idx, ok := positions[n.Column]
		if !ok {
			return nil, fmt.Errorf("numeric column %q not in schema", n.Column)
		}
		if _, isNum := sample[idx].(float64); !isNum {
			return nil, fmt.Errorf("column %q is not numeric", n.Column)
		}
		if n.Scale == 0 || math.IsNaN(n.Scale) || math.IsNaN(n.Mean) {
			return nil, fmt.Errorf("column %q has invalid scaler parameters", n.Column)
		}
		if _, dup := seen[n.Column]; dup {
			return nil, fmt.Errorf("column %q configured twice", n.Column)
		}
		seen[n.Column] = struct{}{}
		names = append(names, "num__"+n.Column)
	}
	for _, c := range categorical {
		idx, ok := positions[c.Column]
		if !ok {
			return nil, fmt.Errorf("categorical column %q not in schema", c.Column)
		}
		if _, isStr := sample[idx].(string); !isStr {
			return nil, fmt.Errorf("column %q is not categorical", c.Column)
		}
		if len(c.Categories) == 0 {
			return nil, fmt.Errorf("column %q has no categories", c.Column)
		}
		if _, dup := seen[c.Column]; dup {
			return nil, fmt.Errorf("column %q configured twice", c.Column)
		}
		seen[c.Column] = struct{}{}
		for _, cat := range c.Categories {
			names = append(names, fmt.Sprintf("cat__%s_%s", c.Column, cat))
		}
	}
	if len(names) == 0 {
		return nil, errors.New("column transformer has no columns")
	}

	return &ColumnTransformer{
		numeric:     append([]NumericScaler(nil), numeric...),
		categorical: append([]OneHot(nil), categorical...),
		positions:   positions,
		names:       names,
	}, nil
}

// FeatureNames returns the transformed feature labels in output order.
func (t *ColumnTransformer) FeatureNames() []string {
	return append([]string(nil), t.names...)
}

// Transform maps a record into the numeric feature space.
func (t *ColumnTransformer) Transform(rec models.InputRecord) ([]float64, error) {
	values := rec.Values()
	out := make([]float64, 0, len(t.names))

	for _, n := range t.numeric {
		v, ok := values[t.positions[n.Column]].(float64)
		if !ok {
			return nil, fmt.Errorf("column %q: expected number", n.Column)
		}
		out = append(out, (v-n.Mean)/n.Scale)
	}
	for _, c := range t.categorical {
		v, ok := values[t.positions[c.Column]].(string)
		if !ok {
			return nil, fmt.Errorf("column %q: expected string", c.Column)
		}
		for _, cat := range c.Categories {
			if v == cat {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}
	return out, nil
}
