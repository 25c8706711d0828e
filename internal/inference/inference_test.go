package inference

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miradorstack/credit-risk/internal/models"
)

func testTransformer(t *testing.T) *ColumnTransformer {
	t.Helper()
	tr, err := NewColumnTransformer(
		[]NumericScaler{
			{Column: models.ColExtSource1, Mean: 0.5, Scale: 0.2},
			{Column: models.ColAmtCredit, Mean: 600000, Scale: 400000},
		},
		[]OneHot{
			{Column: models.ColGender, Categories: []string{"F", "M"}},
		},
	)
	require.NoError(t, err)
	return tr
}

func stump(feature int, threshold, left, right float64) Tree {
	return Tree{Nodes: []Node{
		{Left: 1, Right: 2, Missing: 1, Feature: feature, Threshold: threshold, Cover: 10},
		{Left: -1, Leaf: left, Cover: 4},
		{Left: -1, Leaf: right, Cover: 6},
	}}
}

func TestColumnTransformerTransform(t *testing.T) {
	tr := testTransformer(t)
	assert.Equal(t, []string{
		"num__EXT_SOURCE_1",
		"num__AMT_CREDIT",
		"cat__CODE_GENDER_F",
		"cat__CODE_GENDER_M",
	}, tr.FeatureNames())

	rec := models.DefaultRecord()
	rec.ExtSource1 = 0.7
	rec.AmtCredit = 1000000
	rec.Gender = models.GenderFemale

	x, err := tr.Transform(rec)
	require.NoError(t, err)
	require.Len(t, x, 4)
	assert.InDelta(t, 1.0, x[0], 1e-12)
	assert.InDelta(t, 1.0, x[1], 1e-12)
	assert.Equal(t, []float64{1, 0}, x[2:])
}

func TestColumnTransformerUnknownCategoryEncodesZeros(t *testing.T) {
	tr := testTransformer(t)
	rec := models.DefaultRecord()
	rec.Gender = "XNA"
	x, err := tr.Transform(rec)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, x[2:])
}

func TestColumnTransformerValidation(t *testing.T) {
	_, err := NewColumnTransformer([]NumericScaler{{Column: "DAYS_BIRTH", Scale: 1}}, nil)
	assert.Error(t, err)

	_, err = NewColumnTransformer([]NumericScaler{{Column: models.ColGender, Scale: 1}}, nil)
	assert.Error(t, err)

	_, err = NewColumnTransformer([]NumericScaler{{Column: models.ColExtSource1, Scale: 0}}, nil)
	assert.Error(t, err)

	_, err = NewColumnTransformer(nil, []OneHot{{Column: models.ColAmtCredit, Categories: []string{"x"}}})
	assert.Error(t, err)

	_, err = NewColumnTransformer(nil, nil)
	assert.Error(t, err)
}

func TestTreeEnsembleMargin(t *testing.T) {
	ens, err := NewTreeEnsemble([]Tree{stump(0, 0, -1, 1), stump(1, 0.5, 0.25, 0.75)}, 0.5, 2)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ens.BaseMargin())

	m, err := ens.Margin([]float64{-3, 0.7})
	require.NoError(t, err)
	assert.InDelta(t, -0.25, m, 1e-12)

	p, err := ens.PredictProba([]float64{-3, 0.7})
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(0.25)), p, 1e-12)

	m, err = ens.Margin([]float64{math.NaN(), 0.7})
	require.NoError(t, err)
	assert.InDelta(t, -0.25, m, 1e-12, "NaN follows the missing branch")

	_, err = ens.Margin([]float64{1})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestTreeEnsembleValidation(t *testing.T) {
	_, err := NewTreeEnsemble(nil, 0.5, 1)
	assert.Error(t, err)

	_, err = NewTreeEnsemble([]Tree{stump(0, 0, 1, 2)}, 1.0, 1)
	assert.Error(t, err)

	_, err = NewTreeEnsemble([]Tree{stump(3, 0, 1, 2)}, 0.5, 2)
	assert.Error(t, err, "feature out of range")

	cyclic := Tree{Nodes: []Node{{Left: 0, Right: 1, Missing: 0}, {Left: -1}}}
	_, err = NewTreeEnsemble([]Tree{cyclic}, 0.5, 1)
	assert.Error(t, err)

	badMissing := stump(0, 0, 1, 2)
	badMissing.Nodes[0].Missing = 5
	_, err = NewTreeEnsemble([]Tree{badMissing}, 0.5, 1)
	assert.Error(t, err)
}

func TestTreeMaxDepth(t *testing.T) {
	assert.Equal(t, 1, stump(0, 0, 1, 2).MaxDepth())
	assert.Equal(t, 0, Tree{Nodes: []Node{{Left: -1, Leaf: 3}}}.MaxDepth())
}

func TestPipelinePredictProbaDeterministic(t *testing.T) {
	tr := testTransformer(t)
	ens, err := NewTreeEnsemble([]Tree{stump(0, 0, 0.4, -0.4), stump(3, 0.5, -0.2, 0.3)}, 0.3, 4)
	require.NoError(t, err)

	p, err := NewPipeline(tr, ens, "test")
	require.NoError(t, err)
	assert.Equal(t, "test", p.Version())

	rec := models.DefaultRecord()
	first, err := p.PredictProba(rec)
	require.NoError(t, err)
	second, err := p.PredictProba(rec)
	require.NoError(t, err)
	assert.Equal(t, math.Float64bits(first), math.Float64bits(second))
	assert.True(t, first > 0 && first < 1)
}

func TestPipelineDimensionMismatch(t *testing.T) {
	ens, err := NewTreeEnsemble([]Tree{stump(0, 0, 1, 2)}, 0.5, 3)
	require.NoError(t, err)
	_, err = NewPipeline(testTransformer(t), ens, "")
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestLogisticRegression(t *testing.T) {
	lr, err := NewLogisticRegression([]float64{1, -1, 0, 2}, 0.5)
	require.NoError(t, err)
	p, err := lr.PredictProba([]float64{1, 1, 9, 0})
	require.NoError(t, err)
	assert.InDelta(t, Sigmoid(0.5), p, 1e-12)

	_, err = lr.PredictProba([]float64{1})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
