package artifact

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miradorstack/credit-risk/internal/inference"
	"github.com/miradorstack/credit-risk/internal/utils"
)

const shippedArtifact = "../../models/credit_risk_model.json"

func readShipped(t *testing.T) Document {
	t.Helper()
	data, err := os.ReadFile(shippedArtifact)
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func writeDoc(t *testing.T, doc Document) string {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestReadShippedArtifact(t *testing.T) {
	pipeline, err := ReadFile(shippedArtifact)
	require.NoError(t, err)
	assert.Equal(t, "credit_risk_model_small/v1", pipeline.Version())
	assert.Len(t, pipeline.Transformer().FeatureNames(), 12)

	ens, ok := pipeline.Classifier().(*inference.TreeEnsemble)
	require.True(t, ok)
	assert.Len(t, ens.Trees(), 4)
}

func TestLoaderReturnsIdenticalInstance(t *testing.T) {
	loader := NewLoader(writeDoc(t, readShipped(t)), nil)

	first, err := loader.Load()
	require.NoError(t, err)
	second, err := loader.Load()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoaderConcurrentFirstAccess(t *testing.T) {
	loader := NewLoader(writeDoc(t, readShipped(t)), nil)

	const workers = 16
	results := make([]*inference.Pipeline, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := loader.Load()
			assert.NoError(t, err)
			results[i] = p
		}(i)
	}
	wg.Wait()

	for _, p := range results[1:] {
		assert.Same(t, results[0], p)
	}
}

func TestSharedLoaderIsProcessWide(t *testing.T) {
	path := writeDoc(t, readShipped(t))

	assert.Same(t, Shared(path, nil), Shared(path, nil))

	first, err := Load(path)
	require.NoError(t, err)
	second, err := Load(filepath.Join(filepath.Dir(path), ".", filepath.Base(path)))
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoaderSecondReadDoesNotTouchDisk(t *testing.T) {
	path := writeDoc(t, readShipped(t))
	loader := NewLoader(path, nil)

	first, err := loader.Load()
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	second, err := loader.Load()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoadMissingArtifact(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "absent.json"), nil)
	_, err := loader.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "artifact.load", appErr.Op)
}

func TestLoadIncompatibleArtifacts(t *testing.T) {
	cases := map[string]func(*Document){
		"wrong format":  func(d *Document) { d.Format = "joblib" },
		"wrong version": func(d *Document) { d.Version = 2 },
		"reordered columns": func(d *Document) {
			d.InputColumns[0], d.InputColumns[1] = d.InputColumns[1], d.InputColumns[0]
		},
		"missing column":     func(d *Document) { d.InputColumns = d.InputColumns[:6] },
		"unknown classifier": func(d *Document) { d.Classifier.Type = "random_forest" },
		"wrong objective":    func(d *Document) { d.Classifier.Objective = "reg:squarederror" },
		"feature count":      func(d *Document) { d.Classifier.NumFeatures = 11 },
		"bad scaler":         func(d *Document) { d.Preprocessor.Numeric[0].Scale = 0 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			doc := readShipped(t)
			mutate(&doc)
			_, err := ReadFile(writeDoc(t, doc))
			assert.ErrorIs(t, err, ErrIncompatible)
		})
	}
}

func TestDecodeRejectsUnknownFieldsAndGarbage(t *testing.T) {
	_, err := Decode([]byte(`{"format":"credit-risk-pipeline","version":1,"pickle":"x"}`))
	assert.ErrorIs(t, err, ErrIncompatible)

	_, err = Decode([]byte("\x80\x04\x95"))
	assert.ErrorIs(t, err, ErrIncompatible)
}

func TestBuildLinearClassifier(t *testing.T) {
	doc := readShipped(t)
	doc.Classifier = ClassifierSpec{
		Type:        "linear",
		Objective:   "binary:logistic",
		NumFeatures: 12,
		Coef:        []float64{-0.5, -0.5, -0.5, 0.2, 0, 0, 0, 0.1, -0.2, 0.2, -0.1, 0.1},
		Intercept:   -0.3,
	}
	pipeline, err := Build(doc)
	require.NoError(t, err)
	_, isTree := pipeline.Classifier().(*inference.TreeEnsemble)
	assert.False(t, isTree)
}
