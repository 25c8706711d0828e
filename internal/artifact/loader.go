package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/miradorstack/credit-risk/internal/inference"
	"github.com/miradorstack/credit-risk/internal/metrics"
	"github.com/miradorstack/credit-risk/internal/utils"
)

// DefaultPath is where the serving process expects the fitted pipeline.
const DefaultPath = "models/credit_risk_model.json"

// Loader reads the artifact at most once and hands out the cached pipeline.
// A failed load is cached too; the process is expected to abort on it.
type Loader struct {
	path   string
	logger *slog.Logger

	once     sync.Once
	pipeline *inference.Pipeline
	err      error
}

// NewLoader creates a loader for path. An empty path selects DefaultPath.
func NewLoader(path string, logger *slog.Logger) *Loader {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{path: path, logger: logger}
}

// Path returns the artifact location.
func (l *Loader) Path() string { return l.path }

// Load deserializes the artifact on first call and returns the same instance afterwards.
func (l *Loader) Load() (*inference.Pipeline, error) {
	l.once.Do(func() {
		start := time.Now()
		l.pipeline, l.err = ReadFile(l.path)
		if l.err != nil {
			l.logger.Error("artifact load failed", slog.String("path", l.path), slog.Any("error", l.err))
			return
		}
		elapsed := time.Since(start)
		metrics.ObserveArtifactLoad(elapsed)
		l.logger.Info("artifact loaded",
			slog.String("path", l.path),
			slog.String("version", l.pipeline.Version()),
			slog.Duration("elapsed", elapsed),
		)
	})
	return l.pipeline, l.err
}

var (
	sharedMu      sync.Mutex
	sharedLoaders = make(map[string]*Loader)
)

// Shared returns the process-wide loader for path, creating it on first use.
func Shared(path string, logger *slog.Logger) *Loader {
	if path == "" {
		path = DefaultPath
	}
	key := filepath.Clean(path)

	sharedMu.Lock()
	defer sharedMu.Unlock()
	if l, ok := sharedLoaders[key]; ok {
		return l
	}
	l := NewLoader(key, logger)
	sharedLoaders[key] = l
	return l
}

// Load returns the process-wide pipeline for path.
func Load(path string) (*inference.Pipeline, error) {
	return Shared(path, nil).Load()
}

// ReadFile reads and builds a pipeline without caching.
func ReadFile(path string) (*inference.Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, utils.NewAppError("artifact.load", fmt.Sprintf("artifact %s not found", path), err)
		}
		return nil, utils.NewAppError("artifact.load", "read artifact", err)
	}
	pipeline, err := Decode(data)
	if err != nil {
		return nil, utils.NewAppError("artifact.load", fmt.Sprintf("decode %s", path), err)
	}
	return pipeline, nil
}

// Decode parses an artifact document. Unknown fields are a format mismatch.
func Decode(data []byte) (*inference.Pipeline, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompatible, err)
	}
	return Build(doc)
}
