package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/miradorstack/credit-risk/internal/features"
	"github.com/miradorstack/credit-risk/internal/inference"
	"github.com/miradorstack/credit-risk/internal/metrics"
	"github.com/miradorstack/credit-risk/internal/models"
	"github.com/miradorstack/credit-risk/internal/utils"
)

// PipelineSource hands out the process-wide fitted pipeline.
type PipelineSource interface {
	Load() (*inference.Pipeline, error)
}

// Explainer attributes a prediction to transformed features.
type Explainer interface {
	Explain(pipeline *inference.Pipeline, rec models.InputRecord) (models.Explanation, error)
}

// PredictOptions controls per-request behaviour.
type PredictOptions struct {
	Explain bool
}

// Predictor handles one user interaction end to end: collect, score, tier,
// guidance and a best-effort explanation.
type Predictor struct {
	logger    *slog.Logger
	source    PipelineSource
	collector *features.Collector
	explainer Explainer
	rules     *RuleEngine
	latency   *utils.LatencyTracker
	now       func() time.Time
}

// NewPredictor constructs a predictor. A nil explainer disables explanations;
// a nil rule engine yields no notes.
func NewPredictor(logger *slog.Logger, source PipelineSource, explainer Explainer, rules *RuleEngine) *Predictor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Predictor{
		logger:    logger,
		source:    source,
		collector: features.NewCollector(),
		explainer: explainer,
		rules:     rules,
		latency:   utils.NewLatencyTracker(512),
		now:       time.Now,
	}
}

// Predict scores raw inputs. Invalid input and pipeline failures are returned
// as errors; explanation failures are reported on the result instead.
func (p *Predictor) Predict(ctx context.Context, raw features.RawInputs, opts PredictOptions) (models.PredictionResult, error) {
	start := time.Now()
	result, err := p.predict(ctx, raw, opts)
	elapsed := time.Since(start)
	p.latency.Observe(elapsed)

	if err != nil {
		metrics.ObservePrediction(elapsed, metrics.OutcomeError, "")
		return models.PredictionResult{}, err
	}
	metrics.ObservePrediction(elapsed, metrics.OutcomeSuccess, string(result.Tier))
	p.logger.Debug("prediction served",
		slog.String("prediction_id", result.PredictionID),
		slog.Float64("probability", result.Probability),
		slog.String("tier", string(result.Tier)),
		slog.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (p *Predictor) predict(ctx context.Context, raw features.RawInputs, opts PredictOptions) (models.PredictionResult, error) {
	if err := ctx.Err(); err != nil {
		return models.PredictionResult{}, err
	}
	if p.source == nil {
		return models.PredictionResult{}, errors.New("pipeline source not configured")
	}
	pipeline, err := p.source.Load()
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("load pipeline: %w", err)
	}

	rec, err := p.collector.Collect(raw)
	if err != nil {
		return models.PredictionResult{}, err
	}

	prob, err := Score(pipeline, rec)
	if err != nil {
		return models.PredictionResult{}, err
	}
	tier := TierFor(prob)

	result := models.PredictionResult{
		PredictionID: uuid.NewString(),
		Record:       rec,
		Probability:  prob,
		Tier:         tier,
		Notes:        p.rules.Notes(rec, prob, tier),
		ScoredAt:     p.now().UTC(),
	}

	if opts.Explain && p.explainer != nil {
		exp, err := p.explain(pipeline, rec)
		if err != nil {
			metrics.IncExplanationFailure()
			p.logger.Warn("explanation failed",
				slog.String("prediction_id", result.PredictionID),
				slog.Any("error", err),
			)
			result.ExplanationError = err.Error()
		} else {
			result.Explanation = &exp
		}
	}
	return result, nil
}

// explain converts a panic in the attribution path into an error so the
// prediction is still delivered.
func (p *Predictor) explain(pipeline *inference.Pipeline, rec models.InputRecord) (exp models.Explanation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("explanation panicked: %v", r)
		}
	}()
	return p.explainer.Explain(pipeline, rec)
}

// LatencyP95 reports the 95th percentile of recent prediction latencies.
func (p *Predictor) LatencyP95() time.Duration {
	return p.latency.Percentile(95)
}

// Served returns how many predictions are held in the latency window.
func (p *Predictor) Served() int {
	return p.latency.Count()
}
