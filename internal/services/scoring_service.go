package services

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/miradorstack/credit-risk/internal/api"
	"github.com/miradorstack/credit-risk/internal/engine"
	"github.com/miradorstack/credit-risk/internal/features"
	riskv1 "github.com/miradorstack/credit-risk/internal/grpc/creditriskv1"
)

// ScoringService implements the gRPC CreditRisk service.
type ScoringService struct {
	riskv1.UnimplementedCreditRiskServer

	logger         *slog.Logger
	predictor      api.Predictor
	explainEnabled bool
}

// NewScoringService constructs the scoring service facade.
func NewScoringService(logger *slog.Logger, predictor api.Predictor, explainEnabled bool) *ScoringService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScoringService{
		logger:         logger,
		predictor:      predictor,
		explainEnabled: explainEnabled,
	}
}

// Predict scores one applicant; an explanation is attached when requested.
func (s *ScoringService) Predict(ctx context.Context, req *riskv1.PredictRequest) (*riskv1.PredictResponse, error) {
	return s.predict(ctx, req, req.GetExplain() && s.explainEnabled)
}

// Explain scores one applicant and requires the attribution to succeed.
func (s *ScoringService) Explain(ctx context.Context, req *riskv1.PredictRequest) (*riskv1.PredictResponse, error) {
	if !s.explainEnabled {
		return nil, status.Error(codes.FailedPrecondition, "explanations are disabled")
	}
	resp, err := s.predict(ctx, req, true)
	if err != nil {
		return nil, err
	}
	if resp.GetExplanation() == nil {
		return nil, status.Errorf(codes.FailedPrecondition, "explanation failed: %s", resp.ExplanationError)
	}
	return resp, nil
}

// Schema describes the accepted inputs.
func (s *ScoringService) Schema(ctx context.Context, req *riskv1.SchemaRequest) (*riskv1.SchemaResponse, error) {
	return api.SchemaResponse(), nil
}

func (s *ScoringService) predict(ctx context.Context, req *riskv1.PredictRequest, withExplanation bool) (*riskv1.PredictResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	if s.predictor == nil {
		return nil, status.Error(codes.FailedPrecondition, "predictor not configured")
	}

	raw, err := api.FromProtoPredictRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := s.predictor.Predict(ctx, raw, engine.PredictOptions{Explain: withExplanation})
	if err != nil {
		return nil, toStatus(s.logger, err)
	}
	return api.ToProtoPredictResponse(result), nil
}

func toStatus(logger *slog.Logger, err error) error {
	switch {
	case errors.Is(err, features.ErrInvalidCategory), errors.Is(err, features.ErrInvalidNumber):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		logger.Error("prediction failed", slog.Any("error", err))
		return status.Error(codes.Internal, "prediction failed")
	}
}
