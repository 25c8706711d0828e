package services

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/miradorstack/credit-risk/internal/api"
	"github.com/miradorstack/credit-risk/internal/artifact"
	"github.com/miradorstack/credit-risk/internal/config"
	"github.com/miradorstack/credit-risk/internal/engine"
	"github.com/miradorstack/credit-risk/internal/explain"
	"github.com/miradorstack/credit-risk/internal/features"
	riskv1 "github.com/miradorstack/credit-risk/internal/grpc/creditriskv1"
	"github.com/miradorstack/credit-risk/internal/inference"
	"github.com/miradorstack/credit-risk/internal/models"
)

type predictorStub struct {
	result models.PredictionResult
	err    error
	opts   engine.PredictOptions
}

func (p *predictorStub) Predict(ctx context.Context, raw features.RawInputs, opts engine.PredictOptions) (models.PredictionResult, error) {
	p.opts = opts
	return p.result, p.err
}

type pipelineSource struct{ pipeline *inference.Pipeline }

func (s pipelineSource) Load() (*inference.Pipeline, error) { return s.pipeline, nil }

func TestPredictInvalidCategory(t *testing.T) {
	service := NewScoringService(nil, &predictorStub{err: features.ErrInvalidCategory}, true)

	_, err := service.Predict(context.Background(), &riskv1.PredictRequest{Gender: "X"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestPredictNilRequest(t *testing.T) {
	service := NewScoringService(nil, &predictorStub{}, true)
	if _, err := service.Predict(context.Background(), nil); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestPredictHonoursExplainSwitch(t *testing.T) {
	stub := &predictorStub{result: models.PredictionResult{Tier: models.RiskLow}}
	service := NewScoringService(nil, stub, false)

	if _, err := service.Predict(context.Background(), &riskv1.PredictRequest{Explain: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.opts.Explain {
		t.Fatalf("explanation should be disabled by configuration")
	}
	if _, err := service.Explain(context.Background(), &riskv1.PredictRequest{}); status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected failed precondition, got %v", err)
	}
}

func TestExplainFailsLoudlyWithoutAttribution(t *testing.T) {
	stub := &predictorStub{result: models.PredictionResult{
		Tier:             models.RiskMedium,
		ExplanationError: "classifier does not support tree attribution",
	}}
	service := NewScoringService(nil, stub, true)

	_, err := service.Explain(context.Background(), &riskv1.PredictRequest{})
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected failed precondition, got %v", err)
	}
}

func TestGRPCRoundTrip(t *testing.T) {
	pipeline, err := artifact.ReadFile("../../models/credit_risk_model.json")
	if err != nil {
		t.Fatalf("load artifact: %v", err)
	}
	predictor := engine.NewPredictor(nil, pipelineSource{pipeline: pipeline}, explain.NewExplainer(explain.WithRegistry(explain.NewRegistry())), nil)

	server, err := api.NewServer(config.ServerConfig{GRPCAddress: "127.0.0.1:0", GracefulTimeout: time.Second}, NewScoringService(nil, predictor, true))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	go func() { _ = server.Start() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(ctx)
	})

	conn, err := grpc.NewClient(server.Address(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: riskv1.ServiceName})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	if health.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %v", health.GetStatus())
	}

	client := riskv1.NewCreditRiskClient(conn)
	low, amount := 0.1, int64(2000000)
	resp, err := client.Explain(ctx, &riskv1.PredictRequest{
		ExtSource1: &low,
		ExtSource2: &low,
		ExtSource3: &low,
		AmtCredit:  &amount,
	})
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if resp.Tier != string(models.RiskHigh) {
		t.Fatalf("expected high tier, got %s (p=%v)", resp.Tier, resp.Probability)
	}
	if resp.ScoredAt == nil || resp.PredictionId == "" {
		t.Fatalf("expected id and timestamp, got %+v", resp)
	}
	if len(resp.Explanation.Contributions) != explain.DefaultMaxDisplay {
		t.Fatalf("expected %d contributions, got %d", explain.DefaultMaxDisplay, len(resp.Explanation.Contributions))
	}

	_, err = client.Predict(ctx, &riskv1.PredictRequest{IncomeType: "Unemployed"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected invalid argument over the wire, got %v", err)
	}

	schema, err := client.Schema(ctx, &riskv1.SchemaRequest{})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if len(schema.Columns) != len(models.Schema) {
		t.Fatalf("expected %d columns, got %d", len(models.Schema), len(schema.Columns))
	}
}
