package engine

import (
	"testing"

	"github.com/miradorstack/credit-risk/internal/artifact"
	"github.com/miradorstack/credit-risk/internal/inference"
	"github.com/miradorstack/credit-risk/internal/models"
)

const shippedArtifact = "../../models/credit_risk_model.json"

func loadShipped(t *testing.T) *inference.Pipeline {
	t.Helper()
	pipeline, err := artifact.ReadFile(shippedArtifact)
	if err != nil {
		t.Fatalf("load artifact: %v", err)
	}
	return pipeline
}

func TestTierForBoundaries(t *testing.T) {
	cases := []struct {
		p    float64
		want models.RiskTier
	}{
		{0, models.RiskLow},
		{0.39, models.RiskLow},
		{0.4, models.RiskLow},
		{0.41, models.RiskMedium},
		{0.5, models.RiskMedium},
		{0.6, models.RiskMedium},
		{0.61, models.RiskHigh},
		{1, models.RiskHigh},
	}
	for _, tc := range cases {
		if got := TierFor(tc.p); got != tc.want {
			t.Errorf("TierFor(%v) = %s, want %s", tc.p, got, tc.want)
		}
	}
}

func TestScoreScenarios(t *testing.T) {
	pipeline := loadShipped(t)

	high := models.InputRecord{
		ExtSource1: 0.1, ExtSource2: 0.1, ExtSource3: 0.1,
		AmtCredit:     2000000,
		IncomeType:    models.IncomeWorking,
		EducationType: models.EducationSecondary,
		Gender:        models.GenderMale,
	}
	low := models.InputRecord{
		ExtSource1: 0.9, ExtSource2: 0.9, ExtSource3: 0.9,
		AmtCredit:     10000,
		IncomeType:    models.IncomeStateServant,
		EducationType: models.EducationHigher,
		Gender:        models.GenderFemale,
	}

	cases := []struct {
		name string
		rec  models.InputRecord
		want models.RiskTier
	}{
		{"weak scores and maximum amount", high, models.RiskHigh},
		{"strong scores and minimum amount", low, models.RiskLow},
		{"form defaults", models.DefaultRecord(), models.RiskMedium},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Score(pipeline, tc.rec)
			if err != nil {
				t.Fatalf("score: %v", err)
			}
			if p < 0 || p > 1 {
				t.Fatalf("probability %v outside [0,1]", p)
			}
			if got := TierFor(p); got != tc.want {
				t.Fatalf("tier = %s (p=%v), want %s", got, p, tc.want)
			}
		})
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	pipeline := loadShipped(t)
	rec := models.DefaultRecord()

	first, err := Score(pipeline, rec)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Score(pipeline, rec)
		if err != nil {
			t.Fatalf("score: %v", err)
		}
		if again != first {
			t.Fatalf("score changed between calls: %v vs %v", first, again)
		}
	}
}

func TestScoreWithoutPipeline(t *testing.T) {
	if _, err := Score(nil, models.DefaultRecord()); err == nil {
		t.Fatalf("expected error for nil pipeline")
	}
}
