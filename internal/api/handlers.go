package api

import (
	"fmt"
	"strconv"

	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/miradorstack/credit-risk/internal/features"
	riskv1 "github.com/miradorstack/credit-risk/internal/grpc/creditriskv1"
	"github.com/miradorstack/credit-risk/internal/models"
)

// FromProtoPredictRequest maps the gRPC request into collector inputs.
func FromProtoPredictRequest(req *riskv1.PredictRequest) (features.RawInputs, error) {
	if req == nil {
		return features.RawInputs{}, fmt.Errorf("request is nil")
	}
	return features.RawInputs{
		ExtSource1:    req.ExtSource1,
		ExtSource2:    req.ExtSource2,
		ExtSource3:    req.ExtSource3,
		AmtCredit:     req.AmtCredit,
		IncomeType:    req.IncomeType,
		EducationType: req.EducationType,
		Gender:        req.Gender,
	}, nil
}

// ToProtoPredictResponse converts a domain result into the gRPC representation.
func ToProtoPredictResponse(res models.PredictionResult) *riskv1.PredictResponse {
	out := &riskv1.PredictResponse{
		PredictionId:     res.PredictionID,
		Probability:      res.Probability,
		Tier:             string(res.Tier),
		TierLabel:        res.Tier.Label(),
		Notes:            append([]string(nil), res.Notes...),
		ExplanationError: res.ExplanationError,
	}
	if !res.ScoredAt.IsZero() {
		out.ScoredAt = timestamppb.New(res.ScoredAt)
	}
	if res.Explanation != nil {
		out.Explanation = ToProtoExplanation(*res.Explanation)
	}
	return out
}

// ToProtoExplanation keeps the displayed subset and the remainder.
func ToProtoExplanation(exp models.Explanation) *riskv1.Explanation {
	out := &riskv1.Explanation{
		Baseline:      exp.Baseline,
		Output:        exp.Output,
		OtherSum:      exp.OtherSum,
		OtherFeatures: int32(exp.OtherFeatures),
	}
	for _, c := range exp.Top {
		out.Contributions = append(out.Contributions, &riskv1.Contribution{
			Feature: c.Feature,
			Value:   c.Value,
			Data:    c.Data,
		})
	}
	return out
}

// SchemaResponse describes the accepted inputs in schema order.
func SchemaResponse() *riskv1.SchemaResponse {
	def := models.DefaultRecord()
	extDefaults := map[string]float64{
		models.ColExtSource1: def.ExtSource1,
		models.ColExtSource2: def.ExtSource2,
		models.ColExtSource3: def.ExtSource3,
	}

	resp := &riskv1.SchemaResponse{}
	for _, col := range models.Schema {
		c := &riskv1.Column{Name: col}
		switch col {
		case models.ColExtSource1, models.ColExtSource2, models.ColExtSource3:
			c.Kind = "number"
			c.Min, c.Max = models.MinExtScore, models.MaxExtScore
			c.Default = strconv.FormatFloat(extDefaults[col], 'f', -1, 64)
		case models.ColAmtCredit:
			c.Kind = "integer"
			c.Min, c.Max = models.MinCreditAmount, models.MaxCreditAmount
			c.Default = strconv.FormatInt(def.AmtCredit, 10)
		case models.ColIncomeType:
			c.Kind = "category"
			c.Values = stringsOf(models.IncomeTypes)
			c.Default = string(def.IncomeType)
		case models.ColEducationType:
			c.Kind = "category"
			c.Values = stringsOf(models.EducationTypes)
			c.Default = string(def.EducationType)
		case models.ColGender:
			c.Kind = "category"
			c.Values = stringsOf(models.Genders)
			c.Default = string(def.Gender)
		}
		resp.Columns = append(resp.Columns, c)
	}
	return resp
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
