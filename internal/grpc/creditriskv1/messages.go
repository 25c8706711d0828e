package creditriskv1

import "google.golang.org/protobuf/types/known/timestamppb"

// PredictRequest carries one applicant. Unset fields take the form defaults.
type PredictRequest struct {
	ExtSource1    *float64 `json:"ext_source_1,omitempty"`
	ExtSource2    *float64 `json:"ext_source_2,omitempty"`
	ExtSource3    *float64 `json:"ext_source_3,omitempty"`
	AmtCredit     *int64   `json:"amt_credit,omitempty"`
	IncomeType    string   `json:"income_type,omitempty"`
	EducationType string   `json:"education_type,omitempty"`
	Gender        string   `json:"gender,omitempty"`
	Explain       bool     `json:"explain,omitempty"`
}

// GetExplain reports whether an attribution was requested.
func (r *PredictRequest) GetExplain() bool {
	if r == nil {
		return false
	}
	return r.Explain
}

// PredictResponse is the scored application.
type PredictResponse struct {
	PredictionId     string                 `json:"prediction_id"`
	Probability      float64                `json:"probability"`
	Tier             string                 `json:"tier"`
	TierLabel        string                 `json:"tier_label"`
	Notes            []string               `json:"notes,omitempty"`
	ScoredAt         *timestamppb.Timestamp `json:"scored_at,omitempty"`
	Explanation      *Explanation           `json:"explanation,omitempty"`
	ExplanationError string                 `json:"explanation_error,omitempty"`
}

// GetPredictionId returns the prediction id or "".
func (r *PredictResponse) GetPredictionId() string {
	if r == nil {
		return ""
	}
	return r.PredictionId
}

// GetExplanation returns the attribution, if any.
func (r *PredictResponse) GetExplanation() *Explanation {
	if r == nil {
		return nil
	}
	return r.Explanation
}

// Explanation is a margin-scale attribution of one prediction.
type Explanation struct {
	Baseline      float64         `json:"baseline"`
	Output        float64         `json:"output"`
	Contributions []*Contribution `json:"contributions"`
	OtherSum      float64         `json:"other_sum"`
	OtherFeatures int32           `json:"other_features"`
}

// Contribution is one transformed feature's share of the margin.
type Contribution struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
	Data    float64 `json:"data"`
}

// SchemaRequest asks for the input columns and their accepted values.
type SchemaRequest struct{}

// SchemaResponse describes the accepted inputs.
type SchemaResponse struct {
	Columns []*Column `json:"columns"`
}

// Column describes one input. Numeric columns carry bounds; categorical
// columns carry their closed value set.
type Column struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Min     float64  `json:"min,omitempty"`
	Max     float64  `json:"max,omitempty"`
	Default string   `json:"default"`
	Values  []string `json:"values,omitempty"`
}
