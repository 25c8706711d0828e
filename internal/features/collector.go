package features

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/miradorstack/credit-risk/internal/models"
)

var (
	// ErrInvalidCategory signals a categorical value outside its closed set.
	ErrInvalidCategory = errors.New("invalid category")
	// ErrInvalidNumber signals a numeric input that cannot be clamped (NaN).
	ErrInvalidNumber = errors.New("invalid number")
)

// RawInputs carries the user-supplied values. Nil/empty fields take the form defaults.
type RawInputs struct {
	ExtSource1    *float64 `json:"ext_source_1,omitempty"`
	ExtSource2    *float64 `json:"ext_source_2,omitempty"`
	ExtSource3    *float64 `json:"ext_source_3,omitempty"`
	AmtCredit     *int64   `json:"amt_credit,omitempty"`
	IncomeType    string   `json:"income_type,omitempty"`
	EducationType string   `json:"education_type,omitempty"`
	Gender        string   `json:"gender,omitempty"`
}

// Collector assembles InputRecords from raw inputs.
type Collector struct{}

// NewCollector creates a feature collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Collect validates each field at the boundary and returns a fresh record.
// Scores and amount are clamped into range; categoricals must match exactly.
func (c *Collector) Collect(raw RawInputs) (models.InputRecord, error) {
	rec := models.DefaultRecord()

	scores := []struct {
		col string
		in  *float64
		out *float64
	}{
		{models.ColExtSource1, raw.ExtSource1, &rec.ExtSource1},
		{models.ColExtSource2, raw.ExtSource2, &rec.ExtSource2},
		{models.ColExtSource3, raw.ExtSource3, &rec.ExtSource3},
	}
	for _, s := range scores {
		if s.in == nil {
			continue
		}
		v, err := clampScore(*s.in)
		if err != nil {
			return models.InputRecord{}, fmt.Errorf("%s: %w", s.col, err)
		}
		*s.out = v
	}

	if raw.AmtCredit != nil {
		rec.AmtCredit = clampAmount(*raw.AmtCredit)
	}

	if raw.IncomeType != "" {
		v, err := oneOf(models.ColIncomeType, raw.IncomeType, models.IncomeTypes)
		if err != nil {
			return models.InputRecord{}, err
		}
		rec.IncomeType = v
	}
	if raw.EducationType != "" {
		v, err := oneOf(models.ColEducationType, raw.EducationType, models.EducationTypes)
		if err != nil {
			return models.InputRecord{}, err
		}
		rec.EducationType = v
	}
	if raw.Gender != "" {
		v, err := oneOf(models.ColGender, raw.Gender, models.Genders)
		if err != nil {
			return models.InputRecord{}, err
		}
		rec.Gender = v
	}

	return rec, nil
}

func clampScore(v float64) (float64, error) {
	if math.IsNaN(v) {
		return 0, ErrInvalidNumber
	}
	return math.Min(math.Max(v, models.MinExtScore), models.MaxExtScore), nil
}

func clampAmount(v int64) int64 {
	if v < models.MinCreditAmount {
		return models.MinCreditAmount
	}
	if v > models.MaxCreditAmount {
		return models.MaxCreditAmount
	}
	return v
}

func oneOf[T ~string](col, value string, allowed []T) (T, error) {
	for _, a := range allowed {
		if string(a) == value {
			return a, nil
		}
	}
	opts := make([]string, 0, len(allowed))
	for _, a := range allowed {
		opts = append(opts, string(a))
	}
	var zero T
	return zero, fmt.Errorf("%s: %w %q (want one of %s)", col, ErrInvalidCategory, value, strings.Join(opts, ", "))
}
