package models

// Column names the pipeline was fitted on. Order matters.
const (
	ColExtSource1    = "EXT_SOURCE_1"
	ColExtSource2    = "EXT_SOURCE_2"
	ColExtSource3    = "EXT_SOURCE_3"
	ColAmtCredit     = "AMT_CREDIT"
	ColIncomeType    = "NAME_INCOME_TYPE"
	ColEducationType = "NAME_EDUCATION_TYPE"
	ColGender        = "CODE_GENDER"
)

// Schema is the exact column list, in order, expected by the artifact preprocessor.
var Schema = []string{
	ColExtSource1,
	ColExtSource2,
	ColExtSource3,
	ColAmtCredit,
	ColIncomeType,
	ColEducationType,
	ColGender,
}

// Bounds for the numeric inputs.
const (
	MinExtScore     = 0.0
	MaxExtScore     = 1.0
	MinCreditAmount = 10000
	MaxCreditAmount = 2000000
)

// IncomeType enumerates NAME_INCOME_TYPE values.
type IncomeType string

const (
	IncomeWorking             IncomeType = "Working"
	IncomePensioner           IncomeType = "Pensioner"
	IncomeCommercialAssociate IncomeType = "Commercial associate"
	IncomeStateServant        IncomeType = "State servant"
)

// IncomeTypes lists the accepted income types in form order.
var IncomeTypes = []IncomeType{IncomeWorking, IncomePensioner, IncomeCommercialAssociate, IncomeStateServant}

// EducationType enumerates NAME_EDUCATION_TYPE values.
type EducationType string

const (
	EducationSecondary EducationType = "Secondary / secondary special"
	EducationHigher    EducationType = "Higher education"
)

// EducationTypes lists the accepted education types in form order.
var EducationTypes = []EducationType{EducationSecondary, EducationHigher}

// Gender enumerates CODE_GENDER values.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// Genders lists the accepted gender codes in form order.
var Genders = []Gender{GenderMale, GenderFemale}

// InputRecord is the single-row frame handed to the pipeline.
type InputRecord struct {
	ExtSource1    float64
	ExtSource2    float64
	ExtSource3    float64
	AmtCredit     int64
	IncomeType    IncomeType
	EducationType EducationType
	Gender        Gender
}

// Values returns the record fields in Schema order. Numeric columns are float64
// (AMT_CREDIT included), categorical columns are strings.
func (r InputRecord) Values() []any {
	return []any{
		r.ExtSource1,
		r.ExtSource2,
		r.ExtSource3,
		float64(r.AmtCredit),
		string(r.IncomeType),
		string(r.EducationType),
		string(r.Gender),
	}
}

// Columns returns the record keyed by column name.
func (r InputRecord) Columns() map[string]any {
	values := r.Values()
	out := make(map[string]any, len(Schema))
	for i, col := range Schema {
		out[col] = values[i]
	}
	return out
}

// DefaultRecord mirrors the initial state of the input form.
func DefaultRecord() InputRecord {
	return InputRecord{
		ExtSource1:    0.5,
		ExtSource2:    0.5,
		ExtSource3:    0.5,
		AmtCredit:     500000,
		IncomeType:    IncomeWorking,
		EducationType: EducationSecondary,
		Gender:        GenderMale,
	}
}
