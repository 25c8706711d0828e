package api

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/miradorstack/credit-risk/internal/engine"
	"github.com/miradorstack/credit-risk/internal/features"
	riskv1 "github.com/miradorstack/credit-risk/internal/grpc/creditriskv1"
	"github.com/miradorstack/credit-risk/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("page.html").Funcs(template.FuncMap{
	"signed": func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) },
}).ParseFS(templateFS, "templates/page.html"))

// Predictor is the per-request handler shared by the HTTP and gRPC surfaces.
type Predictor interface {
	Predict(ctx context.Context, raw features.RawInputs, opts engine.PredictOptions) (models.PredictionResult, error)
}

// HTTPHandler serves the input form, the result page and the JSON API.
type HTTPHandler struct {
	logger         *slog.Logger
	predictor      Predictor
	source         engine.PipelineSource
	explainEnabled bool
	router         chi.Router
}

// NewHTTPHandler wires routes. source is only used by the health probe.
func NewHTTPHandler(logger *slog.Logger, predictor Predictor, source engine.PipelineSource, explainEnabled bool) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &HTTPHandler{
		logger:         logger,
		predictor:      predictor,
		source:         source,
		explainEnabled: explainEnabled,
	}
	h.setupRoutes()
	return h
}

func (h *HTTPHandler) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/", h.handleIndex)
	r.Post("/predict", h.handlePredictForm)
	r.Get("/healthz", h.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/schema", h.handleSchema)
		r.Post("/predict", h.handlePredictJSON)
	})

	h.router = r
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *HTTPHandler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (h *HTTPHandler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, newPage(models.DefaultRecord()))
}

func (h *HTTPHandler) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		page := newPage(models.DefaultRecord())
		page.Error = "Could not read the submitted form."
		h.render(w, http.StatusBadRequest, page)
		return
	}

	raw, err := rawFromForm(r)
	if err != nil {
		page := newPage(models.DefaultRecord())
		page.Error = err.Error()
		h.render(w, http.StatusBadRequest, page)
		return
	}

	result, err := h.predictor.Predict(r.Context(), raw, engine.PredictOptions{Explain: h.explainEnabled})
	if err != nil {
		page := newPage(models.DefaultRecord())
		page.Error = err.Error()
		h.render(w, statusFor(err), page)
		return
	}

	page := newPage(result.Record)
	page.Result = newResultView(result)
	h.render(w, http.StatusOK, page)
}

func (h *HTTPHandler) handlePredictJSON(w http.ResponseWriter, r *http.Request) {
	var req riskv1.PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	raw, err := FromProtoPredictRequest(&req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.predictor.Predict(r.Context(), raw, engine.PredictOptions{Explain: req.Explain && h.explainEnabled})
	if err != nil {
		respondError(w, statusFor(err), "prediction failed", err)
		return
	}
	respondJSON(w, http.StatusOK, ToProtoPredictResponse(result))
}

func (h *HTTPHandler) handleSchema(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, SchemaResponse())
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	pipeline, err := h.source.Load()
	if err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"model":  pipeline.Version(),
	})
}

func (h *HTTPHandler) render(w http.ResponseWriter, status int, page pageData) {
	var buf strings.Builder
	if err := pageTemplate.Execute(&buf, page); err != nil {
		h.logger.Error("render page", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, features.ErrInvalidCategory), errors.Is(err, features.ErrInvalidNumber):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func rawFromForm(r *http.Request) (features.RawInputs, error) {
	var raw features.RawInputs
	scores := []struct {
		field string
		out   **float64
	}{
		{"ext_source_1", &raw.ExtSource1},
		{"ext_source_2", &raw.ExtSource2},
		{"ext_source_3", &raw.ExtSource3},
	}
	for _, s := range scores {
		v := strings.TrimSpace(r.PostFormValue(s.field))
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return features.RawInputs{}, fmt.Errorf("%s: %w %q", s.field, features.ErrInvalidNumber, v)
		}
		*s.out = &f
	}
	if v := strings.TrimSpace(r.PostFormValue("amt_credit")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return features.RawInputs{}, fmt.Errorf("amt_credit: %w %q", features.ErrInvalidNumber, v)
		}
		raw.AmtCredit = &n
	}
	raw.IncomeType = r.PostFormValue("income_type")
	raw.EducationType = r.PostFormValue("education_type")
	raw.Gender = r.PostFormValue("gender")
	return raw, nil
}

type option struct {
	Value    string
	Selected bool
}

type pageData struct {
	Record     models.InputRecord
	AmountStep int
	MinAmount  int64
	MaxAmount  int64
	Incomes    []option
	Educations []option
	Genders    []option
	Result     *resultView
	Error      string
}

type barView struct {
	Feature  string
	Value    float64
	Data     float64
	Width    float64
	Positive bool
}

type resultView struct {
	ProbabilityPct   string
	Tier             string
	Label            string
	Notes            []string
	Baseline         float64
	Output           float64
	Bars             []barView
	OtherFeatures    int
	OtherSum         float64
	ExplanationError string
}

func newPage(rec models.InputRecord) pageData {
	return pageData{
		Record:     rec,
		AmountStep: 10000,
		MinAmount:  models.MinCreditAmount,
		MaxAmount:  models.MaxCreditAmount,
		Incomes:    optionsOf(models.IncomeTypes, rec.IncomeType),
		Educations: optionsOf(models.EducationTypes, rec.EducationType),
		Genders:    optionsOf(models.Genders, rec.Gender),
	}
}

func optionsOf[T ~string](values []T, selected T) []option {
	out := make([]option, len(values))
	for i, v := range values {
		out[i] = option{Value: string(v), Selected: v == selected}
	}
	return out
}

func newResultView(res models.PredictionResult) *resultView {
	view := &resultView{
		ProbabilityPct:   fmt.Sprintf("%.1f%%", res.Probability*100),
		Tier:             string(res.Tier),
		Label:            res.Tier.Label(),
		Notes:            res.Notes,
		ExplanationError: res.ExplanationError,
	}
	exp := res.Explanation
	if exp == nil {
		return view
	}
	view.Baseline = exp.Baseline
	view.Output = exp.Output
	view.OtherFeatures = exp.OtherFeatures
	view.OtherSum = exp.OtherSum

	largest := math.Abs(exp.OtherSum)
	for _, c := range exp.Top {
		largest = math.Max(largest, math.Abs(c.Value))
	}
	for _, c := range exp.Top {
		width := 0.0
		if largest > 0 {
			width = math.Abs(c.Value) / largest * 100
		}
		view.Bars = append(view.Bars, barView{
			Feature:  c.Feature,
			Value:    c.Value,
			Data:     c.Data,
			Width:    width,
			Positive: c.Value > 0,
		})
	}
	return view
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
