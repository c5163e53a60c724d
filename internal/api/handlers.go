package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/piwi3910/GlassCut/internal/engine"
	"github.com/piwi3910/GlassCut/internal/measure"
	"github.com/piwi3910/GlassCut/internal/model"
	"github.com/piwi3910/GlassCut/internal/pricing"
	"github.com/piwi3910/GlassCut/internal/store"
)

type parseRequest struct {
	Inputs     []string `json:"inputs" binding:"required,min=1,max=500"`
	Graduation int64    `json:"graduation" binding:"omitempty,min=1,max=1024"`
}

// ParsedMeasurement is one parsed input. Formatted is the nearest fraction
// whose denominator fits the requested graduation, Rounded is snapped to that
// graduation, and Exact is never altered.
type ParsedMeasurement struct {
	Input     string  `json:"input"`
	Exact     string  `json:"exact"`
	Decimal   float64 `json:"decimal"`
	Formatted string  `json:"formatted"`
	Rounded   string  `json:"rounded"`
}

// parseMeasurements parses a batch of tape readings. One bad input fails the
// whole batch and names the offending text.
func (s *Server) parseMeasurements(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	graduation := req.Graduation
	if graduation == 0 {
		graduation = measure.DefaultMaxDenominator
	}

	out := make([]ParsedMeasurement, 0, len(req.Inputs))
	for _, input := range req.Inputs {
		m, err := measure.Parse(input)
		if err != nil {
			s.metrics.MeasurementsParsed.WithLabelValues("error").Inc()
			fail(c, err)
			return
		}
		out = append(out, ParsedMeasurement{
			Input:     input,
			Exact:     m.Exact(),
			Decimal:   m.Float64(),
			Formatted: measure.Format(m, graduation),
			Rounded:   measure.FormatRounded(m, graduation),
		})
	}
	s.metrics.MeasurementsParsed.WithLabelValues("ok").Add(float64(len(out)))
	Success(c, out)
}

type quoteRequest struct {
	Items []model.GlassItemSpec `json:"items" binding:"required,min=1"`
}

func (s *Server) price(c *gin.Context, items []model.GlassItemSpec) (model.JobQuote, bool) {
	cfg, err := s.pricing.LoadPricingConfig(c.Request.Context())
	if err != nil {
		s.metrics.QuotesPriced.WithLabelValues("error").Inc()
		fail(c, fmt.Errorf("failed to load pricing config: %w", err))
		return model.JobQuote{}, false
	}
	job, err := pricing.CalculateBatch(cfg, items)
	s.metrics.QuotesPriced.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		fail(c, err)
		return model.JobQuote{}, false
	}
	return job, true
}

// priceQuote prices a job without saving it.
func (s *Server) priceQuote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	job, ok := s.price(c, req.Items)
	if !ok {
		return
	}
	Success(c, job)
}

type saveQuoteRequest struct {
	QuoteNumber int                   `json:"quote_number" binding:"gte=0"`
	Customer    string                `json:"customer" binding:"required,max=200"`
	JobName     string                `json:"job_name" binding:"max=200"`
	CreatedBy   string                `json:"created_by" binding:"max=100"`
	Items       []model.GlassItemSpec `json:"items" binding:"required,min=1"`
}

// saveQuote prices a job and stores it as a new quote, or as the next
// version of QuoteNumber.
func (s *Server) saveQuote(c *gin.Context) {
	if s.quotes == nil {
		Error(c, http.StatusServiceUnavailable, "UNAVAILABLE", "quote storage is not configured", nil)
		return
	}
	var req saveQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	job, ok := s.price(c, req.Items)
	if !ok {
		return
	}

	rec, err := s.quotes.SaveQuote(c.Request.Context(), store.QuoteRecord{
		QuoteNumber: req.QuoteNumber,
		Customer:    req.Customer,
		JobName:     req.JobName,
		CreatedBy:   req.CreatedBy,
		Specs:       req.Items,
		Job:         job,
	})
	if err != nil {
		fail(c, err)
		return
	}
	s.metrics.QuotesSaved.Inc()
	Created(c, rec)
}

func (s *Server) listQuotes(c *gin.Context) {
	if s.quotes == nil {
		Error(c, http.StatusServiceUnavailable, "UNAVAILABLE", "quote storage is not configured", nil)
		return
	}
	quotes, err := s.quotes.ListQuotes(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	Success(c, quotes)
}

func (s *Server) getQuote(c *gin.Context) {
	if s.quotes == nil {
		Error(c, http.StatusServiceUnavailable, "UNAVAILABLE", "quote storage is not configured", nil)
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		BadRequest(c, fmt.Sprintf("invalid quote id %q", c.Param("id")))
		return
	}
	rec, err := s.quotes.LoadQuote(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	Success(c, rec)
}

// settingsOverride changes individual cut settings for one request. Nil
// fields keep the server defaults, so a zero kerf can be asked for.
type settingsOverride struct {
	StockLength *measure.Measurement `json:"stock_length"`
	Kerf        *measure.Measurement `json:"kerf"`
	Algorithm   model.Algorithm      `json:"algorithm"`
	StockLabel  string               `json:"stock_label"`
}

type cuttingPlanRequest struct {
	Requests []model.CutRequest `json:"requests"`
	Windows  []model.Window     `json:"windows"`
	// frame (default): one bent frame per window; sides: two widths and two
	// heights per window.
	WindowMode string            `json:"window_mode" binding:"omitempty,oneof=frame sides"`
	Settings   *settingsOverride `json:"settings"`
}

func (s *Server) resolveSettings(o *settingsOverride) (model.CutSettings, error) {
	settings := s.settings
	if o == nil {
		return settings, nil
	}
	if o.StockLength != nil {
		if o.StockLength.Sign() <= 0 {
			return settings, fmt.Errorf("stock_length must be positive, got %s", o.StockLength.Exact())
		}
		settings.StockLength = *o.StockLength
	}
	if o.Kerf != nil {
		if o.Kerf.Sign() < 0 {
			return settings, fmt.Errorf("kerf must not be negative, got %s", o.Kerf.Exact())
		}
		settings.Kerf = *o.Kerf
	}
	if o.Algorithm != "" {
		if !o.Algorithm.Valid() {
			return settings, fmt.Errorf("unknown algorithm %q", o.Algorithm)
		}
		settings.Algorithm = o.Algorithm
	}
	if o.StockLabel != "" {
		settings.StockLabel = o.StockLabel
	}
	return settings, nil
}

// bindCuttingPlan decodes the body into settings and the full request list.
func (s *Server) bindCuttingPlan(c *gin.Context) (model.CutSettings, []model.CutRequest, bool) {
	var req cuttingPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return model.CutSettings{}, nil, false
	}
	settings, err := s.resolveSettings(req.Settings)
	if err != nil {
		BadRequest(c, err.Error())
		return model.CutSettings{}, nil, false
	}

	requests := make([]model.CutRequest, 0, len(req.Requests)+len(req.Windows))
	for _, r := range req.Requests {
		if r.ID == "" {
			r.ID = uuid.New().String()[:8]
		}
		requests = append(requests, r)
	}
	if req.WindowMode == "sides" {
		requests = append(requests, engine.SpacerSideRequests(req.Windows)...)
	} else {
		requests = append(requests, engine.SpacerRequests(req.Windows)...)
	}
	if len(requests) == 0 {
		BadRequest(c, "requests or windows are required")
		return model.CutSettings{}, nil, false
	}
	return settings, requests, true
}

// cuttingPlan packs the requested pieces onto stock sticks.
func (s *Server) cuttingPlan(c *gin.Context) {
	settings, requests, ok := s.bindCuttingPlan(c)
	if !ok {
		return
	}

	plan, err := engine.New(settings).Optimize(requests)
	algorithm := string(settings.Algorithm)
	if algorithm == "" {
		algorithm = string(model.AlgorithmFirstFit)
	}
	s.metrics.CuttingPlans.WithLabelValues(algorithm, outcome(err)).Inc()
	if err != nil {
		fail(c, err)
		return
	}
	s.metrics.SticksPlanned.Add(float64(plan.TotalSticks))
	if plan.TotalSticks > 0 {
		s.metrics.PlanEfficiency.Observe(plan.Efficiency)
	}
	Success(c, plan)
}

// CompareResponse lists every scenario and the index of the best one.
type CompareResponse struct {
	Results []engine.ComparisonResult `json:"results"`
	Best    int                       `json:"best"`
}

// compareCuttingPlans runs the request against the default what-if
// scenarios. It only fails when no scenario can plan the pieces.
func (s *Server) compareCuttingPlans(c *gin.Context) {
	settings, requests, ok := s.bindCuttingPlan(c)
	if !ok {
		return
	}

	results := engine.CompareScenarios(engine.BuildDefaultScenarios(settings), requests)
	best := engine.BestScenario(results)
	if best < 0 {
		fail(c, results[0].Err)
		return
	}
	Success(c, CompareResponse{Results: results, Best: best})
}

func (s *Server) pricingConfig(c *gin.Context) {
	cfg, err := s.pricing.LoadPricingConfig(c.Request.Context())
	if err != nil {
		fail(c, fmt.Errorf("failed to load pricing config: %w", err))
		return
	}
	Success(c, cfg)
}
