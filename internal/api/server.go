// Package api exposes measurement parsing, glass quoting and spacer cutting
// plans over HTTP under /api/v1.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/piwi3910/GlassCut/internal/model"
	"github.com/piwi3910/GlassCut/internal/store"
)

// PricingSource supplies the rate table quotes are computed against. It is
// read per request so rate edits apply without a restart.
type PricingSource interface {
	LoadPricingConfig(ctx context.Context) (model.PricingConfig, error)
}

// QuoteStore persists priced quotes. *store.Store implements it.
type QuoteStore interface {
	SaveQuote(ctx context.Context, rec store.QuoteRecord) (store.QuoteRecord, error)
	ListQuotes(ctx context.Context) ([]store.QuoteSummary, error)
	LoadQuote(ctx context.Context, id int64) (store.QuoteRecord, error)
}

// Pinger reports backend health for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StaticPricing serves a fixed config, e.g. one loaded from pricing.yaml.
type StaticPricing model.PricingConfig

func (p StaticPricing) LoadPricingConfig(context.Context) (model.PricingConfig, error) {
	return model.PricingConfig(p), nil
}

// Options wires the server. Quotes and Health may be nil: without a quote
// store the save and history endpoints answer 503.
type Options struct {
	Pricing  PricingSource
	Quotes   QuoteStore
	Health   Pinger
	Settings model.CutSettings
	Logger   *zap.Logger
	Metrics  *Metrics
}

type Server struct {
	pricing  PricingSource
	quotes   QuoteStore
	health   Pinger
	settings model.CutSettings
	logger   *zap.Logger
	metrics  *Metrics
}

func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	return &Server{
		pricing:  opts.Pricing,
		quotes:   opts.Quotes,
		health:   opts.Health,
		settings: opts.Settings,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

// Router builds the gin engine with middleware and every route.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(Logger(s.logger))
	router.Use(MetricsMiddleware(s.metrics))

	router.GET("/healthz", s.healthz)
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/healthz", s.healthz)

		v1.POST("/measurements/parse", s.parseMeasurements)

		v1.POST("/quotes", s.priceQuote)
		v1.POST("/quotes/save", s.saveQuote)
		v1.GET("/quotes", s.listQuotes)
		v1.GET("/quotes/:id", s.getQuote)

		v1.POST("/cutting-plans", s.cuttingPlan)
		v1.POST("/cutting-plans/compare", s.compareCuttingPlans)

		v1.GET("/pricing-config", s.pricingConfig)
	}
	return router
}

func (s *Server) healthz(c *gin.Context) {
	if s.health != nil {
		if err := s.health.Ping(c.Request.Context()); err != nil {
			_ = c.Error(err)
			Error(c, http.StatusServiceUnavailable, "UNAVAILABLE", "database unavailable", nil)
			return
		}
	}
	Success(c, gin.H{"status": "ok"})
}
