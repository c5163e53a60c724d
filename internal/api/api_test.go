package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/GlassCut/internal/model"
	"github.com/piwi3910/GlassCut/internal/store"
)

type envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"error_code"`
	Data      json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	st, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	_, err = st.SeedDefaults(ctx, model.DefaultPricingConfig())
	require.NoError(t, err)

	srv := NewServer(Options{
		Pricing:  st,
		Quotes:   st,
		Health:   st,
		Settings: model.DefaultSettings(),
	})
	return srv.Router()
}

func do(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func TestParseMeasurements(t *testing.T) {
	router := newTestRouter(t)

	w, env := do(t, router, http.MethodPost, "/api/v1/measurements/parse",
		`{"inputs": ["48 1/2", "3/4\"", "12.3", "97/2"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 0, env.Code)

	var got []ParsedMeasurement
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got, 4)
	assert.Equal(t, "48 1/2", got[0].Exact)
	assert.Equal(t, 48.5, got[0].Decimal)
	assert.Equal(t, "3/4", got[1].Exact)
	assert.Equal(t, "12 3/10", got[2].Exact)
	assert.Equal(t, "12 3/10", got[2].Formatted)
	assert.Equal(t, "12 5/16", got[2].Rounded)
	assert.Equal(t, "48 1/2", got[3].Exact)
}

func TestParseMeasurements_Graduation(t *testing.T) {
	router := newTestRouter(t)

	w, env := do(t, router, http.MethodPost, "/api/v1/measurements/parse",
		`{"inputs": ["12.3"], "graduation": 8}`)
	require.Equal(t, http.StatusOK, w.Code)
	var got []ParsedMeasurement
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "12 2/7", got[0].Formatted)
	assert.Equal(t, "12 1/4", got[0].Rounded)
}

func TestParseMeasurements_Errors(t *testing.T) {
	router := newTestRouter(t)

	w, env := do(t, router, http.MethodPost, "/api/v1/measurements/parse", `{"inputs": ["12", "abc"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, model.CodeParseError, env.ErrorCode)
	assert.Contains(t, string(env.Data), `"input":"abc"`)

	w, env = do(t, router, http.MethodPost, "/api/v1/measurements/parse", `{"inputs": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BAD_REQUEST", env.ErrorCode)

	w, _ = do(t, router, http.MethodPost, "/api/v1/measurements/parse", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

const kitchenWindow = `{"label": "Kitchen", "width": "24", "height": "36", "thickness": "1/4\"",
	"glass_type": "clear", "quantity": 1, "clipped_corners": {"count": 0}}`

func TestPriceQuote(t *testing.T) {
	router := newTestRouter(t)

	w, env := do(t, router, http.MethodPost, "/api/v1/quotes", `{"items": [`+kitchenWindow+`]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var job model.JobQuote
	require.NoError(t, json.Unmarshal(env.Data, &job))
	require.Len(t, job.Items, 1)
	assert.Equal(t, "75", job.Total.String())
	assert.Equal(t, "267.86", job.QuotePrice.StringFixed(2))
}

func TestPriceQuote_Errors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{
			name:   "zero width",
			body:   `{"items": [{"width": "0", "height": "36", "thickness": "1/4\"", "glass_type": "clear", "quantity": 1}]}`,
			status: http.StatusUnprocessableEntity,
			code:   model.CodeInvalidSpec,
		},
		{
			name:   "no rate",
			body:   `{"items": [{"width": "24", "height": "36", "thickness": "3/8\"", "glass_type": "bronze", "quantity": 1}]}`,
			status: http.StatusUnprocessableEntity,
			code:   model.CodeConfigMissing,
		},
		{
			name:   "bad measurement",
			body:   `{"items": [{"width": "two feet", "height": "36", "thickness": "1/4\"", "glass_type": "clear", "quantity": 1}]}`,
			status: http.StatusBadRequest,
			code:   model.CodeParseError,
		},
		{
			name:   "no items",
			body:   `{"items": []}`,
			status: http.StatusBadRequest,
			code:   "BAD_REQUEST",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, router, http.MethodPost, "/api/v1/quotes", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, env.ErrorCode)
			assert.Equal(t, tt.status*100, env.Code)
		})
	}
}

func TestSaveAndListQuotes(t *testing.T) {
	router := newTestRouter(t)

	body := `{"customer": "J. Smith", "job_name": "Kitchen", "items": [` + kitchenWindow + `]}`
	w, env := do(t, router, http.MethodPost, "/api/v1/quotes/save", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rec store.QuoteRecord
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, 1001, rec.QuoteNumber)
	assert.Equal(t, 1, rec.Version)

	// Same content under the same number is not a new version.
	again := `{"quote_number": 1001, "customer": "J. Smith", "job_name": "Kitchen", "items": [` + kitchenWindow + `]}`
	w, env = do(t, router, http.MethodPost, "/api/v1/quotes/save", again)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NO_CHANGES", env.ErrorCode)

	renamed := `{"quote_number": 1001, "customer": "J. Smith", "job_name": "Kitchen + bath", "items": [` + kitchenWindow + `]}`
	w, env = do(t, router, http.MethodPost, "/api/v1/quotes/save", renamed)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, 2, rec.Version)

	w, env = do(t, router, http.MethodGet, "/api/v1/quotes", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []store.QuoteSummary
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].Version)

	w, env = do(t, router, http.MethodGet, "/api/v1/quotes/"+jsonInt(rec.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	var loaded store.QuoteRecord
	require.NoError(t, json.Unmarshal(env.Data, &loaded))
	assert.Equal(t, "Kitchen + bath", loaded.JobName)
	assert.Len(t, loaded.Specs, 1)

	w, env = do(t, router, http.MethodGet, "/api/v1/quotes/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.ErrorCode)

	w, _ = do(t, router, http.MethodGet, "/api/v1/quotes/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaveQuote_RequiresCustomer(t *testing.T) {
	router := newTestRouter(t)
	w, _ := do(t, router, http.MethodPost, "/api/v1/quotes/save", `{"items": [`+kitchenWindow+`]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuotesWithoutStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewServer(Options{
		Pricing:  StaticPricing(model.DefaultPricingConfig()),
		Settings: model.DefaultSettings(),
	}).Router()

	w, _ := do(t, router, http.MethodPost, "/api/v1/quotes", `{"items": [`+kitchenWindow+`]}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := do(t, router, http.MethodGet, "/api/v1/quotes", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "UNAVAILABLE", env.ErrorCode)
}

const scenarioRequests = `"requests": [
	{"label": "A", "length": "48.5", "quantity": 4},
	{"label": "B", "length": "36 1/2", "quantity": 4},
	{"label": "C", "length": 42, "quantity": 4}
]`

func TestCuttingPlan(t *testing.T) {
	router := newTestRouter(t)

	w, env := do(t, router, http.MethodPost, "/api/v1/cutting-plans", `{`+scenarioRequests+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var plan model.CuttingPlan
	require.NoError(t, json.Unmarshal(env.Data, &plan))
	assert.Equal(t, 4, plan.TotalSticks)
	assert.Equal(t, 12, plan.TotalPieces)
	assert.Equal(t, "99", plan.TotalWaste.Exact())
	assert.Equal(t, "1", plan.TotalKerfLoss.Exact())
	assert.Equal(t, "6 1/4", plan.Sticks[0].Waste.Exact())
	for _, s := range plan.Sticks {
		for _, c := range s.Cuts {
			assert.NotEmpty(t, c.RequestID, "request ids are assigned")
		}
	}
}

func TestCuttingPlan_SettingsOverride(t *testing.T) {
	router := newTestRouter(t)

	w, env := do(t, router, http.MethodPost, "/api/v1/cutting-plans",
		`{`+scenarioRequests+`, "settings": {"stock_length": "192"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var plan model.CuttingPlan
	require.NoError(t, json.Unmarshal(env.Data, &plan))
	assert.Equal(t, 3, plan.TotalSticks)

	// An explicit zero kerf is honored rather than treated as unset.
	w, env = do(t, router, http.MethodPost, "/api/v1/cutting-plans",
		`{"requests": [{"label": "Half", "length": "76", "quantity": 2}], "settings": {"kerf": "0"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &plan))
	assert.Equal(t, 1, plan.TotalSticks)
	assert.True(t, plan.TotalWaste.IsZero())
}

func TestCuttingPlan_Windows(t *testing.T) {
	router := newTestRouter(t)

	w, env := do(t, router, http.MethodPost, "/api/v1/cutting-plans",
		`{"windows": [{"label": "W1", "width": "24 1/2", "height": "36", "quantity": 1}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var plan model.CuttingPlan
	require.NoError(t, json.Unmarshal(env.Data, &plan))
	require.Len(t, plan.Sticks, 1)
	assert.Equal(t, "121", plan.Sticks[0].Cuts[0].Length.Exact())

	w, env = do(t, router, http.MethodPost, "/api/v1/cutting-plans",
		`{"windows": [{"label": "W1", "width": "24 1/2", "height": "36", "quantity": 1}], "window_mode": "sides"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &plan))
	assert.Equal(t, 4, plan.TotalPieces)
}

func TestCuttingPlan_Errors(t *testing.T) {
	router := newTestRouter(t)

	w, env := do(t, router, http.MethodPost, "/api/v1/cutting-plans",
		`{"requests": [{"label": "Patio door", "length": "160", "quantity": 1}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, model.CodeInvalidCut, env.ErrorCode)
	assert.Contains(t, string(env.Data), `"label":"Patio door"`)

	w, _ = do(t, router, http.MethodPost, "/api/v1/cutting-plans",
		`{`+scenarioRequests+`, "settings": {"algorithm": "random"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, router, http.MethodPost, "/api/v1/cutting-plans",
		`{`+scenarioRequests+`, "settings": {"stock_length": "0"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, router, http.MethodPost, "/api/v1/cutting-plans", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = do(t, router, http.MethodPost, "/api/v1/cutting-plans",
		`{"requests": [{"label": "A", "length": "4 feet", "quantity": 1}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, model.CodeParseError, env.ErrorCode)
}

func TestCompareCuttingPlans(t *testing.T) {
	router := newTestRouter(t)

	w, env := do(t, router, http.MethodPost, "/api/v1/cutting-plans/compare", `{`+scenarioRequests+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Results []struct {
			Scenario struct {
				Name string `json:"name"`
			} `json:"scenario"`
			SticksUsed int `json:"sticks_used"`
		} `json:"results"`
		Best int `json:"best"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.Len(t, resp.Results, 5)
	assert.Equal(t, "Current Settings", resp.Results[0].Scenario.Name)
	assert.Equal(t, 4, resp.Best)
	assert.Equal(t, 3, resp.Results[resp.Best].SticksUsed)

	w, env = do(t, router, http.MethodPost, "/api/v1/cutting-plans/compare",
		`{"requests": [{"label": "Huge", "length": "200", "quantity": 1}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, model.CodeInvalidCut, env.ErrorCode)
}

func TestPricingConfigEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w, env := do(t, router, http.MethodGet, "/api/v1/pricing-config", "")
	require.Equal(t, http.StatusOK, w.Code)
	var cfg model.PricingConfig
	require.NoError(t, json.Unmarshal(env.Data, &cfg))
	assert.Len(t, cfg.Rates, len(model.DefaultPricingConfig().Rates))
	assert.Equal(t, "0.28", cfg.MarginDivisor.String())
}

func TestHealthAndRequestID(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	w, _ = do(t, router, http.MethodGet, "/api/v1/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w, _ := do(t, router, http.MethodPost, "/api/v1/cutting-plans", `{`+scenarioRequests+`}`)
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "glasscut_cutting_plans_total")
	assert.Contains(t, body, `algorithm="first-fit"`)
	assert.Contains(t, body, "glasscut_sticks_planned_total 4")
	assert.Contains(t, body, `path="/api/v1/cutting-plans"`)
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
