package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_ObserveAnalysis(t *testing.T) {
	r := NewRecorder()
	before := testutil.ToFloat64(AnalysesTotal.WithLabelValues("rule", "ok"))
	notFound := testutil.ToFloat64(AnalysesTotal.WithLabelValues("rule", "NotFound"))

	r.ObserveAnalysis("rule", "ok", 15*time.Millisecond)
	r.ObserveAnalysis("rule", "ok", 20*time.Millisecond)
	r.ObserveAnalysis("rule", "NotFound", time.Millisecond)

	assert.Equal(t, before+2, testutil.ToFloat64(AnalysesTotal.WithLabelValues("rule", "ok")))
	assert.Equal(t, notFound+1, testutil.ToFloat64(AnalysesTotal.WithLabelValues("rule", "NotFound")))
}

func TestRecorder_ObserveIngest(t *testing.T) {
	r := NewRecorder()
	bars := testutil.ToFloat64(IngestedBarsTotal)
	failures := testutil.ToFloat64(IngestFailuresTotal)

	r.ObserveIngest("AAPL", 126, nil)
	r.ObserveIngest("ZZZZ", 0, errors.New("no data"))

	assert.Equal(t, bars+126, testutil.ToFloat64(IngestedBarsTotal))
	assert.Equal(t, failures+1, testutil.ToFloat64(IngestFailuresTotal))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/risk/:ticker", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", Handler())

	matched := HTTPRequestsTotal.WithLabelValues("GET", "/api/risk/:ticker", "200")
	unmatched := HTTPRequestsTotal.WithLabelValues("GET", unmatchedRoute, "404")
	beforeMatched := testutil.ToFloat64(matched)
	beforeUnmatched := testutil.ToFloat64(unmatched)

	for _, p := range []string{"/api/risk/AAPL", "/api/risk/MSFT", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	assert.Equal(t, beforeMatched+2, testutil.ToFloat64(matched))
	assert.Equal(t, beforeUnmatched+1, testutil.ToFloat64(unmatched))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "stock_risk_http_requests_total"))
}
