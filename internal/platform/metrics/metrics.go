// Package metrics registers the service's Prometheus collectors and exposes
// gin integrations for them.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// unmatchedRoute labels requests that hit no registered route, keeping the
// route label bounded.
const unmatchedRoute = "unmatched"

var (
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_risk_analyses_total",
		Help: "Risk assessments by strategy and outcome kind",
	}, []string{"strategy", "outcome"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stock_risk_analysis_duration_seconds",
		Help:    "Time spent computing one risk assessment",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"strategy"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_risk_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	IngestedBarsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_risk_ingested_bars_total",
		Help: "Daily price bars written to the price store",
	})

	IngestFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_risk_ingest_failures_total",
		Help: "Tickers whose ingest failed",
	})
)

// Recorder adapts the collectors to the observer interfaces of the usecases.
type Recorder struct{}

// NewRecorder returns a Recorder backed by the default registry.
func NewRecorder() *Recorder { return &Recorder{} }

// ObserveAnalysis counts one assessment and records its duration.
func (*Recorder) ObserveAnalysis(strategy, outcome string, elapsed time.Duration) {
	AnalysesTotal.WithLabelValues(strategy, outcome).Inc()
	AnalysisDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

// ObserveIngest counts stored bars, or a failure when err is set.
func (*Recorder) ObserveIngest(_ string, stored int, err error) {
	if err != nil {
		IngestFailuresTotal.Inc()
		return
	}
	IngestedBarsTotal.Add(float64(stored))
}

// Middleware counts every request by its route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
