package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP and domain counters exported on /metrics.
type Metrics struct {
	requestDuration *prometheus.HistogramVec

	EntitlementChecks  *prometheus.CounterVec
	QuotaDenials       *prometheus.CounterVec
	CreditDebits       *prometheus.CounterVec
	CommissionsCreated *prometheus.CounterVec
	InvoicesGenerated  prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "woofdesk",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		EntitlementChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "woofdesk",
			Name:      "entitlement_checks_total",
			Help:      "Entitlement checks by feature and outcome.",
		}, []string{"feature", "outcome"}),

		QuotaDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "woofdesk",
			Name:      "quota_denials_total",
			Help:      "Consume attempts denied by monthly quota.",
		}, []string{"feature", "tier"}),

		CreditDebits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "woofdesk",
			Name:      "credit_debits_total",
			Help:      "Credit debits by consultation type and outcome.",
		}, []string{"consultation_type", "outcome"}),

		CommissionsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "woofdesk",
			Name:      "commissions_created_total",
			Help:      "Commission earnings created by type.",
		}, []string{"commission_type"}),

		InvoicesGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "woofdesk",
			Name:      "invoices_generated_total",
			Help:      "GST invoices generated.",
		}),
	}
}

func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
