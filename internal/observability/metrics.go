// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/onlinecinema/accounts/internal/auth"
)

// Outcome label values.
const (
	outcomeOK        = "ok"
	outcomeRejected  = "rejected"
	outcomeFault     = "fault"
	outcomeDelivered = "delivered"
	outcomeFailed    = "failed"
)

// Metrics holds the accounts service collectors. It implements
// auth.Observer and auth.CleanupObserver.
type Metrics struct {
	FlowsTotal         *prometheus.CounterVec
	NotificationsTotal *prometheus.CounterVec
	TokensPurgedTotal  prometheus.Counter
	CleanupRunsTotal   *prometheus.CounterVec
	LastCleanup        prometheus.Gauge
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FlowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_auth_flows_total",
				Help: "Credential flows by flow, outcome and error code",
			},
			[]string{"flow", "outcome", "code"},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_notifications_total",
				Help: "Notification attempts by purpose and outcome",
			},
			[]string{"purpose", "outcome"},
		),
		TokensPurgedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "accounts_tokens_purged_total",
				Help: "Expired opaque tokens removed by cleanup",
			},
		),
		CleanupRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_cleanup_runs_total",
				Help: "Cleanup runs by outcome",
			},
			[]string{"outcome"},
		),
		LastCleanup: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "accounts_cleanup_last_success_timestamp_seconds",
				Help: "Unix time of the last successful cleanup run",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_http_requests_total",
				Help: "HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "accounts_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}

	reg.MustRegister(
		m.FlowsTotal,
		m.NotificationsTotal,
		m.TokensPurgedTotal,
		m.CleanupRunsTotal,
		m.LastCleanup,
		m.HTTPRequestsTotal,
		m.HTTPDuration,
	)
	return m
}

// FlowCompleted implements auth.Observer.
func (m *Metrics) FlowCompleted(flow, code string, environmentFault bool) {
	outcome := outcomeOK
	switch {
	case environmentFault:
		outcome = outcomeFault
	case code != "":
		outcome = outcomeRejected
	}
	m.FlowsTotal.WithLabelValues(flow, outcome, code).Inc()
}

// NotificationDelivered implements auth.Observer.
func (m *Metrics) NotificationDelivered(purpose auth.NotificationPurpose, err error) {
	outcome := outcomeDelivered
	if err != nil {
		outcome = outcomeFailed
	}
	m.NotificationsTotal.WithLabelValues(string(purpose), outcome).Inc()
}

// CleanupCompleted implements auth.CleanupObserver. A failed run still
// counts the tokens it managed to purge.
func (m *Metrics) CleanupCompleted(purged int64, err error) {
	if purged > 0 {
		m.TokensPurgedTotal.Add(float64(purged))
	}
	if err != nil {
		m.CleanupRunsTotal.WithLabelValues(outcomeFailed).Inc()
		return
	}
	m.CleanupRunsTotal.WithLabelValues(outcomeOK).Inc()
	m.LastCleanup.Set(float64(time.Now().Unix()))
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

var (
	_ auth.Observer        = (*Metrics)(nil)
	_ auth.CleanupObserver = (*Metrics)(nil)
)
