// Package metrics exposes Prometheus instrumentation for the
// authentication pipeline.
//
// All metrics use the "certgate_" prefix. Methods handle nil receiver
// gracefully, so a nil *AuthMetrics acts as a no-op when the metrics
// server is disabled.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AuthMetrics tracks Prometheus metrics for authentication, account
// enrichment, and authorization.
type AuthMetrics struct {
	// AuthAttempts counts authentication attempts by backend and result.
	// Labels: backend=[kerberos, ldap, pam], result=[success, denied, error]
	AuthAttempts *prometheus.CounterVec

	// AuthzDecisions counts authorization decisions by rule and result.
	// Labels: rule=[whitelist, posix, ldap], result=[allowed, denied, error]
	AuthzDecisions *prometheus.CounterVec

	// DirectoryLookups counts directory operations by kind and result.
	// Labels: kind=[user, group], result=[hit, miss, error]
	DirectoryLookups *prometheus.CounterVec

	// StageDuration tracks pipeline stage processing time.
	// Labels: stage=[authenticate, accounts, authorize]
	StageDuration *prometheus.HistogramVec

	// KeytabReloads counts hot keytab reloads by result.
	// Labels: result=[success, failure]
	KeytabReloads *prometheus.CounterVec
}

var (
	authMetricsOnce     sync.Once
	authMetricsInstance *AuthMetrics
)

// NewAuthMetrics creates and registers the pipeline metrics.
//
// If registerer is nil, prometheus.DefaultRegisterer is used. Idempotent:
// repeated calls return the same instance.
func NewAuthMetrics(registerer prometheus.Registerer) *AuthMetrics {
	authMetricsOnce.Do(func() {
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}

		m := &AuthMetrics{
			AuthAttempts: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "certgate_auth_attempts_total",
					Help: "Total authentication attempts by backend and result",
				},
				[]string{"backend", "result"},
			),
			AuthzDecisions: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "certgate_authz_decisions_total",
					Help: "Total authorization decisions by rule and result",
				},
				[]string{"rule", "result"},
			),
			DirectoryLookups: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "certgate_directory_lookups_total",
					Help: "Total directory lookups by kind and result",
				},
				[]string{"kind", "result"},
			),
			StageDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "certgate_stage_duration_seconds",
					Help:    "Pipeline stage processing duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"stage"},
			),
			KeytabReloads: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "certgate_keytab_reloads_total",
					Help: "Total keytab hot reloads by result",
				},
				[]string{"result"},
			),
		}

		registerer.MustRegister(
			m.AuthAttempts,
			m.AuthzDecisions,
			m.DirectoryLookups,
			m.StageDuration,
			m.KeytabReloads,
		)

		authMetricsInstance = m
	})

	return authMetricsInstance
}

// RecordAuthAttempt records an authentication attempt for a backend.
func (m *AuthMetrics) RecordAuthAttempt(backend, result string) {
	if m == nil {
		return
	}
	m.AuthAttempts.WithLabelValues(backend, result).Inc()
}

// RecordAuthzDecision records an authorization decision for a rule.
func (m *AuthMetrics) RecordAuthzDecision(rule, result string) {
	if m == nil {
		return
	}
	m.AuthzDecisions.WithLabelValues(rule, result).Inc()
}

// RecordDirectoryLookup records a directory lookup outcome.
func (m *AuthMetrics) RecordDirectoryLookup(kind, result string) {
	if m == nil {
		return
	}
	m.DirectoryLookups.WithLabelValues(kind, result).Inc()
}

// RecordStageDuration records the duration of a pipeline stage.
func (m *AuthMetrics) RecordStageDuration(stage string, duration time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordKeytabReload records a keytab hot reload attempt.
func (m *AuthMetrics) RecordKeytabReload(success bool) {
	if m == nil {
		return
	}
	if success {
		m.KeytabReloads.WithLabelValues("success").Inc()
	} else {
		m.KeytabReloads.WithLabelValues("failure").Inc()
	}
}
