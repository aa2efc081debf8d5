package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilReceiverIsNoOp(t *testing.T) {
	var m *AuthMetrics

	assert.NotPanics(t, func() {
		m.RecordAuthAttempt("pam", "success")
		m.RecordAuthzDecision("whitelist", "denied")
		m.RecordDirectoryLookup("user", "hit")
		m.RecordStageDuration("authenticate", time.Millisecond)
		m.RecordKeytabReload(true)
	})
}

func TestCountersIncrement(t *testing.T) {
	m := NewAuthMetrics(prometheus.NewRegistry())

	m.RecordAuthAttempt("kerberos", "success")
	m.RecordAuthzDecision("ldap", "allowed")
	m.RecordDirectoryLookup("group", "miss")
	m.RecordKeytabReload(true)
	m.RecordKeytabReload(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthAttempts.WithLabelValues("kerberos", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthzDecisions.WithLabelValues("ldap", "allowed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DirectoryLookups.WithLabelValues("group", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.KeytabReloads.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.KeytabReloads.WithLabelValues("failure")))
}

func TestNewAuthMetricsIsIdempotent(t *testing.T) {
	first := NewAuthMetrics(prometheus.NewRegistry())
	second := NewAuthMetrics(prometheus.NewRegistry())

	assert.Same(t, first, second)
}
