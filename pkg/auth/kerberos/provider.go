package kerberos

import (
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jcmturner/gokrb5/v8/keytab"

	"github.com/certgate/certgate/internal/logger"
	"github.com/certgate/certgate/internal/metrics"
	"github.com/certgate/certgate/pkg/config"
)

// EnvKeytabPath is the standard MIT environment variable naming the keytab.
const EnvKeytabPath = "KRB5_KTNAME"

// Provider manages the service keytab and principal state shared by all
// request exchanges.
//
// Thread safety: all methods are safe for concurrent use. The keytab can be
// hot-reloaded at runtime without disrupting in-flight exchanges.
type Provider struct {
	keytab           *keytab.Keytab
	servicePrincipal string
	fqdn             string
	maxClockSkew     time.Duration
	keytabPath       string
	keytabManager    *KeytabManager
	metrics          *metrics.AuthMetrics
	mu               sync.RWMutex
}

// NewProvider loads the keytab and resolves the service principal. This is
// the process-level startup check: any failure here means the kerberos
// capability refuses to serve.
//
// The keytab path comes from the configuration or, when unset, from the
// KRB5_KTNAME environment variable. m may be nil.
func NewProvider(cfg *config.KerberosConfig, m *metrics.AuthMetrics) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("kerberos config is nil")
	}

	keytabPath := cfg.KeytabPath
	if keytabPath == "" {
		keytabPath = os.Getenv(EnvKeytabPath)
	}
	if keytabPath == "" {
		return nil, fmt.Errorf("kerberos keytab not specified, set keytab_path or the %s environment variable", EnvKeytabPath)
	}
	if _, err := os.Stat(keytabPath); err != nil {
		return nil, fmt.Errorf("kerberos keytab %s does not exist: %w", keytabPath, err)
	}

	kt, err := keytab.Load(keytabPath)
	if err != nil {
		return nil, fmt.Errorf("load keytab %s: %w", keytabPath, err)
	}

	fqdn := cfg.ServiceFQDN
	if fqdn == "" {
		fqdn, err = canonicalFQDN()
		if err != nil {
			return nil, fmt.Errorf("resolve canonical host name: %w", err)
		}
	}

	p := &Provider{
		keytab:           kt,
		servicePrincipal: "HTTP/" + fqdn,
		fqdn:             fqdn,
		maxClockSkew:     cfg.MaxClockSkew,
		keytabPath:       keytabPath,
		metrics:          m,
	}

	km := NewKeytabManager(keytabPath, p)
	if err := km.Start(); err != nil {
		logger.Warn("keytab hot-reload failed to start, continuing without it",
			"path", keytabPath, "error", err)
	}
	p.keytabManager = km

	logger.Info("Kerberos enabled", "service_principal", p.servicePrincipal, "keytab", keytabPath)
	return p, nil
}

// Keytab returns the current keytab (thread-safe read).
func (p *Provider) Keytab() *keytab.Keytab {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.keytab
}

// ServicePrincipal returns the resolved service principal (HTTP/<fqdn>).
func (p *Provider) ServicePrincipal() string { return p.servicePrincipal }

// MaxClockSkew returns the maximum tolerated clock difference.
func (p *Provider) MaxClockSkew() time.Duration { return p.maxClockSkew }

// ReloadKeytab re-reads the keytab file and atomically swaps it, enabling
// keytab rotation without a server restart.
func (p *Provider) ReloadKeytab() error {
	kt, err := keytab.Load(p.keytabPath)
	if err != nil {
		p.metrics.RecordKeytabReload(false)
		return fmt.Errorf("reload keytab %s: %w", p.keytabPath, err)
	}

	p.mu.Lock()
	p.keytab = kt
	p.mu.Unlock()

	p.metrics.RecordKeytabReload(true)
	logger.Info("keytab reloaded", "path", p.keytabPath)
	return nil
}

// Close stops the keytab manager.
func (p *Provider) Close() {
	if p.keytabManager != nil {
		p.keytabManager.Stop()
	}
}

// canonicalFQDN resolves this host's canonical fully qualified name,
// preferring the DNS canonical name over the bare hostname.
func canonicalFQDN() (string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return "", err
	}
	if cname, err := net.LookupCNAME(hostname); err == nil && cname != "" {
		return strings.TrimSuffix(cname, "."), nil
	}
	return hostname, nil
}
