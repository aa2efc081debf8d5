// Package config loads and validates the certgate configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (CERTGATE_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// The authentication, accounts and authorization backends are static: they
// are read once at startup and never change while the process serves. An
// unrecognized backend value fails validation before the server starts.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Backend names accepted on the three configuration axes.
const (
	AuthKerberos = "kerberos"
	AuthLDAP     = "ldap"
	AuthPAM      = "pam"

	AccountsPOSIX = "posix"
	AccountsLDAP  = "ldap"

	AuthzPOSIX     = "posix"
	AuthzLDAP      = "ldap"
	AuthzWhitelist = "whitelist"
)

// Config is the certgate process configuration.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// API contains the HTTP listener configuration.
	API APIConfig `mapstructure:"api" yaml:"api"`

	// Metrics contains the Prometheus metrics listener configuration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Auth selects and parameterizes the authentication, accounts and
	// authorization backends.
	Auth AuthConfig `mapstructure:"auth" yaml:"auth"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level: DEBUG, INFO, WARN, ERROR.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format is the output format: text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// APIConfig contains the HTTP API server configuration.
type APIConfig struct {
	// ListenAddress is the host:port the API server binds to.
	ListenAddress string `mapstructure:"listen_address" validate:"required" yaml:"listen_address"`

	// RequestTimeout bounds the total processing time of a request,
	// including identity provider exchanges.
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"required,gt=0" yaml:"request_timeout"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// MetricsConfig contains the Prometheus metrics server configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics listener is started.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// ListenAddress is the host:port for the /metrics endpoint.
	ListenAddress string `mapstructure:"listen_address" yaml:"listen_address"`
}

// AuthConfig selects exactly one backend per axis plus backend parameters.
type AuthConfig struct {
	// Backend is the authentication backend: kerberos, ldap or pam.
	Backend string `mapstructure:"backend" validate:"required,oneof=kerberos ldap pam" yaml:"backend"`

	// Accounts is the account enrichment backend: posix or ldap.
	Accounts string `mapstructure:"accounts" validate:"required,oneof=posix ldap" yaml:"accounts"`

	// Authorization is the authorization backend: posix, ldap or whitelist.
	Authorization string `mapstructure:"authorization" validate:"required,oneof=posix ldap whitelist" yaml:"authorization"`

	// Domain is the service domain, used to qualify bare usernames into
	// UPNs and to synthesize mail addresses for POSIX accounts.
	Domain string `mapstructure:"domain" yaml:"domain"`

	// AdminGroup is the group granting administrative access when the
	// authorization backend is posix or ldap.
	AdminGroup string `mapstructure:"admin_group" yaml:"admin_group"`

	// AdminWhitelist enumerates identities granted administrative access
	// when the authorization backend is whitelist.
	AdminWhitelist []string `mapstructure:"admin_whitelist" yaml:"admin_whitelist,omitempty"`

	// PAMService is the PAM service name checked by the pam backend.
	PAMService string `mapstructure:"pam_service" yaml:"pam_service"`

	// GroupFile is the POSIX group database consulted by the posix
	// authorization backend. Overridable for tests.
	GroupFile string `mapstructure:"group_file" yaml:"group_file"`

	// Kerberos parameterizes the kerberos backend.
	Kerberos KerberosConfig `mapstructure:"kerberos" yaml:"kerberos"`

	// LDAP parameterizes the ldap backend, ldap accounts and ldap
	// authorization.
	LDAP LDAPConfig `mapstructure:"ldap" yaml:"ldap"`
}

// KerberosConfig contains Kerberos/SPNEGO service configuration.
//
// Environment variable overrides:
//
//	KRB5_KTNAME overrides KeytabPath (standard MIT variable)
//	CERTGATE_AUTH_KERBEROS_SERVICE_FQDN overrides ServiceFQDN
type KerberosConfig struct {
	// KeytabPath is the path to the service keytab. Falls back to the
	// KRB5_KTNAME environment variable when empty.
	KeytabPath string `mapstructure:"keytab_path" yaml:"keytab_path"`

	// ServiceFQDN is the canonical host name used to form the service
	// principal HTTP/<fqdn>. Resolved from the system hostname when empty.
	ServiceFQDN string `mapstructure:"service_fqdn" yaml:"service_fqdn"`

	// MaxClockSkew is the maximum tolerated clock difference during the
	// ticket exchange.
	MaxClockSkew time.Duration `mapstructure:"max_clock_skew" yaml:"max_clock_skew"`
}

// LDAPConfig contains directory server configuration.
type LDAPConfig struct {
	// Servers lists directory server URLs (ldap:// or ldaps://), tried in
	// order until one is reachable.
	Servers []string `mapstructure:"servers" yaml:"servers,omitempty"`

	// Base is the search base DN for user and group lookups.
	Base string `mapstructure:"base" yaml:"base"`

	// UserFilter is the filter template for user entry lookup. The single
	// %s placeholder receives the escaped account name.
	UserFilter string `mapstructure:"user_filter" yaml:"user_filter"`

	// MembersFilter is the filter template for group membership lookup.
	// The two %s placeholders receive the escaped group name and the
	// user's distinguished name.
	MembersFilter string `mapstructure:"members_filter" yaml:"members_filter"`

	// TicketCache is the Kerberos credential cache used for the service's
	// own GSSAPI bind during account enrichment. Falls back to the
	// KRB5CCNAME environment variable when empty.
	TicketCache string `mapstructure:"ticket_cache" yaml:"ticket_cache"`

	// Krb5Conf is the path to krb5.conf for the GSSAPI bind.
	Krb5Conf string `mapstructure:"krb5_conf" yaml:"krb5_conf"`

	// DialTimeout bounds the TCP connect to each directory server.
	DialTimeout time.Duration `mapstructure:"dial_timeout" validate:"omitempty,gt=0" yaml:"dial_timeout"`

	// RequestTimeout bounds each directory operation (bind, search).
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"omitempty,gt=0" yaml:"request_timeout"`
}

// Load loads configuration from file, environment, and defaults.
// An empty configPath uses defaults plus environment overrides only.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("CERTGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	var cfg Config
	hooks := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hooks)); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks structural constraints (tags) and the cross-field rules
// the backend selection implies.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	a := &cfg.Auth
	if a.Backend == AuthLDAP || a.Accounts == AccountsLDAP || a.Authorization == AuthzLDAP {
		if len(a.LDAP.Servers) == 0 {
			return fmt.Errorf("auth.ldap.servers must list at least one directory server when an ldap backend is selected")
		}
		if a.LDAP.Base == "" {
			return fmt.Errorf("auth.ldap.base is required when an ldap backend is selected")
		}
	}
	if a.Authorization == AuthzWhitelist && len(a.AdminWhitelist) == 0 {
		return fmt.Errorf("auth.admin_whitelist must not be empty with the whitelist authorization backend")
	}
	if (a.Authorization == AuthzPOSIX || a.Authorization == AuthzLDAP) && a.AdminGroup == "" {
		return fmt.Errorf("auth.admin_group is required with the %s authorization backend", a.Authorization)
	}
	return nil
}

// SaveConfig writes the configuration to path in YAML format. Restricted
// permissions: the file may name keytabs and whitelists.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
