package config

import (
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields. Zero values are replaced, explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyAPIDefaults(&cfg.API)
	applyMetricsDefaults(&cfg.Metrics)
	applyAuthDefaults(&cfg.Auth)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyAPIDefaults(cfg *APIConfig) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8080"
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":9090"
	}
}

func applyAuthDefaults(cfg *AuthConfig) {
	if cfg.Backend == "" {
		cfg.Backend = AuthPAM
	}
	if cfg.Accounts == "" {
		cfg.Accounts = AccountsPOSIX
	}
	if cfg.Authorization == "" {
		cfg.Authorization = AuthzPOSIX
	}
	if cfg.AdminGroup == "" && cfg.Authorization != AuthzWhitelist {
		cfg.AdminGroup = "sudo"
	}
	if cfg.PAMService == "" {
		cfg.PAMService = "sshd"
	}
	if cfg.GroupFile == "" {
		cfg.GroupFile = "/etc/group"
	}

	if cfg.Kerberos.MaxClockSkew == 0 {
		cfg.Kerberos.MaxClockSkew = 5 * time.Minute
	}

	if cfg.LDAP.UserFilter == "" {
		cfg.LDAP.UserFilter = "(&(objectClass=user)(sAMAccountName=%s))"
	}
	if cfg.LDAP.MembersFilter == "" {
		cfg.LDAP.MembersFilter = "(&(objectClass=group)(cn=%s)(member=%s))"
	}
	if cfg.LDAP.DialTimeout == 0 {
		cfg.LDAP.DialTimeout = 5 * time.Second
	}
	if cfg.LDAP.RequestTimeout == 0 {
		cfg.LDAP.RequestTimeout = 10 * time.Second
	}
}

// GetDefaultConfig returns a fully defaulted configuration, used when no
// config file exists and by "certgated config init".
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
