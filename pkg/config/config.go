// Package config loads the engine's configuration knobs from environment
// variables.
package config

import "os"

// Config holds the compliance engine configuration.
type Config struct {
	// ControlID tags every audit entry (SOC 2 control reference).
	ControlID string
	// PolicyVersion is stamped on every decision.
	PolicyVersion string
	// CPIAPIKey enables the external CPI provider; empty means fallback only.
	CPIAPIKey string
	// PackCacheEnabled toggles the effective-pack cache.
	PackCacheEnabled bool
	// AuditEnabled toggles best-effort audit emission.
	AuditEnabled bool
	// OTLPEndpoint is the OTLP gRPC collector address; empty disables export.
	OTLPEndpoint string
	// DatabaseURL is the optional Postgres DSN for the config source and
	// audit store.
	DatabaseURL string
	// RedisAddr is the optional Redis address for the CPI cache.
	RedisAddr string
	// LogLevel sets the slog level (DEBUG, INFO, WARN, ERROR).
	LogLevel string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	controlID := os.Getenv("COMPLIANCE_CONTROL_ID")
	if controlID == "" {
		controlID = "CC7.3"
	}

	policyVersion := os.Getenv("COMPLIANCE_POLICY_VERSION")
	if policyVersion == "" {
		policyVersion = "1.0.0"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	return &Config{
		ControlID:        controlID,
		PolicyVersion:    policyVersion,
		CPIAPIKey:        os.Getenv("CPI_API_KEY"),
		PackCacheEnabled: os.Getenv("COMPLIANCE_PACK_CACHE_DISABLED") != "true",
		AuditEnabled:     os.Getenv("COMPLIANCE_AUDIT_DISABLED") != "true",
		OTLPEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		LogLevel:         logLevel,
	}
}
