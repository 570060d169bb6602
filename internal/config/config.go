// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN for the document store. When empty the
	// service falls back to the file-backed store under DataDir.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// DataDir is the directory for the file-backed document store (one
	// <name>.json per document). Used only when DATABASE_URL is empty.
	DataDir string `mapstructure:"DATA_DIR"`
	// UploadDir is the directory attachment content is stored under.
	UploadDir string `mapstructure:"UPLOAD_DIR"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// CodeReturnToClient when true enables the dev code endpoint
	// (GET /api/dev/code): no SMS needed to complete a login. Must not be
	// true when Env is production.
	CodeReturnToClient bool `mapstructure:"CODE_RETURN_TO_CLIENT"`
	// SMSLocalAPIKey is the API key for SMS Local code delivery. When empty
	// the service uses the logging notifier.
	SMSLocalAPIKey string `mapstructure:"SMS_LOCAL_API_KEY"`
	// SMSLocalSender is the optional sender ID for SMS Local.
	SMSLocalSender string `mapstructure:"SMS_LOCAL_SENDER"`
	// SMSLocalBaseURL is the SMS Local API base URL.
	SMSLocalBaseURL string `mapstructure:"SMS_LOCAL_BASE_URL"`
	// CORSAllowedOrigins is a comma-separated list of origins the web UI is
	// served from.
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	// OTLPEndpoint is the OTLP gRPC collector endpoint (e.g.
	// http://localhost:4317). Empty disables telemetry export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext OTLP connection even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment via Viper. Missing .env is ignored (e.g. in CI). Env vars
// override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("CODE_RETURN_TO_CLIENT", false)
	v.SetDefault("SMS_LOCAL_API_KEY", "")
	v.SetDefault("SMS_LOCAL_SENDER", "")
	v.SetDefault("SMS_LOCAL_BASE_URL", "https://www.smslocal.com/dev/bulkV2")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.CodeReturnToClient && cfg.Env == "production" {
		return nil, errors.New("config: CODE_RETURN_TO_CLIENT must not be true when APP_ENV=production")
	}
	if cfg.DatabaseURL == "" && cfg.DataDir == "" {
		return nil, errors.New("config: either DATABASE_URL or DATA_DIR must be set")
	}

	return &cfg, nil
}

// CORSAllowedOriginsList returns the allowed origins from the comma-separated
// config. Empty config yields nil (CORS disabled).
func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil || c.CORSAllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
