package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/viralforge/dashboard-bff/internal/domain"
)

type Config struct {
	ServiceName string
	LogLevel    slog.Level

	HTTPPort int
	GRPCPort int

	BlobServiceURL    string
	ReportsServiceURL string
	DataServiceURL    string
	UpstreamTimeout   time.Duration

	RedisURL         string
	CacheEnabled     bool
	CacheReadTimeout time.Duration

	CORSAllowedOrigins  []string
	MaxUploadBytes      int64
	FanoutLimit         int
	HealthProbeInterval time.Duration
	RuntimeMetrics      bool
}

// ServiceURLs is the base address table handed to the upstream router.
func (c Config) ServiceURLs() map[domain.ServiceID]string {
	return map[domain.ServiceID]string{
		domain.ServiceBlob:    c.BlobServiceURL,
		domain.ServiceReports: c.ReportsServiceURL,
		domain.ServiceData:    c.DataServiceURL,
	}
}

type configFile struct {
	Service struct {
		Name     string `yaml:"name"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"service"`
	Upstreams struct {
		BlobURL        string `yaml:"blob_url"`
		ReportsURL     string `yaml:"reports_url"`
		DataURL        string `yaml:"data_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"upstreams"`
	Cache struct {
		RedisURL      string `yaml:"redis_url"`
		Enabled       *bool  `yaml:"enabled"`
		ReadTimeoutMS int    `yaml:"read_timeout_ms"`
	} `yaml:"cache"`
	HTTP struct {
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		MaxUploadMB        int      `yaml:"max_upload_mb"`
	} `yaml:"http"`
	Views struct {
		FanoutLimit int `yaml:"fanout_limit"`
	} `yaml:"views"`
	Health struct {
		ProbeIntervalSeconds int `yaml:"probe_interval_seconds"`
	} `yaml:"health"`
	Telemetry struct {
		RuntimeMetrics *bool `yaml:"runtime_metrics"`
	} `yaml:"telemetry"`
}

// LoadConfig layers defaults, the YAML file at path (optional), and the
// environment, in that order. Every backend must end up with an absolute
// http(s) base address.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceName:         "Dashboard-BFF",
		LogLevel:            slog.LevelInfo,
		HTTPPort:            8080,
		GRPCPort:            9090,
		BlobServiceURL:      "http://blob-service:8080",
		ReportsServiceURL:   "http://reports-service:8080",
		DataServiceURL:      "http://data-service:8080",
		UpstreamTimeout:     10 * time.Second,
		RedisURL:            "redis://:redispassword@redis:6379/0",
		CacheEnabled:        true,
		CacheReadTimeout:    500 * time.Millisecond,
		MaxUploadBytes:      64 << 20,
		FanoutLimit:         4,
		HealthProbeInterval: 30 * time.Second,
		RuntimeMetrics:      true,
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		applyFile(&cfg, f)
	case errors.Is(err, fs.ErrNotExist) || path == "":
	default:
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg.ServiceName = envOrDefault("SERVICE_NAME", cfg.ServiceName)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.BlobServiceURL = envOrDefault("BLOB_SERVICE_URL", cfg.BlobServiceURL)
	cfg.ReportsServiceURL = envOrDefault("REPORTS_SERVICE_URL", cfg.ReportsServiceURL)
	cfg.DataServiceURL = envOrDefault("DATA_SERVICE_URL", cfg.DataServiceURL)
	cfg.UpstreamTimeout = time.Duration(envInt("UPSTREAM_TIMEOUT_SECONDS", int(cfg.UpstreamTimeout.Seconds()))) * time.Second
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.CacheEnabled = envBool("CACHE_ENABLED", cfg.CacheEnabled)
	cfg.CacheReadTimeout = time.Duration(envInt("CACHE_READ_TIMEOUT_MS", int(cfg.CacheReadTimeout.Milliseconds()))) * time.Millisecond
	cfg.CORSAllowedOrigins = envCSV("CORS_ALLOWED_ORIGINS", cfg.CORSAllowedOrigins)
	cfg.MaxUploadBytes = int64(envInt("MAX_UPLOAD_MB", int(cfg.MaxUploadBytes>>20))) << 20
	cfg.FanoutLimit = envInt("VIEW_FANOUT_LIMIT", cfg.FanoutLimit)
	cfg.HealthProbeInterval = time.Duration(envInt("HEALTH_PROBE_INTERVAL_SECONDS", int(cfg.HealthProbeInterval.Seconds()))) * time.Second
	cfg.RuntimeMetrics = envBool("RUNTIME_METRICS", cfg.RuntimeMetrics)
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			return Config{}, fmt.Errorf("parse LOG_LEVEL: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, f configFile) {
	if f.Service.Name != "" {
		cfg.ServiceName = f.Service.Name
	}
	if f.Service.HTTPPort > 0 {
		cfg.HTTPPort = f.Service.HTTPPort
	}
	if f.Service.GRPCPort > 0 {
		cfg.GRPCPort = f.Service.GRPCPort
	}
	if f.Service.LogLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(f.Service.LogLevel)); err == nil {
			cfg.LogLevel = level
		}
	}
	if f.Upstreams.BlobURL != "" {
		cfg.BlobServiceURL = f.Upstreams.BlobURL
	}
	if f.Upstreams.ReportsURL != "" {
		cfg.ReportsServiceURL = f.Upstreams.ReportsURL
	}
	if f.Upstreams.DataURL != "" {
		cfg.DataServiceURL = f.Upstreams.DataURL
	}
	if f.Upstreams.TimeoutSeconds > 0 {
		cfg.UpstreamTimeout = time.Duration(f.Upstreams.TimeoutSeconds) * time.Second
	}
	if f.Cache.RedisURL != "" {
		cfg.RedisURL = f.Cache.RedisURL
	}
	if f.Cache.Enabled != nil {
		cfg.CacheEnabled = *f.Cache.Enabled
	}
	if f.Cache.ReadTimeoutMS > 0 {
		cfg.CacheReadTimeout = time.Duration(f.Cache.ReadTimeoutMS) * time.Millisecond
	}
	if len(f.HTTP.CORSAllowedOrigins) > 0 {
		cfg.CORSAllowedOrigins = trimNonEmpty(f.HTTP.CORSAllowedOrigins)
	}
	if f.HTTP.MaxUploadMB > 0 {
		cfg.MaxUploadBytes = int64(f.HTTP.MaxUploadMB) << 20
	}
	if f.Views.FanoutLimit > 0 {
		cfg.FanoutLimit = f.Views.FanoutLimit
	}
	if f.Health.ProbeIntervalSeconds > 0 {
		cfg.HealthProbeInterval = time.Duration(f.Health.ProbeIntervalSeconds) * time.Second
	}
	if f.Telemetry.RuntimeMetrics != nil {
		cfg.RuntimeMetrics = *f.Telemetry.RuntimeMetrics
	}
}

func (c Config) validate() error {
	for service, raw := range c.ServiceURLs() {
		parsed, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("%s service url %q must be an absolute http(s) url", service, raw)
		}
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive")
	}
	if c.CacheEnabled && strings.TrimSpace(c.RedisURL) == "" {
		return fmt.Errorf("REDIS_URL is required when the cache is enabled")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}
	if c.FanoutLimit <= 0 {
		return fmt.Errorf("view fanout limit must be positive")
	}
	if c.HealthProbeInterval <= 0 || c.CacheReadTimeout <= 0 {
		return fmt.Errorf("health probe interval and cache read timeout must be positive")
	}
	return nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	items := strings.Split(raw, ",")
	return trimNonEmpty(items)
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
