// Package config loads the service configuration from defaults, an optional
// YAML file, a .env file and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/FranksOps/sitefind/internal/scraper"
	"github.com/FranksOps/sitefind/internal/serp"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting the service and the CLI need.
type Config struct {
	Port               int           `mapstructure:"port"`
	ScraperAPIKey      string        `mapstructure:"scraperapi_key"`
	ScraperAPIEndpoint string        `mapstructure:"scraperapi_endpoint"`
	SearchLanguage     string        `mapstructure:"search_language"`
	SearchCountry      string        `mapstructure:"search_country"`
	SearchNumResults   int           `mapstructure:"search_num_results"`
	ResultCap          int           `mapstructure:"result_cap"`
	ExtractMode        string        `mapstructure:"extract_mode"`
	UpstreamTimeout    time.Duration `mapstructure:"upstream_timeout"`
	MetricsPort        int           `mapstructure:"metrics_port"`
	LogLevel           string        `mapstructure:"log_level"`
	LogFormat          string        `mapstructure:"log_format"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
}

// envBindings maps config keys to their environment variables.
var envBindings = map[string]string{
	"port":                 "PORT",
	"scraperapi_key":       "SCRAPERAPI_KEY",
	"scraperapi_endpoint":  "SCRAPERAPI_ENDPOINT",
	"search_language":      "SEARCH_LANGUAGE",
	"search_country":       "SEARCH_COUNTRY",
	"search_num_results":   "SEARCH_NUM_RESULTS",
	"result_cap":           "RESULT_CAP",
	"extract_mode":         "EXTRACT_MODE",
	"upstream_timeout":     "UPSTREAM_TIMEOUT",
	"metrics_port":         "METRICS_PORT",
	"log_level":            "LOG_LEVEL",
	"log_format":           "LOG_FORMAT",
	"cors_allowed_origins": "CORS_ALLOWED_ORIGINS",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 10000)
	v.SetDefault("scraperapi_endpoint", scraper.DefaultEndpoint)
	v.SetDefault("search_language", "it")
	v.SetDefault("search_country", "it")
	v.SetDefault("search_num_results", 10)
	v.SetDefault("result_cap", serp.DefaultCap)
	v.SetDefault("extract_mode", "flat")
	v.SetDefault("upstream_timeout", "60s")
	v.SetDefault("metrics_port", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("cors_allowed_origins", []string{"*"})
}

// Load builds the configuration. A .env file in the working directory is
// loaded first without overriding variables already set. When path is empty
// ./config.yaml is read if present; an explicit path must exist.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.ScraperAPIKey = strings.TrimSpace(cfg.ScraperAPIKey)
	cfg.CORSAllowedOrigins = splitOrigins(cfg.CORSAllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// splitOrigins flattens comma separated entries, as they arrive from the
// environment, into one origin per element.
func splitOrigins(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, origin := range strings.Split(entry, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				out = append(out, origin)
			}
		}
	}
	return out
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("metrics_port %d out of range", c.MetricsPort))
	}
	if c.MetricsPort != 0 && c.MetricsPort == c.Port {
		errs = append(errs, errors.New("metrics_port must differ from port"))
	}
	if u, err := url.Parse(c.ScraperAPIEndpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("scraperapi_endpoint %q is not an http(s) URL", c.ScraperAPIEndpoint))
	}
	if c.SearchNumResults < 1 || c.SearchNumResults > 100 {
		errs = append(errs, fmt.Errorf("search_num_results %d out of range 1-100", c.SearchNumResults))
	}
	if c.ResultCap < 1 {
		errs = append(errs, fmt.Errorf("result_cap must be positive, got %d", c.ResultCap))
	}
	if _, ok := serp.ParseMode(c.ExtractMode); !ok {
		errs = append(errs, fmt.Errorf("unknown extract_mode %q", c.ExtractMode))
	}
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, fmt.Errorf("upstream_timeout must be positive, got %s", c.UpstreamTimeout))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Extractor returns the candidate extractor selected by ExtractMode.
func (c *Config) Extractor() serp.CandidateExtractor {
	ex, ok := serp.ParseMode(c.ExtractMode)
	if !ok {
		return serp.NewExtractor()
	}
	return ex
}

// Google returns the query composer for the configured locale.
func (c *Config) Google() serp.Google {
	return serp.Google{
		Language:   c.SearchLanguage,
		Country:    c.SearchCountry,
		NumResults: c.SearchNumResults,
	}
}

// FetchConfig returns the proxy fetcher settings.
func (c *Config) FetchConfig() scraper.FetchConfig {
	return scraper.FetchConfig{
		Endpoint: c.ScraperAPIEndpoint,
		APIKey:   c.ScraperAPIKey,
		Timeout:  c.UpstreamTimeout,
	}
}

// NewLogger builds a slog logger writing to w in the configured level and
// format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log_level %q", s)
	}
	return level, nil
}
