// Package config loads the YAML configuration used by the example
// server and wires it into DeepSeek clients and a model registry.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ncecere/completion-sdk/deepseek"
	"github.com/ncecere/completion-sdk/middleware"
	"github.com/ncecere/completion-sdk/provider"
	"github.com/ncecere/completion-sdk/providerutil"
	"github.com/ncecere/completion-sdk/registry"
)

// Config represents the complete application configuration.
type Config struct {
	Logging        LoggingConfig        `yaml:"logging"`
	DeepSeek       DeepSeekConfig       `yaml:"deepseek"`
	Models         map[string]string    `yaml:"models"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	Server         ServerConfig         `yaml:"server"`
}

type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	ReportCaller bool   `yaml:"report_caller"`
}

type DeepSeekConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Betas   []string      `yaml:"betas"`
	Timeout time.Duration `yaml:"timeout"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	FailureThreshold uint32        `yaml:"failure_threshold"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxRequests      uint32        `yaml:"max_requests"`
}

type ServerConfig struct {
	Address string `yaml:"address"`
}

// DefaultConfigPath is read when Load is called with an empty path.
const DefaultConfigPath = "config.yaml"

// Load reads configuration from a YAML file, expanding ${VAR}
// references against the environment, then applies environment
// overrides and defaults and validates the result. A missing file is
// not an error; defaults and the environment are used instead.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
		logrus.WithField("config_file", path).Debug("loaded configuration from YAML file")
	case errors.Is(err, os.ErrNotExist):
		logrus.WithField("config_file", path).Warn("config file not found, using defaults and environment variables")
	default:
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	applyEnvironmentOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with every default applied and no
// credential.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.DeepSeek.BaseURL == "" {
		cfg.DeepSeek.BaseURL = deepseek.DefaultBaseURL
	}
	if cfg.DeepSeek.Timeout == 0 {
		cfg.DeepSeek.Timeout = 60 * time.Second
	}
	if len(cfg.Models) == 0 {
		cfg.Models = map[string]string{
			"chat":  deepseek.DeepSeekChat,
			"coder": deepseek.DeepSeekCoder,
		}
	}
	d := middleware.DefaultCircuitBreakerOptions()
	if cfg.CircuitBreaker.FailureThreshold == 0 {
		cfg.CircuitBreaker.FailureThreshold = d.FailureThreshold
	}
	if cfg.CircuitBreaker.Timeout == 0 {
		cfg.CircuitBreaker.Timeout = d.Timeout
	}
	if cfg.CircuitBreaker.MaxRequests == 0 {
		cfg.CircuitBreaker.MaxRequests = d.MaxRequests
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
}

func applyEnvironmentOverrides(cfg *Config) {
	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" && cfg.DeepSeek.APIKey == "" {
		cfg.DeepSeek.APIKey = val
	}
	if val := os.Getenv("DEEPSEEK_BASE_URL"); val != "" {
		cfg.DeepSeek.BaseURL = val
	}
	if val := os.Getenv("DEEPSEEK_BETAS"); val != "" {
		cfg.DeepSeek.Betas = splitList(val)
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}
	if val := os.Getenv("CIRCUIT_BREAKER_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.CircuitBreaker.Enabled = b
		}
	}
	if val := os.Getenv("SERVER_ADDRESS"); val != "" {
		cfg.Server.Address = val
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports every invalid setting in a single error.
func (c *Config) Validate() error {
	var problems []string

	if c.DeepSeek.APIKey == "" {
		problems = append(problems, "deepseek.api_key is required (or set DEEPSEEK_API_KEY)")
	}
	if u, err := url.Parse(c.DeepSeek.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("deepseek.base_url must be an absolute http(s) URL (current: %q)", c.DeepSeek.BaseURL))
	}
	if c.DeepSeek.Timeout < 0 {
		problems = append(problems, "deepseek.timeout must not be negative")
	}
	if len(c.Models) == 0 {
		problems = append(problems, "at least one model must be configured")
	}
	for name, id := range c.Models {
		if strings.TrimSpace(id) == "" {
			problems = append(problems, fmt.Sprintf("models.%s must name a model id", name))
		}
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		problems = append(problems, fmt.Sprintf("logging.level %q is not a valid level", c.Logging.Level))
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("config: validation errors: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ConfigureLogging applies cfg to l, or to the standard logger when l
// is nil. Unknown levels fall back to info.
func ConfigureLogging(l *logrus.Logger, cfg LoggingConfig) {
	if l == nil {
		l = logrus.StandardLogger()
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch cfg.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	l.SetReportCaller(cfg.ReportCaller)
}

// DeepSeekOptions converts the deepseek section into client options.
func (c *Config) DeepSeekOptions() deepseek.Options {
	var httpClient provider.HTTPClient
	if c.DeepSeek.Timeout > 0 {
		httpClient = providerutil.WithHTTPTimeout(c.DeepSeek.Timeout)
	}
	return deepseek.Options{
		ClientOptions: provider.ClientOptions{
			BaseURL:    c.DeepSeek.BaseURL,
			APIKey:     c.DeepSeek.APIKey,
			HTTPClient: httpClient,
		},
		Betas: c.DeepSeek.Betas,
	}
}

// BuildRegistry creates one DeepSeek client and registers a model for
// every entry under models, keyed by its logical name. Each model is
// wrapped with logging and, when enabled, a circuit breaker.
func (c *Config) BuildRegistry(logger logrus.FieldLogger) (*registry.InMemoryRegistry, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	opts := c.DeepSeekOptions()
	opts.Logger = logger
	client, err := deepseek.NewClient(opts)
	if err != nil {
		return nil, err
	}

	reg := registry.NewInMemoryRegistry()
	for name, id := range c.Models {
		mws := []middleware.CompletionModelMiddleware{
			middleware.LoggingCompletionModel(middleware.LoggingOptions{Logger: logger, Model: id}),
		}
		if c.CircuitBreaker.Enabled {
			mws = append(mws, middleware.CircuitBreakerCompletionModel(middleware.CircuitBreakerOptions{
				Name:             name,
				FailureThreshold: c.CircuitBreaker.FailureThreshold,
				Timeout:          c.CircuitBreaker.Timeout,
				MaxRequests:      c.CircuitBreaker.MaxRequests,
				Logger:           logger,
			}))
		}
		reg.RegisterCompletionModel(name, middleware.WrapCompletionModel(client.CompletionModel(id), mws...))
		logger.WithFields(logrus.Fields{"name": name, "model": id}).Debug("registered completion model")
	}
	return reg, nil
}
