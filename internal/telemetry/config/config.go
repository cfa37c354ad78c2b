// Package config loads tracer configuration from environment variables via
// envconfig, optionally overlaid on a YAML file read with goccy/go-yaml —
// env wins over file, matching the teacher's env-first convention while
// supplementing it with a file format for the larger include/exclude
// pattern lists a shell environment is awkward for.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all tracer configuration.
type Config struct {
	Server    ServerConfig
	Trace     TraceConfig
	Ingest    IngestConfig
	Egress    EgressConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds the demo HTTP server's own bind settings.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// TraceConfig mirrors the Configuration keys of §6.
type TraceConfig struct {
	Instrument            bool     `envconfig:"TRACE_INSTRUMENT" default:"true"`
	Include               []string `yaml:"include"`
	Exclude               []string `yaml:"exclude"`
	ParserPlugins         []string `yaml:"parserPlugins"`
	Mode                  string   `envconfig:"TRACE_MODE" default:"trace"`
	SamplingMs            int      `envconfig:"TRACE_SAMPLING_MS" default:"100"`
	WrapGettersSetters    bool     `yaml:"wrapGettersSetters"`
	SkipAnonymous         bool     `yaml:"skipAnonymous"`
	AllowFns              []string `yaml:"allowFns"`
	DisableFunctionTraces []string `yaml:"disableFunctionTraces"`
	DisableFunctionTypes  []string `yaml:"disableFunctionTypes"`
	DisableTraceFiles     []string `yaml:"disableTraceFiles"`
	LogFunctionCalls      bool     `envconfig:"TRACE_LOG_CALLS" default:"false"`
	TraceInterceptors     bool     `envconfig:"TRACE_INTERCEPTORS" default:"false"`

	Quiet               bool `envconfig:"TRACE_QUIET" default:"false"`
	DebugUnawaited      bool `envconfig:"TRACE_DEBUG_UNAWAITED" default:"false"`
	LingerAfterFinishMs int  `envconfig:"TRACE_LINGER_AFTER_FINISH_MS" default:"200"`
	IdleFlushMs         int  `envconfig:"TRACE_IDLE_FLUSH_MS" default:"1000"`
}

// IngestConfig holds C7 middleware header names and batch sizing.
type IngestConfig struct {
	SessionHeader   string `envconfig:"INGEST_SESSION_HEADER" default:"x-bug-session-id"`
	ActionHeader    string `envconfig:"INGEST_ACTION_HEADER" default:"x-bug-action-id"`
	StartHeader     string `envconfig:"INGEST_START_HEADER" default:"x-bug-request-start"`
	HardDeadlineMs  int    `envconfig:"INGEST_HARD_DEADLINE_MS" default:"30000"`
	BatchSize       int    `envconfig:"INGEST_BATCH_SIZE" default:"200"`
}

// EgressConfig configures the outbound POST to the ingestion API.
type EgressConfig struct {
	APIBase  string `envconfig:"EGRESS_API_BASE" default:"http://localhost:4000"`
	AppID    string `envconfig:"EGRESS_APP_ID"`
	AppName  string `envconfig:"EGRESS_APP_NAME"`
	AppSecret string `envconfig:"EGRESS_APP_SECRET"`
	TenantID string `envconfig:"EGRESS_TENANT_ID"`
	Gzip     bool   `envconfig:"EGRESS_GZIP" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting settings: the demo uses them for
// the inbound per-IP request limiter, and RequestsPerSecond also sets the
// egress client's single, process-wide outbound limiter.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"50"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"100"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// fileOverlay is the subset of Config fields that make sense to author in
// a YAML file (mostly the long pattern lists under Trace).
type fileOverlay struct {
	Trace TraceConfig `yaml:"trace"`
}

// Load loads configuration from environment variables, then overlays a
// YAML file named by TRACE_CONFIG_FILE if it exists. Env values always win
// for scalar fields; file-only fields (the pattern lists) are taken from
// the file when the environment didn't already populate them.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if path := os.Getenv("TRACE_CONFIG_FILE"); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	return &cfg, nil
}

func overlayFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return err
	}

	if len(cfg.Trace.Include) == 0 {
		cfg.Trace.Include = overlay.Trace.Include
	}
	if len(cfg.Trace.Exclude) == 0 {
		cfg.Trace.Exclude = overlay.Trace.Exclude
	}
	if len(cfg.Trace.ParserPlugins) == 0 {
		cfg.Trace.ParserPlugins = overlay.Trace.ParserPlugins
	}
	if len(cfg.Trace.AllowFns) == 0 {
		cfg.Trace.AllowFns = overlay.Trace.AllowFns
	}
	if len(cfg.Trace.DisableFunctionTraces) == 0 {
		cfg.Trace.DisableFunctionTraces = overlay.Trace.DisableFunctionTraces
	}
	if len(cfg.Trace.DisableFunctionTypes) == 0 {
		cfg.Trace.DisableFunctionTypes = overlay.Trace.DisableFunctionTypes
	}
	if len(cfg.Trace.DisableTraceFiles) == 0 {
		cfg.Trace.DisableTraceFiles = overlay.Trace.DisableTraceFiles
	}
	if !cfg.Trace.WrapGettersSetters {
		cfg.Trace.WrapGettersSetters = overlay.Trace.WrapGettersSetters
	}
	if !cfg.Trace.SkipAnonymous {
		cfg.Trace.SkipAnonymous = overlay.Trace.SkipAnonymous
	}

	return nil
}

// LoadOrDefault loads configuration, falling back to Default on any error.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns a conservative default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8000", Host: "0.0.0.0"},
		Trace: TraceConfig{
			Instrument:          true,
			Mode:                "trace",
			SamplingMs:          100,
			LingerAfterFinishMs: 200,
			IdleFlushMs:         1000,
		},
		Ingest: IngestConfig{
			SessionHeader:  "x-bug-session-id",
			ActionHeader:   "x-bug-action-id",
			StartHeader:    "x-bug-request-start",
			HardDeadlineMs: 30000,
			BatchSize:      200,
		},
		Egress: EgressConfig{
			APIBase: "http://localhost:4000",
			Gzip:    true,
		},
		Logging: LogConfig{Level: "info", Development: false},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
			Enabled:           true,
		},
	}
}
