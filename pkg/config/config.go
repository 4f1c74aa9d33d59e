// Package config provides configuration management for gntaxid.
//
// This package has no I/O dependencies (no file operations, no network calls).
// Validation functions may write user-facing warnings via gn.Warn().
//
// # Configuration Sources
//
// Precedence (highest to lowest): CLI flags > env vars > config.yaml > defaults
//
// # Design Principles
//
// - Default config (from New()) is always valid - no validation needed
// - All mutations go through Option functions - the only way to modify Config
// - Invalid options are rejected with gn.Warn() - config remains in valid state
// - ToOptions() converts persistent fields (those in config.yaml)
// - Environment variables match ToOptions() fields exactly
//
// # Persistent vs Runtime Fields
//
// Persistent fields (in ToOptions, config.yaml, and env vars):
//   - Oracle: base_url, model, max_tokens, temperature
//   - Cache: dir, taxdump_url
//   - Log: level, format, destination
//   - General: jobs_number
//
// Runtime-only fields (CLI flags and environment only):
//   - Oracle.APIKey (credential, never written to config.yaml)
//   - Resolve.InputPath, OutputPath, WithAll (per-command)
//   - HomeDir (set once at startup)
//
// # Environment Variables
//
// Use GNTAXID_ prefix with underscores for nesting:
//
//	GNTAXID_ORACLE_API_KEY=sk-...
//	GNTAXID_ORACLE_MODEL=glm-4.5
//	GNTAXID_LOG_LEVEL=info
//	GNTAXID_JOBS_NUMBER=8
//
// ZHIPU_API_KEY, the provider's own variable, is honored when
// GNTAXID_ORACLE_API_KEY is not set.
package config

import (
	"path/filepath"
	"runtime"
)

// Config represents the complete gntaxid configuration.
type Config struct {
	// Oracle contains settings for the name conversion service.
	Oracle OracleConfig `mapstructure:"oracle" yaml:"oracle"`

	// Cache contains settings for the local taxonomy cache.
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	// Resolve contains settings specific to the resolve command.
	Resolve ResolveConfig `mapstructure:"resolve" yaml:"resolve"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// JobsNumber is the number of concurrent workers for parallel operations.
	// Default value is set according to the number of available threads.
	JobsNumber int `mapstructure:"jobs_number" yaml:"jobs_number"`

	// HomeDir determines where config, cache and logs directories reside.
	// It must be set by CLI during init, there is no default value for it.
	HomeDir string
}

// OracleConfig contains connection parameters for the GLM chat service
// used for common name / scientific name conversions.
type OracleConfig struct {
	// BaseURL is the root of the chat completions API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Model is the chat model asked to perform conversions.
	Model string `mapstructure:"model" yaml:"model"`

	// MaxTokens caps the answer length. Conversions are one short name,
	// so the cap is small.
	MaxTokens int `mapstructure:"max_tokens" yaml:"max_tokens"`

	// Temperature keeps answers deterministic. Low values are important,
	// conversions must not be creative.
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`

	// APIKey authenticates requests. It comes only from the environment
	// (GNTAXID_ORACLE_API_KEY or ZHIPU_API_KEY) and is never stored in
	// config.yaml.
	APIKey string
}

// CacheConfig contains settings for the local taxonomy cache built from
// the NCBI taxdump archive.
type CacheConfig struct {
	// Dir overrides the cache location. Empty means ~/.cache/gntaxid.
	Dir string `mapstructure:"dir" yaml:"dir"`

	// TaxdumpURL is the download location of the reference taxonomy
	// archive.
	TaxdumpURL string `mapstructure:"taxdump_url" yaml:"taxdump_url"`
}

// ResolveConfig contains settings specific to the resolve command.
type ResolveConfig struct {
	// InputPath is the CSV file to resolve. Runtime-only.
	InputPath string

	// OutputPath is where the resolved CSV is written. Empty means a
	// path derived from InputPath. Runtime-only.
	OutputPath string

	// WithAll makes resolve re-process rows that already carry all
	// identity fields. Uses pointer to distinguish unset (nil) and
	// false. Runtime-only.
	WithAll *bool
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format can be 'json', 'text' or 'tint' (user-facing and colored).
	Format string `mapstructure:"format"      yaml:"format"`
	// Level of logging -- 'error', 'warn', 'info', 'debug'
	Level string `mapstructure:"level"       yaml:"level"`
	// Destination can be a log file (to default place), STDERR or STDOUT
	Destination string `mapstructure:"destination" yaml:"destination"`
}

// New creates a Config with sensible default values, then applies the
// given options. The returned config is always valid and ready to use.
// Default values can also be overridden later via Update().
func New(opts ...Option) *Config {
	res := &Config{
		Oracle: OracleConfig{
			BaseURL:     "https://open.bigmodel.cn/api/paas/v4",
			Model:       "glm-4.5",
			MaxTokens:   50,
			Temperature: 0.1,
		},
		Cache: CacheConfig{
			TaxdumpURL: "https://ftp.ncbi.nih.gov/pub/taxonomy/taxdump.tar.gz",
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
			// for now file is rewritten every time the log starts
			Destination: "file",
		},
		JobsNumber: runtime.NumCPU(), // Default to number of CPU threads
	}

	for _, opt := range opts {
		opt(res)
	}
	return res
}

// TaxCacheDir returns the directory holding the taxonomy archive and
// database: the configured override, or the default under HomeDir.
func (c *Config) TaxCacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return CacheDir(c.HomeDir)
}

// SkipComplete reports whether rows that already carry all identity
// fields should be left alone. This is the default; WithAll turns it off.
func (c *Config) SkipComplete() bool {
	return c.Resolve.WithAll == nil || !*c.Resolve.WithAll
}

// OutputPath returns the configured output file, or a name derived from
// the input file ("data.csv" becomes "data_update.csv").
func (c *Config) OutputPath() string {
	if c.Resolve.OutputPath != "" {
		return c.Resolve.OutputPath
	}
	in := c.Resolve.InputPath
	ext := filepath.Ext(in)
	return in[:len(in)-len(ext)] + "_update" + ext
}
