package config

import (
	"strings"
)

// Option is a function that modifies a Config.
// Options validate inputs and reject invalid values with warnings.
type Option func(*Config)

// OptOracleBaseURL sets the root URL of the chat completions API.
func OptOracleBaseURL(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "/")
	return func(c *Config) {
		if isValidString("Oracle BaseURL", s) {
			c.Oracle.BaseURL = s
		}
	}
}

// OptOracleModel sets the chat model used for name conversions.
func OptOracleModel(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Oracle Model", s) {
			c.Oracle.Model = s
		}
	}
}

// OptOracleMaxTokens caps the length of conversion answers.
func OptOracleMaxTokens(i int) Option {
	return func(c *Config) {
		if isValidInt("Oracle MaxTokens", i) {
			c.Oracle.MaxTokens = i
		}
	}
}

// OptOracleTemperature sets the sampling temperature for conversions.
// Valid range is 0 to 2; conversions want low values.
func OptOracleTemperature(f float64) Option {
	return func(c *Config) {
		if isValidFloat("Oracle Temperature", f) {
			c.Oracle.Temperature = f
		}
	}
}

// OptOracleAPIKey sets the credential for the conversion service.
// Runtime-only field - comes from the environment, not in ToOptions().
func OptOracleAPIKey(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		// empty key is legal here; the oracle client rejects it when
		// a command actually needs conversions
		c.Oracle.APIKey = s
	}
}

// OptCacheDir overrides the location of the taxonomy cache.
func OptCacheDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Cache Dir", s) {
			c.Cache.Dir = s
		}
	}
}

// OptCacheTaxdumpURL sets the download location of the reference
// taxonomy archive.
func OptCacheTaxdumpURL(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Cache TaxdumpURL", s) {
			c.Cache.TaxdumpURL = s
		}
	}
}

// OptResolveInputPath sets the CSV file to resolve.
// Runtime-only field - not in ToOptions().
func OptResolveInputPath(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Input Path", s) {
			c.Resolve.InputPath = s
		}
	}
}

// OptResolveOutputPath sets where the resolved CSV is written.
// Runtime-only field - not in ToOptions().
func OptResolveOutputPath(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Output Path", s) {
			c.Resolve.OutputPath = s
		}
	}
}

// OptResolveWithAll sets whether complete rows are re-processed.
// Uses pointer to distinguish between unset (nil) and false.
// Runtime-only field - not in ToOptions().
func OptResolveWithAll(b *bool) Option {
	return func(c *Config) {
		if b != nil {
			c.Resolve.WithAll = b
		}
	}
}

// OptLogLevel sets the logging level.
// Valid values: "debug", "info", "warn", "error".
func OptLogLevel(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Level", s) {
			c.Log.Level = s
		}
	}
}

// OptLogFormat sets the log output format.
// Valid values: "json", "text", "tint".
func OptLogFormat(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Format", s) {
			c.Log.Format = s
		}
	}
}

// OptLogDestination sets where logs are written.
// Valid values: "file", "stdin", "stdout".
func OptLogDestination(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Destination", s) {
			c.Log.Destination = s
		}
	}
}

// OptJobsNumber sets the number of concurrent workers for parallel operations.
// Default is runtime.NumCPU().
func OptJobsNumber(i int) Option {
	return func(c *Config) {
		if isValidInt("Jobs Number", i) {
			c.JobsNumber = i
		}
	}
}

// OptHomeDir sets the home directory for config, cache, and log locations.
// Set once at startup from os.UserHomeDir().
// Runtime-only field - not in ToOptions().
func OptHomeDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Home Directory", s) {
			c.HomeDir = s
		}
	}
}
