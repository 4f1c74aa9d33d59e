/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/gnames/gn"
	"github.com/gnames/gntaxid/internal/iofs"
	"github.com/gnames/gntaxid/internal/iologger"
	"github.com/gnames/gntaxid/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	homeDir string
	opts    []config.Option
	cfg     *config.Config
)

// getRootCmd returns the root command.
// Extracted as a function to facilitate testing and dynamic
// command registration.
func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Version: versionString(),
		Use:     "gntaxid",
		Short:   "gntaxid fills scientific names and taxonomy IDs for species lists",
		Long: `gntaxid normalizes species identity in CSV files. Rows with a common
name, a scientific (Latin) name, or both get their missing pieces
filled in: scientific names are recovered through a language-model
conversion and confirmed against the NCBI reference taxonomy, which
also supplies the taxonomy ID.

The reference taxonomy lives in a local cache, so lookups are fast
and work offline once 'gntaxid fetch' has built it.

Configuration precedence (highest to lowest):
  1. CLI flags
  2. Environment variables (GNTAXID_*)
  3. Config file (~/.config/gntaxid/config.yaml)
  4. Built-in defaults

The conversion service credential comes only from the environment,
never from the config file:
  GNTAXID_ORACLE_API_KEY   preferred
  ZHIPU_API_KEY            the provider's own variable, honored too`,
		PersistentPreRunE: bootstrap,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}

	// Remove the automatic "gntaxid version" prefix
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	// Override version flag to use -V (consistent with other gn projects)
	rootCmd.Flags().BoolP("version", "V", false, "version for gntaxid")

	rootCmd.AddCommand(getResolveCmd())
	rootCmd.AddCommand(getFetchCmd())

	return rootCmd
}

func bootstrap(cmd *cobra.Command, args []string) error {
	var err error
	homeDir, err = os.UserHomeDir()
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureDirs(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	// Initialize logging with hardcoded defaults
	// Will be reconfigured later with user's config settings
	defaultLog := config.LogConfig{
		Format:      "json",
		Level:       "info",
		Destination: "file",
	}
	if err = iologger.Init(config.LogDir(homeDir), defaultLog, false); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureConfigFile(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	gn.Info(
		"Configuration files are available at <em>%s</em>",
		config.ConfigDir(homeDir),
	)

	var cfgViper *config.Config
	if cfgViper, err = initConfig(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	cfg = config.New()
	opts = cfgViper.ToOptions()
	cfg.Update(opts)

	// Set HomeDir after config is loaded
	cfg.Update([]config.Option{config.OptHomeDir(homeDir)})

	// The conversion service credential never lives in config.yaml;
	// it comes from the environment only.
	if key := oracleKeyFromEnv(); key != "" {
		cfg.Update([]config.Option{config.OptOracleAPIKey(key)})
	}

	// Reconfigure logging with user's settings, appending so the
	// entries written during bootstrap survive
	if err = reconfigureLogging(cfg); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	slog.Info("Configuration loaded", "config_file", config.ConfigFilePath(homeDir))

	return nil
}

// reconfigureLogging reinitializes the logger with the loaded configuration.
// Creates log file in the proper location now that we know HomeDir.
func reconfigureLogging(cfg *config.Config) error {
	logDir := config.LogDir(cfg.HomeDir)
	return iologger.Init(logDir, cfg.Log, true)
}

// oracleKeyFromEnv finds the conversion service credential.
func oracleKeyFromEnv() string {
	if key := os.Getenv("GNTAXID_ORACLE_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("ZHIPU_API_KEY")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := getRootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}

func initConfig(home string) (*config.Config, error) {
	var err error
	cfgPath := config.ConfigFilePath(home)
	v := viper.New()
	v.SetConfigFile(cfgPath)

	initEnvVars(v)

	if err = v.ReadInConfig(); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	var res config.Config
	if err = v.Unmarshal(&res); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	return &res, nil
}

func initEnvVars(v *viper.Viper) {
	// Set environment variables we want.
	// We set them manually so we can see clearly which env variables are allowed.
	// These match the fields included in config.ToOptions() - i.e., persistent
	// configuration that can be stored in config.yaml.
	v.SetEnvPrefix("GNTAXID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Oracle configuration (the API key is handled separately and is
	// never unmarshaled from the config file)
	v.BindEnv("oracle.base_url", "GNTAXID_ORACLE_BASE_URL")
	v.BindEnv("oracle.model", "GNTAXID_ORACLE_MODEL")
	v.BindEnv("oracle.max_tokens", "GNTAXID_ORACLE_MAX_TOKENS")
	v.BindEnv("oracle.temperature", "GNTAXID_ORACLE_TEMPERATURE")

	// Cache configuration
	v.BindEnv("cache.dir", "GNTAXID_CACHE_DIR")
	v.BindEnv("cache.taxdump_url", "GNTAXID_CACHE_TAXDUMP_URL")

	// Log configuration
	v.BindEnv("log.level", "GNTAXID_LOG_LEVEL")
	v.BindEnv("log.format", "GNTAXID_LOG_FORMAT")
	v.BindEnv("log.destination", "GNTAXID_LOG_DESTINATION")

	// General configuration
	v.BindEnv("jobs_number", "GNTAXID_JOBS_NUMBER")

	v.AutomaticEnv()
}
