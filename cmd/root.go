// Package cmd provides the command-line interface for autoreveal.
//
// Configuration sources, in ascending precedence: .autoreveal.yml in the
// working directory, environment variables with the AUTOREVEAL_ prefix
// (AUTOREVEAL_SERVER_PORT, AUTOREVEAL_DEVELOPMENT_LIVE_RELOAD, ...), and
// command-line flags. AUTOREVEAL_CONFIG_FILE points at a custom config file.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/autoreveal/autoreveal/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "autoreveal",
	Short: "Build and serve reveal.js presentations from slide folders",
	Long: `AutoReveal builds a single self-contained reveal.js presentation from a
directory of slide folders, inlining externally referenced fragments, code
files, and Mermaid diagram sources, and serves the result with optional
watch and live-reload support for development.

Quick Start:
  autoreveal init                 Scaffold a new presentation
  autoreveal build                Build index.html once
  autoreveal serve --watch --live-reload
                                  Serve with rebuild-on-change and
                                  browser auto-refresh`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .autoreveal.yml, can also use AUTOREVEAL_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)
}

// normalizeFlagName lets users write --live_reload as well as --live-reload.
func normalizeFlagName(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// initConfig wires viper to the config file and AUTOREVEAL_ environment
// variables. A missing config file is not an error; defaults apply.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("AUTOREVEAL_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".autoreveal")
	}

	viper.SetEnvPrefix("AUTOREVEAL")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the process logger from the log-level and log-format
// settings.
func newLogger() logging.Logger {
	level := logging.LevelInfo
	switch strings.ToLower(viper.GetString("log-level")) {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: viper.GetString("log-format"),
		Output: os.Stderr,
	})
}
