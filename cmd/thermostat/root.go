// cmd/thermostat/root.go
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/tamzrod/thermostat/internal/config"
)

var (
	cfgPath  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "thermostat",
	Short: "Networked thermostat: persistent settings and report cycle",
	Long: `Runs the thermostat report cycle against a host build of the settings store.

Settings live in a tagged binary record on the configured byte store
(memory, sqlite or a Modbus register bank) and are updated from the
report server's responses.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log_level (trace, debug, info, warn, error)")
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads, validates and normalizes the config. No file means
// every default.
func loadConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if cfgPath != "" {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("config load failed: %w", err)
		}
	}
	if logLevel != "" {
		cfg.Device.LogLevel = logLevel
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)
	return cfg, nil
}

func newLogger(level string, out io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "thermostat",
		Level:  hclog.LevelFromString(level),
		Output: out,
	})
}
