package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oovm/ScreenshotSimulator/internal/config"
	"github.com/oovm/ScreenshotSimulator/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "driftsim",
	Short:         "Simulate color drift from repeated RGB profile conversions",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (default: ./driftsim.yaml)")
	pf.String("log-level", logging.DefaultLevel, "Log level (trace, debug, info, warn, error)")
	pf.Bool("log-json", false, "Log as JSON")
}

// addLinkFlags registers the flags that select and link profiles.
func addLinkFlags(fs *pflag.FlagSet) {
	fs.String("source-profile", config.DefaultSourceProfile, "Built-in source profile (see 'driftsim profiles')")
	fs.String("target-profile", config.DefaultTargetProfile, "Built-in target profile")
	fs.String("intent", config.DefaultIntent, "Rendering intent (perceptual, relative, saturation, absolute)")
	fs.Bool("bpc", false, "Enable black point compensation")
	fs.Float64("adaptation-state", 0, "Absolute colorimetric adaptation state (0..1)")
	fs.Int("workers", 0, "Goroutines per frame (0 = GOMAXPROCS)")
}

// loadConfig resolves the effective config for cmd and builds its logger.
func loadConfig(cmd *cobra.Command) (*config.Config, hclog.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger := logging.NewLogger("driftsim", cfg.LogLevel, cfg.LogJSON, cmd.ErrOrStderr())
	if cfg.FileUsed != "" {
		logger.Debug("loaded config file", "path", cfg.FileUsed)
	}
	return cfg, logger, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
