// Package config loads driftsim settings from defaults, a YAML file,
// DRIFTSIM_* environment variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/oovm/ScreenshotSimulator/internal/color"
	"github.com/oovm/ScreenshotSimulator/internal/imageio"
	"github.com/oovm/ScreenshotSimulator/internal/logging"
	"github.com/oovm/ScreenshotSimulator/internal/pipeline"
)

// Defaults.
const (
	DefaultSourceProfile = "display-p3"
	DefaultTargetProfile = "srgb"
	DefaultIntent        = "perceptual"
	DefaultIterations    = 3
	DefaultOutputDir     = "frames"
	DefaultFormat        = "png"
	DefaultJPEGQuality   = imageio.DefaultQuality

	envPrefix = "DRIFTSIM_"
)

// ConfigFiles are searched in the working directory when no file is given.
var ConfigFiles = []string{"driftsim.yaml", "driftsim.yml"}

// Config holds every setting the CLI understands.
type Config struct {
	SourceProfile   string  `koanf:"source_profile"`
	TargetProfile   string  `koanf:"target_profile"`
	Intent          string  `koanf:"intent"`
	BPC             bool    `koanf:"bpc"`
	AdaptationState float64 `koanf:"adaptation_state"`
	Iterations      int     `koanf:"iterations"`
	Workers         int     `koanf:"workers"`

	OutputDir   string `koanf:"output_dir"`
	Format      string `koanf:"format"`
	Reencode    string `koanf:"reencode"`
	JPEGQuality int    `koanf:"jpeg_quality"`
	EmbedICC    string `koanf:"embed_icc"`

	LogLevel    string `koanf:"log_level"`
	LogJSON     bool   `koanf:"log_json"`
	MetricsFile string `koanf:"metrics_file"`

	// FileUsed is the config file that was read, empty if none.
	FileUsed string `koanf:"-"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"source_profile":   DefaultSourceProfile,
		"target_profile":   DefaultTargetProfile,
		"intent":           DefaultIntent,
		"bpc":              false,
		"adaptation_state": 0.0,
		"iterations":       DefaultIterations,
		"workers":          0,
		"output_dir":       DefaultOutputDir,
		"format":           DefaultFormat,
		"reencode":         "",
		"jpeg_quality":     DefaultJPEGQuality,
		"embed_icc":        "",
		"log_level":        logging.DefaultLevel,
		"log_json":         false,
		"metrics_file":     "",
	}
}

// findConfigFile returns explicit if set, otherwise the first default file
// that exists.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range ConfigFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load builds a Config. Precedence (highest to lowest): flags > env vars >
// config file > defaults. Only flags the user actually set take part.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment: DRIFTSIM_TARGET_PROFILE -> target_profile
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.FileUsed = used
	return &cfg, nil
}

// Validate checks that every setting names something that exists.
func (c *Config) Validate() error {
	if _, err := color.Builtin(c.SourceProfile); err != nil {
		return fmt.Errorf("source_profile: %w", err)
	}
	if _, err := color.Builtin(c.TargetProfile); err != nil {
		return fmt.Errorf("target_profile: %w", err)
	}
	if _, err := color.ParseIntent(c.Intent); err != nil {
		return fmt.Errorf("intent: %w", err)
	}
	if c.AdaptationState < 0 || c.AdaptationState > 1 {
		return fmt.Errorf("adaptation_state must be within [0, 1], got %g", c.AdaptationState)
	}
	if c.Iterations < 0 {
		return fmt.Errorf("iterations must not be negative, got %d", c.Iterations)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if _, err := c.OutputFormat(); err != nil {
		return fmt.Errorf("format: %w", err)
	}
	if _, err := c.ReencodeFormat(); err != nil {
		return fmt.Errorf("reencode: %w", err)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be within [1, 100], got %d", c.JPEGQuality)
	}
	if !logging.ValidLevel(c.LogLevel) {
		return fmt.Errorf("log_level: unknown level %q", c.LogLevel)
	}
	return nil
}

// OutputFormat returns the format frames are written in.
func (c *Config) OutputFormat() (imageio.Format, error) {
	return encodable(c.Format)
}

// ReencodeFormat returns the per-frame round-trip format, empty when off.
func (c *Config) ReencodeFormat() (imageio.Format, error) {
	if c.Reencode == "" {
		return "", nil
	}
	return encodable(c.Reencode)
}

func encodable(name string) (imageio.Format, error) {
	f, err := imageio.ParseFormat(name)
	if err != nil {
		return "", err
	}
	if !f.CanEncode() {
		return "", fmt.Errorf("%s can be read but not written", f)
	}
	return f, nil
}

// PipelineOptions converts the config into orchestration options. Call
// Validate first.
func (c *Config) PipelineOptions() (pipeline.Options, error) {
	intent, err := color.ParseIntent(c.Intent)
	if err != nil {
		return pipeline.Options{}, err
	}
	reencode, err := c.ReencodeFormat()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Source:          c.SourceProfile,
		Target:          c.TargetProfile,
		Intent:          intent,
		BPC:             c.BPC,
		AdaptationState: c.AdaptationState,
		Iterations:      c.Iterations,
		Workers:         c.Workers,
		Reencode:        reencode,
		Quality:         c.JPEGQuality,
	}, nil
}
