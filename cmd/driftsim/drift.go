package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/oovm/ScreenshotSimulator/internal/color"
	"github.com/oovm/ScreenshotSimulator/internal/config"
	"github.com/oovm/ScreenshotSimulator/internal/drift"
	"github.com/oovm/ScreenshotSimulator/internal/imageio"
	"github.com/oovm/ScreenshotSimulator/internal/pipeline"
)

var driftCmd = &cobra.Command{
	Use:   "drift [file]",
	Short: "Convert an image repeatedly and write every frame",
	Args:  cobra.ExactArgs(1),
	RunE:  runDrift,
}

func init() {
	fs := driftCmd.Flags()
	addLinkFlags(fs)
	fs.IntP("iterations", "n", config.DefaultIterations, "Number of conversion passes")
	fs.StringP("output-dir", "o", config.DefaultOutputDir, "Directory for frame files")
	fs.String("format", config.DefaultFormat, "Frame file format (png, jpeg, bmp, tiff)")
	fs.String("reencode", "", "Save and reload each frame in this format between passes")
	fs.Int("jpeg-quality", config.DefaultJPEGQuality, "JPEG quality (1-100)")
	fs.String("embed-icc", "", "ICC profile to embed in every frame")
	fs.String("metrics-file", "", "Write prometheus metrics to this textfile")
	rootCmd.AddCommand(driftCmd)
}

func runDrift(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	inputPath := args[0]

	inputData, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	format, err := cfg.OutputFormat()
	if err != nil {
		return err
	}
	encOpts, err := encodeOptions(cfg)
	if err != nil {
		return err
	}

	opts, err := cfg.PipelineOptions()
	if err != nil {
		return err
	}
	opts.Logger = logger.Named("drift")
	opts.Observers = []drift.Observer{progressObserver(logger)}

	var reg *prometheus.Registry
	if cfg.MetricsFile != "" {
		reg = prometheus.NewRegistry()
		opts.Metrics = drift.NewMetrics(reg)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	result, runErr := pipeline.Run(ctx, inputData, opts)
	if result == nil {
		return fmt.Errorf("drift: %w", runErr)
	}

	// Partial runs still write the frames they produced.
	written, err := writeFrames(cfg.OutputDir, result.Frames, format, encOpts)
	if err != nil {
		return err
	}
	if reg != nil {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, reg); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session:  %s\n", result.ID)
	fmt.Fprintf(out, "Pipeline: %s\n", result.Pipeline)
	fmt.Fprintf(out, "Source:   %s (%s, %dx%d)\n", inputPath, result.SourceFormat, result.Width, result.Height)
	fmt.Fprintf(out, "State:    %s, %d frames in %s\n", result.State, len(written), cfg.OutputDir)

	if runErr != nil {
		return fmt.Errorf("drift: %w", runErr)
	}
	return nil
}

func progressObserver(logger hclog.Logger) drift.Observer {
	return drift.ObserverFuncs{
		OnFrame: func(index int, _ drift.Frame) {
			logger.Info("frame complete", "index", index)
		},
		OnFinish: func(state drift.State, err error) {
			if err != nil {
				logger.Warn("run ended", "state", state, "error", err)
			}
		},
	}
}

// encodeOptions resolves JPEG quality and the optional ICC profile to embed.
func encodeOptions(cfg *config.Config) (imageio.EncodeOptions, error) {
	opts := imageio.EncodeOptions{Quality: cfg.JPEGQuality}
	if cfg.EmbedICC == "" {
		return opts, nil
	}
	data, pi, err := color.ReadProfile(cfg.EmbedICC)
	if err != nil {
		return opts, err
	}
	if pi.ColorSpace != "RGB " {
		return opts, fmt.Errorf("%s is a %s profile, need RGB", cfg.EmbedICC, color.ColorSpaceName(pi.ColorSpace))
	}
	opts.ICC = data
	return opts, nil
}

func writeFrames(dir string, frames []drift.Frame, format imageio.Format, opts imageio.EncodeOptions) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	paths := make([]string, 0, len(frames))
	for _, f := range frames {
		path := filepath.Join(dir, fmt.Sprintf("frame-%03d%s", f.Index, format.Ext()))
		if err := writeImageFile(path, f, format, opts); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeImageFile(path string, f drift.Frame, format imageio.Format, opts imageio.EncodeOptions) error {
	data, err := imageio.EncodeBytes(f.Image, format, opts)
	if err != nil {
		return fmt.Errorf("encoding frame %d: %w", f.Index, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
