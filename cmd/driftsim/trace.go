package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oovm/ScreenshotSimulator/internal/pipeline"
	"github.com/oovm/ScreenshotSimulator/internal/trace"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Follow one color through repeated float conversions",
	RunE:  runTrace,
}

func init() {
	fs := traceCmd.Flags()
	addLinkFlags(fs)
	fs.Float64Slice("rgb", []float64{0.8, 0.5, 0.9}, "Start color as normalized r,g,b")
	fs.Int("steps", 10, "Number of conversions to apply")
	fs.String("output-format", trace.FormatTable, "Output format (table, markdown, json, yaml)")
	rootCmd.AddCommand(traceCmd)
}

func runTrace(cmd *cobra.Command, args []string) error {
	rgb, _ := cmd.Flags().GetFloat64Slice("rgb")
	steps, _ := cmd.Flags().GetInt("steps")
	outputFormat, _ := cmd.Flags().GetString("output-format")

	if len(rgb) != 3 {
		return fmt.Errorf("--rgb needs exactly 3 components, got %d", len(rgb))
	}
	for _, c := range rgb {
		if c < 0 || c > 1 {
			return fmt.Errorf("--rgb components must be within [0, 1], got %v", rgb)
		}
	}
	if steps < 0 {
		return fmt.Errorf("--steps must not be negative")
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := cfg.PipelineOptions()
	if err != nil {
		return err
	}
	p, err := pipeline.Build(opts)
	if err != nil {
		return fmt.Errorf("link: %w", err)
	}
	logger.Debug("tracing", "pipeline", p.String(), "steps", steps)

	tr := trace.Run(p, [3]float64{rgb[0], rgb[1], rgb[2]}, steps)
	return tr.Write(cmd.OutOrStdout(), outputFormat)
}
