package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oovm/ScreenshotSimulator/internal/imageio"
	"github.com/oovm/ScreenshotSimulator/internal/pipeline"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert an image once from the source to the target profile",
	RunE:  runConvert,
}

func init() {
	fs := convertCmd.Flags()
	fs.StringP("input", "i", "", "Input image file")
	fs.StringP("output", "o", "", "Output image file (format from extension)")
	addLinkFlags(fs)
	fs.Int("jpeg-quality", imageio.DefaultQuality, "JPEG quality (1-100)")
	fs.String("embed-icc", "", "ICC profile to embed in the output")
	convertCmd.MarkFlagRequired("input")
	convertCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	outputPath, _ := cmd.Flags().GetString("output")

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	format, err := imageio.FormatFromPath(outputPath)
	if err != nil {
		return err
	}
	if !format.CanEncode() {
		return fmt.Errorf("cannot write %s files", format)
	}
	encOpts, err := encodeOptions(cfg)
	if err != nil {
		return err
	}

	inputData, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	opts, err := cfg.PipelineOptions()
	if err != nil {
		return err
	}
	opts.Iterations = 1
	opts.Reencode = ""
	opts.Logger = logger.Named("convert")

	result, err := pipeline.Run(cmd.Context(), inputData, opts)
	if err != nil {
		return fmt.Errorf("conversion: %w", err)
	}

	if err := writeImageFile(outputPath, result.Last(), format, encOpts); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Converted %dx%d %s\n", result.Width, result.Height, result.Pipeline)
	fmt.Fprintf(out, "Input:  %s (%d bytes)\n", inputPath, len(inputData))
	fmt.Fprintf(out, "Output: %s\n", outputPath)
	return nil
}
