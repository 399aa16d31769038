package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oovm/ScreenshotSimulator/internal/color"
	"github.com/oovm/ScreenshotSimulator/internal/imageio"
)

var identifyCmd = &cobra.Command{
	Use:   "identify [file]",
	Short: "Inspect image and ICC profile info (also accepts bare .icc files)",
	Args:  cobra.ExactArgs(1),
	RunE:  runIdentify,
}

func init() {
	rootCmd.AddCommand(identifyCmd)
}

func runIdentify(cmd *cobra.Command, args []string) error {
	path := args[0]
	switch strings.ToLower(filepath.Ext(path)) {
	case ".icc", ".icm":
		return identifyProfile(cmd.OutOrStdout(), path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	info, err := imageio.GetInfo(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File:        %s\n", path)
	fmt.Fprintf(out, "Format:      %s\n", info.Format)
	fmt.Fprintf(out, "Dimensions:  %d x %d\n", info.Width, info.Height)
	fmt.Fprintf(out, "Color model: %s\n", info.ColorModel)
	fmt.Fprintf(out, "File size:   %d bytes (%.1f MB)\n", len(data), float64(len(data))/(1024*1024))

	switch {
	case info.ICC == nil:
		fmt.Fprintln(out, "ICC profile: none")
	case info.ProfileErr != nil:
		fmt.Fprintf(out, "ICC profile: present (%d bytes) but invalid: %v\n", len(info.ICC), info.ProfileErr)
	default:
		fmt.Fprintf(out, "ICC profile: %d bytes\n", len(info.ICC))
		printProfileInfo(out, info.Profile)
	}
	return nil
}

func identifyProfile(out io.Writer, path string) error {
	data, pi, err := color.ReadProfile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "File:        %s\n", path)
	fmt.Fprintf(out, "ICC profile: %d bytes\n", len(data))
	printProfileInfo(out, pi)
	return nil
}

func printProfileInfo(out io.Writer, pi *color.ProfileInfo) {
	fmt.Fprintf(out, "  Version:     %s\n", pi.Version)
	fmt.Fprintf(out, "  Color space: %s\n", color.ColorSpaceName(pi.ColorSpace))
	fmt.Fprintf(out, "  PCS:         %s\n", color.ColorSpaceName(pi.PCS))
	fmt.Fprintf(out, "  Class:       %s\n", color.ProfileClassName(pi.Class))
	fmt.Fprintf(out, "  Intent:      %s\n", pi.Intent)
}
