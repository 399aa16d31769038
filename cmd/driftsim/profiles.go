package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/oovm/ScreenshotSimulator/internal/color"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List built-in RGB profiles",
	RunE:  runProfiles,
}

func init() {
	profilesCmd.Flags().String("output-format", "table", "Output format (table, markdown, json)")
	rootCmd.AddCommand(profilesCmd)
}

type profileRow struct {
	Key     string     `json:"key"`
	Name    string     `json:"name"`
	PCS     string     `json:"pcs"`
	White   color.Vec3 `json:"white"`
	Intents []string   `json:"intents"`
	Matrix  color.Mat3 `json:"matrix"` // relative colorimetric device -> D50 XYZ
}

func runProfiles(cmd *cobra.Command, args []string) error {
	outputFormat, _ := cmd.Flags().GetString("output-format")

	var rows []profileRow
	for _, key := range color.BuiltinNames() {
		p, err := color.Builtin(key)
		if err != nil {
			return err
		}
		sd, err := p.DeviceToPCS(color.IntentRelativeColorimetric)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		row := profileRow{Key: key, Name: p.Name(), PCS: p.PCS().String(), White: p.WhitePoint(), Matrix: sd.Matrix}
		for _, intent := range color.Intents {
			if p.Supports(intent) {
				row.Intents = append(row.Intents, intent.String())
			}
		}
		rows = append(rows, row)
	}

	out := cmd.OutOrStdout()
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "table", "markdown", "md":
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Key", "Name", "PCS", "White (XYZ)", "Intents", "Matrix"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Key, r.Name, r.PCS, formatVec(r.White), strings.Join(r.Intents, ", "), formatMat(r.Matrix)})
	}
	if outputFormat == "table" {
		t.Render()
	} else {
		t.RenderMarkdown()
	}
	return nil
}

func formatVec(v color.Vec3) string {
	return fmt.Sprintf("%.4f %.4f %.4f", v[0], v[1], v[2])
}

func formatMat(m color.Mat3) string {
	rows := make([]string, len(m))
	for i, r := range m {
		rows[i] = formatVec(color.Vec3(r))
	}
	return strings.Join(rows, "\n")
}
