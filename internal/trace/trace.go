// Package trace follows a single color through repeated float conversions,
// without the 8-bit quantization that ConvertImage applies between passes.
package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

// Transformer is the part of a Pipeline a trace needs.
type Transformer interface {
	Transform(in [3]float64) [3]float64
}

// Point is one step of a trace.
type Point struct {
	Index int        `json:"index" yaml:"index"`
	RGB   [3]float64 `json:"rgb" yaml:"rgb,flow"`
	Hex   string     `json:"hex" yaml:"hex"`
}

// Trace is the sequence start, p(start), p(p(start)), ...
type Trace struct {
	Pipeline string  `json:"pipeline,omitempty" yaml:"pipeline,omitempty"`
	Points   []Point `json:"points" yaml:"points"`
}

// Run applies p to start n times and records every value, start included.
func Run(p Transformer, start [3]float64, n int) Trace {
	tr := Trace{Points: make([]Point, 0, max(n, 0)+1)}
	if s, ok := p.(fmt.Stringer); ok {
		tr.Pipeline = s.String()
	}
	v := start
	tr.Points = append(tr.Points, Point{Index: 0, RGB: v, Hex: Hex(v)})
	for i := 1; i <= n; i++ {
		v = p.Transform(v)
		tr.Points = append(tr.Points, Point{Index: i, RGB: v, Hex: Hex(v)})
	}
	return tr
}

// Hex formats a normalized color as #RRGGBB using the same truncation as
// pixel conversion.
func Hex(v [3]float64) string {
	return fmt.Sprintf("#%02X%02X%02X", channel(v[0]), channel(v[1]), channel(v[2]))
}

func channel(x float64) uint8 {
	return uint8(max(0, min(x, 1)) * 255)
}

// Last returns the final point.
func (t Trace) Last() Point {
	return t.Points[len(t.Points)-1]
}

// Output formats understood by Write.
const (
	FormatTable    = "table"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
)

// Write renders t to w in the given format.
func (t Trace) Write(w io.Writer, format string) error {
	switch strings.ToLower(format) {
	case "", FormatTable:
		t.renderTable(w, false)
		return nil
	case FormatMarkdown, "md":
		t.renderTable(w, true)
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown trace format %q", format)
	}
}

func (t Trace) renderTable(w io.Writer, markdown bool) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "R", "G", "B", "Hex"})
	for _, p := range t.Points {
		tw.AppendRow(table.Row{
			p.Index,
			fmt.Sprintf("%.6f", p.RGB[0]),
			fmt.Sprintf("%.6f", p.RGB[1]),
			fmt.Sprintf("%.6f", p.RGB[2]),
			p.Hex,
		})
	}
	if markdown {
		tw.RenderMarkdown()
		return
	}
	tw.Render()
}
