// Package output provides formatters for exported profiling rows.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/danpilch/perfkit/pkg/profiling"
)

// Format represents the output format type.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatTSV      Format = "tsv"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatMarkdown, FormatTSV:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Formatter handles output formatting.
type Formatter struct {
	format Format
	writer io.Writer
	title  string
}

// NewFormatter creates a new formatter.
func NewFormatter(format Format, writer io.Writer) *Formatter {
	return &Formatter{
		format: format,
		writer: writer,
		title:  "Profile",
	}
}

// SetTitle sets the heading used by the table and markdown formats.
func (f *Formatter) SetTitle(title string) {
	f.title = title
}

// Summary aggregates a row set.
type Summary struct {
	Functions  int     `json:"functions"`
	TotalCalls int64   `json:"total_calls"`
	Primitive  int64   `json:"primitive_calls"`
	TottimeMS  float64 `json:"tottime_ms"`
	TopCumMS   float64 `json:"top_cumtime_ms"`
}

// Summarize calculates summary statistics from rows.
func Summarize(rows []profiling.Row) Summary {
	s := Summary{Functions: len(rows)}
	for _, r := range rows {
		s.TotalCalls += r.TotalCalls
		s.Primitive += r.PrimitiveCalls
		s.TottimeMS += r.TottimeMS
		if r.CumtimeMS > s.TopCumMS {
			s.TopCumMS = r.CumtimeMS
		}
	}
	return s
}

// Render outputs the rows in the configured format.
func (f *Formatter) Render(rows []profiling.Row) error {
	switch f.format {
	case FormatJSON:
		return f.renderJSON(rows)
	case FormatMarkdown:
		return f.renderMarkdown(rows)
	case FormatTSV:
		return f.renderTSV(rows)
	default:
		return f.renderTable(rows)
	}
}

func (f *Formatter) renderJSON(rows []profiling.Row) error {
	if rows == nil {
		rows = []profiling.Row{}
	}
	output := struct {
		Rows    []profiling.Row `json:"rows"`
		Summary Summary         `json:"summary"`
	}{
		Rows:    rows,
		Summary: Summarize(rows),
	}

	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// renderTable outputs rows as a styled table.
func (f *Formatter) renderTable(rows []profiling.Row) error {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	numStyle := cellStyle.Align(lipgloss.Right)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	fmt.Fprintln(f.writer, titleStyle.Render(f.title))
	fmt.Fprintln(f.writer, strings.Repeat("═", 60))
	fmt.Fprintln(f.writer)

	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{
			r.Function,
			fmt.Sprintf("%d", r.PrimitiveCalls),
			fmt.Sprintf("%d", r.TotalCalls),
			fmt.Sprintf("%.3f", r.TottimeMS),
			fmt.Sprintf("%.3f", r.CumtimeMS),
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return cellStyle
			default:
				return numStyle
			}
		}).
		Headers("FUNCTION", "PCALLS", "CALLS", "TOTTIME MS", "CUMTIME MS").
		Rows(data...)

	fmt.Fprintln(f.writer, t)
	fmt.Fprintln(f.writer)

	s := Summarize(rows)
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	fmt.Fprintln(f.writer, dim.Render(fmt.Sprintf("%d functions, %d calls (%d primitive), %.3f ms self time",
		s.Functions, s.TotalCalls, s.Primitive, s.TottimeMS)))
	return nil
}

// renderMarkdown outputs rows as a markdown report.
func (f *Formatter) renderMarkdown(rows []profiling.Row) error {
	fmt.Fprintf(f.writer, "# %s\n\n", f.title)
	if len(rows) == 0 {
		fmt.Fprintln(f.writer, "No functions captured.")
		return nil
	}

	fmt.Fprintln(f.writer, "| Function | Primitive calls | Total calls | Self ms | Cumulative ms |")
	fmt.Fprintln(f.writer, "|----------|-----------------|-------------|---------|---------------|")
	for _, r := range rows {
		name := r.Function
		if r.TotalCalls != r.PrimitiveCalls {
			name = fmt.Sprintf("**%s**", name)
		}
		fmt.Fprintf(f.writer, "| %s | %d | %d | %.3f | %.3f |\n",
			name, r.PrimitiveCalls, r.TotalCalls, r.TottimeMS, r.CumtimeMS)
	}
	fmt.Fprintln(f.writer)
	fmt.Fprintln(f.writer, "Bold functions are recursive (total calls exceed primitive calls).")
	return nil
}

// renderTSV outputs rows as tab-separated values.
func (f *Formatter) renderTSV(rows []profiling.Row) error {
	fmt.Fprintln(f.writer, strings.Join(profiling.Columns, "\t"))

	for _, r := range rows {
		if _, err := fmt.Fprintf(f.writer, "%s\t%d\t%d\t%.6f\t%.6f\n",
			r.Function, r.PrimitiveCalls, r.TotalCalls, r.TottimeMS, r.CumtimeMS); err != nil {
			return err
		}
	}

	return nil
}
