package baseline

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/danpilch/perfkit/pkg/profiling"
)

// Severity indicates the magnitude of a cumulative time drift.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
	SeverityRegress  Severity = "regression"
)

// Comparison holds the drift analysis for a single function.
type Comparison struct {
	Function   string
	BaselineMS float64
	CurrentMS  float64
	CallsDelta int64
	DeltaPct   float64
	Severity   Severity
}

var (
	blTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	blHeader  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	blDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	blOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	blWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	blErr     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	blMinor   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// Compare matches rows by function and calculates cumulative time drift.
// Functions missing from either side are skipped.
func Compare(baseline *Baseline, current []profiling.Row) []Comparison {
	baselineMap := make(map[string]profiling.Row, len(baseline.Rows))
	for _, r := range baseline.Rows {
		baselineMap[r.Function] = r
	}

	var comparisons []Comparison
	for _, cur := range current {
		base, ok := baselineMap[cur.Function]
		if !ok {
			continue
		}

		var deltaPct float64
		if base.CumtimeMS != 0 {
			deltaPct = ((cur.CumtimeMS - base.CumtimeMS) / math.Abs(base.CumtimeMS)) * 100
		} else if cur.CumtimeMS != 0 {
			deltaPct = 100
		}

		comparisons = append(comparisons, Comparison{
			Function:   cur.Function,
			BaselineMS: base.CumtimeMS,
			CurrentMS:  cur.CumtimeMS,
			CallsDelta: cur.TotalCalls - base.TotalCalls,
			DeltaPct:   deltaPct,
			Severity:   classifySeverity(deltaPct),
		})
	}

	return comparisons
}

// Regressions counts comparisons classified as regression or major.
func Regressions(comparisons []Comparison) int {
	n := 0
	for _, c := range comparisons {
		if c.Severity == SeverityRegress || c.Severity == SeverityMajor {
			n++
		}
	}
	return n
}

func classifySeverity(deltaPct float64) Severity {
	absDelta := math.Abs(deltaPct)
	if absDelta < 5 {
		return SeverityNone
	}
	if absDelta < 15 {
		return SeverityMinor
	}
	if absDelta < 30 {
		return SeverityModerate
	}
	if deltaPct > 0 {
		return SeverityRegress
	}
	return SeverityMajor
}

// RenderComparison outputs a styled comparison table.
func RenderComparison(w io.Writer, baseline *Baseline, comparisons []Comparison) {
	fmt.Fprintln(w, blTitle.Render("Baseline Comparison"))
	fmt.Fprintln(w, blDim.Render(strings.Repeat("═", 100)))
	fmt.Fprintf(w, "Comparing against %s (from %s, id %s)\n\n",
		lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%q", baseline.Name)),
		blDim.Render(baseline.Timestamp.Format("2006-01-02 15:04:05")),
		blDim.Render(baseline.ID))

	fmt.Fprintf(w, "  %s %s %s %s %s %s\n",
		blHeader.Render("FUNCTION                                "),
		blHeader.Render("BASELINE MS"),
		blHeader.Render("CURRENT MS "),
		blHeader.Render("CALLS  "),
		blHeader.Render("DELTA    "),
		blHeader.Render("SEVERITY  "))
	fmt.Fprintln(w, "  "+blDim.Render(strings.Repeat("─", 100)))

	for _, c := range comparisons {
		deltaStr := fmt.Sprintf("%+.1f%%", c.DeltaPct)
		var sevStr string
		switch c.Severity {
		case SeverityRegress:
			sevStr = blErr.Render("REGRESSION")
		case SeverityMajor:
			sevStr = blErr.Render("MAJOR")
		case SeverityModerate:
			sevStr = blWarn.Render("moderate")
		case SeverityMinor:
			sevStr = blMinor.Render("minor")
		default:
			sevStr = blOK.Render("none")
		}

		fmt.Fprintf(w, "  %-42s %-13.3f %-13.3f %+-9d %-10s %s\n",
			truncate(trimPackagePath(c.Function), 42), c.BaselineMS, c.CurrentMS, c.CallsDelta, deltaStr, sevStr)
	}

	regressions := Regressions(comparisons)
	fmt.Fprintln(w)
	if regressions > 0 {
		fmt.Fprintf(w, "  %s\n", blErr.Render(fmt.Sprintf("%d potential regressions detected.", regressions)))
	} else {
		fmt.Fprintf(w, "  %s\n", blOK.Render("No significant regressions detected."))
	}
}

// trimPackagePath drops the import path before the last slash.
func trimPackagePath(fn string) string {
	if i := strings.LastIndex(fn, "/"); i >= 0 {
		return fn[i+1:]
	}
	return fn
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-2] + ".."
}
