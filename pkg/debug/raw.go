package debug

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/danpilch/perfkit/pkg/profiling"
)

// DumpRawStats outputs every captured function with unscaled durations
// and its callers, in capture sort order.
func DumpRawStats(w io.Writer, stats *profiling.Stats) {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	fmt.Fprintln(w)
	fmt.Fprintln(w, title.Render("Raw Profile Dump"))
	fmt.Fprintln(w, dim.Render(strings.Repeat("═", 85)))
	fmt.Fprintf(w, "  %s %s %s %s\n",
		header.Render("FUNCTION                          "),
		header.Render("CALLS    "),
		header.Render("TOTTIME      "),
		header.Render("CUMTIME      "))
	fmt.Fprintln(w, "  "+dim.Render(strings.Repeat("─", 85)))

	for _, fs := range stats.Funcs {
		calls := fmt.Sprintf("%d/%d", fs.TotalCalls, fs.PrimitiveCalls)
		fmt.Fprintf(w, "  %-35s %-10s %-14v %-14v\n", fs.Key.ShortName(), calls, fs.TotTime, fs.CumTime)
		fmt.Fprintf(w, "    %s\n", dim.Render(fs.Key.File+":"+fmt.Sprint(fs.Key.Line)))
		for _, line := range callerLines(fs) {
			fmt.Fprintf(w, "    %s\n", dim.Render(line))
		}
	}
}

func callerLines(fs *profiling.FuncStats) []string {
	lines := make([]string, 0, len(fs.Callers))
	for k, n := range fs.Callers {
		name := "<root>"
		if k.Name != "" {
			name = k.ShortName()
		}
		lines = append(lines, fmt.Sprintf("<- %s x%d", name, n))
	}
	sort.Strings(lines)
	return lines
}
