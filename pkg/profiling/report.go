package profiling

import (
	"fmt"
	"io"
	"strconv"
)

var sortLabels = map[string]string{
	SortCumulative: "cumulative time",
	"cumulative":   "cumulative time",
	SortTotal:      "internal time",
	"time":         "internal time",
	SortCalls:      "call count",
	"ncalls":       "call count",
	SortPCalls:     "primitive call count",
	SortName:       "function name",
	SortFile:       "file name",
	"file":         "file name",
	SortLine:       "line number",
}

// PrintStats writes the first limit entries of stats in the classic
// "ncalls tottime percall cumtime percall" layout. It returns the first
// write error.
func PrintStats(w io.Writer, stats *Stats, limit int) error {
	pw := &printer{w: w}
	total, primitive := stats.TotalCalls()
	pw.printf("         %d function calls", total)
	if total != primitive {
		pw.printf(" (%d primitive calls)", primitive)
	}
	pw.printf(" in %.3f seconds\n\n", stats.Duration.Seconds())
	pw.printf("   Ordered by: %s\n", sortLabels[stats.SortKey])

	n := len(stats.Funcs)
	if limit < 0 {
		limit = 0
	}
	if limit < n {
		pw.printf("   List reduced from %d to %d due to restriction <%d>\n", n, limit, limit)
		n = limit
	}
	pw.printf("\n")

	if n == 0 {
		return pw.err
	}
	pw.printf("   ncalls  tottime  percall  cumtime  percall filename:lineno(function)\n")
	for _, fs := range stats.Funcs[:n] {
		pw.printf("%s\n", formatLine(fs))
	}
	pw.printf("\n")
	return pw.err
}

// printer latches the first write error and skips later writes.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func formatLine(fs *FuncStats) string {
	calls := strconv.FormatInt(fs.TotalCalls, 10)
	if fs.TotalCalls != fs.PrimitiveCalls {
		calls += "/" + strconv.FormatInt(fs.PrimitiveCalls, 10)
	}
	tot := fs.TotTime.Seconds()
	cum := fs.CumTime.Seconds()
	return fmt.Sprintf("%9s %8.3f %s %8.3f %s %s:%d(%s)",
		calls,
		tot, perCall(tot, fs.TotalCalls),
		cum, perCall(cum, fs.PrimitiveCalls),
		fs.Key.File, fs.Key.Line, fs.Key.ShortName())
}

func perCall(v float64, n int64) string {
	if n == 0 {
		return "        "
	}
	return fmt.Sprintf("%8.3f", v/float64(n))
}
