package main

import (
	"bytes"
	"encoding/json"
	"os"
	"net"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := newApp(&out, &errOut).execute(args)
	return out.String(), errOut.String(), err
}

func TestWorkloadsCommand(t *testing.T) {
	out, _, err := run(t, "workloads")
	require.NoError(t, err)
	assert.Equal(t, "alloc\nencode\nfib\nsort\n", out)
}

func TestTimeCommand(t *testing.T) {
	out, _, err := run(t, "time", "--prefix", "fib took ", "fib")
	require.NoError(t, err)
	assert.Regexp(t, `^fib took +\d+\.\d{2} ms\n$`, out)
}

func TestTimeCommandQuietWithReport(t *testing.T) {
	out, _, err := run(t, "time", "-q", "--report", "fib", "sort")
	require.NoError(t, err)
	assert.NotContains(t, out, "elapsed: ")
	assert.Contains(t, out, "Workload Timing Report")
	assert.Contains(t, out, "sort")
}

func TestTimeUnknownWorkload(t *testing.T) {
	_, _, err := run(t, "time", "nope")
	assert.ErrorContains(t, err, `unknown workload "nope"`)
}

func TestProfileCommandJSON(t *testing.T) {
	out, _, err := run(t, "profile", "--rank", "2", "--frac", "0.5", "-f", "json", "sort")
	require.NoError(t, err)

	idx := strings.Index(out, "{")
	require.GreaterOrEqual(t, idx, 0)
	report, export := out[:idx], out[idx:]
	assert.Contains(t, report, "function calls")
	assert.Contains(t, report, "List reduced from 4 to 2 due to restriction <2>")

	var doc struct {
		Rows []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(export), &doc))
	assert.Len(t, doc.Rows, 2)
}

func TestProfileCommandDisabled(t *testing.T) {
	out, errOut, err := run(t, "profile", "--disabled", "fib")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Profiling disabled")
}

func TestProfileCommandDumpAndBaseline(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(dir, "fib.pb.gz")
	cfgPath := filepath.Join(dir, "perfkit.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("baseline:\n  dir: "+dir+"\nformat: tsv\n"), 0644))

	out, _, err := run(t, "-c", cfgPath, "profile", "-o", dump, "--save-baseline", "base", "fib")
	require.NoError(t, err)
	assert.Contains(t, out, "function\tprimitive_calls")
	assert.FileExists(t, dump)
	assert.FileExists(t, filepath.Join(dir, "base.json"))

	out, _, err = run(t, "-c", cfgPath, "baseline", "list")
	require.NoError(t, err)
	assert.Equal(t, "base\n", out)

	out, _, err = run(t, "-c", cfgPath, "baseline", "compare", "base")
	require.NoError(t, err)
	assert.Contains(t, out, "Baseline Comparison")
	assert.Contains(t, out, "workload.fib")
}

func TestBaselineSave(t *testing.T) {
	dir := t.TempDir()
	out, _, err := run(t, "baseline", "--dir", dir, "save", "s1", "sort")
	require.NoError(t, err)
	assert.Contains(t, out, `Saved baseline "s1" with 4 rows`)
	assert.FileExists(t, filepath.Join(dir, "s1.json"))
}

func TestBaselineSaveRejectsTraversal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "baselines")
	_, _, err := run(t, "baseline", "--dir", dir, "save", "../escape", "fib")
	assert.ErrorContains(t, err, "invalid baseline name")
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dir), "escape.json"))
}

func TestProfileUnknownSort(t *testing.T) {
	_, _, err := run(t, "profile", "--sort", "bogus", "fib")
	assert.ErrorContains(t, err, `unknown sort key "bogus"`)
}

func TestProfileBadFormat(t *testing.T) {
	_, _, err := run(t, "profile", "-f", "xml", "fib")
	assert.ErrorContains(t, err, `unknown output format "xml"`)
}

func TestFlamegraphTracer(t *testing.T) {
	dir := t.TempDir()
	svg := filepath.Join(dir, "fg.svg")
	folded := filepath.Join(dir, "fg.folded")

	out, _, err := run(t, "flamegraph", "-o", svg, "--folded", folded, "sort")
	require.NoError(t, err)
	assert.Contains(t, out, "Flame graph written to "+svg)

	data, err := os.ReadFile(folded)
	require.NoError(t, err)
	assert.Contains(t, string(data), "workload.mergeSort;workload.merge ")

	svgData, err := os.ReadFile(svg)
	require.NoError(t, err)
	assert.Contains(t, string(svgData), "sort (tracer)")
}

func TestFlamegraphUnknownSource(t *testing.T) {
	_, _, err := run(t, "flamegraph", "--source", "perf", "-o", filepath.Join(t.TempDir(), "x.svg"))
	assert.ErrorContains(t, err, `unknown source "perf"`)
}

func TestBenchCommand(t *testing.T) {
	out, _, err := run(t, "bench", "-n", "3", "--warmup", "0", "fib")
	require.NoError(t, err)
	assert.Contains(t, out, "Benchmark Results")
	assert.Contains(t, out, "fib")
	assert.Contains(t, out, "Counters: ops=")
}

func TestBenchRejectsNegativeCounts(t *testing.T) {
	_, _, err := run(t, "bench", "-n", "-1", "fib")
	assert.ErrorContains(t, err, "iterations must be at least 1")

	_, _, err = run(t, "bench", "--warmup", "-1", "fib")
	assert.ErrorContains(t, err, "warmup must not be negative")
}

func TestConfigCommandShowsOverrides(t *testing.T) {
	out, _, err := run(t, "-f", "json", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "format: json")
	assert.Contains(t, out, "workload: fib")
	assert.Contains(t, out, "iterations: 20")
}

func TestPprofServerStopsWhenCommandFails(t *testing.T) {
	_, errOut, err := run(t, "-v", "--trace", "--pprof-addr", "127.0.0.1:0", "time", "nope")
	require.Error(t, err)

	m := regexp.MustCompile(`pprof: listen - (\S+)`).FindStringSubmatch(errOut)
	require.Len(t, m, 2)
	assert.Contains(t, errOut, "pprof server shut down")
	_, err = net.Dial("tcp", m[1])
	assert.Error(t, err)
}

func TestBadConfig(t *testing.T) {
	_, _, err := run(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), "workloads")
	assert.ErrorContains(t, err, "cannot read config")
}
