package flamegraph

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFoldedSortedAndSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	WriteFolded(&buf, map[string]int64{
		"main;b": 5,
		"main;a": 2,
		"main;z": 0,
	})
	assert.Equal(t, "main;a 2\nmain;b 5\n", buf.String())
}

func TestCollapseProfile(t *testing.T) {
	main := &profile.Function{ID: 1, Name: "github.com/x/app.main"}
	work := &profile.Function{ID: 2, Name: "github.com/x/app/pkg.work"}
	locMain := &profile.Location{ID: 1, Line: []profile.Line{{Function: main}}}
	locWork := &profile.Location{ID: 2, Line: []profile.Line{{Function: work}}}

	p := &profile.Profile{
		Sample: []*profile.Sample{
			{Location: []*profile.Location{locWork, locMain}, Value: []int64{3}},
			{Location: []*profile.Location{locMain}, Value: []int64{1}},
			{Location: []*profile.Location{locWork, locMain}, Value: []int64{2}},
			{Location: []*profile.Location{locMain}, Value: []int64{0}},
		},
	}

	var buf bytes.Buffer
	total := CollapseProfile(p, 0, &buf)
	assert.Equal(t, int64(6), total)
	assert.Equal(t, "app.main 1\napp.main;pkg.work 5\n", buf.String())
}

func TestParseFolded(t *testing.T) {
	root, err := parseFolded(strings.NewReader("a;b 3\na;c 2\na\n\nbad line x\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(6), root.value)
	a := root.children["a"]
	require.NotNil(t, a)
	assert.Equal(t, int64(5), a.value)
	assert.Equal(t, int64(3), a.children["b"].value)
	assert.Equal(t, int64(1), root.children["bad line"].value)
}

func TestGenerateSVG(t *testing.T) {
	var svg bytes.Buffer
	opts := DefaultSVGOptions()
	opts.Title = "Test <Graph>"
	opts.Unit = "ns"

	err := GenerateSVG(strings.NewReader("main;work 30\nmain 10\n"), &svg, opts)
	require.NoError(t, err)

	out := svg.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, "Test &lt;Graph&gt;")
	assert.Contains(t, out, "(40 ns)")
	assert.Contains(t, out, "<title>work (30 ns, 75.0%)</title>")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</svg>"))
}

func TestGenerateSVGEmpty(t *testing.T) {
	var svg bytes.Buffer
	err := GenerateSVG(strings.NewReader(""), &svg, DefaultSVGOptions())
	assert.EqualError(t, err, "no samples found in collapsed stacks")
}

func TestFitLabel(t *testing.T) {
	assert.Equal(t, "", fitLabel("anything", 40))
	assert.Equal(t, "short", fitLabel("short", 200))
	assert.Equal(t, "abcdef..", fitLabel("abcdefghijklmnop", 60))
}

func spin(ctx context.Context) error {
	x := 0
	for i := 0; i < 1_000_000; i++ {
		x += i % 7
	}
	_ = x
	return ctx.Err()
}

func TestCaptureRunsWorkload(t *testing.T) {
	res, err := Capture(context.Background(), CaptureOptions{Duration: 50 * time.Millisecond}, spin)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Iterations, 1)
	assert.GreaterOrEqual(t, res.Duration, 50*time.Millisecond)
	assert.NotEmpty(t, res.Profile)
}

func TestCaptureWritesRawProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpu.pb.gz")
	res, err := Capture(context.Background(), CaptureOptions{ProfilePath: path}, spin)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Iterations)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	prof, err := profile.Parse(f)
	require.NoError(t, err)
	assert.Equal(t, "cpu", prof.SampleType[1].Type)
}

func TestCaptureWorkloadError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Capture(ctx, CaptureOptions{}, spin)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workload failed")
}
