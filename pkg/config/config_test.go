package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "perfkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.Profile.Enabled)
	assert.Equal(t, "cumtime", cfg.Profile.Sort)
	assert.Equal(t, 10, cfg.Profile.Rank)
	assert.Equal(t, 1.0, cfg.Profile.Frac)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
log_level: debug
workload: sort
profile:
  sort: tottime
  rank: 5
  frac: 0.2
  file: out.pb.gz
benchmark:
  iterations: 7
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "sort", cfg.Workload)
	assert.Equal(t, "tottime", cfg.Profile.Sort)
	assert.Equal(t, 5, cfg.Profile.Rank)
	assert.Equal(t, 0.2, cfg.Profile.Frac)
	assert.Equal(t, "out.pb.gz", cfg.Profile.File)
	assert.True(t, cfg.Profile.Enabled)
	assert.Equal(t, 1.0, cfg.Profile.TS)
	assert.Equal(t, 7, cfg.Benchmark.Iterations)
	assert.Equal(t, 3, cfg.Benchmark.Warmup)
	assert.Equal(t, "elapsed: ", cfg.Timing.Prefix)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "cannot read config")

	_, err = Load(writeFile(t, "profile: [unclosed"))
	assert.ErrorContains(t, err, "cannot parse config")

	_, err = Load(writeFile(t, "log_level: loud\n"))
	assert.ErrorContains(t, err, "invalid config")

	_, err = Load(writeFile(t, "benchmark:\n  iterations: 0\n"))
	assert.ErrorContains(t, err, "benchmark iterations must be at least 1")
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Default().Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "sort: cumtime")

	cfg, err := Load(writeFile(t, string(data)))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
