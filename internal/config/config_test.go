package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "playhead.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"addr": ":9000",
		"tokenTTL": "2h",
		"resume": {
			"minResumePct": 10,
			"maxResumePct": 85,
			"minResumeDurationSeconds": 600
		}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 2*time.Hour, time.Duration(cfg.TokenTTL))
	assert.Equal(t, float64(10), cfg.Resume.MinResumePct)
	assert.Equal(t, float64(85), cfg.Resume.MaxResumePct)
	assert.Equal(t, int64(600), cfg.Resume.MinResumeDurationSeconds)
	// Untouched fields keep their defaults.
	assert.Equal(t, Default().DatabasePath, cfg.DatabasePath)
}

func TestLoadRejectsBadThresholds(t *testing.T) {
	tests := []struct {
		name   string
		resume string
	}{
		{"min above max", `{"minResumePct": 95, "maxResumePct": 90, "minResumeDurationSeconds": 300}`},
		{"negative duration", `{"minResumePct": 5, "maxResumePct": 90, "minResumeDurationSeconds": -1}`},
		{"pct out of range", `{"minResumePct": -5, "maxResumePct": 90, "minResumeDurationSeconds": 300}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, `{"resume": `+tt.resume+`}`)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := writeConfig(t, `{"addr": `)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestStaticProvider(t *testing.T) {
	thresholds := ResumeThresholds{MinResumePct: 1, MaxResumePct: 99, MinResumeDurationSeconds: 60}
	provider := Static(thresholds)
	assert.Equal(t, thresholds, provider.ResumeThresholds())
}

func TestFileProviderServesLoadedThresholds(t *testing.T) {
	path := writeConfig(t, `{"resume": {"minResumePct": 7, "maxResumePct": 80, "minResumeDurationSeconds": 120}}`)

	provider, err := NewFileProvider(path)
	require.NoError(t, err)

	got := provider.ResumeThresholds()
	assert.Equal(t, float64(7), got.MinResumePct)
	assert.Equal(t, float64(80), got.MaxResumePct)
}

func TestFileProviderReload(t *testing.T) {
	path := writeConfig(t, `{"resume": {"minResumePct": 7, "maxResumePct": 80, "minResumeDurationSeconds": 120}}`)

	provider, err := NewFileProvider(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"resume": {"minResumePct": 9, "maxResumePct": 75, "minResumeDurationSeconds": 60}}`), 0o644))
	provider.reload()

	got := provider.ResumeThresholds()
	assert.Equal(t, float64(9), got.MinResumePct)
	assert.Equal(t, float64(75), got.MaxResumePct)
}

func TestFileProviderReloadKeepsPreviousOnError(t *testing.T) {
	path := writeConfig(t, `{"resume": {"minResumePct": 7, "maxResumePct": 80, "minResumeDurationSeconds": 120}}`)

	provider, err := NewFileProvider(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o644))
	provider.reload()

	got := provider.ResumeThresholds()
	assert.Equal(t, float64(7), got.MinResumePct, "bad reload keeps previous thresholds")
}
