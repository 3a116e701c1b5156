package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-heat/internal/heatmap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	p, ok := cfg.Preset("")
	require.True(t, ok)
	assert.Equal(t, "density", p.Property)
	assert.Equal(t, "#ff6600", p.Color)
	assert.Equal(t, []float64{50, 100, 150, 200, 250, 300, 350, 400, 450}, p.Thresholds)
	assert.Equal(t, []string{"density"}, cfg.PresetNames())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
heatmap:
  presets:
    income:
      property: median_income
      thresholds: [20000, 40000, 80000]
      color: "#3388ff"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, []string{"density", "income"}, cfg.PresetNames())

	p, ok := cfg.Preset("income")
	require.True(t, ok)
	assert.Equal(t, heatmap.Options{
		Property:   "median_income",
		Thresholds: []float64{20000, 40000, 80000},
		Color:      "#3388ff",
	}, p)
}

func TestLoadExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "heat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidPreset(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
heatmap:
  presets:
    broken:
      property: density
      thresholds: [100, 50]
      color: "#ff6600"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	_, err := Load("")
	assert.True(t, eris.Is(err, heatmap.ErrInvalidInput))
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chdirTemp(t)
	t.Setenv("HEAT_LOG_LEVEL", "error")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestInitLogger(t *testing.T) {
	orig := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(orig) })

	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.False(t, zap.L().Core().Enabled(zap.InfoLevel))

	assert.Error(t, InitLogger(LogConfig{Level: "loud"}))
}
