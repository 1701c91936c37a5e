package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", `
app:
  env: test
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "Asia/Kolkata", cfg.Session.Timezone)
	assert.Equal(t, 9, cfg.Session.OpenHour)
	assert.Equal(t, 15, cfg.Session.OpenMinute)
	assert.Equal(t, 30, cfg.Session.MonitoringIntervalSeconds)
	assert.InDelta(t, 6.5, cfg.Session.VolumeProjectionHours, 1e-9)

	assert.True(t, cfg.GapShort.Enabled)
	assert.Equal(t, 3, cfg.GapShort.MaxPositions)
	assert.InDelta(t, 0.4, cfg.GapShort.Weights.Pressure, 1e-9)
	assert.NotEmpty(t, cfg.GapShort.Universe)

	assert.Equal(t, 2, cfg.Breakout.MaxPositions)
	assert.Equal(t, 15, cfg.Breakout.OpeningRangeMinutes)

	assert.Equal(t, 1, cfg.Scalping.MaxPositions)
	assert.Equal(t, 45, cfg.Scalping.MaxHoldSeconds)
	assert.Equal(t, 120, cfg.Scalping.CooldownSeconds)
	assert.InDelta(t, 0.80, cfg.Scalping.MinConfidence, 1e-9)

	assert.Equal(t, 6, cfg.Multi.MaxTotalPositions)
	assert.Equal(t, 2, cfg.Multi.MaxPositionsPerSector)
	assert.InDelta(t, 4.0, cfg.Multi.PortfolioStopLossPct, 1e-9)
	assert.InDelta(t, 3.0, cfg.Multi.DailyProfitTargetPct, 1e-9)
	assert.InDelta(t, 0.7, cfg.Multi.SectorDampening, 1e-9)
	assert.False(t, cfg.Multi.AllowScalpingDuringSignals)
}

func TestLoadExplicitValuesWin(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", `
session:
  monitoring_interval_seconds: 10
multi:
  portfolio_stop_loss_pct: 2.5
  allow_scalping_during_signals: true
scalping:
  enabled: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Session.MonitoringIntervalSeconds)
	assert.InDelta(t, 2.5, cfg.Multi.PortfolioStopLossPct, 1e-9)
	assert.True(t, cfg.Multi.AllowScalpingDuringSignals)
	assert.False(t, cfg.Scalping.Enabled)
}

func TestLoadMergesIncludes(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", `
multi:
  portfolio_value: 2000000
`)
	path := writeConfig(t, dir, "config.yaml", `
include:
  - base.yaml
app:
  env: prod
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.App.Env)
	assert.InDelta(t, 2_000_000, cfg.Multi.PortfolioValue, 1e-9)
}

func TestLoadRejectsIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.yaml", `
include:
  - b.yaml
`)
	writeConfig(t, dir, "b.yaml", `
include:
  - a.yaml
`)
	_, err := Load(filepath.Join(dir, "a.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "include cycle")
}

func TestLoadRejectsInvalidTimezone(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", `
session:
  timezone: Not/AZone
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvertedSession(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", `
session:
  open_hour: 16
  close_hour: 9
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadSpreadTicks(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", `
scalping:
  min_spread_ticks: 5
  max_spread_ticks: 2
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsDuplicateUniverseSymbols(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", `
gap_short:
  universe:
    - symbol: TCS
      sector: IT
    - symbol: TCS
      sector: IT
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
