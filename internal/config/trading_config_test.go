package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTradingConfigValidates(t *testing.T) {
	cfg := DefaultTradingConfig()
	assert.Empty(t, cfg.Validate())
}

func TestValidateCatchesOutOfRangeRisk(t *testing.T) {
	cfg := DefaultTradingConfig()
	cfg.Risk.MaxDrawdownPct = 0
	cfg.Risk.MaxLeverage = 50
	errs := cfg.Validate()
	require.Len(t, errs, 2)
}

func TestValidateRequiresAtLeastOneModel(t *testing.T) {
	cfg := DefaultTradingConfig()
	cfg.Models.Enabled = nil
	errs := cfg.Validate()
	assert.Contains(t, errs, "models.enabled must register at least one model")
}

func TestValidateRejectsUnknownExecutionAlgorithm(t *testing.T) {
	cfg := DefaultTradingConfig()
	cfg.Execution.DefaultAlgorithm = "vwap-banana"
	errs := cfg.Validate()
	assert.NotEmpty(t, errs)
}

func TestLoadAndSaveTradingConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trading.yaml")

	original := DefaultTradingConfig()
	original.Capital.InitialCapital = 250000
	require.NoError(t, SaveTradingConfig(original, path))

	loaded, err := LoadTradingConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 250000.0, loaded.Capital.InitialCapital)
	assert.Empty(t, loaded.Validate())
}

func TestLoadTradingConfigMissingFile(t *testing.T) {
	_, err := LoadTradingConfig(filepath.Join(os.TempDir(), "does-not-exist-trading.yaml"))
	assert.Error(t, err)
}

func TestGetTradingConfigPathDefault(t *testing.T) {
	assert.Equal(t, filepath.Join("config", "trading.yaml"), GetTradingConfigPath())
}
