package config

import (
	"fmt"
	"io/ioutil"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// TradingConfig represents the top-level trading system configuration.
type TradingConfig struct {
	Capital    CapitalConfig    `yaml:"capital"`
	Risk       RiskConfig       `yaml:"risk"`
	Execution  ExecutionConfig  `yaml:"execution"`
	Models     ModelsConfig     `yaml:"models"`
	Learning   LearningConfig   `yaml:"learning"`
	Drift      DriftConfig      `yaml:"drift"`
}

// CapitalConfig controls starting capital and target risk.
type CapitalConfig struct {
	InitialCapital   float64 `yaml:"initial_capital"`
	TargetVolatility float64 `yaml:"target_volatility"`
}

// RiskConfig mirrors the Risk Manager's limit thresholds.
type RiskConfig struct {
	MaxPositionPct    float64 `yaml:"max_position_pct"`
	MaxDailyLossPct   float64 `yaml:"max_daily_loss_pct"`
	MaxDrawdownPct    float64 `yaml:"max_drawdown_pct"`
	MaxLeverage       float64 `yaml:"max_leverage"`
	MinLiquidityRatio float64 `yaml:"min_liquidity_ratio"`
	MaxSectorExposure float64 `yaml:"max_sector_exposure"`
}

// ExecutionConfig controls order sizing and trade cadence.
type ExecutionConfig struct {
	MinTradeIntervalSeconds int     `yaml:"min_trade_interval_seconds"`
	MaxOrderValue           float64 `yaml:"max_order_value"`
	MinOrderValue           float64 `yaml:"min_order_value"`
	DefaultAlgorithm        string  `yaml:"default_algorithm"`
}

// ModelsConfig controls which alpha models run (a model missing from
// Enabled runs) and the model selector's Thompson-sampling decay.
// EnsembleMinConfidence is range-checked by Validate but not read by
// the ensemble, which applies its own fixed minimum-confidence gate and
// Thompson decay.
type ModelsConfig struct {
	Enabled             map[string]bool `yaml:"enabled"`
	EnsembleMinConfidence float64       `yaml:"ensemble_min_confidence"`
	ThompsonDecay       float64         `yaml:"thompson_decay"`
}

// LearningConfig controls the online learner's retrain schedule.
type LearningConfig struct {
	RetrainFrequencyDays int `yaml:"retrain_frequency_days"`
	MinSamplesForRetrain int `yaml:"min_samples_for_retrain"`
	ValidationWindowDays int `yaml:"validation_window_days"`
}

// DriftConfig controls the drift detector's window size and
// significance thresholds.
type DriftConfig struct {
	WindowSize     int     `yaml:"window_size"`
	PValueThreshold float64 `yaml:"p_value_threshold"`
	PSIThreshold   float64 `yaml:"psi_threshold"`
}

// LoadTradingConfig loads trading configuration from file.
func LoadTradingConfig(configPath string) (*TradingConfig, error) {
	data, err := ioutil.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read trading config: %w", err)
	}

	config := DefaultTradingConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse trading config YAML: %w", err)
	}

	return config, nil
}

// SaveTradingConfig saves trading configuration to file.
func SaveTradingConfig(config *TradingConfig, configPath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal trading config: %w", err)
	}

	if err := ioutil.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write trading config: %w", err)
	}

	return nil
}

// Validate checks the configuration for internally inconsistent or
// unsafe values, returning one message per violation. An empty slice
// means the configuration is safe to run.
func (tc *TradingConfig) Validate() []string {
	var errs []string

	if tc.Capital.InitialCapital <= 0 {
		errs = append(errs, fmt.Sprintf("initial_capital %.2f must be positive", tc.Capital.InitialCapital))
	}
	if tc.Capital.TargetVolatility <= 0 || tc.Capital.TargetVolatility > 1.0 {
		errs = append(errs, fmt.Sprintf("target_volatility %.2f outside (0, 1.0] range", tc.Capital.TargetVolatility))
	}

	if tc.Risk.MaxPositionPct <= 0 || tc.Risk.MaxPositionPct > 1.0 {
		errs = append(errs, fmt.Sprintf("max_position_pct %.2f outside (0, 1.0] range", tc.Risk.MaxPositionPct))
	}
	if tc.Risk.MaxDailyLossPct <= 0 || tc.Risk.MaxDailyLossPct > 0.5 {
		errs = append(errs, fmt.Sprintf("max_daily_loss_pct %.2f outside (0, 0.5] range", tc.Risk.MaxDailyLossPct))
	}
	if tc.Risk.MaxDrawdownPct <= 0 || tc.Risk.MaxDrawdownPct > 0.5 {
		errs = append(errs, fmt.Sprintf("max_drawdown_pct %.2f outside (0, 0.5] range", tc.Risk.MaxDrawdownPct))
	}
	if tc.Risk.MaxLeverage < 1.0 || tc.Risk.MaxLeverage > 10.0 {
		errs = append(errs, fmt.Sprintf("max_leverage %.2f outside [1.0, 10.0] range", tc.Risk.MaxLeverage))
	}
	if tc.Risk.MinLiquidityRatio < 0 || tc.Risk.MinLiquidityRatio > 1.0 {
		errs = append(errs, fmt.Sprintf("min_liquidity_ratio %.2f outside [0, 1.0] range", tc.Risk.MinLiquidityRatio))
	}
	if tc.Risk.MaxSectorExposure <= 0 || tc.Risk.MaxSectorExposure > 1.0 {
		errs = append(errs, fmt.Sprintf("max_sector_exposure %.2f outside (0, 1.0] range", tc.Risk.MaxSectorExposure))
	}

	if tc.Execution.MinTradeIntervalSeconds < 0 {
		errs = append(errs, fmt.Sprintf("min_trade_interval_seconds %d must not be negative", tc.Execution.MinTradeIntervalSeconds))
	}
	if tc.Execution.MinOrderValue <= 0 {
		errs = append(errs, fmt.Sprintf("min_order_value %.2f must be positive", tc.Execution.MinOrderValue))
	}
	if tc.Execution.MaxOrderValue <= tc.Execution.MinOrderValue {
		errs = append(errs, fmt.Sprintf("max_order_value %.2f must exceed min_order_value %.2f", tc.Execution.MaxOrderValue, tc.Execution.MinOrderValue))
	}
	switch tc.Execution.DefaultAlgorithm {
	case "twap", "market", "limit":
	default:
		errs = append(errs, fmt.Sprintf("default_algorithm %q must be one of twap, market, limit", tc.Execution.DefaultAlgorithm))
	}

	if len(tc.Models.Enabled) == 0 {
		errs = append(errs, "models.enabled must register at least one model")
	}
	if tc.Models.EnsembleMinConfidence < 0 || tc.Models.EnsembleMinConfidence > 1.0 {
		errs = append(errs, fmt.Sprintf("ensemble_min_confidence %.2f outside [0, 1.0] range", tc.Models.EnsembleMinConfidence))
	}
	if tc.Models.ThompsonDecay <= 0 || tc.Models.ThompsonDecay > 1.0 {
		errs = append(errs, fmt.Sprintf("thompson_decay %.2f outside (0, 1.0] range", tc.Models.ThompsonDecay))
	}

	if tc.Learning.RetrainFrequencyDays <= 0 {
		errs = append(errs, fmt.Sprintf("retrain_frequency_days %d must be positive", tc.Learning.RetrainFrequencyDays))
	}
	if tc.Learning.MinSamplesForRetrain <= 0 {
		errs = append(errs, fmt.Sprintf("min_samples_for_retrain %d must be positive", tc.Learning.MinSamplesForRetrain))
	}
	if tc.Learning.ValidationWindowDays <= 0 {
		errs = append(errs, fmt.Sprintf("validation_window_days %d must be positive", tc.Learning.ValidationWindowDays))
	}

	if tc.Drift.WindowSize <= 1 {
		errs = append(errs, fmt.Sprintf("drift.window_size %d must exceed 1", tc.Drift.WindowSize))
	}
	if tc.Drift.PValueThreshold <= 0 || tc.Drift.PValueThreshold >= 1.0 {
		errs = append(errs, fmt.Sprintf("drift.p_value_threshold %.3f outside (0, 1.0) range", tc.Drift.PValueThreshold))
	}
	if tc.Drift.PSIThreshold <= 0 {
		errs = append(errs, fmt.Sprintf("drift.psi_threshold %.3f must be positive", tc.Drift.PSIThreshold))
	}

	return errs
}

// DefaultTradingConfig returns a safe default trading configuration.
func DefaultTradingConfig() *TradingConfig {
	return &TradingConfig{
		Capital: CapitalConfig{
			InitialCapital:   100000,
			TargetVolatility: 0.15,
		},
		Risk: RiskConfig{
			MaxPositionPct:    0.20,
			MaxDailyLossPct:   0.02,
			MaxDrawdownPct:    0.10,
			MaxLeverage:       2.0,
			MinLiquidityRatio: 0.05,
			MaxSectorExposure: 0.40,
		},
		Execution: ExecutionConfig{
			MinTradeIntervalSeconds: 60,
			MaxOrderValue:           1_000_000,
			MinOrderValue:           10,
			DefaultAlgorithm:        "twap",
		},
		Models: ModelsConfig{
			Enabled: map[string]bool{
				"momentum":            true,
				"mean_reversion":      true,
				"volatility_breakout": true,
			},
			EnsembleMinConfidence: 0.1,
			ThompsonDecay:         0.99,
		},
		Learning: LearningConfig{
			RetrainFrequencyDays: 7,
			MinSamplesForRetrain: 1000,
			ValidationWindowDays: 30,
		},
		Drift: DriftConfig{
			WindowSize:      1000,
			PValueThreshold: 0.05,
			PSIThreshold:    0.25,
		},
	}
}

// GetTradingConfigPath returns the default path for trading configuration.
func GetTradingConfigPath() string {
	return filepath.Join("config", "trading.yaml")
}
