package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sawpanic/tradingcore/internal/application/trading"
	"github.com/sawpanic/tradingcore/internal/config"
	"github.com/sawpanic/tradingcore/internal/domain/alpha"
	"github.com/sawpanic/tradingcore/internal/domain/core"
	"github.com/sawpanic/tradingcore/internal/infrastructure/cache"
	"github.com/sawpanic/tradingcore/internal/infrastructure/feed"
	"github.com/sawpanic/tradingcore/internal/interfaces/httpstatus"
	tclog "github.com/sawpanic/tradingcore/internal/log"
)

var startupSteps = []string{"load_config", "build_models", "start_feed", "start_status_server"}

const (
	appName = "tradingcore"
	version = "v0.1.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Algorithmic trading core: feature engine, alpha ensemble, risk, execution, and the driver loop",
		Version: version,
	}

	rootCmd.AddCommand(newRunCmd(), newStatusCmd(), newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Fetch and print the status snapshot from a running instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "http://127.0.0.1:8090", "status server base URL")
	return cmd
}

func runStatus(addr string) error {
	resp, err := http.Get(addr + "/status")
	if err != nil {
		return fmt.Errorf("fetch status: %w", err)
	}
	defer resp.Body.Close()

	var snapshot map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}

	out, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func newRunCmd() *cobra.Command {
	var (
		configPath string
		feedURL    string
		simulate   bool
		symbolsArg []string
		httpHost   string
		httpPort   int
		redisAddr  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the trading driver loop against a live or simulated feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDriver(runOptions{
				configPath: configPath,
				feedURL:    feedURL,
				simulate:   simulate,
				symbols:    symbolsArg,
				httpHost:   httpHost,
				httpPort:   httpPort,
				redisAddr:  redisAddr,
			})
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to trading.yaml (defaults to config/trading.yaml, falling back to built-in defaults)")
	cmd.Flags().StringVar(&feedURL, "feed-url", "", "websocket market data feed URL")
	cmd.Flags().BoolVar(&simulate, "simulate", true, "use the synthetic bar generator instead of --feed-url")
	cmd.Flags().StringSliceVar(&symbolsArg, "symbols", []string{"BTC", "ETH", "SOL"}, "comma-separated symbols to trade")
	cmd.Flags().StringVar(&httpHost, "http-host", "", "status server host (overrides default)")
	cmd.Flags().IntVar(&httpPort, "http-port", 0, "status server port (overrides default)")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "", "Redis address for the decision-log cache (empty uses an in-process map)")

	return cmd
}

type runOptions struct {
	configPath string
	feedURL    string
	simulate   bool
	symbols    []string
	httpHost   string
	httpPort   int
	redisAddr  string
}

// barFeed is satisfied by both feed.WebSocketFeed and feed.SimulatedFeed.
type barFeed interface {
	Bars() <-chan core.MarketData
	Run(ctx context.Context) error
}

func runDriver(opts runOptions) error {
	steps := tclog.NewStepLogger("startup", startupSteps)

	steps.StartStep("load_config")
	tc, err := loadTradingConfig(opts.configPath)
	if err != nil {
		steps.Fail(err.Error())
		return err
	}
	if problems := tc.Validate(); len(problems) > 0 {
		for _, p := range problems {
			log.Error().Str("problem", p).Msg("invalid trading config")
		}
		steps.Fail("invalid trading config")
		return fmt.Errorf("invalid trading config: %d problems", len(problems))
	}
	steps.CompleteStep()

	steps.StartStep("build_models")
	cfg := toTradingSystemConfig(tc)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	models := buildModels()
	ts := trading.New(cfg, models, rng)
	steps.CompleteStep()

	cacheMgr, err := buildCache(opts.redisAddr)
	if err != nil {
		steps.Fail(err.Error())
		return err
	}
	defer cacheMgr.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	steps.StartStep("start_feed")
	marketFeed := buildFeed(opts)
	go func() {
		if err := marketFeed.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("feed terminated")
		}
	}()
	steps.CompleteStep()

	steps.StartStep("start_status_server")
	statusCfg := httpstatus.DefaultServerConfig()
	if opts.httpHost != "" {
		statusCfg.Host = opts.httpHost
	}
	if opts.httpPort != 0 {
		statusCfg.Port = opts.httpPort
	}
	statusServer, err := httpstatus.NewServer(statusCfg, ts)
	if err != nil {
		steps.Fail(err.Error())
		return fmt.Errorf("start status server: %w", err)
	}
	go func() {
		if err := statusServer.Start(); err != nil {
			log.Error().Err(err).Msg("status server stopped")
		}
	}()
	steps.Finish()

	log.Info().Strs("symbols", opts.symbols).Str("status_addr", fmt.Sprintf("%s:%d", statusCfg.Host, statusCfg.Port)).Msg("trading driver started")

	driveLoop(ctx, ts, marketFeed, cacheMgr)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return statusServer.Shutdown(shutdownCtx)
}

const decisionLogTTL = 24 * time.Hour

func buildCache(redisAddr string) (cache.Manager, error) {
	if redisAddr == "" {
		return cache.NewInMemoryManager(), nil
	}
	return cache.NewRedisManager(redisAddr, "", 0)
}

// driveLoop is the single-threaded cooperative scheduler: one bar in,
// one TradingIteration out, never overlapping. Each iteration's decision
// log entry is cached after the fact so a later process (or a crashed
// driver's replacement) can inspect recent decisions without replaying
// the feed.
func driveLoop(ctx context.Context, ts *trading.TradingSystem, f barFeed, cacheMgr cache.Manager) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("trading driver stopping")
			return
		case bar, ok := <-f.Bars():
			if !ok {
				log.Warn().Msg("feed channel closed")
				return
			}
			ts.UpdateBar(bar)

			if ctx.Err() != nil {
				return
			}
			entry, err := ts.TradingIteration(ctx, bar.Symbol, bar.Timestamp, false)
			if err != nil {
				log.Error().Err(err).Str("symbol", bar.Symbol).Msg("trading iteration failed")
				continue
			}
			if entry.Symbol == "" {
				continue
			}
			if err := cacheMgr.SetDecisionLog(ctx, entry, decisionLogTTL); err != nil {
				log.Warn().Err(err).Str("symbol", entry.Symbol).Msg("failed to cache decision log entry")
			}
		}
	}
}

func buildModels() map[string]alpha.Model {
	return map[string]alpha.Model{
		"momentum":            alpha.NewMomentum(alpha.DefaultMomentumConfig()),
		"mean_reversion":      alpha.NewMeanReversion(alpha.DefaultMeanReversionConfig()),
		"volatility_breakout": alpha.NewVolatilityBreakout(alpha.DefaultVolatilityBreakoutConfig()),
	}
}

func toTradingSystemConfig(tc *config.TradingConfig) trading.Config {
	return trading.Config{
		InitialCapital:            tc.Capital.InitialCapital,
		TargetVolatility:          tc.Capital.TargetVolatility,
		MaxPositionPct:            tc.Risk.MaxPositionPct,
		MaxDailyLossPct:           tc.Risk.MaxDailyLossPct,
		MaxDrawdownPct:            tc.Risk.MaxDrawdownPct,
		MaxLeverage:               tc.Risk.MaxLeverage,
		MinLiquidityRatio:         tc.Risk.MinLiquidityRatio,
		MaxSectorExposure:         tc.Risk.MaxSectorExposure,
		MinTradeIntervalSeconds:   tc.Execution.MinTradeIntervalSeconds,
		MaxOrderValue:             tc.Execution.MaxOrderValue,
		MinOrderValue:             tc.Execution.MinOrderValue,
		DefaultExecutionAlgorithm: tc.Execution.DefaultAlgorithm,
		ModelEnabled:              tc.Models.Enabled,
		EnsembleMinConfidence:     tc.Models.EnsembleMinConfidence,
		ThompsonDecay:             tc.Models.ThompsonDecay,
		RetrainFrequencyDays:      tc.Learning.RetrainFrequencyDays,
		MinSamplesForRetrain:      tc.Learning.MinSamplesForRetrain,
		ValidationWindowDays:      tc.Learning.ValidationWindowDays,
		DriftWindowSize:           tc.Drift.WindowSize,
		PValueThreshold:           tc.Drift.PValueThreshold,
		PSIThreshold:              tc.Drift.PSIThreshold,
	}
}

func loadTradingConfig(path string) (*config.TradingConfig, error) {
	if path == "" {
		path = config.GetTradingConfigPath()
	}
	if _, err := os.Stat(path); err != nil {
		log.Info().Str("path", path).Msg("no trading config found, using built-in defaults")
		return config.DefaultTradingConfig(), nil
	}
	return config.LoadTradingConfig(path)
}

func buildFeed(opts runOptions) barFeed {
	if !opts.simulate && opts.feedURL != "" {
		return feed.NewWebSocketFeed(opts.feedURL)
	}
	return feed.NewSimulatedFeed(opts.symbols, time.Second, rand.New(rand.NewSource(1)))
}
