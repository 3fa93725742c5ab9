package httpstatus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/tradingcore/internal/application/trading"
	"github.com/sawpanic/tradingcore/internal/domain/alpha"
)

func testSystem() *trading.TradingSystem {
	models := map[string]alpha.Model{
		"momentum":            alpha.NewMomentum(alpha.DefaultMomentumConfig()),
		"mean_reversion":      alpha.NewMeanReversion(alpha.DefaultMeanReversionConfig()),
		"volatility_breakout": alpha.NewVolatilityBreakout(alpha.DefaultVolatilityBreakoutConfig()),
	}
	return trading.New(trading.DefaultConfig(), models, rand.New(rand.NewSource(1)))
}

func freePort(t *testing.T) int {
	t.Helper()
	for _, port := range []int{18091, 18092, 18093, 18094} {
		cfg := DefaultServerConfig()
		cfg.Port = port
		if _, err := NewServer(cfg, testSystem()); err == nil {
			return port
		}
	}
	t.Fatal("no free port found for status server test")
	return 0
}

func TestServerServesStatusAndMetrics(t *testing.T) {
	port := freePort(t)
	cfg := DefaultServerConfig()
	cfg.Port = port

	ts := testSystem()
	srv, err := NewServer(cfg, ts)
	require.NoError(t, err)

	go srv.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	waitForServer(t, cfg.Port)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/status", cfg.Port))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var snapshot map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	assert.Contains(t, snapshot, "PortfolioStats")

	metricsResp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/metrics", cfg.Port))
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	body, _ := io.ReadAll(metricsResp.Body)
	assert.Contains(t, string(body), "tradingcore_nav")

	assert.Equal(t, ts.GetStatus().PortfolioStats["nav"], srv.metrics.NAV())
}

func waitForServer(t *testing.T, port int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/status", port)); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
}
