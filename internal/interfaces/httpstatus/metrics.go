package httpstatus

import (
	"net/http"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sawpanic/tradingcore/internal/application/trading"
)

// Metrics holds the Prometheus gauges exported at /metrics. Values are
// refreshed from a status snapshot immediately before every scrape.
type Metrics struct {
	registry *prometheus.Registry

	nav           prometheus.Gauge
	drawdown      prometheus.Gauge
	dailyPnL      prometheus.Gauge
	killSwitch    prometheus.Gauge
	openOrders    prometheus.Gauge
	sharpe        prometheus.Gauge
	winRate       prometheus.Gauge
	decisionsLog  prometheus.Gauge
	thompsonMean  *prometheus.GaugeVec
	modelTrades   *prometheus.GaugeVec
}

// NewMetrics constructs and registers the gauge set against a private
// registry (never the global default, so repeated server construction
// in tests never panics on duplicate registration).
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		nav: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradingcore_nav",
			Help: "Current portfolio net asset value",
		}),
		drawdown: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradingcore_drawdown_pct",
			Help: "Current drawdown as a fraction of peak NAV",
		}),
		dailyPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradingcore_daily_pnl",
			Help: "Realized P&L for the current trading day",
		}),
		killSwitch: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradingcore_kill_switch_active",
			Help: "1 if the risk kill switch is latched, else 0",
		}),
		openOrders: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradingcore_open_orders",
			Help: "Number of orders currently working in the market",
		}),
		sharpe: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradingcore_sharpe",
			Help: "Trailing annualized Sharpe ratio",
		}),
		winRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradingcore_win_rate",
			Help: "Fraction of closed trades with positive realized P&L",
		}),
		decisionsLog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradingcore_decisions_logged",
			Help: "Number of decision log entries currently retained in memory",
		}),
		thompsonMean: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tradingcore_model_thompson_mean",
			Help: "Posterior mean (alpha / (alpha+beta)) of each registered model's Thompson bandit arm",
		}, []string{"model"}),
		modelTrades: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tradingcore_model_trade_count",
			Help: "Number of trades attributed to each registered model",
		}, []string{"model"}),
	}

	registry.MustRegister(
		m.nav, m.drawdown, m.dailyPnL, m.killSwitch, m.openOrders,
		m.sharpe, m.winRate, m.decisionsLog, m.thompsonMean, m.modelTrades,
	)
	return m
}

// Refresh updates every gauge from a fresh status snapshot.
func (m *Metrics) Refresh(snapshot trading.StatusSnapshot) {
	if nav, ok := snapshot.PortfolioStats["nav"].(float64); ok {
		m.nav.Set(nav)
	}
	if dd, ok := snapshot.RiskSummary["current_drawdown"].(float64); ok {
		m.drawdown.Set(dd)
	}
	if pnl, ok := snapshot.RiskSummary["daily_pnl"].(float64); ok {
		m.dailyPnL.Set(pnl)
	}
	if latched, ok := snapshot.RiskSummary["kill_switch_active"].(bool); ok && latched {
		m.killSwitch.Set(1)
	} else {
		m.killSwitch.Set(0)
	}

	m.openOrders.Set(float64(snapshot.ExecStats.OrderCount))
	m.sharpe.Set(snapshot.PerfMetrics.Sharpe)
	m.winRate.Set(snapshot.PerfMetrics.WinRate)
	m.decisionsLog.Set(float64(snapshot.DecisionsLogged))

	for _, entry := range snapshot.ModelLeaderboard {
		m.thompsonMean.WithLabelValues(entry.Name).Set(entry.ThompsonMean)
		m.modelTrades.WithLabelValues(entry.Name).Set(float64(entry.TradeCount))
	}
}

// Handler returns the promhttp handler bound to this server's private
// registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// NAV reads back the current value of the nav gauge by writing it into
// a protobuf Metric, rather than tracking a duplicate float alongside
// the gauge. Used by health checks and tests that need the value
// without scraping /metrics over HTTP.
func (m *Metrics) NAV() float64 {
	var out dto.Metric
	if err := m.nav.Write(&out); err != nil {
		return 0
	}
	return out.GetGauge().GetValue()
}
