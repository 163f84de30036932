package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SignalsEvaluated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_signals_evaluated_total",
			Help: "Total number of consensus evaluations (by emitted direction).",
		},
		[]string{"direction"},
	)

	TradesOpened = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "advisor_trades_opened_total",
			Help: "Total number of trades opened through the lifecycle manager.",
		},
	)

	TradesClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_trades_closed_total",
			Help: "Total number of trades closed (by trigger: monitor or manual).",
		},
		[]string{"trigger"},
	)

	OpenTrades = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "advisor_open_trades",
			Help: "Current number of active trades.",
		},
	)

	RealizedPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "advisor_realized_pnl",
			Help: "Cumulative realized P&L over all closed trades.",
		},
	)
)

func init() {
	prometheus.MustRegister(SignalsEvaluated, TradesOpened, TradesClosed, OpenTrades, RealizedPnL)
}
