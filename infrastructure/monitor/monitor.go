package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor Prometheus监控指标收集器。所有方法对 nil 接收者安全，未启用监控时直接跳过。
type Monitor struct {
	registry *prometheus.Registry

	// 行情
	observations *prometheus.CounterVec

	// 订单
	ordersPlaced    prometheus.Counter
	ordersCompleted prometheus.Counter
	relatedMismatch prometheus.Counter
	pendingOrders   prometheus.Gauge

	// 成交
	fills        prometheus.Counter
	filledVolume prometheus.Counter

	// trade 状态变化
	tradeTransitions *prometheus.CounterVec
	openTrades       prometheus.Gauge
	realizedPnL      prometheus.Gauge
}

// Config 监控配置
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "bt",
		Subsystem: "engine",
	}
}

// New 创建新的Monitor实例
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Monitor{
		registry: reg,

		observations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "observations_total",
			Help:      "处理过的行情观测数",
		}, []string{"kind"}),

		ordersPlaced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "orders_placed_total",
			Help:      "订单下单总数",
		}),
		ordersCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "orders_completed_total",
			Help:      "完全成交的订单数",
		}),
		relatedMismatch: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "related_mismatch_total",
			Help:      "关联 trade 不存在或品种不一致的订单数",
		}),
		pendingOrders: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "pending_orders",
			Help:      "当前挂单数",
		}),

		fills: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "fills_total",
			Help:      "成交笔数总数",
		}),
		filledVolume: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "filled_volume_total",
			Help:      "累计成交数量",
		}),

		tradeTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "trade_transitions_total",
			Help:      "trade 状态变化次数（opened/scaled_in/reduced/closed/reversed）",
		}, []string{"transition"}),
		openTrades: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "open_trades",
			Help:      "当前未平 trade 数",
		}),
		realizedPnL: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "realized_pnl",
			Help:      "累计已实现盈亏（价格点数）",
		}),
	}
}

// 行情
func (m *Monitor) RecordObservation(kind string) {
	if m == nil {
		return
	}
	m.observations.WithLabelValues(kind).Inc()
}

// 订单相关方法
func (m *Monitor) RecordOrderPlaced() {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
}

func (m *Monitor) RecordOrderCompleted() {
	if m == nil {
		return
	}
	m.ordersCompleted.Inc()
}

func (m *Monitor) RecordRelatedMismatch() {
	if m == nil {
		return
	}
	m.relatedMismatch.Inc()
}

func (m *Monitor) UpdatePendingOrders(n int) {
	if m == nil {
		return
	}
	m.pendingOrders.Set(float64(n))
}

// 成交相关方法
func (m *Monitor) RecordFill(volume float64) {
	if m == nil {
		return
	}
	m.fills.Inc()
	m.filledVolume.Add(volume)
}

// trade 相关方法
func (m *Monitor) RecordTradeTransition(transition string) {
	if m == nil {
		return
	}
	m.tradeTransitions.WithLabelValues(transition).Inc()
}

func (m *Monitor) UpdateOpenTrades(n int) {
	if m == nil {
		return
	}
	m.openTrades.Set(float64(n))
}

func (m *Monitor) AddRealizedPnL(delta float64) {
	if m == nil {
		return
	}
	m.realizedPnL.Add(delta)
}

// Handler 返回HTTP handler用于暴露指标
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回prometheus registry
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}
