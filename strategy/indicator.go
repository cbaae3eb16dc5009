package strategy

import "backtest-go/market"

// Indicator 基于行情逐条更新的指标。
type Indicator interface {
	Ready() bool
	Update(d market.Data)
}

// MovingAverage 最近 Period 个价格（bar 收盘价或 tick 价格）的简单均值。
// 窗口未满时 Value 仍按 Period 做分母。
type MovingAverage struct {
	Period int

	window []float64
	next   int
	count  int
	sum    float64
}

func NewMovingAverage(period int) *MovingAverage {
	if period <= 0 {
		period = 1
	}
	return &MovingAverage{Period: period, window: make([]float64, period)}
}

func (m *MovingAverage) Ready() bool {
	return m.count == m.Period
}

func (m *MovingAverage) Update(d market.Data) {
	m.Add(d.Last())
}

// Add 直接推入一个价格。
func (m *MovingAverage) Add(price float64) {
	if m.count == m.Period {
		m.sum -= m.window[m.next]
	} else {
		m.count++
	}
	m.window[m.next] = price
	m.sum += price
	m.next = (m.next + 1) % m.Period
}

func (m *MovingAverage) Value() float64 {
	return m.sum / float64(m.Period)
}
