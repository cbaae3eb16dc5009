package market

import (
	"fmt"
	"time"
)

// Kind describes which payload a Data carries.
type Kind uint8

const (
	KindTick Kind = iota + 1
	KindBar
)

func (k Kind) String() string {
	switch k {
	case KindTick:
		return "tick"
	case KindBar:
		return "bar"
	default:
		return "unknown"
	}
}

// Data 一条行情观测：tick 或 bar 二选一。
type Data struct {
	Kind Kind
	Tick Tick
	Bar  Bar
}

// TickData wraps a tick.
func TickData(t Tick) Data { return Data{Kind: KindTick, Tick: t} }

// BarData wraps a bar.
func BarData(b Bar) Data { return Data{Kind: KindBar, Bar: b} }

// Liquidity 返回本条观测可供成交的数量与价格区间 [low, high]。
// tick: 数量为成交量，区间退化为单一价格；bar: 数量为 volume，区间见 Bar.Range。
func (d Data) Liquidity() (size, low, high float64) {
	switch d.Kind {
	case KindTick:
		return d.Tick.Size, d.Tick.Price, d.Tick.Price
	case KindBar:
		low, high = d.Bar.Range()
		return d.Bar.Volume, low, high
	default:
		return 0, 0, 0
	}
}

// MarketPrice 市价单成交价：tick 价格或 bar 开盘价。
func (d Data) MarketPrice() float64 {
	if d.Kind == KindBar {
		return d.Bar.Open
	}
	return d.Tick.Price
}

// Last 最新价：tick 价格或 bar 收盘价，供指标/估值使用。
func (d Data) Last() float64 {
	if d.Kind == KindBar {
		return d.Bar.Close
	}
	return d.Tick.Price
}

// Time 观测时间
func (d Data) Time() time.Time {
	if d.Kind == KindBar {
		return d.Bar.Ts
	}
	return d.Tick.Ts
}

func (d Data) String() string {
	switch d.Kind {
	case KindTick:
		return fmt.Sprintf("Tick(timestamp: %d, price: %g, size: %g)", d.Tick.Ts.UnixMilli(), d.Tick.Price, d.Tick.Size)
	case KindBar:
		b := d.Bar
		return fmt.Sprintf("Bar(date: %s, open: %g, high: %g, low: %g, close: %g, volume: %g)",
			b.Ts.Format("2006-01-02 15:04:05"), b.Open, b.High, b.Low, b.Close, b.Volume)
	default:
		return "Data(unknown)"
	}
}
