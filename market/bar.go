package market

import "time"

// Bar represents OHLCV data.
type Bar struct {
	Ts     time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Range 返回 bar 实际成交过的价格区间：取 open/high/low/close 四者的极值，
// 而不只看 high/low 字段。
func (b Bar) Range() (low, high float64) {
	low = min(b.Open, b.High, b.Low, b.Close)
	high = max(b.Open, b.High, b.Low, b.Close)
	return
}
