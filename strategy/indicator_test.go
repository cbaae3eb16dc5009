package strategy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"backtest-go/market"
	"backtest-go/strategy"
)

func bar(close float64) market.Data {
	return market.BarData(market.Bar{Open: close, High: close, Low: close, Close: close, Volume: 100})
}

func TestMovingAverage(t *testing.T) {
	ma := strategy.NewMovingAverage(3)

	ma.Update(bar(3))
	assert.False(t, ma.Ready())
	// 窗口未满时按 period 做分母
	assert.InDelta(t, 1.0, ma.Value(), 1e-12)

	ma.Update(bar(6))
	ma.Update(bar(9))
	assert.True(t, ma.Ready())
	assert.InDelta(t, 6.0, ma.Value(), 1e-12)

	ma.Update(bar(12))
	assert.InDelta(t, 9.0, ma.Value(), 1e-12)
}

func TestMovingAverageUsesTickPrice(t *testing.T) {
	ma := strategy.NewMovingAverage(2)
	ma.Update(market.TickData(market.Tick{Price: 4, Size: 1}))
	ma.Update(market.TickData(market.Tick{Price: 6, Size: 1}))
	assert.True(t, ma.Ready())
	assert.InDelta(t, 5.0, ma.Value(), 1e-12)
}

func TestMovingAverageNonPositivePeriod(t *testing.T) {
	ma := strategy.NewMovingAverage(0)
	assert.Equal(t, 1, ma.Period)
	ma.Add(7)
	assert.True(t, ma.Ready())
	assert.InDelta(t, 7.0, ma.Value(), 1e-12)
}
