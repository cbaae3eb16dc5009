package sim

import (
	"math"

	"backtest-go/market"
	"backtest-go/order"
)

// triggered 判断挂单在价格区间 [low, high] 内是否被触发。
func triggered(o *order.Order, low, high float64) bool {
	buy := o.Side == order.SideBuy
	switch o.Type {
	case order.TypeMarket:
		return true
	case order.TypeLimit:
		if buy {
			return low <= o.LimitPrice
		}
		return high >= o.LimitPrice
	case order.TypeStop:
		if buy {
			return high >= o.StopPrice
		}
		return low <= o.StopPrice
	case order.TypeStopLimit:
		if buy {
			return high >= o.StopPrice && low <= o.LimitPrice
		}
		return low <= o.StopPrice && high >= o.LimitPrice
	default:
		return false
	}
}

// fillPrice 计算已触发订单的成交价。价格跳空越过挂单价时按可实际成交的区间边界成交。
func fillPrice(o *order.Order, d market.Data, low, high float64) float64 {
	buy := o.Side == order.SideBuy
	switch o.Type {
	case order.TypeLimit:
		l := o.LimitPrice
		if within(l, low, high) {
			return l
		}
		if buy {
			return math.Max(l, high)
		}
		return math.Min(l, low)
	case order.TypeStop:
		s := o.StopPrice
		if within(s, low, high) {
			return s
		}
		if buy {
			return math.Min(s, low)
		}
		return math.Max(s, high)
	case order.TypeStopLimit:
		s, l := o.StopPrice, o.LimitPrice
		if buy {
			if high >= s && low <= l {
				return s
			}
			return math.Min(l, low)
		}
		if low <= s && high >= l {
			return s
		}
		return math.Max(l, high)
	default:
		return d.MarketPrice()
	}
}

func within(p, low, high float64) bool {
	return p >= low && p <= high
}
