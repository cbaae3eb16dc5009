package strategy

import (
	"math"

	"backtest-go/market"
	"backtest-go/order"
)

// MACross 快慢均线交叉：金叉做多，死叉做空。
// 反手时先用 RelatedID 平掉已有的反向 trade；已有目标方向的 trade 时不再加仓，否则按 Size 开新仓。
type MACross struct {
	id           uint32
	instrumentID uint32
	size         float64
	fast         *MovingAverage
	slow         *MovingAverage
	broker       Broker

	prevDiff float64
	hasPrev  bool
}

// MACrossConfig 均线交叉参数
type MACrossConfig struct {
	FastPeriod int
	SlowPeriod int
	Size       float64
}

func NewMACross(id, instrumentID uint32, cfg MACrossConfig) *MACross {
	return &MACross{
		id:           id,
		instrumentID: instrumentID,
		size:         cfg.Size,
		fast:         NewMovingAverage(cfg.FastPeriod),
		slow:         NewMovingAverage(cfg.SlowPeriod),
	}
}

func (s *MACross) ID() uint32 { return s.id }

func (s *MACross) Init(b Broker) {
	s.broker = b
	s.hasPrev = false
}

func (s *MACross) Update(d market.Data) {
	s.fast.Update(d)
	s.slow.Update(d)
}

func (s *MACross) Next(d market.Data) []order.Order {
	if !s.fast.Ready() || !s.slow.Ready() {
		return nil
	}
	diff := s.fast.Value() - s.slow.Value()
	prev, hadPrev := s.prevDiff, s.hasPrev
	s.prevDiff, s.hasPrev = diff, true
	if !hadPrev {
		return nil
	}

	switch {
	case prev <= 0 && diff > 0:
		return s.flip(order.SideBuy)
	case prev >= 0 && diff < 0:
		return s.flip(order.SideSell)
	default:
		return nil
	}
}

func (s *MACross) flip(side order.Side) []order.Order {
	var orders []order.Order
	positioned := false
	if s.broker != nil {
		for _, t := range s.broker.GetOpenTrades(s.id, s.instrumentID) {
			if t.Size*side.Sign() >= 0 {
				// 已经是目标方向，保留
				positioned = true
				continue
			}
			orders = append(orders,
				order.Market(s.instrumentID, s.id, side, math.Abs(t.Size)).WithRelated(t.ID))
		}
	}
	if positioned {
		return orders
	}
	return append(orders, order.Market(s.instrumentID, s.id, side, s.size))
}
