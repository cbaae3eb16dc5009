package order

import "fmt"

// Status represents order lifecycle.
type Status string

const (
	StatusNew     Status = "NEW"
	StatusPartial Status = "PARTIAL"
	StatusFilled  Status = "FILLED"
)

// Side 买卖方向。
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Sign 买为 +1，卖为 -1。
func (s Side) Sign() float64 {
	if s == SideSell {
		return -1
	}
	return 1
}

// Type 订单类型。
type Type string

const (
	TypeMarket    Type = "MARKET"
	TypeLimit     Type = "LIMIT"
	TypeStop      Type = "STOP"
	TypeStopLimit Type = "STOP_LIMIT"
)

// Order 回测中的挂单。ID 由 Registry 在接收时分配，从 1 开始。
// RelatedID 为 0 表示不关联已有 trade；否则指向要加仓/平仓的 trade。
type Order struct {
	ID           uint64
	RelatedID    uint64
	InstrumentID uint32
	StrategyID   uint32
	Side         Side
	Type         Type
	LimitPrice   float64 // LIMIT / STOP_LIMIT
	StopPrice    float64 // STOP / STOP_LIMIT
	Size         float64 // 剩余数量，只减不增
	Status       Status
}

// Market 构造市价单。
func Market(instrumentID, strategyID uint32, side Side, size float64) Order {
	return Order{
		InstrumentID: instrumentID,
		StrategyID:   strategyID,
		Side:         side,
		Type:         TypeMarket,
		Size:         size,
	}
}

// Limit 构造限价单。
func Limit(instrumentID, strategyID uint32, side Side, size, limit float64) Order {
	o := Market(instrumentID, strategyID, side, size)
	o.Type = TypeLimit
	o.LimitPrice = limit
	return o
}

// Stop 构造止损（触发）单。
func Stop(instrumentID, strategyID uint32, side Side, size, stop float64) Order {
	o := Market(instrumentID, strategyID, side, size)
	o.Type = TypeStop
	o.StopPrice = stop
	return o
}

// StopLimit 构造止损限价单。
func StopLimit(instrumentID, strategyID uint32, side Side, size, stop, limit float64) Order {
	o := Market(instrumentID, strategyID, side, size)
	o.Type = TypeStopLimit
	o.StopPrice = stop
	o.LimitPrice = limit
	return o
}

// WithRelated 返回关联到指定 trade 的副本。
func (o Order) WithRelated(tradeID uint64) Order {
	o.RelatedID = tradeID
	return o
}

func (o Order) String() string {
	switch o.Type {
	case TypeLimit:
		return fmt.Sprintf("Order %d for instrument %d: %s %g (LIMIT %g)", o.ID, o.InstrumentID, o.Side, o.Size, o.LimitPrice)
	case TypeStop:
		return fmt.Sprintf("Order %d for instrument %d: %s %g (STOP %g)", o.ID, o.InstrumentID, o.Side, o.Size, o.StopPrice)
	case TypeStopLimit:
		return fmt.Sprintf("Order %d for instrument %d: %s %g (STOP_LIMIT %g/%g)", o.ID, o.InstrumentID, o.Side, o.Size, o.StopPrice, o.LimitPrice)
	default:
		return fmt.Sprintf("Order %d for instrument %d: %s %g (%s)", o.ID, o.InstrumentID, o.Side, o.Size, o.Type)
	}
}
