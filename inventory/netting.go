package inventory

import (
	"math"

	"go.uber.org/zap"

	"backtest-go/infrastructure/logger"
	"backtest-go/order"
)

// qtyEpsilon 净数量绝对值低于该值视为 0（平仓）。
const qtyEpsilon = 1e-9

// Transition 描述一笔成交对 trade 造成的变化。
type Transition int

const (
	// Opened 从 0 开仓（含已平 trade 重新开仓）
	Opened Transition = iota
	// ScaledIn 同向加仓
	ScaledIn
	// Reduced 反向减仓，仍有剩余
	Reduced
	// Closed 恰好平仓
	Closed
	// Reversed 反向成交超过持仓，剩余部分在同一 trade 上反向开仓
	Reversed
)

func (t Transition) String() string {
	switch t {
	case Opened:
		return "opened"
	case ScaledIn:
		return "scaled_in"
	case Reduced:
		return "reduced"
	case Closed:
		return "closed"
	case Reversed:
		return "reversed"
	default:
		return "unknown"
	}
}

// accumulator 仅由 Book 持有：净数量与加权开仓金额。
// net != 0 时 EntryPrice == weighted / |net|。
type accumulator struct {
	net      float64
	weighted float64
}

// Book 成交 -> trade 的净额引擎，同时维护每个策略的持仓索引。
// 所有引用都通过整数 ID 走 map，不持有跨对象指针。
type Book struct {
	ids       order.Sequence
	trades    map[uint64]*Trade
	byOrder   map[uint64]uint64 // order id -> 最近关联的 trade id
	acc       map[uint64]*accumulator
	realized  map[uint64]float64
	positions map[uint32]*positions
	log       *logger.Logger
}

// NewBook 创建空的净额引擎
func NewBook(log *logger.Logger) *Book {
	if log == nil {
		log = logger.NewNop()
	}
	return &Book{
		trades:    make(map[uint64]*Trade),
		byOrder:   make(map[uint64]uint64),
		acc:       make(map[uint64]*accumulator),
		realized:  make(map[uint64]float64),
		positions: make(map[uint32]*positions),
		log:       log,
	}
}

// ApplyFill 把一笔成交记到 trade 上并返回更新后的 trade 副本。
// relatedID 为订单的 RelatedID；index 为当前累计成交笔数。
func (b *Book) ApplyFill(f order.Fill, relatedID uint64, index int) (Trade, Transition) {
	t := b.route(f, relatedID, index)
	t.Fills = append(t.Fills, f.ID)
	b.byOrder[f.OrderID] = t.ID

	qty := f.SignedSize()
	acc, ok := b.acc[t.ID]
	if !ok || math.Abs(acc.net) < qtyEpsilon {
		b.open(t, qty, f.Price)
		b.log.LogTrade("opened", t.ID, map[string]interface{}{
			"size":  t.Size,
			"price": f.Price,
		})
		return t.clone(), Opened
	}

	if sameSign(acc.net, qty) {
		acc.net += qty
		acc.weighted += f.Price * f.Size
		t.EntryPrice = acc.weighted / math.Abs(acc.net)
		t.Size = acc.net
		clearExit(t)
		return t.clone(), ScaledIn
	}

	prior := acc.net
	entryAvg := acc.weighted / math.Abs(prior)
	closeQty := math.Min(f.Size, math.Abs(prior))
	acc.weighted -= entryAvg * closeQty
	acc.net -= sign(prior) * closeQty
	b.realized[t.ID] += (f.Price - entryAvg) * closeQty * sign(prior)

	if surplus := f.Size - closeQty; surplus > qtyEpsilon {
		acc.net = f.Side.Sign() * surplus
		acc.weighted = f.Price * surplus
		t.EntryPrice = f.Price
		t.Size = acc.net
		clearExit(t)
		b.position(t.StrategyID).markOpen(t.ID)
		b.log.Warn("fill over-closes trade, reversing",
			zap.Uint64("trade_id", t.ID),
			zap.Uint64("fill_id", f.ID),
			zap.Float64("prior_size", prior),
			zap.Float64("new_size", t.Size),
		)
		return t.clone(), Reversed
	}

	if math.Abs(acc.net) >= qtyEpsilon {
		t.EntryPrice = acc.weighted / math.Abs(acc.net)
		t.Size = acc.net
		clearExit(t)
		return t.clone(), Reduced
	}

	exitPrice, exitIndex := f.Price, index
	t.Size = 0
	t.ExitPrice = &exitPrice
	t.ExitIndex = &exitIndex
	delete(b.acc, t.ID)
	b.position(t.StrategyID).markClosed(t.ID)
	b.log.LogTrade("closed", t.ID, map[string]interface{}{
		"exit_price": exitPrice,
		"realized":   b.realized[t.ID],
	})
	return t.clone(), Closed
}

// route 选出成交归属的 trade：RelatedID 指向的同品种 trade > 该订单最近的 trade > 新建。
func (b *Book) route(f order.Fill, relatedID uint64, index int) *Trade {
	// 关联 trade 只在同品种时生效，否则按独立订单处理
	if relatedID != 0 {
		if t, ok := b.trades[relatedID]; ok && t.InstrumentID == f.InstrumentID {
			return t
		}
	}
	if id, ok := b.byOrder[f.OrderID]; ok {
		return b.trades[id]
	}
	t := &Trade{
		ID:           b.ids.Next(),
		InstrumentID: f.InstrumentID,
		StrategyID:   f.StrategyID,
		EntryIndex:   index,
	}
	b.trades[t.ID] = t
	p := b.position(t.StrategyID)
	p.history = append(p.history, t.ID)
	return t
}

func (b *Book) open(t *Trade, qty, price float64) {
	b.acc[t.ID] = &accumulator{net: qty, weighted: price * math.Abs(qty)}
	t.EntryPrice = price
	t.Size = qty
	clearExit(t)
	b.position(t.StrategyID).markOpen(t.ID)
}

// Trade 按 ID 查询 trade 副本。
func (b *Book) Trade(id uint64) (Trade, bool) {
	t, ok := b.trades[id]
	if !ok {
		return Trade{}, false
	}
	return t.clone(), true
}

// TradeForOrder 返回订单最近关联的 trade。
func (b *Book) TradeForOrder(orderID uint64) (Trade, bool) {
	id, ok := b.byOrder[orderID]
	if !ok {
		return Trade{}, false
	}
	return b.Trade(id)
}

// TradeInstrument 实现 order.TradeLookup。
func (b *Book) TradeInstrument(tradeID uint64) (uint32, bool) {
	t, ok := b.trades[tradeID]
	if !ok {
		return 0, false
	}
	return t.InstrumentID, true
}

// RealizedPnL 返回 trade 累计已实现盈亏（价格点数，未乘合约乘数）。
func (b *Book) RealizedPnL(tradeID uint64) float64 {
	return b.realized[tradeID]
}

// Len 已创建的 trade 数
func (b *Book) Len() int {
	return len(b.trades)
}

func clearExit(t *Trade) {
	t.ExitPrice = nil
	t.ExitIndex = nil
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}
