package sim

import (
	"go.uber.org/zap"

	"backtest-go/infrastructure/logger"
	"backtest-go/infrastructure/monitor"
	"backtest-go/inventory"
	"backtest-go/market"
	"backtest-go/order"
)

// Broker 模拟撮合：持有订单、成交账本与 trade 净额引擎。
// 单线程同步调用，不加锁。
type Broker struct {
	registry    *order.Registry
	ledger      *order.Ledger
	book        *inventory.Book
	instruments map[uint32]*market.Instrument
	instIDs     order.Sequence

	log *logger.Logger
	mon *monitor.Monitor
}

// NewBroker log 可为 nil；mon 为 nil 时不采集指标。
func NewBroker(log *logger.Logger, mon *monitor.Monitor) *Broker {
	if log == nil {
		log = logger.NewNop()
	}
	book := inventory.NewBook(log)
	registry := order.NewRegistry(book, log)
	registry.OnRelatedMismatch(func(*order.Order) { mon.RecordRelatedMismatch() })
	return &Broker{
		registry:    registry,
		ledger:      order.NewLedger(),
		book:        book,
		instruments: make(map[uint32]*market.Instrument),
		log:         log,
		mon:         mon,
	}
}

// PlaceOrder 接收订单并分配 ID，最早在下一条观测参与撮合。
func (b *Broker) PlaceOrder(o order.Order) *order.Order {
	stored := b.registry.Place(o)
	b.mon.RecordOrderPlaced()
	b.mon.UpdatePendingOrders(b.registry.PendingLen())
	return stored
}

// AddInstrument 登记品种并分配 ID。
func (b *Broker) AddInstrument(inst market.Instrument) *market.Instrument {
	inst.ID = uint32(b.instIDs.Next())
	stored := &inst
	b.instruments[inst.ID] = stored
	b.log.Info("instrument added", zap.Uint32("instrument_id", inst.ID), zap.String("instrument", inst.String()))
	return stored
}

// Instrument 按 ID 查询品种。
func (b *Broker) Instrument(id uint32) (*market.Instrument, bool) {
	inst, ok := b.instruments[id]
	return inst, ok
}

// GetCurrentPosition 策略在某品种上的净持仓。
func (b *Broker) GetCurrentPosition(strategyID, instrumentID uint32) float64 {
	return b.book.CurrentPosition(strategyID, instrumentID)
}

// GetOpenTrades 策略在某品种上的未平 trade。
func (b *Broker) GetOpenTrades(strategyID, instrumentID uint32) []inventory.Trade {
	return b.book.OpenTrades(strategyID, instrumentID)
}

// SimulateFills 用一条观测撮合全部挂单。
// 按下单顺序遍历，可成交数量被先到的订单依次消耗；未触发或无剩余流动性的订单保持挂单。
func (b *Broker) SimulateFills(d market.Data) {
	available, low, high := d.Liquidity()
	if available <= 0 {
		return
	}

	for _, o := range b.registry.Pending() {
		if o.Size <= 0 || available <= 0 {
			continue
		}
		if !triggered(o, low, high) {
			continue
		}

		price := fillPrice(o, d, low, high)
		size := min(o.Size, available)
		available -= size

		fill := order.Fill{
			InstrumentID: o.InstrumentID,
			StrategyID:   o.StrategyID,
			OrderID:      o.ID,
			Side:         o.Side,
			Size:         size,
			Price:        price,
		}
		fill.ID = b.ledger.Store(fill)
		b.log.LogFill(fill.ID, map[string]interface{}{
			"order_id": o.ID,
			"side":     string(o.Side),
			"size":     size,
			"price":    price,
		})
		b.mon.RecordFill(size)

		b.applyFill(fill, o.RelatedID)

		b.registry.Consume(o, size)
		if o.Status == order.StatusFilled {
			b.mon.RecordOrderCompleted()
		}
	}

	b.mon.UpdatePendingOrders(b.registry.PendingLen())
	b.mon.UpdateOpenTrades(b.book.OpenLen())
}

func (b *Broker) applyFill(fill order.Fill, relatedID uint64) {
	var before float64
	if id, ok := b.tradeIDFor(fill, relatedID); ok {
		before = b.book.RealizedPnL(id)
	}
	t, transition := b.book.ApplyFill(fill, relatedID, b.ledger.Len())
	b.mon.RecordTradeTransition(transition.String())
	if delta := b.book.RealizedPnL(t.ID) - before; delta != 0 {
		b.mon.AddRealizedPnL(delta * b.pointValue(t.InstrumentID))
	}
}

// tradeIDFor 预判成交会落到哪个已有 trade，和 Book 的路由顺序一致。
func (b *Broker) tradeIDFor(fill order.Fill, relatedID uint64) (uint64, bool) {
	if relatedID != 0 {
		if t, ok := b.book.Trade(relatedID); ok && t.InstrumentID == fill.InstrumentID {
			return relatedID, true
		}
	}
	if t, ok := b.book.TradeForOrder(fill.OrderID); ok {
		return t.ID, true
	}
	return 0, false
}

func (b *Broker) pointValue(instrumentID uint32) float64 {
	if inst, ok := b.instruments[instrumentID]; ok {
		return inst.PointValue()
	}
	return 1
}

// Order 按 ID 查询订单（返回副本）。
func (b *Broker) Order(id uint64) (order.Order, bool) {
	o, ok := b.registry.Get(id)
	if !ok {
		return order.Order{}, false
	}
	return *o, true
}

// Fill 按 ID 查询成交。
func (b *Broker) Fill(id uint64) (order.Fill, bool) {
	return b.ledger.Get(id)
}

// Fills 全部成交，按发生顺序。
func (b *Broker) Fills() []order.Fill {
	return b.ledger.All()
}

// FillCount 已记录的成交笔数。
func (b *Broker) FillCount() int {
	return b.ledger.Len()
}

// FillsSince 第 n 笔之后的成交。
func (b *Broker) FillsSince(n int) []order.Fill {
	return b.ledger.Since(n)
}

// Trade 按 ID 查询 trade。
func (b *Broker) Trade(id uint64) (inventory.Trade, bool) {
	return b.book.Trade(id)
}

// TradeForOrder 订单最近一次成交所属的 trade。
func (b *Broker) TradeForOrder(orderID uint64) (inventory.Trade, bool) {
	return b.book.TradeForOrder(orderID)
}

// Trades 策略的全部 trade 历史。
func (b *Broker) Trades(strategyID uint32) []inventory.Trade {
	return b.book.Trades(strategyID)
}

// RealizedPnL trade 的已实现盈亏（价格点数）。
func (b *Broker) RealizedPnL(tradeID uint64) float64 {
	return b.book.RealizedPnL(tradeID)
}

// PendingLen 未完全成交的挂单数。
func (b *Broker) PendingLen() int {
	return b.registry.PendingLen()
}

// Stats 汇总订单、成交和 trade 计数。
func (b *Broker) Stats() BrokerStats {
	ls := b.ledger.GetStats()
	return BrokerStats{
		Orders:     b.registry.Len(),
		Pending:    b.registry.PendingLen(),
		Fills:      ls.TotalFills,
		FilledSize: ls.TotalVolume,
		Trades:     b.book.Len(),
		OpenTrades: b.book.OpenLen(),
	}
}

// BrokerStats 撮合统计
type BrokerStats struct {
	Orders     int
	Pending    int
	Fills      int
	FilledSize float64
	Trades     int
	OpenTrades int
}

// Valuation 按标记价估算策略在某品种上的净持仓与未实现盈亏（价格点数）。
func (b *Broker) Valuation(strategyID, instrumentID uint32, mark float64) (net, pnl float64) {
	return b.book.Valuation(strategyID, instrumentID, mark)
}
