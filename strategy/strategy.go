package strategy

import (
	"backtest-go/inventory"
	"backtest-go/market"
	"backtest-go/order"
)

// Broker 策略可用的撮合能力：下单、登记品种、查询持仓与未平 trade。
type Broker interface {
	PlaceOrder(o order.Order) *order.Order
	AddInstrument(inst market.Instrument) *market.Instrument
	GetCurrentPosition(strategyID, instrumentID uint32) float64
	GetOpenTrades(strategyID, instrumentID uint32) []inventory.Trade
}

// Strategy 每条观测先调用 Update 更新指标，再调用 Next 取出要下的订单。
// Next 返回的订单最早在下一条观测参与撮合。
type Strategy interface {
	ID() uint32
	Init(b Broker)
	Update(d market.Data)
	Next(d market.Data) []order.Order
}
