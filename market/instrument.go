package market

import "fmt"

// InstrumentType 品种类型
type InstrumentType string

const (
	InstrumentStock   InstrumentType = "STOCK"
	InstrumentFutures InstrumentType = "FUTURES"
)

// Instrument 交易品种。ID 由 Broker.AddInstrument 分配。
type Instrument struct {
	ID            uint32
	Symbol        string
	Exchange      string
	Type          InstrumentType
	Expiry        string  // 仅期货
	BigPointValue float64 // 每点价值，股票为 1
}

// PointValue 返回合约乘数，未设置时按 1 处理。
func (i Instrument) PointValue() float64 {
	if i.Type != InstrumentFutures || i.BigPointValue <= 0 {
		return 1
	}
	return i.BigPointValue
}

func (i Instrument) String() string {
	if i.Type == InstrumentFutures {
		return fmt.Sprintf("%s@%s (futures %s x%g)", i.Symbol, i.Exchange, i.Expiry, i.PointValue())
	}
	return fmt.Sprintf("%s@%s", i.Symbol, i.Exchange)
}
