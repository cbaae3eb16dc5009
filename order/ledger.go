package order

// Fill 成交记录，创建后不可修改。
type Fill struct {
	ID           uint64
	InstrumentID uint32
	StrategyID   uint32
	OrderID      uint64
	Side         Side
	Size         float64
	Price        float64
}

// SignedSize 买为正、卖为负。
func (f Fill) SignedSize() float64 {
	return f.Side.Sign() * f.Size
}

// Ledger 只追加的成交账本。
type Ledger struct {
	ids    Sequence
	fills  []Fill
	volume float64
}

// NewLedger 创建空账本
func NewLedger() *Ledger {
	return &Ledger{fills: make([]Fill, 0, 64)}
}

// Store 分配成交 ID 并记录，返回 ID。
func (l *Ledger) Store(f Fill) uint64 {
	f.ID = l.ids.Next()
	l.fills = append(l.fills, f)
	l.volume += f.Size
	return f.ID
}

// Get 按 ID 查询成交。
func (l *Ledger) Get(id uint64) (Fill, bool) {
	// ID 从 1 连续分配，直接按下标取
	if id == 0 || id > uint64(len(l.fills)) {
		return Fill{}, false
	}
	return l.fills[id-1], true
}

// Len 已记录的成交笔数。
func (l *Ledger) Len() int {
	return len(l.fills)
}

// All 返回全部成交（只读副本）。
func (l *Ledger) All() []Fill {
	out := make([]Fill, len(l.fills))
	copy(out, l.fills)
	return out
}

// Since 返回第 n 笔之后记录的成交（副本），n 通常取之前的 Len()。
func (l *Ledger) Since(n int) []Fill {
	if n < 0 {
		n = 0
	}
	if n >= len(l.fills) {
		return nil
	}
	out := make([]Fill, len(l.fills)-n)
	copy(out, l.fills[n:])
	return out
}

// ForOrder 返回某个订单产生的全部成交。
func (l *Ledger) ForOrder(orderID uint64) []Fill {
	var out []Fill
	for _, f := range l.fills {
		if f.OrderID == orderID {
			out = append(out, f)
		}
	}
	return out
}

// LedgerStats 成交账本统计
type LedgerStats struct {
	TotalFills  int
	TotalVolume float64
}

// GetStats 获取统计信息
func (l *Ledger) GetStats() LedgerStats {
	return LedgerStats{
		TotalFills:  len(l.fills),
		TotalVolume: l.volume,
	}
}
