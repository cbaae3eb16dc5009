package inventory

import "slices"

// positions 单个策略的持仓索引：全部历史 trade 与当前未平 trade（均按 ID 升序）。
type positions struct {
	history []uint64
	open    []uint64
}

func (p *positions) markOpen(id uint64) {
	i, found := slices.BinarySearch(p.open, id)
	if !found {
		p.open = slices.Insert(p.open, i, id)
	}
}

func (p *positions) markClosed(id uint64) {
	if i, found := slices.BinarySearch(p.open, id); found {
		p.open = slices.Delete(p.open, i, i+1)
	}
}

func (b *Book) position(strategyID uint32) *positions {
	p, ok := b.positions[strategyID]
	if !ok {
		p = &positions{}
		b.positions[strategyID] = p
	}
	return p
}

// CurrentPosition 策略在某品种上所有未平 trade 的带符号数量之和，多空相互抵消。
func (b *Book) CurrentPosition(strategyID, instrumentID uint32) float64 {
	p, ok := b.positions[strategyID]
	if !ok {
		return 0
	}
	total := 0.0
	for _, id := range p.open {
		if t := b.trades[id]; t.InstrumentID == instrumentID {
			total += t.Size
		}
	}
	return total
}

// OpenTrades 返回策略在某品种上的未平 trade 副本，策略可据此拿到 trade ID 挂平仓单。
func (b *Book) OpenTrades(strategyID, instrumentID uint32) []Trade {
	p, ok := b.positions[strategyID]
	if !ok {
		return nil
	}
	var out []Trade
	for _, id := range p.open {
		if t := b.trades[id]; t.InstrumentID == instrumentID {
			out = append(out, t.clone())
		}
	}
	return out
}

// Trades 返回策略开过的全部 trade（含已平），按创建顺序。
func (b *Book) Trades(strategyID uint32) []Trade {
	p, ok := b.positions[strategyID]
	if !ok {
		return nil
	}
	out := make([]Trade, 0, len(p.history))
	for _, id := range p.history {
		out = append(out, b.trades[id].clone())
	}
	return out
}

// OpenLen 所有策略当前未平 trade 的总数。
func (b *Book) OpenLen() int {
	n := 0
	for _, p := range b.positions {
		n += len(p.open)
	}
	return n
}
