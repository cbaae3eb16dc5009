package inventory

// Valuation 基于标记价计算策略在某品种上的净持仓与未实现盈亏（价格点数）。
func (b *Book) Valuation(strategyID, instrumentID uint32, mark float64) (net float64, pnl float64) {
	for _, t := range b.OpenTrades(strategyID, instrumentID) {
		net += t.Size
		pnl += (mark - t.EntryPrice) * t.Size
	}
	return
}
