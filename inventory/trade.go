package inventory

import "fmt"

// Trade 由一个或多个成交聚合而成的持仓。Size 带符号：正为多、负为空、0 为已平。
// 调用方拿到的都是副本，修改不会影响引擎内部状态。
type Trade struct {
	ID           uint64
	InstrumentID uint32
	StrategyID   uint32
	Fills        []uint64
	Size         float64
	EntryPrice   float64
	EntryIndex   int
	ExitPrice    *float64 // 仅在 Size 回到 0 时设置
	ExitIndex    *int
}

// IsOpen 当前是否有持仓
func (t Trade) IsOpen() bool {
	return t.Size != 0
}

// PnL 按 Size × (exit − entry) × bigPointValue 计算；未平仓时第二个返回值为 false。
// 只适用于外部按完整 Size 构造的 trade：Book 平仓后 Size 归零，结果恒为 0，
// 引擎内的盈亏请用 Book.RealizedPnL。
func (t Trade) PnL(bigPointValue float64) (float64, bool) {
	if t.ExitPrice == nil {
		return 0, false
	}
	return t.Size * (*t.ExitPrice - t.EntryPrice) * bigPointValue, true
}

func (t Trade) clone() Trade {
	c := t
	c.Fills = append([]uint64(nil), t.Fills...)
	return c
}

func (t Trade) String() string {
	exit, exitIdx := "None", "None"
	if t.ExitPrice != nil {
		exit = fmt.Sprintf("%g", *t.ExitPrice)
	}
	if t.ExitIndex != nil {
		exitIdx = fmt.Sprintf("%d", *t.ExitIndex)
	}
	return fmt.Sprintf("Trade %d for instrument %d: size %g, entry at %g (index %d), exit at %s (index %s)",
		t.ID, t.InstrumentID, t.Size, t.EntryPrice, t.EntryIndex, exit, exitIdx)
}
