// Package posttrade 成交后的价格跟踪（markout）：记录每笔成交之后第 N 条观测的价格，
// 统计成交方向上的平均收益与逆向选择比例。
package posttrade

import (
	"backtest-go/order"
)

// FillRecord 单笔成交的跟踪记录
type FillRecord struct {
	FillID     uint64
	StrategyID uint32
	Side       order.Side
	FillPrice  float64
	Age        int // 成交后已经过的观测数

	PriceShort float64 // 第 Horizons.Short 条观测的价格，0 表示尚未到达
	PriceLong  float64
}

// Horizons 以观测条数计的跟踪窗口。
type Horizons struct {
	Short int
	Long  int
}

// Stats 汇总结果。markout 为成交方向上的收益率，正数对成交方有利。
type Stats struct {
	TotalFills           int
	AnalyzedFills        int
	AdverseSelectionRate float64
	AvgMarkoutShort      float64
	AvgMarkoutLong       float64
}

// Analyzer 单线程使用，由回放循环驱动。nil 接收者上的方法为空操作。
type Analyzer struct {
	horizons Horizons
	records  []*FillRecord
	open     []*FillRecord // 尚未到达 Long 窗口
}

// NewAnalyzer 窗口非正时回退到 1/5 条观测。
func NewAnalyzer(h Horizons) *Analyzer {
	if h.Short <= 0 {
		h.Short = 1
	}
	if h.Long < h.Short {
		h.Long = max(5, h.Short)
	}
	return &Analyzer{horizons: h}
}

// OnFill 开始跟踪一笔成交。
func (a *Analyzer) OnFill(f order.Fill) {
	if a == nil || f.Price <= 0 {
		return
	}
	rec := &FillRecord{
		FillID:     f.ID,
		StrategyID: f.StrategyID,
		Side:       f.Side,
		FillPrice:  f.Price,
	}
	a.records = append(a.records, rec)
	a.open = append(a.open, rec)
}

// Observe 推进一条观测，price 为该观测的最新价。
func (a *Analyzer) Observe(price float64) {
	if a == nil {
		return
	}
	kept := a.open[:0]
	for _, rec := range a.open {
		rec.Age++
		if rec.Age == a.horizons.Short {
			rec.PriceShort = price
		}
		if rec.Age == a.horizons.Long {
			rec.PriceLong = price
			continue
		}
		kept = append(kept, rec)
	}
	a.open = kept
}

// Records 全部跟踪记录（副本）。
func (a *Analyzer) Records() []FillRecord {
	out := make([]FillRecord, len(a.records))
	for i, r := range a.records {
		out[i] = *r
	}
	return out
}

func markout(side order.Side, fill, after float64) float64 {
	return side.Sign() * (after - fill) / fill
}

// Stats 只统计两个窗口都已到达的成交。
func (a *Analyzer) Stats() Stats {
	if a == nil {
		return Stats{}
	}
	stats := Stats{TotalFills: len(a.records)}
	var adverse int
	var sumShort, sumLong float64
	for _, r := range a.records {
		if r.PriceShort == 0 || r.PriceLong == 0 {
			continue
		}
		stats.AnalyzedFills++
		short := markout(r.Side, r.FillPrice, r.PriceShort)
		sumShort += short
		sumLong += markout(r.Side, r.FillPrice, r.PriceLong)
		if short < 0 {
			adverse++
		}
	}
	if stats.AnalyzedFills > 0 {
		n := float64(stats.AnalyzedFills)
		stats.AdverseSelectionRate = float64(adverse) / n
		stats.AvgMarkoutShort = sumShort / n
		stats.AvgMarkoutLong = sumLong / n
	}
	return stats
}
