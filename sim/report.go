package sim

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"backtest-go/market"
	"backtest-go/posttrade"
	"backtest-go/strategy"
)

// StrategyResult 单个策略的回测结果，金额均已乘合约乘数。
type StrategyResult struct {
	StrategyID    uint32
	Name          string
	Trades        int
	ClosedTrades  int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	RealizedPnL   float64
	UnrealizedPnL float64
}

// TradeRecord 报告中的单个 trade
type TradeRecord struct {
	TradeID      uint64
	StrategyID   uint32
	InstrumentID uint32
	Fills        int
	Size         float64
	EntryPrice   float64
	EntryIndex   int
	ExitPrice    *float64
	ExitIndex    *int
	RealizedPnL  float64
}

// Report 回测结果
type Report struct {
	RunID        string
	Start        time.Time
	End          time.Time
	Observations int

	Orders       int
	PendingLeft  int
	Fills        int
	FilledSize   float64
	Trades       int
	OpenTrades   int
	ClosedTrades int

	WinningTrades int
	LosingTrades  int
	RealizedPnL   float64
	UnrealizedPnL float64

	Markout posttrade.Stats

	Strategies []StrategyResult
	TradeLog   []TradeRecord
}

func newReport(runID string) *Report {
	return &Report{RunID: runID}
}

// summarize 汇总撮合状态；未平 trade 按最后一条观测的价格估值。
func (rep *Report) summarize(b *Broker, strategies []strategy.Strategy, names map[uint32]string, last market.Data) {
	stats := b.Stats()
	rep.Orders = stats.Orders
	rep.PendingLeft = stats.Pending
	rep.Fills = stats.Fills
	rep.FilledSize = stats.FilledSize
	rep.Trades = stats.Trades
	rep.OpenTrades = stats.OpenTrades
	rep.Strategies = rep.Strategies[:0]
	rep.TradeLog = rep.TradeLog[:0]
	rep.ClosedTrades, rep.WinningTrades, rep.LosingTrades = 0, 0, 0
	rep.RealizedPnL, rep.UnrealizedPnL = 0, 0

	mark := last.Last()
	for _, s := range strategies {
		res := StrategyResult{StrategyID: s.ID(), Name: names[s.ID()]}
		instruments := make(map[uint32]bool)
		for _, t := range b.Trades(s.ID()) {
			pv := b.pointValue(t.InstrumentID)
			realized := b.RealizedPnL(t.ID) * pv
			res.Trades++
			res.RealizedPnL += realized
			if t.IsOpen() {
				instruments[t.InstrumentID] = true
			} else {
				res.ClosedTrades++
				switch {
				case realized > 0:
					res.WinningTrades++
				case realized < 0:
					res.LosingTrades++
				}
			}
			rep.TradeLog = append(rep.TradeLog, TradeRecord{
				TradeID:      t.ID,
				StrategyID:   t.StrategyID,
				InstrumentID: t.InstrumentID,
				Fills:        len(t.Fills),
				Size:         t.Size,
				EntryPrice:   t.EntryPrice,
				EntryIndex:   t.EntryIndex,
				ExitPrice:    t.ExitPrice,
				ExitIndex:    t.ExitIndex,
				RealizedPnL:  realized,
			})
		}
		if last.Kind != 0 {
			for inst := range instruments {
				_, pnl := b.Valuation(s.ID(), inst, mark)
				res.UnrealizedPnL += pnl * b.pointValue(inst)
			}
		}
		if res.ClosedTrades > 0 {
			res.WinRate = float64(res.WinningTrades) / float64(res.ClosedTrades)
		}

		rep.ClosedTrades += res.ClosedTrades
		rep.WinningTrades += res.WinningTrades
		rep.LosingTrades += res.LosingTrades
		rep.RealizedPnL += res.RealizedPnL
		rep.UnrealizedPnL += res.UnrealizedPnL
		rep.Strategies = append(rep.Strategies, res)
	}
}

// WriteSummaryCSV 每个策略一行
func (rep *Report) WriteSummaryCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	header := []string{"runId", "strategyId", "name", "trades", "closed", "winners", "losers", "winRate", "realizedPnL", "unrealizedPnL"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, s := range rep.Strategies {
		record := []string{
			rep.RunID,
			strconv.FormatUint(uint64(s.StrategyID), 10),
			s.Name,
			strconv.Itoa(s.Trades),
			strconv.Itoa(s.ClosedTrades),
			strconv.Itoa(s.WinningTrades),
			strconv.Itoa(s.LosingTrades),
			fmt.Sprintf("%.4f", s.WinRate),
			fmt.Sprintf("%.6f", s.RealizedPnL),
			fmt.Sprintf("%.6f", s.UnrealizedPnL),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteTradesCSV 每个 trade 一行，未平仓的 exit 字段留空。
func (rep *Report) WriteTradesCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	header := []string{"tradeId", "strategyId", "instrumentId", "fills", "size", "entryPrice", "entryIndex", "exitPrice", "exitIndex", "realizedPnL"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, t := range rep.TradeLog {
		exitPrice, exitIndex := "", ""
		if t.ExitPrice != nil {
			exitPrice = fmt.Sprintf("%.6f", *t.ExitPrice)
		}
		if t.ExitIndex != nil {
			exitIndex = strconv.Itoa(*t.ExitIndex)
		}
		record := []string{
			strconv.FormatUint(t.TradeID, 10),
			strconv.FormatUint(uint64(t.StrategyID), 10),
			strconv.FormatUint(uint64(t.InstrumentID), 10),
			strconv.Itoa(t.Fills),
			fmt.Sprintf("%g", t.Size),
			fmt.Sprintf("%.6f", t.EntryPrice),
			strconv.Itoa(t.EntryIndex),
			exitPrice,
			exitIndex,
			fmt.Sprintf("%.6f", t.RealizedPnL),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
