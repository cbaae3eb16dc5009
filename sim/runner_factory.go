package sim

import (
	"fmt"
	"strings"

	"backtest-go/config"
	"backtest-go/infrastructure/logger"
	"backtest-go/infrastructure/monitor"
	"backtest-go/market"
	"backtest-go/strategy"
)

// BuildRunner 基于配置组装 Runner：加载 CSV 行情（可选合并 bar）、登记品种、创建策略。
func BuildRunner(cfg config.AppConfig, log *logger.Logger, mon *monitor.Monitor) (*Runner, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	feed, err := LoadFeed(cfg.Data)
	if err != nil {
		return nil, err
	}

	broker := NewBroker(log, mon)
	instruments := make(map[string]uint32, len(cfg.Instruments))
	for _, ic := range cfg.Instruments {
		inst := broker.AddInstrument(InstrumentFromConfig(ic))
		instruments[ic.Symbol] = inst.ID
	}

	factory := strategy.NewFactory()
	strategies := make([]strategy.Strategy, 0, len(cfg.Strategies))
	names := make(map[uint32]string, len(cfg.Strategies))
	for i, sc := range cfg.Strategies {
		instID, ok := instruments[sc.Instrument]
		if !ok {
			return nil, fmt.Errorf("strategy %q: unknown instrument %q", sc.Name, sc.Instrument)
		}
		id := uint32(i + 1)
		s, err := factory.Create(id, instID, strategy.Params{
			Kind:       strategy.Kind(sc.Kind),
			FastPeriod: sc.FastPeriod,
			SlowPeriod: sc.SlowPeriod,
			Size:       sc.Size,
		})
		if err != nil {
			return nil, fmt.Errorf("strategy %q: %w", sc.Name, err)
		}
		strategies = append(strategies, s)
		names[id] = sc.Name
	}

	r := NewRunner(feed, broker, strategies, log, mon)
	r.Names = names
	return r, nil
}

// LoadFeed 读取 CSV 并返回可回放的 Feed。
func LoadFeed(dc config.DataConfig) (market.Feed, error) {
	parser, err := market.ParserFor(dc.Format)
	if err != nil {
		return nil, err
	}
	var consolidator *market.BarConsolidator
	if dc.Consolidate() {
		consolidator, err = market.NewBarConsolidator(dc.InputMinutes, dc.OutputMinutes)
		if err != nil {
			return nil, err
		}
	}
	handler := market.NewCSVHandler(dc.Path, parser, consolidator)
	if err := handler.Start(); err != nil {
		return nil, err
	}
	return handler.Feed()
}

// InstrumentFromConfig 配置 -> 品种
func InstrumentFromConfig(ic config.InstrumentConfig) market.Instrument {
	inst := market.Instrument{
		Symbol:        ic.Symbol,
		Exchange:      ic.Exchange,
		Type:          market.InstrumentStock,
		BigPointValue: 1,
	}
	if strings.EqualFold(ic.Type, "futures") {
		inst.Type = market.InstrumentFutures
		inst.Expiry = ic.Expiry
		inst.BigPointValue = ic.BigPointValue
	}
	return inst
}
