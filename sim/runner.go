package sim

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"backtest-go/infrastructure/logger"
	"backtest-go/infrastructure/monitor"
	"backtest-go/market"
	"backtest-go/posttrade"
	"backtest-go/strategy"
)

// Engine 回测与实盘共用的运行入口。
type Engine interface {
	Run(ctx context.Context) error
}

// Runner 将行情->撮合->策略->下单串起来。
// 每条观测先撮合已有挂单，再交给策略；策略本轮下的单最早在下一条观测成交，避免未来函数。
type Runner struct {
	RunID      string
	Feed       market.Feed
	Broker     *Broker
	Strategies []strategy.Strategy
	Names      map[uint32]string // strategy id -> 配置名，用于报告
	Markouts   *posttrade.Analyzer

	log    *logger.Logger
	mon    *monitor.Monitor
	report *Report
}

// NewRunner log 可为 nil；mon 为 nil 时不采集指标。
func NewRunner(feed market.Feed, broker *Broker, strategies []strategy.Strategy, log *logger.Logger, mon *monitor.Monitor) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	runID := uuid.NewString()
	return &Runner{
		RunID:      runID,
		Feed:       feed,
		Broker:     broker,
		Strategies: strategies,
		Names:      make(map[uint32]string),
		Markouts:   posttrade.NewAnalyzer(posttrade.Horizons{Short: 1, Long: 5}),
		log:        log.WithFields(map[string]interface{}{"run_id": runID}),
		mon:        mon,
	}
}

// Run 回放整个 Feed；ctx 取消时提前返回，已处理部分仍生成报告。
func (r *Runner) Run(ctx context.Context) error {
	for _, s := range r.Strategies {
		s.Init(r.Broker)
	}
	r.report = newReport(r.RunID)
	r.log.Info("backtest started", zap.Int("strategies", len(r.Strategies)))

	var last market.Data
	for {
		if err := ctx.Err(); err != nil {
			r.finish(last)
			return err
		}
		d, ok := r.Feed.Poll()
		if !ok {
			break
		}
		r.step(d)
		last = d
	}
	r.finish(last)
	r.log.Info("backtest finished",
		zap.Int("observations", r.report.Observations),
		zap.Int("fills", r.report.Fills),
		zap.Int("trades", r.report.Trades),
		zap.Float64("realized_pnl", r.report.RealizedPnL),
	)
	return nil
}

func (r *Runner) step(d market.Data) {
	if r.report.Observations == 0 {
		r.report.Start = d.Time()
	}
	r.report.End = d.Time()
	r.report.Observations++
	r.mon.RecordObservation(d.Kind.String())

	// 先推进已有成交的 markout，再撮合
	r.Markouts.Observe(d.Last())
	seen := r.Broker.FillCount()
	r.Broker.SimulateFills(d)
	for _, f := range r.Broker.FillsSince(seen) {
		r.Markouts.OnFill(f)
	}
	for _, s := range r.Strategies {
		s.Update(d)
	}
	for _, s := range r.Strategies {
		for _, o := range s.Next(d) {
			r.Broker.PlaceOrder(o)
		}
	}
}

func (r *Runner) finish(last market.Data) {
	r.report.summarize(r.Broker, r.Strategies, r.Names, last)
	r.report.Markout = r.Markouts.Stats()
}

// Report 返回最近一次 Run 的结果；Run 之前为 nil。
func (r *Runner) Report() *Report {
	return r.report
}
