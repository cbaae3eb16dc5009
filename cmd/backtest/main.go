package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"backtest-go/config"
	"backtest-go/infrastructure/logger"
	"backtest-go/infrastructure/monitor"
	"backtest-go/metrics"
	"backtest-go/sim"
)

// 配置驱动的回测脚本。
// 用法：
//
//	go run ./cmd/backtest -config configs/backtest.yaml -out summary.csv -trades trades.csv
//	go run ./cmd/backtest -config configs/backtest.yaml -watch   # 配置变化后自动重跑
func main() {
	cfgPath := flag.String("config", "configs/backtest.yaml", "配置文件路径")
	outPath := flag.String("out", "", "若指定则写入策略汇总 CSV")
	tradesPath := flag.String("trades", "", "若指定则写入逐笔 trade CSV")
	watch := flag.Bool("watch", false, "监听配置文件，变化后重新回测")
	metricsAddr := flag.String("metricsAddr", "", "Prometheus 监听地址，覆盖配置 metrics.addr")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer lg.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mon := monitor.New(monitor.DefaultConfig())
	addr := cfg.Metrics.Addr
	if *metricsAddr != "" {
		addr = *metricsAddr
	}
	if addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr, mon.Handler()); err != nil {
				lg.Error("metrics server stopped", zap.Error(err))
			}
		}()
		lg.Info("metrics server listening", zap.String("addr", addr))
	}

	run := func(cfg config.AppConfig) {
		r, err := sim.BuildRunner(cfg, lg, mon)
		if err != nil {
			lg.LogError(err, map[string]interface{}{"stage": "build"})
			return
		}
		if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			lg.LogError(err, map[string]interface{}{"stage": "run"})
		}
		report(lg, r.Report(), *outPath, *tradesPath)
	}

	run(cfg)
	if !*watch {
		return
	}

	w := config.Watcher{
		Path:    *cfgPath,
		OnError: func(err error) { lg.Warn("reload config failed", zap.Error(err)) },
	}
	lg.Info("watching config", zap.String("path", *cfgPath))
	if err := w.Start(ctx, func(next config.AppConfig) {
		lg.Info("config changed, rerunning backtest")
		run(next)
	}); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("watch config: %v", err)
	}
}

func report(lg *logger.Logger, rep *sim.Report, outPath, tradesPath string) {
	if rep == nil {
		return
	}
	for _, s := range rep.Strategies {
		lg.Info("strategy result",
			zap.String("run_id", rep.RunID),
			zap.Uint32("strategy_id", s.StrategyID),
			zap.String("name", s.Name),
			zap.Int("trades", s.Trades),
			zap.Int("closed", s.ClosedTrades),
			zap.Float64("win_rate", s.WinRate),
			zap.Float64("realized_pnl", s.RealizedPnL),
			zap.Float64("unrealized_pnl", s.UnrealizedPnL),
		)
	}
	lg.Info("fill markout",
		zap.Int("fills", rep.Markout.TotalFills),
		zap.Int("analyzed", rep.Markout.AnalyzedFills),
		zap.Float64("adverse_rate", rep.Markout.AdverseSelectionRate),
		zap.Float64("avg_short", rep.Markout.AvgMarkoutShort),
		zap.Float64("avg_long", rep.Markout.AvgMarkoutLong),
	)
	if outPath != "" {
		if err := rep.WriteSummaryCSV(outPath); err != nil {
			lg.Error("写入汇总 CSV 失败", zap.Error(err))
		} else {
			lg.Info("已写入汇总", zap.String("path", outPath))
		}
	}
	if tradesPath != "" {
		if err := rep.WriteTradesCSV(tradesPath); err != nil {
			lg.Error("写入 trade CSV 失败", zap.Error(err))
		} else {
			lg.Info("已写入 trade 明细", zap.String("path", tradesPath))
		}
	}
}
