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

	"backtest-go/infrastructure/logger"
	"backtest-go/infrastructure/monitor"
	"backtest-go/market"
	"backtest-go/metrics"
	"backtest-go/sim"
)

// 订阅 websocket 行情并打印。
// 用法：
//
//	go run ./cmd/live -url ws://localhost:8080/stream -metricsAddr :9101
func main() {
	url := flag.String("url", "ws://localhost:8080/stream", "行情 websocket 地址")
	metricsAddr := flag.String("metricsAddr", "", "Prometheus 监听地址，为空不启动")
	level := flag.String("logLevel", "info", "日志级别")
	buffer := flag.Int("buffer", 1024, "行情缓冲区大小")
	flag.Parse()

	cfg := logger.DefaultConfig()
	cfg.Level = *level
	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer lg.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mon := monitor.New(monitor.Config{Namespace: "bt", Subsystem: "live"})
	if *metricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, *metricsAddr, mon.Handler()); err != nil {
				lg.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	engine := sim.NewLiveEngine(market.NewWSFeed(*url, *buffer, lg), lg, mon)
	if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("live engine: %v", err)
	}
}
