package sim

import (
	"context"
	"time"

	"go.uber.org/zap"

	"backtest-go/infrastructure/logger"
	"backtest-go/infrastructure/monitor"
	"backtest-go/market"
)

// Source 需要后台读取的行情源（如 websocket），由 LiveEngine 负责启动。
type Source interface {
	market.Feed
	Run(ctx context.Context) error
}

// LiveEngine 实时行情引擎：轮询 Feed 并记录每条观测，不路由订单。
type LiveEngine struct {
	Feed         market.Feed
	PollInterval time.Duration
	OnData       func(market.Data) // 可选

	log *logger.Logger
	mon *monitor.Monitor

	observations int
}

func NewLiveEngine(feed market.Feed, log *logger.Logger, mon *monitor.Monitor) *LiveEngine {
	if log == nil {
		log = logger.NewNop()
	}
	return &LiveEngine{
		Feed:         feed,
		PollInterval: 50 * time.Millisecond,
		log:          log,
		mon:          mon,
	}
}

// Run 阻塞直到 ctx 结束或后台行情源退出。
func (e *LiveEngine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srcErr := make(chan error, 1)
	if src, ok := e.Feed.(Source); ok {
		go func() {
			srcErr <- src.Run(ctx)
		}()
	}

	interval := e.PollInterval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.log.Info("live engine started")
	for {
		select {
		case <-ctx.Done():
			e.drain()
			e.log.Info("live engine stopped", zap.Int("observations", e.observations))
			return ctx.Err()
		case err := <-srcErr:
			e.drain()
			if err != nil {
				e.log.Error("market data source stopped", zap.Error(err))
			}
			return err
		case <-ticker.C:
			e.drain()
		}
	}
}

func (e *LiveEngine) drain() {
	for {
		d, ok := e.Feed.Poll()
		if !ok {
			return
		}
		e.observations++
		e.mon.RecordObservation(d.Kind.String())
		e.log.Info("market data", zap.String("kind", d.Kind.String()), zap.Stringer("data", d))
		if e.OnData != nil {
			e.OnData(d)
		}
	}
}

// Observations 已处理的观测条数
func (e *LiveEngine) Observations() int {
	return e.observations
}
