package sim_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-go/market"
	"backtest-go/sim"
)

// chanSource 模拟后台行情源：Run 把预置数据写入缓冲区后等待 ctx 或返回 err。
type chanSource struct {
	data []market.Data
	err  error

	mu  sync.Mutex
	buf []market.Data
}

func (s *chanSource) Run(ctx context.Context) error {
	s.mu.Lock()
	s.buf = append(s.buf, s.data...)
	s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *chanSource) Poll() (market.Data, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) == 0 {
		return market.Data{}, false
	}
	d := s.buf[0]
	s.buf = s.buf[1:]
	return d, true
}

func TestLiveEngineProcessesUntilCancelled(t *testing.T) {
	src := &chanSource{data: []market.Data{tick(100, 1), tick(101, 2), ohlc(1, 2, 0.5, 1.5, 10)}}
	e := sim.NewLiveEngine(src, nil, nil)
	e.PollInterval = 5 * time.Millisecond

	got := make(chan market.Data, 8)
	e.OnData = func(d market.Data) { got <- d }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case <-got:
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for observation %d", i)
		}
	}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop")
	}
	assert.Equal(t, 3, e.Observations())
}

func TestLiveEngineReturnsSourceError(t *testing.T) {
	boom := errors.New("connection reset")
	src := &chanSource{data: []market.Data{tick(100, 1)}, err: boom}
	e := sim.NewLiveEngine(src, nil, nil)

	err := e.Run(context.Background())
	require.ErrorIs(t, err, boom)
	// 退出前把缓冲区中的数据处理完
	assert.Equal(t, 1, e.Observations())
}
