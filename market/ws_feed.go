package market

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"backtest-go/infrastructure/logger"
)

// wsMessage 行情推送格式：type 为 tick 或 bar，ts 为毫秒时间戳。
type wsMessage struct {
	Type   string  `json:"type"`
	Ts     int64   `json:"ts"`
	Price  float64 `json:"price"`
	Size   float64 `json:"size"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// ParseMessage 解析一条 websocket 行情消息。
func ParseMessage(raw []byte) (Data, error) {
	var msg wsMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Data{}, fmt.Errorf("decode message: %w", err)
	}
	ts := time.UnixMilli(msg.Ts).UTC()
	switch msg.Type {
	case "tick":
		return TickData(Tick{Ts: ts, Price: msg.Price, Size: msg.Size}), nil
	case "bar":
		return BarData(Bar{Ts: ts, Open: msg.Open, High: msg.High, Low: msg.Low, Close: msg.Close, Volume: msg.Volume}), nil
	default:
		return Data{}, fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// WSFeed 从 websocket 读取行情，放入有界缓冲区供 Poll 非阻塞取出。
// 缓冲区满时丢弃新消息，不阻塞读协程；丢弃和解析失败都会计数并告警。
type WSFeed struct {
	URL    string
	Dialer *websocket.Dialer
	buf    chan Data
	log    *logger.Logger

	dropped   atomic.Int64
	malformed atomic.Int64
}

// NewWSFeed log 可为 nil。
func NewWSFeed(url string, bufferSize int, log *logger.Logger) *WSFeed {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &WSFeed{
		URL:    url,
		Dialer: websocket.DefaultDialer,
		buf:    make(chan Data, bufferSize),
		log:    log,
	}
}

// Run 连接并持续读取，直到 ctx 结束或连接出错。
func (f *WSFeed) Run(ctx context.Context) error {
	conn, _, err := f.Dialer.DialContext(ctx, f.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.URL, err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		d, err := ParseMessage(message)
		if err != nil {
			n := f.malformed.Add(1)
			f.log.Warn("ws message dropped: malformed",
				zap.Error(err),
				zap.Int("bytes", len(message)),
				zap.Int64("malformed_total", n),
			)
			continue
		}
		select {
		case f.buf <- d:
		default:
			n := f.dropped.Add(1)
			f.log.Warn("ws message dropped: buffer full",
				zap.String("kind", d.Kind.String()),
				zap.Int("buffer", cap(f.buf)),
				zap.Int64("dropped_total", n),
			)
		}
	}
}

// Poll 非阻塞地取出一条观测。
func (f *WSFeed) Poll() (Data, bool) {
	select {
	case d := <-f.buf:
		return d, true
	default:
		return Data{}, false
	}
}

// Dropped 因缓冲区满被丢弃的消息数
func (f *WSFeed) Dropped() int64 { return f.dropped.Load() }

// Malformed 解析失败的消息数
func (f *WSFeed) Malformed() int64 { return f.malformed.Load() }
