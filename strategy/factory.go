package strategy

import (
	"errors"
	"fmt"
)

// Kind 策略类型
type Kind string

const (
	KindMACross Kind = "ma_cross"
)

// Params 创建策略所需的参数，来自配置文件。
type Params struct {
	Kind       Kind
	FastPeriod int
	SlowPeriod int
	Size       float64
}

// ErrUnknownKind 未注册的策略类型
var ErrUnknownKind = errors.New("unknown strategy kind")

// Factory creates strategy instances based on configuration.
type Factory struct{}

// NewFactory creates a new Factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create 按类型创建策略；id 与 instrumentID 由调用方分配。
func (f *Factory) Create(id, instrumentID uint32, p Params) (Strategy, error) {
	switch p.Kind {
	case KindMACross:
		if p.FastPeriod <= 0 || p.SlowPeriod <= 0 {
			return nil, fmt.Errorf("ma_cross periods must be > 0 (fast=%d slow=%d)", p.FastPeriod, p.SlowPeriod)
		}
		if p.FastPeriod >= p.SlowPeriod {
			return nil, fmt.Errorf("ma_cross fastPeriod (%d) must be < slowPeriod (%d)", p.FastPeriod, p.SlowPeriod)
		}
		if p.Size <= 0 {
			return nil, errors.New("ma_cross size must be > 0")
		}
		return NewMACross(id, instrumentID, MACrossConfig{
			FastPeriod: p.FastPeriod,
			SlowPeriod: p.SlowPeriod,
			Size:       p.Size,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, p.Kind)
	}
}
