package order

import (
	"github.com/google/btree"
	"go.uber.org/zap"

	"backtest-go/infrastructure/logger"
)

// sizeEpsilon 剩余数量低于该值即视为完全成交。
const sizeEpsilon = 1e-9

// TradeLookup 供 Registry 校验 RelatedID 指向的 trade。
type TradeLookup interface {
	TradeInstrument(tradeID uint64) (instrumentID uint32, ok bool)
}

// Registry 持有全部订单以及尚未完全成交的挂单队列（按 ID 即下单顺序排列）。
type Registry struct {
	ids     Sequence
	orders  map[uint64]*Order
	pending *btree.BTreeG[*Order]
	trades  TradeLookup
	states  *StateMachine
	log     *logger.Logger

	onMismatch func(*Order)
}

func byID(a, b *Order) bool { return a.ID < b.ID }

// NewRegistry 创建订单注册表；trades 可为 nil（跳过关联校验）。
func NewRegistry(trades TradeLookup, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.NewNop()
	}
	return &Registry{
		orders:  make(map[uint64]*Order),
		pending: btree.NewG[*Order](16, byID),
		trades:  trades,
		states:  NewStateMachine(),
		log:     log,
	}
}

// OnRelatedMismatch 注册关联校验失败时的回调（用于计数）。
func (r *Registry) OnRelatedMismatch(fn func(*Order)) {
	r.onMismatch = fn
}

// Place 分配 ID、登记订单并放入挂单队列，返回内部存储的订单。
// RelatedID 只做提示性校验：trade 不存在或品种不一致时仅告警，订单照常接收。
func (r *Registry) Place(o Order) *Order {
	o.ID = r.ids.Next()
	o.Status = StatusNew
	if o.Size < 0 {
		o.Size = 0
	}
	stored := &o
	r.orders[o.ID] = stored
	r.pending.ReplaceOrInsert(stored)

	if o.RelatedID != 0 && r.trades != nil {
		r.checkRelated(stored)
	}
	r.log.LogOrder("placed", o.ID, map[string]interface{}{
		"instrument": o.InstrumentID,
		"strategy":   o.StrategyID,
		"side":       string(o.Side),
		"type":       string(o.Type),
		"size":       o.Size,
	})
	return stored
}

func (r *Registry) checkRelated(o *Order) {
	inst, ok := r.trades.TradeInstrument(o.RelatedID)
	if !ok {
		r.log.Warn("related trade missing",
			zap.Uint64("order_id", o.ID),
			zap.Uint64("related_id", o.RelatedID),
		)
		r.mismatch(o)
		return
	}
	if inst != o.InstrumentID {
		r.log.Warn("related trade instrument mismatch",
			zap.Uint64("order_id", o.ID),
			zap.Uint64("related_id", o.RelatedID),
			zap.Uint32("order_instrument", o.InstrumentID),
			zap.Uint32("trade_instrument", inst),
		)
		r.mismatch(o)
	}
}

func (r *Registry) mismatch(o *Order) {
	if r.onMismatch != nil {
		r.onMismatch(o)
	}
}

// Consume 按成交数量扣减剩余数量并推进状态；完全成交后移出挂单队列。
func (r *Registry) Consume(o *Order, size float64) {
	o.Size -= size
	next := StatusPartial
	if o.Size <= sizeEpsilon {
		o.Size = 0
		next = StatusFilled
	}
	if err := r.states.ValidateTransition(o.Status, next); err != nil {
		r.log.Error("order status transition rejected", zap.Uint64("order_id", o.ID), zap.Error(err))
		return
	}
	o.Status = next
	if r.states.IsFinalState(next) {
		r.pending.Delete(o)
	}
}

// Get 按 ID 查询订单。
func (r *Registry) Get(id uint64) (*Order, bool) {
	o, ok := r.orders[id]
	return o, ok
}

// Pending 返回挂单队列快照，按下单顺序。
func (r *Registry) Pending() []*Order {
	out := make([]*Order, 0, r.pending.Len())
	r.pending.Ascend(func(o *Order) bool {
		out = append(out, o)
		return true
	})
	return out
}

// PendingLen 返回未完全成交的订单数。
func (r *Registry) PendingLen() int {
	return r.pending.Len()
}

// Len 返回登记过的订单总数。
func (r *Registry) Len() int {
	return len(r.orders)
}
