package order

// Sequence 单调递增的 ID 生成器，从 1 开始，不复用。
// 每个引擎实例各自持有，不是全局变量。
type Sequence struct {
	last uint64
}

// Next 返回下一个 ID。
func (s *Sequence) Next() uint64 {
	s.last++
	return s.last
}

// Last 返回最近一次分配的 ID，未分配时为 0。
func (s *Sequence) Last() uint64 {
	return s.last
}
