package market

// Feed 逐条产出行情观测；没有更多数据时第二个返回值为 false。
type Feed interface {
	Poll() (Data, bool)
}

// SliceFeed 按顺序回放内存中的观测。
type SliceFeed struct {
	data  []Data
	index int
}

func NewSliceFeed(data []Data) *SliceFeed {
	return &SliceFeed{data: data}
}

func (f *SliceFeed) Poll() (Data, bool) {
	if f.index >= len(f.data) {
		return Data{}, false
	}
	d := f.data[f.index]
	f.index++
	return d, true
}

// Remaining 尚未回放的条数
func (f *SliceFeed) Remaining() int {
	return len(f.data) - f.index
}
