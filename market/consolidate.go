package market

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ErrNotBar 合并输入里出现了非 bar 数据。
var ErrNotBar = errors.New("consolidation expects bar data only")

// BarConsolidator 把细粒度分钟 bar 合并成粗粒度 bar，例如 1 分钟 -> 30 分钟。
// 分桶以小时内的分钟数为准：bucket = minute - minute%OutputMinutes。
type BarConsolidator struct {
	InputMinutes  int
	OutputMinutes int
}

// NewBarConsolidator 输出周期必须是输入周期的整数倍。
func NewBarConsolidator(inputMinutes, outputMinutes int) (*BarConsolidator, error) {
	if inputMinutes <= 0 || outputMinutes <= 0 {
		return nil, fmt.Errorf("consolidation minutes must be > 0 (input=%d output=%d)", inputMinutes, outputMinutes)
	}
	if outputMinutes%inputMinutes != 0 {
		return nil, fmt.Errorf("output_minutes (%d) must be a multiple of input_minutes (%d)", outputMinutes, inputMinutes)
	}
	return &BarConsolidator{InputMinutes: inputMinutes, OutputMinutes: outputMinutes}, nil
}

func (c *BarConsolidator) bucketStart(ts time.Time) time.Time {
	minute := ts.Minute() - ts.Minute()%c.OutputMinutes
	return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), minute, 0, 0, ts.Location())
}

// Consolidate 合并后按时间升序返回；缺失的分钟 bar 不影响结果。
func (c *BarConsolidator) Consolidate(data []Data) ([]Data, error) {
	buckets := make(map[time.Time][]Bar)
	for _, d := range data {
		if d.Kind != KindBar {
			return nil, fmt.Errorf("%w: got %s", ErrNotBar, d.Kind)
		}
		start := c.bucketStart(d.Bar.Ts)
		buckets[start] = append(buckets[start], d.Bar)
	}

	out := make([]Data, 0, len(buckets))
	for start, bars := range buckets {
		sort.SliceStable(bars, func(i, j int) bool { return bars[i].Ts.Before(bars[j].Ts) })
		merged := Bar{
			Ts:    start,
			Open:  bars[0].Open,
			Close: bars[len(bars)-1].Close,
			High:  math.Inf(-1),
			Low:   math.Inf(1),
		}
		for _, b := range bars {
			if b.High > merged.High {
				merged.High = b.High
			}
			if b.Low < merged.Low {
				merged.Low = b.Low
			}
			merged.Volume += b.Volume
		}
		out = append(out, BarData(merged))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bar.Ts.Before(out[j].Bar.Ts) })
	return out, nil
}
