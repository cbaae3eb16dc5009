package market

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrNotStarted Feed 在 Start 之前被调用。
var ErrNotStarted = errors.New("data handler not started")

// RowParser 把一行 CSV 记录解析成一条观测。
type RowParser interface {
	ParseRow(row []string) (Data, error)
}

// TradeStationParser 解析 TradeStation 导出的分钟 bar：
// Date,Time,Open,High,Low,Close,Up,Down,Volume，日期格式 01/02/2015 09:01。
type TradeStationParser struct {
	Location *time.Location
}

const tradeStationLayout = "01/02/2006 15:04"

func (p TradeStationParser) ParseRow(row []string) (Data, error) {
	if len(row) < 9 {
		return Data{}, fmt.Errorf("tradestation row needs 9 columns, got %d", len(row))
	}
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	ts, err := time.ParseInLocation(tradeStationLayout, strings.TrimSpace(row[0])+" "+strings.TrimSpace(row[1]), loc)
	if err != nil {
		return Data{}, fmt.Errorf("parse date: %w", err)
	}
	vals, err := parseFloats(row, 2, 3, 4, 5, 8)
	if err != nil {
		return Data{}, err
	}
	return BarData(Bar{
		Ts:     ts,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}), nil
}

// TickParser 解析 unix_ms,price,size 格式的逐笔数据。
type TickParser struct{}

func (TickParser) ParseRow(row []string) (Data, error) {
	if len(row) < 3 {
		return Data{}, fmt.Errorf("tick row needs 3 columns, got %d", len(row))
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
	if err != nil {
		return Data{}, fmt.Errorf("parse timestamp: %w", err)
	}
	vals, err := parseFloats(row, 1, 2)
	if err != nil {
		return Data{}, err
	}
	return TickData(Tick{Ts: time.UnixMilli(ms).UTC(), Price: vals[0], Size: vals[1]}), nil
}

func parseFloats(row []string, cols ...int) ([]float64, error) {
	out := make([]float64, len(cols))
	for i, c := range cols {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[c]), 64)
		if err != nil {
			return nil, fmt.Errorf("parse column %d: %w", c, err)
		}
		out[i] = v
	}
	return out, nil
}

// ParserFor 按格式名返回解析器：tradestation 或 ticks。
func ParserFor(format string) (RowParser, error) {
	switch strings.ToLower(format) {
	case "", "tradestation":
		return TradeStationParser{}, nil
	case "ticks", "tick":
		return TickParser{}, nil
	default:
		return nil, fmt.Errorf("unknown data format %q", format)
	}
}

// CSVHandler 从带表头的 CSV 文件加载全部观测，可选地合并 bar。
type CSVHandler struct {
	Path         string
	parser       RowParser
	consolidator *BarConsolidator
	data         []Data
	started      bool
}

// NewCSVHandler consolidator 可为 nil。
func NewCSVHandler(path string, parser RowParser, consolidator *BarConsolidator) *CSVHandler {
	return &CSVHandler{Path: path, parser: parser, consolidator: consolidator}
}

// Start 读取并解析文件。
func (h *CSVHandler) Start() error {
	f, err := os.Open(h.Path)
	if err != nil {
		return fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	data, err := h.load(f)
	if err != nil {
		return fmt.Errorf("load %s: %w", h.Path, err)
	}
	if h.consolidator != nil {
		data, err = h.consolidator.Consolidate(data)
		if err != nil {
			return err
		}
	}
	h.data = data
	h.started = true
	return nil
}

func (h *CSVHandler) load(r io.Reader) ([]Data, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if _, err := reader.Read(); err != nil { // header
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	var out []Data
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, err
		}
		d, err := h.parser.ParseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// Stop 释放已加载的数据。
func (h *CSVHandler) Stop() {
	h.data = nil
	h.started = false
}

// Len 已加载的观测条数
func (h *CSVHandler) Len() int {
	return len(h.data)
}

// Feed 返回从头回放的 Feed。
func (h *CSVHandler) Feed() (Feed, error) {
	if !h.started {
		return nil, ErrNotStarted
	}
	return NewSliceFeed(h.data), nil
}
