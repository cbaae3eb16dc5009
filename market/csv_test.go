package market

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tradeStationSample = `Date,Time,Open,High,Low,Close,Up,Down,Volume
01/02/2015,09:01,100,101,99,100.5,10,5,1000
01/02/2015,09:02,100.5,102,100,101.5,12,3,1100
01/02/2015,09:03,101.5,103,101,102.5,8,4,1200
01/02/2015,09:06,102.5,104,102,103.5,7,7,1300
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestCSVHandlerTradeStation(t *testing.T) {
	path := writeFile(t, "es.csv", tradeStationSample)
	h := NewCSVHandler(path, TradeStationParser{}, nil)

	_, err := h.Feed()
	require.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, h.Start())
	assert.Equal(t, 4, h.Len())

	feed, err := h.Feed()
	require.NoError(t, err)
	d, ok := feed.Poll()
	require.True(t, ok)
	assert.Equal(t, KindBar, d.Kind)
	assert.True(t, d.Bar.Ts.Equal(time.Date(2015, 1, 2, 9, 1, 0, 0, time.UTC)))
	assert.Equal(t, 100.0, d.Bar.Open)
	assert.Equal(t, 101.0, d.Bar.High)
	assert.Equal(t, 99.0, d.Bar.Low)
	assert.Equal(t, 100.5, d.Bar.Close)
	assert.Equal(t, 1000.0, d.Bar.Volume)

	h.Stop()
	assert.Equal(t, 0, h.Len())
	_, err = h.Feed()
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestCSVHandlerConsolidates(t *testing.T) {
	path := writeFile(t, "es.csv", tradeStationSample)
	c, err := NewBarConsolidator(1, 5)
	require.NoError(t, err)
	h := NewCSVHandler(path, TradeStationParser{}, c)
	require.NoError(t, h.Start())
	require.Equal(t, 2, h.Len())

	feed, err := h.Feed()
	require.NoError(t, err)
	first, _ := feed.Poll()
	assert.True(t, first.Bar.Ts.Equal(time.Date(2015, 1, 2, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, 100.0, first.Bar.Open)
	assert.Equal(t, 103.0, first.Bar.High)
	assert.Equal(t, 102.5, first.Bar.Close)
	assert.Equal(t, 3300.0, first.Bar.Volume)

	second, _ := feed.Poll()
	assert.True(t, second.Bar.Ts.Equal(time.Date(2015, 1, 2, 9, 5, 0, 0, time.UTC)))
	assert.Equal(t, 1300.0, second.Bar.Volume)
}

func TestCSVHandlerTicks(t *testing.T) {
	path := writeFile(t, "ticks.csv", "ts,price,size\n1672565400000,100.25,3\n1672565401000,100.5,1\n")
	parser, err := ParserFor("ticks")
	require.NoError(t, err)
	h := NewCSVHandler(path, parser, nil)
	require.NoError(t, h.Start())

	feed, err := h.Feed()
	require.NoError(t, err)
	d, ok := feed.Poll()
	require.True(t, ok)
	assert.Equal(t, KindTick, d.Kind)
	assert.Equal(t, int64(1672565400000), d.Tick.Ts.UnixMilli())
	assert.Equal(t, 100.25, d.Tick.Price)
	assert.Equal(t, 3.0, d.Tick.Size)
}

func TestCSVHandlerErrors(t *testing.T) {
	t.Run("文件不存在", func(t *testing.T) {
		h := NewCSVHandler(filepath.Join(t.TempDir(), "missing.csv"), TradeStationParser{}, nil)
		assert.Error(t, h.Start())
	})

	t.Run("坏行带行号", func(t *testing.T) {
		path := writeFile(t, "bad.csv", "Date,Time,Open,High,Low,Close,Up,Down,Volume\n01/02/2015,09:01,100,101,99,100.5,10,5,1000\n01/02/2015,09:02,abc,102,100,101.5,12,3,1100\n")
		h := NewCSVHandler(path, TradeStationParser{}, nil)
		err := h.Start()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 3")
	})

	t.Run("只有表头", func(t *testing.T) {
		path := writeFile(t, "empty.csv", "Date,Time,Open,High,Low,Close,Up,Down,Volume\n")
		h := NewCSVHandler(path, TradeStationParser{}, nil)
		require.NoError(t, h.Start())
		assert.Equal(t, 0, h.Len())
	})

	t.Run("tick 数据不能合并", func(t *testing.T) {
		path := writeFile(t, "ticks.csv", "ts,price,size\n1672565400000,100,1\n")
		c, err := NewBarConsolidator(1, 5)
		require.NoError(t, err)
		h := NewCSVHandler(path, TickParser{}, c)
		assert.ErrorIs(t, h.Start(), ErrNotBar)
	})
}

func TestParserFor(t *testing.T) {
	cases := []struct {
		format  string
		want    RowParser
		wantErr bool
	}{
		{"", TradeStationParser{}, false},
		{"TradeStation", TradeStationParser{}, false},
		{"tick", TickParser{}, false},
		{"ticks", TickParser{}, false},
		{"parquet", nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.format, func(t *testing.T) {
			p, err := ParserFor(tc.format)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tc.want, p)
		})
	}
}

func TestParseRowShortRecords(t *testing.T) {
	_, err := TradeStationParser{}.ParseRow([]string{"01/02/2015", "09:01"})
	assert.Error(t, err)
	_, err = TickParser{}.ParseRow([]string{"1"})
	assert.Error(t, err)
	_, err = TradeStationParser{}.ParseRow([]string{"2015-01-02", "09:01", "1", "1", "1", "1", "0", "0", "1"})
	assert.Error(t, err)
}
