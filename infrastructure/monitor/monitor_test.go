package monitor

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorCounters(t *testing.T) {
	m := New(DefaultConfig())

	m.RecordObservation("bar")
	m.RecordObservation("bar")
	m.RecordObservation("tick")
	m.RecordOrderPlaced()
	m.RecordOrderCompleted()
	m.RecordRelatedMismatch()
	m.RecordFill(2.5)
	m.RecordFill(1.5)
	m.RecordTradeTransition("opened")
	m.RecordTradeTransition("closed")
	m.RecordTradeTransition("closed")
	m.UpdatePendingOrders(4)
	m.UpdateOpenTrades(1)
	m.AddRealizedPnL(10)
	m.AddRealizedPnL(-2.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.observations.WithLabelValues("bar")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.observations.WithLabelValues("tick")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersPlaced))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersCompleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.relatedMismatch))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.fills))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.filledVolume))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tradeTransitions.WithLabelValues("opened")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.tradeTransitions.WithLabelValues("closed")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.pendingOrders))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.openTrades))
	assert.Equal(t, 7.5, testutil.ToFloat64(m.realizedPnL))
}

func TestNilMonitorIsNoop(t *testing.T) {
	var m *Monitor
	assert.NotPanics(t, func() {
		m.RecordObservation("bar")
		m.RecordOrderPlaced()
		m.RecordOrderCompleted()
		m.RecordRelatedMismatch()
		m.RecordFill(1)
		m.RecordTradeTransition("opened")
		m.UpdatePendingOrders(1)
		m.UpdateOpenTrades(1)
		m.AddRealizedPnL(1)
	})
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := New(Config{Namespace: "bt", Subsystem: "test"})
	m.RecordOrderPlaced()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "bt_test_orders_placed_total 1"))
}
