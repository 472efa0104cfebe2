package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCheckoutMetricsCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newCheckoutMetricsWithRegisterer(registry)

	m.RecordOrderCreated()
	m.RecordOrderCreated()
	m.RecordOrderCancelled()
	m.RecordStockReserved(3)
	m.RecordStockReleased(3)
	m.RecordCheckoutFailed("insufficient_stock")
	m.RecordCheckoutDuration(150 * time.Millisecond)

	if got := testutil.ToFloat64(m.ordersCreated); got != 2 {
		t.Errorf("orders created = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ordersCancelled); got != 1 {
		t.Errorf("orders cancelled = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.stockReserved); got != 3 {
		t.Errorf("stock reserved = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.stockReleased); got != 3 {
		t.Errorf("stock released = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.checkoutFailed.WithLabelValues("insufficient_stock")); got != 1 {
		t.Errorf("checkout failed = %v, want 1", got)
	}
}

func TestCheckoutMetricsActiveGauge(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newCheckoutMetricsWithRegisterer(registry)

	m.RecordCheckoutStarted()
	m.RecordCheckoutStarted()
	m.RecordCheckoutFinished()

	if got := testutil.ToFloat64(m.activeCheckouts); got != 1 {
		t.Errorf("active checkouts = %v, want 1", got)
	}
}

func TestCheckoutMetricsDoubleRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()

	first := newCheckoutMetricsWithRegisterer(registry)
	second := newCheckoutMetricsWithRegisterer(registry)

	first.RecordOrderCreated()
	second.RecordOrderCreated()

	// Повторная регистрация возвращает существующие коллекторы.
	if got := testutil.ToFloat64(second.ordersCreated); got != 2 {
		t.Errorf("orders created = %v, want 2", got)
	}
}
