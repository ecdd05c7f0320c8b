package metrics_test

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/artpar/lookup/adapters/metrics"
)

func TestNew(t *testing.T) {
	// Use a new registry to avoid conflicts with other tests
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	if m == nil {
		t.Fatal("NewWithRegistry returned nil")
	}

	if m.LookupsTotal == nil {
		t.Error("LookupsTotal is nil")
	}
	if m.LookupDuration == nil {
		t.Error("LookupDuration is nil")
	}
	if m.ItemsTotal == nil {
		t.Error("ItemsTotal is nil")
	}
	if m.ConfigReloads == nil {
		t.Error("ConfigReloads is nil")
	}
}

func TestBegin(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	done := m.Begin("tables")
	if got := testutil.ToFloat64(m.LookupsInFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	done(nil)
	m.Begin("tables")(errors.New("boom"))

	if got := testutil.ToFloat64(m.LookupsInFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.LookupsTotal.WithLabelValues("tables", "ok")); got != 1 {
		t.Errorf("ok lookups = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LookupsTotal.WithLabelValues("tables", "error")); got != 1 {
		t.Errorf("error lookups = %v, want 1", got)
	}
}

func TestItemAndScope(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.Item("configs", metrics.OutcomeDenied)
	m.Item("configs", metrics.OutcomeDenied)
	m.ScopeFailure("role", "unknown")

	if got := testutil.ToFloat64(m.ItemsTotal.WithLabelValues("configs", "denied")); got != 2 {
		t.Errorf("denied = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ScopeFailures.WithLabelValues("role", "unknown")); got != 1 {
		t.Errorf("scope failures = %v, want 1", got)
	}
}

func TestReloaded(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.Reloaded(nil)
	m.Reloaded(errors.New("bad yaml"))

	if got := testutil.ToFloat64(m.ConfigReloads); got != 1 {
		t.Errorf("reloads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ConfigReloadErrors); got != 1 {
		t.Errorf("reload errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ConfigLastReload); got == 0 {
		t.Error("last reload timestamp not set")
	}
}

func TestNilCollector(t *testing.T) {
	var m *metrics.Collector
	m.Begin("enums")(nil)
	m.Item("enums", metrics.OutcomeOK)
	m.ScopeFailure("x", "y")
	m.HTTPRequest("GET", "/", "200")
	m.Reloaded(nil)
}
