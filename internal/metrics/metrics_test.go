package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	if m == nil {
		t.Fatal("New() returned nil")
	}
	if m.CatalogSize == nil {
		t.Error("CatalogSize is nil")
	}
	if m.WebhookRequestsTotal == nil {
		t.Error("WebhookRequestsTotal is nil")
	}
	if m.ModelCallsTotal == nil {
		t.Error("ModelCallsTotal is nil")
	}
	if m.ShortcutHitsTotal == nil {
		t.Error("ShortcutHitsTotal is nil")
	}
	if m.ActiveSessions == nil {
		t.Error("ActiveSessions is nil")
	}
}

func TestNewRegistersWithoutPanic(t *testing.T) {
	// Registering twice on the same registry would panic; each instance
	// must use its own registry.
	r1 := prometheus.NewRegistry()
	r2 := prometheus.NewRegistry()
	_ = New(r1)
	_ = New(r2)
}

func TestRecordHelpers(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordCatalogLoad("file", "success", 42)
	if got := testutil.ToFloat64(m.CatalogSize); got != 42 {
		t.Errorf("expected catalog size 42, got %v", got)
	}

	m.RecordShortcutHit()
	if got := testutil.ToFloat64(m.ShortcutHitsTotal); got != 1 {
		t.Errorf("expected 1 shortcut hit, got %v", got)
	}
	if got := testutil.ToFloat64(m.MessagesTotal.WithLabelValues("shortcut")); got != 1 {
		t.Errorf("expected shortcut outcome recorded, got %v", got)
	}

	m.RecordModelCall("gemini", "success", 1.5)
	if got := testutil.ToFloat64(m.ModelCallsTotal.WithLabelValues("gemini", "success")); got != 1 {
		t.Errorf("expected 1 model call, got %v", got)
	}

	m.RecordSessionEvictions(0)
	m.RecordSessionEvictions(3)
	if got := testutil.ToFloat64(m.SessionEvictions); got != 3 {
		t.Errorf("expected 3 evictions, got %v", got)
	}

	m.RecordRecordDrop("localidades", 8)
	if got := testutil.ToFloat64(m.CatalogRecordDrops.WithLabelValues("localidades")); got != 8 {
		t.Errorf("expected 8 dropped entries, got %v", got)
	}
}
