package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordRequest("Mast.JwstEdb.Mnemonics", "ok")
	r.RecordRequest("Mast.JwstEdb.Mnemonics", "ok")
	if got := testutil.ToFloat64(r.requestsTotal.WithLabelValues("Mast.JwstEdb.Mnemonics", "ok")); got != 2 {
		t.Fatalf("expected 2 requests, got %f", got)
	}

	r.RecordError("incomplete")
	if got := testutil.ToFloat64(r.errorsTotal.WithLabelValues("incomplete")); got != 1 {
		t.Fatalf("expected 1 error, got %f", got)
	}

	r.RecordCacheLookup(true)
	r.RecordCacheLookup(false)
	r.RecordCacheLookup(false)
	if got := testutil.ToFloat64(r.cacheLookups.WithLabelValues("miss")); got != 2 {
		t.Fatalf("expected 2 misses, got %f", got)
	}

	r.RecordLatency("request", 0.3)
	if samples := testutil.CollectAndCount(r.latency); samples != 1 {
		t.Fatalf("expected 1 latency series, got %d", samples)
	}
}

func TestRecordersOnSeparateRegistries(t *testing.T) {
	// Two recorders must not collide when each has its own registry.
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}
