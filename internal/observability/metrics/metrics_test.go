package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWorkerObserverRecordsPagesAndOCR(t *testing.T) {
	m := NewWorkerMetrics("docpipe-worker")
	observer := m.PipelineObserver("docpipe-worker", "qari")

	observer.ObservePage(true)
	observer.ObservePage(true)
	observer.ObservePage(false)
	observer.ObserveOCR(3 * time.Second)

	success := testutil.ToFloat64(m.pageOutcomesTotal.WithLabelValues("docpipe-worker", "success"))
	failure := testutil.ToFloat64(m.pageOutcomesTotal.WithLabelValues("docpipe-worker", "failure"))
	if success != 2 || failure != 1 {
		t.Fatalf("page outcomes = %v success, %v failure", success, failure)
	}
	if got := testutil.CollectAndCount(m.ocrDuration); got != 1 {
		t.Fatalf("ocr duration series = %d", got)
	}
}

func TestWorkerObserverDefaultsUnknownVendor(t *testing.T) {
	m := NewWorkerMetrics("docpipe-worker")
	observer := m.PipelineObserver("docpipe-worker", "")

	observer.ObserveOCR(time.Second)

	if got := testutil.CollectAndCount(m.ocrDuration, "docpipe_ocr_duration_seconds"); got != 1 {
		t.Fatalf("ocr duration series = %d", got)
	}
	if observer.ocrVendor != "unknown" {
		t.Fatalf("vendor = %q", observer.ocrVendor)
	}
}

func TestHTTPObserverRecordsStagesAndPages(t *testing.T) {
	m := NewHTTPServerMetrics("docpipe-api")
	observer := m.PipelineObserver("docpipe-api")

	observer.ObserveStage("extract", 2*time.Second, true)
	observer.ObservePage(true)
	observer.ObserveOCR(time.Second) // no-op on the API registry

	fallbacks := testutil.ToFloat64(m.stageFallbackTotal.WithLabelValues("docpipe-api", "extract"))
	if fallbacks != 1 {
		t.Fatalf("fallbacks = %v", fallbacks)
	}
	pages := testutil.ToFloat64(m.pageOutcomesTotal.WithLabelValues("docpipe-api", "success"))
	if pages != 1 {
		t.Fatalf("pages = %v", pages)
	}
}
