package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCycleLabels(t *testing.T) {
	before := testutil.ToFloat64(FetchCycles.WithLabelValues("reset", "success"))
	RecordCycle(true, "success")
	if got := testutil.ToFloat64(FetchCycles.WithLabelValues("reset", "success")); got != before+1 {
		t.Fatalf("reset/success = %v want %v", got, before+1)
	}
}

func TestRecordSummaryFallbackIgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(SummaryFallbacks.WithLabelValues("no_credential"))
	RecordSummaryFallback("no_credential", 0)
	RecordSummaryFallback("no_credential", 3)
	if got := testutil.ToFloat64(SummaryFallbacks.WithLabelValues("no_credential")); got != before+3 {
		t.Fatalf("fallbacks = %v want %v", got, before+3)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordTranslation(false)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "digest_translations_total") {
		t.Fatalf("missing digest_translations_total in exposition")
	}
}
