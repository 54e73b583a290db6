package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/platform/logging"
	"github.com/MGMAppDev/soccerview-sub009/internal/usecase"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func sampleReport() usecase.PassReport {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return usecase.PassReport{
		Pass:       "dedup-matches",
		RunID:      "run-1",
		Total:      10,
		Retired:    3,
		Failed:     1,
		StartedAt:  started,
		FinishedAt: started.Add(4 * time.Second),
	}
}

func TestPassMetrics_Record(t *testing.T) {
	t.Parallel()

	m := NewPassMetrics("", "", logging.NewNop())
	m.Record(sampleReport())

	if got := testutil.ToFloat64(m.counts.WithLabelValues("dedup-matches", "retired")); got != 3 {
		t.Fatalf("expected retired=3, got %v", got)
	}
	if got := testutil.ToFloat64(m.counts.WithLabelValues("dedup-matches", "failed")); got != 1 {
		t.Fatalf("expected failed=1, got %v", got)
	}
	if got := testutil.ToFloat64(m.duration.WithLabelValues("dedup-matches")); got != 4 {
		t.Fatalf("expected duration=4s, got %v", got)
	}
}

func TestPassMetrics_PushWithoutURLIsNoop(t *testing.T) {
	t.Parallel()

	m := NewPassMetrics("", "", logging.NewNop())
	if err := m.Push(t.Context(), "resolve"); err != nil {
		t.Fatalf("push without url: %v", err)
	}
}

func TestPassMetrics_PushGroupsByPass(t *testing.T) {
	t.Parallel()

	var path atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewPassMetrics(srv.URL, "reconcile-test", logging.NewNop())
	m.Record(sampleReport())
	if err := m.Push(t.Context(), "dedup-matches"); err != nil {
		t.Fatalf("push: %v", err)
	}

	got, _ := path.Load().(string)
	if !strings.HasPrefix(got, "/metrics/job/reconcile-test") || !strings.Contains(got, "pass/dedup-matches") {
		t.Fatalf("unexpected push path %q", got)
	}
}
