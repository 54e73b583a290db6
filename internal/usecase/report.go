package usecase

import (
	"sync"
	"sync/atomic"
	"time"
)

const maxReportedFailures = 50

// PassReport is what every batch pass returns and logs.
type PassReport struct {
	Pass       string        `json:"pass"`
	RunID      string        `json:"run_id"`
	Total      int           `json:"total"`
	Created    int           `json:"created"`
	Resolved   int           `json:"resolved"`
	Merged     int           `json:"merged"`
	Retired    int           `json:"retired"`
	Updated    int           `json:"updated"`
	Rejected   int           `json:"rejected"`
	Ambiguous  int           `json:"ambiguous"`
	Invalid    int           `json:"invalid"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Failures   []ItemFailure `json:"failures,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

type ItemFailure struct {
	Item  string `json:"item"`
	Error string `json:"error"`
}

func (r PassReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// LogFields flattens the counters into logger key/value pairs.
func (r PassReport) LogFields() []any {
	return []any{
		"pass", r.Pass,
		"run_id", r.RunID,
		"total", r.Total,
		"created", r.Created,
		"resolved", r.Resolved,
		"merged", r.Merged,
		"retired", r.Retired,
		"updated", r.Updated,
		"rejected", r.Rejected,
		"ambiguous", r.Ambiguous,
		"invalid", r.Invalid,
		"failed", r.Failed,
		"skipped", r.Skipped,
		"duration", r.Duration(),
	}
}

// passTally is shared by the workers of one pass.
type passTally struct {
	created, resolved, merged, retired, updated atomic.Int64
	rejected, ambiguous, invalid, failed        atomic.Int64
	skipped                                     atomic.Int64

	mu       sync.Mutex
	failures []ItemFailure
}

func (t *passTally) fail(item string, err error) {
	t.failed.Add(1)
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.failures) < maxReportedFailures {
		t.failures = append(t.failures, ItemFailure{Item: item, Error: err.Error()})
	}
}

func (t *passTally) report(pass, runID string, total int, startedAt, finishedAt time.Time) PassReport {
	t.mu.Lock()
	failures := append([]ItemFailure(nil), t.failures...)
	t.mu.Unlock()

	return PassReport{
		Pass:       pass,
		RunID:      runID,
		Total:      total,
		Created:    int(t.created.Load()),
		Resolved:   int(t.resolved.Load()),
		Merged:     int(t.merged.Load()),
		Retired:    int(t.retired.Load()),
		Updated:    int(t.updated.Load()),
		Rejected:   int(t.rejected.Load()),
		Ambiguous:  int(t.ambiguous.Load()),
		Invalid:    int(t.invalid.Load()),
		Failed:     int(t.failed.Load()),
		Skipped:    int(t.skipped.Load()),
		Failures:   failures,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}
}
