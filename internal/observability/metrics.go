package observability

import (
	"context"
	"fmt"
	"strings"

	"github.com/MGMAppDev/soccerview-sub009/internal/platform/logging"
	"github.com/MGMAppDev/soccerview-sub009/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PassMetrics holds the gauges for one batch run. A CLI process runs and
// exits, so the values are pushed to a Prometheus pushgateway rather than
// scraped.
type PassMetrics struct {
	registry *prometheus.Registry
	counts   *prometheus.GaugeVec
	duration *prometheus.GaugeVec
	finished *prometheus.GaugeVec

	pushURL string
	job     string
	logger  *logging.Logger
}

func NewPassMetrics(pushURL, job string, logger *logging.Logger) *PassMetrics {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(job) == "" {
		job = "soccerview-reconcile"
	}

	m := &PassMetrics{
		registry: prometheus.NewRegistry(),
		counts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "reconcile",
			Name:      "pass_items",
			Help:      "Items handled by the last pass, by outcome.",
		}, []string{"pass", "outcome"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "reconcile",
			Name:      "pass_duration_seconds",
			Help:      "Wall time of the last pass.",
		}, []string{"pass"}),
		finished: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "reconcile",
			Name:      "pass_last_finished_timestamp_seconds",
			Help:      "Unix time the last pass finished.",
		}, []string{"pass"}),
		pushURL: strings.TrimSpace(pushURL),
		job:     job,
		logger:  logger,
	}
	m.registry.MustRegister(m.counts, m.duration, m.finished)
	return m
}

func (m *PassMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Record sets the gauges from a finished pass report.
func (m *PassMetrics) Record(report usecase.PassReport) {
	outcomes := map[string]int{
		"total":     report.Total,
		"created":   report.Created,
		"resolved":  report.Resolved,
		"merged":    report.Merged,
		"retired":   report.Retired,
		"updated":   report.Updated,
		"rejected":  report.Rejected,
		"ambiguous": report.Ambiguous,
		"invalid":   report.Invalid,
		"failed":    report.Failed,
		"skipped":   report.Skipped,
	}
	for outcome, n := range outcomes {
		m.counts.WithLabelValues(report.Pass, outcome).Set(float64(n))
	}
	m.duration.WithLabelValues(report.Pass).Set(report.Duration().Seconds())
	if !report.FinishedAt.IsZero() {
		m.finished.WithLabelValues(report.Pass).Set(float64(report.FinishedAt.Unix()))
	}
}

// Push sends the registry to the pushgateway, grouped by pass. Without a
// push URL it is a no-op.
func (m *PassMetrics) Push(ctx context.Context, pass string) error {
	if m.pushURL == "" {
		m.logger.DebugContext(ctx, "metrics push skipped", "reason", "METRICS_PUSH_URL empty")
		return nil
	}

	err := push.New(m.pushURL, m.job).
		Gatherer(m.registry).
		Grouping("pass", pass).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics pass=%s: %w", pass, err)
	}
	m.logger.InfoContext(ctx, "metrics pushed", "pass", pass, "url", m.pushURL)
	return nil
}
