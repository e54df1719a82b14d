package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TaskMetrics records derivation query and completion write metadata.
type TaskMetrics struct {
	queryDuration    *prometheus.HistogramVec
	tasksListed      *prometheus.CounterVec
	completionWrites *prometheus.CounterVec
}

// NewTaskMetrics registers the task engine metrics on the provided registerer.
func NewTaskMetrics(reg prometheus.Registerer) *TaskMetrics {
	if reg == nil {
		return &TaskMetrics{}
	}
	queryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "task_query_duration_seconds",
		Help:    "Duration of classifier derivation queries in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"classifier"})
	tasksListed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tasks_listed_total",
		Help: "Tasks returned across list requests.",
	}, []string{"classifier"})
	completionWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "task_completion_writes_total",
		Help: "Completion overlay upserts.",
	}, []string{"result"})
	reg.MustRegister(queryDuration, tasksListed, completionWrites)
	return &TaskMetrics{
		queryDuration:    queryDuration,
		tasksListed:      tasksListed,
		completionWrites: completionWrites,
	}
}

// ObserveQuery records the duration of one classifier derivation.
func (m *TaskMetrics) ObserveQuery(classifier string, duration time.Duration) {
	if m == nil || m.queryDuration == nil {
		return
	}
	m.queryDuration.WithLabelValues(normalizeLabel(classifier)).Observe(duration.Seconds())
}

// AddListed counts tasks returned for the named classifier.
func (m *TaskMetrics) AddListed(classifier string, n int) {
	if m == nil || m.tasksListed == nil || n <= 0 {
		return
	}
	m.tasksListed.WithLabelValues(normalizeLabel(classifier)).Add(float64(n))
}

// IncCompletionWrite counts one overlay upsert outcome ("ok" or "error").
func (m *TaskMetrics) IncCompletionWrite(result string) {
	if m == nil || m.completionWrites == nil {
		return
	}
	m.completionWrites.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	label := strings.ToLower(strings.TrimSpace(value))
	if label == "" {
		return "unknown"
	}
	return strings.ReplaceAll(label, " ", "_")
}
