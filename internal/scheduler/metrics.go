package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
)

const schedulerLabel = "scheduler"

var (
	queueLengthGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "flowgrid",
		Subsystem: "scheduler",
		Name:      "queue_length",
		Help:      "Number of queued tasks, including executing ones.",
	}, []string{schedulerLabel})
	executingGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "flowgrid",
		Subsystem: "scheduler",
		Name:      "executing_tasks",
		Help:      "Number of tasks currently executing.",
	}, []string{schedulerLabel})
	availableThreadsGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "flowgrid",
		Subsystem: "scheduler",
		Name:      "available_threads",
		Help:      "CPU threads not reserved by any task.",
	}, []string{schedulerLabel})
	tasksCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flowgrid",
		Subsystem: "scheduler",
		Name:      "tasks_total",
		Help:      "Completed tasks by outcome.",
	}, []string{schedulerLabel, "outcome"})
	rejectedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flowgrid",
		Subsystem: "scheduler",
		Name:      "rejected_submissions_total",
		Help:      "Submissions rejected because a stage was executing.",
	}, []string{schedulerLabel})
	taskDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "flowgrid",
		Subsystem: "scheduler",
		Name:      "task_duration_seconds",
		Help:      "Bucketed histogram of stage execution time.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 18),
	}, []string{schedulerLabel})
)

// InitMetrics registers all metrics in this package.
func InitMetrics(registry *prometheus.Registry) {
	registry.MustRegister(queueLengthGauge)
	registry.MustRegister(executingGauge)
	registry.MustRegister(availableThreadsGauge)
	registry.MustRegister(tasksCounter)
	registry.MustRegister(rejectedCounter)
	registry.MustRegister(taskDurationHistogram)
}

// metrics holds one scheduler's series.
type metrics struct {
	name             string
	queueLength      prometheus.Gauge
	executing        prometheus.Gauge
	availableThreads prometheus.Gauge
	succeeded        prometheus.Counter
	failed           prometheus.Counter
	rejected         prometheus.Counter
	taskDuration     prometheus.Observer
}

func newMetrics(name string) *metrics {
	return &metrics{
		name:             name,
		queueLength:      queueLengthGauge.WithLabelValues(name),
		executing:        executingGauge.WithLabelValues(name),
		availableThreads: availableThreadsGauge.WithLabelValues(name),
		succeeded:        tasksCounter.WithLabelValues(name, "succeeded"),
		failed:           tasksCounter.WithLabelValues(name, "failed"),
		rejected:         rejectedCounter.WithLabelValues(name),
		taskDuration:     taskDurationHistogram.WithLabelValues(name),
	}
}

// remove drops every series of the scheduler.
func (m *metrics) remove() {
	labels := prometheus.Labels{schedulerLabel: m.name}
	queueLengthGauge.DeletePartialMatch(labels)
	executingGauge.DeletePartialMatch(labels)
	availableThreadsGauge.DeletePartialMatch(labels)
	tasksCounter.DeletePartialMatch(labels)
	rejectedCounter.DeletePartialMatch(labels)
	taskDurationHistogram.DeletePartialMatch(labels)
}
