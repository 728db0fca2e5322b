package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	taskCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "todobot",
			Name:      "task_created_total",
			Help:      "Count of tasks created by source.",
		},
		[]string{"source"},
	)

	taskCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "todobot",
			Name:      "task_completed_total",
			Help:      "Count of tasks marked completed.",
		},
	)

	reminderSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "todobot",
			Name:      "reminder_sent_total",
			Help:      "Count of deadline reminders delivered.",
		},
	)

	reminderFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "todobot",
			Name:      "reminder_failed_total",
			Help:      "Count of deadline reminders that failed to deliver.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(taskCreated, taskCompleted, reminderSent, reminderFailed)
	})
}

func IncTaskCreated(source string) {
	taskCreated.WithLabelValues(source).Inc()
}

func IncTaskCompleted() {
	taskCompleted.Inc()
}

func IncReminderSent() {
	reminderSent.Inc()
}

func IncReminderFailed() {
	reminderFailed.Inc()
}
