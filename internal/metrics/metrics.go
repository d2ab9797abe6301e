// Package metrics exposes the actor's instrumentation as Prometheus
// collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/seantiz/stash/internal/model"
)

// Actor implements actor.Metrics on top of Prometheus collectors.
type Actor struct {
	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	inflight        prometheus.Gauge
	mailboxDepth    prometheus.Gauge
	results         *prometheus.CounterVec
	taskDuration    prometheus.Histogram
}

// NewActor creates the actor collectors and registers them with reg.
// It panics if registration fails, like prometheus.MustRegister.
func NewActor(reg prometheus.Registerer) *Actor {
	m := &Actor{
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stash_actor_commands_total",
				Help: "Total number of commands processed by the actor.",
			},
			[]string{"kind", "success"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stash_actor_command_duration_seconds",
				Help:    "Time spent applying a command.",
				Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
			},
			[]string{"kind"},
		),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stash_actor_tasks_inflight",
			Help: "Number of background tasks currently running.",
		}),
		mailboxDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stash_actor_mailbox_depth",
			Help: "Commands waiting in the mailbox when the last one was taken.",
		}),
		results: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stash_actor_task_results_total",
				Help: "Total number of finished background tasks by outcome.",
			},
			[]string{"outcome"},
		),
		taskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stash_actor_task_duration_seconds",
			Help:    "Background task duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.commands,
		m.commandDuration,
		m.inflight,
		m.mailboxDepth,
		m.results,
		m.taskDuration,
	)
	return m
}

func (m *Actor) CommandProcessed(kind string, success bool, d time.Duration) {
	m.commands.WithLabelValues(kind, strconv.FormatBool(success)).Inc()
	m.commandDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Actor) MailboxDepth(depth int) {
	m.mailboxDepth.Set(float64(depth))
}

func (m *Actor) TasksInflight(count int) {
	m.inflight.Set(float64(count))
}

func (m *Actor) TaskFinished(r model.TaskResult) {
	m.results.WithLabelValues(r.Outcome).Inc()
	m.taskDuration.Observe(float64(r.DurationMS) / 1000)
}
