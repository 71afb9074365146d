package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	EventsReceived  prometheus.Counter
	DuplicateEvents prometheus.Counter
	RuleMatches     prometheus.Counter
	SendSuccesses   prometheus.Counter
	SendFailures    prometheus.Counter
	ProcessingTime  prometheus.Histogram
	ActiveRules     prometheus.Gauge
	TotalRules      prometheus.Gauge
}

// NewMetrics creates new Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		EventsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dm_automation_events_received_total",
			Help: "Total number of inbound webhook message events",
		}),
		DuplicateEvents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dm_automation_duplicate_events_total",
			Help: "Total number of redelivered events dropped by idempotency",
		}),
		RuleMatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dm_automation_rule_matches_total",
			Help: "Total number of events that selected an automation rule",
		}),
		SendSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dm_automation_send_successes_total",
			Help: "Total number of automated replies sent successfully",
		}),
		SendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dm_automation_send_failures_total",
			Help: "Total number of automated replies that failed to send",
		}),
		ProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dm_automation_processing_duration_seconds",
			Help:    "Time spent processing inbound events",
			Buckets: prometheus.DefBuckets,
		}),
		ActiveRules: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "dm_automation_active_rules",
			Help: "Number of currently enabled automation rules",
		}),
		TotalRules: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "dm_automation_total_rules",
			Help: "Total number of automation rules (enabled and disabled)",
		}),
	}
}
