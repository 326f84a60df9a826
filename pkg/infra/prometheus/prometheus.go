package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	// Cooldown buckets in minutes, from the 5 minute floor up to a day
	cooldownBuckets = []float64{5, 10, 15, 30, 60, 120, 240, 480, 960, 1440}

	DecisionsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "altguard_decisions_total",
			Help: "Action checks by outcome reason",
		},
		[]string{"reason"},
	)

	SuspiciousActivitiesTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "altguard_suspicious_activities_total",
			Help: "Suspicious activities recorded by type",
		},
		[]string{"type"},
	)

	AutoBansTotal = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "altguard_auto_bans_total",
			Help: "Actors blacklisted automatically",
		},
	)

	ListChangesTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "altguard_list_changes_total",
			Help: "Blacklist and whitelist changes",
		},
		[]string{"list", "op"},
	)

	CooldownMinutes = promauto.With(registerer).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "altguard_cooldown_minutes",
			Help:    "Cooldown durations assigned after successful actions",
			Buckets: cooldownBuckets,
		},
	)

	StoreErrorsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "altguard_store_errors_total",
			Help: "Store failures by operation",
		},
		[]string{"op"},
	)

	EventPublishErrorsTotal = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "altguard_event_publish_errors_total",
			Help: "Events that could not be published",
		},
	)

	EventsDroppedTotal = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "altguard_events_dropped_total",
			Help: "Events dropped because the dispatch queue was full",
		},
	)
)

type MetricsConfig struct {
	EnableDecisions bool `mapstructure:"enable_decisions"` // per-reason decision counters
	EnableCooldowns bool `mapstructure:"enable_cooldowns"`
}

func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		EnableDecisions: true,
		EnableCooldowns: true,
	}
}

var Config = DefaultMetricsConfig()

func Initialize(cfg MetricsConfig) {
	Config = cfg
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
}

func Gatherer() prometheus.Gatherer {
	return registry
}
