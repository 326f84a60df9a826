package engine

import (
	"github.com/NeuralTrust/AltGuard/pkg/domain/activity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
	"github.com/NeuralTrust/AltGuard/pkg/infra/prometheus"
)

func decisionMade(reason Reason) {
	if prometheus.Config.EnableDecisions {
		prometheus.DecisionsTotal.WithLabelValues(string(reason)).Inc()
	}
}

func cooldownSet(minutes int) {
	if prometheus.Config.EnableCooldowns {
		prometheus.CooldownMinutes.Observe(float64(minutes))
	}
}

func activityRecorded(t activity.Type) {
	prometheus.SuspiciousActivitiesTotal.WithLabelValues(string(t)).Inc()
}

func autoBanned() {
	prometheus.AutoBansTotal.Inc()
}

func listChanged(kind list.Kind, op string) {
	prometheus.ListChangesTotal.WithLabelValues(string(kind), op).Inc()
}

func storeFailed(op string) {
	prometheus.StoreErrorsTotal.WithLabelValues(op).Inc()
}

func eventPublishFailed() {
	prometheus.EventPublishErrorsTotal.Inc()
}
