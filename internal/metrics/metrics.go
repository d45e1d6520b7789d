package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	inspectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cyberguard_inspections_total",
		Help: "Total number of requests inspected, by category and action",
	}, []string{"category", "action"})
	persistFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cyberguard_audit_persist_failures_total",
		Help: "Total number of audit records that could not be persisted",
	})
	eventsPublishedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cyberguard_events_published_total",
		Help: "Total number of traffic events published to observers",
	})
	eventsDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cyberguard_events_dropped_total",
		Help: "Total number of traffic events dropped because an observer queue was full",
	}, []string{"observer"})
	observersConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cyberguard_observers_connected",
		Help: "Number of observers currently subscribed to the traffic feed",
	})
	alertsSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cyberguard_alerts_sent_total",
		Help: "Total number of external alert deliveries, by result",
	}, []string{"result"})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry prometheus.Registerer) {
	registry.MustRegister(
		inspectionsTotal,
		persistFailuresTotal,
		eventsPublishedTotal,
		eventsDroppedTotal,
		observersConnected,
		alertsSentTotal,
	)
}

// IncInspection counts one inspected request.
func IncInspection(category, action string) { inspectionsTotal.WithLabelValues(category, action).Inc() }

// IncPersistFailure counts one failed audit write.
func IncPersistFailure() { persistFailuresTotal.Inc() }

// IncPublished counts one published event.
func IncPublished() { eventsPublishedTotal.Inc() }

// IncDropped counts one event dropped for the named observer.
func IncDropped(observer string) { eventsDroppedTotal.WithLabelValues(observer).Inc() }

// SetObservers records the current number of subscriptions.
func SetObservers(n int) { observersConnected.Set(float64(n)) }

// IncAlert counts one alert delivery attempt; result is "sent" or "failed".
func IncAlert(result string) { alertsSentTotal.WithLabelValues(result).Inc() }
