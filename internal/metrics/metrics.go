package metrics

import "github.com/prometheus/client_golang/prometheus"

// StoreRequests counts record-store calls by collection, operation and
// outcome (ok/error).
var StoreRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "attendhub_store_requests_total",
	Help: "Record store requests issued by the facade.",
}, []string{"collection", "op", "outcome"})

// ChangeEvents counts change-notification events received per collection.
var ChangeEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "attendhub_change_events_total",
	Help: "Change events delivered by the record store subscription.",
}, []string{"collection"})

func init() {
	prometheus.MustRegister(StoreRequests, ChangeEvents)
}
