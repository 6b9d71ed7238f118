package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tsl", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tsl", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)

	ExportsReceived = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "tsl", Name: "exports_received_total", Help: "Number of exports stored."},
	)
	ExportsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tsl", Name: "exports_rejected_total", Help: "Number of rejected export writes by reason."},
		[]string{"reason"},
	)
	DocumentReads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tsl", Name: "document_reads_total", Help: "Number of document reads by result (hit, miss, error)."},
		[]string{"result"},
	)
	DocumentsStored = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "tsl", Name: "documents_stored", Help: "Number of keys currently in the store."},
	)
	StoreClears = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "tsl", Name: "store_clears_total", Help: "Number of clear-all operations."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(ExportsReceived)
	reg.MustRegister(ExportsRejected)
	reg.MustRegister(DocumentReads)
	reg.MustRegister(DocumentsStored)
	reg.MustRegister(StoreClears)
}
