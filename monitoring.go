package jotdb

import (
	"github.com/prometheus/client_golang/prometheus"
)

var insertCount = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "jotdb",
	Subsystem: "store",
	Name:      "inserts",
})

var searchCount = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "jotdb",
	Subsystem: "search",
	Name:      "queries",
}, []string{"index"})

var reindexCount = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "jotdb",
	Subsystem: "index",
	Name:      "reindex",
}, []string{"index", "reason", "result"})

var reindexDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "jotdb",
	Subsystem: "index",
	Name:      "reindex_duration",
	Buckets:   prometheus.DefBuckets,
}, []string{"index"})

// RegisterMetrics registers all jotdb collectors with reg. Call at most once
// per registry.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(insertCount, searchCount, reindexCount, reindexDuration)
}
