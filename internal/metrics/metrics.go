package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// CacheTotal counts cache lookups per reader with result hit/miss.
	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "filmdex",
			Name:      "cache_requests_total",
			Help:      "Cache lookups by reader and result",
		},
		[]string{"reader", "result"},
	)

	// WarmupDocsScanned is the document count of the last warmup pass.
	WarmupDocsScanned = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "filmdex",
			Name:      "warmup_docs_scanned",
			Help:      "Documents scanned by the last warmup pass",
		},
	)

	// WarmupIndexSize is the entry count of each derived index.
	WarmupIndexSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "filmdex",
			Name:      "warmup_index_size",
			Help:      "Entries in each derived lookup index",
		},
		[]string{"index"},
	)

	// WarmupRunsTotal counts warmup passes by outcome.
	WarmupRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "filmdex",
			Name:      "warmup_runs_total",
			Help:      "Warmup passes by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(CacheTotal)
	prometheus.MustRegister(WarmupDocsScanned)
	prometheus.MustRegister(WarmupIndexSize)
	prometheus.MustRegister(WarmupRunsTotal)
}
