package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all stellar metrics
const namespace = "stellar"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// CacheHits counts cache reads that returned a live entry, labeled by key prefix
var CacheHits = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_hits_total",
		Help:      "Total cache reads served from a live entry",
	},
	[]string{"prefix"},
)

// CacheMisses counts cache reads that found nothing (absent or expired)
var CacheMisses = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_misses_total",
		Help:      "Total cache reads that found no live entry",
	},
	[]string{"prefix"},
)

// CacheEvictions counts entries removed by lazy expiry or pattern invalidation
var CacheEvictions = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_evictions_total",
		Help:      "Total cache entries removed (expired, deleted, or pattern-cleared)",
	},
	[]string{"reason"},
)

// CacheEntries tracks the current number of entries held by the cache
var CacheEntries = promauto.With(Registry).NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cache_entries",
		Help:      "Current number of entries in the in-process cache",
	},
)

// StoreOpDuration tracks document store call latency through the gateway
var StoreOpDuration = promauto.With(Registry).NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_op_duration_seconds",
		Help:      "Duration of document store operations including retries",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
	},
	[]string{"op"},
)

// StoreRetries counts retry attempts made by the store gateway
var StoreRetries = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_retries_total",
		Help:      "Total retry attempts against the document store",
	},
	[]string{"op"},
)

// QueryDuration tracks end-to-end query pipeline latency per entity kind
var QueryDuration = promauto.With(Registry).NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "query_pipeline_duration_seconds",
		Help:      "Duration of filter/sort/paginate query pipeline runs",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	},
	[]string{"kind"},
)

// CrossRefFailures counts swallowed cross-reference maintenance failures
var CrossRefFailures = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "crossref_failures_total",
		Help:      "Total per-performer cross-reference updates that failed and were skipped",
	},
)

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}
