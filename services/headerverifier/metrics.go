package headerverifier

import (
	"sync"

	"github.com/bsv-blockchain/headerproof/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	modeSinglePeriod = "single_period"
	modeRetarget     = "retarget"
)

var (
	prometheusVerifyTotal           *prometheus.CounterVec
	prometheusVerifyErrors          *prometheus.CounterVec
	prometheusVerifyDuration        *prometheus.HistogramVec
	prometheusVerifyHashDuration    prometheus.Histogram
	prometheusVerifyBatchSize       prometheus.Histogram
	prometheusVerifyHeadersVerified prometheus.Counter
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusVerifyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "headerproof",
			Name:      "verify_total",
			Help:      "Number of batches submitted for verification",
		},
		[]string{"mode"},
	)

	prometheusVerifyErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "headerproof",
			Name:      "verify_errors",
			Help:      "Number of rejected batches by reason",
		},
		[]string{"reason"},
	)

	prometheusVerifyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "headerproof",
			Name:      "verify_duration_seconds",
			Help:      "Duration of batch verification in seconds",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
		[]string{"mode"},
	)

	prometheusVerifyHashDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "headerproof",
			Name:      "verify_hash_duration_seconds",
			Help:      "Duration of decoding and hashing a batch in seconds",
			Buckets:   util.MetricsBucketsMicroSeconds,
		},
	)

	prometheusVerifyBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "headerproof",
			Name:      "verify_batch_size",
			Help:      "Number of headers in each submitted batch",
			Buckets:   util.MetricsBucketsHeaderCount,
		},
	)

	prometheusVerifyHeadersVerified = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "headerproof",
			Name:      "headers_verified",
			Help:      "Number of headers accepted",
		},
	)
}
