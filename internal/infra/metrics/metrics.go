package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	swipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kinmatch_swipes_total",
			Help: "Swipe attempts by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	matchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kinmatch_matches_total",
			Help: "Matches created",
		},
	)

	quotaRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kinmatch_quota_rejections_total",
			Help: "Actions rejected by usage quotas",
		},
		[]string{"action"},
	)

	discoveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kinmatch_discovery_duration_seconds",
			Help:    "Time spent computing a discovery page",
			Buckets: prometheus.DefBuckets,
		},
	)

	discoveryResultSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kinmatch_discovery_result_size",
			Help:    "Candidates returned per discovery page",
			Buckets: prometheus.LinearBuckets(0, 5, 7),
		},
	)

	discoveryCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kinmatch_discovery_cache_total",
			Help: "Discovery cache lookups by result",
		},
		[]string{"result"},
	)

	compatibilityScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kinmatch_compatibility_score",
			Help:    "Distribution of ranked compatibility scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kinmatch_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kinmatch_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func ObserveSwipe(kind, outcome string) {
	swipesTotal.WithLabelValues(kind, outcome).Inc()
}

func ObserveMatch() {
	matchesTotal.Inc()
}

func ObserveQuotaRejection(action string) {
	quotaRejectionsTotal.WithLabelValues(action).Inc()
}

func ObserveDiscovery(started time.Time, size int) {
	discoveryDuration.Observe(time.Since(started).Seconds())
	discoveryResultSize.Observe(float64(size))
}

func ObserveCache(hit bool) {
	if hit {
		discoveryCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	discoveryCacheTotal.WithLabelValues("miss").Inc()
}

func ObserveScore(score float64) {
	compatibilityScores.Observe(score)
}

// ObserveHTTP records one request; route should be the router pattern, not the raw path.
func ObserveHTTP(method, route string, status int, started time.Time) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(started).Seconds())
}
