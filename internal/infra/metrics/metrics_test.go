package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveSwipeIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(swipesTotal.WithLabelValues("like", "match_created"))
	ObserveSwipe("like", "match_created")
	after := testutil.ToFloat64(swipesTotal.WithLabelValues("like", "match_created"))
	if after-before != 1 {
		t.Fatalf("unexpected counter delta: %v", after-before)
	}
}

func TestObserveCacheSplitsHitAndMiss(t *testing.T) {
	hits := testutil.ToFloat64(discoveryCacheTotal.WithLabelValues("hit"))
	misses := testutil.ToFloat64(discoveryCacheTotal.WithLabelValues("miss"))

	ObserveCache(true)
	ObserveCache(false)
	ObserveCache(false)

	if got := testutil.ToFloat64(discoveryCacheTotal.WithLabelValues("hit")) - hits; got != 1 {
		t.Fatalf("unexpected hit delta: %v", got)
	}
	if got := testutil.ToFloat64(discoveryCacheTotal.WithLabelValues("miss")) - misses; got != 2 {
		t.Fatalf("unexpected miss delta: %v", got)
	}
}

func TestObserveHTTPDefaultsUnmatchedRoute(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unmatched", "404"))
	ObserveHTTP("GET", "", 404, time.Now())
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")) - before; got != 1 {
		t.Fatalf("unexpected counter delta: %v", got)
	}
}
