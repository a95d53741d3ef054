package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Window allows Limit hits per Period. A non-positive limit disables it.
type Window struct {
	Name   string
	Limit  int
	Period time.Duration
}

type Limiter struct {
	store   WindowStore
	scope   string
	windows []Window
}

func NewLimiter(store WindowStore, scope string, windows ...Window) *Limiter {
	active := make([]Window, 0, len(windows))
	for _, w := range windows {
		if w.Limit > 0 && w.Period > 0 {
			active = append(active, w)
		}
	}
	return &Limiter{
		store:   store,
		scope:   scope,
		windows: active,
	}
}

// Allow counts one action and reports the retry delay in seconds when any window is exceeded.
func (l *Limiter) Allow(ctx context.Context, userID int64) (int64, bool, error) {
	if userID <= 0 {
		return 0, false, fmt.Errorf("invalid user id")
	}
	if len(l.windows) == 0 {
		return 0, true, nil
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)
	for _, w := range l.windows {
		count, ttl, err := l.store.IncrementWindow(ctx, l.key(w, userID), w.Period)
		if err != nil {
			return 0, false, err
		}
		if count > int64(w.Limit) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}
	return 0, true, nil
}

func (l *Limiter) key(w Window, userID int64) string {
	return "rate:" + l.scope + ":" + w.Name + ":" + strconv.FormatInt(userID, 10)
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
