package fetcher

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxPause caps how long a Retry-After header can hold back requests.
const maxPause = time.Minute

// hostLimiter paces requests to one host. The configured rate is a ceiling:
// a throttling response halves the rate (down to an eighth of the ceiling)
// and each later success wins back a quarter of the lost headroom.
type hostLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	ceiling rate.Limit
	floor   rate.Limit
	resume  time.Time
	now     func() time.Time
}

func newHostLimiter(r rate.Limit, burst int) *hostLimiter {
	return &hostLimiter{
		limiter: rate.NewLimiter(r, burst),
		ceiling: r,
		floor:   r / 8,
		now:     time.Now,
	}
}

// wait blocks until a request may be sent: first until any Retry-After pause
// is over, then for a limiter token.
func (h *hostLimiter) wait(ctx context.Context) error {
	h.mu.Lock()
	pause := h.resume.Sub(h.now())
	h.mu.Unlock()

	if pause > 0 {
		t := time.NewTimer(pause)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return h.limiter.Wait(ctx)
}

func (h *hostLimiter) recovered() {
	h.mu.Lock()
	defer h.mu.Unlock()
	cur := h.limiter.Limit()
	if cur >= h.ceiling {
		return
	}
	next := cur + (h.ceiling-cur)/4
	if h.ceiling-next < h.ceiling/100 {
		next = h.ceiling
	}
	h.limiter.SetLimit(next)
}

// throttled slows the host down after a 429 or a 503 with Retry-After.
func (h *hostLimiter) throttled(retryAfter time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	next := max(h.limiter.Limit()/2, h.floor)
	h.limiter.SetLimit(next)
	if retryAfter > 0 {
		if until := h.now().Add(min(retryAfter, maxPause)); until.After(h.resume) {
			h.resume = until
		}
	}
	zap.L().Warn("source throttled us, slowing down",
		zap.Float64("rate", float64(next)),
		zap.Duration("retry_after", retryAfter),
	)
}

func (h *hostLimiter) limit() rate.Limit {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.limiter.Limit()
}

// retryAfter parses a Retry-After header given as seconds or an HTTP date.
func retryAfter(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return max(time.Duration(secs)*time.Second, 0)
	}
	if at, err := http.ParseTime(v); err == nil {
		return max(at.Sub(now), 0)
	}
	return 0
}
