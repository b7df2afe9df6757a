package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/time/rate"
)

const pricePage = `<html><body><script id="__NUXT_DATA__" type="application/json">["ANTAM"]</script></body></html>`

func newTestFetcher() *HTTPFetcher {
	return NewHTTPFetcher(HTTPOptions{
		UserAgent:         "test-agent",
		Timeout:           2 * time.Second,
		RequestsPerSecond: 100,
		Burst:             10,
	})
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, DefaultAcceptLanguage, r.Header.Get("Accept-Language"))
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		assert.Contains(t, r.Header.Get("Accept"), "text/html")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(pricePage))
	}))
	defer srv.Close()

	html, err := newTestFetcher().Fetch(context.Background(), srv.URL+"/harga-emas")
	require.NoError(t, err)
	assert.Equal(t, pricePage, html)
}

func TestFetch_DecodesCharset(t *testing.T) {
	latin1, err := charmap.ISO8859_1.NewEncoder().String("<p>Harga emas naik 1½%</p>")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=ISO-8859-1")
		w.Write([]byte(latin1))
	}))
	defer srv.Close()

	html, err := newTestFetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<p>Harga emas naik 1½%</p>", html)
}

func TestFetch_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindHTTP, fe.Kind)
	assert.Equal(t, http.StatusBadGateway, fe.Status)
	assert.False(t, IsTimeout(err))
	assert.True(t, IsFetchError(err))
}

func TestFetch_NoRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{Timeout: 50 * time.Millisecond, RequestsPerSecond: 100, Burst: 10})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Contains(t, err.Error(), "timed out")
}

func TestFetch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), addr)
	require.Error(t, err)
	assert.True(t, IsFetchError(err))
	assert.False(t, IsTimeout(err))
}

func TestFetch_BodyTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{MaxBodyBytes: 1024, RequestsPerSecond: 100, Burst: 10})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestFetch_Blocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "cloudflare")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("Attention Required!"))
	}))
	defer srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), srv.URL)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, BlockCloudflare, fe.Block)
	assert.Equal(t, http.StatusForbidden, fe.Status)
}

func TestFetch_429SlowsHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := newTestFetcher()
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, rate.Limit(50), f.limiterFor(srv.URL).limit())
}

func TestFetch_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher().Fetch(ctx, "http://127.0.0.1:1")
	require.Error(t, err)
	assert.False(t, IsTimeout(err))
}

func TestLimiterFor_SharedPerHost(t *testing.T) {
	f := newTestFetcher()
	a := f.limiterFor("https://galeri24.co.id/harga-emas")
	b := f.limiterFor("https://galeri24.co.id/other")
	c := f.limiterFor("https://example.com/")
	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

func TestNewHTTPFetcher_Defaults(t *testing.T) {
	f := NewHTTPFetcher(HTTPOptions{})
	assert.Equal(t, DefaultTimeout, f.opts.Timeout)
	assert.Equal(t, DefaultUserAgent, f.opts.UserAgent)
	assert.Equal(t, int64(DefaultMaxBodyBytes), f.opts.MaxBodyBytes)
	assert.Equal(t, DefaultRate, f.opts.RequestsPerSecond)
}

func TestHostLimiter_RecoversToCeiling(t *testing.T) {
	h := newHostLimiter(8, 1)
	h.throttled(0)
	h.throttled(0)
	assert.Equal(t, rate.Limit(2), h.limit())

	h.recovered()
	assert.Equal(t, rate.Limit(3.5), h.limit())
	for i := 0; i < 30; i++ {
		h.recovered()
	}
	assert.Equal(t, rate.Limit(8), h.limit())
}

func TestHostLimiter_FloorAtEighth(t *testing.T) {
	h := newHostLimiter(8, 1)
	for i := 0; i < 10; i++ {
		h.throttled(0)
	}
	assert.Equal(t, rate.Limit(1), h.limit())
}

func TestHostLimiter_RetryAfterPause(t *testing.T) {
	now := time.Date(2025, 1, 14, 3, 0, 0, 0, time.UTC)
	h := newHostLimiter(100, 10)
	h.now = func() time.Time { return now }

	h.throttled(10 * time.Minute)
	assert.Equal(t, now.Add(maxPause), h.resume)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.wait(ctx), context.DeadlineExceeded)
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2025, 1, 14, 3, 0, 0, 0, time.UTC)
	hdr := func(v string) http.Header { return http.Header{"Retry-After": {v}} }

	assert.Equal(t, 30*time.Second, retryAfter(hdr("30"), now))
	assert.Equal(t, 2*time.Minute, retryAfter(hdr(now.Add(2*time.Minute).Format(http.TimeFormat)), now))
	assert.Zero(t, retryAfter(hdr("soon"), now))
	assert.Zero(t, retryAfter(hdr("-5"), now))
	assert.Zero(t, retryAfter(http.Header{}, now))
}

func TestFetch_503RetryAfterSlowsHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := newTestFetcher()
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	lim := f.limiterFor(srv.URL)
	assert.Equal(t, rate.Limit(50), lim.limit())
	assert.False(t, lim.resume.IsZero())
}
