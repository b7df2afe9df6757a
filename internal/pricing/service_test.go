package pricing

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lacak-emas/lacak-emas-api/internal/cache"
	"github.com/lacak-emas/lacak-emas-api/internal/extract"
	"github.com/lacak-emas/lacak-emas-api/internal/fetcher"
	"github.com/lacak-emas/lacak-emas-api/internal/vendor"
)

const page = `<html><body><script id="__NUXT_DATA__" type="application/json">[
{"vendorName":"ANTAM","denomination":"1","sellingPrice":"1.850.000","buybackPrice":"1.700.000","date":"2025-01-15"},
{"vendorName":"UBS","denomination":"0.5","sellingPrice":"950.000","buybackPrice":"870.000","date":"2025-01-15"}
]</script></body></html>`

type stubFetcher struct {
	html  string
	err   error
	calls atomic.Int32
	url   string
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.calls.Add(1)
	f.url = url
	return f.html, f.err
}

type countingRecorder struct {
	hits, misses int
	methods      []string
}

func (r *countingRecorder) ObserveScrape(method string, _ int, _ time.Duration) {
	r.methods = append(r.methods, method)
}

func (r *countingRecorder) ObserveCache(hit bool) {
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func newTestService(f fetcher.Fetcher, opts ...Option) *Service {
	ex := extract.New(vendor.Default().Markers())
	return NewService(f, ex, cache.New[Result](time.Minute, 0), opts...)
}

func TestPrices_MissThenHit(t *testing.T) {
	f := &stubFetcher{html: page}
	rec := &countingRecorder{}
	s := newTestService(f, WithRecorder(rec), WithSourceURL("https://example.test/harga"))

	first, err := s.Prices(context.Background(), true)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, extract.MethodSchema, first.Method)
	require.Len(t, first.Records, 2)
	assert.Equal(t, "ANTAM", first.Records[0].Vendor)
	assert.Equal(t, "https://example.test/harga", f.url)

	second, err := s.Prices(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, first.FetchedAt, second.FetchedAt)

	assert.Equal(t, int32(1), f.calls.Load())
	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, 1, rec.misses)
	assert.Equal(t, []string{"schema"}, rec.methods)
}

func TestPrices_BypassStillRefreshesCache(t *testing.T) {
	f := &stubFetcher{html: page}
	s := newTestService(f)

	res, err := s.Prices(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, res.Cached)

	res, err = s.Prices(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, int32(1), f.calls.Load())

	_, err = s.Prices(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestPrices_EmptyResultNotCached(t *testing.T) {
	f := &stubFetcher{html: "<html><body>maintenance</body></html>"}
	s := newTestService(f)

	res, err := s.Prices(context.Background(), true)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Equal(t, extract.MethodNone, res.Method)

	_, err = s.Prices(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestPrices_FetchErrorSurfaces(t *testing.T) {
	f := &stubFetcher{err: &fetcher.FetchError{Kind: fetcher.KindTimeout, URL: DefaultSourceURL}}
	rec := &countingRecorder{}
	s := newTestService(f, WithRecorder(rec))

	_, err := s.Prices(context.Background(), true)
	require.Error(t, err)
	assert.True(t, fetcher.IsTimeout(err))
	assert.Equal(t, []string{"error"}, rec.methods)

	var fe *fetcher.FetchError
	assert.True(t, errors.As(err, &fe))
}

func TestClearCache(t *testing.T) {
	f := &stubFetcher{html: page}
	s := newTestService(f)

	_, err := s.Prices(context.Background(), true)
	require.NoError(t, err)
	s.ClearCache()

	res, err := s.Prices(context.Background(), true)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestSetCacheTTL(t *testing.T) {
	f := &stubFetcher{html: page}
	s := newTestService(f)

	_, err := s.Prices(context.Background(), true)
	require.NoError(t, err)

	s.SetCacheTTL(10 * time.Minute)
	assert.Equal(t, 10*time.Minute, s.CacheTTL())

	res, err := s.Prices(context.Background(), true)
	require.NoError(t, err)
	assert.False(t, res.Cached)
}
