package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Defaults for HTTPOptions.
const (
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultAcceptLanguage = "id-ID,id;q=0.9,en-US;q=0.8,en;q=0.7"
	DefaultTimeout        = 30 * time.Second
	DefaultMaxBodyBytes   = 8 << 20
	DefaultRate           = 1.0
	DefaultBurst          = 2
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
	MaxBodyBytes   int64
	// RequestsPerSecond and Burst seed the per-host limiter.
	RequestsPerSecond float64
	Burst             int
}

// HTTPFetcher implements Fetcher using net/http with per-host rate limiting.
// Failed requests are not retried.
type HTTPFetcher struct {
	client *http.Client
	opts   HTTPOptions

	mu       sync.Mutex
	limiters map[string]*hostLimiter
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.AcceptLanguage == "" {
		opts.AcceptLanguage = DefaultAcceptLanguage
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = DefaultRate
	}
	if opts.Burst <= 0 {
		opts.Burst = DefaultBurst
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:     opts,
		limiters: make(map[string]*hostLimiter),
	}
}

func (f *HTTPFetcher) limiterFor(rawURL string) *hostLimiter {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[host]
	if !ok {
		lim = newHostLimiter(rate.Limit(f.opts.RequestsPerSecond), f.opts.Burst)
		f.limiters[host] = lim
	}
	return lim
}

// Fetch downloads rawURL and returns its body decoded to UTF-8. Every
// failure is a *FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	lim := f.limiterFor(rawURL)
	if err := lim.wait(ctx); err != nil {
		// Wait fails early when the reservation would outlast the deadline.
		kind := KindTimeout
		if errors.Is(ctx.Err(), context.Canceled) {
			kind = KindHTTP
		}
		return "", &FetchError{Kind: kind, URL: rawURL, Err: eris.Wrap(err, "rate limiter wait")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &FetchError{Kind: KindHTTP, URL: rawURL, Err: eris.Wrap(err, "create request")}
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", f.opts.AcceptLanguage)
	req.Header.Set("Cache-Control", "no-cache")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		fe := classify(rawURL, err)
		zap.L().Error("page fetch failed",
			zap.String("url", rawURL),
			zap.String("kind", string(fe.Kind)),
			zap.Error(err),
		)
		return "", fe
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodyBytes+1))
	if err != nil {
		return "", classify(rawURL, eris.Wrap(err, "read body"))
	}
	if int64(len(body)) > f.opts.MaxBodyBytes {
		return "", &FetchError{
			Kind: KindHTTP,
			URL:  rawURL,
			Err:  eris.Errorf("body exceeds %d bytes", f.opts.MaxBodyBytes),
		}
	}

	switch wait := retryAfter(resp.Header, time.Now()); {
	case resp.StatusCode == http.StatusTooManyRequests:
		lim.throttled(wait)
	case resp.StatusCode == http.StatusServiceUnavailable && wait > 0:
		lim.throttled(wait)
	}
	if blocked, bt := DetectBlock(resp, body); blocked {
		zap.L().Warn("page fetch blocked",
			zap.String("url", rawURL),
			zap.String("block", string(bt)),
			zap.Int("status", resp.StatusCode),
		)
		return "", &FetchError{Kind: KindHTTP, URL: rawURL, Status: resp.StatusCode, Block: bt}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		zap.L().Error("page fetch returned error status",
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode),
		)
		return "", &FetchError{Kind: KindHTTP, URL: rawURL, Status: resp.StatusCode}
	}
	lim.recovered()

	html, err := decodeBody(resp.Header.Get("Content-Type"), body)
	if err != nil {
		return "", &FetchError{Kind: KindHTTP, URL: rawURL, Status: resp.StatusCode, Err: err}
	}

	zap.L().Info("page fetched",
		zap.String("url", rawURL),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return html, nil
}
