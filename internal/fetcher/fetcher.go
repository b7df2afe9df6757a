// Package fetcher downloads price pages over HTTP.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Fetcher retrieves the decoded HTML of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Kind classifies fetch failures.
type Kind string

const (
	// KindTimeout means the page did not respond within the deadline.
	KindTimeout Kind = "timeout"
	// KindHTTP covers every other transport or status failure.
	KindHTTP Kind = "http"
)

// FetchError describes a failed page fetch.
type FetchError struct {
	Kind   Kind
	URL    string
	Status int
	Block  BlockType
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == KindTimeout:
		return fmt.Sprintf("fetch %s: request timed out", e.URL)
	case e.Block != BlockNone:
		return fmt.Sprintf("fetch %s: blocked by %s (status %d)", e.URL, e.Block, e.Status)
	case e.Status != 0:
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: failed", e.URL)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a fetch timeout.
func IsTimeout(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == KindTimeout
}

// IsFetchError reports whether err came from a fetch.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

func classify(rawURL string, err error) *FetchError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Kind: KindTimeout, URL: rawURL, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Kind: KindTimeout, URL: rawURL, Err: err}
	}
	return &FetchError{Kind: KindHTTP, URL: rawURL, Err: err}
}
