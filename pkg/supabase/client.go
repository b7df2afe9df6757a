// Package supabase provides a minimal client for the Supabase PostgREST API.
package supabase

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
)

// Client defines the table operations used against PostgREST.
type Client interface {
	// Upsert inserts row, merging on the onConflict columns.
	Upsert(ctx context.Context, table, onConflict string, row any) error
	// Select runs q against table and decodes the JSON array into out.
	Select(ctx context.Context, table string, q *Query, out any) error
	// Delete removes rows matching q.
	Delete(ctx context.Context, table string, q *Query) error
}

// APIError is the error body PostgREST returns.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("supabase: http %d", e.Status)
	}
	return fmt.Sprintf("supabase: http %d: %s (%s)", e.Status, e.Message, e.Code)
}

// Query builds PostgREST filter parameters.
type Query struct {
	values url.Values
}

// NewQuery returns an empty query.
func NewQuery() *Query {
	return &Query{values: url.Values{}}
}

func (q *Query) filter(column, op, value string) *Query {
	q.values.Add(column, op+"."+value)
	return q
}

// Eq filters column = value.
func (q *Query) Eq(column, value string) *Query { return q.filter(column, "eq", value) }

// Gte filters column >= value.
func (q *Query) Gte(column, value string) *Query { return q.filter(column, "gte", value) }

// ILike filters column by a case-insensitive pattern using * as wildcard.
func (q *Query) ILike(column, pattern string) *Query { return q.filter(column, "ilike", pattern) }

// Select restricts the returned columns.
func (q *Query) Select(columns ...string) *Query {
	q.values.Set("select", strings.Join(columns, ","))
	return q
}

// Order sets the sort, e.g. "price_date.desc".
func (q *Query) Order(terms ...string) *Query {
	q.values.Set("order", strings.Join(terms, ","))
	return q
}

// Limit caps the number of rows.
func (q *Query) Limit(n int) *Query {
	q.values.Set("limit", strconv.Itoa(n))
	return q
}

// Values returns the encoded parameters.
func (q *Query) Values() url.Values {
	if q == nil {
		return url.Values{}
	}
	return q.values
}

// Option configures the client.
type Option func(*httpClient)

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.rc.SetTimeout(d)
	}
}

// WithRetries enables resty's retry on transport errors and 5xx responses.
func WithRetries(n int) Option {
	return func(c *httpClient) {
		c.rc.SetRetryCount(n).
			SetRetryWaitTime(500 * time.Millisecond).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || r.StatusCode() >= 500
			})
	}
}

type httpClient struct {
	rc *resty.Client
}

// NewClient creates a PostgREST client for the project at baseURL
// (e.g. https://xyz.supabase.co) authenticated with key.
func NewClient(baseURL, key string, opts ...Option) Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+"/rest/v1").
		SetHeader("apikey", key).
		SetAuthToken(key).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)

	c := &httpClient{rc: rc}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Upsert(ctx context.Context, table, onConflict string, row any) error {
	req := c.rc.R().
		SetContext(ctx).
		SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetBody(row).
		SetError(&APIError{})
	if onConflict != "" {
		req.SetQueryParam("on_conflict", onConflict)
	}
	resp, err := req.Post("/" + table)
	return check(resp, err, "upsert "+table)
}

func (c *httpClient) Select(ctx context.Context, table string, q *Query, out any) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParamsFromValues(q.Values()).
		SetResult(out).
		SetError(&APIError{}).
		Get("/" + table)
	return check(resp, err, "select "+table)
}

func (c *httpClient) Delete(ctx context.Context, table string, q *Query) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParamsFromValues(q.Values()).
		SetError(&APIError{}).
		Delete("/" + table)
	return check(resp, err, "delete "+table)
}

func check(resp *resty.Response, err error, op string) error {
	if err != nil {
		return eris.Wrapf(err, "supabase: %s", op)
	}
	if resp.IsError() {
		apiErr, ok := resp.Error().(*APIError)
		if !ok || apiErr == nil {
			apiErr = &APIError{}
		}
		apiErr.Status = resp.StatusCode()
		return eris.Wrapf(apiErr, "supabase: %s", op)
	}
	return nil
}
