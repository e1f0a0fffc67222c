// Package rest is a sink backend for PostgREST endpoints such as a Supabase
// project. Rows are posted as JSON arrays to /rest/v1/{collection} through
// postgrest-go.
package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"

	"github.com/prof-ramos/planilhas-gov-br/internal/sink"
)

const defaultTimeout = 60 * time.Second

// maxErrorBody bounds how much of an error response is kept in messages.
const maxErrorBody = 2 << 10

func init() {
	sink.Register("rest", New)
}

// StatusError is a non-2xx response from the endpoint.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Body)
}

// Client talks to a PostgREST API with a service key.
type Client struct {
	base    string
	key     string
	timeout time.Duration
	next    http.RoundTripper
}

// New builds a client for cfg.URL authenticated with cfg.Key.
func New(_ context.Context, cfg sink.Config) (sink.Sink, error) {
	return NewClient(cfg)
}

// NewClient is New with the concrete return type, for callers that need RPC.
func NewClient(cfg sink.Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("rest: missing URL")
	}
	if cfg.Key == "" {
		return nil, errors.New("rest: missing service key")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("rest: invalid URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		base:    strings.TrimRight(cfg.URL, "/") + "/rest/v1",
		key:     cfg.Key,
		timeout: timeout,
		next:    http.DefaultTransport,
	}, nil
}

// recorder binds the library's requests to a context and keeps the status and
// body of the last response, which postgrest-go folds into plain strings.
type recorder struct {
	ctx    context.Context
	next   http.RoundTripper
	status int
	body   string
}

func (r *recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.next.RoundTrip(req.WithContext(r.ctx))
	if err != nil {
		return nil, err
	}
	r.status = resp.StatusCode
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		r.body = strings.TrimSpace(string(b))
		resp.Body = io.NopCloser(strings.NewReader(r.body))
	}
	return resp, nil
}

// session returns a postgrest client for one call. Clients keep the first
// error they hit, so none is reused across calls.
func (c *Client) session(ctx context.Context) (*postgrest.Client, *recorder, error) {
	pc := postgrest.NewClient(c.base, "public", nil)
	if pc.ClientError != nil {
		return nil, nil, fmt.Errorf("rest: %w", pc.ClientError)
	}
	pc.SetApiKey(c.key).SetAuthToken(c.key)

	rec := &recorder{ctx: ctx, next: c.next}
	pc.Transport.Parent = rec
	return pc, rec, nil
}

// Ping requests the API root, which answers only with valid credentials.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	pc, rec, err := c.session(ctx)
	if err != nil {
		return err
	}
	if pc.Ping() {
		return nil
	}
	return c.classify(ctx, http.MethodGet, rec, pc.ClientError)
}

// Insert posts the batch rows. With conflict columns, rows whose key already
// exists are merged instead of failing the request.
func (c *Client) Insert(ctx context.Context, collection string, b sink.Batch) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	pc, rec, err := c.session(ctx)
	if err != nil {
		return err
	}

	upsert := len(b.ConflictColumns) > 0
	q := pc.From(collection).Insert(b.Records(), upsert, strings.Join(b.ConflictColumns, ","), "minimal", "")
	if pc.ClientError != nil {
		return fmt.Errorf("rest: encode batch: %w", pc.ClientError)
	}
	_, _, err = q.Execute()
	return c.classify(ctx, http.MethodPost, rec, err)
}

// RPC calls a database function exposed at /rest/v1/rpc/{fn} with args as
// its JSON body.
func (c *Client) RPC(ctx context.Context, fn string, args any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	pc, rec, err := c.session(ctx)
	if err != nil {
		return err
	}
	pc.Rpc(fn, "", args)
	return c.classify(ctx, http.MethodPost, rec, pc.ClientError)
}

// Close is a no-op; the HTTP client holds no per-sink resources.
func (c *Client) Close() error { return nil }

// classify maps the outcome of one call to the sink error taxonomy. A
// response status decides when there is one; without a response the
// endpoint is unavailable.
func (c *Client) classify(ctx context.Context, method string, rec *recorder, err error) error {
	switch {
	case rec.status == 0 && err == nil:
		return nil
	case rec.status == 0:
		if errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		return fmt.Errorf("rest: %w: %v", sink.ErrUnavailable, err)
	case rec.status < 400:
		if err != nil {
			return fmt.Errorf("rest: %w", err)
		}
		return nil
	}

	serr := &StatusError{Status: rec.status, Body: rec.body}
	switch {
	case rec.status == http.StatusUnauthorized || rec.status == http.StatusForbidden:
		return fmt.Errorf("rest: %w: %w", sink.ErrUnauthorized, serr)
	case rec.status >= 500 && method == http.MethodGet:
		return fmt.Errorf("rest: %w: %w", sink.ErrUnavailable, serr)
	default:
		return fmt.Errorf("rest: %w", serr)
	}
}
