package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/apartment-mgmt/resident/pkg/errs"
	"github.com/apartment-mgmt/resident/pkg/httputil"
	"github.com/apartment-mgmt/resident/pkg/logger"
)

const maxResponseBody = 4 << 20

// Doer issues one HTTP request. *http.Client satisfies it; the session
// layer wraps one to add credentials.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

type DoerFunc func(*http.Request) (*http.Response, error)

func (f DoerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

type Options struct {
	BaseURL string
	Timeout time.Duration
	Doer    Doer // default: NewHTTPClient(Timeout, Log)
	Log     *slog.Logger
}

// Client talks to the resident REST API. It carries no credentials of its
// own: a bearer comes either from the request context (WithBearer) or from
// the Doer.
type Client struct {
	base *url.URL
	doer Doer
	log  *slog.Logger
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, fmt.Errorf("api client: empty base url")
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("api client: parse base url: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Log == nil {
		opts.Log = logger.Component("api")
	}
	if opts.Doer == nil {
		opts.Doer = NewHTTPClient(opts.Timeout, opts.Log)
	}

	return &Client{base: base, doer: opts.Doer, log: opts.Log}, nil
}

// NewHTTPClient is the transport stack shared by the api and session layers:
// request ids, call logging, timeout.
func NewHTTPClient(timeout time.Duration, log *slog.Logger) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &httputil.RequestIDTransport{
			Base: &httputil.LoggingTransport{Log: log},
		},
	}
}

type bearerKey struct{}

// WithBearer makes requests issued with ctx carry "Authorization: Bearer <token>".
func WithBearer(ctx context.Context, accessToken string) context.Context {
	if accessToken == "" {
		return ctx
	}
	return context.WithValue(ctx, bearerKey{}, accessToken)
}

func BearerFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(bearerKey{}).(string)
	return v, ok && v != ""
}

func (c *Client) resolve(path string, query url.Values) string {
	u := c.base.ResolveReference(&url.URL{Path: strings.TrimPrefix(path, "/")})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func pageQuery(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": []string{strconv.Itoa(page)}}
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.send(ctx, http.MethodGet, path, query, "", nil, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s body: %w", path, err)
	}
	return c.send(ctx, method, path, nil, "application/json", body, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, contentType string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		// bytes.Reader gives the request a GetBody, needed to replay it after a refresh
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path, query), rd)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token, ok := BearerFromContext(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		if errors.Is(err, errs.ErrSessionExpired) {
			return err
		}
		return fmt.Errorf("%w: %s %s: %w", errs.ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", errs.ErrNetwork, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return serverError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", errs.ErrMalformedResponse, path, err)
	}
	return nil
}

func serverError(status int, data []byte) error {
	var body errorBody
	_ = json.Unmarshal(data, &body)

	msg := body.Detail
	if msg == "" {
		msg = body.Message
	}
	if msg == "" {
		msg = "Server error"
	}
	return &errs.ServerError{Status: status, Message: msg}
}
