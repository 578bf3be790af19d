package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Request struct {
	Method  string
	Body    any
	Headers map[string]string
}

type Client struct {
	resolver   *Resolver
	tokens     TokenSource
	httpClient *http.Client
	log        *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func NewClient(resolver *Resolver, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		resolver: resolver,
		tokens:   tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		log: slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Resolver() *Resolver { return c.resolver }

// Call sends req to the resolved base URL plus endpoint and decodes the JSON
// response into out. out may be nil, in which case the body is only checked
// to be JSON. An empty successful body decodes as null.
func (c *Client) Call(ctx context.Context, endpoint string, req Request, out any) error {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body []byte
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = b
	}

	headers, err := c.headers(ctx, req.Headers)
	if err != nil {
		return err
	}

	base := c.resolver.Current()
	l := c.log.With("method", method, "endpoint", endpoint)

	resp, err := c.do(ctx, base, method, endpoint, body, headers)
	if err != nil {
		l.Error("api_call_unreachable", "base_url", base, "error", err)
		return &NetworkError{BaseURL: base, Err: err}
	}

	if !isSuccess(resp.StatusCode) && c.resolver.ShouldFallback(resp.StatusCode) {
		drain(resp)
		fallback := c.resolver.Fallback()
		l.Warn("api_call_fallback", "status", resp.StatusCode, "from", base, "to", fallback)

		resp, err = c.do(ctx, fallback, method, endpoint, body, headers)
		if err != nil {
			l.Error("api_call_unreachable", "base_url", base, "error", err)
			return &NetworkError{BaseURL: base, Err: err}
		}
		if isSuccess(resp.StatusCode) {
			if err := c.resolver.Promote(ctx, fallback); err != nil {
				l.Error("api_url_persist_failed", "error", err)
			}
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{BaseURL: base, Err: fmt.Errorf("read response: %w", err)}
	}

	if !isSuccess(resp.StatusCode) {
		msg := errorMessage(resp.StatusCode, resp.Header.Get("Content-Type"), raw)
		l.Debug("api_call_failed", "status", resp.StatusCode, "message", msg)
		return &HTTPError{Status: resp.StatusCode, Message: msg}
	}

	l.Debug("api_call_ok", "status", resp.StatusCode)

	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("null")
	}
	if out == nil {
		if !json.Valid(raw) {
			return &DecodeError{Endpoint: endpoint, Err: fmt.Errorf("response is not valid JSON")}
		}
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &DecodeError{Endpoint: endpoint, Err: err}
	}
	return nil
}

func (c *Client) headers(ctx context.Context, extra map[string]string) (http.Header, error) {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("X-Request-ID", uuid.NewString())

	if c.tokens != nil {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("read token: %w", err)
		}
		if tok != "" {
			h.Set("Authorization", "Bearer "+tok)
		}
	}

	for k, v := range extra {
		h.Set(k, v)
	}
	return h, nil
}

func (c *Client) do(ctx context.Context, base, method, endpoint string, body []byte, headers http.Header) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, base+endpoint, rdr)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header = headers.Clone()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
