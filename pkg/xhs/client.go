package xhs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"xhscrawl/pkg/config"
	xerrors "xhscrawl/pkg/errors"
	"xhscrawl/pkg/logger"
	"xhscrawl/pkg/ratelimit"
)

const (
	tracerName = "xhscrawl/pkg/xhs"

	// previewBytes bounds response bodies copied into log fields
	previewBytes = 200
)

// Request is one API call
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON encoded when non-nil
	Body interface{}
}

func (r Request) op() string {
	return r.Method + " " + r.Path
}

// Envelope is the common response wrapper of every API call
type Envelope struct {
	Success bool            `json:"success"`
	Msg     string          `json:"msg"`
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
}

// Executor performs API calls. A failed call, a non-2xx status, an
// undecodable body and success=false are all transport errors.
type Executor interface {
	Execute(ctx context.Context, req Request) (*Envelope, error)
}

// Signer adds headers, cookies and any request signature to an outgoing request
type Signer interface {
	Sign(req *http.Request, cookies string) error
}

// HeaderSigner sets the browser headers the web API expects and passes the
// cookie string through untouched. It does not compute x-s/x-t signatures;
// endpoints that require them need a Signer that does.
type HeaderSigner struct {
	UserAgent string
}

// Sign implements Signer
func (s HeaderSigner) Sign(req *http.Request, cookies string) error {
	ua := s.UserAgent
	if ua == "" {
		ua = config.DefaultConfig().XHS.UserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	req.Header.Set("Origin", WebURL)
	req.Header.Set("Referer", WebURL+"/")
	req.Header.Set("x-b3-traceid", traceID())
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	}
	if cookies != "" {
		req.Header.Set("Cookie", cookies)
	}
	return nil
}

// traceID returns 16 hex characters, the shape of the web client's x-b3-traceid
func traceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// Client talks to the web API
type Client struct {
	httpClient *http.Client
	baseURL    string
	webURL     string
	cookies    string
	signer     Signer
	limiter    ratelimit.Limiter
	tracer     trace.Tracer
	logger     logger.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithBaseURL points API calls at another host, e.g. a test server
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") } }

// WithWebURL points note page fetches at another host
func WithWebURL(u string) Option { return func(c *Client) { c.webURL = strings.TrimRight(u, "/") } }

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

// WithSigner replaces the request signer
func WithSigner(s Signer) Option { return func(c *Client) { c.signer = s } }

// WithLimiter replaces the request limiter
func WithLimiter(l ratelimit.Limiter) Option { return func(c *Client) { c.limiter = l } }

// WithTracer replaces the tracer; the global otel provider is used otherwise
func WithTracer(t trace.Tracer) Option { return func(c *Client) { c.tracer = t } }

// WithCookies sets the session cookie string
func WithCookies(cookies string) Option { return func(c *Client) { c.cookies = cookies } }

// NewClient creates a client from transport configuration
func NewClient(cfg config.XHSConfig, log logger.Logger, opts ...Option) (*Client, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		baseURL:    BaseURL,
		webURL:     WebURL,
		cookies:    cfg.Cookies,
		signer:     HeaderSigner{UserAgent: cfg.UserAgent},
		limiter:    ratelimit.Unlimited{},
		tracer:     otel.Tracer(tracerName),
		logger:     log.WithField("component", "xhs"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Execute performs req and decodes the response envelope
func (c *Client) Execute(ctx context.Context, req Request) (*Envelope, error) {
	ctx, span := c.tracer.Start(ctx, "xhs "+req.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("xhs.api", req.Path),
		),
	)
	env, err := c.execute(ctx, req)
	endSpan(span, err)
	return env, err
}

func (c *Client) execute(ctx context.Context, r Request) (*Envelope, error) {
	op := r.op()

	body, status, err := c.do(ctx, r.Method, c.baseURL+r.Path, r.Query, r.Body)
	if err != nil {
		return nil, err
	}
	if err := c.checkResponseStatus(op, status, body); err != nil {
		return nil, err
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"api":          r.Path,
			"status":       status,
			"error":        err.Error(),
			"body_preview": preview(body),
		})
		return nil, &xerrors.Error{Type: xerrors.ErrorTypeTransport, Op: op, Message: "undecodable response", Code: status, Err: err}
	}

	if !env.Success {
		c.logger.WarnWithFields("API reported failure", map[string]interface{}{
			"api":  r.Path,
			"code": env.Code,
			"msg":  env.Msg,
		})
		msg := env.Msg
		if msg == "" {
			msg = "success=false"
		}
		return nil, &xerrors.Error{Type: xerrors.ErrorTypeTransport, Op: op, Message: msg, Code: env.Code}
	}

	return &env, nil
}

// do sends one signed, rate limited request and returns the raw body
func (c *Client) do(ctx context.Context, method, rawURL string, query url.Values, payload interface{}) ([]byte, int, error) {
	op := method + " " + rawURL

	start := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, xerrors.Transport(op, 0, err)
	}
	if waited := time.Since(start); waited > 10*time.Millisecond {
		logger.LogRateLimit(c.logger, rawURL, waited)
	}

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, xerrors.Input(op, "cannot encode request body", err)
		}
		reader = bytes.NewReader(data)
	}

	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, 0, xerrors.Input(op, "cannot build request", err)
	}
	if err := c.signer.Sign(req, c.cookies); err != nil {
		return nil, 0, xerrors.Transport(op, 0, fmt.Errorf("sign request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   method,
			"url":      req.URL.Path,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, 0, xerrors.Transport(op, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, xerrors.Transport(op, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}

	logger.LogRequest(c.logger, method, req.URL.Path, resp.StatusCode, time.Since(start))
	return body, resp.StatusCode, nil
}

// checkResponseStatus maps non-2xx statuses to typed errors
func (c *Client) checkResponseStatus(op string, status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	msg := http.StatusText(status)
	if msg == "" {
		// 461 and 471 are used for captcha and risk control
		msg = fmt.Sprintf("unexpected status code: %d", status)
	}
	c.logger.WarnWithFields("API returned error status", map[string]interface{}{
		"op":           op,
		"status":       status,
		"body_preview": preview(body),
	})
	return xerrors.FromStatus(op, status, msg)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("xhs.error_type", string(xerrors.TypeOf(err))))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// preview cuts body to at most previewBytes without splitting a rune
func preview(body []byte) string {
	if len(body) <= previewBytes {
		return string(body)
	}
	cut := previewBytes
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return string(body[:cut]) + "..."
}
