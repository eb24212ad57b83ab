package xhs

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"xhscrawl/internal/xhstest"
	"xhscrawl/pkg/config"
	xerrors "xhscrawl/pkg/errors"
	"xhscrawl/pkg/logger"
	"xhscrawl/pkg/ratelimit"
)

func newTestClient(t *testing.T, srv *xhstest.Server, log logger.Logger, opts ...Option) *Client {
	t.Helper()
	if log == nil {
		log = logger.NewTestLogger()
	}
	cfg := config.DefaultConfig().XHS
	cfg.Cookies = "a1=abc; web_session=xyz"
	opts = append([]Option{WithBaseURL(srv.URL()), WithWebURL(srv.URL())}, opts...)
	c, err := NewClient(cfg, log, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	c, err := NewClient(config.XHSConfig{}, logger.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, BaseURL, c.baseURL)
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)
	assert.IsType(t, ratelimit.Unlimited{}, c.limiter)
}

func TestNewClientRejectsBadProxy(t *testing.T) {
	_, err := NewClient(config.XHSConfig{Proxy: "://nope"}, logger.NewNopLogger())
	assert.Error(t, err)
}

func TestExecuteDecodesEnvelope(t *testing.T) {
	srv := xhstest.NewServer()
	defer srv.Close()
	srv.Script(SelfInfoAPI, xhstest.OK(map[string]interface{}{"nickname": "me"}))

	c := newTestClient(t, srv, nil)
	env, err := c.Execute(context.Background(), Request{Method: http.MethodGet, Path: SelfInfoAPI})

	require.NoError(t, err)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"nickname":"me"}`, string(env.Data))
}

func TestExecuteSignsRequests(t *testing.T) {
	srv := xhstest.NewServer()
	defer srv.Close()
	srv.Script(HomefeedAPI, xhstest.OK(xhstest.HomefeedPage(0, 1, "s1")))

	c := newTestClient(t, srv, nil)
	_, err := c.Execute(context.Background(), Request{
		Method: http.MethodPost,
		Path:   HomefeedAPI,
		Body:   map[string]string{"category": "homefeed_recommend"},
	})
	require.NoError(t, err)

	reqs := srv.Requests(HomefeedAPI)
	require.Len(t, reqs, 1)
	h := reqs[0].Header
	assert.Equal(t, "a1=abc; web_session=xyz", h.Get("Cookie"))
	assert.Equal(t, WebURL, h.Get("Origin"))
	assert.NotEmpty(t, h.Get("User-Agent"))
	assert.Len(t, h.Get("x-b3-traceid"), 16)
	assert.Contains(t, h.Get("Content-Type"), "application/json")
	assert.Equal(t, "homefeed_recommend", reqs[0].Body["category"])
}

func TestExecuteErrors(t *testing.T) {
	tests := []struct {
		name     string
		response xhstest.Response
		wantType xerrors.ErrorType
		wantMsg  string
	}{
		{name: "unauthorized", response: xhstest.Status(http.StatusUnauthorized), wantType: xerrors.ErrorTypeAuth},
		{name: "rate limited", response: xhstest.Status(http.StatusTooManyRequests), wantType: xerrors.ErrorTypeRateLimit},
		{name: "server error", response: xhstest.Status(http.StatusBadGateway), wantType: xerrors.ErrorTypeServerError},
		{name: "captcha", response: xhstest.Status(461), wantType: xerrors.ErrorTypeTransport, wantMsg: "461"},
		{name: "not json", response: xhstest.Raw("<html>", "text/html"), wantType: xerrors.ErrorTypeTransport, wantMsg: "undecodable"},
		{name: "success false", response: xhstest.Fail(-100, "登录已过期"), wantType: xerrors.ErrorTypeTransport, wantMsg: "登录已过期"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := xhstest.NewServer()
			defer srv.Close()
			srv.Script(SelfInfoAPI, tt.response)

			_, err := newTestClient(t, srv, nil).SelfInfo(context.Background())

			require.Error(t, err)
			assert.Equal(t, tt.wantType, xerrors.TypeOf(err))
			assert.True(t, xerrors.IsTransport(err))
			assert.False(t, xerrors.IsFatal(err))
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestExecuteNetworkFailure(t *testing.T) {
	srv := xhstest.NewServer()
	c := newTestClient(t, srv, nil)
	srv.Close()

	_, err := c.SelfInfo(context.Background())

	require.Error(t, err)
	assert.Equal(t, xerrors.ErrorTypeTransport, xerrors.TypeOf(err))
}

func TestExecuteWaitsForLimiter(t *testing.T) {
	srv := xhstest.NewServer()
	defer srv.Close()
	srv.Script(SelfInfoAPI, xhstest.OK(map[string]interface{}{}))

	limiter := ratelimit.NewTokenBucket(60, 1)
	c := newTestClient(t, srv, nil, WithLimiter(limiter))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.SelfInfo(ctx)
	require.NoError(t, err)

	// the single token is spent; the next call cannot get one before the deadline
	_, err = c.SelfInfo(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, srv.Calls(SelfInfoAPI))
}

func TestExecuteLogsRequests(t *testing.T) {
	srv := xhstest.NewServer()
	defer srv.Close()
	srv.Script(SelfInfoAPI, xhstest.Status(http.StatusForbidden))

	tl := logger.NewTestLogger()
	_, _ = newTestClient(t, srv, tl).SelfInfo(context.Background())

	assert.True(t, tl.HasMessage("API returned error status"))
	assert.True(t, tl.HasMessage("HTTP request client error"))
}

type recordingSigner struct{ calls int }

func (s *recordingSigner) Sign(req *http.Request, cookies string) error {
	s.calls++
	req.Header.Set("x-s", "signed")
	return nil
}

func TestWithSigner(t *testing.T) {
	srv := xhstest.NewServer()
	defer srv.Close()
	srv.Script(SelfInfoAPI, xhstest.OK(map[string]interface{}{}))

	signer := &recordingSigner{}
	_, err := newTestClient(t, srv, nil, WithSigner(signer)).SelfInfo(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, signer.calls)
	assert.Equal(t, "signed", srv.Requests(SelfInfoAPI)[0].Header.Get("x-s"))
}

func TestPreviewKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, `{"success":true}`, preview([]byte(`{"success":true}`)))

	body := []byte(strings.Repeat("好", 100))
	got := preview(body)
	assert.True(t, utf8.ValidString(got), "preview split a rune: %q", got)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, strings.Repeat("好", 66)+"...", got)
}
