package httpx

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func httpClientRT(rt http.RoundTripper) *http.Client {
	return &http.Client{Transport: rt, Timeout: 2 * time.Second}
}

func resp(r *http.Request, code int, body string) *http.Response {
	return &http.Response{StatusCode: code, Body: io.NopCloser(strings.NewReader(body)), Header: make(http.Header), Request: r}
}

func TestGet_SendsHeadersAndReturnsBody(t *testing.T) {
	var got http.Header
	c := &Client{
		HTTP: httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
			got = r.Header.Clone()
			return resp(r, 200, "<html></html>"), nil
		})),
		Headers: http.Header{"User-Agent": {"test-agent"}, "Accept-Language": {"zh-CN"}},
	}
	body, err := c.Get(context.Background(), "http://example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "<html></html>" {
		t.Fatalf("unexpected body %q", body)
	}
	if got.Get("User-Agent") != "test-agent" || got.Get("Accept-Language") != "zh-CN" {
		t.Fatalf("headers not sent: %v", got)
	}
}

func TestGet_NoRetryOn500(t *testing.T) {
	var calls int
	c := &Client{HTTP: httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return resp(r, 503, "down"), nil
	}))}
	_, err := c.Get(context.Background(), "http://example.com")
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != 503 {
		t.Fatalf("expected status error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

type tempTimeoutErr struct{}

func (tempTimeoutErr) Error() string   { return "timeout" }
func (tempTimeoutErr) Timeout() bool   { return true }
func (tempTimeoutErr) Temporary() bool { return true }

func TestGet_NetworkError(t *testing.T) {
	c := &Client{HTTP: httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
		var ne net.Error = tempTimeoutErr{}
		return nil, ne
	}))}
	_, err := c.Get(context.Background(), "http://example.com")
	var ne net.Error
	if !errors.As(err, &ne) || !ne.Timeout() {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestGet_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &Client{HTTP: httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
		return nil, r.Context().Err()
	}))}
	if _, err := c.Get(ctx, "http://example.com"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
