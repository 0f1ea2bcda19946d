package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Request is a single outbound call.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is a fully read reply.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Sender performs one request and blocks until the whole response has been
// read or the exchange fails. Implementations attach the caller's
// credentials themselves.
type Sender interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// Error reports a failure to connect, send or read.
type Error struct {
	Op  string
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Options configures an HTTPSender.
type Options struct {
	// ConnectTimeout bounds connection establishment only. Zero means no bound.
	ConnectTimeout time.Duration
	// Token is sent as "Authorization: Bearer <Token>" when non-empty.
	Token string
	// Base overrides the underlying round tripper, mainly for tests.
	Base http.RoundTripper
}

// HTTPSender is a Sender backed by net/http.
type HTTPSender struct {
	client *http.Client
}

// NewHTTPSender creates a sender with a dial timeout and a static bearer token.
func NewHTTPSender(opts Options) *HTTPSender {
	base := opts.Base
	if base == nil {
		dialer := &net.Dialer{Timeout: opts.ConnectTimeout, KeepAlive: 30 * time.Second}
		base = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: opts.ConnectTimeout,
			ForceAttemptHTTP2:   true,
		}
	}
	rt := base
	if opts.Token != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"}),
			Base:   base,
		}
	}
	return &HTTPSender{client: &http.Client{Transport: rt}}
}

// Send issues req and reads the response body to EOF. Status codes are
// returned as-is.
func (s *HTTPSender) Send(ctx context.Context, req *Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, &Error{Op: "build", URL: req.URL, Err: err}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.ContentLength = int64(len(req.Body))

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Op: "send", URL: req.URL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: "read", URL: req.URL, Err: err}
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}
