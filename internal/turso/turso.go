package turso

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"

	"github.com/Kairi/ask/internal/config"
	"github.com/Kairi/ask/internal/transport"
)

// DefaultConnectTimeout bounds connection establishment to the pipeline.
const DefaultConnectTimeout = 5 * time.Second

// RequestType is the kind of a pipeline step.
type RequestType string

const (
	RequestExecute RequestType = "execute"
	RequestClose   RequestType = "close"
)

// Statement is a single SQL statement.
type Statement struct {
	SQL string `json:"sql"`
}

// Request is one pipeline step.
type Request struct {
	Type RequestType `json:"type"`
	Stmt *Statement  `json:"stmt,omitempty"`
}

// Body is the pipeline request payload.
type Body struct {
	Requests []Request `json:"requests"`
}

// NewBody executes each statement in order and then closes the stream.
func NewBody(statements []string) Body {
	b := Body{Requests: make([]Request, 0, len(statements)+1)}
	for _, sql := range statements {
		b.Requests = append(b.Requests, Request{Type: RequestExecute, Stmt: &Statement{SQL: sql}})
	}
	b.Requests = append(b.Requests, Request{Type: RequestClose})
	return b
}

// StatusError is returned for non-2xx pipeline replies.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pipeline returned status %d: %s", e.Status, string(e.Body))
}

// Client posts statements to a SQL-over-HTTP pipeline endpoint.
type Client struct {
	URL    string
	sender transport.Sender
	log    logr.Logger
}

// NewClient returns a client for url authenticated with token.
func NewClient(url, token string, log logr.Logger) (*Client, error) {
	if token == "" {
		return nil, &config.Error{Setting: config.EnvTursoKey, Err: fmt.Errorf("can't find %s", config.EnvTursoKey)}
	}
	sender := transport.NewHTTPSender(transport.Options{ConnectTimeout: DefaultConnectTimeout, Token: token})
	return NewClientWithSender(url, sender, log), nil
}

// NewClientWithSender returns a client that sends through sender.
func NewClientWithSender(url string, sender transport.Sender, log logr.Logger) *Client {
	if url == "" {
		url = config.DefaultAPIEndpoints().Turso
	}
	return &Client{URL: url, sender: sender, log: log}
}

// Execute runs statements in a single pipeline request and returns the raw
// response body.
func (c *Client) Execute(ctx context.Context, statements []string) ([]byte, error) {
	payload, err := json.Marshal(NewBody(statements))
	if err != nil {
		return nil, fmt.Errorf("failed to encode pipeline request: %w", err)
	}
	c.log.V(1).Info("posting pipeline", "url", c.URL, "statements", len(statements))

	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "*/*")
	resp, err := c.sender.Send(ctx, &transport.Request{Method: http.MethodPost, URL: c.URL, Header: h, Body: payload})
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if resp.Status < 200 || resp.Status > 299 {
		return nil, &StatusError{Status: resp.Status, Body: resp.Body}
	}
	return resp.Body, nil
}
