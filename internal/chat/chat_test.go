package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kairi/ask/internal/transport"
)

type fakeSender struct {
	resp  *transport.Response
	err   error
	calls []*transport.Request
}

func (f *fakeSender) Send(_ context.Context, req *transport.Request) (*transport.Response, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func TestEncodeRoundTrip(t *testing.T) {
	body, err := Encode(NewRequest(Params{Model: "gpt-4o-mini", MaxTokens: 100, Temperature: 0.75}, NewConversation("Hi", "hello")))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, map[string]any{
		"model": "gpt-4o-mini",
		"messages": []any{
			map[string]any{"role": "system", "content": "Hi"},
			map[string]any{"role": "user", "content": "hello"},
		},
		"max_tokens": float64(100),
	}, got)
}

func TestEncodeTemperature(t *testing.T) {
	body, err := Encode(NewRequest(Params{Model: "m", MaxTokens: 1, Temperature: 0.5, SendTemperature: true}, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"model":"m","messages":null,"max_tokens":1,"temperature":0.5}`, string(body))
}

func TestEncodeNoHTMLEscape(t *testing.T) {
	body, err := Encode(NewRequest(Params{Model: "m"}, NewConversation("<b>", "a & b")))
	require.NoError(t, err)
	assert.Contains(t, string(body), `"<b>"`)
	assert.Contains(t, string(body), `"a & b"`)
	assert.NotContains(t, string(body), "\n")
}

func TestExtract(t *testing.T) {
	content, err := Extract([]byte(`{"choices":[{"message":{"role":"assistant","content":"X"}}]}`))
	require.NoError(t, err)
	assert.Equal(t, "X", content)

	content, err = Extract([]byte(`{"choices":[{"message":{"content":"line\n  \"quoted\" é"}},{"message":{"content":"second"}}]}`))
	require.NoError(t, err)
	assert.Equal(t, "line\n  \"quoted\" é", content)
}

func TestExtractFailures(t *testing.T) {
	for name, body := range map[string]string{
		"empty":          ``,
		"not json":       `<html>bad gateway</html>`,
		"trailing":       `{"choices":[]} junk`,
		"empty choices":  `{"choices":[]}`,
		"no choices":     `{"id":"x"}`,
		"choices object": `{"choices":{"message":{"content":"X"}}}`,
		"no message":     `{"choices":[{"text":"X"}]}`,
		"number content": `{"choices":[{"message":{"content":42}}]}`,
		"null content":   `{"choices":[{"message":{"content":null}}]}`,
		"index as key":   `{"choices":{"[0]":{"message":{"content":"X"}}}}`,
		"last choices":   `{"choices":[{"message":{"content":"a"}}],"choices":[]}`,
		"string choice":  `{"choices":["X"]}`,
		"top array":      `[{"choices":[{"message":{"content":"X"}}]}]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Extract([]byte(body))
			var ferr *FormatError
			assert.True(t, errors.As(err, &ferr), "got %v", err)
		})
	}

	_, err := Extract([]byte(`nope`))
	assert.ErrorIs(t, err, ErrNotJSON)
}

func TestExtractRepeatedKeys(t *testing.T) {
	content, err := Extract([]byte(`{"choices":[],"choices":[{"message":{"content":"a","content":"b"}}]}`))
	require.NoError(t, err)
	assert.Equal(t, "b", content)
}

func TestClientAsk(t *testing.T) {
	sender := &fakeSender{resp: &transport.Response{Status: http.StatusOK, Body: []byte(`{"choices":[{"message":{"content":"X"}}]}`)}}
	c := NewClient(sender, Params{Model: "gpt-4o-mini", MaxTokens: 100}, logr.Discard())

	content, err := c.Ask(context.Background(), "Hi", "hello")
	require.NoError(t, err)
	assert.Equal(t, "X", content)

	require.Len(t, sender.calls, 1)
	req := sender.calls[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", req.URL)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "*/*", req.Header.Get("Accept"))
	assert.JSONEq(t, `{"model":"gpt-4o-mini","messages":[{"role":"system","content":"Hi"},{"role":"user","content":"hello"}],"max_tokens":100}`, string(req.Body))
}

func TestClientTransportError(t *testing.T) {
	terr := &transport.Error{Op: "send", URL: "u", Err: errors.New("connection refused")}
	c := NewClient(&fakeSender{err: terr}, Params{}, logr.Discard())

	_, err := c.Ask(context.Background(), "s", "q")
	var got *transport.Error
	require.True(t, errors.As(err, &got))
	assert.Equal(t, "send", got.Op)
}

func TestClientUpstreamError(t *testing.T) {
	sender := &fakeSender{resp: &transport.Response{
		Status: http.StatusUnauthorized,
		Body:   []byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`),
	}}
	c := NewClient(sender, Params{}, logr.Discard())

	_, err := c.Ask(context.Background(), "s", "q")
	var ferr *FormatError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, http.StatusUnauthorized, ferr.Status)
	assert.Equal(t, "Incorrect API key provided", ferr.Upstream)
	assert.Contains(t, err.Error(), "HTTP 401: Incorrect API key provided")
}

func TestClientNon2xxWithContent(t *testing.T) {
	sender := &fakeSender{resp: &transport.Response{Status: http.StatusAccepted, Body: []byte(`{"choices":[{"message":{"content":"ok"}}]}`)}}
	content, err := NewClient(sender, Params{}, logr.Discard()).Ask(context.Background(), "s", "q")
	require.NoError(t, err)
	assert.Equal(t, "ok", content)
}

func TestApproxNumTokens(t *testing.T) {
	assert.Greater(t, ApproxNumTokens("hello world"), 0)
	assert.Equal(t, 0, ApproxNumTokens(""))
	msgs := NewConversation("You are a friendly assistant.", "hello")
	assert.Equal(t, ApproxNumTokens(msgs[0].Content)+ApproxNumTokens(msgs[1].Content), ApproxNumTokensInMessages(msgs))
}
