package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-logr/logr"

	"github.com/Kairi/ask/internal/config"
	"github.com/Kairi/ask/internal/transport"
)

// Client sends conversations to the chat completion endpoint.
type Client struct {
	// Endpoint defaults to the OpenAI chat completions URL.
	Endpoint  string
	UserAgent string

	sender transport.Sender
	params Params
	log    logr.Logger
}

// NewClient returns a client that sends through sender.
func NewClient(sender transport.Sender, p Params, log logr.Logger) *Client {
	return &Client{
		Endpoint:  config.DefaultAPIEndpoints().OpenAI,
		UserAgent: config.AppName + "/" + config.AppVersion,
		sender:    sender,
		params:    p,
		log:       log,
	}
}

// ParamsFromConfig picks the request parameters out of cfg.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		Model:           cfg.Model,
		MaxTokens:       cfg.MaxTokens,
		Temperature:     cfg.Temperature,
		SendTemperature: cfg.SendTemperature,
	}
}

// Body returns the serialized request for messages.
func (c *Client) Body(messages []Message) ([]byte, error) {
	return Encode(NewRequest(c.params, messages))
}

// Ask sends the system prompt and input as a fresh two-message conversation.
func (c *Client) Ask(ctx context.Context, systemPrompt, input string) (string, error) {
	return c.Complete(ctx, NewConversation(systemPrompt, input))
}

// Complete sends messages in one request and returns the reply content.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	body, err := c.Body(messages)
	if err != nil {
		return "", err
	}

	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "*/*")
	if c.UserAgent != "" {
		h.Set("User-Agent", c.UserAgent)
	}

	c.log.V(1).Info("sending chat completion",
		"endpoint", c.Endpoint,
		"model", c.params.Model,
		"messages", len(messages),
		"approxPromptTokens", ApproxNumTokensInMessages(messages),
		"bytes", len(body))
	if !c.params.SendTemperature {
		c.log.V(2).Info("temperature not transmitted", "temperature", c.params.Temperature)
	}

	resp, err := c.sender.Send(ctx, &transport.Request{
		Method: http.MethodPost,
		URL:    c.Endpoint,
		Header: h,
		Body:   body,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	c.log.V(1).Info("received chat completion", "status", resp.Status, "bytes", len(resp.Body))

	content, err := Extract(resp.Body)
	if err != nil {
		var ferr *FormatError
		if errors.As(err, &ferr) {
			ferr.Status = resp.Status
			ferr.Upstream = upstreamMessage(resp.Body)
		}
		return "", err
	}
	return content, nil
}
