package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NewConversation returns the system + user pair sent by a single question.
func NewConversation(systemPrompt, input string) []Message {
	return []Message{
		{Role: RoleSystem, Content: systemPrompt},
		{Role: RoleUser, Content: input},
	}
}

// NewRequest builds the request payload. Temperature is only carried when
// p.SendTemperature is set.
func NewRequest(p Params, messages []Message) ChatCompletionRequest {
	req := ChatCompletionRequest{
		Model:     p.Model,
		Messages:  messages,
		MaxTokens: p.MaxTokens,
	}
	if p.SendTemperature {
		t := p.Temperature
		req.Temperature = &t
	}
	return req
}

// Encode serializes req as compact UTF-8 JSON without HTML escaping.
func Encode(req ChatCompletionRequest) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(req); err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
