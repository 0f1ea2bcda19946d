package chat

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

// ErrNotJSON is wrapped by a FormatError when the body does not parse.
var ErrNotJSON = errors.New("response body is not valid JSON")

// FormatError reports a response without a usable choices[0].message.content.
// Status and Upstream are filled in when the reply came over HTTP.
type FormatError struct {
	Status   int
	Upstream string
	Err      error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("malformed completion response: %v", e.Err)
	if e.Status != 0 && (e.Status < 200 || e.Status > 299) {
		msg += fmt.Sprintf(" (HTTP %d", e.Status)
		if e.Upstream != "" {
			msg += ": " + e.Upstream
		}
		msg += ")"
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Extract returns choices[0].message.content from a completion response,
// exactly as sent. Each step must have the expected JSON type, and a
// repeated key resolves to its last occurrence.
func Extract(body []byte) (string, error) {
	if len(body) == 0 || !json.Valid(body) {
		return "", &FormatError{Err: ErrNotJSON}
	}
	choices, err := member(body, "choices", jsonparser.Array)
	if err != nil {
		return "", &FormatError{Err: err}
	}
	choice, err := firstElement(choices)
	if err != nil {
		return "", &FormatError{Err: err}
	}
	message, err := member(choice, "message", jsonparser.Object)
	if err != nil {
		return "", &FormatError{Err: fmt.Errorf("choices[0].%w", err)}
	}
	value, err := member(message, "content", jsonparser.String)
	if err != nil {
		return "", &FormatError{Err: fmt.Errorf("choices[0].message.%w", err)}
	}
	content, err := jsonparser.ParseString(value)
	if err != nil {
		return "", &FormatError{Err: fmt.Errorf("choices[0].message.content: %w", err)}
	}
	return content, nil
}

// member returns the last value stored under key in the JSON object obj,
// requiring it to be of type want.
func member(obj []byte, key string, want jsonparser.ValueType) ([]byte, error) {
	var value []byte
	got := jsonparser.NotExist
	err := jsonparser.ObjectEach(obj, func(k, v []byte, t jsonparser.ValueType, _ int) error {
		if string(k) == key {
			value, got = v, t
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: parent is not an object: %w", key, err)
	}
	if got == jsonparser.NotExist {
		return nil, fmt.Errorf("%s: %w", key, jsonparser.KeyPathNotFoundError)
	}
	if got != want {
		return nil, fmt.Errorf("%s is %v, not %v", key, got, want)
	}
	return value, nil
}

// firstElement returns choices[0], which must be an object.
func firstElement(arr []byte) ([]byte, error) {
	var first []byte
	got := jsonparser.NotExist
	_, err := jsonparser.ArrayEach(arr, func(v []byte, t jsonparser.ValueType, _ int, _ error) {
		if got == jsonparser.NotExist {
			first, got = v, t
		}
	})
	if got == jsonparser.NotExist {
		if err != nil {
			return nil, fmt.Errorf("choices: %w", err)
		}
		return nil, errors.New("choices is empty")
	}
	if got != jsonparser.Object {
		return nil, fmt.Errorf("choices[0] is %v, not %v", got, jsonparser.Object)
	}
	return first, nil
}

// upstreamMessage returns error.message from an API error body, if any.
func upstreamMessage(body []byte) string {
	msg, err := jsonparser.GetString(body, "error", "message")
	if err != nil {
		return ""
	}
	return msg
}
