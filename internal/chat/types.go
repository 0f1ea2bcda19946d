package chat

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in the chat conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is the payload sent to the chat completion endpoint
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   uint      `json:"max_tokens"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// Params are the per-invocation request parameters.
type Params struct {
	Model           string
	MaxTokens       uint
	Temperature     float64
	SendTemperature bool
}
