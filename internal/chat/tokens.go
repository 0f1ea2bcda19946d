package chat

import (
	"strings"

	"github.com/tiktoken-go/tokenizer/codec"
)

var tokenizer = codec.NewCl100kBase()

// ApproxNumTokens counts text with the cl100k_base codec, falling back to a
// word/character estimate when encoding fails.
func ApproxNumTokens(text string) int {
	tokens, _, err := tokenizer.Encode(text)
	if err != nil {
		// approximation
		wc := len(strings.Fields(text)) * 4 / 3
		cc := len(text) / 4
		return (wc + cc) / 2
	}
	return len(tokens)
}

// ApproxNumTokensInMessages sums ApproxNumTokens over message contents.
func ApproxNumTokensInMessages(messages []Message) int {
	n := 0
	for _, m := range messages {
		n += ApproxNumTokens(m.Content)
	}
	return n
}
