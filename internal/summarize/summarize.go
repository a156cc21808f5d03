package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// ErrEmpty is returned when there is nothing to summarize or the summary came back blank.
var ErrEmpty = errors.New("empty text")

// Summarizer produces a short summary of extracted document text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
	codecErr  error
)

func cl100k() (tokenizer.Codec, error) {
	codecOnce.Do(func() {
		codec, codecErr = tokenizer.Get(tokenizer.Cl100kBase)
	})
	return codec, codecErr
}

// CountTokens returns the cl100k token count of text.
func CountTokens(text string) (int, error) {
	c, err := cl100k()
	if err != nil {
		return 0, fmt.Errorf("load tokenizer: %w", err)
	}
	ids, _, err := c.Encode(text)
	if err != nil {
		return 0, fmt.Errorf("encode: %w", err)
	}
	return len(ids), nil
}

// Truncate cuts text to at most maxTokens cl100k tokens. A non-positive
// limit disables the cap.
func Truncate(text string, maxTokens int) (string, error) {
	if maxTokens <= 0 || text == "" {
		return text, nil
	}
	c, err := cl100k()
	if err != nil {
		return "", fmt.Errorf("load tokenizer: %w", err)
	}
	ids, _, err := c.Encode(text)
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	if len(ids) <= maxTokens {
		return text, nil
	}
	out, err := c.Decode(ids[:maxTokens])
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	// A cut can land inside a multi-byte rune.
	return strings.ToValidUTF8(out, ""), nil
}

// Capped limits the input handed to the wrapped Summarizer.
type Capped struct {
	Next      Summarizer
	MaxTokens int
}

// WithInputCap wraps s so its input never exceeds maxTokens.
func WithInputCap(s Summarizer, maxTokens int) Summarizer {
	if maxTokens <= 0 {
		return s
	}
	return Capped{Next: s, MaxTokens: maxTokens}
}

func (c Capped) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmpty
	}
	input, err := Truncate(text, c.MaxTokens)
	if err != nil {
		return "", err
	}
	return c.Next.Summarize(ctx, input)
}
