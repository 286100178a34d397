package tokenizer

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// EncodingName is the single vocabulary used across the entire pipeline.
// Changing it invalidates all stored token counts and chunk boundaries and
// requires a chunker version bump.
const EncodingName = "cl100k_base"

// Adapter wraps the tiktoken encoder behind a stable interface with a
// whitespace word-count fallback when the encoder is unavailable.
type Adapter struct {
	enc    *tiktoken.Tiktoken
	logger *zap.Logger
}

// New builds an Adapter. Tokenizer initialization failure is not fatal: the
// adapter degrades to whitespace word counting so the pipeline keeps running.
func New(logger *zap.Logger) *Adapter {
	enc, err := tiktoken.GetEncoding(EncodingName)
	if err != nil {
		logger.Warn("Failed to initialize tiktoken encoder, using word-count fallback",
			zap.String("encoding", EncodingName),
			zap.Error(err))
		enc = nil
	}
	return &Adapter{enc: enc, logger: logger}
}

// Count returns the number of tokens in text. Falls back to a
// whitespace-split word count if the encoder is unavailable.
func (a *Adapter) Count(text string) int {
	if a.enc == nil {
		return len(strings.Fields(text))
	}
	return len(a.enc.Encode(text, nil, nil))
}

// Encode returns the token ids for text, or nil when the encoder is
// unavailable. Callers that slice token ranges must handle the nil case.
func (a *Adapter) Encode(text string) []int {
	if a.enc == nil {
		return nil
	}
	return a.enc.Encode(text, nil, nil)
}

// Decode converts token ids back to text. decode(encode(x)) may differ from
// x for pathological byte sequences; the result is only used for truncation
// and window slicing, never as the canonical stored text.
func (a *Adapter) Decode(tokens []int) string {
	if a.enc == nil || len(tokens) == 0 {
		return ""
	}
	return a.enc.Decode(tokens)
}

// Truncate returns text reduced to at most maxTokens tokens. When the
// encoder is unavailable it truncates on word boundaries instead.
func (a *Adapter) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	if a.enc == nil {
		words := strings.Fields(text)
		if len(words) <= maxTokens {
			return text
		}
		return strings.Join(words[:maxTokens], " ")
	}
	tokens := a.enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return a.enc.Decode(tokens[:maxTokens])
}

// HasEncoder reports whether the subword encoder is active (false means the
// adapter is running in word-count fallback mode).
func (a *Adapter) HasEncoder() bool {
	return a.enc != nil
}
