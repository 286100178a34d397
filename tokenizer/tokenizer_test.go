package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newAdapter(t *testing.T) *Adapter {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	return New(logger)
}

func TestCount(t *testing.T) {
	a := newAdapter(t)

	assert.Zero(t, a.Count(""))
	assert.Greater(t, a.Count("one two three"), 0)

	// More text never counts fewer tokens.
	short := "a model card"
	long := short + " with considerably more content attached to it"
	assert.GreaterOrEqual(t, a.Count(long), a.Count(short))
}

func TestCountDeterministic(t *testing.T) {
	a := newAdapter(t)
	text := strings.Repeat("stable input ", 50)
	assert.Equal(t, a.Count(text), a.Count(text))
}

func TestTruncate(t *testing.T) {
	a := newAdapter(t)

	assert.Equal(t, "", a.Truncate("anything", 0))
	assert.Equal(t, "", a.Truncate("anything", -1))

	// Under the limit the text comes back unchanged.
	assert.Equal(t, "short text", a.Truncate("short text", 1000))

	long := strings.TrimSpace(strings.Repeat("overflowing ", 500))
	truncated := a.Truncate(long, 20)
	assert.NotEmpty(t, truncated)
	assert.Less(t, len(truncated), len(long))
	assert.LessOrEqual(t, a.Count(truncated), 20)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	a := newAdapter(t)
	if !a.HasEncoder() {
		t.Skip("subword encoder unavailable, fallback mode has no Encode")
	}

	text := "The quick brown fox jumps over the lazy dog."
	tokens := a.Encode(text)
	assert.NotEmpty(t, tokens)
	assert.Equal(t, text, a.Decode(tokens))
}

func TestFallbackEncodeIsNil(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	a := &Adapter{enc: nil, logger: logger}

	assert.Nil(t, a.Encode("some text"))
	assert.Equal(t, "", a.Decode([]int{1, 2, 3}))
	assert.Equal(t, 3, a.Count("three word text"))
	assert.Equal(t, "one two", a.Truncate("one two three", 2))
	assert.False(t, a.HasEncoder())
}
