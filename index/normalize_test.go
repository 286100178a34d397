package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "crlf_becomes_lf",
			input: "line one\r\nline two\r\n",
			want:  "line one\nline two\n",
		},
		{
			name:  "bare_cr_becomes_lf",
			input: "line one\rline two",
			want:  "line one\nline two",
		},
		{
			name:  "trailing_whitespace_stripped",
			input: "line one   \nline two\t",
			want:  "line one\nline two",
		},
		{
			name:  "blank_runs_collapse_to_two",
			input: "a\n\n\n\n\nb",
			want:  "a\n\n\nb",
		},
		{
			name:  "two_blanks_preserved",
			input: "a\n\n\nb",
			want:  "a\n\n\nb",
		},
		{
			name:  "empty_input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeText(tt.input)
			assert.Equal(t, tt.want, got)

			// Normalization is a fixed point: applying it twice changes nothing.
			assert.Equal(t, got, NormalizeText(got))
		})
	}
}

func TestHashContent(t *testing.T) {
	// Known SHA-256 vector so a hash function swap cannot slip in silently.
	assert.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		HashContent("hello"))

	assert.Equal(t, HashContent("same"), HashContent("same"))
	assert.NotEqual(t, HashContent("same"), HashContent("same "))
	assert.Len(t, HashContent(""), 64)
}

func TestNormalizeThenHashStable(t *testing.T) {
	// The same card fetched with different line endings must dedupe to one hash.
	unix := "# Model\n\nA description.\n"
	windows := "# Model\r\n\r\nA description.\r\n"

	assert.Equal(t, HashContent(NormalizeText(unix)), HashContent(NormalizeText(windows)))
}
