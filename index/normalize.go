package index

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizeText canonicalizes card text deterministically: line endings
// become "\n", trailing whitespace is stripped per line, and runs of more
// than two consecutive blank lines collapse to exactly two.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	normalized := make([]string, 0, len(lines))
	blankCount := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			blankCount++
			if blankCount <= 2 {
				normalized = append(normalized, line)
			}
			continue
		}
		blankCount = 0
		normalized = append(normalized, line)
	}

	return strings.Join(normalized, "\n")
}

// HashContent returns the SHA-256 hex digest of the given text. The digest
// is the dedup key across entities and the identity key for chunks, so it
// must be stable across restarts and platforms.
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
