package index

import (
	"regexp"
	"strings"

	"github.com/Raj-Vaghela/AI-Architect/tokenizer"
)

// chunkHeadingRe matches the H2/H3 boundaries used for chunk splitting.
// This is deliberately narrower than the level 1-4 split used for section
// extraction: top-level headings usually delimit whole cards, not chunks.
var chunkHeadingRe = regexp.MustCompile(`^#{2,3}\s+`)

// Chunk is one token-bounded slice of a canonical card. Its hash is the
// content hash of the chunk's own text, not the parent card hash.
type Chunk struct {
	ChunkHash  string
	CardHash   string
	ChunkIndex int
	Text       string
	TokenCount int
}

// Chunker splits canonical card text into overlapping token-bounded chunks.
// Identical (text, target, overlap) input always yields a byte-identical
// chunk list; there is no randomness anywhere in here.
type Chunker struct {
	tok     *tokenizer.Adapter
	target  int
	overlap int
}

func NewChunker(tok *tokenizer.Adapter, targetTokens, overlapTokens int) *Chunker {
	if targetTokens <= 0 {
		targetTokens = 900
	}
	if overlapTokens < 0 || overlapTokens >= targetTokens {
		overlapTokens = targetTokens / 8
	}
	return &Chunker{tok: tok, target: targetTokens, overlap: overlapTokens}
}

// Chunk splits text (already normalized, and section-extracted when the card
// was large) into ordered chunks with dense zero-based indices.
func (c *Chunker) Chunk(text, cardHash string, tokenCount int) []Chunk {
	if text == "" {
		return nil
	}

	if tokenCount <= c.target {
		return []Chunk{{
			ChunkHash:  HashContent(text),
			CardHash:   cardHash,
			ChunkIndex: 0,
			Text:       text,
			TokenCount: tokenCount,
		}}
	}

	sections := splitAtChunkHeadings(text)
	if len(sections) <= 1 {
		sections = c.slidingWindow(text)
	}

	var chunks []Chunk
	chunkIndex := 0
	emit := func(chunkText string) {
		chunks = append(chunks, Chunk{
			ChunkHash:  HashContent(chunkText),
			CardHash:   cardHash,
			ChunkIndex: chunkIndex,
			Text:       chunkText,
			TokenCount: c.tok.Count(chunkText),
		})
		chunkIndex++
	}

	for _, sec := range sections {
		if c.tok.Count(sec) <= c.target {
			emit(sec)
			continue
		}
		for _, sub := range c.slidingWindow(sec) {
			emit(sub)
		}
	}

	return chunks
}

// slidingWindow splits text into windows of target tokens advancing by
// target-overlap per step, decoding each window back to text. If the subword
// encoder is unavailable the same arithmetic runs over whitespace words.
func (c *Chunker) slidingWindow(text string) []string {
	tokens := c.tok.Encode(text)
	if len(tokens) == 0 {
		return c.wordWindow(text)
	}

	var out []string
	stride := c.target - c.overlap
	for start := 0; start < len(tokens); start += stride {
		end := start + c.target
		if end > len(tokens) {
			end = len(tokens)
		}
		out = append(out, c.tok.Decode(tokens[start:end]))
		if end >= len(tokens) {
			break
		}
	}
	return out
}

func (c *Chunker) wordWindow(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{text}
	}

	var out []string
	stride := c.target - c.overlap
	for start := 0; start < len(words); start += stride {
		end := start + c.target
		if end > len(words) {
			end = len(words)
		}
		out = append(out, strings.Join(words[start:end], " "))
		if end >= len(words) {
			break
		}
	}
	return out
}

// splitAtChunkHeadings splits at H2/H3 lines, keeping each heading with the
// section it introduces.
func splitAtChunkHeadings(text string) []string {
	var sections []string
	var current []string

	for _, line := range strings.Split(text, "\n") {
		if chunkHeadingRe.MatchString(line) {
			if len(current) > 0 {
				sections = append(sections, strings.Join(current, "\n"))
			}
			current = []string{line}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		sections = append(sections, strings.Join(current, "\n"))
	}

	return sections
}
