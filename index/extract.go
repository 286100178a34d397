package index

import (
	"regexp"
	"strings"

	"github.com/Raj-Vaghela/AI-Architect/tokenizer"
	"go.uber.org/zap"
)

// Bands for "large" cards that go through section extraction before chunking.
const (
	LargeCardMinTokens = 10000
	LargeCardMaxTokens = 100000
)

// sectionKeywords marks headings whose sections are kept first when a large
// card is reduced. Matched case-insensitively as substrings.
var sectionKeywords = []string{
	"description", "overview", "intended use", "how to use",
	"usage", "limitations", "license",
}

var extractHeadingRe = regexp.MustCompile(`^(#{1,4})\s+(.+)$`)

type section struct {
	heading string
	content string
	isKey   bool
}

// ExtractResult distinguishes a section-based reduction from the truncation
// fallback. Fallback is an explicit emptiness decision, not an error path.
type ExtractResult struct {
	Text     string
	Fallback bool
}

// SectionExtractor reduces oversized cards to a bounded, keyword-prioritized
// subset of their sections before chunking.
type SectionExtractor struct {
	tok       *tokenizer.Adapter
	maxTokens int
	logger    *zap.Logger
}

func NewSectionExtractor(tok *tokenizer.Adapter, maxTokens int, logger *zap.Logger) *SectionExtractor {
	if maxTokens <= 0 {
		maxTokens = 12000
	}
	return &SectionExtractor{tok: tok, maxTokens: maxTokens, logger: logger}
}

// Extract returns a keyword-prioritized subset of text's sections within the
// token budget. Key sections are added first, then the rest, each skipped
// entirely when it would exceed the remaining budget. If heading parsing
// yields nothing usable, or the greedy pass produces an empty result, the
// original text is token-truncated to the budget instead.
func (e *SectionExtractor) Extract(text string) ExtractResult {
	if strings.TrimSpace(text) == "" {
		return ExtractResult{Text: "", Fallback: true}
	}

	sections := splitSections(text)
	if len(sections) == 0 {
		return e.truncateFallback(text)
	}

	var keySections, otherSections []section
	for _, s := range sections {
		if s.isKey {
			keySections = append(keySections, s)
		} else {
			otherSections = append(otherSections, s)
		}
	}

	var extracted []string
	totalTokens := 0
	for _, s := range append(keySections, otherSections...) {
		sectionTokens := e.tok.Count(s.content)
		if totalTokens+sectionTokens > e.maxTokens {
			// Never split a section to fit; a smaller later one may still fit.
			continue
		}
		extracted = append(extracted, s.content)
		totalTokens += sectionTokens
	}

	result := strings.Join(extracted, "\n\n")
	if strings.TrimSpace(result) == "" {
		e.logger.Warn("Section extraction produced empty text, falling back to truncation",
			zap.Int("sections", len(sections)))
		return e.truncateFallback(text)
	}

	return ExtractResult{Text: result, Fallback: false}
}

func (e *SectionExtractor) truncateFallback(text string) ExtractResult {
	return ExtractResult{Text: e.tok.Truncate(text, e.maxTokens), Fallback: true}
}

// splitSections splits text at markdown heading lines (levels 1-4). The
// leading prose before the first heading becomes its own unkeyed section.
func splitSections(text string) []section {
	var sections []section
	var current []string
	var currentHeading string

	flush := func() {
		if len(current) == 0 {
			return
		}
		content := strings.Join(current, "\n")
		sections = append(sections, section{
			heading: currentHeading,
			content: content,
			isKey:   isKeyHeading(currentHeading),
		})
	}

	for _, line := range strings.Split(text, "\n") {
		if m := extractHeadingRe.FindStringSubmatch(line); m != nil {
			flush()
			current = []string{line}
			currentHeading = m[2]
			continue
		}
		current = append(current, line)
	}
	flush()

	return sections
}

func isKeyHeading(heading string) bool {
	if heading == "" {
		return false
	}
	lower := strings.ToLower(heading)
	for _, kw := range sectionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
