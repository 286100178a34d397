package index

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"
)

func testExtractor(t *testing.T, budget int) *SectionExtractor {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	return NewSectionExtractor(testTokenizer(t), budget, logger)
}

func TestExtractKeySectionsComeFirst(t *testing.T) {
	e := testExtractor(t, 12000)

	text := "## Benchmarks\n\nSome numbers here.\n\n## Usage\n\nHow to run the model.\n\n## License\n\nApache 2.0."
	res := e.Extract(text)
	require.False(t, res.Fallback)

	usage := strings.Index(res.Text, "## Usage")
	license := strings.Index(res.Text, "## License")
	benchmarks := strings.Index(res.Text, "## Benchmarks")
	require.NotEqual(t, -1, usage)
	require.NotEqual(t, -1, license)
	require.NotEqual(t, -1, benchmarks)

	// Keyword sections lead, non-keyword sections follow.
	assert.Less(t, usage, benchmarks)
	assert.Less(t, license, benchmarks)
}

func TestExtractSkipsOversizedSection(t *testing.T) {
	e := testExtractor(t, 100)

	huge := "## Benchmarks\n\n" + strings.TrimSpace(strings.Repeat("number ", 3000))
	small := "## License\n\nMIT."
	res := e.Extract(huge + "\n\n" + small)

	require.False(t, res.Fallback)
	assert.Contains(t, res.Text, "MIT.")
	assert.NotContains(t, res.Text, "number number")
}

func TestExtractFallsBackWhenNothingFits(t *testing.T) {
	e := testExtractor(t, 50)

	text := "## Everything\n\n" + strings.TrimSpace(strings.Repeat("overflow ", 2000))
	res := e.Extract(text)

	assert.True(t, res.Fallback)
	assert.NotEmpty(t, res.Text)
	assert.Less(t, len(res.Text), len(text))
}

func TestExtractEmptyInput(t *testing.T) {
	e := testExtractor(t, 100)

	res := e.Extract("   \n ")
	assert.True(t, res.Fallback)
	assert.Empty(t, res.Text)
}

func TestSplitSections(t *testing.T) {
	text := "preamble line\n# Title\nintro\n## Usage\nbody"
	sections := splitSections(text)

	require.Len(t, sections, 3)
	assert.Equal(t, "", sections[0].heading)
	assert.False(t, sections[0].isKey)
	assert.Equal(t, "Title", sections[1].heading)
	assert.Equal(t, "Usage", sections[2].heading)
	assert.True(t, sections[2].isKey)
}

func TestIsKeyHeading(t *testing.T) {
	tests := []struct {
		heading string
		want    bool
	}{
		{"Model Description", true},
		{"Intended Use and Limitations", true},
		{"HOW TO USE", true},
		{"License", true},
		{"Benchmarks", false},
		{"Citation", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isKeyHeading(tt.heading), tt.heading)
	}
}
