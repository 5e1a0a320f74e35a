package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArticleInputKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input ArticleInput
		want  InputKind
	}{
		{name: "empty", input: ArticleInput{}, want: InputNone},
		{name: "url", input: ArticleInput{URL: "https://example.com/a"}, want: InputURL},
		{name: "text", input: ArticleInput{RawText: "hello"}, want: InputText},
		{name: "file", input: ArticleInput{FilePath: "/tmp/a.pdf", Format: FormatPDF}, want: InputFile},
		{name: "blank url falls through", input: ArticleInput{URL: "  ", RawText: "x"}, want: InputText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.input.Kind())
		})
	}
}

func TestIsMarker(t *testing.T) {
	t.Parallel()

	assert.True(t, IsMarker(FetchFailure(errors.New("timeout"))))
	assert.True(t, IsMarker(ExtractionFailure(FormatPDF)))
	assert.True(t, IsMarker(MarkerNoInput))
	assert.True(t, IsMarker(MarkerUnsupportedFile))
	assert.False(t, IsMarker("An ordinary sentence."))
	assert.True(t, IsBlank("   "))
}

func TestExtractionFailureMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Error: Could not extract text from DOCX.", ExtractionFailure(FormatDOCX))
	assert.Equal(t, "Error fetching article: boom", FetchFailure(errors.New("boom")))
}

func TestTruncateCountsCharacters(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("é", MaxTextLength+10)
	got := Truncate(text, MaxTextLength)
	assert.Equal(t, MaxTextLength, len([]rune(got)))
	assert.Equal(t, "abc", Truncate("abc", MaxTextLength))
}

func TestNormalizeDomain(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "example.com", NormalizeDomain("https://www.example.com/path?q=1"))
	assert.Equal(t, "news.example.org", NormalizeDomain("http://News.Example.org:8080/x"))
	assert.Equal(t, "example.com", NormalizeDomain("www.example.com/article"))
	assert.Equal(t, "", NormalizeDomain(""))
	assert.Equal(t, NotApplicable, SourceDomainFor(""))
}

func TestCredibilityRecompute(t *testing.T) {
	t.Parallel()

	res := CredibilityResult{DomainScore: 0.5, RefsScore: 0.7, LangScore: 1.0}.Recompute()
	assert.InDelta(t, 0.71, res.Score, 1e-9)
	assert.Equal(t, 0.71, res.Rounded())
	assert.Equal(t, CredibilityMostlyTrue, res.Label)
	assert.Equal(t, 4, res.Stars())
}

func TestCredibilityLabelBoundaries(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CredibilityVerified, CredibilityLabelFor(0.75))
	assert.Equal(t, CredibilityMostlyTrue, CredibilityLabelFor(0.55))
	assert.Equal(t, CredibilityMisleading, CredibilityLabelFor(0.35))
	assert.Equal(t, CredibilityFalse, CredibilityLabelFor(0.34))
	assert.Equal(t, "Do Not Share", RecommendationFor(CredibilityFalse))
}

func TestSourceStatsTotal(t *testing.T) {
	t.Parallel()

	s := SourceStats{Domain: "example.com", Counts: map[string]int{CredibilityVerified: 2, CredibilityFalse: 1}}
	assert.Equal(t, 3, s.Total())
}
