// Package report turns extracted text and scorer outputs into the canonical
// Report record and appends it to the report log.
package report

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"

	"Factulist/internal/domain"
	"Factulist/internal/ports"
)

const (
	titleLimit   = 60
	untitled     = "Untitled"
	queryTokens  = 5
	googleSearch = "https://www.google.com/search?q="
	bingNews     = "https://www.bing.com/news/search?q="
	reutersHome  = "https://www.reuters.com"
	apNewsHome   = "https://apnews.com"
)

// Assembler builds reports and appends them to the log.
type Assembler struct {
	repo     ports.ReportRepository
	strategy string
	now      func() time.Time
}

// NewAssembler records strategy as the bias scorer name on every report.
func NewAssembler(repo ports.ReportRepository, strategy string) *Assembler {
	return &Assembler{repo: repo, strategy: strategy, now: time.Now}
}

// Assemble builds the report and appends it; the returned report carries the assigned id.
func (a *Assembler) Assemble(ctx context.Context, extracted string, bias domain.BiasResult, cred domain.CredibilityResult, sourceURL string) (domain.Report, error) {
	rep := a.Build(extracted, bias, cred, sourceURL)
	if a.repo == nil {
		return rep, fmt.Errorf("report repository is not configured")
	}

	stored, err := a.repo.Append(ctx, rep)
	if err != nil {
		return domain.Report{}, fmt.Errorf("append report: %w", err)
	}
	return stored, nil
}

// Build derives every report field except the id, which the log assigns.
func (a *Assembler) Build(extracted string, bias domain.BiasResult, cred domain.CredibilityResult, sourceURL string) domain.Report {
	cred = cred.Recompute()
	if bias.Explanations == nil {
		bias.Explanations = []string{}
	}
	if bias.HighlightedWords == nil {
		bias.HighlightedWords = []string{}
	}

	return domain.Report{
		Title:                Title(extracted),
		Text:                 extracted,
		Language:             Language(extracted),
		BiasStrategy:         a.strategy,
		Bias:                 bias,
		Credibility:          cred,
		CredibilityStars:     cred.Stars(),
		HighlightedWordCount: len(bias.HighlightedWords),
		CorroboratingSources: CorroboratingSources(extracted),
		SourceDomain:         domain.SourceDomainFor(sourceURL),
		CreatedAt:            a.now().UTC(),
	}
}

// Title is the first 60 characters plus an ellipsis, or "Untitled" for empty text.
func Title(text string) string {
	if text == "" {
		return untitled
	}
	if utf8.RuneCountInString(text) > titleLimit {
		return domain.Truncate(text, titleLimit) + "..."
	}
	return text
}

// CorroboratingSources builds search links from the first five words, or
// wire-service homepages when there is no usable text.
func CorroboratingSources(text string) []string {
	if domain.IsBlank(text) {
		return []string{reutersHome, apNewsHome}
	}

	tokens := strings.Fields(text)
	if len(tokens) > queryTokens {
		tokens = tokens[:queryTokens]
	}
	escaped := make([]string, len(tokens))
	for i, tok := range tokens {
		escaped[i] = url.QueryEscape(tok)
	}
	query := strings.Join(escaped, "+")

	return []string{googleSearch + query, bingNews + query}
}

// Language returns the ISO 639-3 code when detection is reliable.
func Language(text string) string {
	if domain.IsBlank(text) {
		return ""
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6393()
}
