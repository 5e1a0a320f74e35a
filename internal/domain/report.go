package domain

import (
	"errors"
	"html"
	"math"
	"time"
)

// ErrReportNotFound is returned when a report id is outside the log.
var ErrReportNotFound = errors.New("report not found")

// NotApplicable marks reports without a source domain.
const NotApplicable = "N/A"

// Bias labels produced by the word-list and sentiment strategies.
const (
	BiasNeutral      = "Neutral"
	BiasMixed        = "Mixed"
	BiasBiased       = "Biased"
	BiasLeftLeaning  = "Left-leaning"
	BiasRightLeaning = "Right-leaning"
	BiasCenter       = "Center / Neutral"
	BiasUnknown      = "Unknown"
)

// BiasResult is the output of a bias scorer.
type BiasResult struct {
	Score        float64  `json:"score"`
	Label        string   `json:"label"`
	Confidence   float64  `json:"confidence"`
	Explanations []string `json:"explanations"`
	// HighlightedText is an HTML fragment: escaped text with <mark> around matches.
	HighlightedText  string   `json:"highlighted_text"`
	HighlightedWords []string `json:"highlighted_words"`
	Diagnostic       string   `json:"diagnostic,omitempty"`
}

// NeutralBias is the fixed result for empty or marker text, shared by every strategy.
func NeutralBias(text string) BiasResult {
	return BiasResult{
		Score:            0,
		Label:            BiasNeutral,
		Confidence:       0,
		Explanations:     []string{},
		HighlightedText:  html.EscapeString(text),
		HighlightedWords: []string{},
	}
}

// UnknownBias is returned when a scorer faults.
func UnknownBias(text string, cause error) BiasResult {
	res := NeutralBias(text)
	res.Label = BiasUnknown
	if cause != nil {
		res.Diagnostic = cause.Error()
	}
	return res
}

// Credibility weights.
const (
	DomainWeight = 0.4
	RefsWeight   = 0.3
	LangWeight   = 0.3

	DefaultDomainScore = 0.5
)

// Credibility labels, ordered best to worst.
const (
	CredibilityVerified   = "✅ Verified"
	CredibilityMostlyTrue = "🟡 Mostly True"
	CredibilityMisleading = "🟠 Misleading"
	CredibilityFalse      = "❌ False"
)

// CredibilityLabels lists every bucket in display order.
var CredibilityLabels = []string{
	CredibilityVerified,
	CredibilityMostlyTrue,
	CredibilityMisleading,
	CredibilityFalse,
}

// CredibilityResult holds the component scores; Score is always derived from them.
type CredibilityResult struct {
	Score               float64   `json:"score"`
	DomainScore         float64   `json:"domain_score"`
	RefsScore           float64   `json:"refs_score"`
	LangScore           float64   `json:"lang_score"`
	RefsFound           int       `json:"refs_found"`
	EmotionalWordsFound int       `json:"emotional_words_found"`
	Label               string    `json:"label"`
	Recommendation      string    `json:"recommendation"`
	Diagnostic          string    `json:"diagnostic,omitempty"`
	Timestamp           time.Time `json:"timestamp"`
}

// WeightedScore combines the components with the fixed weights.
func WeightedScore(domainScore, refsScore, langScore float64) float64 {
	return DomainWeight*domainScore + RefsWeight*refsScore + LangWeight*langScore
}

// Recompute refreshes Score, Label and Recommendation from the components.
func (c CredibilityResult) Recompute() CredibilityResult {
	c.Score = WeightedScore(c.DomainScore, c.RefsScore, c.LangScore)
	c.Label = CredibilityLabelFor(c.Score)
	c.Recommendation = RecommendationFor(c.Label)
	return c
}

// Rounded is the two-decimal display value of Score.
func (c CredibilityResult) Rounded() float64 {
	return Round2(c.Score)
}

// Stars maps the score onto a 0..5 rating.
func (c CredibilityResult) Stars() int {
	return int(math.Round(c.Score * 5))
}

// CredibilityLabelFor buckets a numeric score.
func CredibilityLabelFor(score float64) string {
	switch {
	case score >= 0.75:
		return CredibilityVerified
	case score >= 0.55:
		return CredibilityMostlyTrue
	case score >= 0.35:
		return CredibilityMisleading
	default:
		return CredibilityFalse
	}
}

// RecommendationFor returns the sharing advice for a credibility label.
func RecommendationFor(label string) string {
	switch label {
	case CredibilityVerified, CredibilityMostlyTrue:
		return "Safe to Share"
	case CredibilityMisleading:
		return "Share with Caution"
	default:
		return "Do Not Share"
	}
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Report is the immutable record appended to the report log.
type Report struct {
	ID                   int64             `json:"id"`
	Title                string            `json:"title"`
	Text                 string            `json:"text"`
	Language             string            `json:"language,omitempty"`
	BiasStrategy         string            `json:"bias_strategy"`
	Bias                 BiasResult        `json:"bias"`
	Credibility          CredibilityResult `json:"credibility"`
	CredibilityStars     int               `json:"credibility_stars"`
	HighlightedWordCount int               `json:"highlighted_word_count"`
	CorroboratingSources []string          `json:"corroborating_sources"`
	SourceDomain         string            `json:"source_domain"`
	CreatedAt            time.Time         `json:"created_at"`
}

// SourceStats tallies credibility labels for one normalised domain.
type SourceStats struct {
	Domain string         `json:"domain"`
	Counts map[string]int `json:"counts"`
}

// Total sums every label count.
func (s SourceStats) Total() int {
	total := 0
	for _, n := range s.Counts {
		total += n
	}
	return total
}

// Sentiment is the polarity returned by an external model.
type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}
