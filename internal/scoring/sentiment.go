package scoring

import (
	"context"
	"fmt"
	"html"
	"math"
	"strings"

	"Factulist/internal/domain"
	"Factulist/internal/ports"
)

// SentimentName identifies the model-backed strategy in configuration.
const SentimentName = "sentiment"

// sentimentInputLimit matches the context window of the upstream classifier.
const sentimentInputLimit = 512

// SentimentScorer derives a directional label from an external polarity model.
type SentimentScorer struct {
	client ports.SentimentClient
}

var _ ports.BiasScorer = (*SentimentScorer)(nil)

// NewSentimentScorer wires the polarity client.
func NewSentimentScorer(client ports.SentimentClient) *SentimentScorer {
	return &SentimentScorer{client: client}
}

// Name identifies the strategy.
func (s *SentimentScorer) Name() string {
	return SentimentName
}

// Score maps POSITIVE to left-leaning and NEGATIVE to right-leaning.
// Client failures and panics yield an Unknown result with a diagnostic.
func (s *SentimentScorer) Score(ctx context.Context, text string) (result domain.BiasResult) {
	if domain.IsBlank(text) {
		return domain.NeutralBias(text)
	}

	defer func() {
		if r := recover(); r != nil {
			result = domain.UnknownBias(text, fmt.Errorf("sentiment scorer: %v", r))
		}
	}()

	if s.client == nil {
		return domain.UnknownBias(text, fmt.Errorf("sentiment client is not configured"))
	}

	sentiment, err := s.client.Classify(ctx, domain.Truncate(text, sentimentInputLimit))
	if err != nil {
		return domain.UnknownBias(text, err)
	}

	label := domain.BiasCenter
	switch strings.ToUpper(strings.TrimSpace(sentiment.Label)) {
	case "POSITIVE":
		label = domain.BiasLeftLeaning
	case "NEGATIVE":
		label = domain.BiasRightLeaning
	}

	confidence := clamp01(sentiment.Score)
	return domain.BiasResult{
		Score:            confidence,
		Label:            label,
		Confidence:       confidence,
		Explanations:     []string{fmt.Sprintf("Sentiment %s (%.2f); directional proxy.", strings.ToUpper(sentiment.Label), confidence)},
		HighlightedText:  html.EscapeString(text),
		HighlightedWords: []string{},
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
