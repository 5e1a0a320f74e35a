package scoring

import (
	"context"
	"fmt"
	"html"
	"strings"

	"Factulist/internal/domain"
	"Factulist/internal/lexicon"
	"Factulist/internal/ports"
)

// Ratio thresholds for the word-list strategy.
const (
	MixedThreshold  = 0.05
	BiasedThreshold = 0.15
)

// HeuristicName identifies the word-list strategy in configuration.
const HeuristicName = "heuristic"

// HeuristicScorer rates bias by the share of tokens found in the marker vocabulary.
type HeuristicScorer struct {
	vocab *lexicon.Vocabulary
}

var _ ports.BiasScorer = (*HeuristicScorer)(nil)

// NewHeuristicScorer falls back to the default vocabulary when vocab is nil.
func NewHeuristicScorer(vocab *lexicon.Vocabulary) *HeuristicScorer {
	if vocab == nil {
		vocab = lexicon.Default()
	}
	return &HeuristicScorer{vocab: vocab}
}

// Name identifies the strategy.
func (h *HeuristicScorer) Name() string {
	return HeuristicName
}

// Score never fails; internal faults produce an Unknown result.
func (h *HeuristicScorer) Score(_ context.Context, text string) (result domain.BiasResult) {
	if domain.IsBlank(text) {
		return domain.NeutralBias(text)
	}

	defer func() {
		if r := recover(); r != nil {
			result = domain.UnknownBias(text, fmt.Errorf("heuristic scorer: %v", r))
		}
	}()

	tokens := strings.Fields(text)
	var (
		matches     int
		seen        = map[string]struct{}{}
		explain     []string
		words       []string
		highlighted = make([]string, 0, len(tokens))
	)

	for _, tok := range tokens {
		norm := lexicon.Normalize(tok)
		if !h.vocab.Contains(norm) {
			highlighted = append(highlighted, html.EscapeString(tok))
			continue
		}
		matches++
		highlighted = append(highlighted, "<mark>"+html.EscapeString(tok)+"</mark>")
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		words = append(words, norm)
		explain = append(explain, fmt.Sprintf("Emotionally charged word detected: '%s'", norm))
	}

	ratio := float64(matches) / float64(max(len(tokens), 1))
	if words == nil {
		words = []string{}
		explain = []string{}
	}

	return domain.BiasResult{
		Score:            ratio,
		Label:            LabelForRatio(ratio),
		Confidence:       ratio,
		Explanations:     explain,
		HighlightedText:  strings.Join(highlighted, " "),
		HighlightedWords: words,
	}
}

// LabelForRatio applies the Neutral/Mixed/Biased thresholds; boundaries belong to the higher bucket.
func LabelForRatio(ratio float64) string {
	switch {
	case ratio >= BiasedThreshold:
		return domain.BiasBiased
	case ratio >= MixedThreshold:
		return domain.BiasMixed
	default:
		return domain.BiasNeutral
	}
}
