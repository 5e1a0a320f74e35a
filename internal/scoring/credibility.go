package scoring

import (
	"fmt"
	"regexp"
	"time"

	"Factulist/internal/domain"
	"Factulist/internal/lexicon"
	"Factulist/internal/ports"
)

var referenceExpr = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

// CredibilityScorer weighs domain reputation, reference density and emotional language.
type CredibilityScorer struct {
	reputation ports.ReputationStore
	vocab      *lexicon.Vocabulary
	now        func() time.Time
}

var _ ports.CredibilityScorer = (*CredibilityScorer)(nil)

// NewCredibilityScorer shares vocab with the heuristic bias scorer.
func NewCredibilityScorer(reputation ports.ReputationStore, vocab *lexicon.Vocabulary) *CredibilityScorer {
	if vocab == nil {
		vocab = lexicon.Default()
	}
	return &CredibilityScorer{
		reputation: reputation,
		vocab:      vocab,
		now:        time.Now,
	}
}

// Score is total: empty or marker text still yields a well-defined result.
func (c *CredibilityScorer) Score(text, sourceURL string) (result domain.CredibilityResult) {
	defer func() {
		if r := recover(); r != nil {
			result = domain.CredibilityResult{
				DomainScore: domain.DefaultDomainScore,
				RefsScore:   RefsScore(0),
				LangScore:   LangScore(0),
				Diagnostic:  fmt.Sprintf("credibility scorer: %v", r),
				Timestamp:   c.now().UTC(),
			}.Recompute()
		}
	}()

	body := text
	if domain.IsMarker(body) {
		body = ""
	}

	refs := len(referenceExpr.FindAllString(body, -1))
	emotional := c.vocab.Count(body)

	return domain.CredibilityResult{
		DomainScore:         c.domainScore(sourceURL),
		RefsScore:           RefsScore(refs),
		LangScore:           LangScore(emotional),
		RefsFound:           refs,
		EmotionalWordsFound: emotional,
		Timestamp:           c.now().UTC(),
	}.Recompute()
}

func (c *CredibilityScorer) domainScore(sourceURL string) float64 {
	d := domain.NormalizeDomain(sourceURL)
	if d == "" || c.reputation == nil {
		return domain.DefaultDomainScore
	}
	s, ok := c.reputation.Lookup(d)
	if !ok {
		return domain.DefaultDomainScore
	}
	return s
}

// RefsScore maps the number of cited URLs onto a score.
func RefsScore(refs int) float64 {
	switch {
	case refs >= 5:
		return 1.0
	case refs >= 2:
		return 0.7
	case refs == 1:
		return 0.5
	default:
		return 0.2
	}
}

// LangScore penalises emotionally charged wording.
func LangScore(emotional int) float64 {
	switch {
	case emotional <= 0:
		return 1.0
	case emotional <= 2:
		return 0.7
	default:
		return 0.3
	}
}
