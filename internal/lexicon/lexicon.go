// Package lexicon holds the bias-marker vocabulary shared by the bias and
// credibility scorers.
package lexicon

import (
	"strings"
	"unicode"
)

var defaultWords = []string{
	"shocking", "unbelievable", "scandal", "outrageous", "disgraceful",
	"corrupt", "disaster", "catastrophic", "horrifying", "devastating",
	"radical", "extremist", "propaganda", "lies", "liar", "evil",
	"traitor", "treason", "hoax", "rigged", "destroy", "destroyed",
	"slams", "blasts", "chaos", "furious", "explosive", "bombshell",
	"stunning", "terrifying", "insane", "ridiculous", "pathetic",
	"shameful", "betrayal", "conspiracy", "brainwashed", "regime",
	"disgusting", "outrage",
}

// Vocabulary is an immutable set of normalised marker words.
type Vocabulary struct {
	words map[string]struct{}
	order []string
}

// Default returns the built-in vocabulary.
func Default() *Vocabulary {
	return New(defaultWords)
}

// New normalises words and drops duplicates and empties.
func New(words []string) *Vocabulary {
	v := &Vocabulary{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		n := Normalize(w)
		if n == "" {
			continue
		}
		if _, ok := v.words[n]; ok {
			continue
		}
		v.words[n] = struct{}{}
		v.order = append(v.order, n)
	}
	return v
}

// Contains expects an already normalised token.
func (v *Vocabulary) Contains(token string) bool {
	if v == nil {
		return false
	}
	_, ok := v.words[token]
	return ok
}

// Words returns a copy in insertion order.
func (v *Vocabulary) Words() []string {
	if v == nil {
		return nil
	}
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}

// Len is the number of distinct words.
func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.order)
}

// Normalize strips non-word characters and lower-cases the token.
func Normalize(token string) string {
	var b strings.Builder
	b.Grow(len(token))
	for _, r := range token {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Count returns how many whitespace-delimited tokens of text are in the vocabulary.
func (v *Vocabulary) Count(text string) int {
	n := 0
	for _, tok := range strings.Fields(text) {
		if v.Contains(Normalize(tok)) {
			n++
		}
	}
	return n
}
