package textutil

import (
	"math"
	"regexp"
)

var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Fingerprint is a term-frequency vector of folded tokens.
type Fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// NewFingerprint returns nil when text yields no tokens.
func NewFingerprint(text string) *Fingerprint {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &Fingerprint{tokens: counts, norm: math.Sqrt(norm)}
}

// Tokenize folds text and splits it on anything that is not a letter or digit.
func Tokenize(text string) []string {
	raw := tokenSplitPattern.Split(Fold(text), -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		if token != "" {
			terms = append(terms, token)
		}
	}
	return terms
}

// CosineSimilarity returns a value in [0, 1]; nil fingerprints score 0.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	small, large := a, b
	if len(small.tokens) > len(large.tokens) {
		small, large = large, small
	}
	var dot float64
	for token, weight := range small.tokens {
		dot += weight * large.tokens[token]
	}
	return dot / (a.norm * b.norm)
}

// BestMatch returns the index of the candidate most similar to query and its
// score, or -1 when nothing scores at least min.
func BestMatch(query string, candidates []string, min float64) (int, float64) {
	q := NewFingerprint(query)
	best, bestScore := -1, 0.0
	for i, c := range candidates {
		score := CosineSimilarity(q, NewFingerprint(c))
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore < min {
		return -1, bestScore
	}
	return best, bestScore
}
