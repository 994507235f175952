// Package metrics scores generated facts against reference captions.
package metrics

import (
	"strings"
	"unicode"
)

// Similarity returns the token-level F1 overlap between two texts, in [0, 1].
// Case and punctuation are ignored.
func Similarity(generated, reference string) float64 {
	genTokens := tokenize(generated)
	refTokens := tokenize(reference)

	if len(genTokens) == 0 && len(refTokens) == 0 {
		return 1.0
	}
	if len(genTokens) == 0 || len(refTokens) == 0 {
		return 0.0
	}

	refCounts := make(map[string]int, len(refTokens))
	for _, tok := range refTokens {
		refCounts[tok]++
	}

	overlap := 0
	for _, tok := range genTokens {
		if refCounts[tok] > 0 {
			refCounts[tok]--
			overlap++
		}
	}

	if overlap == 0 {
		return 0.0
	}

	precision := float64(overlap) / float64(len(genTokens))
	recall := float64(overlap) / float64(len(refTokens))
	return 2 * precision * recall / (precision + recall)
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// Summary aggregates per-item similarity scores.
type Summary struct {
	Count          int     `yaml:"count"`
	Failed         int     `yaml:"failed"`
	MeanSimilarity float64 `yaml:"meansimilarity"`
	MinSimilarity  float64 `yaml:"minsimilarity"`
	MaxSimilarity  float64 `yaml:"maxsimilarity"`
}

// Aggregate computes summary statistics over the scored items. Failed items
// (no generated text) are counted separately and excluded from the mean.
func Aggregate(scores []float64, failed int) Summary {
	summary := Summary{
		Count:  len(scores) + failed,
		Failed: failed,
	}

	if len(scores) == 0 {
		return summary
	}

	summary.MinSimilarity = scores[0]
	summary.MaxSimilarity = scores[0]

	total := 0.0
	for _, score := range scores {
		total += score
		if score < summary.MinSimilarity {
			summary.MinSimilarity = score
		}
		if score > summary.MaxSimilarity {
			summary.MaxSimilarity = score
		}
	}
	summary.MeanSimilarity = total / float64(len(scores))

	return summary
}
