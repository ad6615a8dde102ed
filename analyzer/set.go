package analyzer

import (
	"fmt"
	"strings"

	"github.com/activecm/tunnelhunter/entropy"
	"github.com/activecm/tunnelhunter/model"
)

const (
	setMinUniqueThreshold   = 10
	nearDuplicateMinPairs   = 3
	nearDuplicateSimilarity = 0.8
)

// SetAnalyzer looks for cardinality and shape traits across a domain's
// subdomain set that are characteristic of algorithmically generated
// labels.
type SetAnalyzer struct {
	MaxEditDistance int
}

// NewSetAnalyzer returns a SetAnalyzer. Most thresholds it applies are fixed
// by spec §4.6; maxEditDistance gates the near-duplicate-subdomain check the
// same way it gates StringAnalyzer's sequential-pair check, so a pair close
// enough to be a mere typo doesn't also count as "near duplicate."
func NewSetAnalyzer(maxEditDistance int) *SetAnalyzer {
	return &SetAnalyzer{MaxEditDistance: maxEditDistance}
}

// Analyze appends FlagSet entries and a "set" score to item, then returns
// item for chaining.
func (a *SetAnalyzer) Analyze(item *model.SuspiciousDomain) *model.SuspiciousDomain {
	subdomains := item.UniqueSubdomainList()
	if len(subdomains) == 0 {
		subdomains = item.SubdomainList()
	}

	total := item.TotalQueries
	if total == 0 {
		total = len(item.Queries)
	}
	unique := len(subdomains)

	if total > 0 {
		ratio := float64(unique) / float64(total)
		if ratio > 0.8 && unique >= setMinUniqueThreshold {
			item.AddFlag(model.FlagSet, fmt.Sprintf("high_cardinality_ratio:%.2f", ratio))
		}
	}

	counts := make(map[string]int)
	for _, q := range item.Queries {
		if q.Subdomain != "" {
			counts[q.Subdomain]++
		}
	}
	if len(counts) > 0 {
		singleUse := 0
		for _, c := range counts {
			if c == 1 {
				singleUse++
			}
		}
		singleRatio := float64(singleUse) / float64(len(counts))
		if singleRatio > 0.6 && singleUse >= 5 {
			item.AddFlag(model.FlagSet, fmt.Sprintf("single_use_subdomains_ratio:%.2f", singleRatio))
		}
	}

	if len(subdomains) > 0 {
		totalLen := 0
		for _, s := range subdomains {
			totalLen += len(s)
		}
		avgLen := float64(totalLen) / float64(len(subdomains))
		if avgLen > 20 {
			item.AddFlag(model.FlagSet, fmt.Sprintf("long_labels_avg:%.1f", avgLen))
		}

		consonantHeavy := 0
		for _, s := range subdomains {
			if isConsonantHeavy(s) {
				consonantHeavy++
			}
		}
		if float64(consonantHeavy)/float64(len(subdomains)) > 0.5 {
			item.AddFlag(model.FlagSet, "consonant_heavy_labels")
		}
	}

	if nearDupes := countNearDuplicatePairs(subdomains, a.MaxEditDistance); nearDupes >= nearDuplicateMinPairs {
		item.AddFlag(model.FlagSet, fmt.Sprintf("near_duplicate_subdomains:%d", nearDupes))
	}

	var score float64
	for _, flag := range item.Flags(model.FlagSet) {
		switch {
		case strings.HasPrefix(flag, "high_cardinality"):
			score -= 10
		case strings.HasPrefix(flag, "single_use"):
			score -= 10
		case strings.HasPrefix(flag, "long_labels"):
			score -= 5
		}
	}
	item.Scores["set"] = score

	return item
}

// countNearDuplicatePairs counts unordered subdomain pairs that look like
// near-duplicates of each other -- similar enough by character overlap
// (entropy.SimilarityRatio) yet not just a typo away (entropy.Levenshtein
// above maxEditDistance) -- the signature of a generator that mutates one
// template in a handful of places per query rather than producing wholly
// independent labels (sequential_generation_pairs covers the close-typo
// case; this covers the structurally-similar-but-not-trivially-close one).
func countNearDuplicatePairs(subdomains []string, maxEditDistance int) int {
	count := 0
	for i := 0; i < len(subdomains); i++ {
		for j := i + 1; j < len(subdomains); j++ {
			if entropy.SimilarityRatio(subdomains[i], subdomains[j]) > nearDuplicateSimilarity &&
				entropy.Levenshtein(subdomains[i], subdomains[j]) > maxEditDistance {
				count++
			}
		}
	}
	return count
}

// isConsonantHeavy reports whether s's letters contain at least three
// consonants per vowel (vowels = aeiou, missing vowels counted as 1 to
// avoid division by zero, per spec §4.6). Non-letter runes are ignored;
// a string with no letters at all is not consonant-heavy.
func isConsonantHeavy(s string) bool {
	vowels := 0
	consonants := 0
	hasLetter := false

	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z':
			hasLetter = true
			if strings.ContainsRune("aeiou", r) {
				vowels++
			} else {
				consonants++
			}
		}
	}

	if !hasLetter {
		return false
	}
	if vowels == 0 {
		vowels = 1
	}
	return consonants >= 3*vowels
}
