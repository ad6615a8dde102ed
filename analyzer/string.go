// Package analyzer runs the three enrichment passes -- string, set, and
// semantic -- over a SuspiciousDomain, each appending flags and a signed
// score to the aggregate. They run in sequence per the orchestrator's
// contract (string, then set, then semantic) but are independent of one
// another and may run concurrently across distinct domains.
package analyzer

import (
	"fmt"
	"strings"

	"github.com/activecm/tunnelhunter/entropy"
	"github.com/activecm/tunnelhunter/model"
)

// StringAnalyzer inspects the subdomain set for shared patterns, templated
// generation, and encoding-shaped strings.
type StringAnalyzer struct {
	MaxEditDistance int
}

// NewStringAnalyzer returns a StringAnalyzer using maxEditDistance as the
// sequential-pair cutoff (spec default 2).
func NewStringAnalyzer(maxEditDistance int) *StringAnalyzer {
	return &StringAnalyzer{MaxEditDistance: maxEditDistance}
}

// Analyze appends FlagString entries and a "string" score to item, then
// returns item for chaining.
func (a *StringAnalyzer) Analyze(item *model.SuspiciousDomain) *model.SuspiciousDomain {
	domains := item.SubdomainList()
	if len(domains) == 0 {
		domains = item.UniqueSubdomainList()
	}
	candidates := append(append([]string{}, domains...), item.BaseDomain)

	if common := entropy.LongestCommonSubstring(candidates); common != "" {
		item.AddFlag(model.FlagString, fmt.Sprintf("common_substring:%s", common))
	}

	maxLen := 0
	for _, d := range candidates {
		if len(d) > maxLen {
			maxLen = len(d)
		}
	}
	if maxLen > 30 {
		item.AddFlag(model.FlagString, "long_label_distribution")
	}

	seqPairs := 0
	for i := 0; i < len(domains); i++ {
		for j := i + 1; j < len(domains); j++ {
			if entropy.Levenshtein(domains[i], domains[j]) <= a.MaxEditDistance {
				seqPairs++
			}
		}
	}
	if seqPairs >= 3 {
		item.AddFlag(model.FlagString, fmt.Sprintf("sequential_generation_pairs:%d", seqPairs))
	}

	encodingHits := 0
	for _, s := range candidates {
		encodingHits += entropy.DetectEncodingShape(s).Count()
	}
	if encodingHits >= 3 {
		item.AddFlag(model.FlagString, "encoding_like_patterns")
	}

	if ratio := entropy.CompressionRatio(strings.Join(candidates, "")); ratio < 0.7 {
		item.AddFlag(model.FlagString, fmt.Sprintf("compressible_pattern:%.2f", ratio))
	}

	var score float64
	for _, flag := range item.Flags(model.FlagString) {
		if flag == "encoding_like_patterns" {
			score -= 10
			break
		}
	}
	if seqPairs >= 3 {
		score -= 5
	}
	item.Scores["string"] = score

	return item
}
