package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/activecm/tunnelhunter/model"
)

// suspiciousKeywords are substring-matched against each label of the base
// domain.
var suspiciousKeywords = []string{
	"login", "update", "verify", "secure", "bank", "account", "reset", "wallet",
	"support", "invoice", "payment", "auth", "signin", "pay", "gift", "bonus",
}

// commonBrands are checked against the brand-impersonation label pattern.
var commonBrands = []string{"google", "apple", "microsoft", "amazon", "facebook"}

var homoglyphPattern = regexp.MustCompile(`[il1]{3,}`)

func brandImpersonationPattern(brand string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`^%s[-_][a-z0-9]+`, brand))
}

// SemanticAnalyzer flags keyword, homoglyph, and brand-impersonation
// patterns in the base domain string.
type SemanticAnalyzer struct{}

// NewSemanticAnalyzer returns a SemanticAnalyzer.
func NewSemanticAnalyzer() *SemanticAnalyzer {
	return &SemanticAnalyzer{}
}

// Analyze appends FlagSemantic entries and a "semantic" score to item, then
// returns item for chaining.
func (a *SemanticAnalyzer) Analyze(item *model.SuspiciousDomain) *model.SuspiciousDomain {
	domain := strings.ToLower(item.BaseDomain)
	var labels []string
	for _, label := range strings.Split(domain, ".") {
		if label != "" {
			labels = append(labels, label)
		}
	}

	for _, word := range suspiciousKeywords {
		for _, label := range labels {
			if strings.Contains(label, word) {
				item.AddFlag(model.FlagSemantic, fmt.Sprintf("keyword:%s", word))
			}
		}
	}

	if homoglyphPattern.MatchString(domain) {
		item.AddFlag(model.FlagSemantic, "homoglyph_like_sequence")
	}

	for _, label := range labels {
		for _, brand := range commonBrands {
			if brandImpersonationPattern(brand).MatchString(label) {
				item.AddFlag(model.FlagSemantic, fmt.Sprintf("brand_impersonation:%s", brand))
			}
		}
	}

	var score float64
	hasKeyword := false
	hasBrand := false
	for _, flag := range item.Flags(model.FlagSemantic) {
		if strings.HasPrefix(flag, "keyword:") {
			hasKeyword = true
		}
		if strings.HasPrefix(flag, "brand_impersonation:") {
			hasBrand = true
		}
	}
	if hasKeyword {
		score -= 5
	}
	if hasBrand {
		score -= 15
	}
	item.Scores["semantic"] = score

	return item
}
