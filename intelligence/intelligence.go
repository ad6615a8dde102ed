// Package intelligence is the scoring engine -- the component every other
// analyzer's output eventually flows into. Score combines a SuspiciousDomain's
// statistical/string/set/semantic flags with optional web-enrichment data and
// produces a model.Assessment: a legitimacy level, a clamped 0-100 score, a
// confidence value, and a recommendation. It is grounded on
// original_source/filters/intelligence.py's Intelligence class shape
// (analyze_domain/bulk_analyze/get_high_risk_domains/generate_report),
// fully implementing the scoring algorithm the source left as a TODO stub.
package intelligence

import (
	"fmt"
	"strings"
	"time"

	"github.com/activecm/tunnelhunter/model"
)

const baseScore = 50.0

func containsSubstring(flags []string, substr string) bool {
	for _, flag := range flags {
		if strings.Contains(flag, substr) {
			return true
		}
	}
	return false
}

func anyTrue(m map[string]bool) bool {
	for _, v := range m {
		if v {
			return true
		}
	}
	return false
}

// facetCount returns how many of AnalysisInput's six optional facets were
// supplied by the caller -- a facet counts as supplied when its field is
// non-nil, independent of whether the underlying slice/map/struct is itself
// empty. This is what makes an explicitly-passed empty statistical-flags
// slice count while an omitted (nil) string-analyzer result does not; see
// DESIGN.md's resolution of the confidence worked example.
func facetCount(in model.AnalysisInput) int {
	n := 0
	if in.StatisticalFlags != nil {
		n++
	}
	if in.StringPatterns != nil {
		n++
	}
	if in.SetAnalysis != nil {
		n++
	}
	if in.SemanticAnalysis != nil {
		n++
	}
	if in.WebCrawlResults != nil {
		n++
	}
	if in.WebsiteHistory != nil {
		n++
	}
	return n
}

// Engine is the scoring engine. It holds no mutable state of its own for
// Score, which is a pure function of its inputs; AnalyzeAll additionally
// tracks the assessments it has produced so GenerateReport and
// HighRiskDomains can summarize a full run, mirroring the source's
// Intelligence instance holding final_assessments across
// bulk_analyze/generate_report calls.
type Engine struct {
	assessments []model.Assessment
}

// New returns an empty Engine.
func New() *Engine {
	return &Engine{}
}

// Score evaluates domain's AnalysisInput as of now and returns its
// Assessment. It does not mutate Engine state -- use AnalyzeAll to also
// retain the result for later reporting.
func Score(domain string, in model.AnalysisInput, now time.Time) model.Assessment {
	var positives, negatives, risks []string
	score := baseScore

	profile := in.WebCrawlResults

	add := func(delta float64, label string, positive bool) {
		score += delta
		if positive {
			positives = append(positives, label)
		} else {
			negatives = append(negatives, label)
		}
	}

	if profile != nil {
		if profile.AgeDays > 365 {
			add(15, "domain_age>1y", true)
		}
		if profile.ValidSSL {
			add(10, "valid_ssl", true)
		}
		if profile.ContentLength > 500 {
			add(15, "active_site_content", true)
		}
		if anyTrue(profile.SocialPresence) {
			add(10, "social_presence", true)
		}
	}

	// normal_dns_patterns is withheld only by a major statistical flag: one
	// containing high_frequency, high_entropy, single_use, txt_heavy,
	// rapid_subdomain, or high_cardinality. Other statistical flags, such as
	// mixed_query_types_4_types, leave the bonus in place.
	majorStatFlag := false
	for _, marker := range []string{"high_frequency", "high_entropy", "single_use", "txt_heavy", "rapid_subdomain", "high_cardinality"} {
		if containsSubstring(in.StatisticalFlags, marker) {
			majorStatFlag = true
		}
	}
	if !majorStatFlag {
		add(10, "normal_dns_patterns", true)
	}

	if profile != nil {
		if len(profile.NameServers) >= 2 {
			add(5, "established_ns", true)
		}
		if profile.ContentLength > 1000 {
			add(5, "contact_info_signals", true)
		}
	}

	if containsSubstring(in.StatisticalFlags, "high_entropy") {
		add(-20, "high_entropy_subdomains", false)
	}
	if containsSubstring(in.StatisticalFlags, "high_frequency") {
		add(-15, "excessive_query_frequency", false)
	}
	if containsSubstring(in.StatisticalFlags, "single_use_pattern") || containsSubstring(in.StatisticalFlags, "single_use_subdomains") {
		add(-15, "single_use_pattern", false)
	}

	if profile != nil {
		if !profile.HTTPAccessible && !profile.HTTPSAccessible {
			add(-10, "no_web_presence", false)
		}
		if profile.AgeDays > 0 && profile.AgeDays < 90 {
			add(-10, "recent_registration", false)
		}
		if profile.PrivacyProtected {
			add(-5, "privacy_protected", false)
		}
	}

	if containsSubstring(in.StatisticalFlags, "txt_heavy") {
		add(-10, "suspicious_query_types", false)
	}

	blacklisted := profile != nil && anyTrue(profile.Blacklist)
	if blacklisted {
		add(-30, "blacklisted", false)
	}

	var risksList []string
	risksList = append(risksList, in.StringPatterns...)
	risksList = append(risksList, in.SetAnalysis...)
	risksList = append(risksList, in.SemanticAnalysis...)
	risks = risksList

	score = clamp(score, 0, 100)

	hardOverride := blacklisted || (containsSubstring(in.StatisticalFlags, "txt_heavy") && containsSubstring(in.StatisticalFlags, "high_entropy"))

	var level model.LegitimacyLevel
	var recommendation model.Recommendation

	switch {
	case hardOverride:
		level = model.ConfirmedFake
		recommendation = model.Block
	case score >= 75:
		level = model.Legitimate
		recommendation = model.Allow
	case score >= 60:
		level = model.Suspicious
		recommendation = model.Monitor
	case score >= 40:
		level = model.LikelyFake
		recommendation = model.Investigate
	default:
		level = model.ConfirmedFake
		recommendation = model.Block
	}

	confidence := clamp(0.2+0.15*float64(facetCount(in)), 0, 1.0)

	return model.Assessment{
		Domain:          domain,
		Timestamp:       now,
		LegitimacyLevel: level,
		LegitimacyScore: score,
		Confidence:      confidence,
		Evidence: model.Evidence{
			PositiveIndicators: positives,
			NegativeIndicators: negatives,
			RiskFactors:        risks,
		},
		Recommendation: recommendation,
		AnalysisData:   in,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AnalyzeAll scores every domain in domains (in the given order, which
// bulk_analyze's determinism contract requires callers to fix themselves --
// this package does not impose an ordering of its own), retaining the
// results for later GenerateReport/HighRiskDomains calls.
func (e *Engine) AnalyzeAll(domains []string, inputs map[string]model.AnalysisInput, now time.Time) []model.Assessment {
	var out []model.Assessment
	for _, domain := range domains {
		in := inputs[domain]
		assessment := Score(domain, in, now)
		out = append(out, assessment)
		e.assessments = append(e.assessments, assessment)
	}
	return out
}

// HighRiskDomains returns the domains among e's retained assessments
// classified LikelyFake or ConfirmedFake.
func (e *Engine) HighRiskDomains() []string {
	var out []string
	for _, a := range e.assessments {
		if a.LegitimacyLevel == model.LikelyFake || a.LegitimacyLevel == model.ConfirmedFake {
			out = append(out, a.Domain)
		}
	}
	return out
}

// Report is the summary produced by GenerateReport.
type Report struct {
	TotalDomainsAnalyzed int
	LegitimacyBreakdown  map[model.LegitimacyLevel]int
	HighRiskDomains      []string
	Recommendations      []string
}

// GenerateReport summarizes every assessment e has retained.
func (e *Engine) GenerateReport() Report {
	breakdown := map[model.LegitimacyLevel]int{
		model.Legitimate:    0,
		model.Suspicious:    0,
		model.LikelyFake:    0,
		model.ConfirmedFake: 0,
		model.UnknownLevel:  0,
	}

	negativeIndicatorCounts := make(map[string]int)
	for _, a := range e.assessments {
		breakdown[a.LegitimacyLevel]++
		for _, neg := range a.Evidence.NegativeIndicators {
			negativeIndicatorCounts[neg]++
		}
	}

	return Report{
		TotalDomainsAnalyzed: len(e.assessments),
		LegitimacyBreakdown:  breakdown,
		HighRiskDomains:      e.HighRiskDomains(),
		Recommendations:      recommendationsFromCounts(negativeIndicatorCounts),
	}
}

// recommendationTriggers maps a negative-indicator label to the advice
// surfaced once at least threshold analyzed domains carry it.
var recommendationTriggers = []struct {
	indicator string
	threshold int
	advice    string
}{
	{"high_entropy_subdomains", 3, "Tighten high-entropy thresholds"},
	{"excessive_query_frequency", 3, "Review rate-limiting for high-frequency DNS clients"},
	{"single_use_pattern", 3, "Investigate single-use subdomain generation patterns"},
	{"suspicious_query_types", 3, "Audit TXT-heavy query sources for covert channels"},
	{"blacklisted", 1, "Block or quarantine blacklisted domains immediately"},
}

func recommendationsFromCounts(counts map[string]int) []string {
	var out []string
	for _, trigger := range recommendationTriggers {
		if counts[trigger.indicator] >= trigger.threshold {
			out = append(out, fmt.Sprintf("%s (%d domains)", trigger.advice, counts[trigger.indicator]))
		}
	}
	return out
}
