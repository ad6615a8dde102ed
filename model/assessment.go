package model

import (
	"time"

	"github.com/activecm/tunnelhunter/webprofile"
)

// LegitimacyLevel is the final verdict bucket the intelligence engine places
// a domain into.
type LegitimacyLevel string

const (
	Legitimate    LegitimacyLevel = "LEGITIMATE"
	Suspicious    LegitimacyLevel = "SUSPICIOUS"
	LikelyFake    LegitimacyLevel = "LIKELY_FAKE"
	ConfirmedFake LegitimacyLevel = "CONFIRMED_FAKE"
	UnknownLevel  LegitimacyLevel = "UNKNOWN"
)

// Recommendation is the action the report suggests for a domain.
type Recommendation string

const (
	Allow       Recommendation = "ALLOW"
	Monitor     Recommendation = "MONITOR"
	Investigate Recommendation = "INVESTIGATE"
	Block       Recommendation = "BLOCK"
)

// Evidence groups the three ordered lists of reasoning the scorer attaches to
// an Assessment. Order within each list is insertion order, reflecting the
// order the scoring rule table was walked.
type Evidence struct {
	PositiveIndicators []string
	NegativeIndicators []string
	RiskFactors        []string
}

// Assessment is the per-domain verdict produced by the intelligence engine.
type Assessment struct {
	Domain          string
	Timestamp       time.Time
	LegitimacyLevel LegitimacyLevel
	LegitimacyScore float64
	Confidence      float64
	Evidence        Evidence
	Recommendation  Recommendation

	// AnalysisData is the input the scorer consumed to produce this verdict,
	// preserved for the report's transparency/debugging value.
	AnalysisData AnalysisInput
}

// AnalysisInput is the full record of per-analyzer evidence the intelligence
// engine reads when scoring a domain. Every field is optional except
// StatisticalFlags -- a domain has always passed through the statistical
// filter (that is how it became a SuspiciousDomain) but need not have been
// reached by every analyzer, and web enrichment may be disabled entirely.
// The scorer switches on presence/absence of each field rather than probing
// a dynamic/stringly-typed bag, per the explicit design decision to keep the
// scorer's rule table statically checkable.
type AnalysisInput struct {
	BaseDomain string

	StatisticalFlags []string
	StringPatterns   []string
	SetAnalysis      []string
	SemanticAnalysis []string

	StringScore   float64
	SetScore      float64
	SemanticScore float64

	// WebCrawlResults is nil when web enrichment was not run for this domain
	// (EnableWebChecks is false, or the domain was skipped by the enrichment
	// sampler).
	WebCrawlResults *webprofile.Profile

	// WebsiteHistory carries prior-run observations about this domain, when
	// the orchestrator has them (e.g. an earlier Assessment for the same
	// BaseDomain from a previous capture window). Nil when this is the first
	// time the domain has been seen.
	WebsiteHistory *Assessment
}
