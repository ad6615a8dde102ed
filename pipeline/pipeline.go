// Package pipeline orchestrates the full detection run: decode a capture
// file, extract DNS queries, run the statistical filter, enrich flagged
// domains with the string/set/semantic analyzers and (optionally) the web
// collaborator, score each domain, and assemble the JSON report. Grounded on
// original_source/pipeline.py's run_pcap_pipeline function -- the same
// component sequence, the same threshold-override and enable_web_checks
// plumbing, and the same report assembly (extractor stats + filter stats +
// per-domain assessments merged into one report value).
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/activecm/tunnelhunter/analyzer"
	"github.com/activecm/tunnelhunter/capture"
	"github.com/activecm/tunnelhunter/config"
	"github.com/activecm/tunnelhunter/extractor"
	"github.com/activecm/tunnelhunter/intelligence"
	"github.com/activecm/tunnelhunter/logger"
	"github.com/activecm/tunnelhunter/model"
	"github.com/activecm/tunnelhunter/statfilter"
	"github.com/activecm/tunnelhunter/webprofile"

	"github.com/spf13/afero"
)

// webCollaboratorTimeout is the mandated bounded per-call timeout for the
// external web collaborator (spec §5 default).
const webCollaboratorTimeout = 10 * time.Second

// Report is the JSON-serializable shape persisted at the end of a run.
type Report struct {
	TotalDomainsAnalyzed int                       `json:"total_domains_analyzed"`
	LegitimacyBreakdown  map[string]int            `json:"legitimacy_breakdown"`
	HighRiskDomains      []string                  `json:"high_risk_domains"`
	Recommendations      []string                  `json:"recommendations"`
	ExtractorStats       extractor.Counters        `json:"extractor_stats"`
	FilterStats          statfilter.Stats          `json:"filter_stats"`
	Assessments          map[string]AssessmentJSON `json:"assessments"`
}

// AssessmentJSON is model.Assessment's wire shape: an ISO-8601 timestamp and
// a flattened evidence/analysis view suitable for json.Marshal.
type AssessmentJSON struct {
	Domain          string  `json:"domain"`
	Timestamp       string  `json:"timestamp"`
	LegitimacyLevel string  `json:"legitimacy_level"`
	LegitimacyScore float64 `json:"legitimacy_score"`
	Confidence      float64 `json:"confidence"`
	Recommendation  string  `json:"recommendation"`

	PositiveIndicators []string `json:"positive_indicators"`
	NegativeIndicators []string `json:"negative_indicators"`
	RiskFactors        []string `json:"risk_factors"`

	StatisticalFlags []string `json:"statistical_flags"`
	StringPatterns   []string `json:"string_patterns"`
	SetAnalysis      []string `json:"set_analysis"`
	SemanticAnalysis []string `json:"semantic_analysis"`
}

func toAssessmentJSON(a model.Assessment) AssessmentJSON {
	return AssessmentJSON{
		Domain:             a.Domain,
		Timestamp:          a.Timestamp.UTC().Format(time.RFC3339),
		LegitimacyLevel:    string(a.LegitimacyLevel),
		LegitimacyScore:    a.LegitimacyScore,
		Confidence:         a.Confidence,
		Recommendation:     string(a.Recommendation),
		PositiveIndicators: a.Evidence.PositiveIndicators,
		NegativeIndicators: a.Evidence.NegativeIndicators,
		RiskFactors:        a.Evidence.RiskFactors,
		StatisticalFlags:   a.AnalysisData.StatisticalFlags,
		StringPatterns:     a.AnalysisData.StringPatterns,
		SetAnalysis:        a.AnalysisData.SetAnalysis,
		SemanticAnalysis:   a.AnalysisData.SemanticAnalysis,
	}
}

// Orchestrator runs one end-to-end analysis of a capture file.
type Orchestrator struct {
	cfg          config.Config
	collaborator webprofile.Collaborator
}

// New builds an Orchestrator from cfg. When cfg.Pipeline.EnableWebChecks is
// false the orchestrator uses webprofile.NoopCollaborator and never talks to
// the network; otherwise collaborator is wrapped with the mandated timeout
// and a conservative rate limit before use.
func New(cfg config.Config, collaborator webprofile.Collaborator) *Orchestrator {
	if !cfg.Pipeline.EnableWebChecks || collaborator == nil {
		collaborator = webprofile.NoopCollaborator{}
	} else {
		collaborator = webprofile.WithRateLimit(collaborator, rate.NewLimiter(5, 5))
		collaborator = webprofile.WithTimeout(collaborator, webCollaboratorTimeout)
	}
	return &Orchestrator{cfg: cfg, collaborator: collaborator}
}

// Run decodes the capture file at path, runs the full analysis pipeline, and
// returns the assembled Report.
func (o *Orchestrator) Run(ctx context.Context, afs afero.Fs, path string) (Report, error) {
	zlog := logger.GetLogger()

	reader, err := capture.Open(afs, path)
	if err != nil {
		return Report{}, fmt.Errorf("pipeline: opening capture file: %w", err)
	}
	defer reader.Close()

	ext := extractor.New()
	var queries []model.DNSQuery
	for {
		frame, ok := reader.Next()
		if !ok {
			break
		}
		queries = append(queries, ext.Extract(frame)...)
	}
	zlog.Info().Int("queries", len(queries)).Msg("extracted DNS queries")

	filter := statfilter.New(o.cfg.StatisticalThresholds)
	for _, q := range queries {
		filter.AddQuery(q)
	}
	suspicious := filter.Analyze()
	zlog.Info().Int("suspicious_domains", len(suspicious)).Msg("statistical filter flagged domains")

	stringAnalyzer := analyzer.NewStringAnalyzer(o.cfg.StatisticalThresholds.MaxEditDistance)
	setAnalyzer := analyzer.NewSetAnalyzer(o.cfg.StatisticalThresholds.MaxEditDistance)
	semanticAnalyzer := analyzer.NewSemanticAnalyzer()

	domains := make([]string, 0, len(suspicious))
	byDomain := make(map[string]*model.SuspiciousDomain, len(suspicious))
	for _, sd := range suspicious {
		stringAnalyzer.Analyze(sd)
		setAnalyzer.Analyze(sd)
		semanticAnalyzer.Analyze(sd)

		domains = append(domains, sd.BaseDomain)
		byDomain[sd.BaseDomain] = sd
	}
	sort.Strings(domains)

	var profiles map[string]webprofile.Profile
	if o.cfg.Pipeline.EnableWebChecks {
		profiles = o.collectWebProfiles(ctx, domains)
	}

	inputs := make(map[string]model.AnalysisInput, len(domains))
	for _, domain := range domains {
		sd := byDomain[domain]
		in := model.AnalysisInput{
			BaseDomain:       domain,
			StatisticalFlags: sd.Flags(model.FlagStatistical),
			StringPatterns:   sd.Flags(model.FlagString),
			SetAnalysis:      sd.Flags(model.FlagSet),
			SemanticAnalysis: sd.Flags(model.FlagSemantic),
		}
		if profile, ok := profiles[domain]; ok {
			in.WebCrawlResults = &profile
		}
		inputs[domain] = in
	}

	engine := intelligence.New()
	assessments := engine.AnalyzeAll(domains, inputs, time.Now())
	engineReport := engine.GenerateReport()

	breakdown := make(map[string]int, len(engineReport.LegitimacyBreakdown))
	for level, count := range engineReport.LegitimacyBreakdown {
		breakdown[string(level)] = count
	}

	assessmentsJSON := make(map[string]AssessmentJSON, len(assessments))
	for _, a := range assessments {
		assessmentsJSON[a.Domain] = toAssessmentJSON(a)
	}

	return Report{
		TotalDomainsAnalyzed: engineReport.TotalDomainsAnalyzed,
		LegitimacyBreakdown:  breakdown,
		HighRiskDomains:      engineReport.HighRiskDomains,
		Recommendations:      engineReport.Recommendations,
		ExtractorStats:       ext.Counters,
		FilterStats:          filter.Statistics(),
		Assessments:          assessmentsJSON,
	}, nil
}

// collectWebProfiles gathers a webprofile.Profile per domain, bounded by
// MaxDomainsForWebChecks and run with bounded parallelism (spec §5: per-
// domain enrichment is embarrassingly parallel, no two workers touch the
// same domain). Uses golang.org/x/sync/errgroup, the same concurrency
// primitive the teacher's analysis package relies on for worker fan-out.
func (o *Orchestrator) collectWebProfiles(ctx context.Context, domains []string) map[string]webprofile.Profile {
	limit := o.cfg.Pipeline.MaxDomainsForWebChecks
	targets := domains
	if limit > 0 && len(targets) > limit {
		targets = targets[:limit]
	}
	if len(targets) == 0 {
		return nil
	}

	results := make(map[string]webprofile.Profile, len(targets))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, domain := range targets {
		domain := domain
		g.Go(func() error {
			profile := webprofile.Collect(gctx, o.collaborator, domain)
			mu.Lock()
			results[domain] = profile
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}
