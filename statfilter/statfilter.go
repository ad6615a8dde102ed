// Package statfilter maintains a per-base-domain running aggregate of
// observed DNS queries and flags candidates whose behavior crosses one or
// more configurable thresholds, emitting a model.SuspiciousDomain per
// flagged domain. Filter is process-scoped: one instance's lifetime equals
// one pipeline invocation, the way analysis.Analyzer holds mutable
// aggregation state across a single run in the teacher.
package statfilter

import (
	"fmt"
	"sort"
	"time"

	mstats "github.com/montanaflynn/stats"

	"github.com/activecm/tunnelhunter/config"
	"github.com/activecm/tunnelhunter/entropy"
	"github.com/activecm/tunnelhunter/model"
)

// domainStats is the running, pre-flag aggregate for one base domain.
type domainStats struct {
	queries          []model.DNSQuery
	uniqueSubdomains map[string]struct{}
	sourceIPs        map[string]struct{}
	queryTypeCounts  map[string]int
	firstSeen        time.Time
	lastSeen         time.Time
}

// Filter accumulates per-base-domain statistics across every AddQuery call
// and flags candidates via Analyze. Thresholds come from config so callers
// can tune detection without recompiling.
type Filter struct {
	thresholds config.StatisticalThresholds

	stats      map[string]*domainStats
	suspicious map[string]*model.SuspiciousDomain
}

// New returns an empty Filter using the given thresholds.
func New(thresholds config.StatisticalThresholds) *Filter {
	return &Filter{
		thresholds: thresholds,
		stats:      make(map[string]*domainStats),
		suspicious: make(map[string]*model.SuspiciousDomain),
	}
}

// AddQuery updates the running aggregate for q.BaseDomain. It does not, by
// itself, decide whether the domain is suspicious -- call Analyze after a
// batch to evaluate indicators.
func (f *Filter) AddQuery(q model.DNSQuery) {
	stats, ok := f.stats[q.BaseDomain]
	if !ok {
		stats = &domainStats{
			uniqueSubdomains: make(map[string]struct{}),
			sourceIPs:        make(map[string]struct{}),
			queryTypeCounts:  make(map[string]int),
		}
		f.stats[q.BaseDomain] = stats
	}

	stats.queries = append(stats.queries, q)
	if q.Subdomain != "" {
		stats.uniqueSubdomains[q.Subdomain] = struct{}{}
	}
	if q.SourceIP != "" {
		stats.sourceIPs[q.SourceIP] = struct{}{}
	}
	stats.queryTypeCounts[q.QueryType]++

	if len(stats.queries) == 1 || q.Timestamp.Before(stats.firstSeen) {
		stats.firstSeen = q.Timestamp
	}
	if len(stats.queries) == 1 || q.Timestamp.After(stats.lastSeen) {
		stats.lastSeen = q.Timestamp
	}
}

// Analyze evaluates every base domain with at least two queries that has
// not already been flagged, returning the newly-flagged SuspiciousDomains
// in a deterministic order (sorted by base domain, for reproducible
// reports; insertion order into the aggregate does not matter for
// correctness since data flow is a single batch per spec §4.9).
func (f *Filter) Analyze() []*model.SuspiciousDomain {
	var newlyFlagged []*model.SuspiciousDomain

	domains := make([]string, 0, len(f.stats))
	for d := range f.stats {
		domains = append(domains, d)
	}
	sortStrings(domains)

	for _, baseDomain := range domains {
		if _, already := f.suspicious[baseDomain]; already {
			continue
		}

		stats := f.stats[baseDomain]
		if len(stats.queries) < 2 {
			continue
		}

		flags := f.checkIndicators(stats)
		if len(flags) == 0 {
			continue
		}

		sd := model.NewSuspiciousDomain(baseDomain)
		for _, q := range stats.queries {
			_ = sd.AddQuery(q)
		}
		for _, flag := range flags {
			sd.AddFlag(model.FlagStatistical, flag)
		}

		f.suspicious[baseDomain] = sd
		newlyFlagged = append(newlyFlagged, sd)
	}

	return newlyFlagged
}

// checkIndicators computes every indicator in spec §4.4's table against
// stats, returning the contract-visible flag strings for any that trip.
func (f *Filter) checkIndicators(stats *domainStats) []string {
	var flags []string

	totalQueries := len(stats.queries)
	windowMinutes := stats.lastSeen.Sub(stats.firstSeen).Seconds() / 60

	// 1. High frequency. The rate itself is still queries over the
	// observed window, but we additionally characterize *how regular*
	// that rate is via the stdev of inter-arrival gaps: a low stdev
	// relative to the mean gap (tight, clock-like spacing) is the
	// signature tunneling clients leave and plain bursty human traffic
	// does not.
	if windowMinutes > 0 {
		qpm := float64(totalQueries) / windowMinutes
		if qpm > f.thresholds.FrequencyPerMinute {
			flag := fmt.Sprintf("high_frequency_%.1f_per_min", qpm)
			if gapStdev, gapMean, ok := interArrivalGapStats(stats.queries); ok && gapMean > 0 {
				flag = fmt.Sprintf("%s_gap_stdev_%.2fs", flag, gapStdev)
			}
			flags = append(flags, flag)
		}
	}

	// 2. Long subdomain (first match only)
	for subdomain := range stats.uniqueSubdomains {
		if len(subdomain) > f.thresholds.MaxSubdomainLength {
			flags = append(flags, fmt.Sprintf("long_subdomain_%d_chars", len(subdomain)))
			break
		}
	}

	// 3. High entropy
	if len(stats.uniqueSubdomains) > 0 {
		highEntropyCount := 0
		for subdomain := range stats.uniqueSubdomains {
			if entropy.Shannon(subdomain) > f.thresholds.HighEntropyThreshold {
				highEntropyCount++
			}
		}
		if highEntropyCount > 0 {
			ratio := float64(highEntropyCount) / float64(len(stats.uniqueSubdomains))
			flags = append(flags, fmt.Sprintf("high_entropy_%d_subdomains_%.2f_ratio", highEntropyCount, ratio))
		}
	}

	// 4. Single-use subdomains
	subdomainCounts := make(map[string]int)
	for _, q := range stats.queries {
		if q.Subdomain != "" {
			subdomainCounts[q.Subdomain]++
		}
	}
	singleUseCount := 0
	for _, c := range subdomainCounts {
		if c == 1 {
			singleUseCount++
		}
	}
	if singleUseCount > 5 {
		ratio := float64(singleUseCount) / float64(len(subdomainCounts))
		flags = append(flags, fmt.Sprintf("single_use_pattern_%d_domains_%.2f_ratio", singleUseCount, ratio))
	}

	if totalQueries > 10 {
		// 5. TXT-heavy
		txtRatio := float64(stats.queryTypeCounts["TXT"]) / float64(totalQueries)
		if txtRatio > 0.8 {
			flags = append(flags, fmt.Sprintf("txt_heavy_%.2f_ratio", txtRatio))
		}

		// 6. Mixed query types
		if len(stats.queryTypeCounts) > 3 {
			flags = append(flags, fmt.Sprintf("mixed_query_types_%d_types", len(stats.queryTypeCounts)))
		}
	}

	// 7. Rapid subdomain generation
	if len(stats.uniqueSubdomains) > 20 && windowMinutes > 0 {
		rate := float64(len(stats.uniqueSubdomains)) / windowMinutes
		if rate > 2 {
			flags = append(flags, fmt.Sprintf("rapid_subdomain_generation_%.1f_per_min", rate))
		}
	}

	// 8. High cardinality
	if totalQueries > 10 {
		cardinalityRatio := float64(len(stats.uniqueSubdomains)) / float64(totalQueries)
		if cardinalityRatio > 0.8 {
			flags = append(flags, fmt.Sprintf("high_cardinality_%.2f_ratio", cardinalityRatio))
		}
	}

	return flags
}

// Stats is the filter-level summary surfaced in the final report's
// filter_stats field.
type Stats struct {
	TotalQueriesProcessed  int
	UniqueDomainsSeen      int
	SuspiciousDomainsCount int
}

// Statistics returns the current filter-level summary.
func (f *Filter) Statistics() Stats {
	total := 0
	for _, s := range f.stats {
		total += len(s.queries)
	}
	return Stats{
		TotalQueriesProcessed:  total,
		UniqueDomainsSeen:      len(f.stats),
		SuspiciousDomainsCount: len(f.suspicious),
	}
}

// TrimOlderThan removes every tracked base domain (raw stats and any
// flagged SuspiciousDomain) whose LastSeen precedes cutoff.
func (f *Filter) TrimOlderThan(cutoff time.Time) {
	for domain, stats := range f.stats {
		if stats.lastSeen.Before(cutoff) {
			delete(f.stats, domain)
			delete(f.suspicious, domain)
		}
	}
}

// interArrivalGapStats returns the standard deviation and mean, in seconds,
// of the gaps between consecutive queries sorted by timestamp. ok is false
// when fewer than two gaps exist (i.e. fewer than three queries) or the
// underlying stats call errors on an empty slice.
func interArrivalGapStats(queries []model.DNSQuery) (stdev, mean float64, ok bool) {
	if len(queries) < 3 {
		return 0, 0, false
	}

	sorted := make([]model.DNSQuery, len(queries))
	copy(sorted, queries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	gaps := make(mstats.Float64Data, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, sorted[i].Timestamp.Sub(sorted[i-1].Timestamp).Seconds())
	}

	m, err := gaps.Mean()
	if err != nil {
		return 0, 0, false
	}
	s, err := gaps.StandardDeviation()
	if err != nil {
		return 0, 0, false
	}
	return s, m, true
}

// sortStrings sorts ss in place, ascending, with a tiny local insertion sort
// over what is at most a few hundred base domains per run; kept separate so
// callers reading checkIndicators aren't distracted by it.
func sortStrings(ss []string) {
	for i := 1; i < len(ss); i++ {
		for j := i; j > 0 && ss[j-1] > ss[j]; j-- {
			ss[j-1], ss[j] = ss[j], ss[j-1]
		}
	}
}
