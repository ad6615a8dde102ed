package model

import (
	"errors"
	"time"
)

// FlagCategory names one of the four analyzer families that can attach
// evidence to a SuspiciousDomain.
type FlagCategory string

const (
	FlagStatistical FlagCategory = "statistical"
	FlagString      FlagCategory = "string"
	FlagSet         FlagCategory = "set"
	FlagSemantic    FlagCategory = "semantic"
)

// ErrBaseDomainMismatch is returned by AddQuery when a query's BaseDomain
// does not match the aggregate it is being added to.
var ErrBaseDomainMismatch = errors.New("query base domain does not match suspicious domain aggregate")

// SuspiciousDomain is the per-base-domain aggregate built by the statistical
// filter and enriched in place by the string, set, and semantic analyzers.
// It is mutated only through AddQuery and AddFlag, by a single thread of
// analysis per domain (see package pipeline for the concurrency contract).
type SuspiciousDomain struct {
	BaseDomain string
	FirstSeen  time.Time
	LastSeen   time.Time

	TotalQueries     int
	UniqueSubdomains map[string]struct{}
	SourceIPs        map[string]struct{}

	Queries []DNSQuery

	flags map[FlagCategory][]string

	// Scores maps analyzer name ("statistical", "string", "set", "semantic")
	// to its signed contribution to the final legitimacy score.
	Scores map[string]float64
}

// NewSuspiciousDomain creates an empty aggregate for baseDomain. FirstSeen
// and LastSeen are set from the first call to AddQuery.
func NewSuspiciousDomain(baseDomain string) *SuspiciousDomain {
	return &SuspiciousDomain{
		BaseDomain:       baseDomain,
		UniqueSubdomains: make(map[string]struct{}),
		SourceIPs:        make(map[string]struct{}),
		flags:            make(map[FlagCategory][]string),
		Scores:           make(map[string]float64),
	}
}

// AddQuery appends a query to the aggregate, updating running time bounds,
// the unique-subdomain and source-IP sets, and TotalQueries. It returns
// ErrBaseDomainMismatch if query.BaseDomain does not equal d.BaseDomain,
// leaving the aggregate unchanged.
func (d *SuspiciousDomain) AddQuery(q DNSQuery) error {
	if q.BaseDomain != d.BaseDomain {
		return ErrBaseDomainMismatch
	}

	if d.TotalQueries == 0 || q.Timestamp.Before(d.FirstSeen) {
		d.FirstSeen = q.Timestamp
	}
	if d.TotalQueries == 0 || q.Timestamp.After(d.LastSeen) {
		d.LastSeen = q.Timestamp
	}

	d.Queries = append(d.Queries, q)
	d.TotalQueries = len(d.Queries)

	if q.Subdomain != "" {
		d.UniqueSubdomains[q.Subdomain] = struct{}{}
	}
	if q.SourceIP != "" {
		d.SourceIPs[q.SourceIP] = struct{}{}
	}

	return nil
}

// AddFlag appends flag under category, preserving insertion order. Flags are
// never removed, and duplicates are allowed (callers are expected not to
// re-run an analyzer on an already-enriched domain, but a repeat run is not
// an error -- it simply appends the same strings again). An unrecognized
// category falls back to FlagStatistical, matching the source's historical
// fallback behavior.
func (d *SuspiciousDomain) AddFlag(category FlagCategory, flag string) {
	switch category {
	case FlagStatistical, FlagString, FlagSet, FlagSemantic:
	default:
		category = FlagStatistical
	}
	d.flags[category] = append(d.flags[category], flag)
}

// Flags returns the flags recorded under category, in insertion order. The
// returned slice is a copy; mutating it does not affect the aggregate.
func (d *SuspiciousDomain) Flags(category FlagCategory) []string {
	src := d.flags[category]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// AllFlags returns every flag across all categories, statistical first then
// string, set, semantic, in insertion order within each category.
func (d *SuspiciousDomain) AllFlags() []string {
	var out []string
	for _, cat := range []FlagCategory{FlagStatistical, FlagString, FlagSet, FlagSemantic} {
		out = append(out, d.flags[cat]...)
	}
	return out
}

// SubdomainList returns the subdomains of d's queries in per-query
// (temporal) order, including repeats -- the order the string analyzer
// prefers over the unordered UniqueSubdomains set so it can see generation
// sequence. Queries with an empty subdomain are skipped.
func (d *SuspiciousDomain) SubdomainList() []string {
	out := make([]string, 0, len(d.Queries))
	for _, q := range d.Queries {
		if q.Subdomain != "" {
			out = append(out, q.Subdomain)
		}
	}
	return out
}

// UniqueSubdomainList returns UniqueSubdomains as a slice. Order is
// unspecified across calls since it is derived from a map, so callers that
// need a stable iteration order (e.g. tests) should sort the result.
func (d *SuspiciousDomain) UniqueSubdomainList() []string {
	out := make([]string, 0, len(d.UniqueSubdomains))
	for s := range d.UniqueSubdomains {
		out = append(out, s)
	}
	return out
}
