// Package model holds the data types shared across the detection pipeline:
// the per-question DNSQuery, the per-base-domain SuspiciousDomain
// aggregate, and the final Assessment. These are plain structs passed
// between packages (capture -> extractor -> statfilter -> analyzer ->
// intelligence); none of them know how to produce themselves from the wire,
// only how to hold and, for SuspiciousDomain, accumulate state.
package model

import (
	"strings"
	"time"
)

// DNSQuery is one observed DNS question. It is immutable after construction:
// Domain, Timestamp, SourceIP, DestinationIP, QueryType, and ResponseCode are
// set once by NewDNSQuery and never mutated. Subdomain, BaseDomain, and TLD
// are derived, pure functions of Domain computed at construction time.
type DNSQuery struct {
	Domain          string
	Timestamp       time.Time
	SourceIP        string
	DestinationIP   string // empty when not observed
	QueryType       string
	ResponseCode    *uint16

	Subdomain  string
	BaseDomain string
	TLD        string
}

// NewDNSQuery normalizes domain (lower-cased, trailing dot present) and
// derives Subdomain/BaseDomain/TLD from it. domain must contain at least one
// dot once the trailing dot is stripped — callers (the extractor) are
// responsible for filtering single-label names before calling this, since
// every produced DNSQuery must have a BaseDomain of at least two labels.
func NewDNSQuery(domain string, ts time.Time, sourceIP, destinationIP, queryType string, responseCode *uint16) DNSQuery {
	normalized := normalizeDomain(domain)
	subdomain, base, tld := splitDomain(normalized)

	return DNSQuery{
		Domain:        normalized,
		Timestamp:     ts,
		SourceIP:      sourceIP,
		DestinationIP: destinationIP,
		QueryType:     queryType,
		ResponseCode:  responseCode,
		Subdomain:     subdomain,
		BaseDomain:    base,
		TLD:           tld,
	}
}

// normalizeDomain lower-cases the domain and ensures exactly one trailing dot.
func normalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimSuffix(d, ".")
	return d + "."
}

// splitDomain derives subdomain, base domain, and TLD from a normalized
// (trailing-dot) domain. base is the last two dot-separated labels (no
// trailing dot); subdomain is every label above that; tld is the final
// label.
func splitDomain(normalized string) (subdomain, base, tld string) {
	trimmed := strings.TrimSuffix(normalized, ".")
	labels := strings.Split(trimmed, ".")

	if len(labels) == 0 {
		return "", "", ""
	}
	tld = labels[len(labels)-1]

	if len(labels) < 2 {
		return "", trimmed, tld
	}

	base = strings.Join(labels[len(labels)-2:], ".")
	if len(labels) > 2 {
		subdomain = strings.Join(labels[:len(labels)-2], ".")
	}
	return subdomain, base, tld
}

// HasBaseDomain reports whether domain, once its trailing dot is stripped,
// carries at least two labels -- the precondition NewDNSQuery's callers must
// check before constructing a query, per the BaseDomain invariant.
func HasBaseDomain(domain string) bool {
	trimmed := strings.TrimSuffix(strings.TrimSpace(domain), ".")
	return strings.Contains(trimmed, ".")
}
