// Package webprofile defines the external web-enrichment collaborator the
// core consumes but does not implement: HTTP reachability, TLS certificate
// inspection, WHOIS, DNS records, page metadata, blacklist, and social
// presence checks. Per spec, this is out of the detection pipeline's core
// scope -- the pipeline only ever reads a Profile by field name. A real
// collaborator (HTTP client, WHOIS resolver, TLS dialer, etc.) is expected
// to live in its own package and satisfy Collaborator; NoopCollaborator is
// the default used when web checks are disabled or in tests.
package webprofile

import (
	"context"
	"time"
)

// Profile is the full shape of what a web collaborator can report about a
// domain. Every field is best-effort: a failed sub-check leaves its fields
// at zero value and appends to Errors rather than aborting the others.
type Profile struct {
	Domain string

	// Accessibility
	HTTPAccessible  bool
	HTTPSAccessible bool
	FinalURL        string
	ResponseTime    time.Duration

	// TLS certificate
	HasSSL        bool
	ValidSSL      bool
	CertIssuer    map[string]string
	CertSubject   map[string]string
	CertValidFrom time.Time
	CertValidTo   time.Time

	// WHOIS
	Registrar        string
	CreationDate     time.Time
	ExpirationDate   time.Time
	UpdatedDate      time.Time
	NameServers      []string
	AgeDays          int
	PrivacyProtected bool

	// DNS records, keyed by record type (A, AAAA, MX, NS, TXT, CNAME)
	DNSRecords map[string][]string

	// Page metadata
	PageTitle       string
	PageDescription string
	ContentLength   int
	LinkCount       int
	ImageCount      int

	// Reputation
	Blacklist      map[string]bool
	SocialPresence map[string]bool

	Errors []string
}

// Collaborator is the external web-enrichment interface the orchestrator
// talks to. Every method takes a context so callers can enforce the
// mandated bounded per-call timeout (10s, applied by pipeline.New through
// WithTimeout);
// implementations must never panic and must report failures through the
// returned error or an Errors-style field on their own result type, not by
// blocking indefinitely.
type Collaborator interface {
	CheckDomainAccessibility(ctx context.Context, domain string) (AccessibilityResult, error)
	GetSSLCertificateInfo(ctx context.Context, domain string) (CertResult, error)
	GetWHOISInfo(ctx context.Context, domain string) (WHOISResult, error)
	GetDNSRecords(ctx context.Context, domain string) (map[string][]string, error)
	ExtractPageMetadata(ctx context.Context, url string) (PageMetadata, error)
	CheckBlacklistStatus(ctx context.Context, domain string) (map[string]bool, error)
	FindSocialMediaPresence(ctx context.Context, domain string) (map[string]bool, error)
}

type AccessibilityResult struct {
	HTTPAccessible  bool
	HTTPSAccessible bool
	FinalURL        string
	ResponseTime    time.Duration
	Error           string
}

type CertResult struct {
	HasSSL      bool
	ValidSSL    bool
	Issuer      map[string]string
	Subject     map[string]string
	ValidFrom   time.Time
	ValidTo     time.Time
	Error       string
}

type WHOISResult struct {
	Registrar        string
	CreationDate     time.Time
	ExpirationDate   time.Time
	UpdatedDate      time.Time
	NameServers      []string
	AgeDays          int
	PrivacyProtected bool
	Error            string
}

type PageMetadata struct {
	Title         string
	Description   string
	ContentLength int
	LinkCount     int
	ImageCount    int
	Error         string
}

// Collect runs every Collaborator check for domain and assembles a Profile,
// recording any per-check error on Profile.Errors rather than failing the
// whole collection. It is the orchestrator's only call into c.
func Collect(ctx context.Context, c Collaborator, domain string) Profile {
	profile := Profile{Domain: domain}

	access, err := c.CheckDomainAccessibility(ctx, domain)
	if err != nil {
		profile.Errors = append(profile.Errors, err.Error())
	} else {
		profile.HTTPAccessible = access.HTTPAccessible
		profile.HTTPSAccessible = access.HTTPSAccessible
		profile.FinalURL = access.FinalURL
		profile.ResponseTime = access.ResponseTime
		if access.Error != "" {
			profile.Errors = append(profile.Errors, access.Error)
		}
	}

	cert, err := c.GetSSLCertificateInfo(ctx, domain)
	if err != nil {
		profile.Errors = append(profile.Errors, err.Error())
	} else {
		profile.HasSSL = cert.HasSSL
		profile.ValidSSL = cert.ValidSSL
		profile.CertIssuer = cert.Issuer
		profile.CertSubject = cert.Subject
		profile.CertValidFrom = cert.ValidFrom
		profile.CertValidTo = cert.ValidTo
		if cert.Error != "" {
			profile.Errors = append(profile.Errors, cert.Error)
		}
	}

	whois, err := c.GetWHOISInfo(ctx, domain)
	if err != nil {
		profile.Errors = append(profile.Errors, err.Error())
	} else {
		profile.Registrar = whois.Registrar
		profile.CreationDate = whois.CreationDate
		profile.ExpirationDate = whois.ExpirationDate
		profile.UpdatedDate = whois.UpdatedDate
		profile.NameServers = whois.NameServers
		profile.AgeDays = whois.AgeDays
		profile.PrivacyProtected = whois.PrivacyProtected
		if whois.Error != "" {
			profile.Errors = append(profile.Errors, whois.Error)
		}
	}

	records, err := c.GetDNSRecords(ctx, domain)
	if err != nil {
		profile.Errors = append(profile.Errors, err.Error())
	} else {
		profile.DNSRecords = records
	}

	url := profile.FinalURL
	if url == "" {
		url = "https://" + domain
	}
	meta, err := c.ExtractPageMetadata(ctx, url)
	if err != nil {
		profile.Errors = append(profile.Errors, err.Error())
	} else {
		profile.PageTitle = meta.Title
		profile.PageDescription = meta.Description
		profile.ContentLength = meta.ContentLength
		profile.LinkCount = meta.LinkCount
		profile.ImageCount = meta.ImageCount
		if meta.Error != "" {
			profile.Errors = append(profile.Errors, meta.Error)
		}
	}

	blacklist, err := c.CheckBlacklistStatus(ctx, domain)
	if err != nil {
		profile.Errors = append(profile.Errors, err.Error())
	} else {
		profile.Blacklist = blacklist
	}

	social, err := c.FindSocialMediaPresence(ctx, domain)
	if err != nil {
		profile.Errors = append(profile.Errors, err.Error())
	} else {
		profile.SocialPresence = social
	}

	return profile
}

// NoopCollaborator implements Collaborator by returning a zero-value,
// error-free result for every check. It is the default when
// config.Config's Pipeline.EnableWebChecks is false: Intelligence then sees every web
// facet as absent (not as a recorded failure), matching the "optional"
// semantics of analysis_data.web_crawl_results.
type NoopCollaborator struct{}

func (NoopCollaborator) CheckDomainAccessibility(context.Context, string) (AccessibilityResult, error) {
	return AccessibilityResult{}, nil
}

func (NoopCollaborator) GetSSLCertificateInfo(context.Context, string) (CertResult, error) {
	return CertResult{}, nil
}

func (NoopCollaborator) GetWHOISInfo(context.Context, string) (WHOISResult, error) {
	return WHOISResult{}, nil
}

func (NoopCollaborator) GetDNSRecords(context.Context, string) (map[string][]string, error) {
	return nil, nil
}

func (NoopCollaborator) ExtractPageMetadata(context.Context, string) (PageMetadata, error) {
	return PageMetadata{}, nil
}

func (NoopCollaborator) CheckBlacklistStatus(context.Context, string) (map[string]bool, error) {
	return nil, nil
}

func (NoopCollaborator) FindSocialMediaPresence(context.Context, string) (map[string]bool, error) {
	return nil, nil
}
