package webprofile

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// WithTimeout wraps c so every call is bounded by timeout, matching the
// per-call bound spec §5 mandates for the external collaborator (default
// 10s). A call that exceeds timeout returns its context's error rather than
// blocking the pipeline indefinitely.
func WithTimeout(c Collaborator, timeout time.Duration) Collaborator {
	return &timeoutCollaborator{inner: c, timeout: timeout}
}

type timeoutCollaborator struct {
	inner   Collaborator
	timeout time.Duration
}

func (t *timeoutCollaborator) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, t.timeout)
}

func (t *timeoutCollaborator) CheckDomainAccessibility(ctx context.Context, domain string) (AccessibilityResult, error) {
	ctx, cancel := t.withDeadline(ctx)
	defer cancel()
	return t.inner.CheckDomainAccessibility(ctx, domain)
}

func (t *timeoutCollaborator) GetSSLCertificateInfo(ctx context.Context, domain string) (CertResult, error) {
	ctx, cancel := t.withDeadline(ctx)
	defer cancel()
	return t.inner.GetSSLCertificateInfo(ctx, domain)
}

func (t *timeoutCollaborator) GetWHOISInfo(ctx context.Context, domain string) (WHOISResult, error) {
	ctx, cancel := t.withDeadline(ctx)
	defer cancel()
	return t.inner.GetWHOISInfo(ctx, domain)
}

func (t *timeoutCollaborator) GetDNSRecords(ctx context.Context, domain string) (map[string][]string, error) {
	ctx, cancel := t.withDeadline(ctx)
	defer cancel()
	return t.inner.GetDNSRecords(ctx, domain)
}

func (t *timeoutCollaborator) ExtractPageMetadata(ctx context.Context, url string) (PageMetadata, error) {
	ctx, cancel := t.withDeadline(ctx)
	defer cancel()
	return t.inner.ExtractPageMetadata(ctx, url)
}

func (t *timeoutCollaborator) CheckBlacklistStatus(ctx context.Context, domain string) (map[string]bool, error) {
	ctx, cancel := t.withDeadline(ctx)
	defer cancel()
	return t.inner.CheckBlacklistStatus(ctx, domain)
}

func (t *timeoutCollaborator) FindSocialMediaPresence(ctx context.Context, domain string) (map[string]bool, error) {
	ctx, cancel := t.withDeadline(ctx)
	defer cancel()
	return t.inner.FindSocialMediaPresence(ctx, domain)
}

// WithRateLimit wraps c so that every method call first waits on limiter --
// one Wait per call, so a single Collect() spends seven tokens --
// following the teacher's rate.NewLimiter(5, 5) convention in
// analysis.NewAnalyzer for bounding outbound work against a shared resource.
func WithRateLimit(c Collaborator, limiter *rate.Limiter) Collaborator {
	return &limitedCollaborator{inner: c, limiter: limiter}
}

type limitedCollaborator struct {
	inner   Collaborator
	limiter *rate.Limiter
}

func (l *limitedCollaborator) wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

func (l *limitedCollaborator) CheckDomainAccessibility(ctx context.Context, domain string) (AccessibilityResult, error) {
	if err := l.wait(ctx); err != nil {
		return AccessibilityResult{}, err
	}
	return l.inner.CheckDomainAccessibility(ctx, domain)
}

func (l *limitedCollaborator) GetSSLCertificateInfo(ctx context.Context, domain string) (CertResult, error) {
	if err := l.wait(ctx); err != nil {
		return CertResult{}, err
	}
	return l.inner.GetSSLCertificateInfo(ctx, domain)
}

func (l *limitedCollaborator) GetWHOISInfo(ctx context.Context, domain string) (WHOISResult, error) {
	if err := l.wait(ctx); err != nil {
		return WHOISResult{}, err
	}
	return l.inner.GetWHOISInfo(ctx, domain)
}

func (l *limitedCollaborator) GetDNSRecords(ctx context.Context, domain string) (map[string][]string, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	return l.inner.GetDNSRecords(ctx, domain)
}

func (l *limitedCollaborator) ExtractPageMetadata(ctx context.Context, url string) (PageMetadata, error) {
	if err := l.wait(ctx); err != nil {
		return PageMetadata{}, err
	}
	return l.inner.ExtractPageMetadata(ctx, url)
}

func (l *limitedCollaborator) CheckBlacklistStatus(ctx context.Context, domain string) (map[string]bool, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	return l.inner.CheckBlacklistStatus(ctx, domain)
}

func (l *limitedCollaborator) FindSocialMediaPresence(ctx context.Context, domain string) (map[string]bool, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	return l.inner.FindSocialMediaPresence(ctx, domain)
}
