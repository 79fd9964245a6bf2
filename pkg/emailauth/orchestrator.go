package emailauth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"mailauth/domain/emailauth"
	"mailauth/pkg/dns"
)

// Orchestrator drives one check end to end: SPF, then DKIM inventory, then
// DMARC, aggregated into a single Verdict (spec.md §4.8).
type Orchestrator struct {
	Resolver dns.Resolver
	Verifier Verifier
}

// NewOrchestrator builds an Orchestrator over a bare resolver; each Check
// call wraps it in a fresh CachingResolver so DNS memoization never leaks
// across requests.
func NewOrchestrator(resolver dns.Resolver, verifier Verifier) *Orchestrator {
	if verifier == nil {
		verifier = InventoryOnlyVerifier{}
	}
	return &Orchestrator{Resolver: resolver, Verifier: verifier}
}

// Check runs SPF, DKIM and DMARC for req and returns the aggregate Verdict.
func (o *Orchestrator) Check(ctx context.Context, req emailauth.CheckRequest) emailauth.Verdict {
	now := time.Now()
	domain := req.NormalizedDomain()

	spfDomain := domain
	if at := strings.LastIndex(req.MailFrom, "@"); at >= 0 {
		spfDomain = emailauth.NormalizeDomain(req.MailFrom[at+1:])
	}

	state := emailauth.NewEvalState(MaxSPFLookups, MaxRecursionDepth)
	resolver := dns.NewCachingResolver(o.Resolver, state)

	spfEvaluator := NewEvaluator(resolver, now)
	spfOutcome := spfEvaluator.EvaluateWithState(ctx, spfDomain, req.SenderIP, state, req.MailFrom, req.Helo)

	headerFrom := domain
	if len(req.RawMessage) > 0 {
		if extracted, ok := extractHeaderFrom(req.RawMessage); ok {
			headerFrom = extracted
		}
	}

	dkimOutcome := Inventory(req.RawMessage, headerFrom, o.Verifier)

	dmarcOutcome := EvaluateDMARC(ctx, resolver, headerFrom, spfDomain, spfOutcome.Result, dkimOutcome.Verifier.Result, dkimOutcome.SelectedD)

	return emailauth.Verdict{
		RequestID:  uuid.NewString(),
		Domain:     domain,
		HeaderFrom: headerFrom,
		SPF:        spfOutcome,
		DKIM:       dkimOutcome,
		DMARC:      dmarcOutcome,
	}
}

// extractHeaderFrom reads the first From: header holding an '@' and returns
// its domain, preferring the address inside angle brackets.
func extractHeaderFrom(message []byte) (string, bool) {
	lines := unfoldHeaders(headerBlock(message))
	for _, line := range lines {
		name, value, ok := headerValue(line)
		if !ok || !strings.EqualFold(name, "From") {
			continue
		}
		addr := value
		if start := strings.IndexByte(value, '<'); start >= 0 {
			if end := strings.IndexByte(value[start:], '>'); end >= 0 {
				addr = value[start+1 : start+end]
			}
		}
		if at := strings.LastIndex(addr, "@"); at >= 0 {
			return emailauth.NormalizeDomain(addr[at+1:]), true
		}
	}
	return "", false
}
