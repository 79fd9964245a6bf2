package dns

import (
	"context"

	"mailauth/domain/emailauth"
)

// CachingResolver decorates a Resolver with the request-scoped memoization
// cache spec.md §3/§4.1 requires: entries are keyed by (type, normalized
// name) and live only as long as the *emailauth.EvalState passed in, never
// shared across requests or top-level evaluations.
type CachingResolver struct {
	Inner Resolver
	State *emailauth.EvalState
}

// NewCachingResolver wraps inner with state's cache and trace.
func NewCachingResolver(inner Resolver, state *emailauth.EvalState) *CachingResolver {
	return &CachingResolver{Inner: inner, State: state}
}

func (c *CachingResolver) fetch(ctx context.Context, typ RecordType, name string, do func(context.Context, string) emailauth.DNSAnswer) emailauth.DNSAnswer {
	key := emailauth.DNSCacheKey{Type: string(typ), Name: normalize(name)}
	if cached, ok := c.State.Cache[key]; ok {
		c.State.Log("DNS cache hit: %s %s", typ, key.Name)
		return cached
	}
	c.State.Log("DNS lookup: %s %s", typ, key.Name)
	answer := do(ctx, name)
	c.State.Cache[key] = answer
	return answer
}

func (c *CachingResolver) LookupTXT(ctx context.Context, name string) emailauth.DNSAnswer {
	return c.fetch(ctx, TypeTXT, name, c.Inner.LookupTXT)
}

func (c *CachingResolver) LookupA(ctx context.Context, name string) emailauth.DNSAnswer {
	return c.fetch(ctx, TypeA, name, c.Inner.LookupA)
}

func (c *CachingResolver) LookupAAAA(ctx context.Context, name string) emailauth.DNSAnswer {
	return c.fetch(ctx, TypeAAAA, name, c.Inner.LookupAAAA)
}

func (c *CachingResolver) LookupMX(ctx context.Context, name string) emailauth.DNSAnswer {
	return c.fetch(ctx, TypeMX, name, c.Inner.LookupMX)
}

func (c *CachingResolver) LookupPTR(ctx context.Context, ip string) emailauth.DNSAnswer {
	return c.fetch(ctx, TypePTR, ip, c.Inner.LookupPTR)
}

// LookupHost runs the A and AAAA fetch for name concurrently, since their
// outcomes are order-independent (spec.md §5), and merges the records.
func LookupHost(ctx context.Context, r Resolver, name string) ([]string, emailauth.DNSStatus) {
	type res struct {
		answer emailauth.DNSAnswer
	}
	aCh := make(chan res, 1)
	aaaaCh := make(chan res, 1)

	go func() { aCh <- res{r.LookupA(ctx, name)} }()
	go func() { aaaaCh <- res{r.LookupAAAA(ctx, name)} }()

	a := <-aCh
	aaaa := <-aaaaCh

	var records []string
	records = append(records, a.answer.Records...)
	records = append(records, aaaa.answer.Records...)

	if len(records) > 0 {
		return records, emailauth.DNSStatusOK
	}
	// Prefer a transient status over NXDOMAIN/NODATA so the caller can
	// distinguish "genuinely absent" from "couldn't tell".
	if a.answer.Status == emailauth.DNSStatusTransient || aaaa.answer.Status == emailauth.DNSStatusTransient {
		return nil, emailauth.DNSStatusTransient
	}
	if a.answer.Status == emailauth.DNSStatusNXDomain && aaaa.answer.Status == emailauth.DNSStatusNXDomain {
		return nil, emailauth.DNSStatusNXDomain
	}
	return nil, emailauth.DNSStatusNoData
}
