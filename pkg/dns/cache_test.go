package dns

import (
	"context"
	"testing"

	"mailauth/domain/emailauth"
)

// mockResolver is a dns.Resolver test double keyed by lookup type, each call
// recorded so tests can assert on call counts.
type mockResolver struct {
	txtCalls int
	txt      func(ctx context.Context, name string) emailauth.DNSAnswer
	a        func(ctx context.Context, name string) emailauth.DNSAnswer
	aaaa     func(ctx context.Context, name string) emailauth.DNSAnswer
}

func (m *mockResolver) LookupTXT(ctx context.Context, name string) emailauth.DNSAnswer {
	m.txtCalls++
	if m.txt != nil {
		return m.txt(ctx, name)
	}
	return emailauth.DNSAnswer{Status: emailauth.DNSStatusNXDomain}
}

func (m *mockResolver) LookupA(ctx context.Context, name string) emailauth.DNSAnswer {
	if m.a != nil {
		return m.a(ctx, name)
	}
	return emailauth.DNSAnswer{Status: emailauth.DNSStatusNXDomain}
}

func (m *mockResolver) LookupAAAA(ctx context.Context, name string) emailauth.DNSAnswer {
	if m.aaaa != nil {
		return m.aaaa(ctx, name)
	}
	return emailauth.DNSAnswer{Status: emailauth.DNSStatusNXDomain}
}

func (m *mockResolver) LookupMX(ctx context.Context, name string) emailauth.DNSAnswer {
	return emailauth.DNSAnswer{Status: emailauth.DNSStatusNXDomain}
}

func (m *mockResolver) LookupPTR(ctx context.Context, ip string) emailauth.DNSAnswer {
	return emailauth.DNSAnswer{Status: emailauth.DNSStatusNXDomain}
}

func TestCachingResolverMemoizesWithinState(t *testing.T) {
	inner := &mockResolver{
		txt: func(ctx context.Context, name string) emailauth.DNSAnswer {
			return emailauth.DNSAnswer{Status: emailauth.DNSStatusOK, Records: []string{"v=spf1 -all"}}
		},
	}
	state := emailauth.NewEvalState(10, 20)
	caching := NewCachingResolver(inner, state)

	first := caching.LookupTXT(context.Background(), "example.com")
	second := caching.LookupTXT(context.Background(), "EXAMPLE.COM.")

	if inner.txtCalls != 1 {
		t.Fatalf("got %d underlying calls, want 1 (second lookup should hit the cache)", inner.txtCalls)
	}
	if len(first.Records) != 1 || first.Records[0] != second.Records[0] {
		t.Errorf("got %v and %v, want identical cached answers", first, second)
	}
}

func TestCachingResolverDoesNotShareAcrossStates(t *testing.T) {
	inner := &mockResolver{
		txt: func(ctx context.Context, name string) emailauth.DNSAnswer {
			return emailauth.DNSAnswer{Status: emailauth.DNSStatusOK, Records: []string{"v=spf1 -all"}}
		},
	}
	stateA := emailauth.NewEvalState(10, 20)
	stateB := emailauth.NewEvalState(10, 20)

	NewCachingResolver(inner, stateA).LookupTXT(context.Background(), "example.com")
	NewCachingResolver(inner, stateB).LookupTXT(context.Background(), "example.com")

	if inner.txtCalls != 2 {
		t.Fatalf("got %d underlying calls, want 2 (a fresh EvalState must not reuse another request's cache)", inner.txtCalls)
	}
}

func TestLookupHostMergesAAndAAAA(t *testing.T) {
	inner := &mockResolver{
		a: func(ctx context.Context, name string) emailauth.DNSAnswer {
			return emailauth.DNSAnswer{Status: emailauth.DNSStatusOK, Records: []string{"192.0.2.1"}}
		},
		aaaa: func(ctx context.Context, name string) emailauth.DNSAnswer {
			return emailauth.DNSAnswer{Status: emailauth.DNSStatusOK, Records: []string{"2001:db8::1"}}
		},
	}
	records, status := LookupHost(context.Background(), inner, "example.com")
	if status != emailauth.DNSStatusOK {
		t.Fatalf("got status %s, want OK", status)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (A and AAAA merged)", len(records))
	}
}

func TestLookupHostPrefersTransientOverNXDomain(t *testing.T) {
	inner := &mockResolver{
		a: func(ctx context.Context, name string) emailauth.DNSAnswer {
			return emailauth.DNSAnswer{Status: emailauth.DNSStatusNXDomain}
		},
		aaaa: func(ctx context.Context, name string) emailauth.DNSAnswer {
			return emailauth.DNSAnswer{Status: emailauth.DNSStatusTransient}
		},
	}
	_, status := LookupHost(context.Background(), inner, "example.com")
	if status != emailauth.DNSStatusTransient {
		t.Errorf("got %s, want TRANSIENT (ambiguity should not be reported as NXDOMAIN)", status)
	}
}

func TestLookupHostBothNXDomain(t *testing.T) {
	inner := &mockResolver{
		a: func(ctx context.Context, name string) emailauth.DNSAnswer {
			return emailauth.DNSAnswer{Status: emailauth.DNSStatusNXDomain}
		},
		aaaa: func(ctx context.Context, name string) emailauth.DNSAnswer {
			return emailauth.DNSAnswer{Status: emailauth.DNSStatusNXDomain}
		},
	}
	records, status := LookupHost(context.Background(), inner, "example.com")
	if status != emailauth.DNSStatusNXDomain || len(records) != 0 {
		t.Errorf("got (%v, %s), want (nil, NXDOMAIN)", records, status)
	}
}
