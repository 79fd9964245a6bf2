package emailauth

import (
	"context"
	"testing"
	"time"

	"mailauth/domain/emailauth"
)

// stubResolver is a dns.Resolver test double in the teacher's function-field
// idiom: each lookup type is backed by an independently settable function,
// defaulting to NXDOMAIN when unset.
type stubResolver struct {
	txt  func(ctx context.Context, name string) emailauth.DNSAnswer
	a    func(ctx context.Context, name string) emailauth.DNSAnswer
	aaaa func(ctx context.Context, name string) emailauth.DNSAnswer
	mx   func(ctx context.Context, name string) emailauth.DNSAnswer
	ptr  func(ctx context.Context, ip string) emailauth.DNSAnswer
}

func nxdomain() emailauth.DNSAnswer { return emailauth.DNSAnswer{Status: emailauth.DNSStatusNXDomain} }

func (s *stubResolver) LookupTXT(ctx context.Context, name string) emailauth.DNSAnswer {
	if s.txt != nil {
		return s.txt(ctx, name)
	}
	return nxdomain()
}

func (s *stubResolver) LookupA(ctx context.Context, name string) emailauth.DNSAnswer {
	if s.a != nil {
		return s.a(ctx, name)
	}
	return nxdomain()
}

func (s *stubResolver) LookupAAAA(ctx context.Context, name string) emailauth.DNSAnswer {
	if s.aaaa != nil {
		return s.aaaa(ctx, name)
	}
	return nxdomain()
}

func (s *stubResolver) LookupMX(ctx context.Context, name string) emailauth.DNSAnswer {
	if s.mx != nil {
		return s.mx(ctx, name)
	}
	return nxdomain()
}

func (s *stubResolver) LookupPTR(ctx context.Context, ip string) emailauth.DNSAnswer {
	if s.ptr != nil {
		return s.ptr(ctx, ip)
	}
	return nxdomain()
}

func txtRecord(value string) emailauth.DNSAnswer {
	return emailauth.DNSAnswer{Status: emailauth.DNSStatusOK, Records: []string{value}}
}

// S1: straightforward ip4 pass.
func TestEvaluateSPFIP4Pass(t *testing.T) {
	resolver := &stubResolver{
		txt: func(ctx context.Context, name string) emailauth.DNSAnswer {
			if name == "example.com" {
				return txtRecord("v=spf1 ip4:192.0.2.0/24 -all")
			}
			return nxdomain()
		},
	}
	eval := NewEvaluator(resolver, time.Unix(0, 0))
	outcome := eval.Evaluate(context.Background(), "example.com", "192.0.2.10", "sender@example.com", "mail.example.com")
	if outcome.Result != emailauth.ResultPass {
		t.Fatalf("got %s, want PASS; trace: %v", outcome.Result, outcome.Trace)
	}
}

// S2: a trailing "-all" with no match fails.
func TestEvaluateSPFAllFail(t *testing.T) {
	resolver := &stubResolver{
		txt: func(ctx context.Context, name string) emailauth.DNSAnswer {
			return txtRecord("v=spf1 ip4:203.0.113.0/24 -all")
		},
	}
	eval := NewEvaluator(resolver, time.Unix(0, 0))
	outcome := eval.Evaluate(context.Background(), "example.com", "192.0.2.10", "", "")
	if outcome.Result != emailauth.ResultFail {
		t.Fatalf("got %s, want FAIL", outcome.Result)
	}
}

// S3: no SPF record at all yields NONE.
func TestEvaluateSPFNoRecord(t *testing.T) {
	resolver := &stubResolver{}
	eval := NewEvaluator(resolver, time.Unix(0, 0))
	outcome := eval.Evaluate(context.Background(), "example.com", "192.0.2.10", "", "")
	if outcome.Result != emailauth.ResultNone {
		t.Fatalf("got %s, want NONE", outcome.Result)
	}
}

// S4: two v=spf1 TXT records is a PERMERROR.
func TestEvaluateSPFMultipleRecordsPermError(t *testing.T) {
	resolver := &stubResolver{
		txt: func(ctx context.Context, name string) emailauth.DNSAnswer {
			return emailauth.DNSAnswer{Status: emailauth.DNSStatusOK, Records: []string{
				"v=spf1 -all", "v=spf1 +all",
			}}
		},
	}
	eval := NewEvaluator(resolver, time.Unix(0, 0))
	outcome := eval.Evaluate(context.Background(), "example.com", "192.0.2.10", "", "")
	if outcome.Result != emailauth.ResultPermError {
		t.Fatalf("got %s, want PERMERROR", outcome.Result)
	}
}

// S5: include recursion passing through to the included domain's match.
func TestEvaluateSPFIncludePass(t *testing.T) {
	resolver := &stubResolver{
		txt: func(ctx context.Context, name string) emailauth.DNSAnswer {
			switch name {
			case "example.com":
				return txtRecord("v=spf1 include:_spf.provider.com -all")
			case "_spf.provider.com":
				return txtRecord("v=spf1 ip4:198.51.100.0/24 -all")
			}
			return nxdomain()
		},
	}
	eval := NewEvaluator(resolver, time.Unix(0, 0))
	outcome := eval.Evaluate(context.Background(), "example.com", "198.51.100.5", "", "")
	if outcome.Result != emailauth.ResultPass {
		t.Fatalf("got %s, want PASS; trace: %v", outcome.Result, outcome.Trace)
	}
}

// S6: an include loop (A includes B, B includes A) is caught and PERMERRORs.
func TestEvaluateSPFIncludeLoopPermError(t *testing.T) {
	resolver := &stubResolver{
		txt: func(ctx context.Context, name string) emailauth.DNSAnswer {
			switch name {
			case "a.example.com":
				return txtRecord("v=spf1 include:b.example.com -all")
			case "b.example.com":
				return txtRecord("v=spf1 include:a.example.com -all")
			}
			return nxdomain()
		},
	}
	eval := NewEvaluator(resolver, time.Unix(0, 0))
	outcome := eval.Evaluate(context.Background(), "a.example.com", "192.0.2.10", "", "")
	if outcome.Result != emailauth.ResultPermError {
		t.Fatalf("got %s, want PERMERROR", outcome.Result)
	}
	if outcome.Reason != "include loop detected" {
		t.Fatalf("got reason %q, want %q", outcome.Reason, "include loop detected")
	}
}

// S7: exceeding the 10-lookup budget PERMERRORs.
func TestEvaluateSPFLookupBudgetExceeded(t *testing.T) {
	resolver := &stubResolver{
		txt: func(ctx context.Context, name string) emailauth.DNSAnswer {
			// Every domain redirects to the next one, forcing a lookup on
			// each step via the redirect modifier.
			n := 0
			for i, c := range name {
				if c == '-' {
					n = i
					break
				}
			}
			_ = n
			return txtRecord("v=spf1 exists:%{i} redirect=next." + name)
		},
	}
	eval := NewEvaluator(resolver, time.Unix(0, 0))
	outcome := eval.Evaluate(context.Background(), "example.com", "192.0.2.10", "", "")
	if outcome.Result != emailauth.ResultPermError {
		t.Fatalf("got %s, want PERMERROR (budget exhaustion); trace: %v", outcome.Result, outcome.Trace)
	}
	if outcome.Reason != "too many DNS lookups" {
		t.Fatalf("got reason %q, want %q", outcome.Reason, "too many DNS lookups")
	}
}

// S8: a malformed mechanism name is a strict PERMERROR.
func TestEvaluateSPFUnknownMechanismPermError(t *testing.T) {
	resolver := &stubResolver{
		txt: func(ctx context.Context, name string) emailauth.DNSAnswer {
			return txtRecord("v=spf1 bogus-mechanism -all")
		},
	}
	eval := NewEvaluator(resolver, time.Unix(0, 0))
	outcome := eval.Evaluate(context.Background(), "example.com", "192.0.2.10", "", "")
	if outcome.Result != emailauth.ResultPermError {
		t.Fatalf("got %s, want PERMERROR", outcome.Result)
	}
}

// S9: a FAIL result with an exp= modifier fetches and expands the explanation.
func TestEvaluateSPFFailFetchesExplanation(t *testing.T) {
	resolver := &stubResolver{
		txt: func(ctx context.Context, name string) emailauth.DNSAnswer {
			switch name {
			case "example.com":
				return txtRecord("v=spf1 -all exp=explain.example.com")
			case "explain.example.com":
				return txtRecord("Rejected: %{i} is not allowed to send for %{d}")
			}
			return nxdomain()
		},
	}
	eval := NewEvaluator(resolver, time.Unix(0, 0))
	outcome := eval.Evaluate(context.Background(), "example.com", "192.0.2.10", "", "")
	if outcome.Result != emailauth.ResultFail {
		t.Fatalf("got %s, want FAIL", outcome.Result)
	}
	want := "Rejected: 192.0.2.10 is not allowed to send for example.com"
	if outcome.Explanation != want {
		t.Fatalf("got explanation %q, want %q", outcome.Explanation, want)
	}
}

// S10: an unparsable sender IP is a PERMERROR.
func TestEvaluateSPFInvalidIPPermError(t *testing.T) {
	resolver := &stubResolver{
		txt: func(ctx context.Context, name string) emailauth.DNSAnswer {
			return txtRecord("v=spf1 -all")
		},
	}
	eval := NewEvaluator(resolver, time.Unix(0, 0))
	outcome := eval.Evaluate(context.Background(), "example.com", "not-an-ip", "", "")
	if outcome.Result != emailauth.ResultPermError {
		t.Fatalf("got %s, want PERMERROR", outcome.Result)
	}
	if outcome.Reason != "invalid IP address" {
		t.Fatalf("got reason %q, want %q", outcome.Reason, "invalid IP address")
	}
}

func TestEvaluateSPFTransientDNSError(t *testing.T) {
	resolver := &stubResolver{
		txt: func(ctx context.Context, name string) emailauth.DNSAnswer {
			return emailauth.DNSAnswer{Status: emailauth.DNSStatusTransient}
		},
	}
	eval := NewEvaluator(resolver, time.Unix(0, 0))
	outcome := eval.Evaluate(context.Background(), "example.com", "192.0.2.10", "", "")
	if outcome.Result != emailauth.ResultTempError {
		t.Fatalf("got %s, want TEMPERROR", outcome.Result)
	}
}
