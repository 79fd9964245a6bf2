// Package emailauth holds the domain types shared by the SPF, DKIM and
// DMARC evaluators: request/response shapes, the SPF term grammar, and the
// aggregate Verdict returned by the orchestrator.
package emailauth

import (
	"fmt"
	"net"
	"strings"
)

// Result is the outcome of an SPF, DKIM or DMARC evaluation. It is a tagged
// sum rather than a free string so callers can switch on it exhaustively.
type Result string

const (
	ResultPass      Result = "PASS"
	ResultFail      Result = "FAIL"
	ResultSoftFail  Result = "SOFTFAIL"
	ResultNeutral   Result = "NEUTRAL"
	ResultNone      Result = "NONE"
	ResultTempError Result = "TEMPERROR"
	ResultPermError Result = "PERMERROR"
)

// Enforcement is the DMARC-derived recommendation for handling a message.
type Enforcement string

const (
	EnforcementAllow       Enforcement = "ALLOW"
	EnforcementMonitoring  Enforcement = "ALLOW (monitoring)"
	EnforcementPctSampling Enforcement = "ALLOW (pct sampling)"
	EnforcementQuarantine  Enforcement = "QUARANTINE"
	EnforcementReject      Enforcement = "REJECT"
)

// Qualifier is the SPF mechanism prefix, mapped to a Result when it matches.
type Qualifier byte

const (
	QualifierPass     Qualifier = '+'
	QualifierFail     Qualifier = '-'
	QualifierSoftFail Qualifier = '~'
	QualifierNeutral  Qualifier = '?'
)

// ToResult maps an SPF qualifier to the Result it produces on a match.
func (q Qualifier) ToResult() Result {
	switch q {
	case QualifierFail:
		return ResultFail
	case QualifierSoftFail:
		return ResultSoftFail
	case QualifierNeutral:
		return ResultNeutral
	default:
		return ResultPass
	}
}

// MechanismName is one of the SPF mechanism names recognized by the
// evaluator. Anything else is an unknown mechanism (strict PERMERROR).
type MechanismName string

const (
	MechA       MechanismName = "a"
	MechMX      MechanismName = "mx"
	MechIP4     MechanismName = "ip4"
	MechIP6     MechanismName = "ip6"
	MechInclude MechanismName = "include"
	MechExists  MechanismName = "exists"
	MechPTR     MechanismName = "ptr"
	MechAll     MechanismName = "all"
)

// Mechanism is a single parsed SPF term.
type Mechanism struct {
	Qualifier Qualifier
	Name      MechanismName
	Target    string // domain-spec, possibly containing macros; "" means default
	CIDR4     int    // "/N" of ip4/ip6, or the IPv4 prefix of a/mx; -1 if not specified
	CIDR6     int    // "//N" IPv6 prefix of a/mx; -1 if not specified
	Unknown   string // raw mechanism text when Name could not be recognized
}

// ModifierKind distinguishes the two SPF modifiers the evaluator honors.
type ModifierKind string

const (
	ModifierRedirect ModifierKind = "redirect"
	ModifierExp      ModifierKind = "exp"
)

// Modifier is a parsed `name=value` SPF modifier term.
type Modifier struct {
	Kind   ModifierKind
	Target string
}

// SpfRecord is one domain's validated `v=spf1` TXT record, split into its
// ordered mechanisms and at-most-one-each modifiers.
type SpfRecord struct {
	Raw        string
	Mechanisms []Mechanism
	Redirect   *Modifier
	Exp        *Modifier
}

// MacroEnv is the fixed substitution environment the macro expander reads
// from, per spec.md §4.3.
type MacroEnv struct {
	S string // mail_from
	L string // local-part of mail_from
	O string // domain of mail_from
	D string // current evaluation domain
	I string // client IP, canonical form
	H string // HELO/EHLO argument
	C string // client IP (same literal as I; kept distinct for clarity)
	R string // receiving domain, == D unless overridden
	T string // current unix time, decimal
	V string // "in-addr" for IPv4, "ip6" for IPv6
}

// NewMacroEnv builds the environment for one SPF evaluation step.
func NewMacroEnv(domain, ip, mailFrom, helo string, unixTime int64) MacroEnv {
	local, at := mailFrom, ""
	if idx := strings.LastIndex(mailFrom, "@"); idx >= 0 {
		local, at = mailFrom[:idx], mailFrom[idx+1:]
	}
	v, canonical := "in-addr", ip
	if parsed := net.ParseIP(ip); parsed != nil {
		canonical = parsed.String()
		if parsed.To4() == nil {
			v = "ip6"
		}
	}
	return MacroEnv{
		S: mailFrom,
		L: local,
		O: at,
		D: domain,
		I: canonical,
		H: helo,
		C: canonical,
		R: domain,
		T: fmt.Sprintf("%d", unixTime),
		V: v,
	}
}

// DNSCacheKey identifies one memoized DNS answer within an EvalState.
type DNSCacheKey struct {
	Type string // "TXT", "A", "AAAA", "MX", "PTR"
	Name string // normalized: lowercased, trailing dot stripped
}

// DNSStatus classifies a DNS Facade answer beyond its record list.
type DNSStatus string

const (
	DNSStatusOK        DNSStatus = "OK"
	DNSStatusNoData    DNSStatus = "NODATA"
	DNSStatusNXDomain  DNSStatus = "NXDOMAIN"
	DNSStatusTransient DNSStatus = "TRANSIENT"
)

// DNSAnswer is one cached or fresh DNS Facade result.
type DNSAnswer struct {
	Records []string
	Status  DNSStatus
	Err     error
}

// EvalState is threaded explicitly through recursive SPF evaluation. It
// owns the request-scoped DNS cache, the visited-domain loop guard, and the
// shared lookup-budget counter; spec.md mandates it never be global.
type EvalState struct {
	Visited     map[string]bool
	LookupsUsed int
	MaxLookups  int
	MaxDepth    int
	Cache       map[DNSCacheKey]DNSAnswer
	Trace       []string
}

// NewEvalState creates a fresh per-top-level-evaluation state.
func NewEvalState(maxLookups, maxDepth int) *EvalState {
	return &EvalState{
		Visited:    make(map[string]bool),
		MaxLookups: maxLookups,
		MaxDepth:   maxDepth,
		Cache:      make(map[DNSCacheKey]DNSAnswer),
	}
}

// Log appends one line to the human-readable evaluation trace.
func (s *EvalState) Log(format string, args ...interface{}) {
	s.Trace = append(s.Trace, fmt.Sprintf(format, args...))
}

// ConsumeLookup increments the shared budget counter and reports whether
// the evaluation is still within MAX_SPF_LOOKUPS.
func (s *EvalState) ConsumeLookup() bool {
	s.LookupsUsed++
	return s.LookupsUsed <= s.MaxLookups
}

// SPFOutcome is the result of one top-level SPF evaluation.
type SPFOutcome struct {
	Result      Result
	Reason      string
	Domain      string // the domain whose record ultimately produced the result
	Trace       []string
	Explanation string
}

// DkimSignature is one retained `DKIM-Signature:` header.
type DkimSignature struct {
	D   string // signing domain, lowercased
	S   string // selector
	A   string // signing algorithm
	C   string // canonicalization
	Raw string // raw unfolded header value
}

// ArcInfo is informational ARC metadata; it never affects any result.
type ArcInfo struct {
	Present bool
	Signer  string
	AAR     string
	Count   int // number of ARC-Seal headers observed
}

// DkimVerifierOutcome is what the black-box cryptographic verifier reports.
type DkimVerifierOutcome struct {
	Present bool
	Result  Result // PASS, FAIL, TEMPERROR, PERMERROR, or NONE
}

// DKIMOutcome aggregates the signature inventory and verifier boundary for
// one message, plus the identity selected for DMARC alignment.
type DKIMOutcome struct {
	Signatures []DkimSignature
	Arc        ArcInfo
	Verifier   DkimVerifierOutcome
	SelectedD  string // "" if no signature could be selected
	Trace      []string
}

// DmarcPolicy is one domain's parsed DMARC TXT record.
type DmarcPolicy struct {
	P           string // none | quarantine | reject
	SP          string // subdomain policy override, "" if absent
	ASPF        string // r | s, default r
	ADKIM       string // r | s, default r
	Pct         int    // 0-100, default 100
	LocatedAt   string // domain the record was fetched from
	AtOrgDomain bool   // true if LocatedAt != header_from (i.e. org-domain fallback)
}

// DMARCOutcome is the result of evaluating DMARC for one message.
type DMARCOutcome struct {
	Result      Result
	Enforcement Enforcement
	Policy      *DmarcPolicy
	SPFAligned  bool
	DKIMAligned bool
	Reason      string
	Trace       []string
}

// CheckRequest is one orchestrator invocation's immutable input.
type CheckRequest struct {
	Domain     string // ASCII, lowercased, no trailing dot
	SenderIP   string // IPv4 or IPv6 literal
	MailFrom   string // RFC5321 address, "" or "<>" for the null sender
	Helo       string
	RawMessage []byte // optional raw message bytes
}

// NormalizedDomain lowercases and trims the request's domain, matching the
// normalization the evaluator applies to every domain it visits.
func (r CheckRequest) NormalizedDomain() string {
	return NormalizeDomain(r.Domain)
}

// NormalizeDomain lowercases a domain and strips one trailing dot.
func NormalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	return strings.TrimSuffix(d, ".")
}

// Verdict is the orchestrator's aggregate output for one CheckRequest.
type Verdict struct {
	RequestID  string
	Domain     string
	HeaderFrom string
	SPF        SPFOutcome
	DKIM       DKIMOutcome
	DMARC      DMARCOutcome
}
