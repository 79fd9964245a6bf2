// Package emailauth implements the SPF, DKIM and DMARC evaluators over the
// domain/emailauth types and the pkg/dns Facade.
package emailauth

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"mailauth/domain/emailauth"
	"mailauth/pkg/dns"
)

// MaxSPFLookups bounds the DNS-costing mechanisms (include, redirect, a, mx,
// exists, ptr) across one top-level SPF evaluation, nested includes counted.
const MaxSPFLookups = 10

// MaxRecursionDepth bounds include/redirect nesting.
const MaxRecursionDepth = 20

// FetchSPF retrieves and validates domain's SPF TXT record per spec.md §4.2.
// It returns (nil, ResultNone, nil) when no v=spf1 record exists, and a
// PERMERROR result with a descriptive reason on malformed or duplicate
// records.
func FetchSPF(ctx context.Context, resolver dns.Resolver, domain string) (*emailauth.SpfRecord, emailauth.Result, string) {
	answer := resolver.LookupTXT(ctx, domain)
	switch answer.Status {
	case emailauth.DNSStatusTransient:
		return nil, emailauth.ResultTempError, "transient DNS error fetching SPF record"
	case emailauth.DNSStatusNXDomain, emailauth.DNSStatusNoData:
		return nil, emailauth.ResultNone, ""
	}

	var candidates []string
	for _, txt := range answer.Records {
		unquoted := strings.Trim(txt, `"`)
		fields := strings.Fields(unquoted)
		if len(fields) == 0 {
			continue
		}
		if strings.EqualFold(fields[0], "v=spf1") {
			candidates = append(candidates, unquoted)
		}
	}

	if len(candidates) == 0 {
		return nil, emailauth.ResultNone, ""
	}
	if len(candidates) > 1 {
		return nil, emailauth.ResultPermError, "multiple SPF records"
	}

	raw := candidates[0]
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		if b < 0x20 && b != '\t' && b != '\r' && b != '\n' {
			return nil, emailauth.ResultPermError, "malformed SPF record: control byte"
		}
	}

	record, err := parseSPF(raw)
	if err != nil {
		return nil, emailauth.ResultPermError, err.Error()
	}
	return record, "", ""
}

// parseSPF tokenizes a validated v=spf1 record into its mechanisms and
// modifiers, in textual order.
func parseSPF(raw string) (*emailauth.SpfRecord, error) {
	fields := strings.Fields(raw)
	record := &emailauth.SpfRecord{Raw: raw}

	for _, term := range fields[1:] {
		if strings.HasPrefix(strings.ToLower(term), "redirect=") {
			if record.Redirect != nil {
				continue
			}
			record.Redirect = &emailauth.Modifier{Kind: emailauth.ModifierRedirect, Target: term[len("redirect="):]}
			continue
		}
		if strings.HasPrefix(strings.ToLower(term), "exp=") {
			if record.Exp != nil {
				continue
			}
			record.Exp = &emailauth.Modifier{Kind: emailauth.ModifierExp, Target: term[len("exp="):]}
			continue
		}
		mech, err := parseMechanism(term)
		if err != nil {
			return nil, err
		}
		record.Mechanisms = append(record.Mechanisms, mech)
	}
	return record, nil
}

func parseMechanism(term string) (emailauth.Mechanism, error) {
	qualifier := emailauth.QualifierPass
	switch term[0] {
	case '+', '-', '~', '?':
		qualifier = emailauth.Qualifier(term[0])
		term = term[1:]
	}

	name, rest := term, ""
	for i, r := range term {
		if r == ':' || r == '/' {
			name, rest = term[:i], term[i:]
			break
		}
	}

	mech := emailauth.Mechanism{Qualifier: qualifier, CIDR4: -1, CIDR6: -1}
	switch strings.ToLower(name) {
	case "a":
		mech.Name = emailauth.MechA
	case "mx":
		mech.Name = emailauth.MechMX
	case "ip4":
		mech.Name = emailauth.MechIP4
	case "ip6":
		mech.Name = emailauth.MechIP6
	case "include":
		mech.Name = emailauth.MechInclude
	case "exists":
		mech.Name = emailauth.MechExists
	case "ptr":
		mech.Name = emailauth.MechPTR
	case "all":
		mech.Name = emailauth.MechAll
		return mech, nil
	default:
		mech.Unknown = name
		return mech, nil
	}

	target, cidr4, cidr6 := splitTargetAndPrefix(rest)
	mech.Target = target
	mech.CIDR4 = cidr4
	mech.CIDR6 = cidr6

	if mech.Name == emailauth.MechIP4 || mech.Name == emailauth.MechIP6 {
		mech.Target = strings.TrimPrefix(rest, ":")
		if idx := strings.IndexByte(mech.Target, '/'); idx >= 0 {
			mech.Target = mech.Target[:idx]
		}
	}
	return mech, nil
}

// splitTargetAndPrefix parses the optional "[:target][/p4[//p6]]" suffix
// shared by a, mx, ptr, ip4, ip6.
func splitTargetAndPrefix(rest string) (target string, cidr4, cidr6 int) {
	cidr4, cidr6 = -1, -1
	if rest == "" {
		return "", cidr4, cidr6
	}
	if rest[0] == ':' {
		rest = rest[1:]
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			target, rest = rest[:idx], rest[idx:]
		} else {
			return rest, cidr4, cidr6
		}
	}
	if strings.HasPrefix(rest, "/") {
		rest = rest[1:]
		parts := strings.SplitN(rest, "//", 2)
		if n, err := strconv.Atoi(parts[0]); err == nil {
			cidr4 = n
		}
		if len(parts) == 2 {
			if n, err := strconv.Atoi(parts[1]); err == nil {
				cidr6 = n
			}
		}
	}
	return target, cidr4, cidr6
}

// Evaluator runs SPF evaluation against a dns.Resolver; it is constructed
// once per top-level check so the same CachingResolver and EvalState back
// every recursive call.
type Evaluator struct {
	Resolver dns.Resolver
	Now      time.Time
}

// NewEvaluator builds an Evaluator over resolver, stamping macro expansions
// with now (spec.md §4.3's "t" macro letter).
func NewEvaluator(resolver dns.Resolver, now time.Time) *Evaluator {
	return &Evaluator{Resolver: resolver, Now: now}
}

// Evaluate runs one top-level SPF evaluation and returns the full outcome,
// including the human-readable trace.
func (e *Evaluator) Evaluate(ctx context.Context, domain, ip, mailFrom, helo string) emailauth.SPFOutcome {
	state := emailauth.NewEvalState(MaxSPFLookups, MaxRecursionDepth)
	return e.EvaluateWithState(ctx, domain, ip, state, mailFrom, helo)
}

// EvaluateWithState runs one top-level SPF evaluation against a
// caller-supplied EvalState, so the orchestrator can share its DNS cache
// with the subsequent DMARC fetch.
func (e *Evaluator) EvaluateWithState(ctx context.Context, domain, ip string, state *emailauth.EvalState, mailFrom, helo string) emailauth.SPFOutcome {
	result, reason := e.evaluate(ctx, domain, ip, state, 0, mailFrom, helo)
	outcome := emailauth.SPFOutcome{Result: result, Reason: reason, Domain: domain, Trace: state.Trace}

	if result == emailauth.ResultFail {
		if record, _, _ := FetchSPF(ctx, e.Resolver, emailauth.NormalizeDomain(domain)); record != nil && record.Exp != nil {
			outcome.Explanation = e.fetchExplanation(ctx, record.Exp.Target, domain, ip, mailFrom, helo, state)
		}
	}
	return outcome
}

func (e *Evaluator) fetchExplanation(ctx context.Context, expTarget, domain, ip, mailFrom, helo string, state *emailauth.EvalState) string {
	env := emailauth.NewMacroEnv(domain, ip, mailFrom, helo, e.Now.Unix())
	target := ExpandMacros(expTarget, env)
	answer := e.Resolver.LookupTXT(ctx, target)
	if answer.Status != emailauth.DNSStatusOK || len(answer.Records) == 0 {
		return ""
	}
	text := ExpandMacros(answer.Records[0], env)
	state.Log("Explanation: %s", text)
	return text
}

func (e *Evaluator) evaluate(ctx context.Context, domain, ip string, state *emailauth.EvalState, depth int, mailFrom, helo string) (emailauth.Result, string) {
	if depth > MaxRecursionDepth {
		return emailauth.ResultPermError, "recursion depth exceeded"
	}
	if net.ParseIP(ip) == nil {
		return emailauth.ResultPermError, "invalid IP address"
	}

	normalized := emailauth.NormalizeDomain(domain)
	if state.Visited[normalized] {
		return emailauth.ResultPermError, "include loop detected"
	}
	state.Visited[normalized] = true

	state.Log("Evaluating SPF for domain: %s", normalized)
	record, noneOrErr, reason := FetchSPF(ctx, e.Resolver, normalized)
	if record == nil {
		if noneOrErr == emailauth.ResultPermError {
			state.Log("SPF record error for %s: %s", normalized, reason)
		}
		return noneOrErr, reason
	}
	state.Log("SPF record: %s", record.Raw)

	env := emailauth.NewMacroEnv(normalized, ip, mailFrom, helo, e.Now.Unix())

	sawAll := false
	for _, mech := range record.Mechanisms {
		if mech.Unknown != "" {
			return emailauth.ResultPermError, "unknown mechanism: " + mech.Unknown
		}
		state.Log("Checking mechanism: %s", mechText(mech))

		matched, result, propagate, propagateReason := e.evalMechanism(ctx, mech, ip, env, state, depth, mailFrom, helo)
		if propagate != "" {
			return propagate, propagateReason
		}
		if matched {
			return result, ""
		}
		if mech.Name == emailauth.MechAll {
			sawAll = true
		}
	}

	if !sawAll && record.Redirect != nil {
		if !state.ConsumeLookup() {
			return emailauth.ResultPermError, "too many DNS lookups"
		}
		target := ExpandMacros(record.Redirect.Target, env)
		state.Log("Redirecting to: %s", target)
		return e.evaluate(ctx, target, ip, state, depth+1, mailFrom, helo)
	}

	return emailauth.ResultNone, ""
}

// evalMechanism returns (matched, result, propagatedError, propagatedReason).
// propagatedError is non-empty only for TEMPERROR/PERMERROR that must
// short-circuit the walk; propagatedReason is its human-readable cause.
func (e *Evaluator) evalMechanism(ctx context.Context, mech emailauth.Mechanism, ip string, env emailauth.MacroEnv, state *emailauth.EvalState, depth int, mailFrom, helo string) (bool, emailauth.Result, emailauth.Result, string) {
	switch mech.Name {
	case emailauth.MechAll:
		return true, mech.Qualifier.ToResult(), "", ""

	case emailauth.MechIP4, emailauth.MechIP6:
		target := mech.Target
		if target == "" {
			return false, "", "", ""
		}
		// splitTargetAndPrefix keeps an ip4/ip6 term's single "/N" in CIDR4.
		prefix := mech.CIDR4
		if cidrContains(target, prefix, ip) {
			return true, mech.Qualifier.ToResult(), "", ""
		}
		return false, "", "", ""

	case emailauth.MechA:
		if !state.ConsumeLookup() {
			return false, "", emailauth.ResultPermError, "too many DNS lookups"
		}
		target := env.D
		if mech.Target != "" {
			target = ExpandMacros(mech.Target, env)
		}
		records, status := dns.LookupHost(ctx, e.Resolver, target)
		if status == emailauth.DNSStatusTransient {
			return false, "", emailauth.ResultTempError, ""
		}
		if hostsContainIP(records, mech.CIDR4, mech.CIDR6, ip) {
			return true, mech.Qualifier.ToResult(), "", ""
		}
		return false, "", "", ""

	case emailauth.MechMX:
		if !state.ConsumeLookup() {
			return false, "", emailauth.ResultPermError, "too many DNS lookups"
		}
		target := env.D
		if mech.Target != "" {
			target = ExpandMacros(mech.Target, env)
		}
		mxAnswer := e.Resolver.LookupMX(ctx, target)
		if mxAnswer.Status == emailauth.DNSStatusTransient {
			return false, "", emailauth.ResultTempError, ""
		}
		if len(mxAnswer.Records) > 10 {
			return false, "", emailauth.ResultPermError, "too many MX records"
		}
		for _, host := range mxAnswer.Records {
			records, status := dns.LookupHost(ctx, e.Resolver, host)
			if status == emailauth.DNSStatusTransient {
				return false, "", emailauth.ResultTempError, ""
			}
			if hostsContainIP(records, mech.CIDR4, mech.CIDR6, ip) {
				return true, mech.Qualifier.ToResult(), "", ""
			}
		}
		return false, "", "", ""

	case emailauth.MechInclude:
		if !state.ConsumeLookup() {
			return false, "", emailauth.ResultPermError, "too many DNS lookups"
		}
		target := ExpandMacros(mech.Target, env)
		sub, subReason := e.evaluate(ctx, target, ip, state, depth+1, mailFrom, helo)
		switch sub {
		case emailauth.ResultPass:
			return true, mech.Qualifier.ToResult(), "", ""
		case emailauth.ResultTempError, emailauth.ResultPermError:
			return false, "", sub, subReason
		default:
			return false, "", "", ""
		}

	case emailauth.MechExists:
		if !state.ConsumeLookup() {
			return false, "", emailauth.ResultPermError, "too many DNS lookups"
		}
		target := ExpandMacros(mech.Target, env)
		state.Log("EXISTS check: %s", target)
		answer := e.Resolver.LookupA(ctx, target)
		if answer.Status == emailauth.DNSStatusTransient {
			return false, "", emailauth.ResultTempError, ""
		}
		if answer.Status == emailauth.DNSStatusOK && len(answer.Records) > 0 {
			return true, mech.Qualifier.ToResult(), "", ""
		}
		return false, "", "", ""

	case emailauth.MechPTR:
		if !state.ConsumeLookup() {
			return false, "", emailauth.ResultPermError, "too many DNS lookups"
		}
		target := env.D
		if mech.Target != "" {
			target = ExpandMacros(mech.Target, env)
		}
		ptrAnswer := e.Resolver.LookupPTR(ctx, ip)
		if ptrAnswer.Status == emailauth.DNSStatusTransient {
			return false, "", emailauth.ResultTempError, ""
		}
		for _, name := range ptrAnswer.Records {
			records, status := dns.LookupHost(ctx, e.Resolver, name)
			if status == emailauth.DNSStatusTransient {
				continue
			}
			if !containsIP(records, ip) {
				continue
			}
			normName := emailauth.NormalizeDomain(name)
			normTarget := emailauth.NormalizeDomain(target)
			if normName == normTarget || strings.HasSuffix(normName, "."+normTarget) {
				return true, mech.Qualifier.ToResult(), "", ""
			}
		}
		return false, "", "", ""
	}
	return false, "", "", ""
}

func mechText(mech emailauth.Mechanism) string {
	var b strings.Builder
	if mech.Qualifier != emailauth.QualifierPass {
		b.WriteByte(byte(mech.Qualifier))
	}
	b.WriteString(string(mech.Name))
	if mech.Target != "" {
		b.WriteByte(':')
		b.WriteString(mech.Target)
	}
	if mech.CIDR4 >= 0 {
		b.WriteString(fmt.Sprintf("/%d", mech.CIDR4))
	}
	if mech.CIDR6 >= 0 {
		b.WriteString(fmt.Sprintf("//%d", mech.CIDR6))
	}
	return b.String()
}

func cidrContains(target string, prefix int, ip string) bool {
	parsed := net.ParseIP(ip)
	base := net.ParseIP(target)
	if parsed == nil || base == nil {
		return false
	}
	bits := 32
	if base.To4() == nil {
		bits = 128
	}
	if prefix < 0 {
		prefix = bits
	}
	_, network, err := net.ParseCIDR(fmt.Sprintf("%s/%d", target, prefix))
	if err != nil {
		return false
	}
	return network.Contains(parsed)
}

func hostsContainIP(hosts []string, cidr4, cidr6 int, ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	isV4 := parsed.To4() != nil
	for _, host := range hosts {
		prefix := cidr4
		if !isV4 {
			prefix = cidr6
		}
		if cidrContains(host, prefix, ip) {
			return true
		}
	}
	return false
}

func containsIP(hosts []string, ip string) bool {
	for _, h := range hosts {
		if h == ip {
			return true
		}
	}
	return false
}
