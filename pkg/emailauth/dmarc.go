package emailauth

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"strconv"
	"strings"

	"golang.org/x/net/publicsuffix"

	"mailauth/domain/emailauth"
	"mailauth/pkg/dns"
)

// orgDomain returns the effective-TLD+1 organizational domain for domain,
// falling back to the last two labels when the public suffix list can't
// place it (grounded on happyDomain-happydeliver's header analyzer).
func orgDomain(domain string) string {
	domain = emailauth.NormalizeDomain(domain)
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(domain); err == nil {
		return etld1
	}
	labels := strings.Split(domain, ".")
	if len(labels) <= 2 {
		return domain
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// aligned implements spec.md §4.7's alignment predicate.
func aligned(authDomain, fromDomain, mode string) bool {
	if authDomain == "" {
		return false
	}
	authDomain = emailauth.NormalizeDomain(authDomain)
	fromDomain = emailauth.NormalizeDomain(fromDomain)
	if mode == "s" {
		return authDomain == fromDomain
	}
	return orgDomain(authDomain) == orgDomain(fromDomain)
}

// fetchDMARC implements the two-step fetch order: _dmarc.<headerFrom>, then
// _dmarc.<orgDomain>.
func fetchDMARC(ctx context.Context, resolver dns.Resolver, headerFrom string) (*emailauth.DmarcPolicy, emailauth.Result, string) {
	org := orgDomain(headerFrom)
	for _, candidate := range []string{headerFrom, org} {
		answer := resolver.LookupTXT(ctx, "_dmarc."+candidate)
		if answer.Status == emailauth.DNSStatusTransient {
			return nil, emailauth.ResultTempError, "transient DNS error fetching DMARC record"
		}
		if answer.Status != emailauth.DNSStatusOK {
			continue
		}

		var matches []string
		for _, txt := range answer.Records {
			unquoted := strings.Trim(txt, `"`)
			fields := strings.SplitN(unquoted, ";", 2)
			if len(fields) == 0 {
				continue
			}
			if strings.EqualFold(strings.TrimSpace(fields[0]), "v=dmarc1") {
				matches = append(matches, unquoted)
			}
		}
		if len(matches) == 0 {
			continue
		}
		if len(matches) > 1 {
			return nil, emailauth.ResultPermError, "multiple DMARC records"
		}

		policy := parseDMARCPolicy(matches[0])
		policy.LocatedAt = candidate
		policy.AtOrgDomain = candidate != headerFrom
		return policy, "", ""
	}
	return nil, emailauth.ResultNone, "no DMARC record"
}

func parseDMARCPolicy(raw string) *emailauth.DmarcPolicy {
	policy := &emailauth.DmarcPolicy{ASPF: "r", ADKIM: "r", Pct: 100}
	for _, tag := range strings.Split(raw, ";") {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		idx := strings.IndexByte(tag, '=')
		if idx < 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(tag[:idx]))
		value := strings.TrimSpace(tag[idx+1:])
		switch name {
		case "p":
			policy.P = strings.ToLower(value)
		case "sp":
			policy.SP = strings.ToLower(value)
		case "aspf":
			policy.ASPF = strings.ToLower(value)
		case "adkim":
			policy.ADKIM = strings.ToLower(value)
		case "pct":
			if n, err := strconv.Atoi(value); err == nil {
				policy.Pct = n
			}
		}
	}
	return policy
}

// operativePolicy returns the policy letter (p or sp) that applies to
// headerFrom, honoring the org-domain sp fallback.
func operativePolicy(policy *emailauth.DmarcPolicy) string {
	if policy.AtOrgDomain && policy.SP != "" {
		return policy.SP
	}
	return policy.P
}

// bucket computes spec.md §4.7's deterministic sampling bucket in [1,100].
func bucket(domain string) int {
	sum := sha256.Sum256([]byte(domain))
	v := binary.BigEndian.Uint16(sum[:2])
	return int(v)%100 + 1
}

// EvaluateDMARC runs the DMARC alignment and enforcement calculus for one
// message against the already-computed SPF and DKIM outcomes.
func EvaluateDMARC(ctx context.Context, resolver dns.Resolver, headerFrom, spfDomain string, spfResult emailauth.Result, dkimResult emailauth.Result, selectedDkimD string) emailauth.DMARCOutcome {
	headerFrom = emailauth.NormalizeDomain(headerFrom)
	policy, status, reason := fetchDMARC(ctx, resolver, headerFrom)
	if policy == nil {
		switch status {
		case emailauth.ResultTempError:
			return emailauth.DMARCOutcome{Result: emailauth.ResultTempError, Enforcement: emailauth.EnforcementAllow, Reason: reason}
		case emailauth.ResultPermError:
			return emailauth.DMARCOutcome{Result: emailauth.ResultPermError, Enforcement: emailauth.EnforcementAllow, Reason: reason}
		default:
			return emailauth.DMARCOutcome{
				Result:      emailauth.ResultNone,
				Enforcement: emailauth.EnforcementAllow,
				Policy:      &emailauth.DmarcPolicy{P: "none"},
				Reason:      reason,
			}
		}
	}

	spfAligned := spfResult == emailauth.ResultPass && aligned(spfDomain, headerFrom, policy.ASPF)
	dkimAligned := dkimResult == emailauth.ResultPass && aligned(selectedDkimD, headerFrom, policy.ADKIM)

	outcome := emailauth.DMARCOutcome{
		Policy:      policy,
		SPFAligned:  spfAligned,
		DKIMAligned: dkimAligned,
	}

	if spfAligned || dkimAligned {
		outcome.Result = emailauth.ResultPass
		outcome.Enforcement = emailauth.EnforcementAllow
		outcome.Reason = "aligned pass"
		return outcome
	}

	outcome.Result = emailauth.ResultFail
	b := bucket(headerFrom)
	if b > policy.Pct {
		outcome.Enforcement = emailauth.EnforcementPctSampling
		outcome.Reason = "sampled out by pct"
		return outcome
	}

	switch operativePolicy(policy) {
	case "quarantine":
		outcome.Enforcement = emailauth.EnforcementQuarantine
	case "reject":
		outcome.Enforcement = emailauth.EnforcementReject
	default:
		outcome.Enforcement = emailauth.EnforcementMonitoring
	}
	outcome.Reason = "not aligned"
	return outcome
}
