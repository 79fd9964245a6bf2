package emailauth

import (
	"strings"

	"mailauth/domain/emailauth"
)

// headerBlock returns the raw header section of message: every byte before
// the first blank line, which may be delimited by CRLFCRLF or a bare LFLF.
func headerBlock(message []byte) string {
	raw := string(message)
	if idx := strings.Index(raw, "\r\n\r\n"); idx >= 0 {
		return raw[:idx]
	}
	if idx := strings.Index(raw, "\n\n"); idx >= 0 {
		return raw[:idx]
	}
	return raw
}

// unfoldHeaders collapses folded header continuation lines (CRLF or LF
// followed by space/tab) into a single space, then splits on line breaks to
// yield one unfolded "Name: value" string per header.
func unfoldHeaders(block string) []string {
	block = strings.ReplaceAll(block, "\r\n", "\n")
	var unfolded strings.Builder
	for i := 0; i < len(block); i++ {
		if block[i] == '\n' && i+1 < len(block) && (block[i+1] == ' ' || block[i+1] == '\t') {
			unfolded.WriteByte(' ')
			continue
		}
		unfolded.WriteByte(block[i])
	}
	lines := strings.Split(unfolded.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

func headerValue(line string) (name, value string, ok bool) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}

// ExtractSignatures parses every DKIM-Signature header in message and keeps
// only those carrying both a "d" and an "s" tag, per spec.md §4.5.
func ExtractSignatures(message []byte) []emailauth.DkimSignature {
	lines := unfoldHeaders(headerBlock(message))
	var signatures []emailauth.DkimSignature

	for _, line := range lines {
		name, value, ok := headerValue(line)
		if !ok || !strings.EqualFold(name, "DKIM-Signature") {
			continue
		}
		tags := parseTags(value)
		d, hasD := tags["d"]
		s, hasS := tags["s"]
		if !hasD || !hasS {
			continue
		}
		signatures = append(signatures, emailauth.DkimSignature{
			D:   strings.ToLower(d),
			S:   s,
			A:   tags["a"],
			C:   tags["c"],
			Raw: value,
		})
	}
	return signatures
}

func parseTags(value string) map[string]string {
	tags := make(map[string]string)
	for _, pair := range strings.Split(value, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idx := strings.IndexByte(pair, '=')
		if idx < 0 {
			continue
		}
		tag := strings.ToLower(strings.TrimSpace(pair[:idx]))
		tags[tag] = strings.TrimSpace(pair[idx+1:])
	}
	return tags
}

// ExtractArc finds the first ARC-Seal and ARC-Authentication-Results
// headers. ARC metadata is informational only; it never affects the DKIM or
// DMARC result.
func ExtractArc(message []byte) emailauth.ArcInfo {
	lines := unfoldHeaders(headerBlock(message))
	var info emailauth.ArcInfo

	for _, line := range lines {
		name, value, ok := headerValue(line)
		if !ok {
			continue
		}
		switch {
		case strings.EqualFold(name, "ARC-Seal"):
			info.Count++
			if !info.Present {
				info.Present = true
				info.Signer = strings.ToLower(parseTags(value)["d"])
			}
		case strings.EqualFold(name, "ARC-Authentication-Results") && info.AAR == "":
			info.AAR = value
		}
	}
	return info
}

// SelectIdentity picks the signature whose d best aligns with headerFrom,
// per spec.md §4.5: prefer a d equal to, or a parent domain of, headerFrom;
// otherwise fall back to the first signature in header order.
func SelectIdentity(signatures []emailauth.DkimSignature, headerFrom string) string {
	if len(signatures) == 0 {
		return ""
	}
	headerFrom = strings.ToLower(headerFrom)
	for _, sig := range signatures {
		if sig.D == headerFrom || strings.HasSuffix(headerFrom, "."+sig.D) {
			return sig.D
		}
	}
	return signatures[0].D
}

// Verifier is the black-box cryptographic boundary spec.md §4.6 describes:
// given raw message bytes, it reports whether any retained signature
// verifies, without this package needing to know how.
type Verifier interface {
	Verify(message []byte, signatures []emailauth.DkimSignature) emailauth.DkimVerifierOutcome
}

// InventoryOnlyVerifier is a conservative Verifier: it never performs
// cryptographic verification. It reports NONE when there are no retained
// signatures, PERMERROR when any retained signature lacks an "a" tag, and
// PASS otherwise; the "c" tag is not examined. It exists so the orchestrator
// has a working default adapter; production deployments should supply a
// Verifier backed by an actual DKIM cryptographic library.
type InventoryOnlyVerifier struct{}

func (InventoryOnlyVerifier) Verify(_ []byte, signatures []emailauth.DkimSignature) emailauth.DkimVerifierOutcome {
	if len(signatures) == 0 {
		return emailauth.DkimVerifierOutcome{Present: false, Result: emailauth.ResultNone}
	}
	for _, sig := range signatures {
		if sig.A == "" {
			return emailauth.DkimVerifierOutcome{Present: true, Result: emailauth.ResultPermError}
		}
	}
	return emailauth.DkimVerifierOutcome{Present: true, Result: emailauth.ResultPass}
}

// Inventory runs the signature/ARC extraction and identity selection for one
// message, then asks verifier for the cryptographic verdict.
func Inventory(message []byte, headerFrom string, verifier Verifier) emailauth.DKIMOutcome {
	signatures := ExtractSignatures(message)
	arc := ExtractArc(message)
	outcome := emailauth.DKIMOutcome{
		Signatures: signatures,
		Arc:        arc,
		SelectedD:  SelectIdentity(signatures, headerFrom),
	}
	outcome.Verifier = verifier.Verify(message, signatures)
	outcome.Trace = append(outcome.Trace, traceLine(outcome.SelectedD, arc))
	return outcome
}

func traceLine(selected string, arc emailauth.ArcInfo) string {
	if selected == "" {
		if arc.Present {
			return "DKIM: no retained signatures (ARC present, informational only)"
		}
		return "DKIM: no retained signatures"
	}
	return "DKIM: " + selected + " selected for alignment"
}
