// Package models holds the JSON request/response shapes for the HTTP API.
package models

import "mailauth/domain/emailauth"

// APIError represents an API error response.
type APIError struct {
	Detail string `json:"detail"`
}

// CheckRequest is the JSON body for POST /check (spec.md §6).
type CheckRequest struct {
	Domain      string  `json:"domain"`
	SenderIP    string  `json:"sender_ip"`
	MailFrom    *string `json:"mail_from"`
	Helo        *string `json:"helo"`
	RawEmailB64 *string `json:"raw_email_b64"`
}

// SPFResponse is the SPF sub-object of a CheckResponse.
type SPFResponse struct {
	Result      string   `json:"result"`
	Domain      string   `json:"domain"`
	Trace       []string `json:"trace"`
	Explanation string   `json:"explanation,omitempty"`
}

// FromSPFOutcome converts the domain SPF outcome to its API response shape.
func FromSPFOutcome(outcome emailauth.SPFOutcome) SPFResponse {
	return SPFResponse{
		Result:      string(outcome.Result),
		Domain:      outcome.Domain,
		Trace:       outcome.Trace,
		Explanation: outcome.Explanation,
	}
}

// DKIMSignatureResponse is one retained DKIM-Signature header.
type DKIMSignatureResponse struct {
	D string `json:"d"`
	S string `json:"s"`
	A string `json:"a,omitempty"`
	C string `json:"c,omitempty"`
}

// DKIMResponse is the DKIM sub-object of a CheckResponse.
type DKIMResponse struct {
	Result     string                  `json:"result"`
	Present    bool                    `json:"present"`
	SelectedD  string                  `json:"selected_d,omitempty"`
	Signatures []DKIMSignatureResponse `json:"signatures"`
	Trace      []string                `json:"trace"`
}

// FromDKIMOutcome converts the domain DKIM outcome to its API response shape.
func FromDKIMOutcome(outcome emailauth.DKIMOutcome) DKIMResponse {
	signatures := make([]DKIMSignatureResponse, 0, len(outcome.Signatures))
	for _, sig := range outcome.Signatures {
		signatures = append(signatures, DKIMSignatureResponse{D: sig.D, S: sig.S, A: sig.A, C: sig.C})
	}
	return DKIMResponse{
		Result:     string(outcome.Verifier.Result),
		Present:    outcome.Verifier.Present,
		SelectedD:  outcome.SelectedD,
		Signatures: signatures,
		Trace:      outcome.Trace,
	}
}

// DMARCResponse is the DMARC sub-object of a CheckResponse.
type DMARCResponse struct {
	Result      string `json:"result"`
	Enforcement string `json:"enforcement"`
	Policy      string `json:"policy,omitempty"`
	SPFAligned  bool   `json:"spf_aligned"`
	DKIMAligned bool   `json:"dkim_aligned"`
	Reason      string `json:"reason,omitempty"`
}

// FromDMARCOutcome converts the domain DMARC outcome to its API response shape.
func FromDMARCOutcome(outcome emailauth.DMARCOutcome) DMARCResponse {
	policy := ""
	if outcome.Policy != nil {
		policy = outcome.Policy.P
	}
	return DMARCResponse{
		Result:      string(outcome.Result),
		Enforcement: string(outcome.Enforcement),
		Policy:      policy,
		SPFAligned:  outcome.SPFAligned,
		DKIMAligned: outcome.DKIMAligned,
		Reason:      outcome.Reason,
	}
}

// CheckResponse is the JSON body returned by a successful POST /check.
type CheckResponse struct {
	RequestID  string        `json:"request_id"`
	Domain     string        `json:"domain"`
	HeaderFrom string        `json:"header_from"`
	SPF        SPFResponse   `json:"spf"`
	DKIM       DKIMResponse  `json:"dkim"`
	DMARC      DMARCResponse `json:"dmarc"`
}

// FromVerdict converts the orchestrator's aggregate Verdict to the API's
// wire representation.
func FromVerdict(v *emailauth.Verdict) *CheckResponse {
	return &CheckResponse{
		RequestID:  v.RequestID,
		Domain:     v.Domain,
		HeaderFrom: v.HeaderFrom,
		SPF:        FromSPFOutcome(v.SPF),
		DKIM:       FromDKIMOutcome(v.DKIM),
		DMARC:      FromDMARCOutcome(v.DMARC),
	}
}
