package emailauth

import (
	"strings"
	"testing"

	"mailauth/domain/emailauth"
)

func buildMessage(headers, body string) []byte {
	return []byte(headers + "\r\n\r\n" + body)
}

func TestExtractSignaturesRequiresDAndS(t *testing.T) {
	msg := buildMessage(strings.Join([]string{
		"DKIM-Signature: v=1; a=rsa-sha256; d=example.com; s=selector1; c=relaxed/relaxed",
		"DKIM-Signature: v=1; a=rsa-sha256; s=selector2",
		"Subject: hello",
	}, "\r\n"), "body")

	sigs := ExtractSignatures(msg)
	if len(sigs) != 1 {
		t.Fatalf("got %d signatures, want 1 (missing d= must be dropped): %+v", len(sigs), sigs)
	}
	if sigs[0].D != "example.com" || sigs[0].S != "selector1" {
		t.Errorf("got d=%q s=%q, want d=example.com s=selector1", sigs[0].D, sigs[0].S)
	}
	if sigs[0].A != "rsa-sha256" || sigs[0].C != "relaxed/relaxed" {
		t.Errorf("got a=%q c=%q, unexpected", sigs[0].A, sigs[0].C)
	}
}

func TestExtractSignaturesUnfoldsContinuationLines(t *testing.T) {
	msg := buildMessage(
		"DKIM-Signature: v=1; a=rsa-sha256; d=example.com;\r\n s=selector1; c=relaxed/relaxed",
		"body",
	)
	sigs := ExtractSignatures(msg)
	if len(sigs) != 1 {
		t.Fatalf("got %d signatures, want 1", len(sigs))
	}
	if sigs[0].D != "example.com" || sigs[0].S != "selector1" {
		t.Errorf("folded header not unfolded correctly: %+v", sigs[0])
	}
}

func TestExtractSignaturesLowercasesD(t *testing.T) {
	msg := buildMessage("DKIM-Signature: v=1; d=EXAMPLE.COM; s=sel", "body")
	sigs := ExtractSignatures(msg)
	if len(sigs) != 1 || sigs[0].D != "example.com" {
		t.Fatalf("got %+v, want d=example.com", sigs)
	}
}

func TestExtractSignaturesNoneFound(t *testing.T) {
	msg := buildMessage("Subject: hello\r\nFrom: a@example.com", "body")
	sigs := ExtractSignatures(msg)
	if len(sigs) != 0 {
		t.Fatalf("got %d signatures, want 0", len(sigs))
	}
}

func TestExtractArcCountsSealsAndCapturesFirstSigner(t *testing.T) {
	msg := buildMessage(strings.Join([]string{
		"ARC-Seal: i=1; a=rsa-sha256; d=first.example.com; s=sel",
		"ARC-Authentication-Results: i=1; mx.example.com; spf=pass",
		"ARC-Seal: i=2; a=rsa-sha256; d=second.example.com; s=sel",
	}, "\r\n"), "body")

	arc := ExtractArc(msg)
	if !arc.Present {
		t.Fatal("want Present=true")
	}
	if arc.Count != 2 {
		t.Errorf("got Count=%d, want 2", arc.Count)
	}
	if arc.Signer != "first.example.com" {
		t.Errorf("got Signer=%q, want first.example.com (first ARC-Seal wins)", arc.Signer)
	}
	if arc.AAR == "" {
		t.Error("want AAR captured from ARC-Authentication-Results")
	}
}

func TestExtractArcAbsent(t *testing.T) {
	msg := buildMessage("Subject: hello", "body")
	arc := ExtractArc(msg)
	if arc.Present || arc.Count != 0 {
		t.Errorf("got %+v, want zero value", arc)
	}
}

func TestSelectIdentityExactMatch(t *testing.T) {
	sigs := []emailauth.DkimSignature{
		{D: "other.com", S: "s1"},
		{D: "example.com", S: "s2"},
	}
	got := SelectIdentity(sigs, "example.com")
	if got != "example.com" {
		t.Errorf("got %q, want example.com", got)
	}
}

func TestSelectIdentityParentDomainMatch(t *testing.T) {
	sigs := []emailauth.DkimSignature{
		{D: "example.com", S: "s1"},
	}
	got := SelectIdentity(sigs, "mail.example.com")
	if got != "example.com" {
		t.Errorf("got %q, want example.com (parent-domain alignment)", got)
	}
}

func TestSelectIdentityFallsBackToFirstSignature(t *testing.T) {
	sigs := []emailauth.DkimSignature{
		{D: "thirdparty.com", S: "s1"},
		{D: "other.com", S: "s2"},
	}
	got := SelectIdentity(sigs, "example.com")
	if got != "thirdparty.com" {
		t.Errorf("got %q, want thirdparty.com (first signature fallback)", got)
	}
}

func TestSelectIdentityNoSignatures(t *testing.T) {
	if got := SelectIdentity(nil, "example.com"); got != "" {
		t.Errorf("got %q, want empty string", got)
	}
}

func TestInventoryOnlyVerifierNoSignatures(t *testing.T) {
	out := InventoryOnlyVerifier{}.Verify([]byte("body"), nil)
	if out.Present || out.Result != emailauth.ResultNone {
		t.Errorf("got %+v, want Present=false Result=NONE", out)
	}
}

func TestInventoryOnlyVerifierMissingAlgorithmIsPermError(t *testing.T) {
	sigs := []emailauth.DkimSignature{{D: "example.com", S: "sel", A: ""}}
	out := InventoryOnlyVerifier{}.Verify([]byte("body"), sigs)
	if !out.Present || out.Result != emailauth.ResultPermError {
		t.Errorf("got %+v, want Present=true Result=PERMERROR", out)
	}
}

func TestInventoryOnlyVerifierWellFormedPasses(t *testing.T) {
	sigs := []emailauth.DkimSignature{{D: "example.com", S: "sel", A: "rsa-sha256"}}
	out := InventoryOnlyVerifier{}.Verify([]byte("body"), sigs)
	if !out.Present || out.Result != emailauth.ResultPass {
		t.Errorf("got %+v, want Present=true Result=PASS", out)
	}
}

func TestInventoryEndToEnd(t *testing.T) {
	msg := buildMessage(strings.Join([]string{
		"From: user@example.com",
		"DKIM-Signature: v=1; a=rsa-sha256; d=example.com; s=selector1",
	}, "\r\n"), "body")

	out := Inventory(msg, "example.com", InventoryOnlyVerifier{})
	if out.SelectedD != "example.com" {
		t.Errorf("got SelectedD=%q, want example.com", out.SelectedD)
	}
	if out.Verifier.Result != emailauth.ResultPass {
		t.Errorf("got Verifier.Result=%s, want PASS", out.Verifier.Result)
	}
	if len(out.Trace) != 1 || !strings.Contains(out.Trace[0], "example.com") {
		t.Errorf("got Trace=%v, want a line naming the selected identity", out.Trace)
	}
}

func TestInventoryNoRetainedSignatures(t *testing.T) {
	msg := buildMessage("From: user@example.com", "body")
	out := Inventory(msg, "example.com", InventoryOnlyVerifier{})
	if out.SelectedD != "" {
		t.Errorf("got SelectedD=%q, want empty", out.SelectedD)
	}
	if out.Verifier.Present {
		t.Error("want Verifier.Present=false when no signatures retained")
	}
}
