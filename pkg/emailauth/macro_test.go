package emailauth

import (
	"testing"

	"mailauth/domain/emailauth"
)

func testEnv() emailauth.MacroEnv {
	return emailauth.NewMacroEnv("example.com", "192.0.2.10", "strong-bad@email.example.com", "mail.example.com", 1110327329)
}

func TestExpandMacrosBasics(t *testing.T) {
	cases := []struct {
		name     string
		template string
		want     string
	}{
		{"sender", "%{s}", "strong-bad@email.example.com"},
		{"local-part", "%{l}", "strong-bad"},
		{"domain-of-sender", "%{o}", "email.example.com"},
		{"current-domain", "%{d}", "example.com"},
		{"reversed-domain", "%{dr}", "com.example"},
		{"truncated-domain", "%{d2}", "example.com"},
		{"literal-percent", "%%_test", "%_test"},
		{"literal-underscore", "%_", " "},
		{"literal-dash", "%-", "-"},
		{"unknown-letter", "%{z}", ""},
	}
	env := testEnv()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExpandMacros(tc.template, env)
			if got != tc.want {
				t.Errorf("ExpandMacros(%q) = %q, want %q", tc.template, got, tc.want)
			}
		})
	}
}

func TestExpandMacrosDTruncationKeepsLastNLabels(t *testing.T) {
	env := emailauth.NewMacroEnv("a.b.c.example.com", "192.0.2.1", "", "", 0)
	got := ExpandMacros("%{d2}", env)
	if got != "example.com" {
		t.Errorf("got %q, want %q", got, "example.com")
	}
}

func TestExpandMacrosIPv6DefaultsToColonDelimiter(t *testing.T) {
	// The "i" letter defaults to splitting on ":" for an IPv6 address
	// instead of ".", and the parts are always rejoined with ".".
	env := emailauth.NewMacroEnv("example.com", "2001:db8::1", "", "", 0)
	got := ExpandMacros("%{i}", env)
	want := "2001.db8.1"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExpandMacrosMalformedBraceConsumesOneByte(t *testing.T) {
	// No closing brace: only the "%" is swallowed, the "{" and everything
	// after it is copied through literally.
	env := testEnv()
	got := ExpandMacros("%{unterminated", env)
	if got != "{unterminated" {
		t.Errorf("got %q, want %q", got, "{unterminated")
	}
}

func TestExpandMacrosReverseAfterTruncation(t *testing.T) {
	env := emailauth.NewMacroEnv("a.b.c.example.com", "192.0.2.1", "", "", 0)
	got := ExpandMacros("%{d2r}", env)
	if got != "com.example" {
		t.Errorf("got %q, want %q", got, "com.example")
	}
}

func TestExpandMacrosEmptyTemplate(t *testing.T) {
	if got := ExpandMacros("", testEnv()); got != "" {
		t.Errorf("got %q, want empty string", got)
	}
}
