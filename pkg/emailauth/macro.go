package emailauth

import (
	"net"
	"regexp"
	"strings"

	"mailauth/domain/emailauth"
)

// macroTerm matches the body of a %{...} expansion: one letter, an
// optional decimal width, an optional reverse flag, and optional delimiter
// characters — grounded on the reference evaluator's expand_macros regex.
var macroTerm = regexp.MustCompile(`^([A-Za-z])(\d+)?(r)?(.*)$`)

// ExpandMacros expands the SPF macro language (spec.md §4.3) against env.
// Domains in env are used verbatim: callers are responsible for normalizing
// (lowercasing, trailing-dot stripping) before building the environment, so
// expansion stays a pure string transform with no hidden side effects.
func ExpandMacros(template string, env emailauth.MacroEnv) string {
	if template == "" {
		return template
	}

	value := func(letter byte) string {
		switch letter {
		case 's', 'S':
			return env.S
		case 'l', 'L':
			return env.L
		case 'o', 'O':
			return env.O
		case 'd', 'D':
			return env.D
		case 'i', 'I':
			return env.I
		case 'h', 'H':
			return env.H
		case 'c', 'C':
			return env.C
		case 'r', 'R':
			return env.R
		case 't', 'T':
			return env.T
		case 'v', 'V':
			return env.V
		default:
			return ""
		}
	}

	var out strings.Builder
	i := 0
	for i < len(template) {
		if template[i] != '%' {
			out.WriteByte(template[i])
			i++
			continue
		}
		if i+1 >= len(template) {
			i++
			continue
		}
		next := template[i+1]
		switch next {
		case '%':
			out.WriteByte('%')
			i += 2
			continue
		case '_':
			out.WriteByte(' ')
			i += 2
			continue
		case '-':
			out.WriteByte('-')
			i += 2
			continue
		case '{':
			end := strings.IndexByte(template[i+2:], '}')
			if end == -1 {
				// Malformed %{...} without a closing brace: skip one byte.
				i++
				continue
			}
			inner := template[i+2 : i+2+end]
			i = i + 2 + end + 1

			m := macroTerm.FindStringSubmatch(inner)
			if m == nil {
				continue
			}
			letter, numStr, reverse, delims := m[1], m[2], m[3] == "r", m[4]
			raw := value(letter[0])

			if delims == "" {
				delims = defaultDelimiters(letter[0], env)
			}
			parts := splitAny(raw, delims)

			if numStr != "" {
				n := atoiSafe(numStr)
				if n > 0 && n < len(parts) {
					parts = parts[len(parts)-n:]
				}
			}
			if reverse {
				reverseStrings(parts)
			}
			out.WriteString(joinNonEmpty(parts))
			continue
		default:
			out.WriteString(value(next))
			i += 2
		}
	}
	return out.String()
}

// defaultDelimiters mirrors the reference evaluator: every letter defaults
// to "." except "i", whose default splits on ":" when env carries an IPv6
// address.
func defaultDelimiters(letter byte, env emailauth.MacroEnv) string {
	if letter != 'i' && letter != 'I' {
		return "."
	}
	if parsed := net.ParseIP(env.I); parsed != nil && parsed.To4() == nil {
		return ":"
	}
	return "."
}

func splitAny(s, delims string) []string {
	if s == "" {
		return nil
	}
	return strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(delims, r)
	})
}

func joinNonEmpty(parts []string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ".")
}

func reverseStrings(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
