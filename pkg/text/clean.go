package text

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// Ellipsis marks a truncated list entry.
const Ellipsis = "..."

// SplitList splits value on delim, trims each part and drops empty parts.
func SplitList(value, delim string) []string {
	var parts []string
	for _, p := range strings.Split(value, delim) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// cleanTimeout bounds each cleaning pattern on one token.
const cleanTimeout = 100 * time.Millisecond

// rule replaces every match of re with repl.
type rule struct {
	re   *regexp2.Regexp
	repl string
}

func newRule(pattern, repl string) rule {
	re := regexp2.MustCompile(pattern, regexp2.None)
	re.MatchTimeout = cleanTimeout
	return rule{re: re, repl: repl}
}

// tokenRules strip model-year noise in order: year ranges such as
// "2010-2015" or "1998 – 2004", lone years 1900-2099, trailing separators,
// then runs of whitespace. \b and \d follow Unicode, so a year glued to
// Cyrillic text is left alone.
var tokenRules = []rule{
	newRule(`\b(19|20)\d{2}\b\s*[-–—]?\s*\b(19|20)\d{2}\b`, ""),
	newRule(`\b(19|20)\d{2}\b`, ""),
	newRule(`[\s\-–—/:]+$`, ""),
	newRule(`\s{2,}`, " "),
}

// CleanToken strips model-year noise from a list entry. If a pattern fails,
// the token is returned unmodified.
func CleanToken(s string) string {
	out, err := applyRules(tokenRules, s)
	if err != nil {
		return s
	}
	return out
}

func applyRules(rules []rule, s string) (string, error) {
	for _, r := range rules {
		var err error
		if s, err = r.re.Replace(s, r.repl, -1, -1); err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(s), nil
}

// CleanTokens cleans every token and drops those left empty.
func CleanTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if c := CleanToken(t); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Truncate shortens s to maxChars runes, the last three being Ellipsis. At
// least one rune of s is kept. maxChars <= 0 disables truncation.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	keep := max(1, maxChars-len(Ellipsis))
	return string([]rune(s)[:keep]) + Ellipsis
}
