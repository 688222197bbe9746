package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Pair is a currency pair written as "FROM/TO", e.g. "EUR/USD".
type Pair string

var (
	codeRe = regexp.MustCompile(`^[A-Z]{3}$`)
	pairRe = regexp.MustCompile(`^[A-Z]{3}/[A-Z]{3}$`)
)

// NormalizeCode upper-cases and trims a currency code.
func NormalizeCode(c string) string { return strings.ToUpper(strings.TrimSpace(c)) }

// ValidCode reports whether c looks like an ISO-4217 code.
func ValidCode(c string) bool { return codeRe.MatchString(c) }

func ValidatePair(p string) bool {
	if !pairRe.MatchString(p) {
		return false
	}
	return p[:3] != p[4:]
}

func SplitPair(p string) (from, to string, ok bool) {
	if !ValidatePair(p) {
		return "", "", false
	}
	return p[:3], p[4:], true
}

func (p Pair) From() string { return string(p)[:3] }
func (p Pair) To() string   { return string(p)[4:] }

// ParsePairs parses a comma separated list such as "EUR/USD, EUR/GBP".
// Blank entries are ignored.
func ParsePairs(s string) ([]Pair, error) {
	var out []Pair
	for _, raw := range strings.Split(s, ",") {
		p := strings.ToUpper(strings.TrimSpace(raw))
		if p == "" {
			continue
		}
		if !ValidatePair(p) {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedPair, raw)
		}
		out = append(out, Pair(p))
	}
	return out, nil
}
