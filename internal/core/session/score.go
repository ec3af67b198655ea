package session

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ParseScore converts a raw wire score ("10,000", "1.234.500", "000450")
// into an integer. Thousands separators and decimal points are stripped,
// then leading zeros. Empty or unparseable input yields 0 so it drops out
// of any strict-greater max comparison.
func ParseScore(raw string) int64 {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// BestScore returns the maximum parsed score across a set of raw score
// strings. Ties are not distinguished; unparseable entries count as 0.
func BestScore(raw []string) int64 {
	var best int64
	for _, r := range raw {
		if v := ParseScore(r); v > best {
			best = v
		}
	}
	return best
}

// SlotID normalizes a wire player label to a slot identifier: diacritics
// are stripped, a literal "Player" decoration is removed ("Player1" -> "1",
// "Player 2" -> "2"), anything else passes through trimmed.
func SlotID(label string) string {
	label = strings.TrimSpace(stripDiacritics(label))
	if strings.Contains(label, "Player") {
		return strings.TrimSpace(strings.ReplaceAll(label, "Player", ""))
	}
	return label
}

func stripDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if !unicode.Is(unicode.Mn, r) { // Mn = Mark, Nonspacing (combining accents)
			b.WriteRune(r)
		}
	}
	return b.String()
}
