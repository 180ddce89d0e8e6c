package utils

import (
	"regexp"
	"strings"
)

// BloodGroups lists the categories a facility can offer, in display order.
var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

var (
	groupPattern = regexp.MustCompile(`^(AB|A|B|O)\s*(\+|-|POS(ITIVE)?|NEG(ATIVE)?|\+VE|-VE|VE\+|VE-)$`)
	spaceRun     = regexp.MustCompile(`\s+`)
)

// NormalizeBloodGroup turns the spellings found in upstream records
// ("o pos", "O +ve", "ab negative", "B+") into the canonical form used by the
// facility directory. Unknown input is returned trimmed and upper-cased so
// that it simply never matches.
func NormalizeBloodGroup(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = spaceRun.ReplaceAllString(s, " ")
	if s == "" {
		return ""
	}

	m := groupPattern.FindStringSubmatch(s)
	if m == nil {
		return s
	}

	sign := "+"
	switch {
	case m[2] == "-", strings.HasPrefix(m[2], "NEG"), m[2] == "-VE", m[2] == "VE-":
		sign = "-"
	}
	return m[1] + sign
}

// IsValidBloodGroup reports whether raw normalizes to a known blood group.
func IsValidBloodGroup(raw string) bool {
	normalized := NormalizeBloodGroup(raw)
	for _, g := range BloodGroups {
		if g == normalized {
			return true
		}
	}
	return false
}
