package services

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// normalizeEnum upper-cases an enum value so "dog" and "Dog" store as "DOG".
// Casers are stateful, so one is built per call.
func normalizeEnum(s string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(s))
}

func normalizeEnums(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = normalizeEnum(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// normalizeName trims, collapses inner whitespace and lower-cases a label.
func normalizeName(s string) string {
	return cases.Lower(language.Und).String(strings.Join(strings.Fields(s), " "))
}
