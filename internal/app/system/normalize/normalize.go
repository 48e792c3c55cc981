// Package normalize trims and canonicalizes raw form input.
package normalize

import "strings"

// Text trims surrounding whitespace.
func Text(s string) string {
	return strings.TrimSpace(s)
}

// Name trims and collapses inner runs of whitespace. Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Language lowercases and trims a language code.
func Language(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// List splits input on commas, semicolons and newlines into Name-normalized
// entries, dropping empties and case-insensitive duplicates. The result is
// never nil.
func List(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' || r == ';' })
	out := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		f = Name(f)
		k := strings.ToLower(f)
		if f == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, f)
	}
	return out
}
