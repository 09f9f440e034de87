// Package normalize contains the pure cleaning/parsing functions that turn
// raw provider fields into canonical values. No I/O happens here.
package normalize

import (
	"errors"
	"strings"
	"unicode"
)

// ErrCompanyNameRequired is returned when the raw company name is empty
// after trimming.
var ErrCompanyNameRequired = errors.New("company name required")

// NormalizedCompany is the canonical company shape produced from raw
// provider fields.
type NormalizedCompany struct {
	Name       string
	Website    string
	LogoURL    string
	Industries []string
}

// Company cleans raw company fields. The name is trimmed, inner whitespace
// collapsed, and title-cased only when the input is all-uppercase or
// all-lowercase. Website and logo URL are validated and silently dropped
// when invalid. Industries is a comma-separated string parsed into a
// deduplicated sequence preserving input order.
func Company(name, website, logoURL, industries string) (*NormalizedCompany, error) {
	cleaned := collapseSpaces(name)
	if cleaned == "" {
		return nil, ErrCompanyNameRequired
	}

	if isAllUpper(cleaned) || isAllLower(cleaned) {
		cleaned = titleCase(cleaned)
	}

	return &NormalizedCompany{
		Name:       cleaned,
		Website:    ValidateURL(website),
		LogoURL:    ValidateURL(logoURL),
		Industries: Industries(industries),
	}, nil
}

// Industries parses a comma-separated industry string into a deduplicated
// slice preserving input order. Empty input yields an empty slice.
func Industries(raw string) []string {
	out := []string{}
	if strings.TrimSpace(raw) == "" {
		return out
	}
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = collapseSpaces(part)
		if part == "" {
			continue
		}
		key := strings.ToLower(part)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, part)
	}
	return out
}

// collapseSpaces trims the string and collapses runs of inner whitespace to
// a single space.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func isAllLower(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

// titleCase uppercases the first letter of every space-separated word and
// lowercases the rest.
func titleCase(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
