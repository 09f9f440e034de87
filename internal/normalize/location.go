package normalize

import (
	"strings"
	"unicode"
)

// ParsedLocation is the best-effort split of a raw location string. Any
// component may be empty; Raw always carries the original input trimmed.
type ParsedLocation struct {
	City        string
	Region      string
	CountryCode string
	Raw         string
}

// IsEmpty reports whether the parse produced no usable tuple component.
func (l ParsedLocation) IsEmpty() bool {
	return l.City == "" && l.Region == "" && l.CountryCode == ""
}

// Location parses a raw provider location string into a (city, region,
// country_code) tuple. The parser is a heuristic: it splits on commas,
// recognizes a trailing 2-letter token as a country code, and returns
// partial tuples when ambiguous. It never fails; empty input yields an
// all-empty tuple.
func Location(raw string) ParsedLocation {
	loc := ParsedLocation{Raw: strings.TrimSpace(raw)}
	if loc.Raw == "" {
		return loc
	}

	parts := []string{}
	for _, p := range strings.Split(loc.Raw, ",") {
		p = collapseSpaces(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return loc
	}

	last := parts[len(parts)-1]
	if isCountryCode(last) {
		loc.CountryCode = strings.ToUpper(last)
		parts = parts[:len(parts)-1]
	}

	switch len(parts) {
	case 0:
	case 1:
		loc.City = parts[0]
	default:
		loc.City = parts[0]
		// Everything between city and country code is treated as region;
		// "San Francisco, CA, US" and "Berlin, Berlin, DE" both land here.
		loc.Region = strings.Join(parts[1:], ", ")
	}

	return loc
}

// isCountryCode reports whether the token is exactly two ASCII letters.
func isCountryCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
