package normalize

import (
	"net/url"
	"strings"
)

// ValidateURL validates and canonicalizes a URL string, prepending
// "https://" when no scheme is present. It returns "" when the input is
// empty, the host is empty, or the host contains whitespace.
func ValidateURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if host == "" || strings.ContainsAny(host, " \t") {
		return ""
	}
	// A host of only dots has no label to resolve.
	if strings.Trim(host, ".") == "" {
		return ""
	}

	return u.String()
}
