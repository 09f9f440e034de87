package normalize

import (
	"html"
	"regexp"
	"strings"
)

var (
	lineBreakRe = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockEndRe  = regexp.MustCompile(`(?i)</(p|div|li|ul|ol|h[1-6]|tr|table|section|article)>`)
	tagRe       = regexp.MustCompile(`<[^>]+>`)
)

// Description strips HTML from a raw job description, decodes entities, and
// collapses consecutive whitespace to single spaces while preserving
// paragraph breaks as "\n\n". The function is a fixed point on its own
// output.
func Description(rawHTML string) string {
	if strings.TrimSpace(rawHTML) == "" {
		return ""
	}

	s := lineBreakRe.ReplaceAllString(rawHTML, "\n\n")
	s = blockEndRe.ReplaceAllString(s, "\n\n")
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)

	// Collapse whitespace inside each paragraph, drop empty paragraphs.
	var paragraphs []string
	for _, p := range strings.Split(s, "\n\n") {
		p = collapseSpaces(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}
