package normalize

import (
	"errors"
	"reflect"
	"testing"
)

func TestCompany(t *testing.T) {
	tests := []struct {
		name         string
		rawName      string
		website      string
		industries   string
		expectedName string
		expectedWeb  string
		expectedInds []string
	}{
		{
			name:         "mixed case preserved",
			rawName:      "DataBricks Inc",
			expectedName: "DataBricks Inc",
			expectedInds: []string{},
		},
		{
			name:         "all uppercase title cased",
			rawName:      "ACME CORP",
			expectedName: "Acme Corp",
			expectedInds: []string{},
		},
		{
			name:         "all lowercase title cased",
			rawName:      "globex corporation",
			expectedName: "Globex Corporation",
			expectedInds: []string{},
		},
		{
			name:         "inner whitespace collapsed",
			rawName:      "  Initech   Software  ",
			expectedName: "Initech Software",
			expectedInds: []string{},
		},
		{
			name:         "website without scheme gets https",
			rawName:      "Hooli",
			website:      "hooli.com",
			expectedName: "Hooli",
			expectedWeb:  "https://hooli.com",
			expectedInds: []string{},
		},
		{
			name:         "invalid website dropped not failed",
			rawName:      "Hooli",
			website:      "not a url at all",
			expectedName: "Hooli",
			expectedWeb:  "",
			expectedInds: []string{},
		},
		{
			name:         "industries parsed and deduplicated in order",
			rawName:      "Hooli",
			industries:   "Software, Fintech, software, , AI",
			expectedName: "Hooli",
			expectedInds: []string{"Software", "Fintech", "AI"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Company(tt.rawName, tt.website, "", tt.industries)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Name != tt.expectedName {
				t.Errorf("name = %q, want %q", got.Name, tt.expectedName)
			}
			if got.Website != tt.expectedWeb {
				t.Errorf("website = %q, want %q", got.Website, tt.expectedWeb)
			}
			if !reflect.DeepEqual(got.Industries, tt.expectedInds) {
				t.Errorf("industries = %v, want %v", got.Industries, tt.expectedInds)
			}
		})
	}
}

func TestCompany_EmptyName(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t\n"} {
		if _, err := Company(raw, "", "", ""); !errors.Is(err, ErrCompanyNameRequired) {
			t.Errorf("Company(%q) err = %v, want ErrCompanyNameRequired", raw, err)
		}
	}
}

func TestLocation(t *testing.T) {
	tests := []struct {
		raw     string
		city    string
		region  string
		country string
	}{
		{"San Francisco, CA, US", "San Francisco", "CA", "US"},
		{"San Francisco, California, US", "San Francisco", "California", "US"},
		{"Berlin, DE", "Berlin", "", "DE"},
		{"Berlin", "Berlin", "", ""},
		{"Remote", "Remote", "", ""},
		{"", "", "", ""},
		{"  ,  , ", "", "", ""},
		{"Austin, Texas, United States", "Austin", "Texas, United States", ""},
		{"gb", "", "", "GB"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := Location(tt.raw)
			if got.City != tt.city || got.Region != tt.region || got.CountryCode != tt.country {
				t.Errorf("Location(%q) = %+v, want city=%q region=%q country=%q",
					tt.raw, got, tt.city, tt.region, tt.country)
			}
		})
	}
}

func TestLocation_NeverFails(t *testing.T) {
	inputs := []string{",,,,", "   ", "a, b, c, d, e, f", "🌍, XY"}
	for _, in := range inputs {
		got := Location(in)
		if got.Raw != "" && in == "   " {
			t.Errorf("expected empty raw for blank input, got %q", got.Raw)
		}
		_ = got
	}
}

func TestDescription(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "tags stripped",
			input:    "<b>Great</b> role",
			expected: "Great role",
		},
		{
			name:     "entities decoded",
			input:    "R&amp;D engineer",
			expected: "R&D engineer",
		},
		{
			name:     "whitespace collapsed",
			input:    "too   many\t spaces",
			expected: "too many spaces",
		},
		{
			name:     "paragraphs preserved",
			input:    "<p>First paragraph.</p><p>Second paragraph.</p>",
			expected: "First paragraph.\n\nSecond paragraph.",
		},
		{
			name:     "br becomes paragraph break",
			input:    "line one<br/>line two",
			expected: "line one\n\nline two",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Description(tt.input); got != tt.expected {
				t.Errorf("Description(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDescription_FixedPoint(t *testing.T) {
	inputs := []string{
		"<p>Build <b>pipelines</b> at scale.</p><ul><li>Go</li><li>SQL</li></ul>",
		"plain text with\n\nparagraphs",
		"nested <div><p>blocks</p></div> here",
	}
	for _, in := range inputs {
		once := Description(in)
		twice := Description(once)
		if once != twice {
			t.Errorf("not a fixed point:\nonce:  %q\ntwice: %q", once, twice)
		}
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://example.com/jobs", "https://example.com/jobs"},
		{"example.com/jobs", "https://example.com/jobs"},
		{"", ""},
		{"https://", ""},
		{"https://bad host.com", ""},
		{"https://...", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ValidateURL(tt.input); got != tt.expected {
				t.Errorf("ValidateURL(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
