package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
)

// Fingerprint carries the monitored subset of posting fields: the fields
// whose change matters for downstream ranking or display. The hash over a
// fingerprint is stored on the posting so later dedup is a single string
// comparison.
type Fingerprint struct {
	Title              string
	EmploymentType     string
	Seniority          string
	ApplicantsCount    *int
	Salary             string
	LocationRaw        string
	CompanyName        string
	DescriptionCleaned string
}

// hashFieldOrder fixes the serialization ordering so the hash is
// deterministic regardless of how callers assemble the fingerprint.
func (f *Fingerprint) hashFields() []string {
	applicants := ""
	if f.ApplicantsCount != nil {
		applicants = strconv.Itoa(*f.ApplicantsCount)
	}
	return []string{
		f.Title,
		f.EmploymentType,
		f.Seniority,
		applicants,
		f.Salary,
		f.LocationRaw,
		f.CompanyName,
		f.DescriptionCleaned,
	}
}

// DataHash computes the stable MD5 hash over the monitored fields.
func (f *Fingerprint) DataHash() string {
	sum := md5.Sum([]byte(strings.Join(f.hashFields(), "\x1f")))
	return hex.EncodeToString(sum[:])
}
