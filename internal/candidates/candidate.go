// Package candidates imports interview candidates from CSV files, pasted text
// and applicant tracking systems.
//
// Every imported [Record] carries an IsValid flag computed from its email
// address. Workflows only look at that flag: the interview-setup workflow
// refuses to leave its import step until at least one record is valid.
//
// Key types:
//   - [Record] is one imported candidate
//   - [List] is an imported candidate list, stored as a document section
//   - [Importer] dispatches an import request to the matching parser or source
//   - [ATSSource] fetches candidates from an applicant tracking system
package candidates

import (
	"regexp"
	"slices"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Record is a single imported candidate.
type Record struct {
	Email    string `json:"email" yaml:"email"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Phone    string `json:"phone,omitempty" yaml:"phone,omitempty"`
	JobTitle string `json:"job_title,omitempty" yaml:"job_title,omitempty"`
	ATSID    string `json:"ats_id,omitempty" yaml:"ats_id,omitempty"`

	// IsValid is true when Email passes [ValidEmail].
	IsValid bool `json:"is_valid" yaml:"is_valid"`
}

// NewRecord trims its inputs and computes IsValid.
func NewRecord(email, name, phone string) Record {
	r := Record{
		Email: strings.TrimSpace(email),
		Name:  strings.TrimSpace(name),
		Phone: strings.TrimSpace(phone),
	}
	r.IsValid = ValidEmail(r.Email)
	return r
}

// List is an ordered list of imported candidates.
type List []Record

// CountValid returns the number of valid records.
func (l List) CountValid() int {
	n := 0
	for _, r := range l {
		if r.IsValid {
			n++
		}
	}
	return n
}

// CloneSection copies the list so a document holding it owns its records.
func (l List) CloneSection() any {
	return slices.Clone(l)
}

// Valid returns only the valid records.
func (l List) Valid() List {
	out := make(List, 0, len(l))
	for _, r := range l {
		if r.IsValid {
			out = append(out, r)
		}
	}
	return out
}

// Summary counts valid and invalid records.
type Summary struct {
	Total   int `json:"total" yaml:"total"`
	Valid   int `json:"valid" yaml:"valid"`
	Invalid int `json:"invalid" yaml:"invalid"`
}

// Summarize counts the records of l.
func Summarize(l List) Summary {
	valid := l.CountValid()
	return Summary{Total: len(l), Valid: valid, Invalid: len(l) - valid}
}
