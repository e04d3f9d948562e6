package experiences

import (
	"strings"
	"time"
)

// Kind classifies an experience record.
type Kind string

const (
	KindInfo          Kind = "info"
	KindEducation     Kind = "education"
	KindJob           Kind = "job"
	KindContract      Kind = "contract"
	KindPartTime      Kind = "part-time"
	KindProject       Kind = "project"
	KindNonProfit     Kind = "non-profit"
	KindCertification Kind = "certification"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindInfo, KindEducation, KindJob, KindContract, KindPartTime, KindProject, KindNonProfit, KindCertification:
		return true
	}
	return false
}

// Eligible reports whether records of kind k may appear in the experience section.
func (k Kind) Eligible() bool {
	switch k {
	case KindJob, KindContract, KindPartTime, KindProject, KindNonProfit:
		return true
	}
	return false
}

// Searchable reports whether records of kind k carry an embedding.
func (k Kind) Searchable() bool {
	return k.Valid() && k != KindInfo
}

// Record is one row of a user's experience set. Records are immutable once
// embedded; an edit supersedes the old row with a new one.
type Record struct {
	ID           string
	OwnerID      string
	Kind         Kind
	Company      string
	Location     string
	Role         string
	StartDate    time.Time
	EndDate      *time.Time
	Description  string
	Embedding    []float32
	CreatedAt    time.Time
	SupersededAt *time.Time
}

// Eligible reports whether the record may appear in the experience section.
func (r Record) Eligible() bool {
	return r.Kind.Eligible()
}

// Current reports whether the record has no end date.
func (r Record) Current() bool {
	return r.EndDate == nil
}

// EmbeddingText is the text embedded for similarity search.
func (r Record) EmbeddingText() string {
	var b strings.Builder
	if r.Role != "" {
		b.WriteString(r.Role)
	}
	if r.Company != "" {
		if b.Len() > 0 {
			b.WriteString(" at ")
		}
		b.WriteString(r.Company)
	}
	if r.Location != "" {
		b.WriteString(" (")
		b.WriteString(r.Location)
		b.WriteString(")")
	}
	if r.Description != "" {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(r.Description)
	}
	return b.String()
}

// Scored is a record with its similarity to a query.
type Scored struct {
	Record
	Score float64
}
