package synthesis

import (
	"strings"

	"resume-generator/internal/experiences"
	"resume-generator/internal/jobdesc"
	"resume-generator/internal/llm"
	"resume-generator/resume/model"
)

type evidenceItem struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Company     string `json:"company"`
	Role        string `json:"role"`
	Location    string `json:"location,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Description string `json:"description,omitempty"`
	Eligible    bool   `json:"usable_as_experience"`
}

func toEvidence(r experiences.Record) evidenceItem {
	item := evidenceItem{
		ID:          r.ID,
		Kind:        string(r.Kind),
		Company:     r.Company,
		Role:        r.Role,
		Location:    r.Location,
		Description: r.Description,
		Eligible:    r.Eligible(),
	}
	if !r.StartDate.IsZero() {
		item.StartDate = model.FormatMonth(r.StartDate)
	}
	if r.EndDate != nil {
		item.EndDate = model.FormatMonth(*r.EndDate)
	}
	return item
}

func userPrompt(job jobdesc.JobDescription, evidence []experiences.Record, latest *experiences.Record) string {
	items := make([]evidenceItem, len(evidence))
	for i, r := range evidence {
		items[i] = toEvidence(r)
	}

	var b strings.Builder
	b.WriteString("Job description:\n")
	b.WriteString(job.Text)
	b.WriteString("\n\nEvidence (experience records of the candidate):\n")
	b.WriteString(llm.MustIndent(items))
	if latest != nil {
		b.WriteString("\n\nMost recent position: ")
		b.WriteString(latest.Role)
		b.WriteString(" at ")
		b.WriteString(latest.Company)
	}
	return b.String()
}
