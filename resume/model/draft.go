package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Draft is a structured, tailored resume produced by synthesis.
type Draft struct {
	Language string  `json:"language"`
	Section  Section `json:"resume_section"`
}

// Section holds the rendered resume body.
type Section struct {
	Title               string       `json:"title"`
	ProfessionalSummary string       `json:"professional_summary"`
	Experience          []Experience `json:"experience"`
	Skills              []Skill      `json:"skills"`
}

// Experience is one entry of the experience section. Dates are YYYY-MM; an
// empty EndDate means the position is current.
type Experience struct {
	Position    string `json:"position"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

// Skill is a named skill with a short justification.
type Skill struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate enforces required fields, date formats and the experience ordering.
func (d Draft) Validate() error {
	s := d.Section
	if strings.TrimSpace(s.Title) == "" {
		return errors.New("resume_section.title is required")
	}
	if strings.TrimSpace(s.ProfessionalSummary) == "" {
		return errors.New("resume_section.professional_summary is required")
	}
	if len(s.Experience) == 0 {
		return errors.New("resume_section.experience must not be empty")
	}
	if len(s.Skills) == 0 {
		return errors.New("resume_section.skills must not be empty")
	}

	var prev time.Time
	for i, exp := range s.Experience {
		field := fmt.Sprintf("experience[%d]", i)
		if strings.TrimSpace(exp.Position) == "" {
			return fmt.Errorf("%s.position is required", field)
		}
		if strings.TrimSpace(exp.Company) == "" {
			return fmt.Errorf("%s.company is required", field)
		}
		if strings.TrimSpace(exp.Description) == "" {
			return fmt.Errorf("%s.description is required", field)
		}
		start, err := ParseMonth(exp.StartDate)
		if err != nil {
			return fmt.Errorf("%s.start_date must be YYYY-MM", field)
		}
		if !IsPresent(exp.EndDate) {
			end, err := ParseMonth(exp.EndDate)
			if err != nil {
				return fmt.Errorf("%s.end_date must be YYYY-MM or empty", field)
			}
			if end.Before(start) {
				return fmt.Errorf("%s.end_date is before start_date", field)
			}
		}
		if i > 0 && start.After(prev) {
			return fmt.Errorf("experience must be ordered by start_date descending: %s starts after experience[%d]", field, i-1)
		}
		prev = start
	}

	for i, skill := range s.Skills {
		if strings.TrimSpace(skill.Name) == "" {
			return fmt.Errorf("skills[%d].name is required", i)
		}
		if strings.TrimSpace(skill.Description) == "" {
			return fmt.Errorf("skills[%d].description is required", i)
		}
	}
	return nil
}

// CheckSkillPolicy rejects skill descriptions that mention a company name or
// job title used in the experience section. Matching is case-insensitive.
func (d Draft) CheckSkillPolicy() error {
	for i, skill := range d.Section.Skills {
		desc := strings.ToLower(skill.Description)
		for _, exp := range d.Section.Experience {
			if company := strings.ToLower(strings.TrimSpace(exp.Company)); company != "" && strings.Contains(desc, company) {
				return fmt.Errorf("skills[%d].description mentions company %q", i, exp.Company)
			}
			if title := strings.ToLower(strings.TrimSpace(exp.Position)); title != "" && strings.Contains(desc, title) {
				return fmt.Errorf("skills[%d].description mentions job title %q", i, exp.Position)
			}
		}
	}
	return nil
}

// CheckMinExperience requires at least min experience entries.
func (d Draft) CheckMinExperience(min int) error {
	if got := len(d.Section.Experience); got < min {
		return fmt.Errorf("experience has %d entries, at least %d are required", got, min)
	}
	return nil
}

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ParseMonth parses a YYYY-MM date.
func ParseMonth(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if !monthPattern.MatchString(value) {
		return time.Time{}, fmt.Errorf("invalid month %q", value)
	}
	return time.Parse("2006-01", value)
}

// FormatMonth formats t as YYYY-MM.
func FormatMonth(t time.Time) string {
	return t.Format("2006-01")
}

// IsPresent reports whether an end date denotes a current position.
func IsPresent(end string) bool {
	end = strings.TrimSpace(end)
	return end == "" || strings.EqualFold(end, "present")
}
