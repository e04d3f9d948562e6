package experiences

import (
	"strings"

	"resume-generator/resume/model"
)

// Snapshot is a point-in-time view of a user's experience set.
type Snapshot struct {
	OwnerID     string
	Records     []Record
	Fingerprint string
	Eligible    int
	Profile     model.Profile
	Latest      *Record
}

// NewSnapshot summarizes records.
func NewSnapshot(ownerID string, records []Record) Snapshot {
	s := Snapshot{
		OwnerID:     ownerID,
		Records:     records,
		Fingerprint: Fingerprint(records),
		Profile:     BuildProfile(records),
		Latest:      LatestEligible(records),
	}
	for _, r := range records {
		if r.Eligible() {
			s.Eligible++
		}
	}
	return s
}

// LatestEligible returns the most recent eligible record: current positions
// first, then by end date, then by start date.
func LatestEligible(records []Record) *Record {
	var best *Record
	for i := range records {
		r := records[i]
		if !r.Eligible() {
			continue
		}
		if best == nil || moreRecent(r, *best) {
			rec := r
			best = &rec
		}
	}
	return best
}

func moreRecent(a, b Record) bool {
	switch {
	case a.Current() && !b.Current():
		return true
	case !a.Current() && b.Current():
		return false
	case !a.Current() && !b.Current() && !a.EndDate.Equal(*b.EndDate):
		return a.EndDate.After(*b.EndDate)
	}
	if !a.StartDate.Equal(b.StartDate) {
		return a.StartDate.After(b.StartDate)
	}
	return a.ID < b.ID
}

// BuildProfile assembles header and education data from info, education and
// certification records. Info records use Company as the field name, Role as
// the display label and Description as the value.
func BuildProfile(records []Record) model.Profile {
	var p model.Profile
	for _, r := range records {
		switch r.Kind {
		case KindInfo:
			value := strings.TrimSpace(r.Description)
			if value == "" {
				continue
			}
			switch strings.ToLower(strings.TrimSpace(r.Company)) {
			case "name":
				p.Name = value
			case "email":
				p.Email = value
			case "phone":
				p.Phone = value
			case "address":
				p.Address = value
			case "website":
				label := strings.TrimSpace(r.Role)
				if label == "" {
					label = value
				}
				p.Websites = append(p.Websites, model.Link{Label: label, URL: value})
			}
		case KindEducation, KindCertification:
			edu := model.Education{
				Kind:        string(r.Kind),
				Institution: r.Company,
				Title:       r.Role,
				Location:    r.Location,
				Description: r.Description,
			}
			if !r.StartDate.IsZero() {
				edu.StartDate = model.FormatMonth(r.StartDate)
			}
			if r.EndDate != nil {
				edu.EndDate = model.FormatMonth(*r.EndDate)
			}
			p.Education = append(p.Education, edu)
		}
	}
	return p
}
