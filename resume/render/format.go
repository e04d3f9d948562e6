package render

import (
	"strings"

	"resume-generator/resume/model"
)

// formatMonth turns "2022-03" into "03/2022". Unparseable input is returned as is.
func formatMonth(value string) string {
	t, err := model.ParseMonth(value)
	if err != nil {
		return strings.TrimSpace(value)
	}
	return t.Format("01/2006")
}

func dateRange(start, end, sep string) string {
	s := formatMonth(start)
	if s == "" {
		return ""
	}
	if model.IsPresent(end) {
		return s + sep + "Present"
	}
	return s + sep + formatMonth(end)
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func contactParts(p model.Profile) []string {
	return []string{p.Address, p.Phone, p.Email}
}

func linkLabel(l model.Link) string {
	if strings.TrimSpace(l.Label) != "" {
		return l.Label
	}
	return l.URL
}

func educationLine(e model.Education) string {
	return joinNonEmpty(", ", e.Institution, e.Title, e.Location)
}

// oneLine folds line breaks so a value stays in a single paragraph.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
