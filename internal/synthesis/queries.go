package synthesis

import (
	"strings"

	"resume-generator/internal/jobdesc"
)

const (
	minQueries      = 3
	minTermsFanOut  = 4
	maxFacetRunes   = 400
	defaultMaxTerms = 10
)

// BuildQueries derives retrieval queries from distinct facets of jd. When
// the posting names at least four skill terms, each term (up to maxTerms)
// becomes its own query. At least three distinct queries are returned.
func BuildQueries(jd jobdesc.JobDescription, maxTerms int) []string {
	if maxTerms <= 0 {
		maxTerms = defaultMaxTerms
	}
	var qs querySet
	qs.add(jd.Facets.Title)
	qs.add(strings.Join(jd.Facets.Responsibilities, "; "))
	qs.add(strings.Join(jd.Facets.Requirements, "; "))
	qs.add(strings.Join(jd.Facets.Keywords, " "))

	if qs.len() < minQueries {
		for _, part := range thirds(jd.Text) {
			qs.add(part)
		}
	}
	if qs.len() < minQueries {
		base := strings.TrimSpace(jd.Text)
		for _, prefix := range []string{"responsibilities:", "skills:", "domain:"} {
			if qs.len() >= minQueries {
				break
			}
			qs.add(prefix + " " + base)
		}
	}

	if len(jd.SkillTerms) >= minTermsFanOut {
		for i, term := range jd.SkillTerms {
			if i >= maxTerms {
				break
			}
			qs.add(term)
		}
	}
	return qs.items
}

type querySet struct {
	items []string
	seen  map[string]struct{}
}

func (q *querySet) add(s string) {
	s = clip(strings.TrimSpace(s), maxFacetRunes)
	if s == "" {
		return
	}
	key := strings.ToLower(s)
	if q.seen == nil {
		q.seen = make(map[string]struct{})
	}
	if _, ok := q.seen[key]; ok {
		return
	}
	q.seen[key] = struct{}{}
	q.items = append(q.items, s)
}

func (q *querySet) len() int { return len(q.items) }

// thirds splits text into three word-balanced parts.
func thirds(text string) []string {
	words := strings.Fields(text)
	if len(words) < minQueries {
		return nil
	}
	n := len(words)
	return []string{
		strings.Join(words[:n/3], " "),
		strings.Join(words[n/3:2*n/3], " "),
		strings.Join(words[2*n/3:], " "),
	}
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
