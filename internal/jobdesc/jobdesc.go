// Package jobdesc turns a raw job description into the plain text, facets
// and language used for retrieval and synthesis.
package jobdesc

import (
	"regexp"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// DefaultLanguage is used when detection is not reliable.
const DefaultLanguage = "en"

// Facets are the distinct aspects of a posting used to derive retrieval queries.
type Facets struct {
	Title            string
	Responsibilities []string
	Requirements     []string
	Keywords         []string
}

// JobDescription is a parsed posting. It lives for one generation request.
type JobDescription struct {
	Raw        string
	Text       string
	Normalized string
	Language   string
	Facets     Facets
	SkillTerms []string
}

// Parse reads raw (markdown or plain text) into a JobDescription.
func Parse(raw string) JobDescription {
	doc := parseMarkdown(raw)
	jd := JobDescription{
		Raw:        raw,
		Text:       doc.text,
		Normalized: Normalize(raw),
		Language:   DetectLanguage(doc.text),
	}
	jd.Facets = Facets{
		Title:            doc.title,
		Responsibilities: doc.responsibilities,
		Requirements:     doc.requirements,
		Keywords:         Keywords(doc.text, maxKeywords),
	}
	jd.SkillTerms = SkillTerms(doc.text, doc.code)
	return jd
}

var spaceRe = regexp.MustCompile(`\s+`)

// Normalize collapses whitespace, strips markdown and lowercases raw so that
// cosmetic edits to a posting hash to the same key.
func Normalize(raw string) string {
	text := parseMarkdown(raw).text
	return strings.ToLower(strings.TrimSpace(spaceRe.ReplaceAllString(text, " ")))
}

// minDetectRunes is the length below which an unreliable detection is
// replaced by DefaultLanguage.
const minDetectRunes = 60

// DetectLanguage returns the ISO 639-1 code of text, or DefaultLanguage when
// the text is too short for a confident guess.
func DetectLanguage(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return DefaultLanguage
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() && len([]rune(text)) < minDetectRunes {
		return DefaultLanguage
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return DefaultLanguage
	}
	return code
}

// DominantLanguage detects the language of several texts joined together.
func DominantLanguage(texts []string) string {
	return DetectLanguage(strings.Join(texts, "\n"))
}
