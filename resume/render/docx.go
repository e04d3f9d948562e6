package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"resume-generator/internal/extract"
)

//go:embed templates/resume.docx
var docxTemplate []byte

// fillPlan collects the loop expansions of one document. Loop item tokens are
// rewritten to indexed tokens so every value goes through docx.Replace.
type fillPlan struct {
	values map[string]string
}

func newFillPlan() *fillPlan {
	return &fillPlan{values: map[string]string{}}
}

func (p *fillPlan) set(token, value string) {
	p.values[token] = strings.ReplaceAll(value, "{{", "{ {")
}

// expandLoop repeats the paragraphs between the {{#name}} and {{/name}} marker
// paragraphs once per item. The marker paragraphs are dropped. With zero items
// the whole block disappears.
func (p *fillPlan) expandLoop(content, name string, count int, item func(i int) map[string]string) (string, error) {
	start, bodyStart, err := markerParagraph(content, "{{#"+name+"}}", 0)
	if err != nil {
		return "", err
	}
	bodyEnd, end, err := markerParagraph(content, "{{/"+name+"}}", bodyStart)
	if err != nil {
		return "", err
	}
	block := content[bodyStart:bodyEnd]

	var out strings.Builder
	for i := 0; i < count; i++ {
		fields := item(i)
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys)*2)
		for _, k := range keys {
			indexed := fmt.Sprintf("{{%s#%s#%d}}", k, name, i)
			pairs = append(pairs, "{{"+k+"}}", indexed)
			p.set(indexed, fields[k])
		}
		out.WriteString(strings.NewReplacer(pairs...).Replace(block))
	}
	return content[:start] + out.String() + content[end:], nil
}

// markerParagraph finds the <w:p> element holding marker and returns its
// bounds.
func markerParagraph(content, marker string, from int) (int, int, error) {
	idx := strings.Index(content[from:], marker)
	if idx < 0 {
		return 0, 0, fmt.Errorf("template marker %s not found", marker)
	}
	idx += from
	start := lastParagraphStart(content[:idx])
	if start < 0 {
		return 0, 0, fmt.Errorf("template marker %s is outside a paragraph", marker)
	}
	closeIdx := strings.Index(content[idx:], "</w:p>")
	if closeIdx < 0 {
		return 0, 0, fmt.Errorf("template marker %s paragraph is not closed", marker)
	}
	return start, idx + closeIdx + len("</w:p>"), nil
}

func lastParagraphStart(s string) int {
	for {
		i := strings.LastIndex(s, "<w:p")
		if i < 0 {
			return -1
		}
		// Skip <w:pPr>, <w:pBdr> and friends.
		if next := i + len("<w:p"); next < len(s) && (s[next] == '>' || s[next] == ' ') {
			return i
		}
		s = s[:i]
	}
}

func renderDocx(doc Document) ([]byte, error) {
	reader, err := docx.ReadDocxFromMemory(bytes.NewReader(docxTemplate), int64(len(docxTemplate)))
	if err != nil {
		return nil, fmt.Errorf("open docx template: %w", err)
	}
	defer reader.Close()

	editable := reader.Editable()
	content, err := expandDocxLoops(editable.GetContent(), doc)
	if err != nil {
		return nil, err
	}
	editable.SetContent(content.xml)

	header := map[string]string{
		"{{NAME}}":    oneLine(doc.Profile.Name),
		"{{TITLE}}":   oneLine(doc.Draft.Section.Title),
		"{{CONTACT}}": joinNonEmpty(" • ", contactParts(doc.Profile)...),
		"{{SUMMARY}}": oneLine(doc.Draft.Section.ProfessionalSummary),
	}
	for token, value := range header {
		content.plan.set(token, value)
	}
	for token, value := range content.plan.values {
		if err := editable.Replace(token, value, -1); err != nil {
			return nil, fmt.Errorf("replace %s: %w", token, err)
		}
	}
	if token := findRemainingToken(editable.GetContent()); token != "" {
		return nil, fmt.Errorf("unreplaced template token %s", token)
	}

	var buf bytes.Buffer
	if err := editable.Write(&buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	text, err := extract.DOCXText(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("verify docx: %w", err)
	}
	if token := findRemainingToken(text); token != "" {
		return nil, fmt.Errorf("unreplaced template token %s", token)
	}
	return buf.Bytes(), nil
}

type expanded struct {
	xml  string
	plan *fillPlan
}

func expandDocxLoops(content string, doc Document) (expanded, error) {
	plan := newFillPlan()
	section := doc.Draft.Section
	profile := doc.Profile

	var err error
	if len(profile.Websites) > 0 {
		content, err = expandSection(plan, content, "SECTION_LINKS", true)
		if err == nil {
			content, err = plan.expandLoop(content, "LINKS", len(profile.Websites), func(i int) map[string]string {
				link := profile.Websites[i]
				if label := linkLabel(link); label != link.URL {
					return map[string]string{"LINK": label + ": " + link.URL}
				}
				return map[string]string{"LINK": link.URL}
			})
		}
	} else {
		content, err = expandSection(plan, content, "SECTION_LINKS", false)
	}
	if err != nil {
		return expanded{}, err
	}

	content, err = plan.expandLoop(content, "SKILLS", len(section.Skills), func(i int) map[string]string {
		s := section.Skills[i]
		return map[string]string{
			"SKILL_NAME":        oneLine(s.Name),
			"SKILL_DESCRIPTION": oneLine(s.Description),
		}
	})
	if err != nil {
		return expanded{}, err
	}

	content, err = plan.expandLoop(content, "EXPERIENCE", len(section.Experience), func(i int) map[string]string {
		e := section.Experience[i]
		role := joinNonEmpty(" • ", e.Location, e.Position)
		if role != "" {
			role = " • " + role
		}
		return map[string]string{
			"COMPANY":     oneLine(e.Company),
			"ROLE_LINE":   role,
			"DATES":       "(" + dateRange(e.StartDate, e.EndDate, " - ") + ")",
			"DESCRIPTION": oneLine(e.Description),
		}
	})
	if err != nil {
		return expanded{}, err
	}

	if len(profile.Education) > 0 {
		content, err = expandSection(plan, content, "SECTION_EDUCATION", true)
		if err == nil {
			content, err = plan.expandLoop(content, "EDUCATION", len(profile.Education), func(i int) map[string]string {
				e := profile.Education[i]
				return map[string]string{
					"EDU_LINE":  joinNonEmpty(" • ", educationLine(e), oneLine(e.Description)),
					"EDU_DATES": dateRange(e.StartDate, e.EndDate, " - "),
				}
			})
		}
	} else {
		content, err = expandSection(plan, content, "SECTION_EDUCATION", false)
	}
	if err != nil {
		return expanded{}, err
	}
	return expanded{xml: content, plan: plan}, nil
}

// expandSection keeps or drops a wrapper block.
func expandSection(plan *fillPlan, content, name string, keep bool) (string, error) {
	count := 0
	if keep {
		count = 1
	}
	return plan.expandLoop(content, name, count, func(int) map[string]string { return nil })
}

func findRemainingToken(text string) string {
	start := strings.Index(text, "{{")
	if start < 0 {
		return ""
	}
	end := strings.Index(text[start:], "}}")
	if end < 0 {
		return text[start:]
	}
	return text[start : start+end+2]
}
