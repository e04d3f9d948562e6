package render

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"

	"resume-generator/resume/model"
)

//go:embed templates/resume.tex.tmpl
var latexTemplate string

var texReplacer = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	"&", `\&`,
	"%", `\%`,
	"$", `\$`,
	"#", `\#`,
	"_", `\_`,
	"{", `\{`,
	"}", `\}`,
	"~", `\textasciitilde{}`,
	"^", `\textasciicircum{}`,
)

// EscapeTeX escapes the characters LaTeX treats specially.
func EscapeTeX(s string) string {
	return texReplacer.Replace(oneLine(s))
}

var urlReplacer = strings.NewReplacer(
	`\`, "%5C",
	"%", `\%`,
	"#", `\#`,
	"{", "%7B",
	"}", "%7D",
	" ", "%20",
)

var latexTmpl = template.Must(template.New("resume.tex").
	Delims("<<", ">>").
	Funcs(template.FuncMap{
		"tex":           EscapeTeX,
		"url":           urlReplacer.Replace,
		"label":         linkLabel,
		"educationLine": educationLine,
		"dates": func(start, end string) string {
			return dateRange(start, end, " -- ")
		},
	}).
	Parse(latexTemplate))

type latexData struct {
	Draft   model.Draft
	Profile model.Profile
	Contact string
}

func renderLatex(doc Document) ([]byte, error) {
	parts := contactParts(doc.Profile)
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			escaped = append(escaped, EscapeTeX(p))
		}
	}

	var buf bytes.Buffer
	err := latexTmpl.Execute(&buf, latexData{
		Draft:   doc.Draft,
		Profile: doc.Profile,
		Contact: strings.Join(escaped, ` \textbullet{} `),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
