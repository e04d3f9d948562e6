package jobdesc

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type section int

const (
	sectionOther section = iota
	sectionResponsibilities
	sectionRequirements
)

var (
	responsibilityHints = []string{"responsibilit", "what you will do", "what you'll do", "duties", "your role", "the role", "you will", "aufgaben", "tareas", "missions"}
	requirementHints    = []string{"requirement", "qualification", "must have", "nice to have", "what you bring", "skills", "experience", "about you", "profil", "requisitos", "anforderungen"}
)

const maxTitleRunes = 120

type parsedDoc struct {
	text             string
	title            string
	responsibilities []string
	requirements     []string
	code             []string
}

var md = goldmark.New()

// parseMarkdown walks the goldmark AST, collecting plain text, list items
// grouped by the heading (or label paragraph) above them, and code spans.
func parseMarkdown(raw string) parsedDoc {
	src := []byte(raw)
	root := md.Parser().Parse(text.NewReader(src))

	var (
		out     parsedDoc
		lines   []string
		current = sectionOther
	)
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			line := inlineText(node, src)
			if line == "" {
				return ast.WalkSkipChildren, nil
			}
			if out.title == "" {
				out.title = line
			}
			current = classify(line)
			lines = append(lines, line)
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			item := inlineText(node, src)
			if item == "" {
				return ast.WalkSkipChildren, nil
			}
			switch current {
			case sectionResponsibilities:
				out.responsibilities = append(out.responsibilities, item)
			case sectionRequirements:
				out.requirements = append(out.requirements, item)
			}
			lines = append(lines, item)
			collectCode(node, src, &out.code)
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			para := inlineText(node, src)
			if para == "" {
				return ast.WalkSkipChildren, nil
			}
			if isLabel(para) {
				current = classify(para)
			} else if out.title == "" {
				out.title = firstLine(para)
			}
			lines = append(lines, para)
			collectCode(node, src, &out.code)
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			var b strings.Builder
			segs := n.Lines()
			for i := 0; i < segs.Len(); i++ {
				seg := segs.At(i)
				b.Write(seg.Value(src))
			}
			if block := strings.TrimSpace(b.String()); block != "" {
				lines = append(lines, block)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	out.text = strings.Join(lines, "\n")
	if r := []rune(out.title); len(r) > maxTitleRunes {
		out.title = strings.TrimSpace(string(r[:maxTitleRunes]))
	}
	return out
}

// inlineText concatenates the text leaves under n.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.AutoLink:
			b.Write(t.URL(src))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func collectCode(n ast.Node, src []byte, out *[]string) {
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if cs, ok := c.(*ast.CodeSpan); ok {
				if v := inlineText(cs, src); v != "" {
					*out = append(*out, v)
				}
				return ast.WalkSkipChildren, nil
			}
		}
		return ast.WalkContinue, nil
	})
}

func classify(line string) section {
	lower := strings.ToLower(line)
	for _, h := range responsibilityHints {
		if strings.Contains(lower, h) {
			return sectionResponsibilities
		}
	}
	for _, h := range requirementHints {
		if strings.Contains(lower, h) {
			return sectionRequirements
		}
	}
	return sectionOther
}

// isLabel reports whether a paragraph acts as a section heading, as in
// plain-text postings ("Requirements:").
func isLabel(para string) bool {
	if strings.Contains(para, "\n") || len(para) > 60 {
		return false
	}
	return strings.HasSuffix(para, ":")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
