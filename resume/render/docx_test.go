package render

import (
	"strings"
	"testing"

	"resume-generator/internal/extract"
)

func TestRenderDocxFillsTemplate(t *testing.T) {
	src, err := renderDocx(sampleDocument())
	if err != nil {
		t.Fatalf("renderDocx: %v", err)
	}
	text, err := extract.DOCXText(src)
	if err != nil {
		t.Fatalf("DOCXText: %v", err)
	}

	for _, want := range []string{
		"Ada Lovelace",
		"Platform Engineer",
		"+1 555 0100 • ada@example.com",
		"GitHub: https://github.com/ada",
		"Ships reliable services & tooling at 100% uptime.",
		"Go - Concurrent services with gRPC.",
		"C# - Tooling on .NET.",
		"Acme • Berlin • Staff Engineer(03/2022 - Present)",
		"Globex • Remote • Engineer(01/2019 - 02/2022)",
		"EDUCATION AND CERTIFICATIONS",
		"University of London, BSc Mathematics09/2010 - 06/2013",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in document text:\n%s", want, text)
		}
	}
	if strings.Contains(text, "{{") {
		t.Fatalf("template tokens left in document:\n%s", text)
	}
	if strings.Index(text, "Acme") > strings.Index(text, "Globex") {
		t.Fatalf("experience order not preserved")
	}
}

func TestRenderDocxDropsEmptySections(t *testing.T) {
	doc := sampleDocument()
	doc.Profile.Education = nil
	doc.Profile.Websites = nil

	src, err := renderDocx(doc)
	if err != nil {
		t.Fatalf("renderDocx: %v", err)
	}
	text, err := extract.DOCXText(src)
	if err != nil {
		t.Fatalf("DOCXText: %v", err)
	}
	if strings.Contains(text, "EDUCATION") || strings.Contains(text, "github") {
		t.Fatalf("expected empty sections to be dropped:\n%s", text)
	}
	if !strings.Contains(text, "EXPERIENCE") {
		t.Fatalf("expected experience heading to remain")
	}
}

func TestRenderDocxNeutralizesTokensInValues(t *testing.T) {
	doc := sampleDocument()
	doc.Draft.Section.Skills[0].Description = "Templating with {{mustache}}."

	src, err := renderDocx(doc)
	if err != nil {
		t.Fatalf("renderDocx: %v", err)
	}
	text, err := extract.DOCXText(src)
	if err != nil {
		t.Fatalf("DOCXText: %v", err)
	}
	if !strings.Contains(text, "Templating with { {mustache}}.") {
		t.Fatalf("unexpected skill text:\n%s", text)
	}
}

func TestExpandLoopMissingMarker(t *testing.T) {
	_, err := newFillPlan().expandLoop("<w:body><w:p><w:r><w:t>x</w:t></w:r></w:p></w:body>", "SKILLS", 1, func(int) map[string]string { return nil })
	if err == nil || !strings.Contains(err.Error(), "{{#SKILLS}}") {
		t.Fatalf("expected missing marker error, got %v", err)
	}
}

func TestFindRemainingToken(t *testing.T) {
	if got := findRemainingToken("all {{DONE}} here"); got != "{{DONE}}" {
		t.Fatalf("unexpected token %q", got)
	}
	if got := findRemainingToken("clean"); got != "" {
		t.Fatalf("expected no token, got %q", got)
	}
}
