package translation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"resume-generator/internal/llm"
	"resume-generator/resume/model"
)

func sourceDraft() model.Draft {
	return model.Draft{
		Language: "en",
		Section: model.Section{
			Title:               "Backend Engineer",
			ProfessionalSummary: "Engineer focused on payments.",
			Experience: []model.Experience{
				{Position: "Engineer", Company: "Acme", Location: "Berlin", StartDate: "2021-01", Description: "Built services."},
			},
			Skills: []model.Skill{{Name: "Go", Description: "Network services."}},
		},
	}
}

func spanish(mutate func(d *model.Draft)) string {
	d := sourceDraft()
	d.Language = "en"
	d.Section.Title = "Ingeniero Backend"
	d.Section.ProfessionalSummary = "Ingeniero enfocado en pagos."
	d.Section.Experience[0].Position = "Ingeniero"
	d.Section.Experience[0].Description = "Construyó servicios."
	d.Section.Skills[0].Description = "Servicios de red."
	if mutate != nil {
		mutate(&d)
	}
	raw, _ := json.Marshal(d)
	return string(raw)
}

type replies struct {
	out   []string
	calls int
}

func (r *replies) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	i := r.calls
	if i >= len(r.out) {
		i = len(r.out) - 1
	}
	r.calls++
	return llm.Response{Text: r.out[i]}, nil
}

func TestTranslateNoOp(t *testing.T) {
	client := &replies{out: []string{"{}"}}
	tr := &Translator{LLM: client}
	out, translated, err := tr.Translate(context.Background(), sourceDraft(), "en", "m")
	if err != nil || translated {
		t.Fatalf("expected no-op, got translated=%v err=%v", translated, err)
	}
	if out.Section.Title != "Backend Engineer" || client.calls != 0 {
		t.Fatalf("expected untouched draft and no model calls")
	}
}

func TestTranslateSetsTargetLanguage(t *testing.T) {
	client := &replies{out: []string{spanish(nil)}}
	tr := &Translator{LLM: client}
	out, translated, err := tr.Translate(context.Background(), sourceDraft(), "es", "m")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !translated || out.Language != "es" || out.Section.Title != "Ingeniero Backend" {
		t.Fatalf("unexpected translation %+v", out)
	}
}

func TestTranslateRetriesOnChangedFields(t *testing.T) {
	moved := spanish(func(d *model.Draft) { d.Section.Experience[0].Location = "Berlín" })
	client := &replies{out: []string{moved, spanish(nil)}}
	tr := &Translator{LLM: client, MaxAttempts: 3}
	if _, _, err := tr.Translate(context.Background(), sourceDraft(), "es", "m"); err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if client.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", client.calls)
	}
}

func TestTranslateRetriesOnSkillPolicy(t *testing.T) {
	leaky := spanish(func(d *model.Draft) { d.Section.Skills[0].Description = "Servicios de red como Ingeniero en Acme." })
	client := &replies{out: []string{leaky, spanish(nil)}}
	tr := &Translator{LLM: client, MaxAttempts: 3}
	out, translated, err := tr.Translate(context.Background(), sourceDraft(), "es", "m")
	if err != nil || !translated {
		t.Fatalf("Translate: translated=%v err=%v", translated, err)
	}
	if client.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", client.calls)
	}
	if err := out.CheckSkillPolicy(); err != nil {
		t.Fatalf("returned draft violates skill policy: %v", err)
	}
}

func TestTranslateExhausts(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want string
	}{
		{name: "dropped skill", out: spanish(func(d *model.Draft) { d.Section.Skills = append(d.Section.Skills, model.Skill{Name: "SQL", Description: "Consultas."}) }), want: "skills has 2 entries"},
		{name: "company renamed", out: spanish(func(d *model.Draft) { d.Section.Experience[0].Company = "Acmé" }), want: "company changed"},
		{name: "skill names company", out: spanish(func(d *model.Draft) { d.Section.Skills[0].Description = "Pagos en ACME." }), want: `mentions company "Acme"`},
		{name: "garbage", out: "lo siento", want: "no JSON object"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client := &replies{out: []string{tt.out}}
			tr := &Translator{LLM: client, MaxAttempts: 2}
			_, _, err := tr.Translate(context.Background(), sourceDraft(), "es", "m")
			if !errors.Is(err, ErrTranslation) || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected ErrTranslation containing %q, got %v", tt.want, err)
			}
			if client.calls != 2 {
				t.Fatalf("expected 2 attempts, got %d", client.calls)
			}
		})
	}
}
