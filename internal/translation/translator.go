// Package translation localizes a validated draft into the job description's
// language.
package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"resume-generator/internal/llm"
	"resume-generator/internal/shared/metrics"
	"resume-generator/internal/shared/telemetry"
	"resume-generator/resume/model"
)

// ErrTranslation is returned when no attempt produced a valid translation.
var ErrTranslation = errors.New("translation failed")

const defaultMaxAttempts = 3

// Translator translates drafts with an LLM and validates the result.
type Translator struct {
	LLM         llm.Client
	MaxAttempts int
}

// Needed reports whether draft must be translated into target.
func Needed(draft model.Draft, target string) bool {
	return target != "" && draft.Language != target
}

// Translate returns draft in the target language. When no translation is
// needed it returns draft unchanged and translated=false.
func (t *Translator) Translate(ctx context.Context, draft model.Draft, target, modelID string) (out model.Draft, translated bool, err error) {
	if !Needed(draft, target) {
		return draft, false, nil
	}
	source, err := json.Marshal(draft)
	if err != nil {
		return model.Draft{}, false, fmt.Errorf("%w: encode draft: %v", ErrTranslation, err)
	}
	req := llm.Request{
		Model:  modelID,
		System: llm.TranslationPrompt(target),
		User:   string(source),
		JSON:   true,
	}

	attempts := t.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		metrics.IncTranslationAttempt()
		resp, err := t.LLM.Complete(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return model.Draft{}, false, ctx.Err()
			}
			return model.Draft{}, false, fmt.Errorf("%w: model call: %v", ErrTranslation, err)
		}
		candidate, err := parseTranslation(resp.Text, draft, target)
		if err == nil {
			return candidate, true, nil
		}
		lastErr = err
		telemetry.Warn("translation.invalid_output", map[string]any{
			"attempt": attempt,
			"target":  target,
			"err":     err,
		})
		req.Corrections = append(req.Corrections, llm.CorrectionPrompt(resp.Text, err))
	}
	return model.Draft{}, false, fmt.Errorf("%w: %d attempts exhausted: %v", ErrTranslation, attempts, lastErr)
}

func parseTranslation(raw string, source model.Draft, target string) (model.Draft, error) {
	var out model.Draft
	if err := llm.DecodeStrict(raw, &out); err != nil {
		return model.Draft{}, err
	}
	out.Language = target
	if err := out.Validate(); err != nil {
		return model.Draft{}, err
	}
	if err := checkPreserved(source, out); err != nil {
		return model.Draft{}, err
	}
	if err := out.CheckSkillPolicy(); err != nil {
		return model.Draft{}, err
	}
	return out, nil
}

// checkPreserved requires entry counts and the untranslatable fields to be
// identical to the source.
func checkPreserved(src, dst model.Draft) error {
	if got, want := len(dst.Section.Experience), len(src.Section.Experience); got != want {
		return fmt.Errorf("experience has %d entries, expected %d", got, want)
	}
	if got, want := len(dst.Section.Skills), len(src.Section.Skills); got != want {
		return fmt.Errorf("skills has %d entries, expected %d", got, want)
	}
	for i := range src.Section.Experience {
		s, d := src.Section.Experience[i], dst.Section.Experience[i]
		switch {
		case s.Company != d.Company:
			return fmt.Errorf("experience[%d].company changed from %q to %q", i, s.Company, d.Company)
		case s.Location != d.Location:
			return fmt.Errorf("experience[%d].location changed from %q to %q", i, s.Location, d.Location)
		case s.StartDate != d.StartDate:
			return fmt.Errorf("experience[%d].start_date changed", i)
		case s.EndDate != d.EndDate:
			return fmt.Errorf("experience[%d].end_date changed", i)
		}
	}
	return nil
}
