// Package synthesis builds a tailored resume draft from a job description and
// retrieved experience, validating model output in a bounded retry loop.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resume-generator/internal/experiences"
	"resume-generator/internal/jobdesc"
	"resume-generator/internal/llm"
	"resume-generator/internal/retrieval"
	"resume-generator/internal/shared/metrics"
	"resume-generator/internal/shared/telemetry"
	"resume-generator/resume/model"
)

const (
	defaultMaxAttempts = 3
	minExperience      = 3
)

// Searcher is the part of the retriever the synthesizer needs.
type Searcher interface {
	SearchMany(ctx context.Context, ownerID string, queries []string, k int) (retrieval.Results, error)
	Latest(ctx context.Context, ownerID string) (*experiences.Record, error)
}

// Synthesizer produces validated drafts.
type Synthesizer struct {
	Retriever      Searcher
	LLM            llm.Client
	MaxAttempts    int
	MaxTermQueries int
	TopK           int
}

// Input is one synthesis request.
type Input struct {
	OwnerID string
	Job     jobdesc.JobDescription
	Model   string
	// Records is the owner's current experience set. It backfills evidence
	// when retrieval returns fewer eligible records than the draft needs.
	Records []experiences.Record
}

// Result is a validated draft plus what it was built from.
type Result struct {
	Draft    model.Draft
	Evidence []experiences.Record
	Queries  []string
	Attempts int
}

// Synthesize retrieves evidence, prompts the model and validates its output.
// It never returns a partial draft.
func (s *Synthesizer) Synthesize(ctx context.Context, in Input) (Result, error) {
	queries := BuildQueries(in.Job, s.MaxTermQueries)
	found, err := s.Retriever.SearchMany(ctx, in.OwnerID, queries, s.TopK)
	if err != nil {
		return Result{}, err
	}
	latest, err := s.Retriever.Latest(ctx, in.OwnerID)
	if err != nil {
		return Result{}, err
	}

	required := min(minExperience, countEligible(in.Records))
	evidence := assembleEvidence(found.Records, latest, in.Records, required)
	if countEligible(evidence) == 0 {
		return Result{}, fmt.Errorf("%w: no eligible experience in evidence", ErrSynthesis)
	}
	language := jobdesc.DominantLanguage(evidenceTexts(evidence))

	req := llm.Request{
		Model:  in.Model,
		System: llm.SynthesisPrompt(language, required),
		User:   userPrompt(in.Job, evidence, latest),
		JSON:   true,
	}

	attempts := s.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		metrics.IncSynthesisAttempt()
		resp, err := s.LLM.Complete(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			return Result{}, fmt.Errorf("%w: model call: %v", ErrSynthesis, err)
		}

		draft, err := parseDraft(resp.Text, evidence, required)
		if err == nil {
			draft.Language = language
			return Result{Draft: draft, Evidence: evidence, Queries: queries, Attempts: attempt}, nil
		}
		lastErr = err
		telemetry.Warn("synthesis.invalid_output", map[string]any{
			"attempt": attempt,
			"model":   req.Model,
			"err":     err,
		})
		req.Corrections = append(req.Corrections, llm.CorrectionPrompt(resp.Text, err))
	}
	return Result{}, fmt.Errorf("%w: %d attempts exhausted: %v", ErrSynthesis, attempts, lastErr)
}

// parseDraft decodes and validates one model answer.
func parseDraft(raw string, evidence []experiences.Record, required int) (model.Draft, error) {
	var draft model.Draft
	if err := llm.DecodeStrict(raw, &draft); err != nil {
		return model.Draft{}, err
	}
	if err := draft.Validate(); err != nil {
		return model.Draft{}, err
	}
	if err := draft.CheckMinExperience(required); err != nil {
		return model.Draft{}, err
	}
	if err := draft.CheckSkillPolicy(); err != nil {
		return model.Draft{}, err
	}
	if err := checkCompanies(draft, evidence); err != nil {
		return model.Draft{}, err
	}
	return draft, nil
}

var errUnknownCompany = errors.New("company not found in evidence")

func checkCompanies(draft model.Draft, evidence []experiences.Record) error {
	known := make(map[string]struct{})
	for _, r := range evidence {
		if r.Eligible() {
			known[strings.ToLower(strings.TrimSpace(r.Company))] = struct{}{}
		}
	}
	for i, exp := range draft.Section.Experience {
		if _, ok := known[strings.ToLower(strings.TrimSpace(exp.Company))]; !ok {
			return fmt.Errorf("experience[%d].company %q: %w", i, exp.Company, errUnknownCompany)
		}
	}
	return nil
}

// assembleEvidence merges retrieved records with the latest position and,
// when needed, the most recent eligible records not yet included.
func assembleEvidence(found []experiences.Scored, latest *experiences.Record, all []experiences.Record, required int) []experiences.Record {
	seen := make(map[string]struct{})
	var out []experiences.Record
	add := func(r experiences.Record) {
		if _, ok := seen[r.ID]; ok {
			return
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	if latest != nil {
		add(*latest)
	}
	for _, s := range found {
		add(s.Record)
	}
	if countEligible(out) < required {
		backfill := make([]experiences.Record, 0, len(all))
		for _, r := range all {
			if r.Eligible() {
				backfill = append(backfill, r)
			}
		}
		experiences.SortByStartDesc(backfill)
		for _, r := range backfill {
			if countEligible(out) >= required {
				break
			}
			add(r)
		}
	}
	return out
}

func countEligible(records []experiences.Record) int {
	n := 0
	for _, r := range records {
		if r.Eligible() {
			n++
		}
	}
	return n
}

func evidenceTexts(records []experiences.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		if r.Description != "" {
			out = append(out, r.Description)
		}
	}
	return out
}
