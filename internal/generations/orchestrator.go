// Package generations runs the resume generation pipeline: experience
// snapshot, cache lookup, synthesis, translation, rendering and artifact
// storage, reported as an ordered stream of progress events.
package generations

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"resume-generator/internal/experiences"
	"resume-generator/internal/extract"
	"resume-generator/internal/jobdesc"
	"resume-generator/internal/retrieval"
	"resume-generator/internal/shared/metrics"
	"resume-generator/internal/shared/storage/object"
	"resume-generator/internal/shared/telemetry"
	"resume-generator/internal/shared/util"
	"resume-generator/internal/synthesis"
	"resume-generator/internal/translation"
	"resume-generator/resume/model"
	"resume-generator/resume/render"
)

const (
	defaultConcurrency = 4
	defaultTimeout     = 5 * time.Minute
	minExperience      = 3
)

// ExperienceSource lists a user's experience set.
type ExperienceSource interface {
	Snapshot(ctx context.Context, ownerID string) (experiences.Snapshot, error)
}

// DraftSynthesizer builds a validated draft from retrieved evidence.
type DraftSynthesizer interface {
	Synthesize(ctx context.Context, in synthesis.Input) (synthesis.Result, error)
}

// DraftTranslator localizes a draft. translated is false for a no-op.
type DraftTranslator interface {
	Translate(ctx context.Context, draft model.Draft, target, modelID string) (out model.Draft, translated bool, err error)
}

// DocumentRenderer produces the source document and its PDF.
type DocumentRenderer interface {
	Render(ctx context.Context, doc render.Document, format render.Format) (render.Output, error)
}

// Orchestrator drives generation requests. The zero value of the optional
// fields is usable; Experiences, Synthesizer, Translator, Renderer and Store
// are required.
type Orchestrator struct {
	Experiences ExperienceSource
	Synthesizer DraftSynthesizer
	Translator  DraftTranslator
	Renderer    DocumentRenderer
	Store       object.Store
	Cache       Cache
	Sinks       []EventSink

	DefaultModel string
	// Concurrency bounds pipelines running past the cache check.
	Concurrency int
	Timeout     time.Duration
	Now         func() time.Time

	once  sync.Once
	locks *KeyLock
	sem   *semaphore.Weighted
}

func (o *Orchestrator) init() {
	o.once.Do(func() {
		if o.Cache == nil {
			o.Cache = NewMemoryCache()
		}
		if o.Concurrency <= 0 {
			o.Concurrency = defaultConcurrency
		}
		if o.Timeout <= 0 {
			o.Timeout = defaultTimeout
		}
		if o.Now == nil {
			o.Now = time.Now
		}
		o.locks = NewKeyLock()
		o.sem = semaphore.NewWeighted(int64(o.Concurrency))
	})
}

// Normalize validates req and fills defaults.
func (o *Orchestrator) Normalize(req Request) (Request, error) {
	o.init()
	userID, err := util.ValidateUserID(req.UserID)
	if err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	req.UserID = userID
	if strings.TrimSpace(req.JobDescription) == "" {
		return Request{}, fmt.Errorf("%w: job_description is required", ErrInvalidRequest)
	}
	if req.Format == "" {
		req.Format = render.FormatLatex
	}
	format, err := render.ParseFormat(string(req.Format))
	if err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	req.Format = format
	req.ModelID = strings.TrimSpace(req.ModelID)
	if req.ModelID == "" {
		req.ModelID = o.DefaultModel
	}
	return req, nil
}

// KeyFor returns the idempotency key req has against the user's current
// experience set.
func (o *Orchestrator) KeyFor(ctx context.Context, req Request) (string, error) {
	req, err := o.Normalize(req)
	if err != nil {
		return "", err
	}
	snap, err := o.Experiences.Snapshot(ctx, req.UserID)
	if err != nil {
		return "", fmt.Errorf("%w: list experience: %v", retrieval.ErrRetrievalUnavailable, err)
	}
	return Key(req, snap.Fingerprint), nil
}

// Run starts a generation and streams its events. The channel is closed
// after the terminal event, or without one when ctx is cancelled or the run
// times out.
func (o *Orchestrator) Run(ctx context.Context, req Request) <-chan Event {
	o.init()
	out := make(chan Event, len(stageOrder))
	go func() {
		defer close(out)
		o.run(ctx, req, out)
	}()
	return out
}

// Generate runs a generation to completion and returns its terminal event.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (Event, error) {
	var last Event
	for ev := range o.Run(ctx, req) {
		last = ev
	}
	if last.Stage.Terminal() {
		return last, nil
	}
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	return Event{
		Stage:     StageError,
		Key:       last.Key,
		Code:      CodeTimeout,
		Message:   ErrTimeout.Error(),
		Timestamp: o.Now().UTC(),
	}, ErrTimeout
}

func (o *Orchestrator) run(parent context.Context, req Request, out chan<- Event) {
	ctx, cancel := context.WithTimeout(parent, o.Timeout)
	defer cancel()

	started := metrics.NowMillis()
	metrics.IncGenerationStarted()

	em := &emitter{
		ctx:   ctx,
		out:   out,
		sinks: o.Sinks,
		user:  util.HashUserKey(req.UserID),
		now:   o.Now,
		last:  o.Now(),
	}

	res, err := o.pipeline(ctx, req, em)
	defer func() {
		metrics.ObserveGenerationDurationMs(metrics.NowMillis() - started)
	}()

	switch {
	case err == nil:
		metrics.IncGenerationCompleted()
		em.emit(Event{Stage: StageDone, Result: &res, Rows: res.Rows})
	case ctx.Err() != nil:
		metrics.IncGenerationFailed()
		telemetry.Warn("generation.cancelled", map[string]any{
			"key":     em.key,
			"user_id": em.user,
			"err":     ctx.Err(),
		})
	default:
		metrics.IncGenerationFailed()
		code := Classify(err)
		msg := sanitizeError(err)
		if code == CodeNoExperience {
			msg = "No experience records found"
		}
		telemetry.Error("generation.failed", map[string]any{
			"key":     em.key,
			"user_id": em.user,
			"code":    code,
			"err":     msg,
		})
		em.emit(Event{Stage: StageError, Code: code, Message: msg})
	}
}

func (o *Orchestrator) pipeline(ctx context.Context, req Request, em *emitter) (Result, error) {
	req, err := o.Normalize(req)
	if err != nil {
		return Result{}, err
	}

	snap, err := o.Experiences.Snapshot(ctx, req.UserID)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, fmt.Errorf("%w: list experience: %v", retrieval.ErrRetrievalUnavailable, err)
	}
	jd := jobdesc.Parse(req.JobDescription)
	key := Key(req, snap.Fingerprint)
	draftKey := DraftKey(req, snap.Fingerprint)
	em.key = key

	if !em.emit(Event{
		Stage:    StageCSVInfo,
		Rows:     len(snap.Records),
		Eligible: snap.Eligible,
		Message:  fmt.Sprintf("%d experience records, %d eligible", len(snap.Records), snap.Eligible),
	}) {
		return Result{}, ctx.Err()
	}
	if snap.Eligible == 0 {
		return Result{}, ErrNoExperience
	}
	if err := o.Cache.PurgeStale(ctx, req.UserID, snap.Fingerprint); err != nil {
		cacheWarn("purge", key, err)
	}

	if res, ok := o.cached(ctx, key); ok {
		metrics.IncCacheHit()
		return res, nil
	}
	metrics.IncCacheMiss()

	unlock, err := o.locks.Lock(ctx, key)
	if err != nil {
		return Result{}, err
	}
	defer unlock()
	// A concurrent identical request may have finished while we waited.
	if res, ok := o.cached(ctx, key); ok {
		metrics.IncCacheHit()
		return res, nil
	}

	if err := o.sem.Acquire(ctx, 1); err != nil {
		return Result{}, err
	}
	defer o.sem.Release(1)

	if !em.emit(Event{Stage: StageInvokingGraph}) {
		return Result{}, ctx.Err()
	}
	draft, reused, err := o.draft(ctx, req, jd, snap, draftKey)
	if err != nil {
		return Result{}, err
	}
	complete := Event{Stage: StageGraphComplete}
	if reused {
		complete.Message = "reused cached draft"
	}
	if !em.emit(complete) {
		return Result{}, ctx.Err()
	}

	if err := validateDraft(draft, snap.Eligible); err != nil {
		return Result{}, fmt.Errorf("%w: %v", synthesis.ErrSynthesis, err)
	}
	if !em.emit(Event{Stage: StageParsed}) {
		return Result{}, ctx.Err()
	}

	if !em.emit(Event{Stage: StageTranslating, Message: "target language " + jd.Language}) {
		return Result{}, ctx.Err()
	}
	draft, translated, err := o.Translator.Translate(ctx, draft, jd.Language, req.ModelID)
	if err != nil {
		return Result{}, err
	}
	if translated {
		if err := validateDraft(draft, snap.Eligible); err != nil {
			return Result{}, fmt.Errorf("%w: %v", translation.ErrTranslation, err)
		}
	}
	done := Event{Stage: StageTranslated, Message: "no translation needed"}
	if translated {
		done.Message = "translated to " + draft.Language
	}
	if !em.emit(done) {
		return Result{}, ctx.Err()
	}

	if !em.emit(Event{Stage: StageWritingFile, Message: string(req.Format)}) {
		return Result{}, ctx.Err()
	}
	out, err := o.Renderer.Render(ctx, render.Document{Draft: draft, Profile: snap.Profile}, req.Format)
	if err != nil {
		return Result{}, err
	}
	if len(out.Source) == 0 || len(out.PDF) == 0 {
		return Result{}, fmt.Errorf("%w: empty artifact", render.ErrRender)
	}
	sourceRef, pdfRef, err := o.storeArtifacts(ctx, req.UserID, key, out)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Key:         key,
		DraftKey:    draftKey,
		UserID:      req.UserID,
		Fingerprint: snap.Fingerprint,
		Format:      req.Format,
		ModelID:     req.ModelID,
		Draft:       draft,
		SourceRef:   sourceRef,
		PDFRef:      pdfRef,
		Rows:        len(snap.Records),
		CreatedAt:   o.Now().UTC(),
	}
	if err := o.Cache.Put(ctx, res); err != nil {
		cacheWarn("put", key, err)
	}
	return res, nil
}

func (o *Orchestrator) draft(ctx context.Context, req Request, jd jobdesc.JobDescription, snap experiences.Snapshot, draftKey string) (model.Draft, bool, error) {
	cached, ok, err := o.Cache.GetDraft(ctx, draftKey)
	if err != nil {
		cacheWarn("get_draft", draftKey, err)
	}
	if ok {
		return cached, true, nil
	}
	res, err := o.Synthesizer.Synthesize(ctx, synthesis.Input{
		OwnerID: req.UserID,
		Job:     jd,
		Model:   req.ModelID,
		Records: snap.Records,
	})
	if err != nil {
		if ctx.Err() != nil {
			return model.Draft{}, false, ctx.Err()
		}
		return model.Draft{}, false, err
	}
	return res.Draft, false, nil
}

func (o *Orchestrator) cached(ctx context.Context, key string) (Result, bool) {
	res, ok, err := o.Cache.Get(ctx, key)
	if err != nil {
		cacheWarn("get", key, err)
		return Result{}, false
	}
	return res, ok
}

// storeArtifacts writes the source first and the PDF second. A failed second
// write leaves the source unreferenced.
func (o *Orchestrator) storeArtifacts(ctx context.Context, userID, key string, out render.Output) (string, string, error) {
	sourceRef := object.ArtifactKey(userID, key, out.SourceName)
	if _, err := o.Store.Put(ctx, sourceRef, out.Format.ContentType(), bytes.NewReader(out.Source)); err != nil {
		return "", "", fmt.Errorf("%w: source: %v", ErrStorage, err)
	}
	pdfRef := object.ArtifactKey(userID, key, render.PDFName)
	if _, err := o.Store.Put(ctx, pdfRef, extract.MimePDF, bytes.NewReader(out.PDF)); err != nil {
		return "", "", fmt.Errorf("%w: pdf: %v", ErrStorage, err)
	}
	return sourceRef, pdfRef, nil
}

func validateDraft(d model.Draft, eligible int) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if err := d.CheckMinExperience(min(minExperience, eligible)); err != nil {
		return err
	}
	return d.CheckSkillPolicy()
}

func cacheWarn(op, key string, err error) {
	telemetry.Warn("generation.cache", map[string]any{
		"op":  op,
		"key": key,
		"err": fmt.Errorf("%w: %v", ErrCache, err),
	})
}

type emitter struct {
	ctx   context.Context
	out   chan<- Event
	sinks []EventSink
	key   string
	user  string
	now   func() time.Time
	last  time.Time
}

// emit delivers ev unless the run is cancelled. It reports whether the
// event was delivered.
func (e *emitter) emit(ev Event) bool {
	if e.ctx.Err() != nil {
		return false
	}
	now := e.now()
	ev.Key = e.key
	ev.Timestamp = now.UTC()
	telemetry.Info("generation.stage", map[string]any{
		"key":         e.key,
		"user_id":     e.user,
		"stage":       string(ev.Stage),
		"duration_ms": now.Sub(e.last).Milliseconds(),
	})
	e.last = now

	select {
	case e.out <- ev:
	case <-e.ctx.Done():
		return false
	}
	for _, sink := range e.sinks {
		if err := sink.Publish(e.ctx, ev); err != nil {
			telemetry.Warn("generation.sink_failed", map[string]any{
				"key":   e.key,
				"stage": string(ev.Stage),
				"err":   err,
			})
		}
	}
	return true
}
