package generations

import (
	"context"
	"time"

	"resume-generator/resume/model"
	"resume-generator/resume/render"
)

// Stage is a pipeline state reported to callers.
type Stage string

const (
	StageCSVInfo       Stage = "csv_info"
	StageInvokingGraph Stage = "invoking_graph"
	StageGraphComplete Stage = "graph_complete"
	StageParsed        Stage = "parsed"
	StageTranslating   Stage = "translating"
	StageTranslated    Stage = "translated"
	StageWritingFile   Stage = "writing_file"
	StageDone          Stage = "done"
	StageError         Stage = "error"
)

var stageOrder = map[Stage]int{
	StageCSVInfo:       1,
	StageInvokingGraph: 2,
	StageGraphComplete: 3,
	StageParsed:        4,
	StageTranslating:   5,
	StageTranslated:    6,
	StageWritingFile:   7,
	StageDone:          8,
	StageError:         8,
}

// Order is the position of s in the canonical sequence. Terminal stages share
// the last position.
func (s Stage) Order() int {
	return stageOrder[s]
}

// Terminal reports whether no event follows s.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageError
}

// Result is a completed generation. It is only ever built after both
// artifacts are stored.
type Result struct {
	Key         string        `json:"key"`
	DraftKey    string        `json:"draft_key"`
	UserID      string        `json:"user_id"`
	Fingerprint string        `json:"fingerprint"`
	Format      render.Format `json:"format"`
	ModelID     string        `json:"model_id"`
	Draft       model.Draft   `json:"draft"`
	SourceRef   string        `json:"source_artifact_ref"`
	PDFRef      string        `json:"pdf_artifact_ref"`
	Rows        int           `json:"rows"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Event is one progress update.
type Event struct {
	Stage     Stage     `json:"stage"`
	Key       string    `json:"key,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Rows      int       `json:"rows,omitempty"`
	Eligible  int       `json:"eligible,omitempty"`
	Result    *Result   `json:"result,omitempty"`
	Code      string    `json:"code,omitempty"`
}

// EventSink receives a copy of every event. Failures are logged and ignored.
type EventSink interface {
	Publish(ctx context.Context, ev Event) error
}
