package generations

import (
	"encoding/json"
	"strings"

	"resume-generator/internal/jobdesc"
	"resume-generator/internal/shared/util"
	"resume-generator/resume/render"
)

// Request is one generation request.
type Request struct {
	UserID         string        `json:"user_id"`
	JobDescription string        `json:"job_description"`
	Format         render.Format `json:"format"`
	ModelID        string        `json:"model_id"`
}

// keyFields is the canonical form hashed into keys. Field order is fixed by
// the struct, so the JSON encoding is stable.
type keyFields struct {
	UserID      string `json:"user_id"`
	JobDesc     string `json:"job_description"`
	Format      string `json:"format,omitempty"`
	ModelID     string `json:"model_id"`
	Fingerprint string `json:"fingerprint"`
}

// Key is the idempotency key of req against an experience set fingerprint.
func Key(req Request, fingerprint string) string {
	return hashFields(keyFields{
		UserID:      req.UserID,
		JobDesc:     jobdesc.Normalize(req.JobDescription),
		Format:      string(req.Format),
		ModelID:     strings.TrimSpace(req.ModelID),
		Fingerprint: fingerprint,
	})
}

// DraftKey identifies the draft of req regardless of output format.
func DraftKey(req Request, fingerprint string) string {
	return hashFields(keyFields{
		UserID:      req.UserID,
		JobDesc:     jobdesc.Normalize(req.JobDescription),
		ModelID:     strings.TrimSpace(req.ModelID),
		Fingerprint: fingerprint,
	})
}

func hashFields(f keyFields) string {
	raw, _ := json.Marshal(f)
	return util.SHA256Hex(raw)
}
