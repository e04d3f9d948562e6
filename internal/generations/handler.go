package generations

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-generator/internal/extract"
	"resume-generator/internal/queue"
	"resume-generator/internal/shared/server/middleware"
	"resume-generator/internal/shared/server/respond"
	"resume-generator/internal/shared/signing"
	"resume-generator/internal/shared/storage/object"
	"resume-generator/internal/shared/telemetry"
	"resume-generator/internal/shared/util"
	"resume-generator/resume/render"
)

// DownloadPath is the route prefix of signed artifact links.
const DownloadPath = "/api/v1/download"

var keyPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Generator is the orchestrator surface used over HTTP.
type Generator interface {
	Run(ctx context.Context, req Request) <-chan Event
	Generate(ctx context.Context, req Request) (Event, error)
	KeyFor(ctx context.Context, req Request) (string, error)
}

// Handler exposes generation over HTTP.
type Handler struct {
	gen    Generator
	cache  Cache
	store  object.Store
	signer *signing.Signer
	queue  queue.Client
	now    func() time.Time
}

// NewHandler constructs a Handler. q may be nil when no queue is configured.
func NewHandler(gen Generator, cache Cache, store object.Store, signer *signing.Signer, q queue.Client) *Handler {
	return &Handler{gen: gen, cache: cache, store: store, signer: signer, queue: q, now: time.Now}
}

// RegisterRoutes mounts the generation endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users/:userId", middleware.UserParam())
	users.POST("/resume", h.generate)
	users.POST("/resume/stream", h.stream)
	users.POST("/resume/jobs", h.enqueue)
	users.GET("/resume/jobs/:key", h.job)

	rg.GET("/download/:userId/:key/:file", middleware.UserParam(), h.download)
}

type generateBody struct {
	JobDescription string `json:"job_description"`
	Format         string `json:"format"`
	Model          string `json:"model"`
}

// Files are signed download links of a result.
type Files struct {
	Source string `json:"source"`
	PDF    string `json:"pdf"`
}

type eventPayload struct {
	Event
	Files *Files `json:"files,omitempty"`
}

func (h *Handler) bind(c *gin.Context) (Request, bool) {
	var body generateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return Request{}, false
	}
	if strings.TrimSpace(body.JobDescription) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "job_description is required", nil)
		return Request{}, false
	}
	format := render.FormatLatex
	if strings.TrimSpace(body.Format) != "" {
		f, err := render.ParseFormat(body.Format)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "format must be latex or word", nil)
			return Request{}, false
		}
		format = f
	}
	return Request{
		UserID:         middleware.UserIDFromContext(c),
		JobDescription: body.JobDescription,
		Format:         format,
		ModelID:        strings.TrimSpace(body.Model),
	}, true
}

func (h *Handler) generate(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	ev, err := h.gen.Generate(c.Request.Context(), req)
	if err != nil && ev.Stage != StageError {
		// Client went away; nothing left to write.
		c.Abort()
		return
	}
	if ev.Key != "" {
		middleware.SetGenerationKey(c, ev.Key)
	}
	if ev.Stage == StageError {
		respond.Error(c, HTTPStatus(ev.Code), ev.Code, ev.Message, nil)
		return
	}
	respond.OK(c, gin.H{
		"result": ev.Result,
		"files":  h.files(ev.Result),
		"rows":   ev.Result.Rows,
	})
}

func (h *Handler) stream(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	events := h.gen.Run(ctx, req)

	respond.StreamHeaders(c)

	terminal := false
	c.Stream(func(w io.Writer) bool {
		ev, open := <-events
		if !open {
			if !terminal && ctx.Err() == nil {
				writeSSE(w, eventPayload{Event: Event{
					Stage:     StageError,
					Code:      CodeTimeout,
					Message:   ErrTimeout.Error(),
					Timestamp: h.now().UTC(),
				}})
			}
			return false
		}
		if ev.Key != "" {
			middleware.SetGenerationKey(c, ev.Key)
		}
		payload := eventPayload{Event: ev}
		if ev.Stage == StageDone {
			payload.Files = h.files(ev.Result)
		}
		writeSSE(w, payload)
		terminal = ev.Stage.Terminal()
		return !terminal
	})
}

func writeSSE(w io.Writer, payload eventPayload) {
	if err := respond.SSE(w, payload); err != nil {
		telemetry.Warn("generation.sse_write", map[string]any{"key": payload.Key, "err": err})
	}
}

func (h *Handler) enqueue(c *gin.Context) {
	if h.queue == nil {
		respond.Error(c, http.StatusServiceUnavailable, "queue_unavailable", "generation queue is not configured", nil)
		return
	}
	req, ok := h.bind(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	key, err := h.gen.KeyFor(ctx, req)
	if err != nil {
		code := Classify(err)
		respond.Error(c, HTTPStatus(code), code, sanitizeError(err), nil)
		return
	}
	middleware.SetGenerationKey(c, key)

	msg := queue.Message{
		Key:            key,
		UserID:         req.UserID,
		JobDescription: req.JobDescription,
		Format:         string(req.Format),
		ModelID:        req.ModelID,
		RequestID:      middleware.RequestIDFromContext(c),
		EnqueuedAt:     h.now().UTC().Format(time.RFC3339),
		Version:        queue.MessageVersion,
	}
	if err := h.queue.Send(ctx, msg); err != nil {
		telemetry.Error("generation.enqueue_failed", map[string]any{"key": key, "err": err})
		respond.Error(c, http.StatusServiceUnavailable, "queue_unavailable", "failed to enqueue generation", nil)
		return
	}
	respond.JSON(c, http.StatusAccepted, gin.H{"key": key})
}

func (h *Handler) job(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	key := c.Param("key")
	if !keyPattern.MatchString(key) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid generation key", nil)
		return
	}
	middleware.SetGenerationKey(c, key)

	res, ok, err := h.cache.Get(c.Request.Context(), key)
	if err != nil {
		cacheWarn("get", key, err)
	}
	if !ok || res.UserID != userID {
		respond.Error(c, http.StatusNotFound, "not_ready", "generation result is not available yet", nil)
		return
	}
	respond.OK(c, gin.H{
		"result": res,
		"files":  h.files(&res),
		"rows":   res.Rows,
	})
}

func (h *Handler) download(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	key := c.Param("key")
	file := c.Param("file")
	if _, err := util.CleanFileName(file); err != nil || !keyPattern.MatchString(key) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid download path", nil)
		return
	}

	if err := h.signer.Verify(userID, key, file, c.Query("exp"), c.Query("sig")); err != nil {
		if errors.Is(err, signing.ErrExpired) {
			respond.Error(c, http.StatusGone, "link_expired", "download link expired", nil)
			return
		}
		respond.Error(c, http.StatusForbidden, "forbidden", "invalid download signature", nil)
		return
	}

	rc, err := h.store.Open(c.Request.Context(), object.ArtifactKey(userID, key, file))
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "artifact not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to open artifact", nil)
		return
	}
	defer rc.Close()

	br := bufio.NewReader(rc)
	head, _ := br.Peek(8)
	c.DataFromReader(http.StatusOK, -1, extract.ContentType(file, head), br, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, file),
	})
}

func (h *Handler) files(res *Result) *Files {
	if res == nil || h.signer == nil {
		return nil
	}
	return &Files{
		Source: h.signer.URL(DownloadPath, res.UserID, res.Key, path.Base(res.SourceRef)),
		PDF:    h.signer.URL(DownloadPath, res.UserID, res.Key, path.Base(res.PDFRef)),
	}
}
