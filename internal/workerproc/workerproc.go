package workerproc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resume-generator/internal/generations"
	"resume-generator/internal/queue"
	"resume-generator/internal/shared/util"
	"resume-generator/resume/render"
)

// Generator runs one generation to completion.
type Generator interface {
	Generate(ctx context.Context, req generations.Request) (generations.Event, error)
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	return MessageMeta{BodyLen: len(body), BodySHA: util.SHA256Hex([]byte(body))}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a payload that is not a generation message.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrInvalidMessage indicates a decoded message missing a required field.
type ErrInvalidMessage struct {
	Meta      MessageMeta
	RequestID string
	Field     string
}

func (e ErrInvalidMessage) Error() string { return "missing " + e.Field }

// ErrProcess indicates the generation could not finish and the message
// should be redelivered.
type ErrProcess struct {
	Key       string
	RequestID string
	Code      string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process generation"
	}
	return "process generation: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if msg.Version > queue.MessageVersion {
		return msg, meta, ErrDecode{Meta: meta, Err: fmt.Errorf("unsupported message version %d", msg.Version)}
	}
	if strings.TrimSpace(msg.UserID) == "" {
		return msg, meta, ErrInvalidMessage{Meta: meta, RequestID: msg.RequestID, Field: "userId"}
	}
	if strings.TrimSpace(msg.JobDescription) == "" {
		return msg, meta, ErrInvalidMessage{Meta: meta, RequestID: msg.RequestID, Field: "jobDescription"}
	}
	return msg, meta, nil
}

type parsedMessageKey struct{}

// WithParsedMessage stores a decoded message in the context for reuse.
func WithParsedMessage(ctx context.Context, msg queue.Message) context.Context {
	return context.WithValue(ctx, parsedMessageKey{}, msg)
}

func parsedMessageFromContext(ctx context.Context) (queue.Message, bool) {
	if ctx == nil {
		return queue.Message{}, false
	}
	msg, ok := ctx.Value(parsedMessageKey{}).(queue.Message)
	return msg, ok
}

// Retryable reports whether a failed generation with code may succeed on
// redelivery.
func Retryable(code string) bool {
	switch code {
	case generations.CodeRetrievalUnavailable, generations.CodeTimeout, generations.CodeInternalError:
		return true
	default:
		return false
	}
}

// HandleMessage parses a message payload and runs its generation. It returns
// the terminal event when the message is done with, successful or not, and
// ErrProcess when it should be redelivered.
func HandleMessage(ctx context.Context, gen Generator, body string) (generations.Event, error) {
	if gen == nil {
		return generations.Event{}, errors.New("generator not configured")
	}

	msg, ok := parsedMessageFromContext(ctx)
	if !ok {
		var err error
		msg, _, err = ParseMessage(body)
		if err != nil {
			return generations.Event{}, err
		}
	}

	req := generations.Request{
		UserID:         msg.UserID,
		JobDescription: msg.JobDescription,
		Format:         render.Format(strings.TrimSpace(msg.Format)),
		ModelID:        msg.ModelID,
	}
	ev, err := gen.Generate(ctx, req)
	if err != nil {
		return ev, ErrProcess{Key: msg.Key, RequestID: msg.RequestID, Code: generations.Classify(err), Err: err}
	}
	if ev.Stage == generations.StageError && Retryable(ev.Code) {
		return ev, ErrProcess{Key: msg.Key, RequestID: msg.RequestID, Code: ev.Code, Err: errors.New(ev.Message)}
	}
	return ev, nil
}
