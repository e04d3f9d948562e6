package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"

	"resume-generator/internal/generations"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	closed   bool
	err      error
}

func (c *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	c.exchange = exchange
	c.key = key
	c.msg = msg
	return c.err
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func sinkWith(ch *fakeChannel, openErr error) *AMQPSink {
	return &AMQPSink{
		exchange: Exchange,
		open: func() (publisher, error) {
			if openErr != nil {
				return nil, openErr
			}
			return ch, nil
		},
	}
}

func TestPublishDoneEvent(t *testing.T) {
	ch := &fakeChannel{}
	sink := sinkWith(ch, nil)
	ts := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	err := sink.Publish(context.Background(), generations.Event{
		Stage:     generations.StageDone,
		Key:       "abc",
		Timestamp: ts,
		Rows:      4,
		Result: &generations.Result{
			SourceRef: "artifacts/u/abc/resume.tex",
			PDFRef:    "artifacts/u/abc/resume.pdf",
		},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if ch.exchange != Exchange || ch.key != "generation.abc" {
		t.Fatalf("unexpected destination %s %s", ch.exchange, ch.key)
	}
	if !ch.closed {
		t.Fatalf("expected channel closed after publish")
	}
	if ch.msg.ContentType != "application/json" || !ch.msg.Timestamp.Equal(ts) {
		t.Fatalf("unexpected publishing %+v", ch.msg)
	}

	var got map[string]any
	if err := json.Unmarshal(ch.msg.Body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["stage"] != "done" || got["pdf_artifact_ref"] != "artifacts/u/abc/resume.pdf" {
		t.Fatalf("unexpected body %v", got)
	}
	if _, ok := got["draft"]; ok {
		t.Fatalf("draft must not be published")
	}
}

func TestPublishErrors(t *testing.T) {
	tests := []struct {
		name    string
		ctx     func() context.Context
		openErr error
		pubErr  error
	}{
		{name: "cancelled", ctx: func() context.Context {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			return ctx
		}},
		{name: "open", ctx: context.Background, openErr: errors.New("channel/connection is not open")},
		{name: "publish", ctx: context.Background, pubErr: errors.New("exchange not found")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sink := sinkWith(&fakeChannel{err: tt.pubErr}, tt.openErr)
			err := sink.Publish(tt.ctx(), generations.Event{Stage: generations.StageParsed, Key: "abc"})
			if err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestCloseWithoutConnection(t *testing.T) {
	if err := (&AMQPSink{}).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
