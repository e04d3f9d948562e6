package queue

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestMessageRoundTrip(t *testing.T) {
	msg := Message{
		Key:            "4f1c",
		UserID:         "user_12345678",
		JobDescription: "# Backend Engineer\n- Go",
		Format:         "word",
		ModelID:        "gpt-4o-mini",
		RequestID:      "request-456",
		EnqueuedAt:     "2026-01-30T22:00:00Z",
		Version:        MessageVersion,
	}

	payload, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}
	if !strings.Contains(string(payload), `"jobDescription"`) {
		t.Fatalf("expected camelCase keys, got %s", payload)
	}

	got, err := DecodeMessage(payload)
	if err != nil {
		t.Fatalf("decode message: %v", err)
	}

	if !reflect.DeepEqual(got, msg) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, msg)
	}
}

func TestDecodeMessageRejectsInvalidJSON(t *testing.T) {
	if _, err := DecodeMessage([]byte("{bad")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestMessageAge(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 30, 0, time.UTC)
	tests := []struct {
		name       string
		enqueuedAt string
		want       time.Duration
	}{
		{name: "waited", enqueuedAt: "2026-03-01T12:00:00Z", want: 30 * time.Second},
		{name: "missing", enqueuedAt: "", want: 0},
		{name: "clock skew", enqueuedAt: "2026-03-01T12:01:00Z", want: 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := (Message{EnqueuedAt: tt.enqueuedAt}).Age(now); got != tt.want {
				t.Fatalf("Age() = %s, want %s", got, tt.want)
			}
		})
	}
}
