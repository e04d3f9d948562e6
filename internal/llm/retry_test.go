package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "deadline", err: fmt.Errorf("wrap: %w", context.DeadlineExceeded), want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "server error", err: errors.New("openai http status 502: bad gateway"), want: true},
		{name: "rate limit", err: errors.New("gemini http status 429: quota"), want: true},
		{name: "bad request", err: errors.New("openai http status 400: invalid"), want: false},
		{name: "reset", err: errors.New("read tcp: connection reset by peer"), want: true},
		{name: "validation", err: errors.New("experience[0].company is required"), want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ShouldRetry(tt.err); got != tt.want {
				t.Fatalf("ShouldRetry(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryingRetriesOnce(t *testing.T) {
	calls := 0
	base := ClientFunc(func(ctx context.Context, req Request) (Response, error) {
		calls++
		return Response{}, errors.New("openai http status 503: unavailable")
	})
	r := &Retrying{Base: base, Delay: time.Millisecond}

	if _, err := r.Complete(context.Background(), Request{Model: "m"}); err == nil {
		t.Fatalf("expected error")
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestRetryingSkipsPermanentErrors(t *testing.T) {
	calls := 0
	base := ClientFunc(func(ctx context.Context, req Request) (Response, error) {
		calls++
		return Response{}, errors.New("openai http status 401: bad key")
	})
	r := &Retrying{Base: base, Delay: time.Millisecond}

	if _, err := r.Complete(context.Background(), Request{}); err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetryingHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	base := ClientFunc(func(ctx context.Context, req Request) (Response, error) {
		cancel()
		return Response{}, errors.New("connection reset")
	})
	r := &Retrying{Base: base, Delay: time.Hour}

	_, err := r.Complete(ctx, Request{})
	if err == nil {
		t.Fatalf("expected error after cancel")
	}
}

func TestNewRetryingNil(t *testing.T) {
	if NewRetrying(nil) != nil {
		t.Fatalf("expected nil for nil base")
	}
}
