package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"resume-generator/internal/shared/telemetry"
)

const retryBaseDelay = 300 * time.Millisecond

// Retrying retries a transient provider failure once after a short delay.
// Validation failures are not its concern.
type Retrying struct {
	Base  Client
	Delay time.Duration
}

// NewRetrying wraps base. A nil base yields nil.
func NewRetrying(base Client) Client {
	if base == nil {
		return nil
	}
	return &Retrying{Base: base, Delay: retryBaseDelay}
}

// Complete calls Base, retrying once on a transient error.
func (r *Retrying) Complete(ctx context.Context, req Request) (Response, error) {
	resp, err := r.Base.Complete(ctx, req)
	if err == nil || !ShouldRetry(err) || ctx.Err() != nil {
		return resp, err
	}

	telemetry.Warn("llm.retry", map[string]any{
		"attempt": 1,
		"model":   req.Model,
		"err":     truncate(err.Error(), 300),
	})
	select {
	case <-time.After(r.Delay):
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
	return r.Base.Complete(ctx, req)
}

// ShouldRetry reports whether err looks like a transient provider failure:
// timeouts, 5xx and rate limits, or a dropped connection.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "http status 429") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "timeout") && (strings.Contains(msg, "openai") || strings.Contains(msg, "gemini") || strings.Contains(msg, "llm") || strings.Contains(msg, "client.timeout")) {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
