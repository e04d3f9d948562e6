package signing

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestSignVerify(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	s := New("secret", 15*time.Minute).WithClock(func() time.Time { return now })

	exp, sig := s.Sign("user_12345678", "abc", "resume.pdf")
	if exp != now.Add(15*time.Minute).Unix() {
		t.Fatalf("unexpected exp %d", exp)
	}
	rawExp := strconv.FormatInt(exp, 10)

	tests := []struct {
		name    string
		user    string
		file    string
		exp     string
		sig     string
		wantErr error
	}{
		{name: "valid", user: "user_12345678", file: "resume.pdf", exp: rawExp, sig: sig},
		{name: "other file", user: "user_12345678", file: "resume.tex", exp: rawExp, sig: sig, wantErr: ErrInvalidSignature},
		{name: "other user", user: "user_87654321", file: "resume.pdf", exp: rawExp, sig: sig, wantErr: ErrInvalidSignature},
		{name: "missing sig", user: "user_12345678", file: "resume.pdf", exp: rawExp, wantErr: ErrMissingSignature},
		{name: "bad exp", user: "user_12345678", file: "resume.pdf", exp: "soon", sig: sig, wantErr: ErrInvalidSignature},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := s.Verify(tt.user, "abc", tt.file, tt.exp, tt.sig)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Verify() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerifyExpired(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	s := New("secret", time.Minute).WithClock(func() time.Time { return now })
	exp, sig := s.Sign("user_12345678", "abc", "resume.pdf")

	later := s.WithClock(func() time.Time { return now.Add(2 * time.Minute) })
	err := later.Verify("user_12345678", "abc", "resume.pdf", strconv.FormatInt(exp, 10), sig)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestNewEnforcesMinTTL(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	s := New("secret", time.Second).WithClock(func() time.Time { return now })
	exp, _ := s.Sign("u", "k", "f")
	if exp != now.Add(MinTTL).Unix() {
		t.Fatalf("expected ttl floor of %s", MinTTL)
	}
}

func TestURL(t *testing.T) {
	s := New("secret", time.Hour)
	raw := s.URL("/api/v1/download/", "user_12345678", "abc", "resume.pdf")
	if !strings.HasPrefix(raw, "/api/v1/download/user_12345678/abc/resume.pdf?") {
		t.Fatalf("unexpected url %q", raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if err := s.Verify("user_12345678", "abc", "resume.pdf", q.Get("exp"), q.Get("sig")); err != nil {
		t.Fatalf("round trip verify: %v", err)
	}
}
