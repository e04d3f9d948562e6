package util

import (
	"errors"
	"testing"
)

func TestValidateUserID(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "valid", in: "user_1234", want: "user_1234"},
		{name: "trimmed", in: "  abcd-efgh  ", want: "abcd-efgh"},
		{name: "too short", in: "abc", wantErr: true},
		{name: "guest", in: "guest", wantErr: true},
		{name: "path chars", in: "../../etc/passwd", wantErr: true},
		{name: "spaces inside", in: "abcd efgh", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ValidateUserID(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidUserID) {
					t.Fatalf("expected ErrInvalidUserID, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
