// Package signing issues and verifies expiring HMAC-signed download links.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// MinTTL is the shortest lifetime a link may be issued with.
const MinTTL = 60 * time.Second

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrExpired          = errors.New("link expired")
)

// Signer signs download paths of the form /download/<user>/<key>/<file>.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New returns a Signer. A ttl below MinTTL is raised to MinTTL.
func New(secret string, ttl time.Duration) *Signer {
	if ttl < MinTTL {
		ttl = MinTTL
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the signer using now as its clock.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	cp := *s
	cp.now = now
	return &cp
}

// Sign returns the expiry and hex signature for a user's artifact.
func (s *Signer) Sign(userID, key, file string) (int64, string) {
	exp := s.now().Add(s.ttl).Unix()
	return exp, s.sign(userID, key, file, exp)
}

// URL returns a relative signed URL under basePath (e.g. "/api/v1/download").
func (s *Signer) URL(basePath, userID, key, file string) string {
	exp, sig := s.Sign(userID, key, file)
	q := url.Values{}
	q.Set("exp", strconv.FormatInt(exp, 10))
	q.Set("sig", sig)
	return fmt.Sprintf("%s/%s/%s/%s?%s",
		strings.TrimRight(basePath, "/"),
		url.PathEscape(userID),
		url.PathEscape(key),
		url.PathEscape(file),
		q.Encode(),
	)
}

// Verify checks a signature and expiry. Expiry is checked first so that an
// expired link reports ErrExpired even when its signature is stale.
func (s *Signer) Verify(userID, key, file, rawExp, sig string) error {
	rawExp = strings.TrimSpace(rawExp)
	sig = strings.TrimSpace(sig)
	if rawExp == "" || sig == "" {
		return ErrMissingSignature
	}
	exp, err := strconv.ParseInt(rawExp, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	if s.now().Unix() > exp {
		return ErrExpired
	}
	expected := s.sign(userID, key, file, exp)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}

func (s *Signer) sign(userID, key, file string, exp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(userID + ":" + key + "/" + file + ":" + strconv.FormatInt(exp, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
