package prefs

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"
)

// CookieProvider stores each preference in its own HMAC-signed cookie,
// one cookie per key, expiring with the preference TTL.
type CookieProvider struct {
	SignKey []byte
	Secure  bool
}

// Open binds a cookie store to the given exchange.
func (p CookieProvider) Open(w http.ResponseWriter, r *http.Request) Store {
	return &cookieStore{key: p.SignKey, secure: p.Secure, w: w, r: r}
}

type cookieStore struct {
	key    []byte
	secure bool
	w      http.ResponseWriter
	r      *http.Request
	// values written during this exchange, so a Get after Set sees them
	written map[string]string
}

func (s *cookieStore) Get(_ context.Context, key string) (string, bool) {
	if v, ok := s.written[key]; ok {
		return v, true
	}
	if s.r == nil {
		return "", false
	}
	c, err := s.r.Cookie(key)
	if err != nil || c.Value == "" {
		return "", false
	}
	value, ok := s.verify(c.Value)
	return value, ok
}

func (s *cookieStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if s.w == nil {
		// storage unavailable; callers tolerate absence
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    s.sign(value),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(ttl),
	})
	if s.written == nil {
		s.written = map[string]string{}
	}
	s.written[key] = value
	return nil
}

// sign encodes value as payload.sig with an HMAC-SHA256 signature so stored
// preferences cannot be forged client-side.
func (s *cookieStore) sign(value string) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(value))
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(value))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return payload + "." + sig
}

func (s *cookieStore) verify(raw string) (string, bool) {
	parts := strings.Split(raw, ".")
	if len(parts) != 2 {
		return "", false
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", false
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", false
	}
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return "", false
	}
	return string(payload), true
}
