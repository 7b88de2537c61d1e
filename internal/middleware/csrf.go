package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"
)

const csrfCookieName = "csrf_token"

// CSRF issues a double-submit cookie and verifies that modifying requests
// echo the token back in the csrf_token form field or X-CSRF-Token header.
func CSRF(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(csrfCookieName); err == nil && c.Value != "" {
				token = c.Value
			}
			if token == "" {
				token = newCSRFToken()
				http.SetCookie(w, &http.Cookie{
					Name:     csrfCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: false,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
					Expires:  time.Now().Add(24 * time.Hour),
				})
			}

			if !isSafeMethod(r.Method) {
				got := r.Header.Get("X-CSRF-Token")
				if got == "" {
					got = r.PostFormValue(csrfCookieName)
				}
				if got == "" || got != token {
					http.Error(w, "invalid CSRF token", http.StatusForbidden)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(withCSRFToken(r.Context(), token)))
		})
	}
}

func newCSRFToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func isSafeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
