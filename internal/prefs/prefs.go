// Package prefs wraps durable per-device key/value storage for visitor
// preferences. Values survive process restarts on the same device; callers
// own the semantics of what they store.
package prefs

import (
	"context"
	"net/http"
	"time"
)

// Preference keys. Name and phone form the visitor identity; language is
// the device-global display preference.
const (
	KeyLanguage     = "language"
	KeyVisitorName  = "visitorName"
	KeyVisitorPhone = "visitorPhone"
)

// DefaultTTL is how long a stored preference remains valid.
const DefaultTTL = 365 * 24 * time.Hour

// Store is durable get/set with per-key expiry. Get returns absent (never
// an error) when the underlying storage is unavailable or the value has
// expired; Set degrades to a no-op in the same situation. Callers must
// tolerate absence.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Provider binds a Store to an HTTP exchange. Cookie-backed stores need the
// request for reads and the response writer for writes; database-backed
// stores need the device cookie for row keying.
type Provider interface {
	Open(w http.ResponseWriter, r *http.Request) Store
}
