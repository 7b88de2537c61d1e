package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// DeviceCookieName identifies a kiosk device across visits. The preference
// store and the per-device session registry both key off it.
const DeviceCookieName = "kiosk_device"

const deviceCookieTTL = 365 * 24 * time.Hour

// Device assigns a durable device identity cookie on first contact and
// exposes it through the request context.
func Device(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(DeviceCookieName); err == nil && c.Value != "" {
				id = c.Value
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     DeviceCookieName,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
					Expires:  time.Now().Add(deviceCookieTTL),
				})
				// make the fresh cookie visible to downstream readers
				r.AddCookie(&http.Cookie{Name: DeviceCookieName, Value: id})
			}
			next.ServeHTTP(w, r.WithContext(WithDeviceID(r.Context(), id)))
		})
	}
}
