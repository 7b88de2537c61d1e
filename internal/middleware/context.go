package middleware

import "context"

// context keys are unexported to avoid collisions
type ctxKey string

const (
	ctxKeyDeviceID  ctxKey = "device_id"
	ctxKeyCSRFToken ctxKey = "csrf_token"
)

// WithDeviceID stores the device identity in context.
func WithDeviceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyDeviceID, id)
}

// DeviceID returns the device identity assigned by the Device middleware.
func DeviceID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyDeviceID).(string)
	return v
}

func withCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeyCSRFToken, token)
}

// CSRFToken returns the token issued by the CSRF middleware, for embedding
// in forms.
func CSRFToken(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyCSRFToken).(string)
	return v
}
