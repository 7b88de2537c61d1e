package prefs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	require.NoError(t, s.Set(ctx, KeyLanguage, "hindi", 20*time.Millisecond))
	v, ok := s.Get(ctx, KeyLanguage)
	require.True(t, ok)
	assert.Equal(t, "hindi", v)

	time.Sleep(40 * time.Millisecond)
	_, ok = s.Get(ctx, KeyLanguage)
	assert.False(t, ok, "expired value must read as absent")
}

func TestCookieStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	provider := CookieProvider{SignKey: []byte("test-signing-key")}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	store := provider.Open(rec, req)

	require.NoError(t, store.Set(ctx, KeyVisitorName, "Asha", 0))

	// within the same exchange the written value is visible
	v, ok := store.Get(ctx, KeyVisitorName)
	require.True(t, ok)
	assert.Equal(t, "Asha", v)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == KeyVisitorName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "expected a visitorName cookie")
	assert.True(t, cookie.Expires.After(time.Now().Add(360*24*time.Hour)), "default TTL should be about a year")

	// a later request carrying the cookie reads the value back
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookie)
	store2 := provider.Open(httptest.NewRecorder(), req2)
	v, ok = store2.Get(ctx, KeyVisitorName)
	require.True(t, ok)
	assert.Equal(t, "Asha", v)
}

func TestCookieStoreRejectsTamperedValue(t *testing.T) {
	ctx := context.Background()
	provider := CookieProvider{SignKey: []byte("test-signing-key")}

	rec := httptest.NewRecorder()
	store := provider.Open(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, store.Set(ctx, KeyVisitorPhone, "9876543210", 0))

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == KeyVisitorPhone {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	parts := strings.SplitN(cookie.Value, ".", 2)
	require.Len(t, parts, 2)
	cookie.Value = parts[0] + ".AAAA" // broken signature

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	store2 := provider.Open(httptest.NewRecorder(), req)
	_, ok := store2.Get(ctx, KeyVisitorPhone)
	assert.False(t, ok, "tampered cookie must read as absent")
}

func TestCookieStoreSetWithoutWriterIsNoop(t *testing.T) {
	ctx := context.Background()
	store := CookieProvider{SignKey: []byte("k")}.Open(nil, nil)
	assert.NoError(t, store.Set(ctx, KeyLanguage, "english", 0))
	_, ok := store.Get(ctx, KeyLanguage)
	assert.False(t, ok)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	db, err := OpenDB(t.TempDir() + "/prefs.db")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	provider := SQLiteProvider{DB: db}

	rec := httptest.NewRecorder()
	store := provider.Open(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, store.Set(ctx, KeyLanguage, "hindi", time.Hour))

	var device *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == deviceCookieName {
			device = c
		}
	}
	require.NotNil(t, device, "first contact assigns a device cookie")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(device)
	store2 := provider.Open(httptest.NewRecorder(), req)
	v, ok := store2.Get(ctx, KeyLanguage)
	require.True(t, ok)
	assert.Equal(t, "hindi", v)

	// a different device sees nothing
	other := provider.Open(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	_, ok = other.Get(ctx, KeyLanguage)
	assert.False(t, ok)
}

func TestSQLiteStoreExpiry(t *testing.T) {
	db, err := OpenDB(t.TempDir() + "/prefs.db")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	store := &sqliteStore{db: db, deviceID: "dev-1"}

	require.NoError(t, store.Set(ctx, KeyVisitorName, "Asha", 0)) // ttl<=0 falls back to DefaultTTL
	v, ok := store.Get(ctx, KeyVisitorName)
	require.True(t, ok)
	assert.Equal(t, "Asha", v)

	// force the row into the past
	_, err = db.Exec(`UPDATE preferences SET expires_at = ? WHERE device_id = ?`, time.Now().Add(-time.Minute).Unix(), "dev-1")
	require.NoError(t, err)
	_, ok = store.Get(ctx, KeyVisitorName)
	assert.False(t, ok)
}
