package prefs

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const deviceCookieName = "kiosk_device"

const schema = `
CREATE TABLE IF NOT EXISTS preferences (
	device_id  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	expires_at INTEGER NOT NULL,
	PRIMARY KEY (device_id, key)
);`

// OpenDB opens (and migrates) the kiosk preference database at path. Pure
// Go driver, suitable for installed kiosk hardware with no cgo toolchain.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("prefs: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("prefs: migrate: %w", err)
	}
	return db, nil
}

// SQLiteProvider keys preference rows by a device cookie, assigning one on
// first contact. Used when the kiosk runs on managed hardware where local
// durable storage is preferable to large cookies.
type SQLiteProvider struct {
	DB     *sql.DB
	Secure bool
}

// Open resolves (or assigns) the device identity and binds a row-keyed store.
func (p SQLiteProvider) Open(w http.ResponseWriter, r *http.Request) Store {
	deviceID := ""
	if r != nil {
		if c, err := r.Cookie(deviceCookieName); err == nil && c.Value != "" {
			deviceID = c.Value
		}
	}
	if deviceID == "" {
		deviceID = uuid.NewString()
		if w != nil {
			http.SetCookie(w, &http.Cookie{
				Name:     deviceCookieName,
				Value:    deviceID,
				Path:     "/",
				HttpOnly: true,
				Secure:   p.Secure,
				SameSite: http.SameSiteLaxMode,
				Expires:  time.Now().Add(DefaultTTL),
			})
		}
	}
	return &sqliteStore{db: p.DB, deviceID: deviceID}
}

type sqliteStore struct {
	db       *sql.DB
	deviceID string
}

func (s *sqliteStore) Get(ctx context.Context, key string) (string, bool) {
	if s.db == nil {
		return "", false
	}
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE device_id = ? AND key = ? AND expires_at > ?`,
		s.deviceID, key, time.Now().Unix(),
	).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

func (s *sqliteStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if s.db == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (device_id, key, value, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (device_id, key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		s.deviceID, key, value, time.Now().Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("prefs: set %s: %w", key, err)
	}
	return nil
}
