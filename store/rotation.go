// Package store persists per-device rotation state across sessions so
// that cleanupAdb (SPEC_FULL.md §4.6) can restore the user_rotation and
// accelerometer_rotation settings a native_taskbar session or an
// adbRotateScreen command overrode. It adapts the teacher's config.InitDatabase sqlite bootstrap
// for this single table instead of the teacher's original schema.
package store

import (
	"database/sql"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS rotation_state (
	device_id TEXT PRIMARY KEY,
	user_rotation TEXT NOT NULL,
	accelerometer_rotation TEXT NOT NULL,
	saved_at INTEGER NOT NULL
);
`

// RotationStore is the sqlite-backed rotation-state cache named in
// SPEC_FULL.md §5 ("guarded by its own lock") — the lock here is
// sqlite's own serialization of writes on a single *sql.DB; callers do
// not need an additional mutex.
type RotationStore struct {
	db  *sql.DB
	log *zap.Logger
}

// Open creates the database directory, opens the sqlite file at path,
// and ensures the rotation_state table exists.
func Open(path string, log *zap.Logger) (*RotationStore, error) {
	if dir := dirOf(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return &RotationStore{db: db, log: log}, nil
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return ""
}

// Close releases the underlying database handle.
func (s *RotationStore) Close() error {
	return s.db.Close()
}

// RotationState is a device's pre-override rotation settings.
type RotationState struct {
	UserRotation          string
	AccelerometerRotation string
}

// Save records deviceID's current rotation settings, overwriting any
// prior entry. Called before a native_taskbar session or an
// adbRotateScreen command changes them.
func (s *RotationStore) Save(deviceID string, state RotationState) error {
	_, err := s.db.Exec(
		`INSERT INTO rotation_state (device_id, user_rotation, accelerometer_rotation, saved_at)
		 VALUES (?, ?, ?, strftime('%s','now'))
		 ON CONFLICT(device_id) DO UPDATE SET
			user_rotation=excluded.user_rotation,
			accelerometer_rotation=excluded.accelerometer_rotation,
			saved_at=excluded.saved_at`,
		deviceID, state.UserRotation, state.AccelerometerRotation,
	)
	return err
}

// Load returns the saved rotation state for deviceID, or ok=false if
// none has been recorded (e.g. the session never overrode it).
func (s *RotationStore) Load(deviceID string) (state RotationState, ok bool, err error) {
	row := s.db.QueryRow(
		`SELECT user_rotation, accelerometer_rotation FROM rotation_state WHERE device_id = ?`,
		deviceID,
	)
	err = row.Scan(&state.UserRotation, &state.AccelerometerRotation)
	if err == sql.ErrNoRows {
		return RotationState{}, false, nil
	}
	if err != nil {
		return RotationState{}, false, err
	}
	return state, true, nil
}

// Clear removes deviceID's saved rotation state once cleanupAdb has
// restored it.
func (s *RotationStore) Clear(deviceID string) error {
	_, err := s.db.Exec(`DELETE FROM rotation_state WHERE device_id = ?`, deviceID)
	return err
}
