package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	ErrUnknownCapture   = errors.New("unknown capture")
	ErrInvalidDirection = errors.New("invalid frame direction")
)

// SQLiteStore implements Store using an embedded SQLite database.
// It uses modernc.org/sqlite which is pure Go (no CGO).
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex // serializes writes (SQLite is single-writer)
}

// NewSQLiteStore opens or creates the SQLite database at path and runs
// schema migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating capture dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	// Single connection for writes to avoid SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating sqlite: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS captures (
			id TEXT PRIMARY KEY,
			device TEXT NOT NULL,
			codec TEXT NOT NULL,
			started_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS frames (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			capture_id TEXT NOT NULL REFERENCES captures(id) ON DELETE CASCADE,
			direction TEXT NOT NULL CHECK (direction IN ('rx', 'tx')),
			payload BLOB NOT NULL,
			at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_frames_capture ON frames(capture_id, seq)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}
	return nil
}

// --- Captures ---

func (s *SQLiteStore) CaptureCreate(ctx context.Context, device, codec string) (*Capture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &Capture{
		ID:        uuid.NewString(),
		Device:    device,
		Codec:     codec,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO captures (id, device, codec, started_at) VALUES (?, ?, ?, ?)",
		c.ID, c.Device, c.Codec, c.StartedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

const captureColumns = `SELECT c.id, c.device, c.codec, c.started_at,
	(SELECT COUNT(*) FROM frames f WHERE f.capture_id = c.id)
	FROM captures c`

func (s *SQLiteStore) CaptureList(ctx context.Context) ([]Capture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, captureColumns+" ORDER BY c.started_at DESC, c.id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var captures []Capture
	for rows.Next() {
		var c Capture
		if err := rows.Scan(&c.ID, &c.Device, &c.Codec, &c.StartedAt, &c.FrameCount); err != nil {
			return nil, err
		}
		captures = append(captures, c)
	}
	return captures, rows.Err()
}

func (s *SQLiteStore) CaptureGet(ctx context.Context, id string) (*Capture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c Capture
	err := s.db.QueryRowContext(ctx, captureColumns+" WHERE c.id = ?", id).
		Scan(&c.ID, &c.Device, &c.Codec, &c.StartedAt, &c.FrameCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CaptureDelete removes a capture and its frames.
func (s *SQLiteStore) CaptureDelete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM frames WHERE capture_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM captures WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// --- Frames ---

func (s *SQLiteStore) FrameAppend(ctx context.Context, captureID string, dir Direction, payload []byte) error {
	if !dir.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}
	if payload == nil {
		payload = []byte{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM captures WHERE id = ?", captureID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", ErrUnknownCapture, captureID)
	}
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO frames (capture_id, direction, payload, at) VALUES (?, ?, ?, ?)",
		captureID, string(dir), payload, time.Now().UTC(),
	)
	return err
}

func (s *SQLiteStore) FrameList(ctx context.Context, captureID string) ([]FrameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT seq, capture_id, direction, payload, at FROM frames WHERE capture_id = ? ORDER BY seq",
		captureID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []FrameRecord
	for rows.Next() {
		var f FrameRecord
		var dir string
		if err := rows.Scan(&f.Seq, &f.CaptureID, &dir, &f.Payload, &f.At); err != nil {
			return nil, err
		}
		f.Direction = Direction(dir)
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
