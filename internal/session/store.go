// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/oralgen/oralgen-mcp/internal/pedigree"
)

// timestampLayout has a fixed width so timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store keeps review sessions in SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens or creates the session database at path. The special path
// ":memory:" gives a private in-memory database.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger, now: time.Now}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		interview_id TEXT NOT NULL DEFAULT '',
		interviewee TEXT NOT NULL DEFAULT '',
		data TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_timestamp ON sessions(timestamp);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts or replaces a session. A session without an ID gets a new
// one. The stored timestamp is the save time.
func (s *Store) Save(ctx context.Context, sess Session) (Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	sess.Timestamp = s.now().UTC()
	if sess.Document.Rows == nil {
		sess.Document.Rows = []pedigree.Row{}
	}

	data, err := json.Marshal(sess.Document)
	if err != nil {
		return Session{}, fmt.Errorf("failed to encode session %s: %w", sess.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, timestamp, interview_id, interviewee, data)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			timestamp = excluded.timestamp,
			interview_id = excluded.interview_id,
			interviewee = excluded.interviewee,
			data = excluded.data`,
		sess.ID,
		sess.Timestamp.Format(timestampLayout),
		sess.Document.Metadata.InterviewID,
		sess.Document.Metadata.IntervieweeName,
		string(data))
	if err != nil {
		return Session{}, fmt.Errorf("failed to save session %s: %w", sess.ID, err)
	}
	s.logger.Debug("saved session", zap.String("id", sess.ID), zap.Int("rows", len(sess.Document.Rows)))
	return sess, nil
}

// Get loads one session.
func (s *Store) Get(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, timestamp, data FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return sess, err
}

// List returns the sessions matching query, newest first.
func (s *Store) List(ctx context.Context, query string) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, timestamp, data FROM sessions ORDER BY timestamp DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	out := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		if sess.Matches(query) {
			out = append(out, sess)
		}
	}
	return out, rows.Err()
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	s.logger.Debug("deleted session", zap.String("id", id))
	return nil
}

// UpdateRow applies one field edit to the row with the given RIN and saves
// the session.
func (s *Store) UpdateRow(ctx context.Context, id string, rin int, field, value string) (Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	idx := -1
	for i, r := range sess.Document.Rows {
		if r.RIN == rin {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Session{}, fmt.Errorf("session %s row %d: %w", id, rin, ErrNotFound)
	}
	if err := SetField(&sess.Document.Rows[idx], field, value); err != nil {
		return Session{}, err
	}
	return s.Save(ctx, sess)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (Session, error) {
	var (
		sess Session
		ts   string
		data string
	)
	if err := sc.Scan(&sess.ID, &ts, &data); err != nil {
		return Session{}, err
	}
	t, err := time.Parse(timestampLayout, ts)
	if err != nil {
		return Session{}, fmt.Errorf("session %s has a bad timestamp %q: %w", sess.ID, ts, err)
	}
	sess.Timestamp = t
	if err := json.Unmarshal([]byte(data), &sess.Document); err != nil {
		return Session{}, fmt.Errorf("failed to decode session %s: %w", sess.ID, err)
	}
	return sess, nil
}
