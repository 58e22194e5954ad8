// Package store keeps a device's local state in sqlite: its session, the
// feed cursor, a copy of every entity, unpushed changes and open conflicts.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	ErrNoSession = errors.New("no stored session")
	ErrNotFound  = errors.New("not found")
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn and applies the schema. Use
// ":memory:" for a throwaway store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	// One writer, and every caller sees the same in-memory database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring store: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("creating migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) withTx(ctx context.Context, fn func(tx dbtx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}

// Session is the signed-in device as last issued by the server.
type Session struct {
	Server         string
	Username       string
	UserID         uuid.UUID
	DeviceRecordID uuid.UUID
	DeviceID       string
	AccessToken    string
	RefreshToken   string
	ExpiresAt      time.Time
}

func (s *Store) SaveSession(ctx context.Context, sess Session) error {
	const q = `
		INSERT INTO session (id, server, username, user_id, device_record_id, device_id, access_token, refresh_token, expires_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			server = excluded.server, username = excluded.username, user_id = excluded.user_id,
			device_record_id = excluded.device_record_id, device_id = excluded.device_id,
			access_token = excluded.access_token, refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at
	`
	_, err := s.db.ExecContext(ctx, q, sess.Server, sess.Username, sess.UserID.String(), sess.DeviceRecordID.String(),
		sess.DeviceID, sess.AccessToken, sess.RefreshToken, toMillis(sess.ExpiresAt))
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (s *Store) Session(ctx context.Context) (*Session, error) {
	const q = `
		SELECT server, username, user_id, device_record_id, device_id, access_token, refresh_token, expires_at
		FROM session WHERE id = 1
	`
	var (
		sess      Session
		userID    string
		recordID  string
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, q).Scan(&sess.Server, &sess.Username, &userID, &recordID,
		&sess.DeviceID, &sess.AccessToken, &sess.RefreshToken, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	if sess.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	if sess.DeviceRecordID, err = uuid.Parse(recordID); err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	sess.ExpiresAt = fromMillis(expiresAt)
	return &sess, nil
}

// UpdateTokens stores a rotated token pair on the existing session.
func (s *Store) UpdateTokens(ctx context.Context, accessToken, refreshToken string, expiresAt time.Time) error {
	const q = `UPDATE session SET access_token = ?, refresh_token = ?, expires_at = ? WHERE id = 1`
	res, err := s.db.ExecContext(ctx, q, accessToken, refreshToken, toMillis(expiresAt))
	if err != nil {
		return fmt.Errorf("updating tokens: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoSession
	}
	return nil
}

func (s *Store) ClearSession(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Cursor is the last feed seq this device applied.
func (s *Store) Cursor(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `SELECT seq FROM cursor WHERE id = 1`).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading cursor: %w", err)
	}
	return seq, nil
}

// SetCursor never moves the cursor backwards.
func (s *Store) SetCursor(ctx context.Context, seq int64) error {
	const q = `
		INSERT INTO cursor (id, seq) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET seq = MAX(cursor.seq, excluded.seq)
	`
	if _, err := s.db.ExecContext(ctx, q, seq); err != nil {
		return fmt.Errorf("saving cursor: %w", err)
	}
	return nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
