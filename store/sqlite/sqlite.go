// Package sqlite keeps the latest snapshot of each room in a SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/undeconstructed/banker/game"
	"github.com/undeconstructed/banker/store"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

type Store struct {
	db   *sql.DB
	poll time.Duration
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, poll: time.Second}, nil
}

// Save keeps the snapshot only if it is newer than what is stored.
func (s *Store) Save(ctx context.Context, st game.State) error {
	data, err := store.Encode(st)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (room_code, version, state, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (room_code) DO UPDATE SET
		   version = excluded.version,
		   state = excluded.state,
		   updated_at = excluded.updated_at
		 WHERE excluded.version >= snapshots.version`,
		st.RoomCode, st.Version, string(data), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", st.RoomCode, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, code string) (game.State, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM snapshots WHERE room_code = ?`, code).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return game.State{}, store.ErrNotFound
	} else if err != nil {
		return game.State{}, fmt.Errorf("load %s: %w", code, err)
	}
	return store.Decode([]byte(data))
}

func (s *Store) Delete(ctx context.Context, code string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE room_code = ?`, code)
	if err != nil {
		return fmt.Errorf("delete %s: %w", code, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT room_code FROM snapshots ORDER BY room_code`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("list rooms: %w", err)
		}
		out = append(out, code)
	}
	return out, rows.Err()
}

func (s *Store) Watch(ctx context.Context, code string) (<-chan game.State, error) {
	return store.Poll(ctx, s.poll, code, s.Load), nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
