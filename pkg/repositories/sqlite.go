package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	gametypes "github.com/gridgames/gridlock/pkg/game/types"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	state TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

func NewSQLiteRepository(ctx context.Context, path string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create sessions table: %v", err)
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) SaveSession(ctx context.Context, state *gametypes.SessionState) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %v", err)
	}

	q := `
	INSERT OR REPLACE INTO sessions (session_id, state, updated_at)
	VALUES (?, ?, ?);
	`
	if _, err := r.db.ExecContext(ctx, q, state.ID, string(doc), time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to insert session: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) LoadSession(ctx context.Context, id string) (*gametypes.SessionState, error) {
	q := `
	SELECT state FROM sessions WHERE session_id = ?;
	`
	var doc string
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&doc); err != nil {
		if err == sql.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan session: %v", err)
	}

	state := &gametypes.SessionState{}
	if err := json.Unmarshal([]byte(doc), state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %v", err)
	}
	state.ID = id

	return state, nil
}
