package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gametypes "github.com/gridgames/gridlock/pkg/game/types"
	"github.com/gridgames/gridlock/pkg/log"
	"github.com/jackc/pgx/v5"
)

type PostgresRepository struct {
	conn *pgx.Conn
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	state JSONB NOT NULL,
	updated_at BIGINT NOT NULL
);
`

// NewPostgresRepository creates a new PostgresRepository.
// It panics if it is unable to connect to the database.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) Repository {
	conn := connectDb(ctx, connStr)

	if _, err := conn.Exec(ctx, postgresSchema); err != nil {
		panic(fmt.Sprintf("Unable to create sessions table: %v\n", err))
	}

	return &PostgresRepository{
		conn: conn,
	}
}

func connectDb(ctx context.Context, connStr string) *pgx.Conn {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		panic(fmt.Sprintf("Unable to connect to database: %v\n", err))
	}

	var username string
	var database string
	err = conn.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database)
	if err != nil {
		panic(fmt.Sprintf("Unable to query database: %v\n", err))
	}

	log.Info("Connected to %s as %s", database, username)

	return conn
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) SaveSession(ctx context.Context, state *gametypes.SessionState) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %v", err)
	}

	q := `
	INSERT INTO sessions (session_id, state, updated_at) VALUES ($1, $2, $3)
	ON CONFLICT (session_id) DO UPDATE SET state = $2, updated_at = $3;
	`
	if _, err := r.conn.Exec(ctx, q, state.ID, doc, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to insert session: %v", err)
	}

	return nil
}

func (r *PostgresRepository) LoadSession(ctx context.Context, id string) (*gametypes.SessionState, error) {
	q := `
	SELECT state FROM sessions WHERE session_id = $1;
	`
	var doc []byte
	if err := r.conn.QueryRow(ctx, q, id).Scan(&doc); err != nil {
		if err == pgx.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan session: %v", err)
	}

	state := &gametypes.SessionState{}
	if err := json.Unmarshal(doc, state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %v", err)
	}
	state.ID = id

	return state, nil
}
