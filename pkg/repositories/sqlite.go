package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	gametypes "github.com/cbodonnell/solongsucker/pkg/game/types"
	"github.com/cbodonnell/solongsucker/pkg/messages"
	"github.com/cbodonnell/solongsucker/pkg/repositories/models"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session TEXT NOT NULL,
	received_at INTEGER NOT NULL,
	current_turn TEXT NOT NULL,
	state TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS snapshots_session_idx ON snapshots (session, id);
`

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the database at path and creates the schema.
func NewSQLiteRepository(ctx context.Context, path string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %v", err)
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, session string, receivedAt time.Time, gameState *gametypes.GameState) (int64, error) {
	state, err := messages.EncodeGameState(gameState)
	if err != nil {
		return 0, err
	}

	q := `
	INSERT INTO snapshots (session, received_at, current_turn, state)
	VALUES (?, ?, ?, ?);
	`
	res, err := r.db.ExecContext(ctx, q, session, receivedAt.UnixMilli(), string(gameState.CurrentTurn), string(state))
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get snapshot id: %v", err)
	}
	return id, nil
}

func (r *SQLiteRepository) ListSnapshots(ctx context.Context, session string, limit int) ([]*models.Snapshot, error) {
	q := `
	SELECT id, session, received_at, current_turn, state FROM snapshots
	WHERE session = ? ORDER BY id LIMIT ?;
	`
	// sqlite treats a negative limit as no limit
	sqlLimit := -1
	if limit > 0 {
		sqlLimit = limit
	}
	rows, err := r.db.QueryContext(ctx, q, session, sqlLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %v", err)
	}
	defer rows.Close()

	var snapshots []*models.Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %v", err)
	}
	return snapshots, nil
}

func (r *SQLiteRepository) LatestSnapshot(ctx context.Context) (*models.Snapshot, error) {
	q := `
	SELECT id, session, received_at, current_turn, state FROM snapshots
	ORDER BY id DESC LIMIT 1;
	`
	snapshot, err := scanSnapshot(r.db.QueryRowContext(ctx, q))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, err
	}
	return snapshot, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*models.Snapshot, error) {
	snapshot := &models.Snapshot{}
	var state string
	if err := row.Scan(&snapshot.ID, &snapshot.Session, &snapshot.ReceivedAt, &snapshot.CurrentTurn, &state); err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	gameState, err := messages.DecodeGameState([]byte(state))
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %d: %w", snapshot.ID, err)
	}
	snapshot.State = gameState
	return snapshot, nil
}
