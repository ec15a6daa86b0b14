package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	gametypes "github.com/cbodonnell/solongsucker/pkg/game/types"
	"github.com/cbodonnell/solongsucker/pkg/log"
	"github.com/cbodonnell/solongsucker/pkg/messages"
	"github.com/cbodonnell/solongsucker/pkg/repositories/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id BIGSERIAL PRIMARY KEY,
	session TEXT NOT NULL,
	received_at BIGINT NOT NULL,
	current_turn TEXT NOT NULL,
	state JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS snapshots_session_idx ON snapshots (session, id);
`

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to the database and creates the schema.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	var username string
	var database string
	err = pool.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to query database: %v", err)
	}
	log.Info("Connected to %s as %s", database, username)

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %v", err)
	}

	return &PostgresRepository{
		pool: pool,
	}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) SaveSnapshot(ctx context.Context, session string, receivedAt time.Time, gameState *gametypes.GameState) (int64, error) {
	state, err := messages.EncodeGameState(gameState)
	if err != nil {
		return 0, err
	}

	q := `
	INSERT INTO snapshots (session, received_at, current_turn, state)
	VALUES ($1, $2, $3, $4) RETURNING id;
	`
	var id int64
	err = r.pool.QueryRow(ctx, q, session, receivedAt.UnixMilli(), string(gameState.CurrentTurn), string(state)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %v", err)
	}
	return id, nil
}

func (r *PostgresRepository) ListSnapshots(ctx context.Context, session string, limit int) ([]*models.Snapshot, error) {
	q := `
	SELECT id, session, received_at, current_turn, state::text FROM snapshots
	WHERE session = $1 ORDER BY id LIMIT $2;
	`
	// LIMIT NULL means no limit
	var sqlLimit *int
	if limit > 0 {
		sqlLimit = &limit
	}
	rows, err := r.pool.Query(ctx, q, session, sqlLimit)
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

func (r *PostgresRepository) LatestSnapshot(ctx context.Context) (*models.Snapshot, error) {
	q := `
	SELECT id, session, received_at, current_turn, state::text FROM snapshots
	ORDER BY id DESC LIMIT 1;
	`
	snapshot, err := scanSnapshot(r.pool.QueryRow(ctx, q))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, err
	}
	return snapshot, nil
}
