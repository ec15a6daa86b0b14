package repositories

import (
	"context"
	"time"

	gametypes "github.com/cbodonnell/solongsucker/pkg/game/types"
	"github.com/cbodonnell/solongsucker/pkg/repositories/models"
)

// Repository archives accepted snapshots.
type Repository interface {
	Close(ctx context.Context) error
	// SaveSnapshot stores a snapshot and returns its id.
	SaveSnapshot(ctx context.Context, session string, receivedAt time.Time, gameState *gametypes.GameState) (int64, error)
	// ListSnapshots returns snapshots of a session in the order they were
	// saved. A limit of zero returns all of them.
	ListSnapshots(ctx context.Context, session string, limit int) ([]*models.Snapshot, error)
	// LatestSnapshot returns the most recently saved snapshot of any session.
	LatestSnapshot(ctx context.Context) (*models.Snapshot, error)
}
