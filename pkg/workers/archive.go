package workers

import (
	"context"
	"sync/atomic"
	"time"

	gametypes "github.com/cbodonnell/solongsucker/pkg/game/types"
	"github.com/cbodonnell/solongsucker/pkg/log"
	"github.com/cbodonnell/solongsucker/pkg/repositories"
)

const DefaultArchiveBufferSize = 100

type ArchiveWorker struct {
	repository   repositories.Repository
	session      string
	saveRequests chan SaveSnapshotRequest
	now          func() time.Time
	saved        atomic.Uint64
	dropped      atomic.Uint64
}

type NewArchiveWorkerOptions struct {
	Repository repositories.Repository
	// Session tags every snapshot archived by this worker.
	Session    string
	BufferSize int
}

type SaveSnapshotRequest struct {
	ReceivedAt time.Time
	GameState  *gametypes.GameState
}

// NewArchiveWorker creates a new ArchiveWorker.
// The worker receives snapshots from a state subscription and saves
// them to the repository without blocking the subscriber.
func NewArchiveWorker(opts NewArchiveWorkerOptions) *ArchiveWorker {
	bufferSize := opts.BufferSize
	if bufferSize <= 0 {
		bufferSize = DefaultArchiveBufferSize
	}
	return &ArchiveWorker{
		repository:   opts.Repository,
		session:      opts.Session,
		saveRequests: make(chan SaveSnapshotRequest, bufferSize),
		now:          time.Now,
	}
}

// Observe queues gameState for saving. When the buffer is full the
// snapshot is dropped.
func (w *ArchiveWorker) Observe(gameState *gametypes.GameState) {
	select {
	case w.saveRequests <- SaveSnapshotRequest{ReceivedAt: w.now(), GameState: gameState.Copy()}:
	default:
		w.dropped.Add(1)
		log.Warn("Archive buffer full, dropping snapshot")
	}
}

func (w *ArchiveWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case saveRequest := <-w.saveRequests:
			w.saveSnapshot(ctx, saveRequest)
		}
	}
}

// drain saves whatever is still buffered once the worker is stopped.
func (w *ArchiveWorker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case saveRequest := <-w.saveRequests:
			w.saveSnapshot(ctx, saveRequest)
		default:
			return
		}
	}
}

func (w *ArchiveWorker) saveSnapshot(ctx context.Context, saveRequest SaveSnapshotRequest) {
	id, err := w.repository.SaveSnapshot(ctx, w.session, saveRequest.ReceivedAt, saveRequest.GameState)
	if err != nil {
		log.Error("Failed to save snapshot: %v", err)
		return
	}
	w.saved.Add(1)
	log.Trace("Saved snapshot %d", id)
}

// Saved returns the number of snapshots written to the repository.
func (w *ArchiveWorker) Saved() uint64 {
	return w.saved.Load()
}

// Dropped returns the number of snapshots discarded because the buffer was full.
func (w *ArchiveWorker) Dropped() uint64 {
	return w.dropped.Load()
}
