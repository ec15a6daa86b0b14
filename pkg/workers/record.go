package workers

import (
	"context"
	"sync/atomic"
	"time"

	gametypes "github.com/cbodonnell/solongsucker/pkg/game/types"
	"github.com/cbodonnell/solongsucker/pkg/log"
)

const DefaultRecordBufferSize = 100

// SnapshotRecorder writes a snapshot with the time it was received.
type SnapshotRecorder interface {
	RecordAt(gameState *gametypes.GameState, receivedAt time.Time) error
}

type RecordWorker struct {
	recorder       SnapshotRecorder
	recordRequests chan SaveSnapshotRequest
	now            func() time.Time
	recorded       atomic.Uint64
	dropped        atomic.Uint64
}

type NewRecordWorkerOptions struct {
	Recorder   SnapshotRecorder
	BufferSize int
}

// NewRecordWorker creates a new RecordWorker.
// Encoding, compression and file writes run on the worker goroutine
// instead of the subscriber's.
func NewRecordWorker(opts NewRecordWorkerOptions) *RecordWorker {
	bufferSize := opts.BufferSize
	if bufferSize <= 0 {
		bufferSize = DefaultRecordBufferSize
	}
	return &RecordWorker{
		recorder:       opts.Recorder,
		recordRequests: make(chan SaveSnapshotRequest, bufferSize),
		now:            time.Now,
	}
}

// Observe queues gameState for recording. When the buffer is full the
// snapshot is dropped.
func (w *RecordWorker) Observe(gameState *gametypes.GameState) {
	select {
	case w.recordRequests <- SaveSnapshotRequest{ReceivedAt: w.now(), GameState: gameState.Copy()}:
	default:
		w.dropped.Add(1)
		log.Warn("Recording buffer full, dropping snapshot")
	}
}

func (w *RecordWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case recordRequest := <-w.recordRequests:
			w.record(recordRequest)
		}
	}
}

func (w *RecordWorker) drain() {
	for {
		select {
		case recordRequest := <-w.recordRequests:
			w.record(recordRequest)
		default:
			return
		}
	}
}

func (w *RecordWorker) record(recordRequest SaveSnapshotRequest) {
	if err := w.recorder.RecordAt(recordRequest.GameState, recordRequest.ReceivedAt); err != nil {
		log.Error("Failed to record game state: %v", err)
		return
	}
	w.recorded.Add(1)
}

// Recorded returns the number of snapshots handed to the recorder.
func (w *RecordWorker) Recorded() uint64 {
	return w.recorded.Load()
}

// Dropped returns the number of snapshots discarded because the buffer was full.
func (w *RecordWorker) Dropped() uint64 {
	return w.dropped.Load()
}
