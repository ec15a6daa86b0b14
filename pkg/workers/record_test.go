package workers

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	gametypes "github.com/cbodonnell/solongsucker/pkg/game/types"
	"github.com/cbodonnell/solongsucker/pkg/recording"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	lock     sync.Mutex
	turns    []gametypes.Color
	times    []time.Time
	failures int
	block    chan struct{}
}

func (r *fakeRecorder) RecordAt(gameState *gametypes.GameState, receivedAt time.Time) error {
	if r.block != nil {
		<-r.block
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.failures > 0 {
		r.failures--
		return errors.New("disk full")
	}
	r.turns = append(r.turns, gameState.CurrentTurn)
	r.times = append(r.times, receivedAt)
	return nil
}

func (r *fakeRecorder) recordedTurns() []gametypes.Color {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]gametypes.Color(nil), r.turns...)
}

func TestRecordWorker_RecordsInOrderWithReceiveTime(t *testing.T) {
	rec := &fakeRecorder{}
	worker := NewRecordWorker(NewRecordWorkerOptions{Recorder: rec})
	received := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	worker.now = func() time.Time { return received }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Start(ctx)

	worker.Observe(&gametypes.GameState{CurrentTurn: gametypes.ColorRed})
	worker.Observe(&gametypes.GameState{CurrentTurn: gametypes.ColorBlue})

	require.Eventually(t, func() bool { return worker.Recorded() == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []gametypes.Color{gametypes.ColorRed, gametypes.ColorBlue}, rec.recordedTurns())
	rec.lock.Lock()
	assert.True(t, received.Equal(rec.times[0]))
	rec.lock.Unlock()
}

func TestRecordWorker_SlowRecorderDoesNotBlockObserve(t *testing.T) {
	rec := &fakeRecorder{block: make(chan struct{})}
	worker := NewRecordWorker(NewRecordWorkerOptions{Recorder: rec, BufferSize: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Start(ctx)

	// the first request is taken by the worker and blocks in the recorder
	worker.Observe(&gametypes.GameState{CurrentTurn: gametypes.ColorRed})
	require.Eventually(t, func() bool { return len(worker.recordRequests) == 0 }, 2*time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Observe(&gametypes.GameState{CurrentTurn: gametypes.ColorBlue})
		worker.Observe(&gametypes.GameState{CurrentTurn: gametypes.ColorGreen})
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Observe blocked on a slow recorder")
	}
	assert.Equal(t, uint64(1), worker.Dropped())

	close(rec.block)
	require.Eventually(t, func() bool { return worker.Recorded() == 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestRecordWorker_ErrorsAreNotFatal(t *testing.T) {
	rec := &fakeRecorder{failures: 1}
	worker := NewRecordWorker(NewRecordWorkerOptions{Recorder: rec})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Start(ctx)

	worker.Observe(&gametypes.GameState{CurrentTurn: gametypes.ColorRed})
	worker.Observe(&gametypes.GameState{CurrentTurn: gametypes.ColorBlue})
	require.Eventually(t, func() bool { return worker.Recorded() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []gametypes.Color{gametypes.ColorBlue}, rec.recordedTurns())
}

func TestRecordWorker_DrainsIntoRecording(t *testing.T) {
	buf := &bytes.Buffer{}
	rec, err := recording.NewRecorder(buf)
	require.NoError(t, err)

	worker := NewRecordWorker(NewRecordWorkerOptions{Recorder: rec, BufferSize: 4})
	gs := &gametypes.GameState{
		Players:         map[gametypes.Color]*gametypes.Player{},
		Piles:           []gametypes.Pile{},
		CurrentTurn:     gametypes.ColorGreen,
		DefeatedPlayers: []gametypes.Color{},
	}
	for _, color := range gametypes.AllColors {
		gs.Players[color] = &gametypes.Player{Color: color, ModelType: "mcts", Chips: []gametypes.Chip{}}
	}
	worker.Observe(gs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	worker.Start(ctx)
	require.NoError(t, rec.Close())

	entries, err := recording.ReadAll(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, gs.Equal(entries[0].State))
}
