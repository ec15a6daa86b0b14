package recording

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	gametypes "github.com/cbodonnell/solongsucker/pkg/game/types"
	"github.com/cbodonnell/solongsucker/pkg/messages"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// ErrRecorderClosed is returned when recording after Close.
var ErrRecorderClosed = errors.New("recorder is closed")

// Entry is one recorded snapshot.
type Entry struct {
	Session    uuid.UUID
	Seq        uint64
	ReceivedAt time.Time
	State      *gametypes.GameState
}

type wireEntry struct {
	Session    uuid.UUID       `json:"session"`
	Seq        uint64          `json:"seq"`
	ReceivedAt time.Time       `json:"receivedAt"`
	State      json.RawMessage `json:"state"`
}

// Recorder appends snapshots as JSON lines to a zstd stream.
type Recorder struct {
	lock    sync.Mutex
	session uuid.UUID
	seq     uint64
	encoder *zstd.Encoder
	closer  io.Closer
	closed  bool
	now     func() time.Time
}

// NewRecorder starts a new recording session on w. Close flushes the
// stream but does not close w.
func NewRecorder(w io.Writer) (*Recorder, error) {
	encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %v", err)
	}
	return &Recorder{
		session: uuid.New(),
		encoder: encoder,
		now:     time.Now,
	}, nil
}

// Create starts a recording in a new file at path.
func Create(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording file: %v", err)
	}
	r, err := NewRecorder(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// Session returns the id shared by every entry of this recording.
func (r *Recorder) Session() uuid.UUID {
	return r.session
}

// Record appends a snapshot received now and flushes it to the
// underlying writer.
func (r *Recorder) Record(gameState *gametypes.GameState) error {
	return r.RecordAt(gameState, r.now())
}

// RecordAt is Record with an explicit receive time, for callers that
// write snapshots some time after they arrived.
func (r *Recorder) RecordAt(gameState *gametypes.GameState, receivedAt time.Time) error {
	state, err := messages.EncodeGameState(gameState)
	if err != nil {
		return err
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	if r.closed {
		return ErrRecorderClosed
	}

	r.seq++
	line, err := json.Marshal(wireEntry{
		Session:    r.session,
		Seq:        r.seq,
		ReceivedAt: receivedAt.UTC(),
		State:      state,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal recording entry: %v", err)
	}
	line = append(line, '\n')
	if _, err := r.encoder.Write(line); err != nil {
		return fmt.Errorf("failed to write recording entry: %v", err)
	}
	if err := r.encoder.Flush(); err != nil {
		return fmt.Errorf("failed to flush recording: %v", err)
	}
	return nil
}

// Count returns the number of recorded entries.
func (r *Recorder) Count() uint64 {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.seq
}

func (r *Recorder) Close() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.encoder.Close(); err != nil {
		return fmt.Errorf("failed to close zstd writer: %v", err)
	}
	if r.closer != nil {
		if err := r.closer.Close(); err != nil {
			return fmt.Errorf("failed to close recording file: %v", err)
		}
	}
	return nil
}

// Reader reads a recording entry by entry.
type Reader struct {
	decoder *zstd.Decoder
	json    *json.Decoder
	closer  io.Closer
}

// NewReader reads a recording from r.
func NewReader(r io.Reader) (*Reader, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %v", err)
	}
	return &Reader{
		decoder: decoder,
		json:    json.NewDecoder(decoder),
	}, nil
}

// Open reads the recording file at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording file: %v", err)
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// Next returns the next entry, or io.EOF at the end of the recording.
func (r *Reader) Next() (*Entry, error) {
	var wire wireEntry
	if err := r.json.Decode(&wire); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode recording entry: %v", err)
	}
	state, err := messages.DecodeGameState(wire.State)
	if err != nil {
		return nil, fmt.Errorf("recording entry %d: %w", wire.Seq, err)
	}
	return &Entry{
		Session:    wire.Session,
		Seq:        wire.Seq,
		ReceivedAt: wire.ReceivedAt,
		State:      state,
	}, nil
}

func (r *Reader) Close() error {
	r.decoder.Close()
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// ReadAll reads every entry from a recording stream in order.
func ReadAll(r io.Reader) ([]*Entry, error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var entries []*Entry
	for {
		entry, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}
}
