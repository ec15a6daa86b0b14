package state

import (
	"sync"

	gametypes "github.com/cbodonnell/solongsucker/pkg/game/types"
)

// InMemoryStateManager keeps the snapshot in memory. It starts absent.
type InMemoryStateManager struct {
	lock      sync.RWMutex
	gameState *gametypes.GameState
}

func NewInMemoryStateManager() *InMemoryStateManager {
	return &InMemoryStateManager{}
}

func (m *InMemoryStateManager) Get() (*gametypes.GameState, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.gameState == nil {
		return nil, false
	}
	return m.gameState.Copy(), true
}

func (m *InMemoryStateManager) Set(gameState *gametypes.GameState) error {
	if gameState == nil {
		return ErrNilState
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	m.gameState = gameState.Copy()
	return nil
}

func (m *InMemoryStateManager) Has() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.gameState != nil
}
