package memory

import (
	"sync"

	"schoolplus/internal/stub"
)

// GameStore keeps running games of the reference backend in process.
type GameStore struct {
	mu    sync.RWMutex
	games map[string]*stub.Game
}

func NewGameStore() *GameStore {
	return &GameStore{games: make(map[string]*stub.Game)}
}

func (s *GameStore) Put(sessionID string, game *stub.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[sessionID] = game
}

func (s *GameStore) Get(sessionID string) (*stub.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[sessionID]
	return game, ok
}

func (s *GameStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, sessionID)
}
