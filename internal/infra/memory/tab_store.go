package memory

import (
	"context"
	"sync"
	"time"

	"schoolplus/internal/app"
	"schoolplus/internal/domain"
)

// TabStore is an in-memory implementation of app.TabRepository.
type TabStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu   sync.RWMutex
	tabs map[string]*app.Tab
	seen map[string]time.Time
}

// NewTabStore keeps tabs in process. A tab not touched within ttl reports not live; zero disables that.
func NewTabStore(ttl time.Duration) *TabStore {
	return &TabStore{
		ttl:   ttl,
		clock: time.Now,
		tabs:  make(map[string]*app.Tab),
		seen:  make(map[string]time.Time),
	}
}

func (s *TabStore) Acquire(tabID string, build func() *app.Tab) *app.Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	tab, ok := s.tabs[tabID]
	if !ok {
		tab = build()
		s.tabs[tabID] = tab
	}
	tab.Attach()
	s.seen[tabID] = s.clock()
	return tab
}

func (s *TabStore) Release(tabID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tab, ok := s.tabs[tabID]
	if !ok {
		return
	}
	tab.Detach()
	if tab.IsIdle() {
		delete(s.tabs, tabID)
		delete(s.seen, tabID)
	}
}

func (s *TabStore) Get(tabID string) (*app.Tab, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tab, ok := s.tabs[tabID]
	if !ok {
		return nil, domain.ErrTabNotFound
	}
	return tab, nil
}

func (s *TabStore) Touch(_ context.Context, tabID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tabs[tabID]; !ok {
		return domain.ErrTabNotFound
	}
	s.seen[tabID] = s.clock()
	return nil
}

func (s *TabStore) Live(_ context.Context, tabID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen, ok := s.seen[tabID]
	if !ok {
		return false, nil
	}
	return s.ttl <= 0 || s.clock().Sub(seen) < s.ttl, nil
}
