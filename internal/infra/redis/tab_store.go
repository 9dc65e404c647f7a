package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"schoolplus/internal/app"
	"schoolplus/internal/domain"
)

// TabStore is a Redis-aware implementation of app.TabRepository.
// Controllers stay in process; Redis carries a liveness marker per tab with a TTL so other
// processes can see which tabs are open. The marker is refreshed by Touch.
type TabStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	tabs   map[string]*app.Tab
}

func NewTabStore(client *redis.Client, ttl time.Duration) *TabStore {
	return &TabStore{
		client: client,
		ttl:    ttl,
		tabs:   make(map[string]*app.Tab),
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
	// best-effort; Touch retries on the next event
	_ = s.client.Set(context.Background(), s.key(tabID), "1", s.ttl).Err()
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
		_ = s.client.Del(context.Background(), s.key(tabID)).Err()
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

// Touch rewrites the liveness marker with a fresh TTL. The marker is set rather than expired so
// a tab whose marker already lapsed becomes live again.
func (s *TabStore) Touch(ctx context.Context, tabID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.tabs[tabID]; !ok {
		return domain.ErrTabNotFound
	}
	return s.client.Set(ctx, s.key(tabID), "1", s.ttl).Err()
}

// Live reports whether the tab's liveness marker is still present.
func (s *TabStore) Live(ctx context.Context, tabID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(tabID)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *TabStore) key(tabID string) string {
	return "schoolplus:tab:" + tabID
}
