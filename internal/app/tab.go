package app

import (
	"context"
	"sync"

	"schoolplus/internal/domain"
)

// TabView is everything a host renders for one page.
type TabView interface {
	QuizView
	ChatView
	ForumView
	NotificationView
	SettingsView
}

// TabRepository abstracts where open tabs are kept (in-memory, Redis, etc).
// Acquire and Release count connections under the store's lock, so a reload that reconnects
// before the old socket closes keeps the same tab.
type TabRepository interface {
	// Acquire returns the tab, building it when unknown, with one more connection attached.
	Acquire(tabID string, build func() *Tab) *Tab
	// Release detaches one connection and drops the tab once none remain.
	Release(tabID string)
	// Get returns domain.ErrTabNotFound for unknown tabs.
	Get(tabID string) (*Tab, error)
	// Touch marks an attached tab as active.
	Touch(ctx context.Context, tabID string) error
	// Live reports whether the tab is registered and has been active within the store's TTL.
	Live(ctx context.Context, tabID string) (bool, error)
}

// TabDeps are the collaborators shared by every tab.
type TabDeps struct {
	Quiz          QuizAPI
	Chat          ChatAPI
	Forum         ForumAPI
	QuizOptions   []QuizOption
	ChatOptions   []ChatOption
	Notifications []domain.Notification
}

// Tab is the controller set behind one open page.
type Tab struct {
	ID            string
	View          TabView
	Quiz          *QuizController
	Chat          *ChatController
	Forum         *ForumController
	Notifications *NotificationCenter
	Settings      *SettingsController

	mu    sync.Mutex
	conns int
}

func NewTab(id string, view TabView, deps TabDeps) *Tab {
	return &Tab{
		ID:            id,
		View:          view,
		Quiz:          NewQuizController(deps.Quiz, view, deps.QuizOptions...),
		Chat:          NewChatController(deps.Chat, view, deps.ChatOptions...),
		Forum:         NewForumController(deps.Forum, view),
		Notifications: NewNotificationCenter(view, deps.Notifications),
		Settings:      NewSettingsController(view),
	}
}

// Attach records a new connection to the tab.
func (t *Tab) Attach() {
	t.mu.Lock()
	t.conns++
	t.mu.Unlock()
}

// Detach records a closed connection.
func (t *Tab) Detach() {
	t.mu.Lock()
	if t.conns > 0 {
		t.conns--
	}
	t.mu.Unlock()
}

// Connections returns the number of attached connections.
func (t *Tab) Connections() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conns
}

// IsIdle reports whether no connection is attached.
func (t *Tab) IsIdle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conns == 0
}
