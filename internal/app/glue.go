package app

import (
	"context"
	"log"
	"sync"

	"schoolplus/internal/domain"
)

// ForumView shows rendered issue fragments in a modal.
type ForumView interface {
	ShowIssueModal(html string)
}

// ForumController opens issue details without leaving the forum list.
type ForumController struct {
	api  ForumAPI
	view ForumView
}

func NewForumController(api ForumAPI, view ForumView) *ForumController {
	return &ForumController{api: api, view: view}
}

// OpenIssue loads the issue fragment, injects it into the modal body and shows the modal.
func (c *ForumController) OpenIssue(ctx context.Context, issueID string) error {
	html, err := c.api.IssueFragment(ctx, issueID)
	if err != nil {
		log.Printf("forum: load issue %s: %v", issueID, err)
		return err
	}
	c.view.ShowIssueModal(html)
	return nil
}

// NotificationView re-renders the notification list.
type NotificationView interface {
	ShowNotifications(items []domain.Notification)
}

// NotificationCenter keeps the notification cards of the page.
type NotificationCenter struct {
	view NotificationView

	mu    sync.Mutex
	items []domain.Notification
}

func NewNotificationCenter(view NotificationView, items []domain.Notification) *NotificationCenter {
	return &NotificationCenter{view: view, items: append([]domain.Notification(nil), items...)}
}

// Items returns a copy of the current notifications.
func (n *NotificationCenter) Items() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.items...)
}

// MarkRead removes the unread highlight of one notification.
func (n *NotificationCenter) MarkRead(id string) {
	n.mu.Lock()
	for i := range n.items {
		if n.items[i].ID == id && n.items[i].Unread {
			n.items[i].Unread = false
			log.Printf("notification marked as read: %s", id)
		}
	}
	n.mu.Unlock()
	n.view.ShowNotifications(n.Items())
}

// MarkAllRead marks every unread notification as read.
func (n *NotificationCenter) MarkAllRead() {
	for _, item := range n.Items() {
		if item.Unread {
			n.MarkRead(item.ID)
		}
	}
}

// ClearAll removes every notification card.
func (n *NotificationCenter) ClearAll() {
	n.mu.Lock()
	n.items = nil
	n.mu.Unlock()
	n.view.ShowNotifications(nil)
}

// SettingsView applies settings to the page.
type SettingsView interface {
	SetAnimations(enabled bool)
	Alert(message string)
}

// SettingsController binds the settings page toggles.
type SettingsController struct {
	view SettingsView

	mu         sync.Mutex
	animations bool
}

func NewSettingsController(view SettingsView) *SettingsController {
	return &SettingsController{view: view, animations: true}
}

// SetAnimations toggles the no-animations mode of the page.
func (s *SettingsController) SetAnimations(enabled bool) {
	s.mu.Lock()
	s.animations = enabled
	s.mu.Unlock()
	s.view.SetAnimations(enabled)
}

// Animations reports whether animations are enabled.
func (s *SettingsController) Animations() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.animations
}

// ClearCache acknowledges the clear-cache action. Nothing is cached client-side.
func (s *SettingsController) ClearCache() {
	s.view.Alert("Cache cleared!")
}
