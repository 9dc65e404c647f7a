package ui

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/rivo/tview"

	"schoolplus/internal/app"
	"schoolplus/internal/domain"
)

var navLabels = []string{"Main Menu", "Level Select"}

// renderNav highlights the entry at index; -1 highlights nothing.
func renderNav(index int) string {
	parts := make([]string, len(navLabels))
	for i, label := range navLabels {
		if i == index {
			parts[i] = "[black:yellow] " + label + " [-:-]"
		} else {
			parts[i] = " " + label + " "
		}
	}
	return strings.Join(parts, " ")
}

func renderProgress(score, number, total int) string {
	return fmt.Sprintf("Score: %d | Question %d/%d", score, number, total)
}

var resultRows = []struct {
	field app.ResultField
	label string
}{
	{app.FieldFinalScore, "Final score"},
	{app.FieldCorrectCount, "Correct answers"},
	{app.FieldIncorrectCount, "Incorrect answers"},
	{app.FieldLevelPassed, "Level passed"},
	{app.FieldCoins, "Gongwan coins earned"},
}

func renderResults(fields map[app.ResultField]string, passed bool) string {
	var b strings.Builder
	if passed {
		b.WriteString("[green]Congratulations! Level cleared![-]\n\n")
	} else {
		b.WriteString("Level complete\n\n")
	}
	for _, row := range resultRows {
		fmt.Fprintf(&b, "%-22s %s\n", row.label+":", fields[row.field])
	}
	return b.String()
}

func renderMessage(m domain.ChatMessage) string {
	who := "[aqua]Assistant[-]"
	if m.Role == domain.RoleUser {
		who = "[yellow]You[-]"
	}
	return fmt.Sprintf("%s [gray]%s[-]\n%s", who, m.Timestamp, tview.Escape(m.Content))
}

func renderSystem(text string) string {
	return "[red]" + tview.Escape(text) + "[-]"
}

func renderNotifications(items []domain.Notification) string {
	unread := 0
	for _, n := range items {
		if n.Unread {
			unread++
		}
	}
	if unread == 0 {
		return "Notifications"
	}
	return fmt.Sprintf("Notifications ([red]%d[-])", unread)
}

func renderNotificationList(items []domain.Notification) string {
	if len(items) == 0 {
		return "No notifications."
	}
	var b strings.Builder
	for _, n := range items {
		b.WriteString(renderNotificationItem(n) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderNotificationItem(n domain.Notification) string {
	if n.Unread {
		return "* " + n.Text
	}
	return "  " + n.Text
}

type notificationActionKind int

const (
	actionMarkRead notificationActionKind = iota
	actionMarkAllRead
	actionClearAll
	actionClose
)

type notificationAction struct {
	label string
	kind  notificationActionKind
	id    string
}

// notificationActions lists the entries of the notifications menu. Only unread items get a
// mark-read entry, like the per-item control of the page.
func notificationActions(items []domain.Notification) []notificationAction {
	var out []notificationAction
	unread := false
	for _, n := range items {
		if !n.Unread {
			continue
		}
		unread = true
		out = append(out, notificationAction{label: "Mark read: " + n.Text, kind: actionMarkRead, id: n.ID})
	}
	if unread {
		out = append(out, notificationAction{label: "Mark all read", kind: actionMarkAllRead})
	}
	if len(items) > 0 {
		out = append(out, notificationAction{label: "Clear all", kind: actionClearAll})
	}
	return append(out, notificationAction{label: "Close", kind: actionClose})
}

func renderChatStatus(s chatStatus) string {
	parts := []string{"temp " + s.temperature}
	if s.typing {
		parts = append(parts, "[yellow]typing...[-]")
	}
	if !s.sendEnabled {
		parts = append(parts, "sending")
	}
	if s.voice {
		parts = append(parts, "[red]mic on[-]")
	}
	if len(s.chips) > 0 {
		parts = append(parts, strings.Join(s.chips, ", "))
	}
	return strings.Join(parts, " | ")
}

type chatStatus struct {
	typing      bool
	sendEnabled bool
	voice       bool
	temperature string
	chips       []string
}

var (
	blockTag = regexp.MustCompile(`(?i)</(h[1-6]|p|div|li)>|<br\s*/?>`)
	anyTag   = regexp.MustCompile(`<[^>]*>`)
)

// stripTags turns an HTML fragment into plain modal text.
func stripTags(fragment string) string {
	text := blockTag.ReplaceAllString(fragment, "\n")
	text = anyTag.ReplaceAllString(text, "")
	return strings.TrimSpace(html.UnescapeString(text))
}
