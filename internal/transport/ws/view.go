package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"schoolplus/internal/app"
	"schoolplus/internal/domain"
)

const defaultConfirmTimeout = 2 * time.Minute

var errNotBound = errors.New("no socket bound to tab")

// View forwards view updates of one tab to the socket currently bound to it.
// Updates emitted while no socket is bound are dropped.
type View struct {
	confirmTimeout time.Duration

	mu      sync.Mutex
	send    chan<- outboundMessage[any]
	done    <-chan struct{}
	pending map[string]chan bool
}

var (
	_ app.TabView   = (*View)(nil)
	_ app.Clipboard = (*View)(nil)
)

func NewView() *View {
	return &View{
		confirmTimeout: defaultConfirmTimeout,
		pending:        make(map[string]chan bool),
	}
}

func (v *View) bind(send chan<- outboundMessage[any], done <-chan struct{}) {
	v.mu.Lock()
	v.send = send
	v.done = done
	v.mu.Unlock()
}

// unbind detaches the socket if it is still the bound one.
func (v *View) unbind(done <-chan struct{}) {
	v.mu.Lock()
	if v.done == done {
		v.send = nil
		v.done = nil
	}
	v.mu.Unlock()
}

func (v *View) emit(typ string, payload any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.send == nil {
		return
	}
	select {
	case v.send <- outboundMessage[any]{Type: typ, Payload: payload}:
	case <-v.done:
	}
}

// reply resolves a pending confirmation.
func (v *View) reply(id string, ok bool) {
	v.mu.Lock()
	ch, found := v.pending[id]
	delete(v.pending, id)
	v.mu.Unlock()
	if found {
		ch <- ok
	}
}

func (v *View) ShowScreen(screen domain.Screen) { v.emit("screen", screenPayload{Screen: screen}) }
func (v *View) HighlightNav(index int)          { v.emit("nav", navPayload{Index: index}) }
func (v *View) ShowQuestion(q domain.Question)  { v.emit("question", q) }

func (v *View) ShowProgress(score, number, total int) {
	v.emit("progress", domain.Progress{Score: score, QuestionNumber: number, TotalQuestions: total})
}

func (v *View) ShowScore(score int)                { v.emit("score", scorePayload{Score: score}) }
func (v *View) MarkOption(index int, correct bool) { v.emit("option", optionPayload{Index: index, Correct: correct}) }
func (v *View) DisableOptions()                    { v.emit("options", optionsPayload{Disabled: true}) }

func (v *View) ShowFeedback(correct bool, message string) {
	v.emit("feedback", feedbackPayload{Correct: correct, Message: message})
}

func (v *View) ShowResultField(field app.ResultField, text string) {
	v.emit("resultField", resultFieldPayload{Field: string(field), Text: text})
}

func (v *View) ShowResultsHeader(passed bool) { v.emit("resultsHeader", resultsHeaderPayload{Passed: passed}) }
func (v *View) Notify(message string)         { v.emit("toast", messagePayload{Message: message}) }
func (v *View) Close()                        { v.emit("close", nil) }

// Confirm asks the browser and blocks until it answers. A timeout or a dropped socket counts as no.
func (v *View) Confirm(prompt string) bool {
	id := uuid.NewString()
	ch := make(chan bool, 1)

	v.mu.Lock()
	if v.send == nil {
		v.mu.Unlock()
		return false
	}
	v.pending[id] = ch
	done := v.done
	v.mu.Unlock()

	v.emit("confirm", confirmPayload{ID: id, Prompt: prompt})

	timer := time.NewTimer(v.confirmTimeout)
	defer timer.Stop()
	select {
	case ok := <-ch:
		return ok
	case <-done:
	case <-timer.C:
	}
	v.mu.Lock()
	delete(v.pending, id)
	v.mu.Unlock()
	return false
}

func (v *View) AppendMessage(m domain.ChatMessage) { v.emit("message", m) }
func (v *View) AppendSystem(text string)           { v.emit("system", textPayload{Text: text}) }
func (v *View) ClearLog()                          { v.emit("clearLog", nil) }
func (v *View) ScrollToBottom()                    { v.emit("scroll", nil) }
func (v *View) ShowTyping(show bool)               { v.emit("typing", togglePayload{Enabled: show}) }
func (v *View) SetSendEnabled(enabled bool)        { v.emit("sendEnabled", togglePayload{Enabled: enabled}) }
func (v *View) SetInput(text string)               { v.emit("input", textPayload{Text: text}) }
func (v *View) InsertNewline()                     { v.emit("newline", nil) }
func (v *View) SetChatID(chatID string)            { v.emit("chatId", chatIDPayload{ChatID: chatID}) }

func (v *View) OfferDownload(filename, content string) {
	v.emit("download", downloadPayload{Filename: filename, Content: content})
}

func (v *View) ShowAttachments(labels []string) { v.emit("chips", chipsPayload{Labels: labels}) }
func (v *View) SetVoiceActive(active bool)      { v.emit("voice", togglePayload{Enabled: active}) }
func (v *View) ShowTemperature(text string)     { v.emit("temperature", textPayload{Text: text}) }

func (v *View) PulseCopy(index int, active bool) {
	v.emit("copyPulse", pulsePayload{Index: index, Active: active})
}

// WriteText hands text to the browser clipboard. It fails when no socket is bound.
func (v *View) WriteText(text string) error {
	v.mu.Lock()
	bound := v.send != nil
	v.mu.Unlock()
	if !bound {
		return errNotBound
	}
	v.emit("clipboard", textPayload{Text: text})
	return nil
}

func (v *View) ShowIssueModal(html string) { v.emit("modal", modalPayload{HTML: html}) }

func (v *View) ShowNotifications(items []domain.Notification) {
	v.emit("notifications", notificationsPayload{Items: items})
}

func (v *View) SetAnimations(enabled bool) { v.emit("animations", togglePayload{Enabled: enabled}) }
func (v *View) Alert(message string)       { v.emit("alert", messagePayload{Message: message}) }
