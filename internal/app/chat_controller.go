package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"schoolplus/internal/domain"
)

const (
	// ExportFilename is the name offered for downloaded conversations.
	ExportFilename = "schoolplus_chat.txt"

	sendFailedText  = "Oops, something went wrong. Please try again."
	pulseDuration   = 800 * time.Millisecond
	timestampLayout = "2006-01-02 15:04"
)

type logEntry struct {
	system  bool
	message domain.ChatMessage
}

// ChatState is the conversation state owned by one controller.
type ChatState struct {
	ChatID      string
	PendingSend bool
	Model       string
	Temperature float64
	VoiceActive bool
	Attachments []domain.Attachment
}

// ChatController runs the assistant widget: optimistic sends, clear, export and the small toggles.
type ChatController struct {
	api       ChatAPI
	view      ChatView
	clipboard Clipboard
	sched     Scheduler
	now       func() time.Time

	mu    sync.Mutex
	state ChatState
	log   []logEntry
}

// ChatOption customises a ChatController.
type ChatOption func(*ChatController)

func WithChatScheduler(s Scheduler) ChatOption {
	return func(c *ChatController) { c.sched = s }
}

func WithClipboard(cb Clipboard) ChatOption {
	return func(c *ChatController) { c.clipboard = cb }
}

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) ChatOption {
	return func(c *ChatController) { c.now = now }
}

// WithDefaults sets the initial model and temperature.
func WithDefaults(model string, temperature float64) ChatOption {
	return func(c *ChatController) {
		if model != "" {
			c.state.Model = model
		}
		c.state.Temperature = temperature
	}
}

func NewChatController(api ChatAPI, view ChatView, opts ...ChatOption) *ChatController {
	c := &ChatController{
		api:   api,
		view:  view,
		sched: TimerScheduler{},
		now:   time.Now,
		state: ChatState{Model: "gpt-4o-mini", Temperature: 0.7},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the current state.
func (c *ChatController) State() ChatState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state
	st.Attachments = append([]domain.Attachment(nil), c.state.Attachments...)
	return st
}

// Messages returns the rendered bubbles in order. System lines are not included.
func (c *ChatController) Messages() []domain.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ChatMessage, 0, len(c.log))
	for _, e := range c.log {
		if !e.system {
			out = append(out, e.message)
		}
	}
	return out
}

// Send posts a user message. Blank input is ignored; a second send while one is pending returns ErrBusy.
func (c *ChatController) Send(ctx context.Context, text string) error {
	message := strings.TrimSpace(text)
	if message == "" {
		return nil
	}

	c.mu.Lock()
	if c.state.PendingSend {
		c.mu.Unlock()
		return domain.ErrBusy
	}
	c.state.PendingSend = true
	req := domain.ChatRequest{
		ChatID:      c.state.ChatID,
		Message:     message,
		Model:       c.state.Model,
		Temperature: c.state.Temperature,
	}
	c.mu.Unlock()

	c.appendMessage(domain.ChatMessage{Role: domain.RoleUser, Content: message})
	c.view.ScrollToBottom()
	c.view.ShowTyping(true)
	c.view.SetSendEnabled(false)

	reply, err := c.api.Send(ctx, req)
	if err != nil {
		log.Printf("chat: send failed: %v", err)
		c.appendSystem(sendFailedText)
	} else {
		if reply.ChatID != "" {
			c.mu.Lock()
			c.state.ChatID = reply.ChatID
			c.mu.Unlock()
			c.view.SetChatID(reply.ChatID)
		}
		if ai, ok := reply.FirstAssistant(); ok {
			c.appendMessage(ai)
		}
	}

	c.mu.Lock()
	c.state.PendingSend = false
	c.mu.Unlock()

	c.view.SetInput("")
	c.view.ShowTyping(false)
	c.view.SetSendEnabled(true)
	c.view.ScrollToBottom()
	return err
}

// HandleEnter sends on Enter and inserts a newline on Shift+Enter.
func (c *ChatController) HandleEnter(ctx context.Context, input string, shift bool) error {
	if shift {
		c.view.InsertNewline()
		return nil
	}
	return c.Send(ctx, input)
}

// Copy puts the assistant message at index on the clipboard and pulses its control.
// Clipboard failures are logged, never shown.
func (c *ChatController) Copy(index int) error {
	c.mu.Lock()
	if index < 0 || index >= len(c.log) || c.log[index].system || c.log[index].message.Role != domain.RoleAssistant {
		c.mu.Unlock()
		return fmt.Errorf("no assistant message at %d", index)
	}
	text := c.log[index].message.Content
	c.mu.Unlock()

	if c.clipboard == nil {
		return nil
	}
	if err := c.clipboard.WriteText(text); err != nil {
		log.Printf("chat: clipboard write failed: %v", err)
		return nil
	}
	c.view.PulseCopy(index, true)
	c.sched.AfterFunc(pulseDuration, func() { c.view.PulseCopy(index, false) })
	return nil
}

// Regenerate only flashes the typing indicator; there is no regenerate endpoint yet.
func (c *ChatController) Regenerate() {
	c.view.ShowTyping(true)
	c.sched.AfterFunc(pulseDuration, func() { c.view.ShowTyping(false) })
}

// Clear empties the log. With a chat id the server copy is cleared too, fire-and-forget.
func (c *ChatController) Clear(ctx context.Context) {
	c.mu.Lock()
	chatID := c.state.ChatID
	c.mu.Unlock()

	if chatID != "" {
		if err := c.api.Clear(ctx, chatID); err != nil {
			log.Printf("chat: clear %s failed: %v", chatID, err)
		}
	}

	c.mu.Lock()
	c.log = nil
	c.mu.Unlock()
	c.view.ClearLog()
}

// Export joins the bubble texts with blank lines and offers them as a text file.
func (c *ChatController) Export() string {
	msgs := c.Messages()
	texts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		texts = append(texts, m.Content)
	}
	content := strings.Join(texts, "\n\n")
	c.view.OfferDownload(ExportFilename, content)
	return content
}

// Attach renders chips for the picked files. Files are never uploaded.
func (c *ChatController) Attach(files []domain.Attachment) {
	labels := make([]string, 0, len(files))
	for _, f := range files {
		labels = append(labels, f.Label())
	}

	c.mu.Lock()
	c.state.Attachments = append([]domain.Attachment(nil), files...)
	c.mu.Unlock()
	c.view.ShowAttachments(labels)
}

// ToggleVoice flips the pressed state of the voice control. No audio is captured.
func (c *ChatController) ToggleVoice() bool {
	c.mu.Lock()
	c.state.VoiceActive = !c.state.VoiceActive
	active := c.state.VoiceActive
	c.mu.Unlock()
	c.view.SetVoiceActive(active)
	return active
}

// ApplyPreset copies a preset prompt into the input.
func (c *ChatController) ApplyPreset(prompt string) {
	c.view.SetInput(prompt)
}

func (c *ChatController) SetModel(model string) {
	c.mu.Lock()
	c.state.Model = model
	c.mu.Unlock()
}

func (c *ChatController) SetTemperature(t float64) {
	c.mu.Lock()
	c.state.Temperature = t
	c.mu.Unlock()
	c.view.ShowTemperature(FormatTemperature(t))
}

// FormatTemperature renders the slider value with one decimal.
func FormatTemperature(t float64) string {
	return fmt.Sprintf("%.1f", t)
}

func (c *ChatController) appendMessage(m domain.ChatMessage) {
	if m.Timestamp == "" {
		m.Timestamp = c.now().UTC().Format(timestampLayout)
	}
	c.mu.Lock()
	c.log = append(c.log, logEntry{message: m})
	c.mu.Unlock()
	c.view.AppendMessage(m)
}

func (c *ChatController) appendSystem(text string) {
	c.mu.Lock()
	c.log = append(c.log, logEntry{system: true, message: domain.ChatMessage{Content: text}})
	c.mu.Unlock()
	c.view.AppendSystem(text)
}
