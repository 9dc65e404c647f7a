package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"schoolplus/internal/app"
	"schoolplus/internal/domain"
)

const (
	defaultHeartbeat = time.Minute
	eventQueueSize   = 64
)

// Handler bridges browser tabs to their controllers over websockets.
type Handler struct {
	tabs      app.TabRepository
	deps      app.TabDeps
	heartbeat time.Duration
	upgrader  websocket.Upgrader
}

// HandlerOption customises a Handler.
type HandlerOption func(*Handler)

// WithHeartbeat sets how often an attached tab is touched while its socket is quiet.
func WithHeartbeat(d time.Duration) HandlerOption {
	return func(h *Handler) { h.heartbeat = d }
}

func NewHandler(tabs app.TabRepository, deps app.TabDeps, opts ...HandlerOption) *Handler {
	h := &Handler{
		tabs:      tabs,
		deps:      deps,
		heartbeat: defaultHeartbeat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type errorPayload struct {
	Message string `json:"message"`
}

type tabStatus struct {
	ID          string `json:"id"`
	Live        bool   `json:"live"`
	Connections int    `json:"connections"`
}

type event struct {
	typ     string
	payload inboundPayload
}

// TabStatus reports whether the tab named by the {id} route parameter is open and live.
func (h *Handler) TabStatus(w http.ResponseWriter, r *http.Request) {
	tabID := chi.URLParam(r, "id")
	tab, err := h.tabs.Get(tabID)
	if errors.Is(err, domain.ErrTabNotFound) {
		writeJSON(w, http.StatusNotFound, errorPayload{Message: err.Error()})
		return
	}
	live, err := h.tabs.Live(r.Context(), tabID)
	if err != nil {
		log.Printf("ws tab %s: live check failed: %v", tabID, err)
		writeJSON(w, http.StatusServiceUnavailable, errorPayload{Message: "liveness unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, tabStatus{ID: tabID, Live: live, Connections: tab.Connections()})
}

// ServeWS upgrades the request and binds the socket to the tab named by ?tab=, creating it
// when unknown. The tab is dropped once its last socket closes.
// Events of one socket run in arrival order on a single worker; confirmReply is handled by the
// read loop so a pending Confirm can always be answered.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	tabID := r.URL.Query().Get("tab")
	if tabID == "" {
		tabID = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	tab := h.tabs.Acquire(tabID, func() *app.Tab {
		view := NewView()
		deps := h.deps
		deps.ChatOptions = append(append([]app.ChatOption(nil), h.deps.ChatOptions...), app.WithClipboard(view))
		return app.NewTab(tabID, view, deps)
	})
	defer h.tabs.Release(tabID)
	view, ok := tab.View.(*View)
	if !ok {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "tab is bound to another host"}})
		return
	}

	send := make(chan outboundMessage[any], 64)
	done := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				// keep draining so emitters never block on a dead socket
				for range send {
				}
				return
			}
		}
	}()

	view.bind(send, done)
	view.emit("tab", tabPayload{ID: tabID})
	tab.Quiz.Navigate(tab.Quiz.State().Screen)
	view.ShowNotifications(tab.Notifications.Items())

	ctx, cancel := context.WithCancel(context.Background())

	events := make(chan event, eventQueueSize)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		for ev := range events {
			if err := dispatch(ctx, tab, view, ev.typ, ev.payload); err != nil {
				logDispatchError(tabID, ev.typ, err)
			}
		}
	}()

	go h.keepAlive(ctx, tabID)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var payload inboundPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				view.emit("error", errorPayload{Message: "invalid " + inbound.Type + " payload"})
				continue
			}
		}
		h.touch(ctx, tabID)
		if inbound.Type == "confirmReply" {
			view.reply(payload.ID, payload.OK)
			continue
		}
		select {
		case events <- event{typ: inbound.Type, payload: payload}:
		default:
			view.emit("error", errorPayload{Message: "too many pending events"})
		}
	}

	cancel()
	close(done)
	view.unbind(done)
	close(events)
	<-workerDone
	close(send)
	<-writerDone
}

// keepAlive touches the tab until ctx ends so a quiet but connected tab stays live.
func (h *Handler) keepAlive(ctx context.Context, tabID string) {
	if h.heartbeat <= 0 {
		return
	}
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.touch(ctx, tabID)
		}
	}
}

func (h *Handler) touch(ctx context.Context, tabID string) {
	if err := h.tabs.Touch(ctx, tabID); err != nil && ctx.Err() == nil {
		log.Printf("ws tab %s: touch failed: %v", tabID, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("ws: encode response: %v", err)
	}
}

var errUnsupported = errors.New("unsupported message type")

// dispatch runs one inbound event against the tab's controllers.
func dispatch(ctx context.Context, tab *app.Tab, view *View, typ string, p inboundPayload) error {
	switch typ {
	case "navigate":
		tab.Quiz.Navigate(p.Screen)
	case "start":
		return tab.Quiz.StartGame(ctx)
	case "selectLevel":
		return tab.Quiz.SelectLevel(ctx, p.Level)
	case "answer":
		return tab.Quiz.SubmitAnswer(ctx, p.Index)
	case "replay":
		return tab.Quiz.ReplayLevel(ctx)
	case "quit":
		return tab.Quiz.QuitGame()
	case "key":
		return tab.Quiz.HandleKey(ctx, p.Key)
	case "send":
		return tab.Chat.Send(ctx, p.Text)
	case "enter":
		return tab.Chat.HandleEnter(ctx, p.Text, p.Shift)
	case "copy":
		return tab.Chat.Copy(p.Index)
	case "regenerate":
		tab.Chat.Regenerate()
	case "clear":
		tab.Chat.Clear(ctx)
	case "export":
		tab.Chat.Export()
	case "attach":
		tab.Chat.Attach(p.Files)
	case "voice":
		tab.Chat.ToggleVoice()
	case "preset":
		tab.Chat.ApplyPreset(p.Prompt)
	case "model":
		tab.Chat.SetModel(p.Model)
	case "temperature":
		tab.Chat.SetTemperature(p.Value)
	case "openIssue":
		return tab.Forum.OpenIssue(ctx, p.ID)
	case "markRead":
		tab.Notifications.MarkRead(p.ID)
	case "markAllRead":
		tab.Notifications.MarkAllRead()
	case "clearNotifications":
		tab.Notifications.ClearAll()
	case "animations":
		tab.Settings.SetAnimations(p.Enabled)
	case "clearCache":
		tab.Settings.ClearCache()
	case "chart":
		switch p.Kind {
		case "course":
			view.emit("chart", app.CourseTrend(p.Labels, p.Values))
		case "grades":
			view.emit("chart", app.GradeRadar(p.Labels, p.Values))
		default:
			view.emit("error", errorPayload{Message: "unknown chart " + p.Kind})
		}
	default:
		view.emit("error", errorPayload{Message: errUnsupported.Error()})
		return errUnsupported
	}
	return nil
}

func logDispatchError(tabID, typ string, err error) {
	switch {
	case errors.Is(err, domain.ErrBusy), errors.Is(err, domain.ErrNotConfirmed), errors.Is(err, domain.ErrNoSuchOption):
		return
	default:
		log.Printf("ws tab %s: %s: %v", tabID, typ, err)
	}
}
