package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"schoolplus/internal/app"
	"schoolplus/internal/domain"
	"schoolplus/internal/infra/httpapi"
	"schoolplus/internal/infra/memory"
	"schoolplus/internal/stub"
)

func newBridge(t *testing.T) (*httptest.Server, *memory.TabStore) {
	t.Helper()
	banks := memory.NewBankRepository(memory.NewStaticBankLoader(stub.DefaultBanks()), time.Minute)
	backend := stub.NewHandler(
		stub.NewGameService(memory.NewGameStore(), banks, stub.DefaultBankID),
		stub.NewAssistant(),
		stub.NewForum(stub.DefaultIssues()...),
	)
	api := httptest.NewServer(backend.Router())
	t.Cleanup(api.Close)

	client := httpapi.NewClient(api.URL, time.Second)
	tabs := memory.NewTabStore(time.Minute)
	h := NewHandler(tabs, app.TabDeps{
		Quiz:  httpapi.NewQuizClient(client),
		Chat:  httpapi.NewChatClient(client),
		Forum: httpapi.NewForumClient(client),
		QuizOptions: []app.QuizOption{app.WithTimings(app.QuizTimings{
			FeedbackDelay:     10 * time.Millisecond,
			AnimationDuration: 10 * time.Millisecond,
			AnimationFrame:    5 * time.Millisecond,
		})},
	})

	r := chi.NewRouter()
	r.Get("/ws", h.ServeWS)
	r.Get("/tabs/{id}", h.TabStatus)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, tabs
}

func dial(t *testing.T, server *httptest.Server, tab string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?tab=" + tab
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type received struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// readUntil skips messages until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) received {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg received
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json waiting for %s: %v", typ, err)
		}
		if msg.Type == typ {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func TestBridgeGreetsWithTabState(t *testing.T) {
	server, _ := newBridge(t)
	conn := dial(t, server, "tab-1")

	if msg := readUntil(t, conn, "tab"); msg.Payload["id"] != "tab-1" {
		t.Fatalf("unexpected tab payload %+v", msg.Payload)
	}
	if msg := readUntil(t, conn, "screen"); msg.Payload["screen"] != "main-menu" {
		t.Fatalf("expected main-menu, got %+v", msg.Payload)
	}
}

func TestBridgeQuizFlow(t *testing.T) {
	server, _ := newBridge(t)
	conn := dial(t, server, "tab-quiz")
	readUntil(t, conn, "tab")

	send(t, conn, "start", nil)
	q := readUntil(t, conn, "question")
	if q.Payload["question"] != "Who is the creator of Python?" {
		t.Fatalf("unexpected question %+v", q.Payload)
	}
	if msg := readUntil(t, conn, "screen"); msg.Payload["screen"] != "gameplay" {
		t.Fatalf("expected gameplay, got %+v", msg.Payload)
	}

	send(t, conn, "answer", map[string]any{"index": 0})
	if fb := readUntil(t, conn, "feedback"); fb.Payload["message"] != "Correct!" {
		t.Fatalf("unexpected feedback %+v", fb.Payload)
	}
	next := readUntil(t, conn, "question")
	if next.Payload["question"] != "Which of the following is NOT a Python data type?" {
		t.Fatalf("expected second question, got %+v", next.Payload)
	}
	readUntil(t, conn, "screen")

	send(t, conn, "key", map[string]any{"key": "Escape"})
	confirm := readUntil(t, conn, "confirm")
	if confirm.Payload["prompt"] != "Are you sure you want to quit the current game?" {
		t.Fatalf("unexpected prompt %+v", confirm.Payload)
	}
	send(t, conn, "confirmReply", map[string]any{"id": confirm.Payload["id"], "ok": true})
	if msg := readUntil(t, conn, "screen"); msg.Payload["screen"] != "main-menu" {
		t.Fatalf("expected main-menu after quit, got %+v", msg.Payload)
	}
}

func TestBridgeChatFlow(t *testing.T) {
	server, _ := newBridge(t)
	conn := dial(t, server, "tab-chat")
	readUntil(t, conn, "tab")

	send(t, conn, "send", map[string]any{"text": "Hello"})
	user := readUntil(t, conn, "message")
	if user.Payload["role"] != "user" || user.Payload["content"] != "Hello" {
		t.Fatalf("expected optimistic user bubble, got %+v", user.Payload)
	}
	if id := readUntil(t, conn, "chatId"); id.Payload["chatId"] == "" {
		t.Fatalf("expected chat id")
	}
	ai := readUntil(t, conn, "message")
	if ai.Payload["role"] != "assistant" {
		t.Fatalf("expected assistant bubble, got %+v", ai.Payload)
	}
	if msg := readUntil(t, conn, "sendEnabled"); msg.Payload["enabled"] != true {
		t.Fatalf("expected send re-enabled, got %+v", msg.Payload)
	}

	send(t, conn, "copy", map[string]any{"index": 1})
	if clip := readUntil(t, conn, "clipboard"); clip.Payload["text"] != ai.Payload["content"] {
		t.Fatalf("unexpected clipboard text %+v", clip.Payload)
	}
	if pulse := readUntil(t, conn, "copyPulse"); pulse.Payload["active"] != true {
		t.Fatalf("expected active pulse, got %+v", pulse.Payload)
	}
}

func TestBridgeGlueMessages(t *testing.T) {
	server, _ := newBridge(t)
	conn := dial(t, server, "tab-glue")
	readUntil(t, conn, "tab")

	send(t, conn, "openIssue", map[string]any{"id": "2"})
	if modal := readUntil(t, conn, "modal"); !strings.Contains(modal.Payload["html"].(string), "Library wifi") {
		t.Fatalf("unexpected modal %+v", modal.Payload)
	}

	send(t, conn, "clearCache", nil)
	if alert := readUntil(t, conn, "alert"); alert.Payload["message"] != "Cache cleared!" {
		t.Fatalf("unexpected alert %+v", alert.Payload)
	}

	send(t, conn, "chart", map[string]any{"kind": "grades", "labels": []string{"Math"}, "values": []float64{90}})
	if chart := readUntil(t, conn, "chart"); chart.Payload["type"] != "radar" {
		t.Fatalf("unexpected chart %+v", chart.Payload)
	}

	send(t, conn, "bogus", nil)
	if msg := readUntil(t, conn, "error"); msg.Payload["message"] != "unsupported message type" {
		t.Fatalf("unexpected error %+v", msg.Payload)
	}
}

func TestBridgeDropsIdleTab(t *testing.T) {
	server, tabs := newBridge(t)
	conn := dial(t, server, "tab-gone")
	readUntil(t, conn, "tab")
	if _, err := tabs.Get("tab-gone"); err != nil {
		t.Fatalf("expected registered tab: %v", err)
	}

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := tabs.Get("tab-gone"); errors.Is(err, domain.ErrTabNotFound) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected tab dropped after its socket closed")
}

func TestBridgeAppliesEventsInArrivalOrder(t *testing.T) {
	server, _ := newBridge(t)
	for i := 0; i < 20; i++ {
		conn := dial(t, server, fmt.Sprintf("tab-order-%d", i))
		readUntil(t, conn, "tab")

		model := fmt.Sprintf("model-%d", i)
		send(t, conn, "model", map[string]any{"model": model})
		send(t, conn, "send", map[string]any{"text": "hi"})

		readUntil(t, conn, "message")
		ai := readUntil(t, conn, "message")
		if want := "[" + model + "] You said: hi"; ai.Payload["content"] != want {
			t.Fatalf("iteration %d: expected %q, got %q", i, want, ai.Payload["content"])
		}
		conn.Close()
	}
}

func TestBridgeAnswerOutsideGameplayIsIgnored(t *testing.T) {
	server, _ := newBridge(t)
	conn := dial(t, server, "tab-stray")
	readUntil(t, conn, "tab")

	send(t, conn, "answer", map[string]any{"index": 0})
	send(t, conn, "navigate", map[string]any{"screen": "level-select"})
	if msg := readUntil(t, conn, "screen"); msg.Payload["screen"] == "gameplay" {
		t.Fatalf("stray answer changed the screen")
	}
	// the stray answer would have produced a toast before the navigation
	_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	for {
		var msg received
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		if msg.Type == "toast" || msg.Type == "feedback" {
			t.Fatalf("unexpected %s after stray answer: %+v", msg.Type, msg.Payload)
		}
	}
}

func TestBridgeReloadKeepsTabState(t *testing.T) {
	server, tabs := newBridge(t)
	old := dial(t, server, "tab-reload")
	readUntil(t, old, "tab")
	send(t, old, "start", nil)
	readUntil(t, old, "question")

	// the reloaded page connects before the old socket closes
	reloaded := dial(t, server, "tab-reload")
	readUntil(t, reloaded, "tab")
	old.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		tab, err := tabs.Get("tab-reload")
		if err != nil {
			t.Fatalf("tab dropped while the reloaded page is attached: %v", err)
		}
		if tab.Connections() == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("old socket never released, connections=%d", tab.Connections())
		}
		time.Sleep(10 * time.Millisecond)
	}

	again := dial(t, server, "tab-reload")
	readUntil(t, again, "tab")
	if msg := readUntil(t, again, "screen"); msg.Payload["screen"] != "gameplay" {
		t.Fatalf("expected the running game restored, got %+v", msg.Payload)
	}
}

func TestBridgeTabStatus(t *testing.T) {
	server, _ := newBridge(t)
	conn := dial(t, server, "tab-status")
	readUntil(t, conn, "tab")

	resp, err := http.Get(server.URL + "/tabs/tab-status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var status struct {
		ID          string `json:"id"`
		Live        bool   `json:"live"`
		Connections int    `json:"connections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.ID != "tab-status" || !status.Live || status.Connections != 1 {
		t.Fatalf("unexpected status %+v", status)
	}

	missing, err := http.Get(server.URL + "/tabs/nope")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown tab, got %d", missing.StatusCode)
	}
}
