package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"schoolplus/internal/app"
	"schoolplus/internal/domain"
)

var (
	_ app.QuizAPI  = (*QuizClient)(nil)
	_ app.ChatAPI  = (*ChatClient)(nil)
	_ app.ForumAPI = (*ForumClient)(nil)
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", time.Second)
}

func TestQuizClientQuestionMapsFields(t *testing.T) {
	var gotSession string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/quiz/question" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotSession = r.URL.Query().Get("session_id")
		_ = json.NewEncoder(w).Encode(QuestionResponse{
			Envelope:       Envelope{Success: true},
			Question:       "Who is the creator of Python?",
			Options:        []string{"Guido van Rossum", "James Gosling"},
			CurrentScore:   10,
			QuestionNumber: 2,
			TotalQuestions: 5,
		})
	}))

	q, err := NewQuizClient(c).Question(context.Background(), "player_1")
	if err != nil {
		t.Fatalf("question: %v", err)
	}
	if gotSession != "player_1" {
		t.Fatalf("expected session_id player_1, got %q", gotSession)
	}
	if q.Text != "Who is the creator of Python?" || len(q.Options) != 2 || q.Score != 10 || q.QuestionNumber != 2 || q.TotalQuestions != 5 {
		t.Fatalf("unexpected question %+v", q)
	}
}

func TestQuizClientAnswerSendsSelectedOption(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req AnswerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.SessionID != "s" || req.SelectedOption == nil || *req.SelectedOption != 0 {
			t.Errorf("unexpected body %+v", req)
		}
		_ = json.NewEncoder(w).Encode(AnswerResponse{
			Envelope:     Envelope{Success: true, Message: "Correct!"},
			IsCorrect:    true,
			CurrentScore: 10,
		})
	}))

	v, err := NewQuizClient(c).Answer(context.Background(), "s", 0)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !v.Correct || v.Message != "Correct!" || v.Score != 10 || v.Finished {
		t.Fatalf("unexpected verdict %+v", v)
	}
}

func TestQuizClientUnsuccessfulIsAPIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(Envelope{Message: "Game session not found"})
	}))

	err := NewQuizClient(c).Reset(context.Background(), "missing")
	apiErr, ok := domain.IsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Op != "reset game" || apiErr.Message != "Game session not found" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestQuizClientGarbageStatusIsTransportError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))

	err := NewQuizClient(c).Start(context.Background(), "s")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusBadGateway {
		t.Fatalf("expected status error, got %v", err)
	}
	if _, ok := domain.IsAPIError(err); ok {
		t.Fatalf("transport failure must not be an APIError")
	}
}

func TestQuizClientResults(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ResultsResponse{
			Envelope: Envelope{Success: true},
			Results: &ResultsPayload{
				FinalScore: 35, CorrectCount: 4, IncorrectCount: 1, PassedLevel: true, CoinsEarned: 43,
			},
		})
	}))

	res, err := NewQuizClient(c).Results(context.Background(), "s")
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	want := domain.QuizResults{FinalScore: 35, CorrectCount: 4, IncorrectCount: 1, Passed: true, CoinsEarned: 43}
	if res != want {
		t.Fatalf("expected %+v, got %+v", want, res)
	}
}

func TestQuizClientConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	err := NewQuizClient(NewClient(srv.URL, time.Second)).Start(context.Background(), "s")
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := domain.IsAPIError(err); ok {
		t.Fatalf("connection failure must not be an APIError")
	}
}

func TestChatClientSendAndClear(t *testing.T) {
	var cleared string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ai/send":
			var req domain.ChatRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Model != "gpt-4o-mini" || req.Temperature != 0.7 {
				t.Errorf("settings not forwarded: %+v", req)
			}
			_ = json.NewEncoder(w).Encode(domain.ChatReply{
				ChatID: "c-1",
				Messages: []domain.ChatMessage{
					{Role: domain.RoleUser, Content: req.Message},
					{Role: domain.RoleAssistant, Content: "Hi there"},
				},
			})
		case "/ai/clear":
			var req ClearRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			cleared = req.ChatID
			_ = json.NewEncoder(w).Encode(ClearResponse{OK: true})
		}
	}))
	chat := NewChatClient(c)

	reply, err := chat.Send(context.Background(), domain.ChatRequest{Message: "Hello", Model: "gpt-4o-mini", Temperature: 0.7})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if ai, ok := reply.FirstAssistant(); !ok || ai.Content != "Hi there" || reply.ChatID != "c-1" {
		t.Fatalf("unexpected reply %+v", reply)
	}
	if err := chat.Clear(context.Background(), "c-1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared != "c-1" {
		t.Fatalf("expected clear of c-1, got %q", cleared)
	}
}

func TestChatClientRejectsNon2xx(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	}))

	_, err := NewChatClient(c).Send(context.Background(), domain.ChatRequest{Message: "x"})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusUnauthorized || statusErr.Path != "/ai/send" {
		t.Fatalf("expected 401 StatusError even with a JSON body, got %v", err)
	}
}

func TestForumClientIssueFragment(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forum/issue/7" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if _, ok := r.URL.Query()["body"]; !ok {
			t.Errorf("expected body query flag")
		}
		_, _ = w.Write([]byte("<p>Wifi down</p>"))
	}))

	html, err := NewForumClient(c).IssueFragment(context.Background(), "7")
	if err != nil {
		t.Fatalf("fragment: %v", err)
	}
	if html != "<p>Wifi down</p>" {
		t.Fatalf("unexpected fragment %q", html)
	}
}
