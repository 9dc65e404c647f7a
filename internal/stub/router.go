package stub

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"schoolplus/internal/domain"
	"schoolplus/internal/infra/httpapi"
)

const defaultSession = "default_session"

// Handler serves the quiz, chat and forum endpoints.
type Handler struct {
	games     *GameService
	assistant *Assistant
	forum     *Forum
}

func NewHandler(games *GameService, assistant *Assistant, forum *Forum) *Handler {
	return &Handler{games: games, assistant: assistant, forum: forum}
}

// Router mounts every endpoint on a chi router.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api/quiz", func(r chi.Router) {
		r.Post("/start", h.start)
		r.Get("/question", h.question)
		r.Post("/answer", h.answer)
		r.Get("/results", h.results)
		r.Post("/reset", h.reset)
	})

	r.Post("/ai/send", h.send)
	r.Post("/ai/clear", h.clear)
	r.Get("/forum/issue/{id}", h.issue)
	return r
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	var req httpapi.SessionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	sessionID := orDefault(req.SessionID)

	if err := h.games.Start(r.Context(), sessionID); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, httpapi.Envelope{Success: true, Message: "Game started successfully"})
}

func (h *Handler) question(w http.ResponseWriter, r *http.Request) {
	q, err := h.games.Question(r.Context(), orDefault(r.URL.Query().Get("session_id")))
	if err != nil {
		writeFailure(w, err)
		return
	}
	if q.Finished {
		writeJSON(w, http.StatusOK, httpapi.QuestionResponse{
			Envelope: httpapi.Envelope{Success: true, Message: "No more questions"},
			Finished: true,
		})
		return
	}
	writeJSON(w, http.StatusOK, httpapi.QuestionResponse{
		Envelope:       httpapi.Envelope{Success: true},
		Question:       q.Text,
		Options:        q.Options,
		CurrentScore:   q.Score,
		QuestionNumber: q.QuestionNumber,
		TotalQuestions: q.TotalQuestions,
	})
}

func (h *Handler) answer(w http.ResponseWriter, r *http.Request) {
	var req httpapi.AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, httpapi.Envelope{Message: "invalid request body"})
		return
	}
	sessionID := orDefault(req.SessionID)
	if !h.games.Has(sessionID) {
		writeFailure(w, domain.ErrSessionNotFound)
		return
	}
	if req.SelectedOption == nil {
		writeJSON(w, http.StatusBadRequest, httpapi.Envelope{Message: "No option selected"})
		return
	}

	verdict, err := h.games.Answer(r.Context(), sessionID, *req.SelectedOption)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, httpapi.AnswerResponse{
		Envelope:     httpapi.Envelope{Success: true, Message: verdict.Message},
		IsCorrect:    verdict.Correct,
		CurrentScore: verdict.Score,
		Finished:     verdict.Finished,
	})
}

func (h *Handler) results(w http.ResponseWriter, r *http.Request) {
	res, err := h.games.Results(r.Context(), orDefault(r.URL.Query().Get("session_id")))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, httpapi.ResultsResponse{
		Envelope: httpapi.Envelope{Success: true},
		Results: &httpapi.ResultsPayload{
			FinalScore:     res.FinalScore,
			CorrectCount:   res.CorrectCount,
			IncorrectCount: res.IncorrectCount,
			PassedLevel:    res.Passed,
			CoinsEarned:    res.CoinsEarned,
		},
	})
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	var req httpapi.SessionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.games.Reset(r.Context(), orDefault(req.SessionID)); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, httpapi.Envelope{Success: true, Message: "Game reset successfully"})
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	writeJSON(w, http.StatusOK, h.assistant.Send(req))
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	var req httpapi.ClearRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	h.assistant.Clear(req.ChatID)
	writeJSON(w, http.StatusOK, httpapi.ClearResponse{OK: true})
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) {
	html, ok, err := h.forum.Fragment(chi.URLParam(r, "id"))
	if err != nil {
		log.Printf("stub: render issue: %v", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

func orDefault(sessionID string) string {
	if sessionID == "" {
		return defaultSession
	}
	return sessionID
}

func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, httpapi.Envelope{Message: "Game session not found"})
	default:
		log.Printf("stub: request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, httpapi.Envelope{Message: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
