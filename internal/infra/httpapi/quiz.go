package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"schoolplus/internal/domain"
)

const quizPrefix = "/api/quiz"

// QuizClient talks to the quiz API.
type QuizClient struct {
	c *Client
}

func NewQuizClient(c *Client) *QuizClient {
	return &QuizClient{c: c}
}

func (q *QuizClient) Start(ctx context.Context, sessionID string) error {
	var env Envelope
	return q.call(ctx, "start game", http.MethodPost, "/start", SessionRequest{SessionID: sessionID}, &env, &env)
}

func (q *QuizClient) Question(ctx context.Context, sessionID string) (domain.Question, error) {
	var resp QuestionResponse
	if err := q.call(ctx, "load question", http.MethodGet, "/question?"+sessionQuery(sessionID), nil, &resp, &resp.Envelope); err != nil {
		return domain.Question{}, err
	}
	return resp.toDomain(), nil
}

func (q *QuizClient) Answer(ctx context.Context, sessionID string, option int) (domain.AnswerVerdict, error) {
	var resp AnswerResponse
	body := AnswerRequest{SessionID: sessionID, SelectedOption: &option}
	if err := q.call(ctx, "submit answer", http.MethodPost, "/answer", body, &resp, &resp.Envelope); err != nil {
		return domain.AnswerVerdict{}, err
	}
	return resp.toDomain(), nil
}

func (q *QuizClient) Results(ctx context.Context, sessionID string) (domain.QuizResults, error) {
	var resp ResultsResponse
	if err := q.call(ctx, "load results", http.MethodGet, "/results?"+sessionQuery(sessionID), nil, &resp, &resp.Envelope); err != nil {
		return domain.QuizResults{}, err
	}
	if resp.Results == nil {
		return domain.QuizResults{}, &domain.APIError{Op: "load results", Message: "missing results"}
	}
	return resp.Results.toDomain(), nil
}

func (q *QuizClient) Reset(ctx context.Context, sessionID string) error {
	var env Envelope
	return q.call(ctx, "reset game", http.MethodPost, "/reset", SessionRequest{SessionID: sessionID}, &env, &env)
}

// call decodes the response into out. A decodable body with success false becomes an *APIError,
// whatever the status code; an undecodable non-2xx body becomes a *StatusError.
func (q *QuizClient) call(ctx context.Context, op, method, path string, body, out any, env *Envelope) error {
	status, raw, err := q.c.do(ctx, method, quizPrefix+path, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		if !isSuccess(status) {
			return &StatusError{Path: quizPrefix + path, Status: status}
		}
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	if !env.Success {
		return &domain.APIError{Op: op, Message: env.Message}
	}
	return nil
}

func sessionQuery(sessionID string) string {
	return url.Values{"session_id": {sessionID}}.Encode()
}
