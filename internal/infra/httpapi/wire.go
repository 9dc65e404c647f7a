package httpapi

import "schoolplus/internal/domain"

// SessionRequest is the body of the start and reset calls.
type SessionRequest struct {
	SessionID string `json:"session_id"`
}

// AnswerRequest is the body of the answer call. SelectedOption is a pointer so a missing option
// can be told apart from option 0.
type AnswerRequest struct {
	SessionID      string `json:"session_id"`
	SelectedOption *int   `json:"selected_option"`
}

// Envelope carries the fields every quiz response shares.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// QuestionResponse is returned by GET question.
type QuestionResponse struct {
	Envelope
	Finished       bool     `json:"finished"`
	Question       string   `json:"question,omitempty"`
	Options        []string `json:"options,omitempty"`
	CurrentScore   int      `json:"current_score"`
	QuestionNumber int      `json:"question_number,omitempty"`
	TotalQuestions int      `json:"total_questions,omitempty"`
}

// AnswerResponse is returned by POST answer.
type AnswerResponse struct {
	Envelope
	IsCorrect    bool `json:"is_correct"`
	CurrentScore int  `json:"current_score"`
	Finished     bool `json:"finished"`
}

// ResultsPayload is the results object of GET results.
type ResultsPayload struct {
	FinalScore     int  `json:"final_score"`
	CorrectCount   int  `json:"correct_count"`
	IncorrectCount int  `json:"incorrect_count"`
	PassedLevel    bool `json:"passed_level"`
	CoinsEarned    int  `json:"gongwan_coins_earned"`
}

// ResultsResponse is returned by GET results.
type ResultsResponse struct {
	Envelope
	Results *ResultsPayload `json:"results,omitempty"`
}

// ClearRequest is the body of POST /ai/clear.
type ClearRequest struct {
	ChatID string `json:"chat_id"`
}

// ClearResponse is returned by POST /ai/clear.
type ClearResponse struct {
	OK bool `json:"ok"`
}

func (q QuestionResponse) toDomain() domain.Question {
	return domain.Question{
		Finished:       q.Finished,
		Text:           q.Question,
		Options:        q.Options,
		Score:          q.CurrentScore,
		QuestionNumber: q.QuestionNumber,
		TotalQuestions: q.TotalQuestions,
	}
}

func (a AnswerResponse) toDomain() domain.AnswerVerdict {
	return domain.AnswerVerdict{
		Correct:  a.IsCorrect,
		Message:  a.Message,
		Score:    a.CurrentScore,
		Finished: a.Finished,
	}
}

func (r ResultsPayload) toDomain() domain.QuizResults {
	return domain.QuizResults{
		FinalScore:     r.FinalScore,
		CorrectCount:   r.CorrectCount,
		IncorrectCount: r.IncorrectCount,
		Passed:         r.PassedLevel,
		CoinsEarned:    r.CoinsEarned,
	}
}
