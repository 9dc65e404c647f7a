package domain

import (
	"fmt"
	"math"
)

// Screen names one of the quiz game screens. Exactly one is active at a time.
type Screen string

const (
	ScreenMainMenu    Screen = "main-menu"
	ScreenLevelSelect Screen = "level-select"
	ScreenLoading     Screen = "loading"
	ScreenGameplay    Screen = "gameplay"
	ScreenResults     Screen = "results"
)

// Screens lists every screen in navigation order.
var Screens = []Screen{ScreenMainMenu, ScreenLevelSelect, ScreenLoading, ScreenGameplay, ScreenResults}

// NavIndex returns the navigation-indicator position highlighted for the screen, or -1 for none.
func (s Screen) NavIndex() int {
	switch s {
	case ScreenMainMenu:
		return 0
	case ScreenLevelSelect:
		return 1
	default:
		return -1
	}
}

// Valid reports whether s is a known screen.
func (s Screen) Valid() bool {
	for _, known := range Screens {
		if s == known {
			return true
		}
	}
	return false
}

// Progress mirrors the server-authoritative counters of a quiz session.
type Progress struct {
	Score          int `json:"score"`
	QuestionNumber int `json:"questionNumber"`
	TotalQuestions int `json:"totalQuestions"`
	CorrectCount   int `json:"correctCount"`
	IncorrectCount int `json:"incorrectCount"`
}

// Question is the current question as offered by the quiz API.
type Question struct {
	Finished       bool     `json:"finished"`
	Text           string   `json:"question"`
	Options        []string `json:"options"`
	Score          int      `json:"currentScore"`
	QuestionNumber int      `json:"questionNumber"`
	TotalQuestions int      `json:"totalQuestions"`
}

// AnswerVerdict is the server's ruling on a submitted option.
type AnswerVerdict struct {
	Correct  bool   `json:"correct"`
	Message  string `json:"message"`
	Score    int    `json:"score"`
	Finished bool   `json:"finished"`
}

// QuizResults summarises a finished level.
type QuizResults struct {
	FinalScore     int  `json:"finalScore"`
	CorrectCount   int  `json:"correctCount"`
	IncorrectCount int  `json:"incorrectCount"`
	Passed         bool `json:"passed"`
	CoinsEarned    int  `json:"coinsEarned"`
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one bubble of the conversation log.
type ChatMessage struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// ChatReply is what the chat API returns for a send.
type ChatReply struct {
	ChatID   string        `json:"chat_id"`
	Messages []ChatMessage `json:"messages"`
}

// FirstAssistant returns the first assistant-role message of the reply.
func (r ChatReply) FirstAssistant() (ChatMessage, bool) {
	for _, m := range r.Messages {
		if m.Role == RoleAssistant {
			return m, true
		}
	}
	return ChatMessage{}, false
}

// Attachment is a file picked in the chat widget. Attachments are never uploaded.
type Attachment struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// KiB returns the size in kibibytes rounded to the nearest integer.
func (a Attachment) KiB() int64 {
	return int64(math.Round(float64(a.Size) / 1024))
}

// Label is the chip text shown for the attachment.
func (a Attachment) Label() string {
	return fmt.Sprintf("%s (%d KB)", a.Name, a.KiB())
}

// Notification is an entry of the notification center.
type Notification struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Unread bool   `json:"unread"`
}

// Dataset is one series of a chart.
type Dataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BorderColor     string    `json:"borderColor,omitempty"`
	BackgroundColor string    `json:"backgroundColor,omitempty"`
	PointColor      string    `json:"pointBackgroundColor,omitempty"`
	Tension         float64   `json:"tension,omitempty"`
	Fill            bool      `json:"fill,omitempty"`
}

// ChartSpec describes a chart independently of the library drawing it.
type ChartSpec struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Labels       []string  `json:"labels"`
	Datasets     []Dataset `json:"datasets"`
	Min          float64   `json:"min"`
	Max          float64   `json:"max"`
	SuggestedMax bool      `json:"suggestedMax,omitempty"`
	ShowLegend   bool      `json:"showLegend"`
}

// BankQuestion is a question of the reference backend's question bank.
type BankQuestion struct {
	Text         string   `json:"question" yaml:"question"`
	Options      []string `json:"options" yaml:"options"`
	Answer       int      `json:"answer" yaml:"answer"`
	ScoreCorrect int      `json:"score_correct" yaml:"score_correct"`
	ScoreWrong   int      `json:"score_wrong" yaml:"score_wrong"`
}

// QuestionBank is a named, ordered set of questions making up one level.
type QuestionBank struct {
	ID        string         `json:"id" yaml:"id"`
	Questions []BankQuestion `json:"questions" yaml:"questions"`
}

// ChatRequest is the payload of a chat send.
type ChatRequest struct {
	ChatID      string  `json:"chat_id"`
	Message     string  `json:"message"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
}
