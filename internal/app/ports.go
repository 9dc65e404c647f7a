package app

import (
	"context"
	"time"

	"schoolplus/internal/domain"
)

// QuizAPI abstracts the quiz endpoints (HTTP in production, fakes in tests).
type QuizAPI interface {
	Start(ctx context.Context, sessionID string) error
	Question(ctx context.Context, sessionID string) (domain.Question, error)
	Answer(ctx context.Context, sessionID string, selected int) (domain.AnswerVerdict, error)
	Results(ctx context.Context, sessionID string) (domain.QuizResults, error)
	Reset(ctx context.Context, sessionID string) error
}

// ChatAPI abstracts the chat assistant endpoints.
type ChatAPI interface {
	Send(ctx context.Context, req domain.ChatRequest) (domain.ChatReply, error)
	Clear(ctx context.Context, chatID string) error
}

// ForumAPI loads rendered issue fragments.
type ForumAPI interface {
	IssueFragment(ctx context.Context, issueID string) (string, error)
}

// ResultField identifies one value of the results screen.
type ResultField string

const (
	FieldFinalScore     ResultField = "final-score"
	FieldCorrectCount   ResultField = "correct-count"
	FieldIncorrectCount ResultField = "incorrect-count"
	FieldLevelPassed    ResultField = "level-passed"
	FieldCoins          ResultField = "gongwan-coins"
)

// QuizView is everything the quiz controller needs from a host page.
type QuizView interface {
	ShowScreen(screen domain.Screen)
	HighlightNav(index int)
	ShowQuestion(q domain.Question)
	ShowProgress(score, number, total int)
	ShowScore(score int)
	MarkOption(index int, correct bool)
	ShowFeedback(correct bool, message string)
	DisableOptions()
	ShowResultField(field ResultField, text string)
	ShowResultsHeader(passed bool)
	Notify(message string)
	Confirm(prompt string) bool
	Close()
}

// ChatView is everything the chat controller needs from a host page.
type ChatView interface {
	AppendMessage(m domain.ChatMessage)
	AppendSystem(text string)
	ClearLog()
	ScrollToBottom()
	ShowTyping(show bool)
	SetSendEnabled(enabled bool)
	SetInput(text string)
	InsertNewline()
	SetChatID(chatID string)
	OfferDownload(filename, content string)
	ShowAttachments(labels []string)
	SetVoiceActive(active bool)
	ShowTemperature(text string)
	PulseCopy(index int, active bool)
}

// Clipboard is the system clipboard.
type Clipboard interface {
	WriteText(text string) error
}

// QuizActions is the capability contract a host binds quiz input to.
type QuizActions interface {
	Navigate(screen domain.Screen)
	StartGame(ctx context.Context) error
	SelectLevel(ctx context.Context, level int) error
	SubmitAnswer(ctx context.Context, index int) error
	ReplayLevel(ctx context.Context) error
	QuitGame() error
	HandleKey(ctx context.Context, key string) error
}

// ChatActions is the capability contract a host binds chat input to.
type ChatActions interface {
	Send(ctx context.Context, text string) error
	HandleEnter(ctx context.Context, input string, shift bool) error
	Copy(index int) error
	Regenerate()
	Clear(ctx context.Context)
	Export() string
	Attach(files []domain.Attachment)
	ToggleVoice() bool
	ApplyPreset(prompt string)
	SetModel(model string)
	SetTemperature(t float64)
}

// Scheduler runs f after d. The host decides which goroutine f runs on.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// TimerScheduler schedules with time.AfterFunc.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

var (
	_ QuizActions = (*QuizController)(nil)
	_ ChatActions = (*ChatController)(nil)
)
