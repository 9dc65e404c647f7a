package stub

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"schoolplus/internal/domain"
)

const timestampLayout = "2006-01-02 15:04"

type conversation struct {
	title    string
	messages []domain.ChatMessage
}

// Assistant answers chat messages with canned replies. Questions about grades are answered
// from a fixed transcript; everything else is echoed back.
type Assistant struct {
	now func() time.Time

	mu    sync.Mutex
	convs map[string]*conversation
}

func NewAssistant() *Assistant {
	return NewAssistantWithClock(time.Now)
}

// NewAssistantWithClock is used by tests for deterministic timestamps.
func NewAssistantWithClock(now func() time.Time) *Assistant {
	return &Assistant{now: now, convs: make(map[string]*conversation)}
}

// Send records the user message and the reply and returns both, user message first.
func (a *Assistant) Send(req domain.ChatRequest) domain.ChatReply {
	chatID := req.ChatID
	if chatID == "" {
		chatID = uuid.NewString()
	}
	message := strings.TrimSpace(req.Message)
	model := req.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	ts := a.now().Format(timestampLayout)
	userMsg := domain.ChatMessage{Role: domain.RoleUser, Content: message, Timestamp: ts}
	aiMsg := domain.ChatMessage{Role: domain.RoleAssistant, Content: reply(message, model), Timestamp: ts}

	a.mu.Lock()
	conv, ok := a.convs[chatID]
	if !ok {
		conv = &conversation{title: conversationTitle(message)}
		a.convs[chatID] = conv
	}
	conv.messages = append(conv.messages, userMsg, aiMsg)
	a.mu.Unlock()

	return domain.ChatReply{ChatID: chatID, Messages: []domain.ChatMessage{userMsg, aiMsg}}
}

// Clear drops the messages of a conversation. Unknown ids are ignored.
func (a *Assistant) Clear(chatID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if conv, ok := a.convs[chatID]; ok {
		conv.messages = nil
	}
}

// Title returns the conversation title taken from its first message, or "" for unknown ids.
func (a *Assistant) Title(chatID string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if conv, ok := a.convs[chatID]; ok {
		return conv.title
	}
	return ""
}

const maxTitleRunes = 40

func conversationTitle(message string) string {
	if message == "" {
		return "Conversation"
	}
	runes := []rune(message)
	if len(runes) > maxTitleRunes {
		return string(runes[:maxTitleRunes])
	}
	return message
}

// History returns the stored messages of a conversation.
func (a *Assistant) History(chatID string) []domain.ChatMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	conv, ok := a.convs[chatID]
	if !ok {
		return nil
	}
	return append([]domain.ChatMessage(nil), conv.messages...)
}

type semester struct {
	name   string
	scores map[string]int
}

var transcript = []semester{
	{"2021 Fall", map[string]int{"Math": 85, "English": 90, "Physics": 78, "Chemistry": 88}},
	{"2021 Spring", map[string]int{"Math": 82, "English": 92, "Physics": 80, "Chemistry": 86}},
	{"2022 Fall", map[string]int{"Math": 88, "English": 89, "Physics": 83, "Chemistry": 90}},
	{"2022 Spring", map[string]int{"Math": 91, "English": 87, "Physics": 85, "Chemistry": 92}},
	{"2023 Fall", map[string]int{"Math": 90, "English": 91, "Physics": 88, "Chemistry": 89}},
}

func reply(message, model string) string {
	lower := strings.ToLower(message)
	if !strings.Contains(lower, "grade") && !strings.Contains(lower, "score") {
		return fmt.Sprintf("[%s] You said: %s", model, message)
	}
	if strings.Contains(lower, "analy") {
		return gradeAnalysis()
	}

	lines := []string{"Here are your grades:"}
	for _, sem := range transcript {
		lines = append(lines, fmt.Sprintf("- %s: %s", sem.name, joinScores(sem.scores)))
	}
	return strings.Join(lines, "\n")
}

func gradeAnalysis() string {
	totals := map[string]int{}
	counts := map[string]int{}
	sum, n := 0, 0
	for _, sem := range transcript {
		for subject, score := range sem.scores {
			totals[subject] += score
			counts[subject]++
			sum += score
			n++
		}
	}

	subjects := sortedSubjects(totals)
	best, worst := subjects[0], subjects[0]
	avg := func(s string) float64 { return float64(totals[s]) / float64(counts[s]) }
	for _, s := range subjects[1:] {
		if avg(s) > avg(best) {
			best = s
		}
		if avg(s) < avg(worst) {
			worst = s
		}
	}
	return fmt.Sprintf("Grade analysis:\n- Average score: about %.1f\n- Strongest subject: %s (average %.1f)\n- Weakest subject: %s (average %.1f)",
		float64(sum)/float64(n), best, avg(best), worst, avg(worst))
}

func joinScores(scores map[string]int) string {
	parts := make([]string, 0, len(scores))
	for _, subject := range sortedSubjects(scores) {
		parts = append(parts, fmt.Sprintf("%s %d", subject, scores[subject]))
	}
	return strings.Join(parts, ", ")
}

func sortedSubjects(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
