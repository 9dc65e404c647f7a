package stub

import (
	"fmt"
	"sync"

	"schoolplus/internal/domain"
)

// Game is one player's run through a question bank.
type Game struct {
	mu             sync.Mutex
	bank           domain.QuestionBank
	index          int
	score          int
	correctCount   int
	incorrectCount int
}

func NewGame(bank domain.QuestionBank) *Game {
	return &Game{bank: bank}
}

// Current returns the current question, or false once the bank is exhausted.
func (g *Game) Current() (domain.BankQuestion, int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentLocked()
}

func (g *Game) currentLocked() (domain.BankQuestion, int, bool) {
	if g.index >= len(g.bank.Questions) {
		return domain.BankQuestion{}, g.index, false
	}
	return g.bank.Questions[g.index], g.index, true
}

// Progress returns the running score and the bank size.
func (g *Game) Progress() (score, total int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.score, len(g.bank.Questions)
}

// Answer scores the selected option against the current question and advances.
func (g *Game) Answer(selected int) (correct bool, message string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	q, _, ok := g.currentLocked()
	if !ok {
		return false, "No more questions."
	}

	if selected == q.Answer {
		g.score += q.ScoreCorrect
		g.correctCount++
		correct, message = true, "Correct!"
	} else {
		g.score += q.ScoreWrong
		g.incorrectCount++
		message = fmt.Sprintf("Wrong! The correct answer was: %s", optionText(q, q.Answer))
	}
	g.index++
	return correct, message
}

// Finished reports whether every question has been answered.
func (g *Game) Finished() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.index >= len(g.bank.Questions)
}

// Results computes the level outcome. A level is passed with more than half of the answers
// correct; coins are ten per correct answer plus a tenth of any positive score.
func (g *Game) Results() domain.QuizResults {
	g.mu.Lock()
	defer g.mu.Unlock()

	passed := g.correctCount*2 > len(g.bank.Questions)
	bonus := 0
	if g.score > 0 {
		bonus = g.score / 10
	}
	return domain.QuizResults{
		FinalScore:     g.score,
		CorrectCount:   g.correctCount,
		IncorrectCount: g.incorrectCount,
		Passed:         passed,
		CoinsEarned:    g.correctCount*10 + bonus,
	}
}

// Reset rewinds the game to the first question.
func (g *Game) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.index = 0
	g.score = 0
	g.correctCount = 0
	g.incorrectCount = 0
}

func optionText(q domain.BankQuestion, i int) string {
	if i < 0 || i >= len(q.Options) {
		return ""
	}
	return q.Options[i]
}
