package app

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"schoolplus/internal/domain"
)

const (
	quitAppPrompt  = "Are you sure you want to quit Gongwan Tycoon?"
	quitGamePrompt = "Are you sure you want to quit the current game?"
)

// QuizTimings holds the fixed delays of the game flow.
type QuizTimings struct {
	FeedbackDelay     time.Duration
	AnimationDuration time.Duration
	AnimationFrame    time.Duration
}

// DefaultQuizTimings matches the game's stock pacing.
func DefaultQuizTimings() QuizTimings {
	return QuizTimings{
		FeedbackDelay:     2500 * time.Millisecond,
		AnimationDuration: 1000 * time.Millisecond,
		AnimationFrame:    16 * time.Millisecond,
	}
}

// QuizState is the session state owned by one controller.
type QuizState struct {
	SessionID   string
	Screen      domain.Screen
	Answering   bool
	OptionCount int
	Progress    domain.Progress
}

// QuizController drives the quiz screens against the quiz API.
type QuizController struct {
	api     QuizAPI
	view    QuizView
	sched   Scheduler
	timings QuizTimings

	mu    sync.Mutex
	state QuizState
}

// QuizOption customises a QuizController.
type QuizOption func(*QuizController)

// WithScheduler replaces the timer scheduler (tests use a synchronous one).
func WithScheduler(s Scheduler) QuizOption {
	return func(c *QuizController) { c.sched = s }
}

// WithTimings overrides the feedback delay and animation pacing.
func WithTimings(t QuizTimings) QuizOption {
	return func(c *QuizController) { c.timings = t }
}

// WithSessionID fixes the session id instead of deriving it from the clock.
func WithSessionID(id string) QuizOption {
	return func(c *QuizController) { c.state.SessionID = id }
}

func NewQuizController(api QuizAPI, view QuizView, opts ...QuizOption) *QuizController {
	c := &QuizController{
		api:     api,
		view:    view,
		sched:   TimerScheduler{},
		timings: DefaultQuizTimings(),
		state: QuizState{
			SessionID: "player_" + strconv.FormatInt(time.Now().UnixMilli(), 10),
			Screen:    domain.ScreenMainMenu,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the current state.
func (c *QuizController) State() QuizState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Navigate activates exactly one screen and syncs the navigation indicator.
func (c *QuizController) Navigate(screen domain.Screen) {
	if !screen.Valid() {
		return
	}
	c.mu.Lock()
	c.state.Screen = screen
	c.mu.Unlock()

	c.view.ShowScreen(screen)
	c.view.HighlightNav(screen.NavIndex())
}

func (c *QuizController) ShowMainMenu()    { c.Navigate(domain.ScreenMainMenu) }
func (c *QuizController) ShowLevelSelect() { c.Navigate(domain.ScreenLevelSelect) }
func (c *QuizController) ShowLoading()     { c.Navigate(domain.ScreenLoading) }
func (c *QuizController) ShowGameplay()    { c.Navigate(domain.ScreenGameplay) }
func (c *QuizController) ShowResults()     { c.Navigate(domain.ScreenResults) }

// StartGame opens a fresh server session and loads the first question.
func (c *QuizController) StartGame(ctx context.Context) error {
	c.ShowLoading()

	c.mu.Lock()
	c.state.Progress = domain.Progress{}
	sessionID := c.state.SessionID
	c.mu.Unlock()

	if err := c.api.Start(ctx, sessionID); err != nil {
		return c.fail("start game", err)
	}
	return c.LoadQuestion(ctx)
}

// SelectLevel starts the given level. Only one level exists, so every level starts the game.
func (c *QuizController) SelectLevel(ctx context.Context, _ int) error {
	return c.StartGame(ctx)
}

// LoadQuestion fetches the current question, or the results once the quiz is finished.
func (c *QuizController) LoadQuestion(ctx context.Context) error {
	sessionID := c.sessionID()
	q, err := c.api.Question(ctx, sessionID)
	if err != nil {
		return c.fail("load question", err)
	}
	if q.Finished {
		return c.LoadResults(ctx)
	}

	c.mu.Lock()
	c.state.Progress.Score = q.Score
	c.state.Progress.QuestionNumber = q.QuestionNumber
	c.state.Progress.TotalQuestions = q.TotalQuestions
	c.state.OptionCount = len(q.Options)
	c.state.Answering = false
	c.mu.Unlock()

	c.view.ShowProgress(q.Score, q.QuestionNumber, q.TotalQuestions)
	c.view.ShowQuestion(q)
	c.ShowGameplay()
	return nil
}

// SubmitAnswer sends the selected option. A second call while one is in flight returns ErrBusy
// without issuing a request, and an index that is not a rendered option of the gameplay screen
// returns ErrNoSuchOption.
func (c *QuizController) SubmitAnswer(ctx context.Context, index int) error {
	c.mu.Lock()
	if c.state.Answering {
		c.mu.Unlock()
		return domain.ErrBusy
	}
	if c.state.Screen != domain.ScreenGameplay || index < 0 || index >= c.state.OptionCount {
		c.mu.Unlock()
		return domain.ErrNoSuchOption
	}
	c.state.Answering = true
	sessionID := c.state.SessionID
	c.mu.Unlock()

	verdict, err := c.api.Answer(ctx, sessionID, index)
	if err != nil {
		c.mu.Lock()
		c.state.Answering = false
		c.mu.Unlock()
		c.view.Notify(failureMessage("submit answer", err))
		return err
	}

	c.mu.Lock()
	c.state.Progress.Score = verdict.Score
	c.mu.Unlock()

	c.view.MarkOption(index, verdict.Correct)
	if verdict.Message != "" {
		c.view.ShowFeedback(verdict.Correct, verdict.Message)
	}
	c.view.ShowScore(verdict.Score)
	c.view.DisableOptions()

	next := context.WithoutCancel(ctx)
	c.sched.AfterFunc(c.timings.FeedbackDelay, func() {
		if verdict.Finished {
			_ = c.LoadResults(next)
			return
		}
		_ = c.LoadQuestion(next)
	})
	return nil
}

// LoadResults fetches and renders the final results with count-up animations.
func (c *QuizController) LoadResults(ctx context.Context) error {
	c.ShowLoading()

	results, err := c.api.Results(ctx, c.sessionID())
	if err != nil {
		return c.fail("load results", err)
	}

	c.mu.Lock()
	c.state.Progress.Score = results.FinalScore
	c.state.Progress.CorrectCount = results.CorrectCount
	c.state.Progress.IncorrectCount = results.IncorrectCount
	c.mu.Unlock()

	c.animate(FieldFinalScore, results.FinalScore)
	c.animate(FieldCorrectCount, results.CorrectCount)
	c.animate(FieldIncorrectCount, results.IncorrectCount)
	passed := "No"
	if results.Passed {
		passed = "Yes"
	}
	c.view.ShowResultField(FieldLevelPassed, passed)
	c.animate(FieldCoins, results.CoinsEarned)
	c.view.ShowResultsHeader(results.Passed)
	c.ShowResults()
	return nil
}

// ReplayLevel resets the server session and reloads the first question.
func (c *QuizController) ReplayLevel(ctx context.Context) error {
	c.ShowLoading()
	if err := c.api.Reset(ctx, c.sessionID()); err != nil {
		return c.fail("reset game", err)
	}
	return c.LoadQuestion(ctx)
}

// QuitGame confirms, then closes the app from the main menu or returns to it from anywhere else.
func (c *QuizController) QuitGame() error {
	if c.State().Screen == domain.ScreenMainMenu {
		if !c.view.Confirm(quitAppPrompt) {
			return domain.ErrNotConfirmed
		}
		c.view.Close()
		return nil
	}
	if !c.view.Confirm(quitGamePrompt) {
		return domain.ErrNotConfirmed
	}
	c.ShowMainMenu()
	return nil
}

// HandleKey maps keyboard shortcuts: Escape quits, digits 1-4 pick an option during gameplay.
func (c *QuizController) HandleKey(ctx context.Context, key string) error {
	st := c.State()
	if key == "Escape" && st.Screen != domain.ScreenMainMenu {
		return c.QuitGame()
	}
	if st.Screen != domain.ScreenGameplay || st.Answering {
		return nil
	}
	n, err := strconv.Atoi(key)
	if err != nil || n < 1 || n > 4 || n > st.OptionCount {
		return nil
	}
	return c.SubmitAnswer(ctx, n-1)
}

func (c *QuizController) animate(field ResultField, end int) {
	for _, f := range CountUpFrames(0, end, c.timings.AnimationDuration, c.timings.AnimationFrame) {
		text := strconv.Itoa(f.Value)
		if f.At == 0 {
			c.view.ShowResultField(field, text)
			continue
		}
		c.sched.AfterFunc(f.At, func() { c.view.ShowResultField(field, text) })
	}
}

func (c *QuizController) sessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.SessionID
}

// fail surfaces the error and falls back to the main menu. There is no retry.
func (c *QuizController) fail(op string, err error) error {
	log.Printf("quiz: %s failed: %v", op, err)
	c.view.Notify(failureMessage(op, err))
	c.ShowMainMenu()
	return err
}

func failureMessage(op string, err error) string {
	if apiErr, ok := domain.IsAPIError(err); ok {
		return fmt.Sprintf("Failed to %s: %s", op, apiErr.Message)
	}
	return fmt.Sprintf("Failed to %s. Please check your connection and try again.", op)
}
