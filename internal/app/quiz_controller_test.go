package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"schoolplus/internal/app"
	"schoolplus/internal/domain"
)

func TestNavigationKeepsExactlyOneScreenActive(t *testing.T) {
	view := newQuizView()
	ctrl := app.NewQuizController(&fakeQuizAPI{}, view)

	sequence := []domain.Screen{
		domain.ScreenLevelSelect, domain.ScreenLoading, domain.ScreenGameplay,
		domain.ScreenLoading, domain.ScreenResults, domain.ScreenMainMenu, domain.ScreenResults,
	}
	for _, screen := range sequence {
		ctrl.Navigate(screen)
		if got := view.activeCount(); got != 1 {
			t.Fatalf("after %s: expected one active screen, got %d", screen, got)
		}
		if view.active != screen {
			t.Fatalf("expected %s active, got %s", screen, view.active)
		}
		if view.nav != screen.NavIndex() {
			t.Fatalf("expected nav %d for %s, got %d", screen.NavIndex(), screen, view.nav)
		}
	}
}

func TestStartGameLoadsFirstQuestion(t *testing.T) {
	api := &fakeQuizAPI{questions: []domain.Question{
		{Text: "Who created Python?", Options: []string{"Guido", "James", "Brendan", "Bjarne"}, QuestionNumber: 1, TotalQuestions: 5},
	}}
	view := newQuizView()
	ctrl := app.NewQuizController(api, view, app.WithSessionID("player_1"), app.WithScheduler(&syncScheduler{}))

	if err := ctrl.StartGame(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if api.starts != 1 || api.lastSession != "player_1" {
		t.Fatalf("expected one start for player_1, got %d for %q", api.starts, api.lastSession)
	}
	if view.active != domain.ScreenGameplay {
		t.Fatalf("expected gameplay, got %s", view.active)
	}
	if view.question.Text != "Who created Python?" || len(view.question.Options) != 4 {
		t.Fatalf("unexpected question rendered: %+v", view.question)
	}
	if view.options[0] != "Guido" || view.options[3] != "Bjarne" {
		t.Fatalf("option order not preserved: %v", view.options)
	}
	if view.progress != "Score: 0 | Question 1/5" {
		t.Fatalf("unexpected progress %q", view.progress)
	}
}

func TestStartGameRejectedReturnsToMainMenu(t *testing.T) {
	api := &fakeQuizAPI{startErr: errors.New("connection refused")}
	view := newQuizView()
	ctrl := app.NewQuizController(api, view)

	if err := ctrl.StartGame(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if view.active != domain.ScreenMainMenu {
		t.Fatalf("expected main-menu, got %s", view.active)
	}
	if len(view.toasts) != 1 || view.toasts[0] != "Failed to start game. Please check your connection and try again." {
		t.Fatalf("unexpected notifications %v", view.toasts)
	}
	if api.questionCalls != 0 {
		t.Fatalf("expected no question request after failed start")
	}
}

func TestStartGameApplicationFailureShowsServerMessage(t *testing.T) {
	api := &fakeQuizAPI{startErr: &domain.APIError{Op: "start", Message: "boom"}}
	view := newQuizView()
	ctrl := app.NewQuizController(api, view)

	_ = ctrl.StartGame(context.Background())
	if len(view.toasts) != 1 || view.toasts[0] != "Failed to start game: boom" {
		t.Fatalf("unexpected notifications %v", view.toasts)
	}
	if view.active != domain.ScreenMainMenu {
		t.Fatalf("expected main-menu, got %s", view.active)
	}
}

func TestFinishedQuestionGoesStraightToResults(t *testing.T) {
	api := &fakeQuizAPI{
		questions: []domain.Question{{Finished: true}},
		results:   domain.QuizResults{FinalScore: 35, CorrectCount: 4, IncorrectCount: 1, Passed: true, CoinsEarned: 43},
	}
	view := newQuizView()
	ctrl := app.NewQuizController(api, view, app.WithScheduler(&syncScheduler{}))

	if err := ctrl.LoadQuestion(context.Background()); err != nil {
		t.Fatalf("load question: %v", err)
	}
	if view.questionsShown != 0 {
		t.Fatalf("expected no question rendered, got %d", view.questionsShown)
	}
	if api.resultsCalls != 1 {
		t.Fatalf("expected results request, got %d", api.resultsCalls)
	}
	if view.active != domain.ScreenResults {
		t.Fatalf("expected results screen, got %s", view.active)
	}
	want := map[app.ResultField]string{
		app.FieldFinalScore:     "35",
		app.FieldCorrectCount:   "4",
		app.FieldIncorrectCount: "1",
		app.FieldLevelPassed:    "Yes",
		app.FieldCoins:          "43",
	}
	for field, value := range want {
		if view.fields[field] != value {
			t.Fatalf("field %s: expected %q, got %q", field, value, view.fields[field])
		}
	}
	if !view.passedHeader {
		t.Fatalf("expected congratulation header")
	}
}

func TestSubmitAnswerTwiceSendsOneRequest(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	api := &fakeQuizAPI{
		questions: []domain.Question{{Text: "q", Options: []string{"a", "b"}}},
		answerHook: func() {
			close(entered)
			<-release
		},
		verdict: domain.AnswerVerdict{Correct: true, Message: "Correct!", Score: 10},
	}
	view := newQuizView()
	sched := &recordingScheduler{}
	ctrl := app.NewQuizController(api, view, app.WithScheduler(sched))
	if err := ctrl.LoadQuestion(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = ctrl.SubmitAnswer(context.Background(), 0)
	}()
	<-entered

	if err := ctrl.SubmitAnswer(context.Background(), 1); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	close(release)
	wg.Wait()

	if got := api.answerCount(); got != 1 {
		t.Fatalf("expected exactly one answer request, got %d", got)
	}
	if len(sched.delays) != 1 || sched.delays[0] != 2500*time.Millisecond {
		t.Fatalf("expected one 2500ms feedback delay, got %v", sched.delays)
	}
}

func TestSubmitAnswerFeedbackThenNextQuestion(t *testing.T) {
	api := &fakeQuizAPI{
		questions: []domain.Question{
			{Text: "first", Options: []string{"a", "b"}, QuestionNumber: 1, TotalQuestions: 2},
			{Text: "second", Options: []string{"c", "d"}, Score: 10, QuestionNumber: 2, TotalQuestions: 2},
		},
		verdict: domain.AnswerVerdict{Correct: true, Message: "Correct!", Score: 10},
	}
	view := newQuizView()
	sched := &recordingScheduler{}
	ctrl := app.NewQuizController(api, view, app.WithScheduler(sched))
	_ = ctrl.LoadQuestion(context.Background())

	if err := ctrl.SubmitAnswer(context.Background(), 1); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if view.marked[1] != "correct" {
		t.Fatalf("expected option 1 marked correct, got %v", view.marked)
	}
	if !view.optionsDisabled {
		t.Fatalf("expected options disabled")
	}
	if view.score != 10 {
		t.Fatalf("expected score display 10, got %d", view.score)
	}
	if view.feedback != "Correct!" {
		t.Fatalf("unexpected feedback %q", view.feedback)
	}
	if view.question.Text != "first" || !ctrl.State().Answering {
		t.Fatalf("next question must wait for the feedback delay")
	}

	sched.runAll()
	if view.question.Text != "second" {
		t.Fatalf("expected next question loaded, got %q", view.question.Text)
	}
	if ctrl.State().Answering {
		t.Fatalf("expected guard cleared after next question")
	}
}

func TestSubmitAnswerFailureClearsGuardWithoutNavigation(t *testing.T) {
	api := &fakeQuizAPI{
		questions: []domain.Question{{Text: "q", Options: []string{"a", "b"}}},
		answerErr: &domain.APIError{Op: "answer", Message: "No option selected"},
	}
	view := newQuizView()
	ctrl := app.NewQuizController(api, view)
	_ = ctrl.LoadQuestion(context.Background())

	if err := ctrl.SubmitAnswer(context.Background(), 0); err == nil {
		t.Fatalf("expected error")
	}
	if ctrl.State().Answering {
		t.Fatalf("expected guard cleared")
	}
	if view.active != domain.ScreenGameplay {
		t.Fatalf("expected to stay on gameplay, got %s", view.active)
	}
	if len(view.toasts) != 1 || view.toasts[0] != "Failed to submit answer: No option selected" {
		t.Fatalf("unexpected notifications %v", view.toasts)
	}
}

func TestSubmitAnswerOnlyForRenderedOptions(t *testing.T) {
	api := &fakeQuizAPI{
		questions: []domain.Question{{Text: "q", Options: []string{"a", "b"}}},
		verdict:   domain.AnswerVerdict{Correct: true, Message: "Correct!", Score: 10},
	}
	view := newQuizView()
	ctrl := app.NewQuizController(api, view, app.WithScheduler(&recordingScheduler{}))

	if err := ctrl.SubmitAnswer(context.Background(), 0); !errors.Is(err, domain.ErrNoSuchOption) {
		t.Fatalf("expected ErrNoSuchOption at main-menu, got %v", err)
	}

	_ = ctrl.LoadQuestion(context.Background())
	for _, index := range []int{-1, 2, 7} {
		if err := ctrl.SubmitAnswer(context.Background(), index); !errors.Is(err, domain.ErrNoSuchOption) {
			t.Fatalf("index %d: expected ErrNoSuchOption, got %v", index, err)
		}
	}
	if got := api.answerCount(); got != 0 {
		t.Fatalf("expected no answer request, got %d", got)
	}
	if ctrl.State().Answering {
		t.Fatalf("refused answers must not set the guard")
	}

	if err := ctrl.SubmitAnswer(context.Background(), 1); err != nil {
		t.Fatalf("submit rendered option: %v", err)
	}
	if got := api.answerCount(); got != 1 {
		t.Fatalf("expected one answer request, got %d", got)
	}
}

func TestReplayFailureReturnsToMenu(t *testing.T) {
	api := &fakeQuizAPI{resetErr: errors.New("timeout")}
	view := newQuizView()
	ctrl := app.NewQuizController(api, view)
	ctrl.ShowResults()

	if err := ctrl.ReplayLevel(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if view.active != domain.ScreenMainMenu {
		t.Fatalf("expected main-menu, got %s", view.active)
	}
}

func TestQuitGameConfirmation(t *testing.T) {
	view := newQuizView()
	ctrl := app.NewQuizController(&fakeQuizAPI{}, view)

	ctrl.ShowGameplay()
	view.confirmAnswer = false
	if err := ctrl.QuitGame(); !errors.Is(err, domain.ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}
	if view.active != domain.ScreenGameplay {
		t.Fatalf("declining must not navigate, got %s", view.active)
	}

	view.confirmAnswer = true
	if err := ctrl.QuitGame(); err != nil {
		t.Fatalf("quit: %v", err)
	}
	if view.active != domain.ScreenMainMenu || view.closed {
		t.Fatalf("expected main-menu without closing, got %s closed=%v", view.active, view.closed)
	}

	if err := ctrl.QuitGame(); err != nil {
		t.Fatalf("quit from menu: %v", err)
	}
	if !view.closed {
		t.Fatalf("expected close from main menu")
	}
	if view.prompts[len(view.prompts)-1] != "Are you sure you want to quit Gongwan Tycoon?" {
		t.Fatalf("unexpected prompt %q", view.prompts[len(view.prompts)-1])
	}
}

func TestHandleKeyDigitsAndEscape(t *testing.T) {
	api := &fakeQuizAPI{
		questions: []domain.Question{{Text: "q", Options: []string{"a", "b", "c"}}},
		verdict:   domain.AnswerVerdict{Correct: false, Message: "Wrong!", Score: -5},
	}
	view := newQuizView()
	ctrl := app.NewQuizController(api, view, app.WithScheduler(&recordingScheduler{}))

	_ = ctrl.HandleKey(context.Background(), "2")
	if api.answerCount() != 0 {
		t.Fatalf("digits must be ignored outside gameplay")
	}

	_ = ctrl.LoadQuestion(context.Background())
	_ = ctrl.HandleKey(context.Background(), "4")
	if api.answerCount() != 0 {
		t.Fatalf("digit beyond option count must be ignored")
	}
	_ = ctrl.HandleKey(context.Background(), "3")
	if api.answerCount() != 1 || api.lastSelected != 2 {
		t.Fatalf("expected option 2 submitted, got count=%d selected=%d", api.answerCount(), api.lastSelected)
	}
	_ = ctrl.HandleKey(context.Background(), "1")
	if api.answerCount() != 1 {
		t.Fatalf("digits must be ignored while answering")
	}

	view.confirmAnswer = true
	_ = ctrl.HandleKey(context.Background(), "Escape")
	if view.active != domain.ScreenMainMenu {
		t.Fatalf("expected escape to quit to main-menu, got %s", view.active)
	}
	promptsBefore := len(view.prompts)
	_ = ctrl.HandleKey(context.Background(), "Escape")
	if len(view.prompts) != promptsBefore {
		t.Fatalf("escape on main-menu must not prompt")
	}
}

type fakeQuizAPI struct {
	mu sync.Mutex

	startErr  error
	resetErr  error
	answerErr error

	questions  []domain.Question
	verdict    domain.AnswerVerdict
	results    domain.QuizResults
	answerHook func()

	starts        int
	questionCalls int
	answers       int
	resultsCalls  int
	lastSession   string
	lastSelected  int
}

func (f *fakeQuizAPI) Start(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.lastSession = sessionID
	return f.startErr
}

func (f *fakeQuizAPI) Question(_ context.Context, _ string) (domain.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.questionCalls
	f.questionCalls++
	if len(f.questions) == 0 {
		return domain.Question{Finished: true}, nil
	}
	if idx >= len(f.questions) {
		idx = len(f.questions) - 1
	}
	return f.questions[idx], nil
}

func (f *fakeQuizAPI) Answer(_ context.Context, _ string, selected int) (domain.AnswerVerdict, error) {
	f.mu.Lock()
	f.answers++
	f.lastSelected = selected
	hook := f.answerHook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return f.verdict, f.answerErr
}

func (f *fakeQuizAPI) Results(_ context.Context, _ string) (domain.QuizResults, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resultsCalls++
	return f.results, nil
}

func (f *fakeQuizAPI) Reset(_ context.Context, _ string) error {
	return f.resetErr
}

func (f *fakeQuizAPI) answerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.answers
}

type quizView struct {
	screens         map[domain.Screen]bool
	active          domain.Screen
	nav             int
	question        domain.Question
	questionsShown  int
	options         []string
	progress        string
	score           int
	marked          map[int]string
	feedback        string
	optionsDisabled bool
	fields          map[app.ResultField]string
	passedHeader    bool
	toasts          []string
	prompts         []string
	confirmAnswer   bool
	closed          bool
}

func newQuizView() *quizView {
	return &quizView{
		screens: make(map[domain.Screen]bool),
		nav:     -1,
		marked:  make(map[int]string),
		fields:  make(map[app.ResultField]string),
	}
}

func (v *quizView) ShowScreen(screen domain.Screen) {
	for _, s := range domain.Screens {
		v.screens[s] = s == screen
	}
	v.active = screen
}

func (v *quizView) activeCount() int {
	n := 0
	for _, on := range v.screens {
		if on {
			n++
		}
	}
	return n
}

func (v *quizView) HighlightNav(index int) { v.nav = index }

func (v *quizView) ShowQuestion(q domain.Question) {
	v.question = q
	v.questionsShown++
	v.options = append([]string(nil), q.Options...)
}

func (v *quizView) ShowProgress(score, number, total int) {
	v.score = score
	v.progress = fmt.Sprintf("Score: %d | Question %d/%d", score, number, total)
}

func (v *quizView) ShowScore(score int) { v.score = score }

func (v *quizView) MarkOption(index int, correct bool) {
	if correct {
		v.marked[index] = "correct"
		return
	}
	v.marked[index] = "incorrect"
}

func (v *quizView) ShowFeedback(_ bool, message string) { v.feedback = message }
func (v *quizView) DisableOptions()                      { v.optionsDisabled = true }

func (v *quizView) ShowResultField(field app.ResultField, text string) { v.fields[field] = text }
func (v *quizView) ShowResultsHeader(passed bool)                     { v.passedHeader = passed }
func (v *quizView) Notify(message string)                             { v.toasts = append(v.toasts, message) }

func (v *quizView) Confirm(prompt string) bool {
	v.prompts = append(v.prompts, prompt)
	return v.confirmAnswer
}

func (v *quizView) Close() { v.closed = true }

// syncScheduler runs callbacks immediately, in scheduling order.
type syncScheduler struct{}

func (syncScheduler) AfterFunc(_ time.Duration, f func()) { f() }

// recordingScheduler records callbacks and only runs them on runAll.
type recordingScheduler struct {
	mu      sync.Mutex
	delays  []time.Duration
	pending []func()
}

func (s *recordingScheduler) AfterFunc(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	s.pending = append(s.pending, f)
}

func (s *recordingScheduler) runAll() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, f := range pending {
		f()
	}
}

