package stub

import (
	"context"

	"schoolplus/internal/domain"
)

// GameRepository abstracts where running games are kept.
type GameRepository interface {
	Put(sessionID string, game *Game)
	Get(sessionID string) (*Game, bool)
	Delete(sessionID string)
}

// BankRepository loads question banks (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// GameService implements the quiz endpoints on top of the repositories.
type GameService struct {
	games  GameRepository
	banks  BankRepository
	bankID string
}

func NewGameService(games GameRepository, banks BankRepository, bankID string) *GameService {
	if bankID == "" {
		bankID = DefaultBankID
	}
	return &GameService{games: games, banks: banks, bankID: bankID}
}

// Start replaces any existing game of the session with a fresh one.
func (s *GameService) Start(ctx context.Context, sessionID string) error {
	bank, err := s.banks.GetBank(ctx, s.bankID)
	if err != nil {
		return err
	}
	s.games.Put(sessionID, NewGame(bank))
	return nil
}

// Has reports whether the session has a running game.
func (s *GameService) Has(sessionID string) bool {
	_, ok := s.games.Get(sessionID)
	return ok
}

// Question returns the current question of the session.
func (s *GameService) Question(_ context.Context, sessionID string) (domain.Question, error) {
	game, ok := s.games.Get(sessionID)
	if !ok {
		return domain.Question{}, domain.ErrSessionNotFound
	}
	q, index, ok := game.Current()
	if !ok {
		return domain.Question{Finished: true}, nil
	}
	score, total := game.Progress()
	return domain.Question{
		Text:           q.Text,
		Options:        q.Options,
		Score:          score,
		QuestionNumber: index + 1,
		TotalQuestions: total,
	}, nil
}

func (s *GameService) Answer(_ context.Context, sessionID string, selected int) (domain.AnswerVerdict, error) {
	game, ok := s.games.Get(sessionID)
	if !ok {
		return domain.AnswerVerdict{}, domain.ErrSessionNotFound
	}
	correct, message := game.Answer(selected)
	score, _ := game.Progress()
	return domain.AnswerVerdict{
		Correct:  correct,
		Message:  message,
		Score:    score,
		Finished: game.Finished(),
	}, nil
}

func (s *GameService) Results(_ context.Context, sessionID string) (domain.QuizResults, error) {
	game, ok := s.games.Get(sessionID)
	if !ok {
		return domain.QuizResults{}, domain.ErrSessionNotFound
	}
	return game.Results(), nil
}

func (s *GameService) Reset(_ context.Context, sessionID string) error {
	game, ok := s.games.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	game.Reset()
	return nil
}
