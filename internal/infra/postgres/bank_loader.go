package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"schoolplus/internal/domain"
)

// BankLoader loads question bank JSONB from Postgres.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT questions FROM question_banks WHERE id=$1`, bankID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestionBank{}, domain.ErrBankNotFound
	}
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("load bank: %w", err)
	}
	bank := domain.QuestionBank{ID: bankID}
	if err := json.Unmarshal(raw, &bank.Questions); err != nil {
		return domain.QuestionBank{}, fmt.Errorf("unmarshal bank: %w", err)
	}
	return bank, nil
}

// SaveBank upserts a bank; used to seed the stub backend.
func (l *BankLoader) SaveBank(ctx context.Context, bank domain.QuestionBank) error {
	raw, err := json.Marshal(bank.Questions)
	if err != nil {
		return fmt.Errorf("marshal bank: %w", err)
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO question_banks (id, questions) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET questions = EXCLUDED.questions, updated_at = now()`,
		bank.ID, raw)
	if err != nil {
		return fmt.Errorf("save bank: %w", err)
	}
	return nil
}
