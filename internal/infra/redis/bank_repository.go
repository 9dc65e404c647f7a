package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"schoolplus/internal/domain"
)

// BankLoader fetches question banks from a backing store (e.g., Postgres).
type BankLoader interface {
	LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// BankRepository caches question banks in Redis (hash per bank) and falls back to a loader on miss.
// Questions are stored as: HSET bank:{bankID}:questions {index} {question JSON}
type BankRepository struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewBankRepository(client *redis.Client, loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	key := r.questionsKey(bankID)

	if fields, err := r.client.HGetAll(ctx, key).Result(); err == nil && len(fields) > 0 {
		if bank, err := buildBankFromCache(bankID, fields); err == nil {
			return bank, nil
		}
	}

	result, err, _ := r.sf.Do(bankID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if fields, err := r.client.HGetAll(ctx, key).Result(); err == nil && len(fields) > 0 {
			if bank, err := buildBankFromCache(bankID, fields); err == nil {
				return bank, nil
			}
		}

		bank, err := r.loader.LoadBank(ctx, bankID)
		if err != nil {
			return domain.QuestionBank{}, err
		}

		pipe := r.client.Pipeline()
		pipe.Del(ctx, key)
		for i, q := range bank.Questions {
			raw, err := json.Marshal(q)
			if err != nil {
				return domain.QuestionBank{}, fmt.Errorf("encode question %d: %w", i, err)
			}
			pipe.HSet(ctx, key, strconv.Itoa(i), raw)
		}
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return bank, nil
	})
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return result.(domain.QuestionBank), nil
}

func (r *BankRepository) questionsKey(bankID string) string {
	return "bank:" + bankID + ":questions"
}

func buildBankFromCache(bankID string, fields map[string]string) (domain.QuestionBank, error) {
	indexes := make([]int, 0, len(fields))
	for k := range fields {
		i, err := strconv.Atoi(k)
		if err != nil {
			return domain.QuestionBank{}, fmt.Errorf("bad question index %q", k)
		}
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	questions := make([]domain.BankQuestion, 0, len(indexes))
	for _, i := range indexes {
		var q domain.BankQuestion
		if err := json.Unmarshal([]byte(fields[strconv.Itoa(i)]), &q); err != nil {
			return domain.QuestionBank{}, fmt.Errorf("decode question %d: %w", i, err)
		}
		questions = append(questions, q)
	}
	return domain.QuestionBank{ID: bankID, Questions: questions}, nil
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
