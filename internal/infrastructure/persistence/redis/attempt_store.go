package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"wallet-server/internal/domain/checkout"
	"wallet-server/internal/domain/payment"
)

// keyPrefix 決済試行キーのプレフィックス
const keyPrefix = "checkout:attempt:"

// attemptRecord Redisに保存するJSONレコード
type attemptRecord struct {
	ID          string          `json:"id"`
	Method      string          `json:"method"`
	ProviderRef string          `json:"provider_ref"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

// AttemptStore Redisの決済試行ストア
// TTL付きで保存し、GETDEL で一度だけ取り出す
type AttemptStore struct {
	rdb *goredis.Client
	now func() time.Time
}

// NewAttemptStore 新しいAttemptStoreを作成
func NewAttemptStore(rdb *goredis.Client) *AttemptStore {
	return &AttemptStore{rdb: rdb, now: time.Now}
}

// NewClient 接続確認済みのRedisクライアントを作成
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// Save 決済試行を有効期限付きで保存
func (s *AttemptStore) Save(ctx context.Context, attempt *checkout.Attempt) error {
	if attempt == nil {
		return checkout.ErrInvalidAttempt
	}
	ttl := attempt.TTL(s.now())
	if ttl <= 0 {
		return fmt.Errorf("%w: already expired", checkout.ErrInvalidAttempt)
	}

	data, err := json.Marshal(attemptRecord{
		ID:          attempt.ID(),
		Method:      attempt.Method().String(),
		ProviderRef: attempt.ProviderRef(),
		Amount:      attempt.Amount(),
		CreatedAt:   attempt.CreatedAt(),
		ExpiresAt:   attempt.ExpiresAt(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal attempt: %w", err)
	}

	if err := s.rdb.Set(ctx, keyPrefix+attempt.ID(), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save attempt: %w", err)
	}
	return nil
}

// Take 決済試行を取り出して削除
func (s *AttemptStore) Take(ctx context.Context, id string) (*checkout.Attempt, error) {
	val, err := s.rdb.GetDel(ctx, keyPrefix+id).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, checkout.ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take attempt: %w", err)
	}

	var rec attemptRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attempt: %w", err)
	}

	method, err := payment.NewMethod(rec.Method)
	if err != nil {
		return nil, fmt.Errorf("failed to restore attempt: %w", err)
	}

	attempt := checkout.RestoreAttempt(rec.ID, method, rec.ProviderRef, rec.Amount, rec.CreatedAt, rec.ExpiresAt)
	if attempt.IsExpired(s.now()) {
		return nil, checkout.ErrAttemptNotFound
	}
	return attempt, nil
}

// Delete 決済試行を削除
func (s *AttemptStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete attempt: %w", err)
	}
	return nil
}
