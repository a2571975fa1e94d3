package memory

import (
	"context"
	"sync"
	"time"

	"wallet-server/internal/domain/checkout"
)

// AttemptStore プロセス内メモリの決済試行ストア
type AttemptStore struct {
	mu       sync.Mutex
	attempts map[string]*checkout.Attempt
	now      func() time.Time
}

// NewAttemptStore 新しいAttemptStoreを作成
func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[string]*checkout.Attempt),
		now:      time.Now,
	}
}

// Save 決済試行を保存
func (s *AttemptStore) Save(ctx context.Context, attempt *checkout.Attempt) error {
	if attempt == nil {
		return checkout.ErrInvalidAttempt
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpired()
	s.attempts[attempt.ID()] = attempt
	return nil
}

// Take 決済試行を取り出して削除
func (s *AttemptStore) Take(ctx context.Context, id string) (*checkout.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt, ok := s.attempts[id]
	if !ok {
		return nil, checkout.ErrAttemptNotFound
	}
	delete(s.attempts, id)

	if attempt.IsExpired(s.now()) {
		return nil, checkout.ErrAttemptNotFound
	}
	return attempt, nil
}

// Delete 決済試行を削除
func (s *AttemptStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.attempts, id)
	return nil
}

// Len 保持している件数（期限切れを含む）
func (s *AttemptStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts)
}

// evictExpired 期限切れの試行を削除（呼び出し側でロック済み）
func (s *AttemptStore) evictExpired() {
	now := s.now()
	for id, a := range s.attempts {
		if a.IsExpired(now) {
			delete(s.attempts, id)
		}
	}
}
