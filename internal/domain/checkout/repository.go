package checkout

import "context"

// AttemptStore 決済試行ストアインターフェース
type AttemptStore interface {
	// Save 有効期限付きで保存する
	Save(ctx context.Context, attempt *Attempt) error
	// Take 取得と同時に削除する。存在しない場合は ErrAttemptNotFound
	Take(ctx context.Context, id string) (*Attempt, error)
	// Delete 削除する。存在しなくてもエラーにしない
	Delete(ctx context.Context, id string) error
}
