package service

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrRateLimitExceeded はレート制限による拒否
// コアでは再試行しない。呼び出し側が待機・再試行を判断する
var ErrRateLimitExceeded = errors.New("レート制限を超過しました。しばらく待ってから再試行してください")

// StorageError は永続化層の失敗
// 発生時はメモリ上の状態を変更せず呼び出し側へ伝播する
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ストレージ操作 %s に失敗: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
