// Package store は生成履歴の永続化バックエンドを提供する
// 履歴ストア本体はこのポート越しにのみ永続化層へ触れる
package store

import "github.com/research-patron/post-analyze/pkg/model"

// Persistence は履歴レコードの永続化ポート
// Load は不正なレコードをスキップして読み込みを継続する
type Persistence interface {
	Load() ([]*model.HistoryRecord, error)
	Save(record *model.HistoryRecord) error
	Delete(id string) error
	Close() error
}
