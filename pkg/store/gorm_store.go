package store

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/research-patron/post-analyze/pkg/model"
)

// GormStore は gorm（SQLite）による履歴永続化
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&model.HistoryRecord{}); err != nil {
		return nil, errors.Wrap(err, "generation_history テーブルのマイグレーションに失敗")
	}
	return &GormStore{db: db}, nil
}

// Load は全レコードを新しい順に読み込む
// 必須項目が欠けたレコードは警告を残してスキップする
func (s *GormStore) Load() ([]*model.HistoryRecord, error) {
	var rows []model.HistoryRecord
	if err := s.db.Order("generated_at DESC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "履歴の読み込みに失敗")
	}

	out := make([]*model.HistoryRecord, 0, len(rows))
	for i := range rows {
		rec := rows[i]
		if err := rec.Validate(); err != nil {
			zap.S().Warnf("履歴レコードをスキップ: %v", err)
			continue
		}
		out = append(out, &rec)
	}
	return out, nil
}

func (s *GormStore) Save(record *model.HistoryRecord) error {
	if err := s.db.Save(record).Error; err != nil {
		return errors.Wrapf(err, "レコード %s の保存に失敗", record.ID)
	}
	return nil
}

func (s *GormStore) Delete(id string) error {
	if err := s.db.Delete(&model.HistoryRecord{}, "id = ?", id).Error; err != nil {
		return errors.Wrapf(err, "レコード %s の削除に失敗", id)
	}
	return nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
