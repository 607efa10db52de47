package store

import (
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/research-patron/post-analyze/pkg/model"
)

// DuckDBStore は DuckDB による履歴永続化（分析用途向け）
// レコード全体を JSON ペイロードとして保存する
type DuckDBStore struct {
	db *sql.DB
}

func NewDuckDBStore(db *sql.DB) (*DuckDBStore, error) {
	createTableSQL := `
		CREATE TABLE IF NOT EXISTS generation_history (
			id VARCHAR PRIMARY KEY,
			site_id VARCHAR,
			model_used VARCHAR,
			generated_at TIMESTAMP,
			payload VARCHAR
		)
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, errors.Wrap(err, "generation_history テーブルの作成に失敗")
	}
	return &DuckDBStore{db: db}, nil
}

// Load は全レコードを新しい順に読み込む
// ペイロードが壊れているレコードは警告を残してスキップする
func (s *DuckDBStore) Load() ([]*model.HistoryRecord, error) {
	rows, err := s.db.Query(`SELECT payload FROM generation_history ORDER BY generated_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "履歴の読み込みに失敗")
	}
	defer rows.Close()

	out := make([]*model.HistoryRecord, 0)
	for rows.Next() {
		var payload interface{}
		if err := rows.Scan(&payload); err != nil {
			zap.S().Warnf("履歴行のスキャンに失敗: %v", err)
			continue
		}

		var rec model.HistoryRecord
		if err := json.Unmarshal([]byte(cast.ToString(payload)), &rec); err != nil {
			zap.S().Warnf("履歴ペイロードの解析に失敗、スキップ: %v", err)
			continue
		}
		if err := rec.Validate(); err != nil {
			zap.S().Warnf("履歴レコードをスキップ: %v", err)
			continue
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (s *DuckDBStore) Save(record *model.HistoryRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return errors.Wrapf(err, "レコード %s のシリアライズに失敗", record.ID)
	}

	insertSQL := `
		INSERT OR REPLACE INTO generation_history (id, site_id, model_used, generated_at, payload)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = s.db.Exec(insertSQL,
		record.ID,
		record.SiteID,
		record.ModelUsed,
		record.GeneratedAt,
		string(payload),
	)
	if err != nil {
		return errors.Wrapf(err, "レコード %s の保存に失敗", record.ID)
	}
	return nil
}

func (s *DuckDBStore) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM generation_history WHERE id = ?`, id); err != nil {
		return errors.Wrapf(err, "レコード %s の削除に失敗", id)
	}
	return nil
}

func (s *DuckDBStore) Close() error {
	return s.db.Close()
}
