package db

import (
	"database/sql"

	"github.com/research-patron/post-analyze/config"

	_ "github.com/duckdb/duckdb-go/v2"
	"go.uber.org/zap"
)

// OpenDuckDB は DuckDB 接続を開く
func OpenDuckDB(cfg *config.DuckDBConfig) (*sql.DB, error) {
	duckDB, err := sql.Open("duckdb", cfg.DSN())
	if err != nil {
		zap.S().Errorf("duckdb への接続に失敗: %v", err)
		return nil, err
	}

	if err := duckDB.Ping(); err != nil {
		zap.S().Errorf("duckdb の接続確認に失敗: %v", err)
		_ = duckDB.Close()
		return nil, err
	}

	zap.S().Debug("duckdb 初期化完了...")
	return duckDB, nil
}
