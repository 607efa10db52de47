package db

import (
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/research-patron/post-analyze/config"
)

// OpenSQLite は gorm 経由で SQLite 接続を開く
func OpenSQLite(cfg *config.SQLiteConfig) (*gorm.DB, error) {
	gormDB, err := gorm.Open(sqlite.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		zap.S().Errorf("sqlite への接続に失敗: %v", err)
		return nil, err
	}

	zap.S().Debug("sqlite 初期化完了...")
	return gormDB, nil
}
