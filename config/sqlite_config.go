package config

import "github.com/pkg/errors"

type SQLiteConfig struct {
	DBPath string `json:"dbPath" yaml:"dbPath"` // SQLite データベースファイルのパス
}

func (s *SQLiteConfig) Validate() []error {
	var errs = make([]error, 0)
	if s.DBPath == "" {
		errs = append(errs, errors.Errorf("SQLite データベースのパスが未設定です"))
		return errs
	}
	if err := ensureDir(s.DBPath); err != nil {
		errs = append(errs, errors.Errorf("SQLite ディレクトリの作成に失敗: %v", err))
	}
	return errs
}

func NewDefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		DBPath: "./data/history.db",
	}
}

func (s *SQLiteConfig) DSN() string {
	return s.DBPath
}
