package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendDuckDB = "duckdb"
)

// StorageConfig は履歴ストアのバックエンド選択
type StorageConfig struct {
	Backend      string        `json:"backend" yaml:"backend"`
	SQLiteConfig *SQLiteConfig `json:"sqlite" yaml:"sqlite"`
	DuckDBConfig *DuckDBConfig `json:"duckdb" yaml:"duckdb"`
}

func (s *StorageConfig) Validate() []error {
	var errs = make([]error, 0)
	switch s.Backend {
	case BackendMemory:
	case BackendSQLite:
		if s.SQLiteConfig == nil {
			errs = append(errs, errors.Errorf("sqlite バックエンドには sqlite 設定が必要です"))
		} else {
			errs = append(errs, s.SQLiteConfig.Validate()...)
		}
	case BackendDuckDB:
		if s.DuckDBConfig == nil {
			errs = append(errs, errors.Errorf("duckdb バックエンドには duckdb 設定が必要です"))
		} else {
			errs = append(errs, s.DuckDBConfig.Validate()...)
		}
	default:
		errs = append(errs, errors.Errorf("未知のストレージバックエンド: %s", s.Backend))
	}
	return errs
}

func NewDefaultStorageConfig() *StorageConfig {
	return &StorageConfig{
		Backend:      BackendSQLite,
		SQLiteConfig: NewDefaultSQLiteConfig(),
		DuckDBConfig: NewDefaultDuckDBConfig(),
	}
}

// ensureDir は DB ファイルの親ディレクトリを作成する
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}
