package config

import "github.com/pkg/errors"

type DuckDBConfig struct {
	DBPath string `json:"dbPath" yaml:"dbPath"` // DuckDB データベースファイルのパス
}

func (d *DuckDBConfig) Validate() []error {
	var errs = make([]error, 0)
	if d.DBPath == "" {
		errs = append(errs, errors.Errorf("DuckDB データベースのパスが未設定です"))
		return errs
	}
	if err := ensureDir(d.DBPath); err != nil {
		errs = append(errs, errors.Errorf("DuckDB ディレクトリの作成に失敗: %v", err))
	}
	return errs
}

func NewDefaultDuckDBConfig() *DuckDBConfig {
	return &DuckDBConfig{
		DBPath: "./data/history.duckdb",
	}
}

func (d *DuckDBConfig) DSN() string {
	return d.DBPath
}
