package cmd

import (
	"github.com/pkg/errors"

	"github.com/research-patron/post-analyze/config"
	"github.com/research-patron/post-analyze/pkg/db"
	"github.com/research-patron/post-analyze/pkg/service"
	"github.com/research-patron/post-analyze/pkg/store"
)

// loadConfig は設定ファイルを読み込む。読めない場合は既定値で続行する
func loadConfig(path string) (*config.GlobalConfig, []error) {
	cfg, err := config.TryLoadFromDisk(path)
	if err != nil {
		cfg = config.NewDefaultGlobalConfig()
	}
	return cfg, cfg.Validate()
}

// buildPersistence は設定されたバックエンドの永続化層を組み立てる
func buildPersistence(cfg *config.StorageConfig) (store.Persistence, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return store.NewMemoryStore(), nil

	case config.BackendSQLite:
		gormDB, err := db.OpenSQLite(cfg.SQLiteConfig)
		if err != nil {
			return nil, err
		}
		return store.NewGormStore(gormDB)

	case config.BackendDuckDB:
		duckDB, err := db.OpenDuckDB(cfg.DuckDBConfig)
		if err != nil {
			return nil, err
		}
		return store.NewDuckDBStore(duckDB)

	default:
		return nil, errors.Errorf("未知のストレージバックエンド: %s", cfg.Backend)
	}
}

// buildPipeline は設定からパイプライン一式を組み立てる
func buildPipeline(cfg *config.GlobalConfig) (*service.Pipeline, store.Persistence, error) {
	persistence, err := buildPersistence(cfg.StorageConfig)
	if err != nil {
		return nil, nil, err
	}

	history, err := service.NewHistoryStore(
		persistence,
		cfg.HistoryConfig.ImmediateWindow(),
		cfg.HistoryConfig.FingerprintWindow(),
	)
	if err != nil {
		_ = persistence.Close()
		return nil, nil, err
	}

	budgets := make(map[string]service.Budget, len(cfg.RateLimitConfig.Models))
	for name, b := range cfg.RateLimitConfig.Models {
		budgets[name] = service.Budget{
			RequestsPerMinute: b.RequestsPerMinute,
			TokensPerMinute:   b.TokensPerMinute,
		}
	}
	limiter := service.NewRateLimiter(budgets)

	return service.NewPipeline(limiter, history), persistence, nil
}
