package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type IConfig interface {
	Validate() []error
}

type GlobalConfig struct {
	RateLimitConfig *RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`
	HistoryConfig   *HistoryConfig   `json:"history" yaml:"history"`
	StorageConfig   *StorageConfig   `json:"storage" yaml:"storage"`
}

func (g *GlobalConfig) Validate() []error {
	var errs = make([]error, 0)
	if g.RateLimitConfig != nil {
		if es := g.RateLimitConfig.Validate(); len(es) > 0 {
			errs = append(errs, es...)
		}
	}
	if g.HistoryConfig != nil {
		if es := g.HistoryConfig.Validate(); len(es) > 0 {
			errs = append(errs, es...)
		}
	}
	if g.StorageConfig != nil {
		if es := g.StorageConfig.Validate(); len(es) > 0 {
			errs = append(errs, es...)
		}
	}
	return errs
}

func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		RateLimitConfig: NewDefaultRateLimitConfig(),
		HistoryConfig:   NewDefaultHistoryConfig(),
		StorageConfig:   NewDefaultStorageConfig(),
	}
}

func TryLoadFromDisk(configFilePath string) (*GlobalConfig, error) {
	_, err := os.Stat(configFilePath)
	if err != nil {
		return nil, err
	}
	dir, file := filepath.Split(configFilePath)
	fileType := filepath.Ext(file)
	viper.AddConfigPath(dir)
	viper.SetConfigName(strings.TrimSuffix(file, fileType))
	viper.SetConfigType(strings.TrimPrefix(fileType, "."))
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := viper.ReadInConfig(); err != nil {
		if errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
		return nil, errors.Errorf("設定ファイルの解析エラー:%s", err.Error())
	}
	cfg := NewDefaultGlobalConfig()
	if err := viper.Unmarshal(cfg, func(config *mapstructure.DecoderConfig) {
		config.TagName = strings.TrimPrefix(fileType, ".")
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}
