package config

import "github.com/pkg/errors"

// ModelBudget はモデルごとの 1 分あたりの許容量
type ModelBudget struct {
	RequestsPerMinute int `json:"rpm" yaml:"rpm"`
	TokensPerMinute   int `json:"tpm" yaml:"tpm"`
}

// RateLimitConfig はレート制限の予算テーブル
// ここに載っていないモデルは常に拒否される
type RateLimitConfig struct {
	Models map[string]ModelBudget `json:"models" yaml:"models"`
}

func (r *RateLimitConfig) Validate() []error {
	var errs = make([]error, 0)
	for model, budget := range r.Models {
		if budget.RequestsPerMinute <= 0 {
			errs = append(errs, errors.Errorf("モデル %s の rpm は正の値にしてください", model))
		}
		if budget.TokensPerMinute <= 0 {
			errs = append(errs, errors.Errorf("モデル %s の tpm は正の値にしてください", model))
		}
	}
	return errs
}

func NewDefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Models: map[string]ModelBudget{
			"gemini-2.0-flash": {RequestsPerMinute: 15, TokensPerMinute: 1000000},
			"gemini-1.5-pro":   {RequestsPerMinute: 2, TokensPerMinute: 32000},
			"gpt-4o-mini":      {RequestsPerMinute: 30, TokensPerMinute: 200000},
		},
	}
}
