package config

import (
	"time"

	"github.com/pkg/errors"
)

// HistoryConfig は履歴ストアの重複排除ウィンドウ設定
type HistoryConfig struct {
	ImmediateDedupSeconds   int `json:"immediateDedupSeconds" yaml:"immediateDedupSeconds"`
	FingerprintDedupSeconds int `json:"fingerprintDedupSeconds" yaml:"fingerprintDedupSeconds"`
}

func (h *HistoryConfig) Validate() []error {
	var errs = make([]error, 0)
	if h.ImmediateDedupSeconds < 0 {
		errs = append(errs, errors.Errorf("immediateDedupSeconds は 0 以上にしてください"))
	}
	if h.FingerprintDedupSeconds < 0 {
		errs = append(errs, errors.Errorf("fingerprintDedupSeconds は 0 以上にしてください"))
	}
	return errs
}

func NewDefaultHistoryConfig() *HistoryConfig {
	return &HistoryConfig{
		ImmediateDedupSeconds:   5,
		FingerprintDedupSeconds: 30,
	}
}

func (h *HistoryConfig) ImmediateWindow() time.Duration {
	return time.Duration(h.ImmediateDedupSeconds) * time.Second
}

func (h *HistoryConfig) FingerprintWindow() time.Duration {
	return time.Duration(h.FingerprintDedupSeconds) * time.Second
}
