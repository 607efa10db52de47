package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// ArticleStatus は生成結果から作成した記事の状態
type ArticleStatus string

const (
	ArticleStatusDraft          ArticleStatus = "draft"
	ArticleStatusReadyToPublish ArticleStatus = "ready_to_publish"
	ArticleStatusPublished      ArticleStatus = "published"
)

// ArticleRef は履歴レコードに紐付く記事への参照
type ArticleRef struct {
	ArticleID string        `json:"articleId"`
	Title     string        `json:"title"`
	Status    ArticleStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

// ArticleRefs は JSON カラムとして保存する記事参照リスト
type ArticleRefs []ArticleRef

// FileInfo は生成元ファイルの情報
type FileInfo struct {
	Filename  string `json:"filename"`
	FileSize  int    `json:"fileSize"`
	WordCount int    `json:"wordCount"`
}

// HistoryRecord は生成履歴テーブルの 1 レコード
// JSON フィールド名は既存データとの互換のため固定
type HistoryRecord struct {
	ID                string      `gorm:"primaryKey;column:id" json:"id"`
	OriginalPrompt    string      `gorm:"column:original_prompt" json:"originalPrompt"`
	UserInput         string      `gorm:"column:user_input" json:"userInput"`
	FileInfo          *FileInfo   `gorm:"column:file_info;type:text" json:"fileInfo,omitempty"`
	ModelUsed         string      `gorm:"column:model_used;index" json:"modelUsed"`
	Temperature       *float64    `gorm:"column:temperature" json:"temperature,omitempty"`
	MaxTokens         *int        `gorm:"column:max_tokens" json:"maxTokens,omitempty"`
	Suggestion        Suggestion  `gorm:"column:suggestion;type:text" json:"suggestion"`
	GeneratedAt       time.Time   `gorm:"column:generated_at;index" json:"generatedAt"`
	ProcessingTime    *int        `gorm:"column:processing_time" json:"processingTime,omitempty"`
	ResultingArticles ArticleRefs `gorm:"column:resulting_articles;type:text" json:"resultingArticles"`
	SeoMetrics        *SeoMetrics `gorm:"column:seo_metrics;type:text" json:"seoMetrics,omitempty"`
	UserRating        *int        `gorm:"column:user_rating" json:"userRating,omitempty"`
	UserNotes         string      `gorm:"column:user_notes" json:"userNotes,omitempty"`
	TokensUsed        int         `gorm:"column:tokens_used" json:"tokensUsed"`
	EstimatedCost     float64     `gorm:"column:estimated_cost" json:"estimatedCost"`
	SiteID            string      `gorm:"column:site_id;index" json:"siteId"`
	UserID            string      `gorm:"column:user_id" json:"userId,omitempty"`
}

// TableName 指定テーブル名
func (HistoryRecord) TableName() string {
	return "generation_history"
}

// Fingerprint は重複判定キー（プロンプト × サイト × モデル）
type Fingerprint struct {
	OriginalPrompt string
	SiteID         string
	ModelUsed      string
}

// Fingerprint はレコードの重複判定キーを返す
func (r *HistoryRecord) Fingerprint() Fingerprint {
	return Fingerprint{
		OriginalPrompt: r.OriginalPrompt,
		SiteID:         r.SiteID,
		ModelUsed:      r.ModelUsed,
	}
}

// HasArticle は指定 ID の記事が既に紐付いているかを返す
func (r *HistoryRecord) HasArticle(articleID string) bool {
	for _, ref := range r.ResultingArticles {
		if ref.ArticleID == articleID {
			return true
		}
	}
	return false
}

// Validate は永続化層から読み込んだレコードの必須項目を検査する
// 不正なレコードは読み込み時にスキップされる
func (r *HistoryRecord) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "id", Reason: "空の ID"}
	}
	if r.ModelUsed == "" {
		return &ValidationError{Field: "modelUsed", Reason: "モデル ID が未設定"}
	}
	if r.GeneratedAt.IsZero() {
		return &ValidationError{Field: "generatedAt", Reason: "生成日時が未設定"}
	}
	return nil
}

// ValidationError は永続化データの不整合を表す
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "不正なレコード: " + e.Field + " (" + e.Reason + ")"
}

// ---- JSON カラム変換 ----
// 入れ子のドキュメントは TEXT カラムに JSON として保存する。
// Scan は解析に失敗してもエラーにせず、ゼロ値のまま警告ログを残す。

// Value は driver.Valuer の実装（Suggestion を DB に保存するため）
func (s Suggestion) Value() (driver.Value, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan は sql.Scanner の実装（DB から Suggestion を読み込むため）
func (s *Suggestion) Scan(value interface{}) error {
	raw, ok := asBytes(value)
	if !ok || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, s); err != nil {
		zap.S().Warnf("suggestion カラムの解析に失敗: %v", err)
		*s = Suggestion{}
	}
	return nil
}

// Value は driver.Valuer の実装
func (m *SeoMetrics) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan は sql.Scanner の実装
func (m *SeoMetrics) Scan(value interface{}) error {
	raw, ok := asBytes(value)
	if !ok || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, m); err != nil {
		zap.S().Warnf("seo_metrics カラムの解析に失敗: %v", err)
		*m = SeoMetrics{}
	}
	return nil
}

// Value は driver.Valuer の実装
func (a ArticleRefs) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan は sql.Scanner の実装
func (a *ArticleRefs) Scan(value interface{}) error {
	raw, ok := asBytes(value)
	if !ok || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, a); err != nil {
		zap.S().Warnf("resulting_articles カラムの解析に失敗: %v", err)
		*a = nil
	}
	return nil
}

// Value は driver.Valuer の実装
func (f *FileInfo) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan は sql.Scanner の実装
func (f *FileInfo) Scan(value interface{}) error {
	raw, ok := asBytes(value)
	if !ok || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, f); err != nil {
		zap.S().Warnf("file_info カラムの解析に失敗: %v", err)
		*f = FileInfo{}
	}
	return nil
}

func asBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}
