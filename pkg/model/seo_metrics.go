package model

import "time"

// KeywordStat はキーワードの出現頻度と密度
// Density = Frequency / 総トークン数 × 100（小数第 2 位で丸め）
type KeywordStat struct {
	Term      string  `json:"term"`
	Frequency int     `json:"frequency"`
	Density   float64 `json:"density"`
}

// SeoMetrics はスコアリング結果の不変値オブジェクト
// 一度計算したら変更しない（履歴レコードへの添付のみ）
type SeoMetrics struct {
	TitleLength           int            `json:"titleLength"`
	MetaDescriptionLength int            `json:"metaDescriptionLength"`
	ContentLength         int            `json:"contentLength"`
	WordCount             int            `json:"wordCount"`
	HeadingCount          map[string]int `json:"headingCount"`
	Keywords              []KeywordStat  `json:"keywords"`

	TitleScore               int `json:"titleScore"`
	MetaDescriptionScore     int `json:"metaDescriptionScore"`
	ContentStructureScore    int `json:"contentStructureScore"`
	KeywordOptimizationScore int `json:"keywordOptimizationScore"`
	OverallScore             int `json:"overallScore"`

	Recommendations []string  `json:"recommendations"`
	CalculatedAt    time.Time `json:"calculatedAt"`
}
