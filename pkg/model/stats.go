package model

import "time"

// HistoryFilter は履歴検索条件（指定された条件の AND で絞り込む）
type HistoryFilter struct {
	From        *time.Time
	To          *time.Time
	SiteID      string
	Model       string
	MinScore    *int
	MaxScore    *int
	HasArticles *bool
	Rating      *int
}

// ModelStats はモデル別の集計
type ModelStats struct {
	Count             int     `json:"count"`
	AvgProcessingTime float64 `json:"avgProcessingTime"`
	AvgCost           float64 `json:"avgCost"`
	AvgScore          float64 `json:"avgScore"`
}

// MonthlyStats は月別（YYYY-MM）の集計
type MonthlyStats struct {
	Prompts  int     `json:"prompts"`
	Articles int     `json:"articles"`
	Tokens   int     `json:"tokens"`
	Cost     float64 `json:"cost"`
}

// Stats は履歴全体の集計結果
// 履歴が空でも全項目ゼロで返す（エラーにはしない）
type Stats struct {
	TotalPrompts      int                      `json:"totalPrompts"`
	SuccessfulPrompts int                      `json:"successfulPrompts"`
	AverageSeoScore   float64                  `json:"averageSeoScore"`
	AverageWordCount  float64                  `json:"averageWordCount"`
	TotalArticles     int                      `json:"totalArticles"`
	TotalTokens       int                      `json:"totalTokens"`
	TotalCost         float64                  `json:"totalCost"`
	ByModel           map[string]*ModelStats   `json:"byModel"`
	ByMonth           map[string]*MonthlyStats `json:"byMonth"`
}
