package model

// GenerationRequest は生成呼び出し時のリクエストコンテキスト
// 外部の生成クライアントが収集してパイプラインに渡す
type GenerationRequest struct {
	Model          string
	OriginalPrompt string
	UserInput      string
	SiteID         string
	UserID         string
	FileInfo       *FileInfo
	Temperature    *float64
	MaxTokens      *int
	TokensUsed     int
	EstimatedCost  float64
	ProcessingTime *int
}
