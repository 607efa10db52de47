package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/research-patron/post-analyze/pkg/model"
)

// Result は 1 回の後処理パイプラインの成果物
type Result struct {
	Record     *model.HistoryRecord
	Suggestion model.Suggestion
	Structured model.StructuredContent
	HTML       string
	Metrics    model.SeoMetrics
}

// Pipeline は生成応答の後処理を一括で実行するオーケストレータ
// 解析 → 再構成 → スコアリング → 履歴追加の順に流す
type Pipeline struct {
	limiter       *RateLimiter
	parser        *ResponseParser
	reconstructor *ContentReconstructor
	scorer        *SeoScorer
	history       *HistoryStore
}

func NewPipeline(limiter *RateLimiter, history *HistoryStore) *Pipeline {
	return &Pipeline{
		limiter:       limiter,
		parser:        NewResponseParser(),
		reconstructor: NewContentReconstructor(),
		scorer:        NewSeoScorer(),
		history:       history,
	}
}

// Admit は生成呼び出しの前にレート制限を確認する
// 拒否された場合は ErrRateLimitExceeded を返す（自動再試行はしない）
func (p *Pipeline) Admit(modelID string, estimatedTokens int) error {
	if !p.limiter.Admit(modelID, estimatedTokens) {
		return ErrRateLimitExceeded
	}
	return nil
}

// Process は生成済みの生テキストを構造化・スコアリングして履歴に記録する
func (p *Pipeline) Process(ctx context.Context, req model.GenerationRequest, rawText string, targetKeywords []string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sugg := p.parser.Parse(rawText)
	if sugg.PrimaryTitle() == degradedTitle {
		// 解析劣化は致命的ではない。編集可能なドラフトとして流し続ける
		zap.S().Warnf("応答の解析が劣化しました（サイト %s / モデル %s）", req.SiteID, req.Model)
	}

	structured := p.reconstructor.Materialize(sugg)
	html := p.reconstructor.Flatten(structured)

	metrics := p.scorer.Analyze(
		sugg.PrimaryTitle(),
		html,
		sugg.PrimaryMetaDescription(),
		targetKeywords,
	)

	p.limiter.Record(req.Model, req.TokensUsed)

	rec, err := p.history.AddRecord(req, sugg)
	if err != nil {
		return nil, err
	}

	// 重複で既存レコードが返った場合、添付済みのメトリクスは上書きしない
	if rec.SeoMetrics == nil {
		if _, err := p.history.AttachSeoMetrics(rec.ID, &metrics); err != nil {
			return nil, err
		}
	}

	return &Result{
		Record:     rec,
		Suggestion: sugg,
		Structured: structured,
		HTML:       html,
		Metrics:    metrics,
	}, nil
}

// History は履歴ストアへの参照を返す（検索・集計用）
func (p *Pipeline) History() *HistoryStore {
	return p.history
}
