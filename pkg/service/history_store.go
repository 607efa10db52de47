package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/research-patron/post-analyze/pkg/model"
	"github.com/research-patron/post-analyze/pkg/store"
)

const (
	// defaultImmediateDedupWindow は二重送信ガード（直前レコードの即時返却）
	defaultImmediateDedupWindow = 5 * time.Second
	// defaultFingerprintDedupWindow は同一内容の近接重複ガード
	defaultFingerprintDedupWindow = 30 * time.Second
)

// HistoryStore は生成履歴の順序付きログ（新しい順）
// 重複排除キャッシュを含む全状態を 1 つのロックで守る
// （check-then-act のため、分割ロックでは競合する）
type HistoryStore struct {
	mu          sync.Mutex
	records     []*model.HistoryRecord
	persistence store.Persistence

	immediateWindow   time.Duration
	fingerprintWindow time.Duration
	last              *model.HistoryRecord
	lastAddedAt       time.Time

	now func() time.Time
}

// NewHistoryStore は永続化層から履歴を読み込んでストアを構築する
// ウィンドウに 0 を渡すと既定値（5 秒 / 30 秒）を使う
func NewHistoryStore(p store.Persistence, immediateWindow, fingerprintWindow time.Duration) (*HistoryStore, error) {
	records, err := p.Load()
	if err != nil {
		return nil, &StorageError{Op: "load", Err: err}
	}

	if immediateWindow <= 0 {
		immediateWindow = defaultImmediateDedupWindow
	}
	if fingerprintWindow <= 0 {
		fingerprintWindow = defaultFingerprintDedupWindow
	}

	return &HistoryStore{
		records:           records,
		persistence:       p,
		immediateWindow:   immediateWindow,
		fingerprintWindow: fingerprintWindow,
		now:               time.Now,
	}, nil
}

// Len は保持しているレコード数を返す
func (h *HistoryStore) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

// AddRecord は新しい履歴レコードを追加する
// 二段階の重複排除:
//  1. 直前に追加したレコードが immediateWindow 以内なら内容を見ずにそれを返す
//  2. 同一フィンガープリント（プロンプト × サイト × モデル）のレコードが
//     fingerprintWindow 以内にあればそれを返す
func (h *HistoryStore) AddRecord(req model.GenerationRequest, sugg model.Suggestion) (*model.HistoryRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()

	if h.last != nil && now.Sub(h.lastAddedAt) < h.immediateWindow {
		zap.S().Debugf("二重送信を検出、直前のレコード %s を返却", h.last.ID)
		return h.last, nil
	}

	fp := model.Fingerprint{
		OriginalPrompt: req.OriginalPrompt,
		SiteID:         req.SiteID,
		ModelUsed:      req.Model,
	}
	for _, rec := range h.records {
		if rec.Fingerprint() == fp && now.Sub(rec.GeneratedAt) < h.fingerprintWindow {
			zap.S().Debugf("近接重複を検出、既存レコード %s を返却", rec.ID)
			return rec, nil
		}
	}

	rec := &model.HistoryRecord{
		ID:                uuid.NewString(),
		OriginalPrompt:    req.OriginalPrompt,
		UserInput:         req.UserInput,
		FileInfo:          req.FileInfo,
		ModelUsed:         req.Model,
		Temperature:       req.Temperature,
		MaxTokens:         req.MaxTokens,
		Suggestion:        sugg,
		GeneratedAt:       now,
		ProcessingTime:    req.ProcessingTime,
		ResultingArticles: model.ArticleRefs{},
		TokensUsed:        req.TokensUsed,
		EstimatedCost:     req.EstimatedCost,
		SiteID:            req.SiteID,
		UserID:            req.UserID,
	}

	// 永続化に失敗した場合はメモリ上の状態を変更しない
	if err := h.persistence.Save(rec); err != nil {
		return nil, &StorageError{Op: "save", Err: err}
	}

	h.records = append([]*model.HistoryRecord{rec}, h.records...)
	h.last = rec
	h.lastAddedAt = now
	return rec, nil
}

// RecordUpdate は UpdateRecord の部分更新（nil のフィールドは変更しない）
type RecordUpdate struct {
	UserInput      *string
	UserNotes      *string
	UserRating     *int
	ProcessingTime *int
	TokensUsed     *int
	EstimatedCost  *float64
	Temperature    *float64
	MaxTokens      *int
}

// UpdateRecord は部分更新を適用する。ID が見つからなければ false
func (h *HistoryStore) UpdateRecord(id string, update RecordUpdate) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec := h.find(id)
	if rec == nil {
		return false, nil
	}

	clone := *rec
	if update.UserInput != nil {
		clone.UserInput = *update.UserInput
	}
	if update.UserNotes != nil {
		clone.UserNotes = *update.UserNotes
	}
	if update.UserRating != nil {
		clone.UserRating = update.UserRating
	}
	if update.ProcessingTime != nil {
		clone.ProcessingTime = update.ProcessingTime
	}
	if update.TokensUsed != nil {
		clone.TokensUsed = *update.TokensUsed
	}
	if update.EstimatedCost != nil {
		clone.EstimatedCost = *update.EstimatedCost
	}
	if update.Temperature != nil {
		clone.Temperature = update.Temperature
	}
	if update.MaxTokens != nil {
		clone.MaxTokens = update.MaxTokens
	}

	return h.commit(rec, &clone)
}

// DeleteRecord は明示的なユーザー操作によるレコード削除
func (h *HistoryStore) DeleteRecord(id string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	idx := -1
	for i, rec := range h.records {
		if rec.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	if err := h.persistence.Delete(id); err != nil {
		return false, &StorageError{Op: "delete", Err: err}
	}

	if h.last != nil && h.last.ID == id {
		h.last = nil
	}
	h.records = append(h.records[:idx], h.records[idx+1:]...)
	return true, nil
}

// LinkArticle は生成結果から作成した記事をレコードに紐付ける
// 同じ articleId が既にあれば何もしない（冪等）
func (h *HistoryStore) LinkArticle(id string, ref model.ArticleRef) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec := h.find(id)
	if rec == nil {
		return false, nil
	}
	if rec.HasArticle(ref.ArticleID) {
		return true, nil
	}

	clone := *rec
	clone.ResultingArticles = append(append(model.ArticleRefs{}, rec.ResultingArticles...), ref)
	return h.commit(rec, &clone)
}

// AttachSeoMetrics はスコアリング結果をレコードに添付する
func (h *HistoryStore) AttachSeoMetrics(id string, metrics *model.SeoMetrics) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec := h.find(id)
	if rec == nil {
		return false, nil
	}

	clone := *rec
	clone.SeoMetrics = metrics
	return h.commit(rec, &clone)
}

// SetUserRating はユーザー評価（1〜5）とメモを設定する
func (h *HistoryStore) SetUserRating(id string, rating int, notes string) (bool, error) {
	if rating < 1 || rating > 5 {
		return false, errors.Errorf("評価は 1〜5 で指定してください: %d", rating)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	rec := h.find(id)
	if rec == nil {
		return false, nil
	}

	clone := *rec
	clone.UserRating = &rating
	if notes != "" {
		clone.UserNotes = notes
	}
	return h.commit(rec, &clone)
}

// Filter は指定条件の AND で履歴を絞り込む（新しい順のスナップショット）
func (h *HistoryStore) Filter(f model.HistoryFilter) []*model.HistoryRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*model.HistoryRecord, 0)
	for _, rec := range h.records {
		if !matchesFilter(rec, f) {
			continue
		}
		clone := *rec
		out = append(out, &clone)
	}
	return out
}

func matchesFilter(rec *model.HistoryRecord, f model.HistoryFilter) bool {
	if f.From != nil && rec.GeneratedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && rec.GeneratedAt.After(*f.To) {
		return false
	}
	if f.SiteID != "" && rec.SiteID != f.SiteID {
		return false
	}
	if f.Model != "" && rec.ModelUsed != f.Model {
		return false
	}
	if f.MinScore != nil {
		if rec.SeoMetrics == nil || rec.SeoMetrics.OverallScore < *f.MinScore {
			return false
		}
	}
	if f.MaxScore != nil {
		if rec.SeoMetrics == nil || rec.SeoMetrics.OverallScore > *f.MaxScore {
			return false
		}
	}
	if f.HasArticles != nil {
		if *f.HasArticles != (len(rec.ResultingArticles) > 0) {
			return false
		}
	}
	if f.Rating != nil {
		if rec.UserRating == nil || *rec.UserRating != *f.Rating {
			return false
		}
	}
	return true
}

// ComputeStats は履歴全体の集計を返す（siteID を指定するとサイト単位）
// 履歴が空でも全項目ゼロの Stats を返す
func (h *HistoryStore) ComputeStats(siteID string) model.Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := model.Stats{
		ByModel: make(map[string]*model.ModelStats),
		ByMonth: make(map[string]*model.MonthlyStats),
	}

	type modelAccum struct {
		count    int
		procSum  float64
		procN    int
		costSum  float64
		scoreSum float64
		scoreN   int
	}
	modelAccums := make(map[string]*modelAccum)

	scoreSum := 0
	scoreCount := 0
	wordSum := 0
	wordCount := 0

	for _, rec := range h.records {
		if siteID != "" && rec.SiteID != siteID {
			continue
		}

		stats.TotalPrompts++
		if len(rec.ResultingArticles) > 0 {
			stats.SuccessfulPrompts++
		}
		stats.TotalArticles += len(rec.ResultingArticles)
		stats.TotalTokens += rec.TokensUsed
		stats.TotalCost += rec.EstimatedCost

		if rec.SeoMetrics != nil {
			scoreSum += rec.SeoMetrics.OverallScore
			scoreCount++
			wordSum += rec.SeoMetrics.WordCount
			wordCount++
		}

		acc, ok := modelAccums[rec.ModelUsed]
		if !ok {
			acc = &modelAccum{}
			modelAccums[rec.ModelUsed] = acc
		}
		acc.count++
		acc.costSum += rec.EstimatedCost
		if rec.ProcessingTime != nil {
			acc.procSum += float64(*rec.ProcessingTime)
			acc.procN++
		}
		if rec.SeoMetrics != nil {
			acc.scoreSum += float64(rec.SeoMetrics.OverallScore)
			acc.scoreN++
		}

		month := rec.GeneratedAt.Format("2006-01")
		ms, ok := stats.ByMonth[month]
		if !ok {
			ms = &model.MonthlyStats{}
			stats.ByMonth[month] = ms
		}
		ms.Prompts++
		ms.Articles += len(rec.ResultingArticles)
		ms.Tokens += rec.TokensUsed
		ms.Cost += rec.EstimatedCost
	}

	if scoreCount > 0 {
		stats.AverageSeoScore = float64(scoreSum) / float64(scoreCount)
	}
	if wordCount > 0 {
		stats.AverageWordCount = float64(wordSum) / float64(wordCount)
	}
	for name, acc := range modelAccums {
		ms := &model.ModelStats{Count: acc.count}
		if acc.procN > 0 {
			ms.AvgProcessingTime = acc.procSum / float64(acc.procN)
		}
		if acc.count > 0 {
			ms.AvgCost = acc.costSum / float64(acc.count)
		}
		if acc.scoreN > 0 {
			ms.AvgScore = acc.scoreSum / float64(acc.scoreN)
		}
		stats.ByModel[name] = ms
	}
	return stats
}

// find は呼び出し側でロックを取得していることを前提とする
func (h *HistoryStore) find(id string) *model.HistoryRecord {
	for _, rec := range h.records {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

// commit は永続化に成功した場合のみメモリ上のレコードを差し替える
func (h *HistoryStore) commit(rec, clone *model.HistoryRecord) (bool, error) {
	if err := h.persistence.Save(clone); err != nil {
		return false, &StorageError{Op: "save", Err: err}
	}
	*rec = *clone
	return true, nil
}
