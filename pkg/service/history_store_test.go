package service

import (
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/research-patron/post-analyze/pkg/model"
	"github.com/research-patron/post-analyze/pkg/store"
)

func newTestHistory(t *testing.T) (*HistoryStore, *time.Time) {
	t.Helper()

	hs, err := NewHistoryStore(store.NewMemoryStore(), 0, 0)
	if err != nil {
		t.Fatalf("NewHistoryStore: %v", err)
	}
	current := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	hs.now = func() time.Time { return current }
	return hs, &current
}

func testRequest(prompt, site, modelID string) model.GenerationRequest {
	return model.GenerationRequest{
		Model:          modelID,
		OriginalPrompt: prompt,
		UserInput:      prompt,
		SiteID:         site,
		TokensUsed:     1200,
		EstimatedCost:  0.004,
	}
}

func testSuggestion() model.Suggestion {
	return NewResponseParser().Parse("# 記事タイトル\n---\n本文")
}

func TestAddRecordImmediateDedup(t *testing.T) {
	t.Parallel()

	hs, current := newTestHistory(t)

	first, err := hs.AddRecord(testRequest("p1", "site-a", "m1"), testSuggestion())
	if err != nil {
		t.Fatalf("AddRecord: %v", err)
	}

	// 5 秒以内の再送信は内容を見ずに直前のレコードを返す
	*current = current.Add(2 * time.Second)
	second, err := hs.AddRecord(testRequest("違う内容", "site-b", "m2"), testSuggestion())
	if err != nil {
		t.Fatalf("AddRecord: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("immediate dedup must return the previous record: %s vs %s", first.ID, second.ID)
	}
	if hs.Len() != 1 {
		t.Fatalf("store length = %d, want 1", hs.Len())
	}
}

func TestAddRecordFingerprintDedup(t *testing.T) {
	t.Parallel()

	hs, current := newTestHistory(t)

	first, err := hs.AddRecord(testRequest("同じプロンプト", "site-a", "m1"), testSuggestion())
	if err != nil {
		t.Fatalf("AddRecord: %v", err)
	}

	// 即時ガードを抜けた後でも、30 秒以内の同一フィンガープリントは重複
	*current = current.Add(10 * time.Second)
	second, err := hs.AddRecord(testRequest("同じプロンプト", "site-a", "m1"), testSuggestion())
	if err != nil {
		t.Fatalf("AddRecord: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("fingerprint dedup must return the existing record")
	}
	if hs.Len() != 1 {
		t.Fatalf("store length = %d, want 1", hs.Len())
	}

	// ウィンドウを過ぎれば新規レコード
	*current = current.Add(31 * time.Second)
	third, err := hs.AddRecord(testRequest("同じプロンプト", "site-a", "m1"), testSuggestion())
	if err != nil {
		t.Fatalf("AddRecord: %v", err)
	}
	if third.ID == first.ID {
		t.Fatal("expired window must produce a new record")
	}
	if hs.Len() != 2 {
		t.Fatalf("store length = %d, want 2", hs.Len())
	}
}

func TestAddRecordOrdering(t *testing.T) {
	t.Parallel()

	hs, current := newTestHistory(t)

	for i, prompt := range []string{"一", "二", "三"} {
		if _, err := hs.AddRecord(testRequest(prompt, "site-a", "m1"), testSuggestion()); err != nil {
			t.Fatalf("AddRecord %d: %v", i, err)
		}
		*current = current.Add(time.Minute)
	}

	records := hs.Filter(model.HistoryFilter{})
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	// 新しい順
	if records[0].OriginalPrompt != "三" || records[2].OriginalPrompt != "一" {
		t.Fatalf("records must be most-recent-first: %s, %s, %s",
			records[0].OriginalPrompt, records[1].OriginalPrompt, records[2].OriginalPrompt)
	}
}

func TestLinkArticleIdempotent(t *testing.T) {
	t.Parallel()

	hs, _ := newTestHistory(t)
	rec, err := hs.AddRecord(testRequest("p", "site-a", "m1"), testSuggestion())
	if err != nil {
		t.Fatalf("AddRecord: %v", err)
	}

	ref := model.ArticleRef{ArticleID: "wp-100", Title: "公開記事", Status: model.ArticleStatusDraft}
	for i := 0; i < 3; i++ {
		ok, err := hs.LinkArticle(rec.ID, ref)
		if err != nil || !ok {
			t.Fatalf("LinkArticle attempt %d: ok=%v err=%v", i, ok, err)
		}
	}

	got := hs.Filter(model.HistoryFilter{})[0]
	if len(got.ResultingArticles) != 1 {
		t.Fatalf("duplicate articleId must not be appended: %v", got.ResultingArticles)
	}

	ok, err := hs.LinkArticle("missing-id", ref)
	if err != nil {
		t.Fatalf("LinkArticle missing: %v", err)
	}
	if ok {
		t.Fatal("linking to a missing record must return false")
	}
}

func TestUpdateAndDeleteRecord(t *testing.T) {
	t.Parallel()

	hs, _ := newTestHistory(t)
	rec, _ := hs.AddRecord(testRequest("p", "site-a", "m1"), testSuggestion())

	notes := "良い出来"
	tokens := 999
	ok, err := hs.UpdateRecord(rec.ID, RecordUpdate{UserNotes: &notes, TokensUsed: &tokens})
	if err != nil || !ok {
		t.Fatalf("UpdateRecord: ok=%v err=%v", ok, err)
	}

	got := hs.Filter(model.HistoryFilter{})[0]
	if got.UserNotes != notes || got.TokensUsed != tokens {
		t.Fatalf("partial update not applied: %+v", got)
	}
	if got.OriginalPrompt != "p" {
		t.Fatal("untouched fields must survive the merge")
	}

	ok, err = hs.UpdateRecord("missing", RecordUpdate{UserNotes: &notes})
	if err != nil || ok {
		t.Fatalf("updating a missing record must return false, got ok=%v err=%v", ok, err)
	}

	ok, err = hs.DeleteRecord(rec.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteRecord: ok=%v err=%v", ok, err)
	}
	if hs.Len() != 0 {
		t.Fatalf("store length after delete = %d, want 0", hs.Len())
	}
}

func TestSetUserRating(t *testing.T) {
	t.Parallel()

	hs, _ := newTestHistory(t)
	rec, _ := hs.AddRecord(testRequest("p", "site-a", "m1"), testSuggestion())

	if _, err := hs.SetUserRating(rec.ID, 9, ""); err == nil {
		t.Fatal("out-of-range rating must be rejected")
	}

	ok, err := hs.SetUserRating(rec.ID, 4, "参考になった")
	if err != nil || !ok {
		t.Fatalf("SetUserRating: ok=%v err=%v", ok, err)
	}

	got := hs.Filter(model.HistoryFilter{})[0]
	if got.UserRating == nil || *got.UserRating != 4 {
		t.Fatalf("rating not applied: %+v", got.UserRating)
	}
	if got.UserNotes != "参考になった" {
		t.Fatalf("notes not applied: %q", got.UserNotes)
	}
}

func TestFilterCriteria(t *testing.T) {
	t.Parallel()

	hs, current := newTestHistory(t)

	recA, _ := hs.AddRecord(testRequest("a", "site-a", "m1"), testSuggestion())
	*current = current.Add(time.Minute)
	recB, _ := hs.AddRecord(testRequest("b", "site-b", "m2"), testSuggestion())
	*current = current.Add(time.Minute)

	if _, err := hs.AttachSeoMetrics(recA.ID, &model.SeoMetrics{OverallScore: 80, WordCount: 1500}); err != nil {
		t.Fatalf("AttachSeoMetrics: %v", err)
	}
	if _, err := hs.LinkArticle(recB.ID, model.ArticleRef{ArticleID: "wp-1", Status: model.ArticleStatusPublished}); err != nil {
		t.Fatalf("LinkArticle: %v", err)
	}

	cases := []struct {
		name   string
		filter model.HistoryFilter
		want   []string
	}{
		{
			name:   "by_site",
			filter: model.HistoryFilter{SiteID: "site-a"},
			want:   []string{recA.ID},
		},
		{
			name:   "by_model",
			filter: model.HistoryFilter{Model: "m2"},
			want:   []string{recB.ID},
		},
		{
			name:   "by_min_score",
			filter: model.HistoryFilter{MinScore: intPtr(70)},
			want:   []string{recA.ID},
		},
		{
			name:   "by_has_articles",
			filter: model.HistoryFilter{HasArticles: boolPtr(true)},
			want:   []string{recB.ID},
		},
		{
			name:   "and_composition_empty",
			filter: model.HistoryFilter{SiteID: "site-a", HasArticles: boolPtr(true)},
			want:   []string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := hs.Filter(tc.filter)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d records, want %d", len(got), len(tc.want))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Fatalf("record[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	t.Parallel()

	hs, _ := newTestHistory(t)
	stats := hs.ComputeStats("")

	if stats.TotalPrompts != 0 || stats.TotalArticles != 0 || stats.TotalCost != 0 {
		t.Fatalf("empty store must yield zero aggregates: %+v", stats)
	}
	if stats.AverageSeoScore != 0 || stats.AverageWordCount != 0 {
		t.Fatalf("empty store averages must be zero: %+v", stats)
	}
	if len(stats.ByModel) != 0 || len(stats.ByMonth) != 0 {
		t.Fatalf("empty store breakdowns must be empty: %+v", stats)
	}
}

func TestComputeStatsAggregates(t *testing.T) {
	t.Parallel()

	hs, current := newTestHistory(t)
	*current = time.Date(2026, 7, 15, 9, 0, 0, 0, time.UTC)

	recA, _ := hs.AddRecord(testRequest("a", "site-a", "m1"), testSuggestion())
	*current = current.Add(time.Minute)
	recB, _ := hs.AddRecord(testRequest("b", "site-a", "m2"), testSuggestion())
	*current = time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)
	if _, err := hs.AddRecord(testRequest("c", "site-b", "m1"), testSuggestion()); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}

	if _, err := hs.AttachSeoMetrics(recA.ID, &model.SeoMetrics{OverallScore: 80, WordCount: 2000}); err != nil {
		t.Fatalf("AttachSeoMetrics: %v", err)
	}
	if _, err := hs.AttachSeoMetrics(recB.ID, &model.SeoMetrics{OverallScore: 60, WordCount: 1000}); err != nil {
		t.Fatalf("AttachSeoMetrics: %v", err)
	}
	if _, err := hs.LinkArticle(recA.ID, model.ArticleRef{ArticleID: "wp-1"}); err != nil {
		t.Fatalf("LinkArticle: %v", err)
	}

	stats := hs.ComputeStats("")

	if stats.TotalPrompts != 3 {
		t.Fatalf("TotalPrompts = %d, want 3", stats.TotalPrompts)
	}
	if stats.SuccessfulPrompts != 1 {
		t.Fatalf("SuccessfulPrompts = %d, want 1", stats.SuccessfulPrompts)
	}
	if stats.AverageSeoScore != 70 {
		t.Fatalf("AverageSeoScore = %v, want 70", stats.AverageSeoScore)
	}
	if stats.AverageWordCount != 1500 {
		t.Fatalf("AverageWordCount = %v, want 1500", stats.AverageWordCount)
	}
	if stats.TotalTokens != 3600 {
		t.Fatalf("TotalTokens = %d, want 3600", stats.TotalTokens)
	}

	if stats.ByModel["m1"].Count != 2 || stats.ByModel["m2"].Count != 1 {
		t.Fatalf("per-model counts wrong: %+v", stats.ByModel)
	}
	if stats.ByMonth["2026-07"].Prompts != 2 || stats.ByMonth["2026-08"].Prompts != 1 {
		t.Fatalf("per-month counts wrong: %+v", stats.ByMonth)
	}
	if stats.ByMonth["2026-07"].Articles != 1 {
		t.Fatalf("per-month articles wrong: %+v", stats.ByMonth["2026-07"])
	}

	// サイト指定の絞り込み
	siteStats := hs.ComputeStats("site-b")
	if siteStats.TotalPrompts != 1 {
		t.Fatalf("site filter TotalPrompts = %d, want 1", siteStats.TotalPrompts)
	}
}

// failingPersistence は保存に必ず失敗するスタブ
type failingPersistence struct{}

func (failingPersistence) Load() ([]*model.HistoryRecord, error) { return nil, nil }
func (failingPersistence) Save(*model.HistoryRecord) error       { return errors.New("disk full") }
func (failingPersistence) Delete(string) error                   { return errors.New("disk full") }
func (failingPersistence) Close() error                          { return nil }

func TestStorageFailureLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	hs, err := NewHistoryStore(failingPersistence{}, 0, 0)
	if err != nil {
		t.Fatalf("NewHistoryStore: %v", err)
	}

	_, err = hs.AddRecord(testRequest("p", "site-a", "m1"), testSuggestion())
	if err == nil {
		t.Fatal("persistence failure must propagate")
	}
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError, got %T", err)
	}
	if hs.Len() != 0 {
		t.Fatalf("failed save must not mutate in-memory state, len = %d", hs.Len())
	}
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
