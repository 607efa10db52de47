package service

import (
	"sync"
	"time"
)

// rateLimitWindow は流量評価の対象期間
const rateLimitWindow = 60 * time.Second

// Budget はモデルごとの 1 分あたりの許容量
type Budget struct {
	RequestsPerMinute int
	TokensPerMinute   int
}

type tokenSample struct {
	at     time.Time
	tokens int
}

type rateWindow struct {
	samples []tokenSample
}

// RateLimiter はモデル別のスライディングウィンドウ流量制御
// グローバル状態を持たず、依存として注入して使う
type RateLimiter struct {
	mu      sync.Mutex
	budgets map[string]Budget
	windows map[string]*rateWindow
	now     func() time.Time
}

func NewRateLimiter(budgets map[string]Budget) *RateLimiter {
	return &RateLimiter{
		budgets: budgets,
		windows: make(map[string]*rateWindow),
		now:     time.Now,
	}
}

// Admit は直近 60 秒のリクエスト数とトークン数が予算内かを評価する
// 未知のモデル ID は常に拒否する（フェイルクローズ）
// false は情報のみで、再試行の判断は呼び出し側に委ねる
func (l *RateLimiter) Admit(model string, estimatedTokens int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	budget, ok := l.budgets[model]
	if !ok {
		return false
	}

	w := l.window(model)
	l.prune(w)

	if len(w.samples) >= budget.RequestsPerMinute {
		return false
	}

	used := 0
	for _, s := range w.samples {
		used += s.tokens
	}
	return used+estimatedTokens < budget.TokensPerMinute
}

// Record は実際の消費トークンをウィンドウに追加する
func (l *RateLimiter) Record(model string, tokens int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.window(model)
	l.prune(w)
	w.samples = append(w.samples, tokenSample{at: l.now(), tokens: tokens})
}

func (l *RateLimiter) window(model string) *rateWindow {
	w, ok := l.windows[model]
	if !ok {
		w = &rateWindow{}
		l.windows[model] = w
	}
	return w
}

// prune はウィンドウ外のサンプルを取り除く
// アクセスのたびに呼ばれるためバックグラウンドのタイマーは不要
func (l *RateLimiter) prune(w *rateWindow) {
	cutoff := l.now().Add(-rateLimitWindow)
	kept := w.samples[:0]
	for _, s := range w.samples {
		if s.at.After(cutoff) {
			kept = append(kept, s)
		}
	}
	w.samples = kept
}
