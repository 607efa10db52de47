package service

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/research-patron/post-analyze/pkg/model"
)

const (
	// primaryIdealDensity / secondaryIdealDensity は経験則による目標密度（%）
	// 由来は不明だが既存データとの互換のため値を変更しない
	primaryIdealDensity   = 2.0
	secondaryIdealDensity = 1.0

	maxKeywords       = 15
	maxNonTargetTerms = 10
	scoredKeywords    = 5

	// 総合スコアの重み
	weightTitle     = 0.25
	weightMeta      = 0.20
	weightStructure = 0.35
	weightKeyword   = 0.20
)

var (
	howToWords     = []string{"方法", "やり方", "手順", "始め方"}
	listingWords   = []string{"選", "ランキング", "トップ", "まとめ"}
	appealWords    = []string{"完全", "徹底", "保存版", "必見", "最新"}
	explainWords   = []string{"解説", "説明", "紹介", "わかる"}
	metaAppeals    = []string{"徹底", "完全", "詳しく", "初心者"}
	marketingWords = []string{"チェック", "今すぐ", "必見", "おすすめ"}
)

// SeoScorer はタイトル・本文・メタディスクリプションから品質スコアを算出する
// 純粋関数として振る舞い、どんな入力でも 0〜100 のスコアを返す
type SeoScorer struct {
	now func() time.Time
}

func NewSeoScorer() *SeoScorer {
	return &SeoScorer{now: time.Now}
}

// Analyze はコンテンツを解析して SeoMetrics を返す
func (s *SeoScorer) Analyze(title, content, metaDescription string, targetKeywords []string) model.SeoMetrics {
	profile := analyzeContent(content)
	keywords := extractKeywords(profile.text, targetKeywords)

	titleScore := scoreTitle(title)
	metaScore := scoreMetaDescription(metaDescription)
	structureScore := scoreStructure(profile)
	keywordScore := scoreKeywords(keywords)

	overall := int(math.Round(
		float64(titleScore)*weightTitle +
			float64(metaScore)*weightMeta +
			float64(structureScore)*weightStructure +
			float64(keywordScore)*weightKeyword,
	))

	return model.SeoMetrics{
		TitleLength:           runeLen(title),
		MetaDescriptionLength: runeLen(metaDescription),
		ContentLength:         runeLen(content),
		WordCount:             profile.wordCount,
		HeadingCount:          profile.headings,
		Keywords:              keywords,

		TitleScore:               titleScore,
		MetaDescriptionScore:     metaScore,
		ContentStructureScore:    structureScore,
		KeywordOptimizationScore: keywordScore,
		OverallScore:             clampScore(overall),

		Recommendations: buildRecommendations(title, metaDescription, profile,
			titleScore, metaScore, structureScore, keywordScore),
		CalculatedAt: s.now(),
	}
}

// contentProfile は本文の構造情報
type contentProfile struct {
	text       string
	headings   map[string]int
	paragraphs int
	wordCount  int
}

// analyzeContent は HTML / Markdown いずれの本文も同じプロファイルに落とす
func analyzeContent(content string) contentProfile {
	profile := contentProfile{
		headings: map[string]int{"h1": 0, "h2": 0, "h3": 0, "h4": 0, "h5": 0, "h6": 0},
	}
	if strings.TrimSpace(content) == "" {
		return profile
	}

	if strings.Contains(content, "<") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(content)); err == nil {
			for i := 1; i <= 6; i++ {
				tag := "h" + string(rune('0'+i))
				profile.headings[tag] = doc.Find(tag).Length()
			}
			profile.paragraphs = doc.Find("p").Length()
			profile.text = doc.Text()
		}
	}

	if profile.text == "" {
		// Markdown / プレーンテキストとして走査する
		var textLines []string
		for _, line := range strings.Split(content, "\n") {
			level := headingLevel(line)
			if level > 0 {
				tag := "h" + string(rune('0'+level))
				profile.headings[tag]++
				continue
			}
			textLines = append(textLines, line)
		}
		profile.text = strings.Join(textLines, "\n")
		profile.paragraphs = len(splitParagraphs(profile.text))
	} else if profile.paragraphs == 0 {
		profile.paragraphs = len(splitParagraphs(profile.text))
	}

	profile.wordCount = countWords(profile.text)
	return profile
}

// headingLevel は Markdown 見出し行のレベル（1〜6）を返す。見出しでなければ 0
func headingLevel(line string) int {
	trimmed := strings.TrimSpace(line)
	level := 0
	for _, r := range trimmed {
		if r != '#' {
			break
		}
		level++
	}
	if level < 1 || level > 6 {
		return 0
	}
	rest := trimmed[level:]
	if !strings.HasPrefix(rest, " ") && !strings.HasPrefix(rest, "\t") {
		return 0
	}
	return level
}

// countWords は語数を数える
// 日本語は空白で区切られないため、CJK を含む場合は文字数を採用する
func countWords(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	if containsCJK(trimmed) {
		count := 0
		for _, r := range trimmed {
			if !unicode.IsSpace(r) {
				count++
			}
		}
		return count
	}
	return len(strings.Fields(trimmed))
}

func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana) {
			return true
		}
	}
	return false
}

// extractKeywords はキーワード一覧を構築する
// 指定されたターゲットキーワードは頻度ゼロでも先頭に必ず含める
func extractKeywords(text string, targetKeywords []string) []model.KeywordStat {
	tokens := tokenize(text)
	totalTokens := len(tokens)

	freq := make(map[string]int, totalTokens)
	for _, tok := range tokens {
		freq[tok]++
	}

	lowerText := strings.ToLower(text)
	isTarget := make(map[string]bool, len(targetKeywords))

	keywords := make([]model.KeywordStat, 0, maxKeywords)
	for _, kw := range targetKeywords {
		term := strings.ToLower(strings.TrimSpace(kw))
		if term == "" || isTarget[term] {
			continue
		}
		isTarget[term] = true

		count := freq[term]
		if count == 0 {
			// トークン化で拾えない語（日本語の複合語など）は部分一致で数える
			count = strings.Count(lowerText, term)
		}
		keywords = append(keywords, model.KeywordStat{
			Term:      term,
			Frequency: count,
			Density:   density(count, totalTokens),
		})
		if len(keywords) >= maxKeywords {
			return keywords
		}
	}

	// 残り枠は頻度上位の非ターゲット語（3 文字以上）で埋める
	type termFreq struct {
		term string
		n    int
	}
	remaining := make([]termFreq, 0, len(freq))
	for term, n := range freq {
		if isTarget[term] || runeLen(term) < 3 {
			continue
		}
		remaining = append(remaining, termFreq{term: term, n: n})
	}
	sort.Slice(remaining, func(i, j int) bool {
		if remaining[i].n != remaining[j].n {
			return remaining[i].n > remaining[j].n
		}
		return remaining[i].term < remaining[j].term
	})

	for i, tf := range remaining {
		if i >= maxNonTargetTerms || len(keywords) >= maxKeywords {
			break
		}
		keywords = append(keywords, model.KeywordStat{
			Term:      tf.term,
			Frequency: tf.n,
			Density:   density(tf.n, totalTokens),
		})
	}
	return keywords
}

// tokenize は英数字・文字の連続を小文字トークンに分解する（2 文字未満は捨てる）
func tokenize(text string) []string {
	var tokens []string
	var current []rune
	flush := func() {
		if len(current) >= 2 {
			tokens = append(tokens, strings.ToLower(string(current)))
		}
		current = current[:0]
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current = append(current, r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func density(freq, totalTokens int) float64 {
	if totalTokens == 0 || freq <= 0 {
		return 0
	}
	return math.Round(float64(freq)/float64(totalTokens)*100*100) / 100
}

func scoreTitle(title string) int {
	l := runeLen(title)
	if l == 0 {
		return 0
	}

	score := 0
	switch {
	case l >= 30 && l <= 60:
		score += 40
	case l >= 20 && l <= 80:
		score += 25
	default:
		score += 10
	}

	if containsDigit(title) {
		score += 15
	}
	if containsAny(title, howToWords) {
		score += 10
	}
	if containsAny(title, listingWords) {
		score += 10
	}
	if containsAny(title, appealWords) {
		score += 10
	}
	if strings.ContainsAny(title, "?？") {
		score += 10
	}
	if strings.ContainsAny(title, "!！") {
		score += 5
	}
	if l > 100 {
		score -= 20
	}
	if strings.Contains(title, "...") || strings.Contains(title, "…") {
		score -= 10
	}
	return clampScore(score)
}

func scoreMetaDescription(meta string) int {
	l := runeLen(meta)
	if l == 0 {
		return 0
	}

	score := 0
	switch {
	case l >= 120 && l <= 160:
		score += 50
	case l >= 100 && l <= 180:
		score += 35
	case l >= 80 && l <= 200:
		score += 20
	default:
		score += 5
	}

	if containsAny(meta, explainWords) {
		score += 15
	}
	if containsAny(meta, metaAppeals) {
		score += 10
	}
	if containsAny(meta, marketingWords) {
		score += 10
	}
	if countSentences(meta) >= 2 {
		score += 10
	}
	return clampScore(score)
}

func scoreStructure(profile contentProfile) int {
	if profile.wordCount == 0 {
		return 0
	}

	score := 0
	wc := profile.wordCount
	switch {
	case wc >= 1000 && wc <= 3000:
		score += 30
	case wc >= 500 && wc <= 5000:
		score += 20
	case wc >= 300:
		score += 10
	}

	total := totalHeadings(profile.headings)
	switch {
	case total >= 3 && total <= 10:
		score += 25
	case total >= 1 && total <= 15:
		score += 15
	}

	switch profile.headings["h1"] {
	case 1:
		score += 15
	case 0:
		score += 5
	}

	h2 := profile.headings["h2"]
	switch {
	case h2 >= 2 && h2 <= 8:
		score += 15
	case h2 >= 1:
		score += 10
	}

	switch {
	case profile.paragraphs >= 3 && profile.paragraphs <= 20:
		score += 15
	case profile.paragraphs >= 1:
		score += 10
	}
	return clampScore(score)
}

func scoreKeywords(keywords []model.KeywordStat) int {
	if len(keywords) == 0 {
		return 0
	}

	score := 0
	limit := scoredKeywords
	if len(keywords) < limit {
		limit = len(keywords)
	}
	for i := 0; i < limit; i++ {
		ideal := secondaryIdealDensity
		if i == 0 {
			ideal = primaryIdealDensity
		}
		d := keywords[i].Density
		switch {
		case d >= ideal*0.5 && d <= ideal*2.0:
			score += 15
		case d >= ideal*0.25 && d <= ideal*3.0:
			score += 10
		case d > 0:
			score += 5
		}
	}

	// 多様性ボーナス
	switch {
	case len(keywords) >= 8:
		score += 20
	case len(keywords) >= 5:
		score += 15
	case len(keywords) >= 3:
		score += 10
	}
	return clampScore(score)
}

// buildRecommendations は閾値（50 点）未満のサブスコアごとに改善提案を追加する
// 提案が空であれば不足項目はない
func buildRecommendations(title, meta string, profile contentProfile, titleScore, metaScore, structureScore, keywordScore int) []string {
	recs := make([]string, 0)

	if titleScore < 50 {
		l := runeLen(title)
		if l < 30 {
			recs = append(recs, "タイトルが短すぎます。30〜60文字を目安にしてください")
		}
		if l > 60 {
			recs = append(recs, "タイトルが長すぎます。30〜60文字を目安にしてください")
		}
		if !containsDigit(title) {
			recs = append(recs, "タイトルに数字を入れるとクリック率の向上が期待できます")
		}
	}

	if metaScore < 50 {
		l := runeLen(meta)
		switch {
		case l == 0:
			recs = append(recs, "メタディスクリプションが設定されていません")
		case l < 120:
			recs = append(recs, "メタディスクリプションが短すぎます。120〜160文字を目安にしてください")
		case l > 160:
			recs = append(recs, "メタディスクリプションが長すぎます。120〜160文字を目安にしてください")
		}
	}

	if structureScore < 50 {
		if profile.wordCount < 1000 {
			recs = append(recs, "本文のボリュームが不足しています。1000〜3000文字を目安にしてください")
		}
		if totalHeadings(profile.headings) < 3 {
			recs = append(recs, "見出しを追加して本文を構造化してください")
		}
		if profile.headings["h1"] == 0 {
			recs = append(recs, "H1見出しがありません。記事タイトルをH1として設定してください")
		}
	}

	if keywordScore < 50 {
		recs = append(recs, "キーワードの出現頻度が不足しています。主要キーワードを本文に盛り込んでください")
	}
	return recs
}

func totalHeadings(headings map[string]int) int {
	total := 0
	for _, n := range headings {
		total += n
	}
	return total
}

func countSentences(s string) int {
	count := 0
	for _, r := range s {
		if r == '。' || r == '.' || r == '！' || r == '!' {
			count++
		}
	}
	return count
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func runeLen(s string) int {
	return len([]rune(s))
}
