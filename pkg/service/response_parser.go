package service

import (
	"strings"

	"go.uber.org/zap"

	"github.com/research-patron/post-analyze/pkg/model"
)

const (
	// placeholderTitle はタイトル行が見つからなかった場合の固定タイトル
	placeholderTitle = "タイトル未設定の記事"
	// degradedTitle は解析自体が失敗した場合のタイトル
	degradedTitle = "解析に失敗した生成結果"

	// introLimit は導入文として切り出す最大文字数（rune 単位）
	introLimit = 300
	// conclusionLimit はまとめとして切り出す最大文字数（rune 単位）
	conclusionLimit = 300

	metaLabel = "メタディスクリプション"
)

// categoryLabels / tagLabels はラベル行の表記ゆれ
var (
	categoryLabels = []string{"推奨カテゴリー", "推奨カテゴリ", "カテゴリー", "カテゴリ"}
	tagLabels      = []string{"推奨タグ", "タグ"}
	descLabels     = []string{"説明", "内容"}
)

// ResponseParser は生成モデルの生テキストを Suggestion に変換する
// どんな入力でも必ず構造的に正しい Suggestion を返す（エラーを返さない）
type ResponseParser struct{}

func NewResponseParser() *ResponseParser {
	return &ResponseParser{}
}

// Parse は生テキストを解析して Suggestion を返す
// 抽出中に panic が起きた場合も最小限の有効な Suggestion にフォールバックする
func (p *ResponseParser) Parse(raw string) (sugg model.Suggestion) {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Warnf("応答の解析中に予期しないエラー: %v（フォールバックします）", r)
			sugg = p.fallback(raw)
		}
	}()

	lines := strings.Split(raw, "\n")

	var (
		title      string
		titleFound bool
		meta       string
		metaFound  bool
		categories []string
		catsFound  bool
		tags       []string
		tagsFound  bool
		bodyStart  = -1
	)

	// 各フィールドは独立に「最初に一致した行」を採用する
	for i, line := range lines {
		if !titleFound {
			if t, ok := matchHeading(line, 1); ok {
				title = t
				titleFound = true
			}
		}
		if !metaFound {
			if v, ok := matchLabel(line, metaLabel); ok {
				meta = v
				metaFound = true
			}
		}
		if !catsFound {
			for _, label := range categoryLabels {
				if v, ok := matchLabel(line, label); ok {
					categories = splitList(v)
					catsFound = true
					break
				}
			}
		}
		if !tagsFound {
			for _, label := range tagLabels {
				if v, ok := matchLabel(line, label); ok {
					tags = splitList(v)
					tagsFound = true
					break
				}
			}
		}
		if bodyStart < 0 && isHorizontalRule(line) {
			bodyStart = i + 1
		}
	}

	// 区切り線がなければ入力全体をそのまま本文として扱う（意図した劣化挙動）
	body := raw
	if bodyStart >= 0 {
		body = strings.Join(lines[bodyStart:], "\n")
	}

	headings, intro, conclusion := p.scanBody(body)

	if !titleFound {
		title = placeholderTitle
	}

	sugg = model.Suggestion{
		Titles: []string{title},
		Categories: model.TaxonomySelection{
			Existing: []int{},
			New:      categories,
		},
		Tags: model.TaxonomySelection{
			Existing: []int{},
			New:      tags,
		},
		Structure:        model.ArticleStructure{Headings: headings},
		MetaDescriptions: []string{},
		FullArticle: &model.FullArticle{
			Introduction: intro,
			MainContent:  body,
			Conclusion:   conclusion,
		},
	}
	if metaFound {
		sugg.MetaDescriptions = []string{meta}
	}
	if sugg.Categories.New == nil {
		sugg.Categories.New = []string{}
	}
	if sugg.Tags.New == nil {
		sugg.Tags.New = []string{}
	}
	return sugg
}

// scanBody は本文から見出し一覧と導入・まとめを抽出する
func (p *ResponseParser) scanBody(body string) ([]model.HeadingNode, string, string) {
	lines := strings.Split(body, "\n")
	headings := make([]model.HeadingNode, 0)

	firstHeadingLine := -1
	lastHeadingLine := -1

	for i, line := range lines {
		level, text, ok := matchBodyHeading(line)
		if !ok {
			continue
		}
		if firstHeadingLine < 0 {
			firstHeadingLine = i
		}
		lastHeadingLine = i

		desc := explicitDescription(lines, i)
		if desc == "" {
			desc = text + "に関する詳細な解説"
		}
		headings = append(headings, model.HeadingNode{
			Level:       level,
			Text:        text,
			Description: desc,
		})
	}

	// 導入文: 最初の見出しより前のテキストの先頭部分
	introSource := body
	if firstHeadingLine >= 0 {
		introSource = strings.Join(lines[:firstHeadingLine], "\n")
	}
	intro := headRunes(strings.TrimSpace(introSource), introLimit)

	// まとめ: 最後のセクションの末尾部分
	conclusionSource := body
	if lastHeadingLine >= 0 {
		conclusionSource = strings.Join(lines[lastHeadingLine+1:], "\n")
	}
	conclusion := tailRunes(strings.TrimSpace(conclusionSource), conclusionLimit)

	return headings, intro, conclusion
}

// fallback は解析失敗時の最小限の有効な Suggestion
// 下流がそのまま扱えるよう、本文には元のテキストを保持する
func (p *ResponseParser) fallback(raw string) model.Suggestion {
	return model.Suggestion{
		Titles: []string{degradedTitle},
		Categories: model.TaxonomySelection{
			Existing: []int{},
			New:      []string{},
		},
		Tags: model.TaxonomySelection{
			Existing: []int{},
			New:      []string{},
		},
		Structure:        model.ArticleStructure{Headings: []model.HeadingNode{}},
		MetaDescriptions: []string{},
		FullArticle: &model.FullArticle{
			MainContent: raw,
		},
	}
}

// matchHeading は指定レベルの見出し行からテキストを取り出す
func matchHeading(line string, level int) (string, bool) {
	trimmed := strings.TrimSpace(line)
	marker := strings.Repeat("#", level)
	if !strings.HasPrefix(trimmed, marker) {
		return "", false
	}
	rest := trimmed[len(marker):]
	if strings.HasPrefix(rest, "#") {
		// より深い見出し
		return "", false
	}
	if !strings.HasPrefix(rest, " ") && !strings.HasPrefix(rest, "\t") {
		return "", false
	}
	text := strings.TrimSpace(rest)
	if text == "" {
		return "", false
	}
	return text, true
}

// matchBodyHeading は本文中の H2〜H6 見出し行を判定する
func matchBodyHeading(line string) (int, string, bool) {
	trimmed := strings.TrimSpace(line)
	level := 0
	for _, r := range trimmed {
		if r != '#' {
			break
		}
		level++
	}
	if level < 2 || level > 6 {
		return 0, "", false
	}
	text, ok := matchHeading(trimmed, level)
	if !ok {
		return 0, "", false
	}
	return level, text, true
}

// matchLabel は「ラベル: 値」形式の行から値を取り出す
// 強調記号（**）や箇条書き記号に寛容
func matchLabel(line, label string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimLeft(trimmed, "-・ \t")
	trimmed = strings.ReplaceAll(trimmed, "*", "")
	trimmed = strings.TrimSpace(trimmed)

	if !strings.HasPrefix(trimmed, label) {
		return "", false
	}
	rest := trimmed[len(label):]
	rest = strings.TrimSpace(rest)

	if strings.HasPrefix(rest, ":") {
		rest = rest[1:]
	} else if strings.HasPrefix(rest, "：") {
		rest = rest[len("："):]
	} else {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// explicitDescription は見出し直後の「説明:」行を拾う
func explicitDescription(lines []string, headingIdx int) string {
	for i := headingIdx + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		for _, label := range descLabels {
			if v, ok := matchLabel(trimmed, label); ok {
				return v
			}
		}
		return ""
	}
	return ""
}

// splitList はカンマ区切りリストを分解する（括弧は除去する）
func splitList(value string) []string {
	cleaned := strings.NewReplacer(
		"[", "", "]", "",
		"「", "", "」", "",
		"【", "", "】", "",
	).Replace(value)

	items := make([]string, 0)
	for _, part := range strings.FieldsFunc(cleaned, func(r rune) bool {
		return r == ',' || r == '、' || r == '，'
	}) {
		item := strings.TrimSpace(part)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// isHorizontalRule は水平線（---、***、___）を判定する
func isHorizontalRule(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 3 {
		return false
	}
	first := rune(trimmed[0])
	if first != '-' && first != '*' && first != '_' {
		return false
	}
	for _, r := range trimmed {
		if r != first {
			return false
		}
	}
	return true
}

func headRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func tailRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[len(runes)-limit:])
}
