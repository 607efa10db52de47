package service

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"github.com/research-patron/post-analyze/pkg/model"
)

var (
	blankLineSplitter = regexp.MustCompile(`\n\s*\n`)
	excessBlankLines  = regexp.MustCompile(`\n{3,}`)
	emptyParagraph    = regexp.MustCompile(`<p>\s*</p>`)
)

// ContentReconstructor は Suggestion から記事本体を組み立てる
// 段落の見出しへの割り当ては位置ベース（内容の関連性は評価しない）
type ContentReconstructor struct {
	md goldmark.Markdown
}

func NewContentReconstructor() *ContentReconstructor {
	return &ContentReconstructor{
		// 段落内の単一改行は <br> に変換する
		md: goldmark.New(
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

// Materialize は本文を段落に分割し、見出しごとのセクションへ割り当てる
func (r *ContentReconstructor) Materialize(sugg model.Suggestion) model.StructuredContent {
	var mainContent, intro, conclusion string
	if sugg.FullArticle != nil {
		mainContent = sugg.FullArticle.MainContent
		intro = sugg.FullArticle.Introduction
		conclusion = sugg.FullArticle.Conclusion
	}

	content := model.StructuredContent{
		Introduction: r.renderBlock(intro),
		Conclusion:   r.renderBlock(conclusion),
	}

	headings := sugg.Structure.Headings
	if len(headings) == 0 {
		// 見出しがなければ分割せず、本文全体を 1 ブロックとして包む
		content.Sections = []model.Section{
			{HTML: r.renderParagraphs(splitParagraphs(mainContent))},
		}
		return content
	}

	// 見出し行はセクション側で出力するため、段落分割の前に取り除く
	paragraphs := splitParagraphs(stripHeadingLines(mainContent))

	// 切り上げ除算で連続した均等グループに分割し、出現順に割り当てる
	groupSize := (len(paragraphs) + len(headings) - 1) / len(headings)
	if groupSize < 1 {
		groupSize = 1
	}

	sections := make([]model.Section, 0, len(headings))
	for i := range headings {
		heading := headings[i]

		start := i * groupSize
		end := start + groupSize
		if start > len(paragraphs) {
			start = len(paragraphs)
		}
		if end > len(paragraphs) {
			end = len(paragraphs)
		}
		group := paragraphs[start:end]

		var body string
		if len(group) == 0 {
			// 段落が見出しより少ない場合は補完済みの説明文を本文にする
			body = r.renderBlock(heading.Description)
		} else {
			body = r.renderParagraphs(group)
		}

		sections = append(sections, model.Section{
			Heading: &heading,
			HTML:    fmt.Sprintf("<h%d>%s</h%d>\n%s", heading.Level, heading.Text, heading.Level, body),
		})
	}
	content.Sections = sections
	return content
}

// Flatten は各ブロックを連結して最終 HTML を生成する
func (r *ContentReconstructor) Flatten(content model.StructuredContent) string {
	blocks := make([]string, 0, len(content.Sections)+2)
	if content.Introduction != "" {
		blocks = append(blocks, content.Introduction)
	}
	for _, sec := range content.Sections {
		if sec.HTML != "" {
			blocks = append(blocks, sec.HTML)
		}
	}
	if content.Conclusion != "" {
		blocks = append(blocks, content.Conclusion)
	}

	joined := strings.Join(blocks, "\n\n")

	// 整形: 空段落の除去、過剰な空行の圧縮
	joined = emptyParagraph.ReplaceAllString(joined, "")
	joined = excessBlankLines.ReplaceAllString(joined, "\n\n")
	return strings.TrimSpace(joined)
}

// renderParagraphs は各段落を個別に HTML 化して連結する
func (r *ContentReconstructor) renderParagraphs(paragraphs []string) string {
	rendered := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		rendered = append(rendered, r.renderBlock(p))
	}
	return strings.Join(rendered, "\n")
}

// renderBlock は 1 段落を <p> でラップする
// Markdown 変換に失敗した場合は素のラップにフォールバックする
func (r *ContentReconstructor) renderBlock(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(trimmed), &buf); err != nil {
		zap.S().Debugf("段落の markdown 変換に失敗: %v", err)
		escaped := strings.ReplaceAll(trimmed, "\n", "<br>\n")
		return "<p>" + escaped + "</p>"
	}
	return strings.TrimSpace(buf.String())
}

// stripHeadingLines は H2〜H6 の見出し行を取り除く
func stripHeadingLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if _, _, ok := matchBodyHeading(line); ok {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// splitParagraphs は空行区切りで段落に分割する
func splitParagraphs(text string) []string {
	parts := blankLineSplitter.Split(text, -1)
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}
