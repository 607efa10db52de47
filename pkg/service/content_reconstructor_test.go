package service

import (
	"strings"
	"testing"

	"github.com/research-patron/post-analyze/pkg/model"
)

func suggestionWithBody(body string, headings ...model.HeadingNode) model.Suggestion {
	return model.Suggestion{
		Titles:    []string{"テスト記事"},
		Structure: model.ArticleStructure{Headings: headings},
		FullArticle: &model.FullArticle{
			Introduction: "導入の文章です。",
			MainContent:  body,
			Conclusion:   "まとめの文章です。",
		},
	}
}

func TestMaterializePositionalAllocation(t *testing.T) {
	t.Parallel()

	body := "段落その一\n\n段落その二\n\n段落その三\n\n段落その四"
	sugg := suggestionWithBody(body,
		model.HeadingNode{Level: 2, Text: "前半", Description: "前半の解説"},
		model.HeadingNode{Level: 2, Text: "後半", Description: "後半の解説"},
	)

	content := NewContentReconstructor().Materialize(sugg)

	if len(content.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(content.Sections))
	}

	first := content.Sections[0].HTML
	if !strings.Contains(first, "<h2>前半</h2>") {
		t.Fatalf("section[0] missing heading tag: %q", first)
	}
	if !strings.Contains(first, "段落その一") || !strings.Contains(first, "段落その二") {
		t.Fatalf("section[0] should hold paragraphs 1-2: %q", first)
	}
	if strings.Contains(first, "段落その三") {
		t.Fatalf("section[0] must not hold paragraph 3: %q", first)
	}

	second := content.Sections[1].HTML
	if !strings.Contains(second, "段落その三") || !strings.Contains(second, "段落その四") {
		t.Fatalf("section[1] should hold paragraphs 3-4: %q", second)
	}
}

func TestMaterializeMoreHeadingsThanParagraphs(t *testing.T) {
	t.Parallel()

	sugg := suggestionWithBody("唯一の段落",
		model.HeadingNode{Level: 2, Text: "一", Description: "一に関する詳細な解説"},
		model.HeadingNode{Level: 2, Text: "二", Description: "二に関する詳細な解説"},
		model.HeadingNode{Level: 3, Text: "三", Description: "三に関する詳細な解説"},
	)

	content := NewContentReconstructor().Materialize(sugg)

	if len(content.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(content.Sections))
	}
	if !strings.Contains(content.Sections[0].HTML, "唯一の段落") {
		t.Fatalf("section[0] should hold the only paragraph: %q", content.Sections[0].HTML)
	}
	// 空グループには補完済みの説明文が入る
	if !strings.Contains(content.Sections[1].HTML, "二に関する詳細な解説") {
		t.Fatalf("section[1] should fall back to description: %q", content.Sections[1].HTML)
	}
	if !strings.Contains(content.Sections[2].HTML, "<h3>三</h3>") {
		t.Fatalf("section[2] heading level mismatch: %q", content.Sections[2].HTML)
	}
}

func TestMaterializeWithoutHeadings(t *testing.T) {
	t.Parallel()

	sugg := suggestionWithBody("最初の段落\n\n次の段落")
	content := NewContentReconstructor().Materialize(sugg)

	if len(content.Sections) != 1 {
		t.Fatalf("expected a single unstructured block, got %d sections", len(content.Sections))
	}
	if content.Sections[0].Heading != nil {
		t.Fatal("unstructured block must not carry a heading")
	}
	html := content.Sections[0].HTML
	if !strings.Contains(html, "最初の段落") || !strings.Contains(html, "次の段落") {
		t.Fatalf("unstructured block missing paragraphs: %q", html)
	}
}

func TestMaterializeSkipsHeadingLines(t *testing.T) {
	t.Parallel()

	body := "## 章\n\n中身の段落"
	sugg := suggestionWithBody(body, model.HeadingNode{Level: 2, Text: "章", Description: "章の解説"})

	content := NewContentReconstructor().Materialize(sugg)

	html := content.Sections[0].HTML
	if strings.Count(html, "<h2>章</h2>") != 1 {
		t.Fatalf("heading should appear exactly once as a tag: %q", html)
	}
	if strings.Contains(html, "## 章") {
		t.Fatalf("raw heading line must not leak into the body: %q", html)
	}
	if !strings.Contains(html, "中身の段落") {
		t.Fatalf("section missing paragraph: %q", html)
	}
}

func TestFlattenCleanup(t *testing.T) {
	t.Parallel()

	content := model.StructuredContent{
		Introduction: "<p>導入</p>",
		Sections: []model.Section{
			{HTML: "<h2>章</h2>\n<p>本文</p>\n\n\n\n<p></p>"},
		},
		Conclusion: "<p>結び</p>",
	}

	html := NewContentReconstructor().Flatten(content)

	if strings.Contains(html, "<p></p>") {
		t.Fatalf("empty paragraphs must be removed: %q", html)
	}
	if strings.Contains(html, "\n\n\n") {
		t.Fatalf("excess blank lines must collapse: %q", html)
	}
	for _, want := range []string{"導入", "本文", "結び"} {
		if !strings.Contains(html, want) {
			t.Fatalf("flatten lost block %q: %q", want, html)
		}
	}
	if strings.Index(html, "導入") > strings.Index(html, "本文") {
		t.Fatal("introduction must precede body")
	}
}

func TestRenderBlockConvertsNewlines(t *testing.T) {
	t.Parallel()

	html := NewContentReconstructor().renderBlock("一行目\n二行目")
	if !strings.Contains(html, "<br") {
		t.Fatalf("single newline should become a line break: %q", html)
	}
}
