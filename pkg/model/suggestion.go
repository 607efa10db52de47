package model

// Suggestion は生成モデルの応答を解析した構造化結果
// パーサーが毎回新規に生成し、以降は変更しない
type Suggestion struct {
	Titles           []string          `json:"titles"`
	Categories       TaxonomySelection `json:"categories"`
	Tags             TaxonomySelection `json:"tags"`
	Structure        ArticleStructure  `json:"structure"`
	MetaDescriptions []string          `json:"metaDescriptions"`
	FullArticle      *FullArticle      `json:"fullArticle,omitempty"`
}

// TaxonomySelection はカテゴリー・タグの選択結果
// Existing は既存タクソノミーの ID、New は新規作成する名前
type TaxonomySelection struct {
	Existing []int    `json:"existing"`
	New      []string `json:"new"`
}

// ArticleStructure は記事の見出し構成
type ArticleStructure struct {
	Headings []HeadingNode `json:"headings"`
}

// HeadingNode は本文中の見出し（H2〜H6）
// Description はパーサーが必ず補完する（空のままにしない）
type HeadingNode struct {
	Level       int    `json:"level"`
	Text        string `json:"text"`
	Description string `json:"description"`
}

// FullArticle は本文全文（HTML 化前のテキスト）
type FullArticle struct {
	Introduction string `json:"introduction"`
	MainContent  string `json:"mainContent"`
	Conclusion   string `json:"conclusion"`
}

// PrimaryTitle は先頭のタイトル候補を返す
func (s *Suggestion) PrimaryTitle() string {
	if len(s.Titles) == 0 {
		return ""
	}
	return s.Titles[0]
}

// PrimaryMetaDescription は先頭のメタディスクリプション候補を返す
func (s *Suggestion) PrimaryMetaDescription() string {
	if len(s.MetaDescriptions) == 0 {
		return ""
	}
	return s.MetaDescriptions[0]
}
