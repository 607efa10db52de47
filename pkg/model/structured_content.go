package model

// Section は見出しとその配下の本文ブロック
// Heading が nil の場合は見出しなしの地の文ブロック
type Section struct {
	Heading *HeadingNode `json:"heading,omitempty"`
	HTML    string       `json:"html"`
}

// StructuredContent は Suggestion から再構成した記事本体
type StructuredContent struct {
	Introduction string    `json:"introduction"`
	Sections     []Section `json:"sections"`
	Conclusion   string    `json:"conclusion"`
}
