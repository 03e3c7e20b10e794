package store

import "unicode/utf8"

// PreviewLength is the number of characters kept in a citation preview.
const PreviewLength = 200

// Passage is one ranked retrieval result with its provenance.
type Passage struct {
	Content        string  `json:"content"`
	SourceDocument string  `json:"source"`
	PageNumber     int     `json:"page"`
	Rank           int     `json:"rank"` // 1-based, in retriever order
	Score          float32 `json:"score,omitempty"`
}

// Citation is the client-facing view of a Passage.
type Citation struct {
	SourceDocument string `json:"source"`
	PageNumber     int    `json:"page"`
	Rank           int    `json:"rank"`
	Preview        string `json:"preview"`
}

// Preview returns the first PreviewLength characters of content,
// with "…" appended only when something was cut off.
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= PreviewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:PreviewLength]) + "…"
}

// BuildCitations maps passages 1:1 to citations, keeping rank and order.
func BuildCitations(passages []Passage) []Citation {
	citations := make([]Citation, 0, len(passages))
	for _, p := range passages {
		citations = append(citations, Citation{
			SourceDocument: p.SourceDocument,
			PageNumber:     p.PageNumber,
			Rank:           p.Rank,
			Preview:        Preview(p.Content),
		})
	}
	return citations
}
