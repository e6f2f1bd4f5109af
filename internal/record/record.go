// Package record defines the line-delimited records passed between
// pipeline stages. Each stage consumes one record type and produces the
// next; records are never mutated after being written.
package record

// Heading is a single document heading with its level (1-6).
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Image is an image reference found on a crawled page.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// Raw is a page as produced by the crawler, before any cleaning.
type Raw struct {
	URL             string     `json:"url"`
	PageType        string     `json:"page_type"`
	Title           string     `json:"title"`
	MetaDescription string     `json:"meta_description"`
	Headings        []Heading  `json:"headings"`
	Paragraphs      []string   `json:"paragraphs"`
	Images          []Image    `json:"images"`
	Lists           [][]string `json:"lists"`
	Timestamp       string     `json:"timestamp"`
}

// CleanDocument is a deduplicated document with boilerplate removed and
// whitespace normalized.
type CleanDocument struct {
	URL      string `json:"url"`
	PageType string `json:"page_type"`
	Text     string `json:"text"`
}

// Block is a paragraph-level slice of a clean document. BlockIndex is
// zero-based and contiguous within one source document.
type Block struct {
	SourceURL  string `json:"source_url"`
	PageType   string `json:"page_type"`
	BlockIndex int    `json:"block_index"`
	BlockText  string `json:"block_text"`
	BlockLen   int    `json:"block_length"`
	WordCount  int    `json:"word_count"`
}

// TaggedBlock is a block with its rule-assigned role and confidence.
type TaggedBlock struct {
	Block
	Role       string  `json:"role"`
	Confidence float64 `json:"confidence"`
}

// QAPair is one generated question-answer pair, stamped with the page it
// was grounded on.
type QAPair struct {
	SourceURL string `json:"source_url"`
	PageType  string `json:"page_type"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}
