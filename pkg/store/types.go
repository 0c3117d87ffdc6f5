package store

// Filter is a MongoDB-style filter mapping: dotted field names to either a
// bare value (equality) or an operator document like {"$gt": 30}.
// It is produced by the LLM query parser and consumed by the repositories.
type Filter map[string]any

// SearchParameters is the structured output of the search-query parser.
// Zero values are the fail-open defaults: no filters, no semantic query,
// limit 5.
type SearchParameters struct {
	Filters       Filter `json:"filters"`
	SemanticQuery string `json:"semantic_query"`
	Limit         int    `json:"limit"`
}

// DefaultSearchLimit is used whenever the parser cannot produce a positive limit.
const DefaultSearchLimit = 5

func DefaultSearchParameters() SearchParameters {
	return SearchParameters{
		Filters:       Filter{},
		SemanticQuery: "",
		Limit:         DefaultSearchLimit,
	}
}

// Document is one retrieved food entry with its synthesized content block.
type Document struct {
	Content  string
	Metadata DocumentMetadata
}

type DocumentMetadata struct {
	Name        string
	Score       float64
	RerankScore *float64
	Categories  []string
	Nutrition   map[string]any
	Properties  map[string]any
	Source      string
}

// ManualResult is one retrieved user-manual chunk.
type ManualResult struct {
	Text     string
	Metadata map[string]any
	Score    float64
}
