package dto

import "nutriplan-llm-be/pkg/store"

type FoodSearchRequest struct {
	Filters       store.Filter `json:"filters,omitempty"`
	SemanticQuery string       `json:"semantic_query"`
	Limit         int          `json:"limit,omitempty"`
}

type FoodSearchResponse struct {
	Documents []FoodDocumentDTO `json:"documents"`
	Path      string            `json:"path"`
}

type FoodDocumentDTO struct {
	Content     string   `json:"content"`
	Name        string   `json:"name"`
	Score       float64  `json:"score"`
	RerankScore *float64 `json:"rerank_score,omitempty"`
	Categories  []string `json:"categories"`
	Source      string   `json:"source"`
}

type ManualSearchRequest struct {
	Query   string       `json:"query"`
	TopK    int          `json:"top_k,omitempty"`
	Filters store.Filter `json:"filters,omitempty"`
}

type ManualSearchResponse struct {
	Results []ManualResultDTO `json:"results"`
}

type ManualResultDTO struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
	Score    float64        `json:"score"`
}
