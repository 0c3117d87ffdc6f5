package contract

import (
	"context"
	"errors"

	"nutriplan-llm-be/internal/model"
	"nutriplan-llm-be/pkg/store"
)

// ErrFilterNotIndexed is returned by VectorSearch when the filter references
// fields that the vector index cannot pre-filter on. Callers treat it as a
// signal to fall back to text matching rather than as a failure.
var ErrFilterNotIndexed = errors.New("filter contains fields not covered by the vector index")

type ScoredFood struct {
	model.Food
	Similarity float64 `json:"similarity"`
}

type FoodRepository interface {
	// Find returns foods matching the filter, no scoring involved.
	Find(ctx context.Context, filter store.Filter, limit int) ([]model.Food, error)

	// FindRegex matches pattern case-insensitively against the text content
	// of foods that also satisfy the filter.
	FindRegex(ctx context.Context, filter store.Filter, pattern string, limit int) ([]model.Food, error)

	// VectorSearch retrieves up to poolSize nearest neighbours of the query
	// vector, restricted to rows matching the filter. Returns
	// ErrFilterNotIndexed when the filter cannot be applied as a pre-filter.
	VectorSearch(ctx context.Context, embedding []float32, poolSize int, filter store.Filter) ([]ScoredFood, error)

	Save(ctx context.Context, food *model.Food) error
}
