package contract

import (
	"context"

	"nutriplan-llm-be/internal/model"
)

type ScoredManualChunk struct {
	model.ManualChunk
	Similarity float64 `json:"similarity"`
}

type ManualRepository interface {
	// VectorSearch retrieves up to poolSize nearest neighbours of the
	// query vector across all manual chunks.
	VectorSearch(ctx context.Context, embedding []float32, poolSize int) ([]ScoredManualChunk, error)

	// FindAll loads every chunk. Used by the brute-force scoring fallback
	// when the vector index is unavailable.
	FindAll(ctx context.Context) ([]model.ManualChunk, error)

	Save(ctx context.Context, chunk *model.ManualChunk) error
}
