package manual

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"

	"nutriplan-llm-be/internal/model"
	"nutriplan-llm-be/internal/repository/contract"
	"nutriplan-llm-be/pkg/embedding"
	"nutriplan-llm-be/pkg/store"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type fakeManualRepo struct {
	vectorResult []contract.ScoredManualChunk
	vectorErr    error
	allChunks    []model.ManualChunk
	findAllCalls int
}

func (f *fakeManualRepo) VectorSearch(ctx context.Context, emb []float32, poolSize int) ([]contract.ScoredManualChunk, error) {
	if f.vectorErr != nil {
		return nil, f.vectorErr
	}
	return f.vectorResult, nil
}

func (f *fakeManualRepo) FindAll(ctx context.Context) ([]model.ManualChunk, error) {
	f.findAllCalls++
	return f.allChunks, nil
}

func (f *fakeManualRepo) Save(ctx context.Context, chunk *model.ManualChunk) error {
	return nil
}

type fixedEmbedder struct {
	values []float32
}

func (f *fixedEmbedder) Generate(text, taskType string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: f.values},
	}, nil
}

func TestSemanticSearchVectorPath(t *testing.T) {
	repo := &fakeManualRepo{
		vectorResult: []contract.ScoredManualChunk{
			{ManualChunk: model.ManualChunk{Text: "To swap a meal, open the planner."}, Similarity: 0.95},
			{ManualChunk: model.ManualChunk{Text: "Groceries sync automatically."}, Similarity: 0.70},
		},
	}
	pipeline := NewPipeline(repo, &fixedEmbedder{values: []float32{1, 0}}, log.New(os.Stdout, "", 0))

	results, err := pipeline.SemanticSearch(context.Background(), "how to swap a meal", 3, nil)
	if err != nil {
		t.Fatalf("SemanticSearch() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Score != 0.95 {
		t.Errorf("score = %v, want 0.95", results[0].Score)
	}
	if repo.findAllCalls != 0 {
		t.Errorf("brute-force path must not run when vector search succeeds")
	}
}

func TestSemanticSearchBruteForceFallback(t *testing.T) {
	// Any vector search failure triggers in-memory scoring over all chunks.
	repo := &fakeManualRepo{
		vectorErr: errors.New("index unavailable"),
		allChunks: []model.ManualChunk{
			{Text: "far", Embedding: pgvector.NewVector([]float32{0, 1})},
			{Text: "near", Embedding: pgvector.NewVector([]float32{1, 0})},
			{Text: "middle", Embedding: pgvector.NewVector([]float32{0.7, 0.7})},
		},
	}
	pipeline := NewPipeline(repo, &fixedEmbedder{values: []float32{1, 0}}, log.New(os.Stdout, "", 0))

	results, err := pipeline.SemanticSearch(context.Background(), "anything", 2, nil)
	if err != nil {
		t.Fatalf("SemanticSearch() error = %v", err)
	}
	if repo.findAllCalls != 1 {
		t.Fatalf("FindAll called %d times, want 1", repo.findAllCalls)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want topK=2", len(results))
	}
	if results[0].Text != "near" || results[1].Text != "middle" {
		t.Errorf("dot-product ordering wrong: %q then %q", results[0].Text, results[1].Text)
	}
}

func TestSemanticSearchMetadataFilter(t *testing.T) {
	// The filter narrows candidates after the vector pass without changing
	// their relative order.
	repo := &fakeManualRepo{
		vectorResult: []contract.ScoredManualChunk{
			{ManualChunk: model.ManualChunk{Text: "Planner intro", Metadata: datatypes.JSON(`{"section":"planner","page":1}`)}, Similarity: 0.9},
			{ManualChunk: model.ManualChunk{Text: "Pantry intro", Metadata: datatypes.JSON(`{"section":"pantry","page":2}`)}, Similarity: 0.8},
			{ManualChunk: model.ManualChunk{Text: "Planner details", Metadata: datatypes.JSON(`{"section":"planner","page":3}`)}, Similarity: 0.7},
		},
	}
	pipeline := NewPipeline(repo, &fixedEmbedder{values: []float32{1, 0}}, log.New(os.Stdout, "", 0))

	results, err := pipeline.SemanticSearch(context.Background(), "planner help", 3, store.Filter{"section": "planner"})
	if err != nil {
		t.Fatalf("SemanticSearch() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Text != "Planner intro" || results[1].Text != "Planner details" {
		t.Errorf("filtered results wrong: %q then %q", results[0].Text, results[1].Text)
	}

	results, err = pipeline.SemanticSearch(context.Background(), "planner help", 3, store.Filter{"page": map[string]any{"$gte": 2.0}})
	if err != nil {
		t.Fatalf("SemanticSearch() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 with page >= 2", len(results))
	}
	if results[0].Text != "Pantry intro" {
		t.Errorf("first result = %q, want %q", results[0].Text, "Pantry intro")
	}
}

func TestSemanticSearchFilterConstrainsFallback(t *testing.T) {
	repo := &fakeManualRepo{
		vectorErr: errors.New("index unavailable"),
		allChunks: []model.ManualChunk{
			{Text: "near planner", Embedding: pgvector.NewVector([]float32{1, 0}), Metadata: datatypes.JSON(`{"section":"planner"}`)},
			{Text: "near pantry", Embedding: pgvector.NewVector([]float32{0.9, 0}), Metadata: datatypes.JSON(`{"section":"pantry"}`)},
			{Text: "far planner", Embedding: pgvector.NewVector([]float32{0, 1}), Metadata: datatypes.JSON(`{"section":"planner"}`)},
		},
	}
	pipeline := NewPipeline(repo, &fixedEmbedder{values: []float32{1, 0}}, log.New(os.Stdout, "", 0))

	results, err := pipeline.SemanticSearch(context.Background(), "anything", 2, store.Filter{"section": "planner"})
	if err != nil {
		t.Fatalf("SemanticSearch() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Metadata["section"] != "planner" {
			t.Errorf("fallback returned chunk outside filter: %v", r.Metadata)
		}
	}
	if results[0].Text != "near planner" {
		t.Errorf("first result = %q, want %q", results[0].Text, "near planner")
	}
}

func TestFormatResults(t *testing.T) {
	text := FormatResults([]store.ManualResult{
		{Text: "Step one."},
		{Text: "Step two."},
	})
	if text != "Step one.\nStep two." {
		t.Errorf("FormatResults() = %q", text)
	}
}
