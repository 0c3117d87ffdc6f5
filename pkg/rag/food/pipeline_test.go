package food

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"testing"

	"nutriplan-llm-be/internal/model"
	"nutriplan-llm-be/internal/repository/contract"
	"nutriplan-llm-be/pkg/embedding"
	"nutriplan-llm-be/pkg/store"
)

type fakeFoodRepo struct {
	findCalls        int
	findRegexCalls   int
	vectorCalls      int
	lastRegexPattern string
	lastPoolSize     int

	findResult   []model.Food
	regexResult  []model.Food
	vectorResult []contract.ScoredFood
	vectorErr    error
}

func (f *fakeFoodRepo) Find(ctx context.Context, filter store.Filter, limit int) ([]model.Food, error) {
	f.findCalls++
	return f.findResult, nil
}

func (f *fakeFoodRepo) FindRegex(ctx context.Context, filter store.Filter, pattern string, limit int) ([]model.Food, error) {
	f.findRegexCalls++
	f.lastRegexPattern = pattern
	return f.regexResult, nil
}

func (f *fakeFoodRepo) VectorSearch(ctx context.Context, emb []float32, poolSize int, filter store.Filter) ([]contract.ScoredFood, error) {
	f.vectorCalls++
	f.lastPoolSize = poolSize
	if f.vectorErr != nil {
		return nil, f.vectorErr
	}
	return f.vectorResult, nil
}

func (f *fakeFoodRepo) Save(ctx context.Context, food *model.Food) error {
	return nil
}

type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Generate(text, taskType string) (*embedding.EmbeddingResponse, error) {
	f.calls++
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

type fakeReranker struct {
	scores []float64
	err    error
	calls  int
}

func (f *fakeReranker) Score(ctx context.Context, query string, candidates []string) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.scores[:len(candidates)], nil
}

func testFood(name string) model.Food {
	nutrition, _ := json.Marshal(map[string]any{"calories": 300, "proteins": 20})
	return model.Food{Name: name, TextContent: name + " description", Nutrition: nutrition}
}

func quietLogger() *log.Logger {
	return log.New(os.Stdout, "", 0)
}

func TestSearchFilterOnlySkipsEmbedding(t *testing.T) {
	repo := &fakeFoodRepo{findResult: []model.Food{testFood("Oatmeal")}}
	embedder := &fakeEmbedder{}
	pipeline := NewPipeline(repo, embedder, nil, quietLogger())

	result, err := pipeline.Search(context.Background(), store.SearchParameters{
		Filters: store.Filter{"nutrition.calories": map[string]any{"$lt": 400.0}},
		Limit:   5,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if result.Path != PathFilterOnly {
		t.Errorf("Path = %s, want %s", result.Path, PathFilterOnly)
	}
	if embedder.calls != 0 {
		t.Errorf("embedder called %d times on filter-only path, want 0", embedder.calls)
	}
	if repo.findCalls != 1 {
		t.Errorf("Find called %d times, want 1", repo.findCalls)
	}
	if len(result.Documents) != 1 || result.Documents[0].Metadata.Name != "Oatmeal" {
		t.Errorf("unexpected documents: %+v", result.Documents)
	}
}

func TestSearchVectorPathPoolAndTruncation(t *testing.T) {
	scored := []contract.ScoredFood{
		{Food: testFood("A"), Similarity: 0.9},
		{Food: testFood("B"), Similarity: 0.8},
		{Food: testFood("C"), Similarity: 0.7},
	}
	repo := &fakeFoodRepo{vectorResult: scored}
	pipeline := NewPipeline(repo, &fakeEmbedder{}, nil, quietLogger())

	result, err := pipeline.Search(context.Background(), store.SearchParameters{
		SemanticQuery: "healthy",
		Limit:         2,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if result.Path != PathVector {
		t.Errorf("Path = %s, want %s", result.Path, PathVector)
	}
	if repo.lastPoolSize != 2*candidatePoolFactor {
		t.Errorf("pool size = %d, want %d", repo.lastPoolSize, 2*candidatePoolFactor)
	}
	if len(result.Documents) != 2 {
		t.Fatalf("got %d documents, want 2 (truncated to limit)", len(result.Documents))
	}
	if result.Documents[0].Metadata.Score != 0.9 {
		t.Errorf("store score not carried: %v", result.Documents[0].Metadata)
	}
}

func TestSearchRerankReordersWithoutDropping(t *testing.T) {
	scored := []contract.ScoredFood{
		{Food: testFood("First"), Similarity: 0.9},
		{Food: testFood("Second"), Similarity: 0.8},
		{Food: testFood("Third"), Similarity: 0.7},
	}
	repo := &fakeFoodRepo{vectorResult: scored}
	// Reranker prefers the store's last result
	reranker := &fakeReranker{scores: []float64{0.1, 0.5, 0.9}}
	pipeline := NewPipeline(repo, &fakeEmbedder{}, reranker, quietLogger())

	result, err := pipeline.Search(context.Background(), store.SearchParameters{
		SemanticQuery: "comfort food",
		Limit:         3,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(result.Documents) != 3 {
		t.Fatalf("rerank dropped documents: got %d, want 3", len(result.Documents))
	}
	wantOrder := []string{"Third", "Second", "First"}
	for i, want := range wantOrder {
		if result.Documents[i].Metadata.Name != want {
			t.Errorf("documents[%d] = %s, want %s", i, result.Documents[i].Metadata.Name, want)
		}
	}
	if result.Documents[0].Metadata.RerankScore == nil || *result.Documents[0].Metadata.RerankScore != 0.9 {
		t.Errorf("rerank score not attached: %+v", result.Documents[0].Metadata)
	}
}

func TestSearchRerankFailureKeepsStoreOrder(t *testing.T) {
	scored := []contract.ScoredFood{
		{Food: testFood("First"), Similarity: 0.9},
		{Food: testFood("Second"), Similarity: 0.8},
	}
	repo := &fakeFoodRepo{vectorResult: scored}
	reranker := &fakeReranker{err: errors.New("cross-encoder down")}
	pipeline := NewPipeline(repo, &fakeEmbedder{}, reranker, quietLogger())

	result, err := pipeline.Search(context.Background(), store.SearchParameters{
		SemanticQuery: "soup",
		Limit:         2,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.Documents[0].Metadata.Name != "First" || result.Documents[1].Metadata.Name != "Second" {
		t.Errorf("store order not preserved on rerank failure: %+v", result.Documents)
	}
}

func TestSearchFallsBackWhenFilterNotIndexed(t *testing.T) {
	repo := &fakeFoodRepo{
		vectorErr:   contract.ErrFilterNotIndexed,
		regexResult: []model.Food{testFood("Fried Egg")},
	}
	pipeline := NewPipeline(repo, &fakeEmbedder{}, nil, quietLogger())

	result, err := pipeline.Search(context.Background(), store.SearchParameters{
		Filters:       store.Filter{"property.isBreakfast": true},
		SemanticQuery: "meals with egg",
		Limit:         5,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if result.Path != PathRegexFallback {
		t.Errorf("Path = %s, want %s", result.Path, PathRegexFallback)
	}
	if repo.findRegexCalls != 1 {
		t.Fatalf("FindRegex called %d times, want 1", repo.findRegexCalls)
	}
	if repo.lastRegexPattern != "egg" {
		t.Errorf("fallback pattern = %q, want %q after stopword removal", repo.lastRegexPattern, "egg")
	}
	if len(result.Documents) != 1 || result.Documents[0].Metadata.Name != "Fried Egg" {
		t.Errorf("unexpected fallback documents: %+v", result.Documents)
	}
}

func TestSearchVectorHardErrorPropagates(t *testing.T) {
	repo := &fakeFoodRepo{vectorErr: errors.New("connection refused")}
	pipeline := NewPipeline(repo, &fakeEmbedder{}, nil, quietLogger())

	_, err := pipeline.Search(context.Background(), store.SearchParameters{
		SemanticQuery: "salad",
		Limit:         5,
	})
	if err == nil {
		t.Fatal("Search() should propagate non-index vector errors")
	}
	if repo.findRegexCalls != 0 {
		t.Errorf("regex fallback must not run on hard errors")
	}
}

func TestFallbackPattern(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"meals with egg", "egg"},
		{"show me chicken soup", "chicken soup"},
		{"the a an", "the a an"}, // all stopwords, keep raw query
		{"Beef Pho", "Beef Pho"},
		{"  suggest   salad  ", "salad"},
	}
	for _, tt := range tests {
		if got := FallbackPattern(tt.query); got != tt.want {
			t.Errorf("FallbackPattern(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestSynthesizeDocumentContent(t *testing.T) {
	nutrition, _ := json.Marshal(map[string]any{"calories": 365, "proteins": 13, "carbs": 32, "fats": 20, "fiber": 2})
	property, _ := json.Marshal(map[string]any{"isBreakfast": true, "isLunch": true, "totalTime": 15, "complexity": "easy"})
	categories, _ := json.Marshal([]int{6, 99})

	doc := synthesizeDocument(model.Food{
		Name:        "Egg Salad Sandwich",
		TextContent: "Classic sandwich with boiled eggs.",
		Nutrition:   nutrition,
		Property:    property,
		Categories:  categories,
	}, 0.42)

	wantFragments := []string{
		"Food Name: Egg Salad Sandwich",
		"Calories: 365 kcal",
		"Protein: 13g",
		"Meal Types: Breakfast, Lunch",
		"Dairy & Eggs",
		"Category 99", // unknown id keeps numeric label
		"Cooking Time: 15 minutes",
		"Complexity: easy",
	}
	for _, fragment := range wantFragments {
		if !strings.Contains(doc.Content, fragment) {
			t.Errorf("content missing %q:\n%s", fragment, doc.Content)
		}
	}
	if doc.Metadata.Score != 0.42 {
		t.Errorf("score = %v, want 0.42", doc.Metadata.Score)
	}
	if doc.Metadata.Source != "food_database" {
		t.Errorf("source = %q", doc.Metadata.Source)
	}
}
