package food

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"nutriplan-llm-be/internal/constant"
	"nutriplan-llm-be/internal/model"
	"nutriplan-llm-be/internal/repository/contract"
	"nutriplan-llm-be/pkg/embedding"
	"nutriplan-llm-be/pkg/rerank"
	"nutriplan-llm-be/pkg/store"
)

// SearchPath records which retrieval strategy produced a result set.
type SearchPath string

const (
	PathFilterOnly    SearchPath = "filter_only"
	PathVector        SearchPath = "vector"
	PathRegexFallback SearchPath = "regex_fallback"
)

// Result is the outcome of one hybrid search.
type Result struct {
	Documents []store.Document
	Path      SearchPath
}

// candidatePoolFactor sizes the vector candidate pool relative to the
// requested limit.
const candidatePoolFactor = 20

// Pipeline runs hybrid retrieval over the food database: structured
// filtering, vector search with pre-filtering, a regex fallback when the
// filter is not indexed, and cross-encoder reranking on top.
type Pipeline struct {
	repo              contract.FoodRepository
	embeddingProvider embedding.EmbeddingProvider
	reranker          rerank.Reranker
	logger            *log.Logger
}

func NewPipeline(repo contract.FoodRepository, embeddingProvider embedding.EmbeddingProvider, reranker rerank.Reranker, logger *log.Logger) *Pipeline {
	return &Pipeline{
		repo:              repo,
		embeddingProvider: embeddingProvider,
		reranker:          reranker,
		logger:            logger,
	}
}

// Search executes the hybrid flow. A blank semantic query with filters is a
// pure structured lookup and never touches the embedding provider.
func (p *Pipeline) Search(ctx context.Context, params store.SearchParameters) (Result, error) {
	query := strings.TrimSpace(params.SemanticQuery)
	limit := params.Limit
	if limit <= 0 {
		limit = 5
	}

	if query == "" && len(params.Filters) > 0 {
		p.logger.Printf("[FoodRAG] Filter-only search: %v", params.Filters)
		foods, err := p.repo.Find(ctx, params.Filters, limit)
		if err != nil {
			return Result{}, fmt.Errorf("filter search: %w", err)
		}
		return Result{Documents: p.toDocuments(foods, nil), Path: PathFilterOnly}, nil
	}

	embeddingResp, err := p.embeddingProvider.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		return Result{}, fmt.Errorf("embed query: %w", err)
	}
	queryVector := embeddingResp.Embedding.Values

	path := PathVector
	var documents []store.Document

	scored, err := p.repo.VectorSearch(ctx, queryVector, limit*candidatePoolFactor, params.Filters)
	switch {
	case errors.Is(err, contract.ErrFilterNotIndexed):
		p.logger.Printf("[FoodRAG] Vector search rejected filter %v, falling back to text match", params.Filters)
		foods, fbErr := p.fallbackSearch(ctx, query, params.Filters, limit)
		if fbErr != nil {
			return Result{}, fmt.Errorf("fallback search: %w", fbErr)
		}
		documents = p.toDocuments(foods, nil)
		path = PathRegexFallback
	case err != nil:
		return Result{}, fmt.Errorf("vector search: %w", err)
	default:
		if len(scored) > limit {
			scored = scored[:limit]
		}
		foods := make([]model.Food, len(scored))
		scores := make([]float64, len(scored))
		for i, s := range scored {
			foods[i] = s.Food
			scores[i] = s.Similarity
		}
		documents = p.toDocuments(foods, scores)
	}

	if query != "" && len(documents) > 0 {
		documents = p.rerankDocuments(ctx, query, documents)
	}

	names := make([]string, len(documents))
	for i, doc := range documents {
		names[i] = doc.Metadata.Name
	}
	p.logger.Printf("[FoodRAG] Search %q -> %v (path=%s)", query, names, path)

	return Result{Documents: documents, Path: path}, nil
}

// fallbackSearch matches the stopword-stripped query against text content
// with a case-insensitive pattern, still honoring the structured filter.
func (p *Pipeline) fallbackSearch(ctx context.Context, query string, filters store.Filter, limit int) ([]model.Food, error) {
	if query == "" {
		return p.repo.Find(ctx, filters, limit)
	}
	return p.repo.FindRegex(ctx, filters, FallbackPattern(query), limit)
}

// FallbackPattern strips stopwords from the query so "meals with egg" still
// matches "Fried Egg". If every word is a stopword, the raw query is used.
func FallbackPattern(query string) string {
	words := strings.Fields(strings.TrimSpace(query))
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if !constant.FallbackStopwords[strings.ToLower(w)] {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return strings.TrimSpace(query)
	}
	return strings.Join(kept, " ")
}

// rerankDocuments reorders the set by cross-encoder score. The set is never
// shrunk; if scoring fails the store ordering stands.
func (p *Pipeline) rerankDocuments(ctx context.Context, query string, documents []store.Document) []store.Document {
	if p.reranker == nil {
		return documents
	}
	candidates := make([]string, len(documents))
	for i, doc := range documents {
		candidates[i] = doc.Content
	}

	scores, err := p.reranker.Score(ctx, query, candidates)
	if err != nil {
		p.logger.Printf("[FoodRAG] Rerank failed, keeping store order: %v", err)
		return documents
	}

	for i := range documents {
		score := scores[i]
		documents[i].Metadata.RerankScore = &score
	}
	sort.SliceStable(documents, func(i, j int) bool {
		return *documents[i].Metadata.RerankScore > *documents[j].Metadata.RerankScore
	})
	return documents
}

func (p *Pipeline) toDocuments(foods []model.Food, scores []float64) []store.Document {
	documents := make([]store.Document, 0, len(foods))
	for i, food := range foods {
		score := 0.0
		if scores != nil {
			score = scores[i]
		}
		documents = append(documents, synthesizeDocument(food, score))
	}
	return documents
}

// synthesizeDocument renders a food row into the human-readable block the
// generation model consumes as context.
func synthesizeDocument(food model.Food, score float64) store.Document {
	nutrition := decodeMap(food.Nutrition)
	properties := decodeMap(food.Property)
	categoryIDs := decodeIntSlice(food.Categories)

	nutritionText := fmt.Sprintf(`Calories: %s kcal
Protein: %sg
Carbs: %sg
Fat: %sg
Fiber: %sg`,
		fieldOrNA(nutrition, "calories"),
		fieldOrNA(nutrition, "proteins"),
		fieldOrNA(nutrition, "carbs"),
		fieldOrNA(nutrition, "fats"),
		fieldOrNA(nutrition, "fiber"),
	)

	var mealTypes []string
	if boolField(properties, "isBreakfast") {
		mealTypes = append(mealTypes, "Breakfast")
	}
	if boolField(properties, "isLunch") {
		mealTypes = append(mealTypes, "Lunch")
	}
	if boolField(properties, "isDinner") {
		mealTypes = append(mealTypes, "Dinner")
	}
	if boolField(properties, "isSnack") {
		mealTypes = append(mealTypes, "Snack")
	}
	mealTypesText := "N/A"
	if len(mealTypes) > 0 {
		mealTypesText = strings.Join(mealTypes, ", ")
	}

	categoryNames := make([]string, len(categoryIDs))
	for i, id := range categoryIDs {
		label, ok := constant.CategoryLabels[id]
		if !ok {
			label = fmt.Sprintf("Category %d", id)
		}
		categoryNames[i] = label
	}

	description := food.TextContent
	if description == "" {
		description = "No description available"
	}

	content := fmt.Sprintf(`Food Name: %s

Description:
%s

Nutritional Information:
%s

Meal Types: %s
Categories: %s
Cooking Time: %s minutes
Complexity: %s`,
		food.Name,
		description,
		nutritionText,
		mealTypesText,
		strings.Join(categoryNames, ", "),
		fieldOrNA(properties, "totalTime"),
		fieldOrNA(properties, "complexity"),
	)

	return store.Document{
		Content: strings.TrimSpace(content),
		Metadata: store.DocumentMetadata{
			Name:       food.Name,
			Score:      score,
			Categories: categoryNames,
			Nutrition:  nutrition,
			Properties: properties,
			Source:     "food_database",
		},
	}
}

func decodeMap(raw []byte) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{}
	}
	return m
}

func decodeIntSlice(raw []byte) []int {
	if len(raw) == 0 {
		return nil
	}
	var ids []int
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil
	}
	return ids
}

func fieldOrNA(m map[string]any, key string) string {
	value, ok := m[key]
	if !ok || value == nil {
		return "N/A"
	}
	switch v := value.(type) {
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func boolField(m map[string]any, key string) bool {
	b, ok := m[key].(bool)
	return ok && b
}
