package manual

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"reflect"
	"sort"
	"strings"

	"nutriplan-llm-be/internal/repository/contract"
	"nutriplan-llm-be/pkg/embedding"
	"nutriplan-llm-be/pkg/store"
)

const candidatePoolFactor = 10

// Pipeline answers how-to questions from the user manual via vector search,
// with a brute-force scoring pass when the index is unavailable.
type Pipeline struct {
	repo              contract.ManualRepository
	embeddingProvider embedding.EmbeddingProvider
	logger            *log.Logger
}

func NewPipeline(repo contract.ManualRepository, embeddingProvider embedding.EmbeddingProvider, logger *log.Logger) *Pipeline {
	return &Pipeline{
		repo:              repo,
		embeddingProvider: embeddingProvider,
		logger:            logger,
	}
}

// SemanticSearch returns the topK most relevant manual chunks. An optional
// metadata filter narrows the candidates after the vector pass. Any vector
// search failure degrades to scoring every matching chunk in memory.
func (p *Pipeline) SemanticSearch(ctx context.Context, query string, topK int, filter store.Filter) ([]store.ManualResult, error) {
	if topK <= 0 {
		topK = 3
	}

	embeddingResp, err := p.embeddingProvider.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	queryVector := embeddingResp.Embedding.Values

	scored, err := p.repo.VectorSearch(ctx, queryVector, topK*candidatePoolFactor)
	if err != nil {
		p.logger.Printf("[ManualRAG] Vector search failed: %v. Falling back to manual scoring", err)
		return p.bruteForceSearch(ctx, queryVector, topK, filter)
	}

	results := make([]store.ManualResult, 0, topK)
	for _, chunk := range scored {
		metadata := decodeMetadata(chunk.Metadata)
		if !matchesFilter(metadata, filter) {
			continue
		}
		results = append(results, store.ManualResult{
			Text:     chunk.Text,
			Metadata: metadata,
			Score:    chunk.Similarity,
		})
		if len(results) == topK {
			break
		}
	}

	previews := make([]string, len(results))
	for i, r := range results {
		previews[i] = preview(r.Text, 100)
	}
	p.logger.Printf("[ManualRAG] Search %q -> %v", query, previews)

	return results, nil
}

// bruteForceSearch dot-products the query vector against every stored chunk
// that matches the filter. Embeddings are normalized at write time, so the
// dot product is the cosine similarity.
func (p *Pipeline) bruteForceSearch(ctx context.Context, queryVector []float32, topK int, filter store.Filter) ([]store.ManualResult, error) {
	chunks, err := p.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load manual chunks: %w", err)
	}

	results := make([]store.ManualResult, 0, len(chunks))
	for _, chunk := range chunks {
		metadata := decodeMetadata(chunk.Metadata)
		if !matchesFilter(metadata, filter) {
			continue
		}
		results = append(results, store.ManualResult{
			Text:     chunk.Text,
			Metadata: metadata,
			Score:    dotProduct(queryVector, chunk.Embedding.Slice()),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// matchesFilter evaluates a metadata filter against one chunk. Values are
// either literals compared for equality or operator documents in the same
// shape the food filters use. Keys may carry a "metadata." prefix.
func matchesFilter(metadata map[string]any, filter store.Filter) bool {
	for field, expected := range filter {
		actual, present := metadata[strings.TrimPrefix(field, "metadata.")]
		if ops, isDoc := expected.(map[string]any); isDoc {
			if !present || !matchesOperators(actual, ops) {
				return false
			}
			continue
		}
		if !present || !valuesEqual(actual, expected) {
			return false
		}
	}
	return true
}

func matchesOperators(actual any, ops map[string]any) bool {
	for op, operand := range ops {
		switch op {
		case "$eq":
			if !valuesEqual(actual, operand) {
				return false
			}
		case "$ne":
			if valuesEqual(actual, operand) {
				return false
			}
		case "$in":
			items, ok := operand.([]any)
			if !ok {
				return false
			}
			found := false
			for _, item := range items {
				if valuesEqual(actual, item) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case "$gt", "$gte", "$lt", "$lte":
			a, aok := toFloat(actual)
			b, bok := toFloat(operand)
			if !aok || !bok {
				return false
			}
			switch op {
			case "$gt":
				if !(a > b) {
					return false
				}
			case "$gte":
				if !(a >= b) {
					return false
				}
			case "$lt":
				if !(a < b) {
					return false
				}
			case "$lte":
				if !(a <= b) {
					return false
				}
			}
		default:
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// FormatResults joins result texts into a context block for the generation
// model.
func FormatResults(results []store.ManualResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	return strings.Join(texts, "\n")
}

func dotProduct(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func decodeMetadata(raw []byte) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{}
	}
	return m
}

func preview(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n] + "..."
}
