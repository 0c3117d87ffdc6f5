package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"nutriplan-llm-be/internal/dto"
	"nutriplan-llm-be/internal/model"
	"nutriplan-llm-be/internal/pkg/logger"
	"nutriplan-llm-be/internal/pkg/serverutils"
	"nutriplan-llm-be/internal/repository/contract"
	"nutriplan-llm-be/pkg/embedding"
	"nutriplan-llm-be/pkg/rag/food"
	"nutriplan-llm-be/pkg/rag/manual"
	"nutriplan-llm-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFoodRepo struct {
	foods  []model.Food
	scored []contract.ScoredFood
}

func (s *stubFoodRepo) Find(ctx context.Context, filter store.Filter, limit int) ([]model.Food, error) {
	return s.foods, nil
}

func (s *stubFoodRepo) FindRegex(ctx context.Context, filter store.Filter, pattern string, limit int) ([]model.Food, error) {
	return s.foods, nil
}

func (s *stubFoodRepo) VectorSearch(ctx context.Context, emb []float32, poolSize int, filter store.Filter) ([]contract.ScoredFood, error) {
	return s.scored, nil
}

func (s *stubFoodRepo) Save(ctx context.Context, f *model.Food) error { return nil }

type stubManualRepo struct {
	scored []contract.ScoredManualChunk
}

func (s *stubManualRepo) VectorSearch(ctx context.Context, emb []float32, poolSize int) ([]contract.ScoredManualChunk, error) {
	return s.scored, nil
}

func (s *stubManualRepo) FindAll(ctx context.Context) ([]model.ManualChunk, error) {
	return nil, nil
}

func (s *stubManualRepo) Save(ctx context.Context, chunk *model.ManualChunk) error { return nil }

type stubEmbedder struct{}

func (s *stubEmbedder) Generate(text, taskType string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2}},
	}, nil
}

func newTestApp(t *testing.T, foodRepo contract.FoodRepository, manualRepo contract.ManualRepository) *fiber.App {
	t.Helper()
	stdLog := log.New(os.Stdout, "", 0)
	sysLog := logger.NewZapLogger(filepath.Join(t.TempDir(), "app.log"), false)
	foodRAG := food.NewPipeline(foodRepo, &stubEmbedder{}, nil, stdLog)
	manualRAG := manual.NewPipeline(manualRepo, &stubEmbedder{}, stdLog)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware(sysLog))
	api := app.Group("/api")
	NewSearchController(foodRAG, manualRAG).RegisterRoutes(api)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) (*serverutils.Response, int) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed serverutils.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return &parsed, resp.StatusCode
}

func TestSearchFoodFilterOnly(t *testing.T) {
	repo := &stubFoodRepo{foods: []model.Food{{Name: "Grilled Chicken"}}}
	app := newTestApp(t, repo, &stubManualRepo{})

	parsed, code := postJSON(t, app, "/api/search/v1/food", dto.FoodSearchRequest{
		Filters: store.Filter{"nutrition.proteins": map[string]any{"$gt": 30}},
	})

	assert.Equal(t, fiber.StatusOK, code)

	data, err := json.Marshal(parsed.Data)
	require.NoError(t, err)
	var result dto.FoodSearchResponse
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, "filter_only", result.Path)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "Grilled Chicken", result.Documents[0].Name)
	assert.Contains(t, result.Documents[0].Content, "Grilled Chicken")
}

func TestSearchFoodRequiresQueryOrFilters(t *testing.T) {
	app := newTestApp(t, &stubFoodRepo{}, &stubManualRepo{})

	_, code := postJSON(t, app, "/api/search/v1/food", dto.FoodSearchRequest{})
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestSearchManual(t *testing.T) {
	repo := &stubManualRepo{scored: []contract.ScoredManualChunk{
		{
			ManualChunk: model.ManualChunk{
				Text:      "Open the planner page and tap a meal slot.",
				Embedding: pgvector.NewVector([]float32{0.1, 0.2}),
			},
			Similarity: 0.8,
		},
	}}
	app := newTestApp(t, &stubFoodRepo{}, repo)

	parsed, code := postJSON(t, app, "/api/search/v1/manual", dto.ManualSearchRequest{Query: "how do I swap a meal"})

	assert.Equal(t, fiber.StatusOK, code)

	data, err := json.Marshal(parsed.Data)
	require.NoError(t, err)
	var result dto.ManualSearchResponse
	require.NoError(t, json.Unmarshal(data, &result))

	require.Len(t, result.Results, 1)
	assert.Equal(t, "Open the planner page and tap a meal slot.", result.Results[0].Text)
	assert.InDelta(t, 0.8, result.Results[0].Score, 1e-9)
}

func TestSearchManualRequiresQuery(t *testing.T) {
	app := newTestApp(t, &stubFoodRepo{}, &stubManualRepo{})

	_, code := postJSON(t, app, "/api/search/v1/manual", dto.ManualSearchRequest{})
	assert.Equal(t, fiber.StatusBadRequest, code)
}
