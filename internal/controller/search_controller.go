package controller

import (
	"nutriplan-llm-be/internal/dto"
	"nutriplan-llm-be/internal/pkg/serverutils"
	"nutriplan-llm-be/pkg/rag/food"
	"nutriplan-llm-be/pkg/rag/manual"
	"nutriplan-llm-be/pkg/store"

	"github.com/gofiber/fiber/v2"
)

type ISearchController interface {
	RegisterRoutes(r fiber.Router)
	SearchFood(ctx *fiber.Ctx) error
	SearchManual(ctx *fiber.Ctx) error
}

type searchController struct {
	foodRAG   *food.Pipeline
	manualRAG *manual.Pipeline
}

func NewSearchController(foodRAG *food.Pipeline, manualRAG *manual.Pipeline) ISearchController {
	return &searchController{
		foodRAG:   foodRAG,
		manualRAG: manualRAG,
	}
}

func (c *searchController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/search/v1")
	h.Post("food", c.SearchFood)
	h.Post("manual", c.SearchManual)
}

// SearchFood exposes the hybrid retrieval engine directly, bypassing the
// agent. Useful for the frontend's side search panel.
func (c *searchController) SearchFood(ctx *fiber.Ctx) error {
	var req dto.FoodSearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewBadRequestError("Invalid request body")
	}
	if req.SemanticQuery == "" && len(req.Filters) == 0 {
		return serverutils.NewBadRequestError("Either semantic_query or filters is required")
	}

	params := store.SearchParameters{
		Filters:       req.Filters,
		SemanticQuery: req.SemanticQuery,
		Limit:         req.Limit,
	}
	if params.Filters == nil {
		params.Filters = store.Filter{}
	}

	result, err := c.foodRAG.Search(ctx.Context(), params)
	if err != nil {
		return err
	}

	documents := make([]dto.FoodDocumentDTO, len(result.Documents))
	for i, doc := range result.Documents {
		documents[i] = dto.FoodDocumentDTO{
			Content:     doc.Content,
			Name:        doc.Metadata.Name,
			Score:       doc.Metadata.Score,
			RerankScore: doc.Metadata.RerankScore,
			Categories:  doc.Metadata.Categories,
			Source:      doc.Metadata.Source,
		}
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search food", dto.FoodSearchResponse{
		Documents: documents,
		Path:      string(result.Path),
	}))
}

func (c *searchController) SearchManual(ctx *fiber.Ctx) error {
	var req dto.ManualSearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewBadRequestError("Invalid request body")
	}
	if req.Query == "" {
		return serverutils.NewBadRequestError("Query is required")
	}

	results, err := c.manualRAG.SemanticSearch(ctx.Context(), req.Query, req.TopK, req.Filters)
	if err != nil {
		return err
	}

	dtos := make([]dto.ManualResultDTO, len(results))
	for i, r := range results {
		dtos[i] = dto.ManualResultDTO{
			Text:     r.Text,
			Metadata: r.Metadata,
			Score:    r.Score,
		}
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search manual", dto.ManualSearchResponse{Results: dtos}))
}
