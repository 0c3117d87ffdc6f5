package implementation

import (
	"context"
	"fmt"
	"strings"

	"nutriplan-llm-be/internal/model"
	"nutriplan-llm-be/internal/repository/contract"
	"nutriplan-llm-be/internal/repository/specification"
	"nutriplan-llm-be/pkg/store"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type FoodRepositoryImpl struct {
	db *gorm.DB
}

func NewFoodRepository(db *gorm.DB) contract.FoodRepository {
	return &FoodRepositoryImpl{db: db}
}

// indexedRoots lists filter roots that the pgvector HNSW partial index
// covers. Filters outside this set cannot pre-filter a vector search and
// trigger ErrFilterNotIndexed instead.
var indexedRoots = map[string]bool{
	"name":      true,
	"nutrition": true,
}

func filterIsIndexed(filter store.Filter) bool {
	for field := range filter {
		root, _, _ := strings.Cut(field, ".")
		if !indexedRoots[root] {
			return false
		}
	}
	return true
}

func (r *FoodRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *FoodRepositoryImpl) Find(ctx context.Context, filter store.Filter, limit int) ([]model.Food, error) {
	spec, err := specification.NewMongoFilter(filter)
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}

	var foods []model.Food
	query := r.applySpecifications(
		r.db.WithContext(ctx),
		spec,
		specification.OrderBy{Field: "name"},
		specification.Pagination{Limit: limit},
	)
	if err := query.Find(&foods).Error; err != nil {
		return nil, err
	}
	return foods, nil
}

func (r *FoodRepositoryImpl) FindRegex(ctx context.Context, filter store.Filter, pattern string, limit int) ([]model.Food, error) {
	spec, err := specification.NewMongoFilter(filter)
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}

	var foods []model.Food
	query := r.applySpecifications(
		r.db.WithContext(ctx),
		spec,
		specification.TextRegex{Column: "text_content", Pattern: pattern},
		specification.OrderBy{Field: "name"},
		specification.Pagination{Limit: limit},
	)
	if err := query.Find(&foods).Error; err != nil {
		return nil, err
	}
	return foods, nil
}

func (r *FoodRepositoryImpl) VectorSearch(ctx context.Context, embedding []float32, poolSize int, filter store.Filter) ([]contract.ScoredFood, error) {
	if poolSize <= 0 {
		poolSize = 100
	}
	if !filterIsIndexed(filter) {
		return nil, contract.ErrFilterNotIndexed
	}

	spec, err := specification.NewMongoFilter(filter)
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}

	queryVector := pgvector.NewVector(embedding)

	var results []contract.ScoredFood
	query := r.db.WithContext(ctx).
		Table("foods").
		Select("foods.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("deleted_at IS NULL")
	query = spec.Apply(query)
	err = query.
		Order("similarity DESC").
		Limit(poolSize).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *FoodRepositoryImpl) Save(ctx context.Context, food *model.Food) error {
	return r.db.WithContext(ctx).Save(food).Error
}
