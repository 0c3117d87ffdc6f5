package implementation

import (
	"context"

	"nutriplan-llm-be/internal/model"
	"nutriplan-llm-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ManualRepositoryImpl struct {
	db *gorm.DB
}

func NewManualRepository(db *gorm.DB) contract.ManualRepository {
	return &ManualRepositoryImpl{db: db}
}

func (r *ManualRepositoryImpl) VectorSearch(ctx context.Context, embedding []float32, poolSize int) ([]contract.ScoredManualChunk, error) {
	if poolSize <= 0 {
		poolSize = 50
	}

	queryVector := pgvector.NewVector(embedding)

	var results []contract.ScoredManualChunk
	err := r.db.WithContext(ctx).
		Table("manual_chunks").
		Select("manual_chunks.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("deleted_at IS NULL").
		Order("similarity DESC").
		Limit(poolSize).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ManualRepositoryImpl) FindAll(ctx context.Context) ([]model.ManualChunk, error) {
	var chunks []model.ManualChunk
	if err := r.db.WithContext(ctx).Find(&chunks).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *ManualRepositoryImpl) Save(ctx context.Context, chunk *model.ManualChunk) error {
	return r.db.WithContext(ctx).Save(chunk).Error
}
