package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Food struct {
	Id          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string          `gorm:"type:varchar(255);not null;index"`
	TextContent string          `gorm:"type:text"`
	Categories  datatypes.JSON  `gorm:"type:jsonb"` // array of category ids
	Nutrition   datatypes.JSON  `gorm:"type:jsonb"` // calories, proteins, carbs, fats, fiber
	Property    datatypes.JSON  `gorm:"type:jsonb"` // meal-type flags, totalTime, complexity
	Embedding   pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt  `gorm:"index"`
}

func (Food) TableName() string {
	return "foods"
}
