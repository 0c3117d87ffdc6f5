package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"nutriplan-llm-be/internal/config"
	"nutriplan-llm-be/internal/model"
	"nutriplan-llm-be/internal/repository/implementation"
	"nutriplan-llm-be/pkg/database"
	"nutriplan-llm-be/pkg/embedding"
	"nutriplan-llm-be/pkg/embedding/jina"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type seedFood struct {
	Name        string         `json:"name"`
	TextContent string         `json:"text_content"`
	Categories  []int          `json:"categories"`
	Nutrition   map[string]any `json:"nutrition"`
	Property    map[string]any `json:"property"`
}

type seedManualChunk struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

func main() {
	foodFile := flag.String("foods", "", "JSON file with food entries")
	manualFile := flag.String("manual", "", "JSON file with manual chunks")
	flag.Parse()

	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	var provider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "jina" {
		provider = jina.NewJinaProvider(cfg.Ai.JinaAPIKey, cfg.Ai.JinaModel)
	} else {
		provider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	}

	ctx := context.Background()

	if *foodFile == "" && *manualFile == "" {
		log.Println("Nothing to do: pass -foods and/or -manual")
		return
	}
	if *foodFile != "" {
		seedFoods(ctx, db, provider, *foodFile)
	}
	if *manualFile != "" {
		seedManual(ctx, db, provider, *manualFile)
	}
}

func seedFoods(ctx context.Context, db *gorm.DB, provider embedding.EmbeddingProvider, path string) {
	var entries []seedFood
	loadJSON(path, &entries)

	repo := implementation.NewFoodRepository(db)
	for i, entry := range entries {
		resp, err := provider.Generate(entry.TextContent, embedding.TaskRetrievalDocument)
		if err != nil {
			log.Printf("Warn: embed food %q failed: %v", entry.Name, err)
			continue
		}

		food := &model.Food{
			Name:        entry.Name,
			TextContent: entry.TextContent,
			Categories:  mustJSON(entry.Categories),
			Nutrition:   mustJSON(entry.Nutrition),
			Property:    mustJSON(entry.Property),
			Embedding:   pgvector.NewVector(resp.Embedding.Values),
		}
		if err := repo.Save(ctx, food); err != nil {
			log.Printf("Warn: save food %q failed: %v", entry.Name, err)
			continue
		}
		if (i+1)%50 == 0 {
			log.Printf("Seeded %d/%d foods", i+1, len(entries))
		}
	}
	log.Printf("✅ Seeded %d foods", len(entries))
}

func seedManual(ctx context.Context, db *gorm.DB, provider embedding.EmbeddingProvider, path string) {
	var chunks []seedManualChunk
	loadJSON(path, &chunks)

	repo := implementation.NewManualRepository(db)
	for _, chunk := range chunks {
		resp, err := provider.Generate(chunk.Text, embedding.TaskRetrievalDocument)
		if err != nil {
			log.Printf("Warn: embed manual chunk failed: %v", err)
			continue
		}

		m := &model.ManualChunk{
			Text:      chunk.Text,
			Metadata:  mustJSON(chunk.Metadata),
			Embedding: pgvector.NewVector(resp.Embedding.Values),
		}
		if err := repo.Save(ctx, m); err != nil {
			log.Printf("Warn: save manual chunk failed: %v", err)
		}
	}
	log.Printf("✅ Seeded %d manual chunks", len(chunks))
}

func loadJSON(path string, out any) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Error: read %s: %v", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Fatalf("Error: parse %s: %v", path, err)
	}
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		log.Fatalf("Error: marshal seed field: %v", err)
	}
	return data
}
