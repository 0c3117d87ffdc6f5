package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Tools    ToolsConfig
	Dataset  DatasetConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	LLMProvider    string // "vllm", "openai" or "ollama"
	LLMBaseURL     string
	LLMModel       string
	LLMAPIKey      string
	LLMTemperature float64

	EmbeddingProvider string // "ollama" or "jina"
	OllamaBaseURL     string
	OllamaModel       string
	JinaAPIKey        string
	JinaModel         string

	RerankerURL string
}

type ToolsConfig struct {
	BackendURL        string
	WebSearchEndpoint string
}

type DatasetConfig struct {
	RefinementLog string
	GenerationLog string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8001"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:8001"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:    getEnv("LLM_PROVIDER", "vllm"),
			LLMBaseURL:     getEnv("LLM_BASE_URL", "http://localhost:8000/v1"),
			LLMModel:       getEnv("LLM_MODEL", "Qwen/Qwen2.5-7B-Instruct"),
			LLMAPIKey:      getEnv("LLM_API_KEY", "EMPTY"),
			LLMTemperature: getEnvAsFloat("LLM_TEMPERATURE", 0.7),

			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			JinaAPIKey:        getEnv("JINA_API_KEY", ""),
			JinaModel:         getEnv("JINA_EMBEDDING_MODEL", "jina-embeddings-v3"),

			RerankerURL: getEnv("RERANKER_URL", ""),
		},
		Tools: ToolsConfig{
			BackendURL:        getEnv("BACKEND_URL", "http://localhost:3000/api"),
			WebSearchEndpoint: getEnv("WEB_SEARCH_ENDPOINT", ""),
		},
		Dataset: DatasetConfig{
			RefinementLog: getEnv("DATASET_REFINEMENT_LOG", "dataset/dataset_refinement.jsonl"),
			GenerationLog: getEnv("DATASET_GENERATION_LOG", "dataset/dataset_generation.jsonl"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
