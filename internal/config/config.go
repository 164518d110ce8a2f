package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"ai-tutoring-be/internal/constant"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Ask      AskConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	JWTSecret    string
}

type AIConfig struct {
	EmbeddingProvider    string // "gemini" or "ollama"
	OllamaBaseURL        string
	OllamaEmbeddingModel string
	LLMProvider          string // "gemini" or "ollama"
	LLMModel             string // default model when the fallback list is empty
	// FallbackModels is the ordered model-identity chain for answer
	// generation, primary first.
	FallbackModels []string
}

type AskConfig struct {
	PerQueryTopK      int
	FinalTopK         int
	MaxContextChars   int
	BaseRetryDelay    time.Duration
	ExpansionTimeout  time.Duration
	RetrievalTimeout  time.Duration
	GenerationTimeout time.Duration
	AnswerCacheTTL    time.Duration
	EmbedTopic        string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			JWTSecret:    getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider:    getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:        getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:          getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:             getEnv("LLM_MODEL", "gemini-1.5-flash"),
			FallbackModels:       getEnvAsList("LLM_FALLBACK_MODELS", "gemini-1.5-pro,gemini-1.5-flash,gemini-1.5-flash-8b"),
		},
		Ask: AskConfig{
			PerQueryTopK:      getEnvAsInt("ASK_PER_QUERY_TOP_K", 3),
			FinalTopK:         getEnvAsInt("ASK_FINAL_TOP_K", 5),
			MaxContextChars:   getEnvAsInt("ASK_MAX_CONTEXT_CHARS", 4000),
			BaseRetryDelay:    getEnvAsDuration("ASK_BASE_RETRY_DELAY", 500*time.Millisecond),
			ExpansionTimeout:  getEnvAsDuration("ASK_EXPANSION_TIMEOUT", 3*time.Second),
			RetrievalTimeout:  getEnvAsDuration("ASK_RETRIEVAL_TIMEOUT", 5*time.Second),
			GenerationTimeout: getEnvAsDuration("ASK_GENERATION_TIMEOUT", 20*time.Second),
			AnswerCacheTTL:    getEnvAsDuration("ASK_ANSWER_CACHE_TTL", 15*time.Minute),
			EmbedTopic:        getEnv("EMBED_CHUNK_TOPIC_NAME", constant.EmbedChunkTopic),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
