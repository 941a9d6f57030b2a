package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI    string
	DBName      string
	Port        string
	GinMode     string
	CORSOrigins []string
	JWTSecret   string

	// Gemini
	GeminiAPIKey          string
	GenerativeModel       string
	GeminiTier            string
	GoogleEmbeddingsModel string
	EmbeddingDimensions   int

	// RAG pipeline
	ChunkSize      int
	ChunkOverlap   int
	EmbedBatchSize int
	RetrievalTopK  int

	// MongoDB Vector Search
	VectorSearchEnabled bool
	VectorIndexName     string

	// Chunk storage
	ChunkCompressionEnabled bool

	// Uploads
	MaxFileSize         int64
	FileStorageDir      string
	SyncProcessingLimit int64

	// Transcription service (Whisper-compatible)
	TranscriptionURL    string
	TranscriptionAPIKey string
	TranscriptionModel  string

	// Redis Configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// Documents stuck in "processing" longer than this many minutes are
	// failed by the reaper.
	ProcessingStaleAfter int
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/course_assistant"),
		DBName:      getEnv("DB_NAME", "course_assistant"),
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GenerativeModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTier:            getEnv("GEMINI_TIER", "free"),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		EmbeddingDimensions:   getEnvInt("VECTOR_DIM", 768),

		ChunkSize:      getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap:   getEnvInt("CHUNK_OVERLAP", 200),
		EmbedBatchSize: getEnvInt("EMBED_BATCH_SIZE", 10),
		RetrievalTopK:  getEnvInt("RETRIEVAL_TOP_K", 5),

		VectorSearchEnabled: getEnvBool("MONGODB_VECTOR_ENABLED", false),
		VectorIndexName:     getEnv("MONGODB_VECTOR_INDEX", "document_chunks_vector"),

		ChunkCompressionEnabled: getEnvBool("CHUNK_COMPRESSION_ENABLED", false),

		MaxFileSize:         getEnvInt64("MAX_FILE_SIZE", 52428800), // 50MB
		FileStorageDir:      getEnv("FILE_STORAGE_DIR", "./storage"),
		SyncProcessingLimit: getEnvInt64("SYNC_PROCESSING_LIMIT", 1048576), // 1MB processed inline

		TranscriptionURL:    getEnv("TRANSCRIPTION_URL", "https://api.groq.com/openai/v1/audio/transcriptions"),
		TranscriptionAPIKey: getEnv("TRANSCRIPTION_API_KEY", ""),
		TranscriptionModel:  getEnv("TRANSCRIPTION_MODEL", "whisper-large-v3-turbo"),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		ProcessingStaleAfter: getEnvInt("PROCESSING_STALE_AFTER_MINUTES", 30),
	}

	// Validate required fields
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required - set it in .env file")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than MAX_CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
