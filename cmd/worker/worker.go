package main

import (
	"context"
	"log"
	"time"

	"course-assistant-platform/internal/ai"
	"course-assistant-platform/internal/config"
	"course-assistant-platform/internal/logger"
	"course-assistant-platform/internal/queue"
	"course-assistant-platform/services"

	"github.com/hibiken/asynq"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()
	db := mongoClient.Database(cfg.DBName)

	// AI clients
	embeddingClient, err := ai.NewEmbeddingClient(cfg.GeminiAPIKey, cfg.GoogleEmbeddingsModel, cfg.EmbeddingDimensions)
	if err != nil {
		log.Fatal("Failed to initialize embedding client:", err)
	}
	defer embeddingClient.Close()

	geminiClient, err := ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GenerativeModel, cfg.GeminiTier)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}
	defer geminiClient.Close()

	// RAG wiring
	chunker := services.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	store := services.NewMongoChunkStore(db, cfg)
	statusSink := services.NewMongoStatusSink(db)
	pipeline := services.NewIngestionPipeline(chunker, embeddingClient, store, statusSink, cfg.EmbedBatchSize)

	extractor := services.NewTextExtractor(cfg.MaxFileSize)
	transcription := services.NewTranscriptionClient(cfg.TranscriptionURL, cfg.TranscriptionAPIKey, cfg.TranscriptionModel)
	study := services.NewStudyMaterialService(geminiClient)

	// Redis options for Asynq
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	// Create Asynq server
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 20,
			Queues: map[string]int{
				"critical": 6, // 60% of workers
				"default":  3, // 30% of workers
				"low":      1, // 10% of workers
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	// Create task processor
	processor := queue.NewTaskProcessor(db, extractor, transcription, study, pipeline, statusSink)

	// Create mux and register handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestMaterial, processor.IngestMaterial)
	mux.HandleFunc(queue.TaskProcessRecording, processor.ProcessRecording)

	log.Println("🚀 Starting Asynq worker...")
	log.Printf("   Concurrency: 20")
	log.Printf("   Queues: critical(6), default(3), low(1)")
	log.Printf("   Redis: %s", redisOpt.Addr)

	// Start the server
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
