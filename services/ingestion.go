package services

import (
	"context"
	"fmt"
	"time"

	"course-assistant-platform/internal/logger"
	"course-assistant-platform/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultEmbedBatchSize bounds how many chunk texts go to the embedding
// service in one call.
const DefaultEmbedBatchSize = 10

// Embedder maps texts to fixed-dimension dense vectors, one per input, order
// preserved. Implementations do not retry; a failed call fails the batch.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// StatusSink records processing progress on the source document so clients
// polling the material or recording can observe it.
type StatusSink interface {
	SetStatus(ctx context.Context, sourceType string, sourceID primitive.ObjectID, status, errorMessage string) error
}

// IngestRequest identifies one document to index.
type IngestRequest struct {
	CourseID   primitive.ObjectID
	SourceType string
	SourceID   primitive.ObjectID
	Text       string
	Metadata   models.Metadata
}

// IngestionPipeline turns one document into persisted chunks: chunk the text,
// embed in fixed-size batches, insert each batch, and keep the source's
// processing status current throughout.
//
// Batches run strictly sequentially so chunk_index assignment stays simple
// and at most one embedding call per document is in flight. Concurrency
// across documents comes from the worker pool invoking the pipeline.
type IngestionPipeline struct {
	chunker   *Chunker
	embedder  Embedder
	store     ChunkStore
	status    StatusSink
	batchSize int
}

// NewIngestionPipeline wires a pipeline. A non-positive batchSize falls back
// to DefaultEmbedBatchSize.
func NewIngestionPipeline(chunker *Chunker, embedder Embedder, store ChunkStore, status StatusSink, batchSize int) *IngestionPipeline {
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatchSize
	}
	return &IngestionPipeline{
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		batchSize: batchSize,
		status:    status,
	}
}

// Ingest indexes one document end to end and returns the number of chunks
// created. On any failure it marks the source failed with the offending
// stage recorded, stops before later batches, and returns a single
// IngestionError; no partial chunk set is ever reported as completed.
func (p *IngestionPipeline) Ingest(ctx context.Context, req IngestRequest) (int, error) {
	tracer := otel.Tracer("ingestion-pipeline")
	ctx, span := tracer.Start(ctx, "rag.ingest_document")
	defer span.End()
	span.SetAttributes(
		attribute.String("rag.course_id", req.CourseID.Hex()),
		attribute.String("rag.source_type", req.SourceType),
		attribute.String("rag.source_id", req.SourceID.Hex()),
		attribute.Int("rag.text_length", len(req.Text)),
	)

	chunks := p.chunker.Split(req.Text)
	if len(chunks) == 0 {
		// Zero chunks means nothing to index; an explicit failure instead of
		// a silent empty success.
		return 0, p.fail(ctx, req, StageExtract, ErrEmptyContent)
	}

	if err := p.status.SetStatus(ctx, req.SourceType, req.SourceID, models.StatusProcessing, ""); err != nil {
		return 0, p.fail(ctx, req, StageStore, err)
	}

	logger.Info("ingesting document",
		"course_id", req.CourseID.Hex(),
		"source_type", req.SourceType,
		"source_id", req.SourceID.Hex(),
		"chunks", len(chunks))

	now := time.Now()
	for start := 0; start < len(chunks); start += p.batchSize {
		end := start + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		vectors, err := p.embedder.EmbedBatch(ctx, batch)
		if err != nil {
			return 0, p.fail(ctx, req, StageEmbed, asEmbeddingError(err))
		}
		if len(vectors) != len(batch) {
			return 0, p.fail(ctx, req, StageEmbed, &EmbeddingServiceError{
				Err: fmt.Errorf("got %d vectors for %d texts", len(vectors), len(batch)),
			})
		}

		rows := make([]models.DocumentChunk, len(batch))
		for i, text := range batch {
			rows[i] = models.DocumentChunk{
				CourseID:   req.CourseID,
				SourceType: req.SourceType,
				SourceID:   req.SourceID,
				ChunkIndex: start + i,
				Text:       text,
				Vector:     vectors[i],
				Metadata:   req.Metadata.Clone(),
				CreatedAt:  now,
			}
		}

		if err := p.store.Insert(ctx, rows); err != nil {
			return 0, p.fail(ctx, req, StageStore, err)
		}
	}

	if err := p.status.SetStatus(ctx, req.SourceType, req.SourceID, models.StatusCompleted, ""); err != nil {
		return 0, p.fail(ctx, req, StageStore, err)
	}

	span.SetAttributes(attribute.Int("rag.chunks_created", len(chunks)))
	logger.Info("document ingested",
		"source_id", req.SourceID.Hex(),
		"chunks", len(chunks))
	return len(chunks), nil
}

// fail records the failure on the status sink and wraps it for the caller.
// The sink update is best effort: the original error wins either way.
func (p *IngestionPipeline) fail(ctx context.Context, req IngestRequest, stage string, cause error) error {
	msg := fmt.Sprintf("%s: %v", stage, cause)
	if err := p.status.SetStatus(ctx, req.SourceType, req.SourceID, models.StatusFailed, msg); err != nil {
		logger.Error("failed to record ingestion failure",
			"source_id", req.SourceID.Hex(),
			"error", err)
	}
	logger.Error("ingestion failed",
		"source_id", req.SourceID.Hex(),
		"stage", stage,
		"error", cause)
	return &IngestionError{Stage: stage, Err: cause}
}

// MongoStatusSink writes processing status onto the source's own row in the
// course_materials or recordings collection.
type MongoStatusSink struct {
	materials  *mongo.Collection
	recordings *mongo.Collection
}

func NewMongoStatusSink(db *mongo.Database) *MongoStatusSink {
	return &MongoStatusSink{
		materials:  db.Collection("course_materials"),
		recordings: db.Collection("recordings"),
	}
}

func (s *MongoStatusSink) SetStatus(ctx context.Context, sourceType string, sourceID primitive.ObjectID, status, errorMessage string) error {
	set := bson.M{"updated_at": time.Now()}
	unset := bson.M{}

	switch sourceType {
	case models.SourceTypeRecording:
		set["status"] = status
	default:
		set["processing_status"] = status
	}
	if errorMessage != "" {
		set["error_message"] = errorMessage
	} else {
		unset["error_message"] = ""
	}
	if status == models.StatusCompleted {
		set["processed_at"] = time.Now()
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	col := s.materials
	if sourceType == models.SourceTypeRecording {
		col = s.recordings
	}
	_, err := col.UpdateOne(ctx, bson.M{"_id": sourceID}, update)
	return err
}
