package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"course-assistant-platform/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeEmbedder struct {
	batches [][]string
	failOn  int // 1-based batch number to fail on, 0 = never
	err     error
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.batches = append(f.batches, texts)
	if f.failOn > 0 && len(f.batches) == f.failOn {
		if f.err != nil {
			return nil, f.err
		}
		return nil, errors.New("embedding backend down")
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(len(texts[i])), 1}
	}
	return vectors, nil
}

type statusChange struct {
	status string
	errMsg string
}

type fakeStatusSink struct {
	changes []statusChange
}

func (f *fakeStatusSink) SetStatus(ctx context.Context, sourceType string, sourceID primitive.ObjectID, status, errorMessage string) error {
	f.changes = append(f.changes, statusChange{status: status, errMsg: errorMessage})
	return nil
}

func (f *fakeStatusSink) last() statusChange {
	if len(f.changes) == 0 {
		return statusChange{}
	}
	return f.changes[len(f.changes)-1]
}

type failingStore struct {
	*MemoryChunkStore
	failInsert bool
}

func (s *failingStore) Insert(ctx context.Context, chunks []models.DocumentChunk) error {
	if s.failInsert {
		return &StoreInsertError{Err: errors.New("write refused")}
	}
	return s.MemoryChunkStore.Insert(ctx, chunks)
}

func ingestReq(text string) IngestRequest {
	return IngestRequest{
		CourseID:   primitive.NewObjectID(),
		SourceType: models.SourceTypeMaterial,
		SourceID:   primitive.NewObjectID(),
		Text:       text,
		Metadata: models.Metadata{
			models.MetaKeyFileName: models.MetaStr("lecture.pdf"),
		},
	}
}

func TestIngestEmptyContent(t *testing.T) {
	status := &fakeStatusSink{}
	pipeline := NewIngestionPipeline(NewChunker(100, 20), &fakeEmbedder{}, NewMemoryChunkStore(), status, 10)

	_, err := pipeline.Ingest(context.Background(), ingestReq("   \n\n  "))
	if err == nil {
		t.Fatal("expected error for empty content")
	}

	var ingErr *IngestionError
	if !errors.As(err, &ingErr) {
		t.Fatalf("error type = %T, want *IngestionError", err)
	}
	if ingErr.Stage != StageExtract {
		t.Errorf("stage = %q, want %q", ingErr.Stage, StageExtract)
	}
	if !errors.Is(err, ErrEmptyContent) {
		t.Errorf("error chain does not include ErrEmptyContent: %v", err)
	}

	if got := status.last().status; got != models.StatusFailed {
		t.Errorf("final status = %q, want failed", got)
	}
	for _, ch := range status.changes {
		if ch.status == models.StatusCompleted {
			t.Error("empty content must never reach completed")
		}
	}
}

func TestIngestAssignsContiguousChunkIndexes(t *testing.T) {
	store := NewMemoryChunkStore()
	status := &fakeStatusSink{}
	embedder := &fakeEmbedder{}
	pipeline := NewIngestionPipeline(NewChunker(50, 10), embedder, store, status, 2)

	text := strings.Repeat("Short sentences make many chunks here. ", 10)
	req := ingestReq(text)

	count, err := pipeline.Ingest(context.Background(), req)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if count < 3 {
		t.Fatalf("expected several chunks, got %d", count)
	}

	// Batches respect the configured size.
	for i, batch := range embedder.batches {
		if len(batch) > 2 {
			t.Errorf("batch %d has %d texts, want <= 2", i, len(batch))
		}
	}

	// Stored chunks carry chunk_index 0..n-1 with no gaps, across batches.
	results, err := store.SimilaritySearch(context.Background(), req.CourseID, []float32{1, 1}, count)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	seen := make(map[int]bool)
	for _, r := range results {
		seen[r.Chunk.ChunkIndex] = true
		if r.Chunk.SourceID != req.SourceID {
			t.Errorf("chunk has wrong source id")
		}
		if r.Chunk.Metadata[models.MetaKeyFileName].Str != "lecture.pdf" {
			t.Errorf("chunk metadata not propagated")
		}
	}
	for i := 0; i < count; i++ {
		if !seen[i] {
			t.Errorf("chunk_index %d missing", i)
		}
	}

	if got := status.last().status; got != models.StatusCompleted {
		t.Errorf("final status = %q, want completed", got)
	}
	if got := status.last().errMsg; got != "" {
		t.Errorf("completed status carries error message %q", got)
	}
}

func TestIngestEmbedFailureFailsFast(t *testing.T) {
	store := NewMemoryChunkStore()
	status := &fakeStatusSink{}
	embedder := &fakeEmbedder{failOn: 2}
	pipeline := NewIngestionPipeline(NewChunker(50, 10), embedder, store, status, 2)

	text := strings.Repeat("Short sentences make many chunks here. ", 10)
	req := ingestReq(text)

	_, err := pipeline.Ingest(context.Background(), req)
	if err == nil {
		t.Fatal("expected error")
	}

	var ingErr *IngestionError
	if !errors.As(err, &ingErr) {
		t.Fatalf("error type = %T, want *IngestionError", err)
	}
	if ingErr.Stage != StageEmbed {
		t.Errorf("stage = %q, want %q", ingErr.Stage, StageEmbed)
	}
	var embErr *EmbeddingServiceError
	if !errors.As(err, &embErr) {
		t.Errorf("error chain lacks *EmbeddingServiceError: %v", err)
	}

	// No batch after the failing one.
	if len(embedder.batches) != 2 {
		t.Errorf("embedder called %d times, want 2 (fail fast)", len(embedder.batches))
	}

	if got := status.last().status; got != models.StatusFailed {
		t.Errorf("final status = %q, want failed", got)
	}
	if msg := status.last().errMsg; !strings.HasPrefix(msg, StageEmbed+":") {
		t.Errorf("error message %q does not name the stage", msg)
	}
}

func TestIngestStoreFailure(t *testing.T) {
	store := &failingStore{MemoryChunkStore: NewMemoryChunkStore(), failInsert: true}
	status := &fakeStatusSink{}
	pipeline := NewIngestionPipeline(NewChunker(100, 20), &fakeEmbedder{}, store, status, 10)

	_, err := pipeline.Ingest(context.Background(), ingestReq("Some indexable content for the course."))
	if err == nil {
		t.Fatal("expected error")
	}

	var ingErr *IngestionError
	if !errors.As(err, &ingErr) {
		t.Fatalf("error type = %T, want *IngestionError", err)
	}
	if ingErr.Stage != StageStore {
		t.Errorf("stage = %q, want %q", ingErr.Stage, StageStore)
	}
	var insErr *StoreInsertError
	if !errors.As(err, &insErr) {
		t.Errorf("error chain lacks *StoreInsertError: %v", err)
	}

	if got := status.last().status; got != models.StatusFailed {
		t.Errorf("final status = %q, want failed", got)
	}
}

func TestIngestSuccessClearsPreviousError(t *testing.T) {
	status := &fakeStatusSink{}
	pipeline := NewIngestionPipeline(NewChunker(100, 20), &fakeEmbedder{}, NewMemoryChunkStore(), status, 10)

	_, err := pipeline.Ingest(context.Background(), ingestReq("Recovered content after a failed run."))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	// processing then completed, both with empty error message.
	if len(status.changes) < 2 {
		t.Fatalf("expected processing and completed transitions, got %v", status.changes)
	}
	if status.changes[0].status != models.StatusProcessing {
		t.Errorf("first transition = %q, want processing", status.changes[0].status)
	}
	last := status.last()
	if last.status != models.StatusCompleted || last.errMsg != "" {
		t.Errorf("final transition = %+v, want completed with empty error", last)
	}
}
