package services

import (
	"context"
	"errors"
	"testing"

	"course-assistant-platform/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRetrieveEmptyCourse(t *testing.T) {
	retriever := NewRetriever(&fakeEmbedder{}, NewMemoryChunkStore())

	results, err := retriever.Retrieve(context.Background(), primitive.NewObjectID(), "what is a heap?", 5)
	if err != nil {
		t.Fatalf("empty course must not error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestRetrieveTopK(t *testing.T) {
	store := NewMemoryChunkStore()
	course := primitive.NewObjectID()
	source := primitive.NewObjectID()

	var rows []models.DocumentChunk
	for i := 0; i < 8; i++ {
		rows = append(rows, chunkRow(course, source, i, "chunk", []float32{5, 1}))
	}
	if err := store.Insert(context.Background(), rows); err != nil {
		t.Fatalf("insert: %v", err)
	}

	retriever := NewRetriever(&fakeEmbedder{}, store)

	results, err := retriever.Retrieve(context.Background(), course, "query", 3)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want topK=3", len(results))
	}

	// Non-positive topK falls back to the default.
	results, err = retriever.Retrieve(context.Background(), course, "query", 0)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) != DefaultTopK {
		t.Fatalf("got %d results, want default %d", len(results), DefaultTopK)
	}
}

func TestRetrieveEmbedderFailure(t *testing.T) {
	retriever := NewRetriever(&fakeEmbedder{failOn: 1}, NewMemoryChunkStore())

	_, err := retriever.Retrieve(context.Background(), primitive.NewObjectID(), "query", 5)
	if err == nil {
		t.Fatal("expected error")
	}
	var embErr *EmbeddingServiceError
	if !errors.As(err, &embErr) {
		t.Fatalf("error type = %T, want *EmbeddingServiceError", err)
	}
}
