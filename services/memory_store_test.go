package services

import (
	"context"
	"math"
	"testing"

	"course-assistant-platform/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func chunkRow(courseID, sourceID primitive.ObjectID, index int, text string, vector []float32) models.DocumentChunk {
	return models.DocumentChunk{
		CourseID:   courseID,
		SourceType: models.SourceTypeMaterial,
		SourceID:   sourceID,
		ChunkIndex: index,
		Text:       text,
		Vector:     vector,
	}
}

func TestSimilaritySearchCourseIsolation(t *testing.T) {
	store := NewMemoryChunkStore()
	ctx := context.Background()

	courseA := primitive.NewObjectID()
	courseB := primitive.NewObjectID()
	source := primitive.NewObjectID()

	err := store.Insert(ctx, []models.DocumentChunk{
		chunkRow(courseA, source, 0, "course A content", []float32{1, 0}),
		chunkRow(courseB, source, 0, "course B content", []float32{1, 0}),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	results, err := store.SimilaritySearch(ctx, courseA, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Chunk.CourseID != courseA {
		t.Fatalf("got chunk from wrong course")
	}
}

func TestSimilaritySearchRanking(t *testing.T) {
	store := NewMemoryChunkStore()
	ctx := context.Background()

	course := primitive.NewObjectID()
	source := primitive.NewObjectID()

	err := store.Insert(ctx, []models.DocumentChunk{
		chunkRow(course, source, 0, "orthogonal", []float32{0, 1}),
		chunkRow(course, source, 1, "exact match", []float32{1, 0}),
		chunkRow(course, source, 2, "diagonal", []float32{1, 1}),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	results, err := store.SimilaritySearch(ctx, course, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected topK=2 results, got %d", len(results))
	}
	if results[0].Chunk.Text != "exact match" {
		t.Errorf("best result = %q, want exact match", results[0].Chunk.Text)
	}
	if results[1].Chunk.Text != "diagonal" {
		t.Errorf("second result = %q, want diagonal", results[1].Chunk.Text)
	}
	if results[0].Score < results[1].Score {
		t.Errorf("scores out of order: %f < %f", results[0].Score, results[1].Score)
	}
}

func TestSimilaritySearchTieBreak(t *testing.T) {
	store := NewMemoryChunkStore()
	ctx := context.Background()

	course := primitive.NewObjectID()
	source := primitive.NewObjectID()

	// Identical vectors, identical scores. Order must come from chunk_index.
	err := store.Insert(ctx, []models.DocumentChunk{
		chunkRow(course, source, 2, "third", []float32{1, 0}),
		chunkRow(course, source, 0, "first", []float32{1, 0}),
		chunkRow(course, source, 1, "second", []float32{1, 0}),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	results, err := store.SimilaritySearch(ctx, course, []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if results[i].Chunk.Text != w {
			t.Errorf("result %d = %q, want %q", i, results[i].Chunk.Text, w)
		}
	}
}

func TestInsertDoesNotDeduplicate(t *testing.T) {
	store := NewMemoryChunkStore()
	ctx := context.Background()

	course := primitive.NewObjectID()
	source := primitive.NewObjectID()
	rows := []models.DocumentChunk{
		chunkRow(course, source, 0, "same chunk", []float32{1, 0}),
	}

	if err := store.Insert(ctx, rows); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Insert(ctx, rows); err != nil {
		t.Fatalf("reinsert: %v", err)
	}

	n, err := store.CountByCourse(ctx, course)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2 (no dedup on re-ingest)", n)
	}
}

func TestDeleteSource(t *testing.T) {
	store := NewMemoryChunkStore()
	ctx := context.Background()

	course := primitive.NewObjectID()
	sourceA := primitive.NewObjectID()
	sourceB := primitive.NewObjectID()

	err := store.Insert(ctx, []models.DocumentChunk{
		chunkRow(course, sourceA, 0, "a0", []float32{1, 0}),
		chunkRow(course, sourceA, 1, "a1", []float32{1, 0}),
		chunkRow(course, sourceB, 0, "b0", []float32{1, 0}),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	deleted, err := store.DeleteSource(ctx, models.SourceTypeMaterial, sourceA)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}

	n, _ := store.CountByCourse(ctx, course)
	if n != 1 {
		t.Fatalf("count after delete = %d, want 1", n)
	}
}

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tc := range cases {
		got := CosineSimilarity(tc.a, tc.b)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%s: CosineSimilarity = %f, want %f", tc.name, got, tc.want)
		}
	}
}
