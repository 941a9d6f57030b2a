package services

import (
	"context"
	"sync"

	"course-assistant-platform/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryChunkStore is a brute-force in-memory ChunkStore with the same
// contract as the Mongo implementation. Used by tests and local development
// without a database.
type MemoryChunkStore struct {
	mu     sync.RWMutex
	chunks []models.DocumentChunk
}

func NewMemoryChunkStore() *MemoryChunkStore {
	return &MemoryChunkStore{}
}

// Insert appends the batch. Like the persistent store it never deduplicates:
// re-inserting a source's chunks yields duplicate chunk_index ranges.
func (s *MemoryChunkStore) Insert(ctx context.Context, chunks []models.DocumentChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range chunks {
		if ch.ID.IsZero() {
			ch.ID = primitive.NewObjectID()
		}
		s.chunks = append(s.chunks, ch)
	}
	return nil
}

func (s *MemoryChunkStore) SimilaritySearch(ctx context.Context, courseID primitive.ObjectID, queryVector []float32, topK int) ([]models.ScoredChunk, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var scored []models.ScoredChunk
	for _, ch := range s.chunks {
		if ch.CourseID != courseID {
			continue
		}
		scored = append(scored, models.ScoredChunk{
			Chunk: ch,
			Score: CosineSimilarity(queryVector, ch.Vector),
		})
	}

	SortScoredChunks(scored)
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

func (s *MemoryChunkStore) DeleteSource(ctx context.Context, sourceType string, sourceID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0]
	var deleted int64
	for _, ch := range s.chunks {
		if ch.SourceType == sourceType && ch.SourceID == sourceID {
			deleted++
			continue
		}
		kept = append(kept, ch)
	}
	s.chunks = kept
	return deleted, nil
}

func (s *MemoryChunkStore) CountByCourse(ctx context.Context, courseID primitive.ObjectID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, ch := range s.chunks {
		if ch.CourseID == courseID {
			n++
		}
	}
	return n, nil
}
