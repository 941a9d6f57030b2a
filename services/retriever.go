package services

import (
	"context"
	"fmt"

	"course-assistant-platform/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 5

// Retriever embeds a question and runs a course-scoped top-K similarity
// search against the chunk store.
type Retriever struct {
	embedder Embedder
	store    ChunkStore
}

func NewRetriever(embedder Embedder, store ChunkStore) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Retrieve returns the topK most similar chunks for the query within one
// course, best first. A course with nothing indexed yields an empty result
// and nil error; errors mean the embedding service or the store actually
// failed, so callers can tell "no content" from "broken backend".
func (r *Retriever) Retrieve(ctx context.Context, courseID primitive.ObjectID, query string, topK int) ([]models.ScoredChunk, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	vectors, err := r.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, asEmbeddingError(err)
	}
	if len(vectors) != 1 {
		return nil, &EmbeddingServiceError{Err: fmt.Errorf("expected 1 query vector, got %d", len(vectors))}
	}

	return r.store.SimilaritySearch(ctx, courseID, vectors[0], topK)
}
