package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"course-assistant-platform/internal/config"
	"course-assistant-platform/models"
	"course-assistant-platform/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ChunkStore persists document chunks and answers course-scoped similarity
// queries. Course scoping is a hard filter: a chunk from one course is never
// returned for another course's query, whatever its score.
//
// Insert performs no deduplication. Re-ingesting a source without deleting
// its chunks first produces a second full chunk_index range; serializing
// re-ingestion of one source is the caller's responsibility.
type ChunkStore interface {
	Insert(ctx context.Context, chunks []models.DocumentChunk) error
	SimilaritySearch(ctx context.Context, courseID primitive.ObjectID, queryVector []float32, topK int) ([]models.ScoredChunk, error)
	DeleteSource(ctx context.Context, sourceType string, sourceID primitive.ObjectID) (int64, error)
	CountByCourse(ctx context.Context, courseID primitive.ObjectID) (int64, error)
}

// MongoChunkStore stores chunks in the document_chunks collection.
//
// Similarity search runs Atlas $vectorSearch when enabled in config and
// otherwise falls back to a course-filtered scan with in-process cosine
// scoring, which is exact and adequate at per-course corpus sizes.
type MongoChunkStore struct {
	collection *mongo.Collection
	cfg        *config.Config
}

// NewMongoChunkStore creates a chunk store over db's document_chunks
// collection.
func NewMongoChunkStore(db *mongo.Database, cfg *config.Config) *MongoChunkStore {
	return &MongoChunkStore{
		collection: db.Collection("document_chunks"),
		cfg:        cfg,
	}
}

// Insert bulk-writes one batch of chunks. The write is ordered, so a failure
// inserts no chunk after the failing one; the pipeline treats any failure as
// fatal to the whole document and marks the source failed.
func (s *MongoChunkStore) Insert(ctx context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]interface{}, len(chunks))
	for i, ch := range chunks {
		if ch.CreatedAt.IsZero() {
			ch.CreatedAt = time.Now()
		}
		if s.cfg.ChunkCompressionEnabled && len(ch.Text) > 0 {
			compressed, algorithm, err := utils.CompressText(ch.Text)
			if err != nil {
				return &StoreInsertError{Err: fmt.Errorf("compress chunk %d: %w", ch.ChunkIndex, err)}
			}
			if algorithm != utils.CompressionNone {
				ch.Compressed = compressed
				ch.Compression = string(algorithm)
				ch.Text = ""
			}
		}
		docs[i] = ch
	}

	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return &StoreInsertError{Err: err}
	}
	return nil
}

// SimilaritySearch returns up to topK chunks of the given course ranked by
// descending cosine similarity to queryVector. Ties break by ascending
// chunk_index, then source id, for deterministic ordering.
func (s *MongoChunkStore) SimilaritySearch(ctx context.Context, courseID primitive.ObjectID, queryVector []float32, topK int) ([]models.ScoredChunk, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	if s.cfg.VectorSearchEnabled {
		return s.vectorSearch(ctx, courseID, queryVector, topK)
	}
	return s.scanSearch(ctx, courseID, queryVector, topK)
}

// vectorSearch uses an Atlas vector index. The course filter is part of the
// $vectorSearch stage, so scoping happens before ranking.
func (s *MongoChunkStore) vectorSearch(ctx context.Context, courseID primitive.ObjectID, queryVector []float32, topK int) ([]models.ScoredChunk, error) {
	query := make(bson.A, len(queryVector))
	for i, v := range queryVector {
		query[i] = v
	}

	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: s.cfg.VectorIndexName},
			{Key: "path", Value: "vector"},
			{Key: "queryVector", Value: query},
			{Key: "numCandidates", Value: topK * 10},
			{Key: "limit", Value: topK},
			{Key: "filter", Value: bson.D{{Key: "course_id", Value: courseID}}},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}

	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, &StoreQueryError{Err: err}
	}
	defer cursor.Close(ctx)

	var results []models.ScoredChunk
	for cursor.Next(ctx) {
		var row struct {
			models.DocumentChunk `bson:",inline"`
			Score                float64 `bson:"score"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, &StoreQueryError{Err: err}
		}
		results = append(results, models.ScoredChunk{Chunk: row.DocumentChunk, Score: row.Score})
	}
	if err := cursor.Err(); err != nil {
		return nil, &StoreQueryError{Err: err}
	}
	return s.inflate(results)
}

// scanSearch scores every chunk of the course in process.
func (s *MongoChunkStore) scanSearch(ctx context.Context, courseID primitive.ObjectID, queryVector []float32, topK int) ([]models.ScoredChunk, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"course_id": courseID})
	if err != nil {
		return nil, &StoreQueryError{Err: err}
	}
	defer cursor.Close(ctx)

	var scored []models.ScoredChunk
	for cursor.Next(ctx) {
		var chunk models.DocumentChunk
		if err := cursor.Decode(&chunk); err != nil {
			return nil, &StoreQueryError{Err: err}
		}
		scored = append(scored, models.ScoredChunk{
			Chunk: chunk,
			Score: CosineSimilarity(queryVector, chunk.Vector),
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, &StoreQueryError{Err: err}
	}

	SortScoredChunks(scored)
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return s.inflate(scored)
}

// inflate decompresses chunk text for results stored compressed.
func (s *MongoChunkStore) inflate(results []models.ScoredChunk) ([]models.ScoredChunk, error) {
	for i := range results {
		ch := &results[i].Chunk
		if len(ch.Compressed) == 0 {
			continue
		}
		text, err := utils.DecompressText(ch.Compressed, utils.CompressionAlgorithm(ch.Compression))
		if err != nil {
			return nil, &StoreQueryError{Err: fmt.Errorf("decompress chunk %d: %w", ch.ChunkIndex, err)}
		}
		ch.Text = text
		ch.Compressed = nil
		ch.Compression = ""
	}
	return results, nil
}

// DeleteSource removes every chunk of one source, for callers that replace a
// document before re-ingesting it.
func (s *MongoChunkStore) DeleteSource(ctx context.Context, sourceType string, sourceID primitive.ObjectID) (int64, error) {
	res, err := s.collection.DeleteMany(ctx, bson.M{
		"source_type": sourceType,
		"source_id":   sourceID,
	})
	if err != nil {
		return 0, &StoreInsertError{Err: err}
	}
	return res.DeletedCount, nil
}

// CountByCourse reports how many chunks a course has indexed.
func (s *MongoChunkStore) CountByCourse(ctx context.Context, courseID primitive.ObjectID) (int64, error) {
	n, err := s.collection.CountDocuments(ctx, bson.M{"course_id": courseID})
	if err != nil {
		return 0, &StoreQueryError{Err: err}
	}
	return n, nil
}

// CosineSimilarity computes cosine similarity between two vectors. Mismatched
// or zero-magnitude vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SortScoredChunks orders by descending score with deterministic tie-breaks:
// ascending chunk_index, then source id, then row id.
func SortScoredChunks(scored []models.ScoredChunk) {
	sort.Slice(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Chunk.ChunkIndex != b.Chunk.ChunkIndex {
			return a.Chunk.ChunkIndex < b.Chunk.ChunkIndex
		}
		if a.Chunk.SourceID != b.Chunk.SourceID {
			return a.Chunk.SourceID.Hex() < b.Chunk.SourceID.Hex()
		}
		return a.Chunk.ID.Hex() < b.Chunk.ID.Hex()
	})
}
