package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Source types a chunk can originate from.
const (
	SourceTypeMaterial  = "material"
	SourceTypeRecording = "recording"
)

// DocumentChunk is a denormalized chunk row in the document_chunks
// collection. Keeping a separate collection enables efficient
// $search/$vectorSearch and course-scoped scans.
//
// For a given (source_type, source_id) one ingestion run produces
// chunk_index 0..n-1 with no gaps. Chunks are never mutated; re-ingesting a
// source without deleting first appends a second full range.
type DocumentChunk struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CourseID    primitive.ObjectID `bson:"course_id" json:"course_id"`
	SourceType  string             `bson:"source_type" json:"source_type"`
	SourceID    primitive.ObjectID `bson:"source_id" json:"source_id"`
	ChunkIndex  int                `bson:"chunk_index" json:"chunk_index"`
	Text        string             `bson:"text,omitempty" json:"text"`
	Compressed  []byte             `bson:"compressed,omitempty" json:"-"`
	Compression string             `bson:"compression,omitempty" json:"-"`
	Vector      []float32          `bson:"vector" json:"-"`
	Metadata    Metadata           `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// ScoredChunk pairs a retrieved chunk with its similarity score.
type ScoredChunk struct {
	Chunk DocumentChunk `json:"chunk"`
	Score float64       `json:"score"`
}
