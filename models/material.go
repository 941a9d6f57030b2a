package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Processing status constants shared by materials and recordings.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// File types accepted for course materials.
const (
	FileTypePDF  = "pdf"
	FileTypeText = "text"
)

// CourseMaterial is an uploaded document (PDF or plain text) attached to a
// course. The RAG pipeline reads Content and reports progress through
// ProcessingStatus/ErrorMessage, which clients poll.
type CourseMaterial struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CourseID         primitive.ObjectID `bson:"course_id" json:"course_id"`
	TeacherID        primitive.ObjectID `bson:"teacher_id" json:"teacher_id"`
	Title            string             `bson:"title" json:"title"`
	FileType         string             `bson:"file_type" json:"file_type"`
	FileName         string             `bson:"file_name,omitempty" json:"file_name,omitempty"`
	FilePath         string             `bson:"file_path,omitempty" json:"-"`
	Size             int64              `bson:"size,omitempty" json:"size,omitempty"`
	Content          string             `bson:"content,omitempty" json:"-"`
	ChunkCount       int                `bson:"chunk_count,omitempty" json:"chunk_count,omitempty"`
	ProcessingStatus string             `bson:"processing_status" json:"processing_status"`
	ErrorMessage     string             `bson:"error_message,omitempty" json:"error_message,omitempty"`
	UploadedAt       time.Time          `bson:"uploaded_at" json:"uploaded_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
	ProcessedAt      *time.Time         `bson:"processed_at,omitempty" json:"processed_at,omitempty"`
}

// MaterialUploadResponse is returned after an upload is accepted.
type MaterialUploadResponse struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	TaskID     string `json:"task_id,omitempty"`
	Message    string `json:"message"`
}
