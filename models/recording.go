package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Recording is a recorded lecture. Audio capture and storage happen outside
// this service; processing fills in Transcription, Summary and StudyMaterials
// and feeds the transcript into the chunk index.
type Recording struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CourseID       primitive.ObjectID `bson:"course_id" json:"course_id"`
	TeacherID      primitive.ObjectID `bson:"teacher_id" json:"teacher_id"`
	Title          string             `bson:"title" json:"title"`
	AudioURL       string             `bson:"audio_url" json:"audio_url"`
	Transcription  string             `bson:"transcription,omitempty" json:"transcription,omitempty"`
	Summary        string             `bson:"summary,omitempty" json:"summary,omitempty"`
	StudyMaterials string             `bson:"study_materials,omitempty" json:"study_materials,omitempty"`
	Status         string             `bson:"status" json:"status"`
	ErrorMessage   string             `bson:"error_message,omitempty" json:"error_message,omitempty"`
	RecordedAt     time.Time          `bson:"recorded_at" json:"recorded_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}
