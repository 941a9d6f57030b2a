package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"course-assistant-platform/internal/logger"
	"course-assistant-platform/models"
	"course-assistant-platform/services"
)

const (
	TaskIngestMaterial   = "material:ingest"
	TaskProcessRecording = "recording:process"
)

type MaterialIngestPayload struct {
	MaterialID string `json:"material_id"`
	CourseID   string `json:"course_id"`
	FilePath   string `json:"file_path"`
	FileType   string `json:"file_type"`
	FileName   string `json:"file_name"`
	Title      string `json:"title"`
}

type RecordingProcessPayload struct {
	RecordingID string `json:"recording_id"`
	CourseID    string `json:"course_id"`
	AudioPath   string `json:"audio_path"`
	Title       string `json:"title"`
}

// Task creators
func NewMaterialIngestTask(p MaterialIngestPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestMaterial,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("critical"),
	), nil
}

func NewRecordingProcessTask(p RecordingProcessPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskProcessRecording,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Minute), // transcription of long lectures is slow
		asynq.Queue("default"),
	), nil
}

// TaskProcessor executes background ingestion jobs.
type TaskProcessor struct {
	db            *mongo.Database
	extractor     *services.TextExtractor
	transcription *services.TranscriptionClient
	study         *services.StudyMaterialService
	pipeline      *services.IngestionPipeline
	status        services.StatusSink
}

func NewTaskProcessor(
	db *mongo.Database,
	extractor *services.TextExtractor,
	transcription *services.TranscriptionClient,
	study *services.StudyMaterialService,
	pipeline *services.IngestionPipeline,
	status services.StatusSink,
) *TaskProcessor {
	return &TaskProcessor{
		db:            db,
		extractor:     extractor,
		transcription: transcription,
		study:         study,
		pipeline:      pipeline,
		status:        status,
	}
}

// IngestMaterial extracts text from an uploaded file and indexes it.
func (p *TaskProcessor) IngestMaterial(ctx context.Context, t *asynq.Task) error {
	var payload MaterialIngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	materialID, err := primitive.ObjectIDFromHex(payload.MaterialID)
	if err != nil {
		return fmt.Errorf("bad material id %q: %w", payload.MaterialID, asynq.SkipRetry)
	}
	courseID, err := primitive.ObjectIDFromHex(payload.CourseID)
	if err != nil {
		return fmt.Errorf("bad course id %q: %w", payload.CourseID, asynq.SkipRetry)
	}

	logger.Info("Ingesting material", "material_id", payload.MaterialID, "course_id", payload.CourseID)

	text, err := p.extractor.Extract(ctx, payload.FilePath, payload.FileType)
	if err != nil {
		p.status.SetStatus(ctx, models.SourceTypeMaterial, materialID, models.StatusFailed,
			fmt.Sprintf("%s: %v", services.StageExtract, err))
		return err
	}

	metadata := models.Metadata{
		models.MetaKeyFileName: models.MetaStr(payload.FileName),
		models.MetaKeyFileType: models.MetaStr(payload.FileType),
	}
	if payload.Title != "" {
		metadata[models.MetaKeyTitle] = models.MetaStr(payload.Title)
	}

	chunkCount, err := p.pipeline.Ingest(ctx, services.IngestRequest{
		CourseID:   courseID,
		SourceType: models.SourceTypeMaterial,
		SourceID:   materialID,
		Text:       text,
		Metadata:   metadata,
	})
	if err != nil {
		return err // pipeline already recorded the failure
	}

	// Keep the extracted content on the material row so it can be re-indexed
	// without re-parsing the file.
	_, err = p.db.Collection("course_materials").UpdateOne(ctx,
		bson.M{"_id": materialID},
		bson.M{"$set": bson.M{
			"content":     text,
			"chunk_count": chunkCount,
			"updated_at":  time.Now(),
		}},
	)
	if err != nil {
		logger.Error("Failed to store extracted content", "material_id", payload.MaterialID, "error", err)
	}

	logger.Info("Material ingested", "material_id", payload.MaterialID, "chunks", chunkCount)
	return nil
}

// ProcessRecording transcribes a lecture recording, derives summary and study
// materials, and indexes the transcription.
func (p *TaskProcessor) ProcessRecording(ctx context.Context, t *asynq.Task) error {
	var payload RecordingProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	recordingID, err := primitive.ObjectIDFromHex(payload.RecordingID)
	if err != nil {
		return fmt.Errorf("bad recording id %q: %w", payload.RecordingID, asynq.SkipRetry)
	}
	courseID, err := primitive.ObjectIDFromHex(payload.CourseID)
	if err != nil {
		return fmt.Errorf("bad course id %q: %w", payload.CourseID, asynq.SkipRetry)
	}

	logger.Info("Processing recording", "recording_id", payload.RecordingID)

	if err := p.status.SetStatus(ctx, models.SourceTypeRecording, recordingID, models.StatusProcessing, ""); err != nil {
		return err
	}

	transcription, err := p.transcription.Transcribe(ctx, payload.AudioPath)
	if err != nil {
		p.failRecording(ctx, recordingID, "transcription", err)
		return err
	}

	summary, err := p.study.GenerateSummary(ctx, transcription)
	if err != nil {
		p.failRecording(ctx, recordingID, "summary", err)
		return err
	}

	studyMaterials, err := p.study.GenerateStudyMaterials(ctx, transcription)
	if err != nil {
		p.failRecording(ctx, recordingID, "study materials", err)
		return err
	}

	_, err = p.db.Collection("recordings").UpdateOne(ctx,
		bson.M{"_id": recordingID},
		bson.M{"$set": bson.M{
			"transcription":   transcription,
			"summary":         summary,
			"study_materials": studyMaterials,
			"updated_at":      time.Now(),
		}},
	)
	if err != nil {
		p.failRecording(ctx, recordingID, "store results", err)
		return err
	}

	metadata := models.Metadata{}
	if payload.Title != "" {
		metadata[models.MetaKeyTitle] = models.MetaStr(payload.Title)
	}

	// The pipeline moves the recording to completed once indexing succeeds.
	_, err = p.pipeline.Ingest(ctx, services.IngestRequest{
		CourseID:   courseID,
		SourceType: models.SourceTypeRecording,
		SourceID:   recordingID,
		Text:       transcription,
		Metadata:   metadata,
	})
	if err != nil {
		return err
	}

	logger.Info("Recording processed", "recording_id", payload.RecordingID)
	return nil
}

func (p *TaskProcessor) failRecording(ctx context.Context, recordingID primitive.ObjectID, step string, cause error) {
	msg := fmt.Sprintf("%s: %v", step, cause)
	if err := p.status.SetStatus(ctx, models.SourceTypeRecording, recordingID, models.StatusFailed, msg); err != nil {
		logger.Error("Failed to record recording failure", "recording_id", recordingID.Hex(), "error", err)
	}
	logger.Error("Recording processing failed", "recording_id", recordingID.Hex(), "step", step, "error", cause)
}
