package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"course-assistant-platform/internal/config"
	"course-assistant-platform/internal/queue"
	"course-assistant-platform/models"
	"course-assistant-platform/services"
	"course-assistant-platform/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// HandleMaterialUpload accepts a PDF or plain-text course material. Small
// files are extracted and indexed inline; anything larger is written to disk
// and handed to the background worker.
func HandleMaterialUpload(
	cfg *config.Config,
	materialsCollection *mongo.Collection,
	queueClient *asynq.Client,
	extractor *services.TextExtractor,
	pipeline *services.IngestionPipeline,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		courseID, err := primitive.ObjectIDFromHex(c.Param("courseID"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid course ID", nil)
			return
		}

		if err := c.Request.ParseMultipartForm(cfg.MaxFileSize); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "file_too_large",
				"File size exceeds maximum limit", nil)
			return
		}

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "No file provided", nil)
			return
		}
		defer file.Close()

		if header.Size > cfg.MaxFileSize {
			utils.RespondWithError(c, http.StatusBadRequest, "file_too_large",
				"File size exceeds maximum limit", nil)
			return
		}

		fileType, err := detectFileType(file, header.Filename, header.Header.Get("Content-Type"))
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_file_type", err.Error(), nil)
			return
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			utils.RespondWithInternalError(c, "Failed to reset file for saving", nil)
			return
		}

		title := c.PostForm("title")
		if title == "" {
			title = header.Filename
		}

		materialID := primitive.NewObjectID()

		uploadDir := filepath.Join(cfg.FileStorageDir, "materials", courseID.Hex())
		if err := os.MkdirAll(uploadDir, 0755); err != nil {
			utils.RespondWithInternalError(c, "Failed to create upload directory", nil)
			return
		}

		// Storage name is decoupled from the DB id so a failed insert never
		// leaves a file squatting on a reusable name.
		filePath := filepath.Join(uploadDir, fmt.Sprintf("%s.%s", uuid.NewString(), fileType))
		dst, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to open destination", nil)
			return
		}
		defer dst.Close()
		if _, err := io.Copy(dst, io.LimitReader(file, cfg.MaxFileSize)); err != nil {
			utils.RespondWithInternalError(c, "Failed to save file", nil)
			return
		}

		now := time.Now()
		material := models.CourseMaterial{
			ID:               materialID,
			CourseID:         courseID,
			Title:            title,
			FileType:         fileType,
			FileName:         header.Filename,
			FilePath:         filePath,
			Size:             header.Size,
			ProcessingStatus: models.StatusPending,
			UploadedAt:       now,
			UpdatedAt:        now,
		}

		ctx := context.Background()
		if _, err := materialsCollection.InsertOne(ctx, material); err != nil {
			os.Remove(filePath)
			utils.RespondWithInternalError(c, "Failed to create database record", nil)
			return
		}

		// Small files are worth indexing inline so the client sees the result
		// in one round trip.
		if header.Size <= cfg.SyncProcessingLimit {
			chunkCount, err := ingestMaterialInline(c.Request.Context(), materialsCollection, extractor, pipeline, material)
			if err != nil {
				// Status row already says failed; report it.
				utils.RespondWithError(c, http.StatusUnprocessableEntity, "ingestion_failed",
					"Material could not be indexed", gin.H{"error": err.Error()})
				return
			}

			c.JSON(http.StatusOK, models.MaterialUploadResponse{
				ID:         materialID.Hex(),
				Title:      title,
				Status:     models.StatusCompleted,
				ChunkCount: chunkCount,
				Message:    "Material indexed",
			})
			return
		}

		task, err := queue.NewMaterialIngestTask(queue.MaterialIngestPayload{
			MaterialID: materialID.Hex(),
			CourseID:   courseID.Hex(),
			FilePath:   filePath,
			FileType:   fileType,
			FileName:   header.Filename,
			Title:      title,
		})
		if err != nil {
			os.Remove(filePath)
			materialsCollection.DeleteOne(ctx, bson.M{"_id": materialID})
			utils.RespondWithInternalError(c, "Failed to create processing task", nil)
			return
		}

		info, err := queueClient.Enqueue(task)
		if err != nil {
			os.Remove(filePath)
			materialsCollection.DeleteOne(ctx, bson.M{"_id": materialID})
			utils.RespondWithInternalError(c, "Failed to enqueue processing task", nil)
			return
		}

		c.JSON(http.StatusAccepted, models.MaterialUploadResponse{
			ID:      materialID.Hex(),
			Title:   title,
			Status:  models.StatusPending,
			TaskID:  info.ID,
			Message: "Material accepted for processing",
		})
	}
}

func ingestMaterialInline(
	ctx context.Context,
	materialsCollection *mongo.Collection,
	extractor *services.TextExtractor,
	pipeline *services.IngestionPipeline,
	material models.CourseMaterial,
) (int, error) {
	text, err := extractor.Extract(ctx, material.FilePath, material.FileType)
	if err != nil {
		materialsCollection.UpdateOne(ctx,
			bson.M{"_id": material.ID},
			bson.M{"$set": bson.M{
				"processing_status": models.StatusFailed,
				"error_message":     fmt.Sprintf("%s: %v", services.StageExtract, err),
				"updated_at":        time.Now(),
			}},
		)
		return 0, err
	}

	metadata := models.Metadata{
		models.MetaKeyFileName: models.MetaStr(material.FileName),
		models.MetaKeyFileType: models.MetaStr(material.FileType),
		models.MetaKeyTitle:    models.MetaStr(material.Title),
	}

	chunkCount, err := pipeline.Ingest(ctx, services.IngestRequest{
		CourseID:   material.CourseID,
		SourceType: models.SourceTypeMaterial,
		SourceID:   material.ID,
		Text:       text,
		Metadata:   metadata,
	})
	if err != nil {
		return 0, err
	}

	materialsCollection.UpdateOne(ctx,
		bson.M{"_id": material.ID},
		bson.M{"$set": bson.M{
			"content":     text,
			"chunk_count": chunkCount,
			"updated_at":  time.Now(),
		}},
	)

	return chunkCount, nil
}

// detectFileType sniffs the upload: a %PDF header means PDF, otherwise it
// must look like plain text.
func detectFileType(file io.ReadSeeker, filename, contentType string) (string, error) {
	headerBuf := make([]byte, 5)
	n, err := file.Read(headerBuf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("cannot read file header")
	}
	if n >= 4 && string(headerBuf[:4]) == "%PDF" {
		return models.FileTypePDF, nil
	}

	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".pdf") || strings.Contains(contentType, "pdf") {
		return "", fmt.Errorf("file does not appear to be a valid PDF")
	}
	if strings.HasSuffix(lower, ".txt") || strings.HasSuffix(lower, ".md") ||
		strings.HasPrefix(contentType, "text/") {
		return models.FileTypeText, nil
	}

	return "", fmt.Errorf("only PDF and plain-text files are allowed")
}

// CheckMaterialStatus reports processing progress for one material.
func CheckMaterialStatus(materialsCollection *mongo.Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		materialID, err := primitive.ObjectIDFromHex(c.Param("materialID"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid material ID", nil)
			return
		}

		ctx := context.Background()
		var material models.CourseMaterial
		err = materialsCollection.FindOne(ctx, bson.M{"_id": materialID}).Decode(&material)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				utils.RespondWithNotFound(c, "Material not found")
				return
			}
			utils.RespondWithInternalError(c, "Failed to retrieve material status", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":            material.ID.Hex(),
			"title":         material.Title,
			"file_name":     material.FileName,
			"status":        material.ProcessingStatus,
			"chunk_count":   material.ChunkCount,
			"error_message": material.ErrorMessage,
			"uploaded_at":   material.UploadedAt,
			"updated_at":    material.UpdatedAt,
		})
	}
}

// ListCourseMaterials lists a course's materials, newest first.
func ListCourseMaterials(materialsCollection *mongo.Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		courseID, err := primitive.ObjectIDFromHex(c.Param("courseID"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid course ID", nil)
			return
		}

		ctx := context.Background()
		cursor, err := materialsCollection.Find(ctx,
			bson.M{"course_id": courseID},
			options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: -1}}).
				SetProjection(bson.M{"content": 0}),
		)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list materials", nil)
			return
		}
		defer cursor.Close(ctx)

		materials := []models.CourseMaterial{}
		if err := cursor.All(ctx, &materials); err != nil {
			utils.RespondWithInternalError(c, "Failed to decode materials", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"materials": materials, "count": len(materials)})
	}
}

// DeleteMaterial removes the material and every chunk indexed from it.
// Re-uploading afterwards re-ingests from a clean slate.
func DeleteMaterial(materialsCollection *mongo.Collection, store services.ChunkStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		materialID, err := primitive.ObjectIDFromHex(c.Param("materialID"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid material ID", nil)
			return
		}

		ctx := context.Background()

		deleted, err := store.DeleteSource(ctx, models.SourceTypeMaterial, materialID)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to delete indexed chunks", nil)
			return
		}

		var material models.CourseMaterial
		err = materialsCollection.FindOneAndDelete(ctx, bson.M{"_id": materialID}).Decode(&material)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				utils.RespondWithNotFound(c, "Material not found")
				return
			}
			utils.RespondWithInternalError(c, "Failed to delete material", nil)
			return
		}

		if material.FilePath != "" {
			os.Remove(material.FilePath)
		}

		c.JSON(http.StatusOK, gin.H{
			"id":             materialID.Hex(),
			"chunks_deleted": deleted,
		})
	}
}
