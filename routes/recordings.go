package routes

import (
	"context"
	"net/http"
	"time"

	"course-assistant-platform/internal/queue"
	"course-assistant-platform/models"
	"course-assistant-platform/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// HandleProcessRecording queues transcription, study-material generation and
// indexing for one recording.
func HandleProcessRecording(recordingsCollection *mongo.Collection, queueClient *asynq.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		recordingID, err := primitive.ObjectIDFromHex(c.Param("recordingID"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid recording ID", nil)
			return
		}

		ctx := context.Background()
		var recording models.Recording
		err = recordingsCollection.FindOne(ctx, bson.M{"_id": recordingID}).Decode(&recording)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				utils.RespondWithNotFound(c, "Recording not found")
				return
			}
			utils.RespondWithInternalError(c, "Failed to retrieve recording", nil)
			return
		}

		if recording.AudioURL == "" {
			utils.RespondWithBadRequest(c, "Recording has no audio file", nil)
			return
		}

		if recording.Status == models.StatusProcessing {
			c.JSON(http.StatusConflict, gin.H{
				"error_code": "already_processing",
				"message":    "Recording is already being processed",
			})
			return
		}

		task, err := queue.NewRecordingProcessTask(queue.RecordingProcessPayload{
			RecordingID: recordingID.Hex(),
			CourseID:    recording.CourseID.Hex(),
			AudioPath:   recording.AudioURL,
			Title:       recording.Title,
		})
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to create processing task", nil)
			return
		}

		info, err := queueClient.Enqueue(task)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to enqueue processing task", nil)
			return
		}

		recordingsCollection.UpdateOne(ctx,
			bson.M{"_id": recordingID},
			bson.M{"$set": bson.M{
				"status":     models.StatusPending,
				"updated_at": time.Now(),
			}},
		)

		c.JSON(http.StatusAccepted, gin.H{
			"id":      recordingID.Hex(),
			"task_id": info.ID,
			"status":  models.StatusPending,
			"message": "Recording accepted for processing",
		})
	}
}

// GetRecording returns a recording, including transcription and study
// materials once processing completes.
func GetRecording(recordingsCollection *mongo.Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		recordingID, err := primitive.ObjectIDFromHex(c.Param("recordingID"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid recording ID", nil)
			return
		}

		ctx := context.Background()
		var recording models.Recording
		err = recordingsCollection.FindOne(ctx, bson.M{"_id": recordingID}).Decode(&recording)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				utils.RespondWithNotFound(c, "Recording not found")
				return
			}
			utils.RespondWithInternalError(c, "Failed to retrieve recording", nil)
			return
		}

		c.JSON(http.StatusOK, recording)
	}
}

// ListCourseRecordings lists a course's recordings, newest first, without the
// long text fields.
func ListCourseRecordings(recordingsCollection *mongo.Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		courseID, err := primitive.ObjectIDFromHex(c.Param("courseID"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid course ID", nil)
			return
		}

		ctx := context.Background()
		cursor, err := recordingsCollection.Find(ctx,
			bson.M{"course_id": courseID},
			options.Find().SetSort(bson.D{{Key: "recorded_at", Value: -1}}).
				SetProjection(bson.M{"transcription": 0, "study_materials": 0}),
		)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list recordings", nil)
			return
		}
		defer cursor.Close(ctx)

		recordings := []models.Recording{}
		if err := cursor.All(ctx, &recordings); err != nil {
			utils.RespondWithInternalError(c, "Failed to decode recordings", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"recordings": recordings, "count": len(recordings)})
	}
}
