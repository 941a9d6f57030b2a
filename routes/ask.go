package routes

import (
	"errors"
	"net/http"

	"course-assistant-platform/internal/telemetry"
	"course-assistant-platform/models"
	"course-assistant-platform/services"
	"course-assistant-platform/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleAsk answers a student question grounded in the course's indexed
// materials. A course with nothing indexed gets the fixed fallback answer
// with HTTP 200; only actual backend failures produce error statuses.
func HandleAsk(qa *services.QAService, metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		courseID, err := primitive.ObjectIDFromHex(c.Param("courseID"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid course ID", nil)
			return
		}

		var req models.AskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Question is required", gin.H{"error": err.Error()})
			return
		}

		answer, err := qa.Answer(c.Request.Context(), courseID, req.Question)
		if err != nil {
			var embErr *services.EmbeddingServiceError
			var genErr *services.GenerativeServiceError
			switch {
			case errors.As(err, &embErr):
				if metrics != nil {
					metrics.RecordQuestion("error")
				}
				utils.RespondWithBadGateway(c, "Embedding service is unavailable. Please try again.")
			case errors.As(err, &genErr):
				if metrics != nil {
					metrics.RecordQuestion("error")
				}
				utils.RespondWithBadGateway(c, "Answer generation is unavailable. Please try again.")
			default:
				if metrics != nil {
					metrics.RecordQuestion("error")
				}
				utils.RespondWithInternalError(c, "Failed to answer question", nil)
			}
			return
		}

		if metrics != nil {
			if answer.Text == services.NoMaterialsAnswer {
				metrics.RecordQuestion("no_materials")
			} else {
				metrics.RecordQuestion("answered")
			}
		}

		c.JSON(http.StatusOK, answer)
	}
}
