package routes

import (
	"course-assistant-platform/internal/config"
	"course-assistant-platform/internal/telemetry"
	"course-assistant-platform/middleware"
	"course-assistant-platform/services"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"
)

// SetupCourseRoutes mounts material, recording and question-answering
// endpoints under /api/courses.
func SetupCourseRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *mongo.Database,
	queueClient *asynq.Client,
	extractor *services.TextExtractor,
	pipeline *services.IngestionPipeline,
	store services.ChunkStore,
	qa *services.QAService,
	metrics *telemetry.Metrics,
	auth *middleware.AuthMiddleware,
) {
	materials := db.Collection("course_materials")
	recordings := db.Collection("recordings")

	api := router.Group("/api")
	api.Use(auth.RequireAuth())

	courses := api.Group("/courses/:courseID")
	{
		courses.POST("/ask", HandleAsk(qa, metrics))

		courses.POST("/materials",
			auth.RequireRole("teacher", "admin"),
			HandleMaterialUpload(cfg, materials, queueClient, extractor, pipeline))
		courses.GET("/materials", ListCourseMaterials(materials))
		courses.GET("/recordings", ListCourseRecordings(recordings))
	}

	api.GET("/materials/:materialID", CheckMaterialStatus(materials))
	api.DELETE("/materials/:materialID", auth.RequireRole("teacher", "admin"), DeleteMaterial(materials, store))

	api.GET("/recordings/:recordingID", GetRecording(recordings))
	api.POST("/recordings/:recordingID/process",
		auth.RequireRole("teacher", "admin"),
		HandleProcessRecording(recordings, queueClient))
}
