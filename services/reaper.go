package services

import (
	"context"
	"time"

	"course-assistant-platform/internal/logger"
	"course-assistant-platform/models"

	"github.com/go-co-op/gocron"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// StaleReaper fails documents stuck in "processing", usually left behind by
// a worker that died mid-job. Without it a crashed ingestion leaves the
// material spinning forever in the UI.
type StaleReaper struct {
	db         *mongo.Database
	staleAfter time.Duration
	scheduler  *gocron.Scheduler
}

func NewStaleReaper(db *mongo.Database, staleAfter time.Duration) *StaleReaper {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()

	return &StaleReaper{
		db:         db,
		staleAfter: staleAfter,
		scheduler:  s,
	}
}

// Start schedules the sweep to run every five minutes.
func (r *StaleReaper) Start() error {
	_, err := r.scheduler.Every(5 * time.Minute).Tag("stale-reaper").Do(func() {
		if err := r.Sweep(context.Background()); err != nil {
			logger.Error("Stale reaper sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	r.scheduler.StartAsync()
	return nil
}

func (r *StaleReaper) Stop() {
	r.scheduler.Stop()
}

// Sweep marks stale processing rows as failed in both collections.
func (r *StaleReaper) Sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-r.staleAfter)

	materials := r.db.Collection("course_materials")
	res, err := materials.UpdateMany(ctx,
		bson.M{"processing_status": models.StatusProcessing, "updated_at": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{
			"processing_status": models.StatusFailed,
			"error_message":     "processing timed out",
			"updated_at":        time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.ModifiedCount > 0 {
		logger.Warn("Failed stale materials", "count", res.ModifiedCount)
	}

	recordings := r.db.Collection("recordings")
	res, err = recordings.UpdateMany(ctx,
		bson.M{"status": models.StatusProcessing, "updated_at": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{
			"status":        models.StatusFailed,
			"error_message": "processing timed out",
			"updated_at":    time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.ModifiedCount > 0 {
		logger.Warn("Failed stale recordings", "count", res.ModifiedCount)
	}

	return nil
}
