package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	// Create indexes
	err = createIndexes(client, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

func createIndexes(client *mongo.Client, dbName string) error {
	db := client.Database(dbName)

	// Chunk index: course scoping for search, source key for ordered reads
	// and replace-on-reingest deletes.
	chunksCollection := db.Collection("document_chunks")
	chunkIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "course_id", Value: 1}}},
		{Keys: bson.D{
			{Key: "source_type", Value: 1},
			{Key: "source_id", Value: 1},
			{Key: "chunk_index", Value: 1},
		}},
		{Keys: bson.D{{Key: "course_id", Value: 1}, {Key: "source_type", Value: 1}}},
	}
	_, err := chunksCollection.Indexes().CreateMany(context.Background(), chunkIndexes)
	if err != nil {
		return err
	}

	// Course materials: per-course listing and pending/processing scans.
	materialsCollection := db.Collection("course_materials")
	materialIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "course_id", Value: 1}}},
		{Keys: bson.D{{Key: "processing_status", Value: 1}, {Key: "updated_at", Value: 1}}},
	}
	_, err = materialsCollection.Indexes().CreateMany(context.Background(), materialIndexes)
	if err != nil {
		return err
	}

	// Recordings
	recordingsCollection := db.Collection("recordings")
	recordingIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "course_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "updated_at", Value: 1}}},
	}
	_, err = recordingsCollection.Indexes().CreateMany(context.Background(), recordingIndexes)
	if err != nil {
		return err
	}

	return nil
}
