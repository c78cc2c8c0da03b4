package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-fwpm/internal/config"
	"go-fwpm/internal/database"
	import_feature "go-fwpm/internal/features/import"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Purges import attempts and spooled uploads older than IMPORT_RETENTION_HOURS
// once, for deployments that do not run the in-process scheduler.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := &database.MongodbDB{Client: client, DB: client.Database(cfg.DBName)}
	if err := db.Ping(ctx); err != nil {
		log.Fatalf("Failed to reach MongoDB: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	service := &import_feature.ImportServiceImpl{
		AttemptRepo: import_feature.NewAttemptRepository(db),
		Logger:      logger,
		SpoolDir:    cfg.FSPath,
	}

	cutoff := time.Now().Add(-time.Duration(cfg.ImportRetentionHours) * time.Hour)
	fmt.Printf("Purging import attempts created before %s\n", cutoff.Format(time.RFC3339))

	n, err := service.PurgeExpired(ctx, cutoff)
	if err != nil {
		log.Fatalf("Cleanup failed: %v", err)
	}

	fmt.Printf("Cleanup complete. Removed %d attempt(s).\n", n)
}
