package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"time"

	"go-fwpm/internal/common/models"
	"go-fwpm/internal/config"
	"go-fwpm/internal/database"
	"go-fwpm/internal/features/task"

	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// seedImportID tags the demo rows so a second run inserts nothing
const seedImportID = "00000000-0000-4000-8000-0000000000de"

const demoTasks = 40

func main() {
	// Initialize Config & DB
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeRepo()

	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}

	fmt.Printf("🌱 Seeding %d demo tasks into the %s store...\n", demoTasks, cfg.TaskStore)

	inserted, err := repo.InsertBatch(ctx, demoData(time.Now()))
	if err != nil {
		log.Fatalf("Failed to seed tasks: %v", err)
	}

	fmt.Printf("✅ Inserted %d task(s), %d already present\n", inserted, demoTasks-inserted)
}

func openRepository(ctx context.Context, cfg *config.Config) (task.TaskRepository, func(), error) {
	if cfg.TaskStore == config.TaskStorePostgres {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return task.NewPostgresTaskRepository(&database.PostgresDB{DB: db}), func() { db.Close() }, nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, err
	}
	mongoDB := &database.MongodbDB{Client: client, DB: client.Database(cfg.DBName)}
	return task.NewTaskRepository(mongoDB), func() { client.Disconnect(context.Background()) }, nil
}

func demoData(now time.Time) []task.Task {
	r := rand.New(rand.NewSource(42))
	sites := []string{"SITE_A", "SITE_B", "SITE_C", "SITE_D"}
	people := []string{"jdoe", "asmith", "mlopez", "kchen"}

	tasks := make([]task.Task, demoTasks)
	for i := range tasks {
		created := now.AddDate(0, 0, -r.Intn(60))
		site := randomChoice(r, sites)
		category := randomChoice(r, models.Categories)
		tasks[i] = task.Task{
			Category:    category,
			SiteName:    site,
			NodeID:      fmt.Sprintf("NODE_%03d", i+1),
			Implementor: randomChoice(r, people),
			Status:      randomChoice(r, models.Statuses),
			ScriptsPath: fmt.Sprintf("/scripts/%s/%s.mos", site, category),
			DateCreated: created.Format(models.DateLayout),
			LastUpdated: created.AddDate(0, 0, r.Intn(5)).Format(models.DateLayout),
			ImportID:    seedImportID,
			ImportRow:   i + 2,
		}
	}
	return tasks
}

func randomChoice(r *rand.Rand, choices []string) string {
	return choices[r.Intn(len(choices))]
}
