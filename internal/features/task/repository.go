package task

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go-fwpm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TaskRepository interface {
	List(ctx context.Context, filter TaskFilter) ([]Task, error)
	Create(ctx context.Context, task *Task) error
	// InsertBatch stores tasks and returns how many were new. Tasks whose
	// (ImportID, ImportRow) already exist are skipped silently.
	InsertBatch(ctx context.Context, tasks []Task) (int, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	EnsureIndexes(ctx context.Context) error
}

const duplicateKeyCode = 11000

type TaskRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewTaskRepository(mongodb *database.MongodbDB) *TaskRepositoryImpl {
	return &TaskRepositoryImpl{
		Collection: mongodb.DB.Collection("implementation_tasks"),
	}
}

func (r *TaskRepositoryImpl) List(ctx context.Context, filter TaskFilter) ([]Task, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"site_name": pattern},
			bson.M{"node_id": pattern},
			bson.M{"implementor": pattern},
		}
	}

	order := -1
	if strings.EqualFold(filter.SortOrder, "asc") {
		order = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: sortColumn(filter.SortBy), Value: order}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := r.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tasks := []Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *Task) error {
	prepare(task)
	_, err := r.Collection.InsertOne(ctx, task)
	return err
}

func (r *TaskRepositoryImpl) InsertBatch(ctx context.Context, tasks []Task) (int, error) {
	if len(tasks) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, len(tasks))
	for i := range tasks {
		prepare(&tasks[i])
		docs[i] = tasks[i]
	}

	_, err := r.Collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return len(tasks), nil
	}

	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil {
		return 0, err
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != duplicateKeyCode {
			return 0, err
		}
	}
	return len(tasks) - len(bwe.WriteErrors), nil
}

func (r *TaskRepositoryImpl) CountByStatus(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *TaskRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "import_id", Value: 1}, {Key: "import_row", Value: 1}},
			Options: options.Index().
				SetName("import_id_row_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"import_id": bson.M{"$exists": true}}),
		},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	return err
}

func prepare(task *Task) {
	if task.ID == "" {
		task.ID = primitive.NewObjectID().Hex()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
}
