package import_feature

import (
	"context"
	"errors"
	"time"

	"go-fwpm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrAttemptNotFound  = errors.New("import attempt not found")
	ErrImportInProgress = errors.New("import is already being processed")
)

type AttemptRepository interface {
	Get(ctx context.Context, id string) (*ImportAttempt, error)
	// Claim stores attempt as processing unless an attempt with the same id
	// is completed, or is processing and was updated at or after staleBefore.
	// Those cases return ErrImportInProgress.
	Claim(ctx context.Context, attempt *ImportAttempt, staleBefore time.Time) error
	Update(ctx context.Context, attempt *ImportAttempt) error
	// DeleteOlderThan removes finished attempts created before cutoff, and
	// processing attempts not updated since cutoff, and returns them so their
	// spooled files can be removed too.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]ImportAttempt, error)
}

type AttemptRepositoryImpl struct {
	collection *mongo.Collection
}

func NewAttemptRepository(db *database.MongodbDB) AttemptRepository {
	return &AttemptRepositoryImpl{
		collection: db.DB.Collection("import_attempts"),
	}
}

func (r *AttemptRepositoryImpl) Get(ctx context.Context, id string) (*ImportAttempt, error) {
	var attempt ImportAttempt
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&attempt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *AttemptRepositoryImpl) Claim(ctx context.Context, attempt *ImportAttempt, staleBefore time.Time) error {
	now := time.Now()
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = now
	}
	attempt.UpdatedAt = now
	attempt.Status = AttemptProcessing

	// a blocked filter falls through to the upsert, which collides on _id
	filter := bson.M{
		"_id": attempt.ID,
		"$or": bson.A{
			bson.M{"status": bson.M{"$nin": bson.A{AttemptProcessing, AttemptCompleted}}},
			bson.M{"status": AttemptProcessing, "updated_at": bson.M{"$lt": staleBefore}},
		},
	}
	_, err := r.collection.ReplaceOne(ctx, filter, attempt, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return ErrImportInProgress
	}
	return err
}

func (r *AttemptRepositoryImpl) Update(ctx context.Context, attempt *ImportAttempt) error {
	attempt.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": attempt.ID}, attempt)
	return err
}

func (r *AttemptRepositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]ImportAttempt, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"status": bson.M{"$ne": AttemptProcessing}, "created_at": bson.M{"$lt": cutoff}},
			bson.M{"status": AttemptProcessing, "updated_at": bson.M{"$lt": cutoff}},
		},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var attempts []ImportAttempt
	if err := cursor.All(ctx, &attempts); err != nil {
		return nil, err
	}
	if len(attempts) == 0 {
		return nil, nil
	}

	ids := make(bson.A, len(attempts))
	for i, a := range attempts {
		ids[i] = a.ID
	}
	if _, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return nil, err
	}
	return attempts, nil
}
