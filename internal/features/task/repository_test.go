package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoTaskRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert batch", func(mt *mtest.T) {
		repo := &TaskRepositoryImpl{Collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		n, err := repo.InsertBatch(context.Background(), []Task{
			{SiteName: "Alpha", ImportID: "imp-1", ImportRow: 2},
			{SiteName: "Beta", ImportID: "imp-1", ImportRow: 3},
		})
		require.NoError(mt, err)
		assert.Equal(mt, 2, n)
	})

	mt.Run("insert batch replay skips duplicates", func(mt *mtest.T) {
		repo := &TaskRepositoryImpl{Collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		n, err := repo.InsertBatch(context.Background(), []Task{
			{SiteName: "Alpha", ImportID: "imp-1", ImportRow: 2},
			{SiteName: "Beta", ImportID: "imp-1", ImportRow: 3},
		})
		require.NoError(mt, err)
		assert.Equal(mt, 1, n)
	})

	mt.Run("insert batch other write error", func(mt *mtest.T) {
		repo := &TaskRepositoryImpl{Collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    121,
			Message: "document failed validation",
		}))

		_, err := repo.InsertBatch(context.Background(), []Task{{SiteName: "Alpha"}})
		assert.Error(mt, err)
	})

	mt.Run("list", func(mt *mtest.T) {
		repo := &TaskRepositoryImpl{Collection: mt.Coll}
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "t1"},
				{Key: "category", Value: "Retunes"},
				{Key: "site_name", Value: "Alpha"},
				{Key: "node_id", Value: "N1"},
				{Key: "status", Value: "Done"},
			},
		))

		tasks, err := repo.List(context.Background(), TaskFilter{Search: "alp"})
		require.NoError(mt, err)
		require.Len(mt, tasks, 1)
		assert.Equal(mt, "t1", tasks[0].ID)
		assert.Equal(mt, "Alpha", tasks[0].SiteName)
	})

	mt.Run("count by status", func(mt *mtest.T) {
		repo := &TaskRepositoryImpl{Collection: mt.Coll}
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "Done"}, {Key: "count", Value: int64(4)}},
			bson.D{{Key: "_id", Value: "Planned"}, {Key: "count", Value: int64(2)}},
		))

		counts, err := repo.CountByStatus(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, map[string]int64{"Done": 4, "Planned": 2}, counts)
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		repo := &TaskRepositoryImpl{Collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		assert.NoError(mt, repo.EnsureIndexes(context.Background()))
	})
}
