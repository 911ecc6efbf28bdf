package repository

import (
	"context"
	"testing"
	"time"

	"github.com/olaysco/ecomm-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const productsNS = "ecomm.products"

func productDoc(id, name string, version int64) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: name},
		{Key: "slug", Value: "widget-1"},
		{Key: "brand", Value: "Acme"},
		{Key: "price", Value: 9.99},
		{Key: "description", Value: "A widget"},
		{Key: "isDeleted", Value: false},
		{Key: "version", Value: version},
		{Key: "createdAt", Value: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Key: "updatedAt", Value: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func TestBuildFilter(t *testing.T) {
	got := buildFilter(ProductFilter{"brand": "Acme", "minPrice": "5", "maxPrice": "abc"})
	assert.Equal(t, bson.M{
		"isDeleted": false,
		"brand":     "Acme",
		"price":     bson.M{"$gte": 5.0},
	}, got)

	assert.Equal(t, bson.M{"isDeleted": false}, buildFilter(nil))
}

func TestBuildSort_AddsIDTiebreaker(t *testing.T) {
	got := buildSort([]SortOption{{Field: "createdAt", Descending: true}})
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}, got)

	got = buildSort([]SortOption{{Field: "_id", Descending: true}})
	assert.Equal(t, bson.D{{Key: "_id", Value: -1}}, got)
}

func TestProductRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find decodes products", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, productsNS, mtest.FirstBatch,
			productDoc("a", "Widget", 1),
			productDoc("b", "Gadget", 1),
		))

		got, err := repo.Find(context.Background(), ProductFilter{"brand": "acme"}, FindOptions{Limit: 10})
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, "Widget", got[0].Name)
		assert.Equal(mt, int64(1), got[0].Version)
	})

	mt.Run("count", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, productsNS, mtest.FirstBatch,
			bson.D{{Key: "n", Value: int32(7)}},
		))

		n, err := repo.Count(context.Background(), nil)
		require.NoError(mt, err)
		assert.Equal(mt, int64(7), n)
	})

	mt.Run("find by id not found", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, productsNS, mtest.FirstBatch))

		_, err := repo.FindByID(context.Background(), "missing")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("create sets version and timestamps", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		p := &models.Product{ID: "a", Name: "Widget", Slug: "widget-1", Brand: "Acme", Price: 1, Description: "d"}
		require.NoError(mt, repo.Create(context.Background(), p))
		assert.Equal(mt, int64(1), p.Version)
		assert.False(mt, p.CreatedAt.IsZero())
	})

	mt.Run("create duplicate slug", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.Create(context.Background(), &models.Product{ID: "a", Slug: "widget-1"})
		assert.ErrorIs(mt, err, ErrDuplicateSlug)
	})

	mt.Run("replace bumps version", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		p := &models.Product{ID: "a", Name: "Widget", Version: 3}
		require.NoError(mt, repo.Replace(context.Background(), p, 3))
		assert.Equal(mt, int64(4), p.Version)
	})

	mt.Run("replace conflict when product still live", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, productsNS, mtest.FirstBatch, productDoc("a", "Widget", 5)),
		)

		p := &models.Product{ID: "a", Name: "Widget", Version: 3}
		err := repo.Replace(context.Background(), p, 3)
		assert.ErrorIs(mt, err, ErrVersionConflict)
		assert.Equal(mt, int64(3), p.Version)
	})

	mt.Run("replace not found when product gone", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, productsNS, mtest.FirstBatch),
		)

		err := repo.Replace(context.Background(), &models.Product{ID: "a"}, 1)
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("soft delete", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		require.NoError(mt, repo.SoftDelete(context.Background(), "a"))
	})

	mt.Run("soft delete missing", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		assert.ErrorIs(mt, repo.SoftDelete(context.Background(), "a"), ErrNotFound)
	})

	mt.Run("put upserts as is", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
		))
		p := &models.Product{ID: "a", Name: "Widget", Slug: "widget-1", Brand: "Acme", Price: 3, Description: "d", Version: 5}
		require.NoError(mt, repo.Put(context.Background(), p))
		assert.Equal(mt, int64(5), p.Version)
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(mt, repo.EnsureIndexes(context.Background()))
	})
}
