package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/olaysco/ecomm-api/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// caseInsensitive makes equality and ordering ignore case.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

type ProductRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		collection: db.Collection("products"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// buildFilter turns the allow-listed filter into a Mongo query that only
// matches live products.
func buildFilter(filter ProductFilter) bson.M {
	query := bson.M{"isDeleted": false}
	for _, key := range []string{"name", "slug", "brand"} {
		if v, ok := filter[key]; ok {
			query[key] = v
		}
	}

	lo, hi := priceBounds(filter)
	if lo != nil || hi != nil {
		price := bson.M{}
		if lo != nil {
			price["$gte"] = *lo
		}
		if hi != nil {
			price["$lte"] = *hi
		}
		query["price"] = price
	}
	return query
}

func buildSort(keys []SortOption) bson.D {
	sort := bson.D{}
	hasID := false
	for _, k := range keys {
		dir := 1
		if k.Descending {
			dir = -1
		}
		field := k.Field
		if field == "id" {
			field = "_id"
		}
		if field == "_id" {
			hasID = true
		}
		sort = append(sort, bson.E{Key: field, Value: dir})
	}
	if !hasID {
		sort = append(sort, bson.E{Key: "_id", Value: 1})
	}
	return sort
}

func (r *ProductRepository) Find(ctx context.Context, filter ProductFilter, opts FindOptions) ([]*models.Product, error) {
	findOptions := options.Find().
		SetCollation(caseInsensitive).
		SetSort(buildSort(opts.Sort)).
		SetSkip(int64(opts.Skip))
	if opts.Limit > 0 {
		findOptions.SetLimit(int64(opts.Limit))
	}

	cursor, err := r.collection.Find(ctx, buildFilter(filter), findOptions)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []*models.Product{}
	if err = cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func (r *ProductRepository) Count(ctx context.Context, filter ProductFilter) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, buildFilter(filter), options.Count().SetCollation(caseInsensitive))
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "isDeleted": false}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product %s: %w", id, err)
	}
	return &product, nil
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	now := r.now()
	product.CreatedAt = now
	product.UpdatedAt = now
	product.Version = 1
	product.IsDeleted = false

	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) Replace(ctx context.Context, product *models.Product, expectedVersion int64) error {
	filter := bson.M{"_id": product.ID, "isDeleted": false, "version": expectedVersion}
	if expectedVersion == 0 {
		// documents written before versioning have no version field
		filter["version"] = bson.M{"$in": bson.A{0, nil}}
	}

	next := *product
	next.Version = expectedVersion + 1
	next.UpdatedAt = r.now()
	next.IsDeleted = false

	res, err := r.collection.ReplaceOne(ctx, filter, &next)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("replace product %s: %w", product.ID, err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.FindByID(ctx, product.ID); err != nil {
			return err
		}
		return ErrVersionConflict
	}

	*product = next
	return nil
}

func (r *ProductRepository) SoftDelete(ctx context.Context, id string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "isDeleted": false},
		bson.M{
			"$set": bson.M{"isDeleted": true, "updatedAt": r.now()},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("soft delete product %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "brand", Value: 1}},
			Options: options.Index().SetCollation(caseInsensitive),
		},
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "isDeleted", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("ensure product indexes: %w", err)
	}
	return nil
}

// Put upserts the product document as is.
func (r *ProductRepository) Put(ctx context.Context, product *models.Product) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": product.ID}, product, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("put product: %w", err)
	}
	return nil
}
