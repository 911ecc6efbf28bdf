package repository

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/olaysco/ecomm-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDynamo struct {
	getOut    *dynamodb.GetItemOutput
	putErr    error
	updateErr error
	scanPages []*dynamodb.ScanOutput

	puts    []*dynamodb.PutItemInput
	updates []*dynamodb.UpdateItemInput
	scans   []*dynamodb.ScanInput
}

func (f *fakeDynamo) GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.getOut == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return f.getOut, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates = append(f.updates, in)
	return &dynamodb.UpdateItemOutput{}, f.updateErr
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scans = append(f.scans, in)
	out := f.scanPages[0]
	f.scanPages = f.scanPages[1:]
	return out, nil
}

func item(t *testing.T, p *models.Product) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(toDDB(p))
	require.NoError(t, err)
	return av
}

func TestDynamoAdapter_FindByID(t *testing.T) {
	live := &models.Product{ID: "a", Name: "Widget", Slug: "widget-1", Brand: "Acme", Price: 3, Description: "d", Version: 2}
	repo := NewDynamoAdapter(&fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: item(t, live)}}, "Products")

	got, err := repo.FindByID(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)
	assert.Equal(t, int64(2), got.Version)

	deleted := *live
	deleted.IsDeleted = true
	repo = NewDynamoAdapter(&fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: item(t, &deleted)}}, "Products")
	_, err = repo.FindByID(context.Background(), "a")
	assert.ErrorIs(t, err, ErrNotFound)

	repo = NewDynamoAdapter(&fakeDynamo{}, "Products")
	_, err = repo.FindByID(context.Background(), "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDynamoAdapter_CreateWritesShadowAttributes(t *testing.T) {
	fake := &fakeDynamo{}
	repo := NewDynamoAdapter(fake, "Products")

	p := &models.Product{ID: "a", Name: "Big Widget", Slug: "big-widget-1", Brand: "ACME", Price: 3, Description: "d"}
	require.NoError(t, repo.Create(context.Background(), p))
	require.Len(t, fake.puts, 1)

	var stored ddbProduct
	require.NoError(t, attributevalue.UnmarshalMap(fake.puts[0].Item, &stored))
	assert.Equal(t, "big widget", stored.NameLC)
	assert.Equal(t, "acme", stored.BrandLC)
	assert.Equal(t, int64(1), stored.Version)
	assert.Equal(t, "attribute_not_exists(product_id)", *fake.puts[0].ConditionExpression)
}

func TestDynamoAdapter_FindBuildsFilterAndPages(t *testing.T) {
	a := &models.Product{ID: "a", Name: "A", Brand: "Acme", Price: 30}
	b := &models.Product{ID: "b", Name: "B", Brand: "Acme", Price: 10}
	c := &models.Product{ID: "c", Name: "C", Brand: "Acme", Price: 20}
	fake := &fakeDynamo{scanPages: []*dynamodb.ScanOutput{
		{Items: []map[string]types.AttributeValue{item(t, a), item(t, b)}, LastEvaluatedKey: map[string]types.AttributeValue{"product_id": &types.AttributeValueMemberS{Value: "b"}}},
		{Items: []map[string]types.AttributeValue{item(t, c)}},
	}}
	repo := NewDynamoAdapter(fake, "Products")

	got, err := repo.Find(context.Background(), ProductFilter{"brand": "ACME", "minPrice": "5"}, FindOptions{
		Sort:  []SortOption{{Field: "price"}},
		Limit: 2,
		Skip:  1,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "a", got[1].ID)

	require.Len(t, fake.scans, 2)
	assert.Equal(t, "#deleted = :false AND #brand_lc = :brand AND #price >= :minPrice", *fake.scans[0].FilterExpression)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "acme"}, fake.scans[0].ExpressionAttributeValues[":brand"])
}

func TestDynamoAdapter_Count(t *testing.T) {
	fake := &fakeDynamo{scanPages: []*dynamodb.ScanOutput{
		{Count: 3, LastEvaluatedKey: map[string]types.AttributeValue{"product_id": &types.AttributeValueMemberS{Value: "x"}}},
		{Count: 2},
	}}
	n, err := NewDynamoAdapter(fake, "Products").Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Equal(t, types.SelectCount, fake.scans[0].Select)
}

func TestDynamoAdapter_ReplaceConflict(t *testing.T) {
	stored := &models.Product{ID: "a", Name: "Widget", Version: 4}
	fake := &fakeDynamo{
		getOut: &dynamodb.GetItemOutput{Item: item(t, stored)},
		putErr: &types.ConditionalCheckFailedException{},
	}
	repo := NewDynamoAdapter(fake, "Products")

	p := &models.Product{ID: "a", Name: "Renamed", Version: 3}
	assert.ErrorIs(t, repo.Replace(context.Background(), p, 3), ErrVersionConflict)
	assert.Equal(t, "Renamed", p.Name)
	assert.Equal(t, int64(3), p.Version)
}

func TestDynamoAdapter_ReplaceSuccess(t *testing.T) {
	stored := &models.Product{ID: "a", Name: "Widget", Version: 3}
	fake := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: item(t, stored)}}
	repo := NewDynamoAdapter(fake, "Products")

	p := &models.Product{ID: "a", Name: "Renamed", Version: 3}
	require.NoError(t, repo.Replace(context.Background(), p, 3))
	assert.Equal(t, int64(4), p.Version)
	assert.Equal(t, &types.AttributeValueMemberN{Value: "3"}, fake.puts[0].ExpressionAttributeValues[":version"])
}

func TestDynamoAdapter_SoftDelete(t *testing.T) {
	fake := &fakeDynamo{}
	require.NoError(t, NewDynamoAdapter(fake, "Products").SoftDelete(context.Background(), "a"))
	require.Len(t, fake.updates, 1)
	assert.Contains(t, *fake.updates[0].UpdateExpression, "ADD version :one")

	fake = &fakeDynamo{updateErr: &types.ConditionalCheckFailedException{}}
	assert.ErrorIs(t, NewDynamoAdapter(fake, "Products").SoftDelete(context.Background(), "a"), ErrNotFound)
}

func TestDynamoAdapter_PutKeepsStoredFields(t *testing.T) {
	fake := &fakeDynamo{}
	repo := NewDynamoAdapter(fake, "Products")
	created := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)

	err := repo.Put(context.Background(), &models.Product{ID: "a", Name: "Widget", Slug: "widget-1", Brand: "Acme", Price: 3, Description: "d", Version: 7, CreatedAt: created, UpdatedAt: created})
	require.NoError(t, err)
	require.Len(t, fake.puts, 1)
	assert.Nil(t, fake.puts[0].ConditionExpression)

	var stored ddbProduct
	require.NoError(t, attributevalue.UnmarshalMap(fake.puts[0].Item, &stored))
	assert.Equal(t, int64(7), stored.Version)
	assert.Equal(t, created, stored.toModel().CreatedAt)
}
