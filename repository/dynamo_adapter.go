package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/olaysco/ecomm-api/models"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoAdapter.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoAdapter is a DynamoDB-backed ProductRepo. Products are keyed by
// `product_id`. Case-insensitive filters run against lower-cased shadow
// attributes; ordering and paging happen in memory after the scan.
type DynamoAdapter struct {
	client DynamoAPI
	table  string
	now    func() time.Time
}

func NewDynamoAdapter(client DynamoAPI, table string) *DynamoAdapter {
	return &DynamoAdapter{
		client: client,
		table:  table,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type ddbProduct struct {
	ProductID   string   `dynamodbav:"product_id"`
	Name        string   `dynamodbav:"name"`
	NameLC      string   `dynamodbav:"name_lc"`
	Slug        string   `dynamodbav:"slug"`
	SlugLC      string   `dynamodbav:"slug_lc"`
	Brand       string   `dynamodbav:"brand"`
	BrandLC     string   `dynamodbav:"brand_lc"`
	Price       float64  `dynamodbav:"price"`
	Weight      *float64 `dynamodbav:"weight,omitempty"`
	Height      *float64 `dynamodbav:"height,omitempty"`
	Description string   `dynamodbav:"description"`
	IsDeleted   bool     `dynamodbav:"is_deleted"`
	Version     int64    `dynamodbav:"version"`
	CreatedAt   string   `dynamodbav:"created_at"`
	UpdatedAt   string   `dynamodbav:"updated_at"`
}

func toDDB(p *models.Product) ddbProduct {
	return ddbProduct{
		ProductID:   p.ID,
		Name:        p.Name,
		NameLC:      strings.ToLower(p.Name),
		Slug:        p.Slug,
		SlugLC:      strings.ToLower(p.Slug),
		Brand:       p.Brand,
		BrandLC:     strings.ToLower(p.Brand),
		Price:       p.Price,
		Weight:      p.Weight,
		Height:      p.Height,
		Description: p.Description,
		IsDeleted:   p.IsDeleted,
		Version:     p.Version,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func (dp ddbProduct) toModel() *models.Product {
	p := &models.Product{
		ID:          dp.ProductID,
		Name:        dp.Name,
		Slug:        dp.Slug,
		Brand:       dp.Brand,
		Price:       dp.Price,
		Weight:      dp.Weight,
		Height:      dp.Height,
		Description: dp.Description,
		IsDeleted:   dp.IsDeleted,
		Version:     dp.Version,
	}
	if t, err := time.Parse(time.RFC3339Nano, dp.CreatedAt); err == nil {
		p.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, dp.UpdatedAt); err == nil {
		p.UpdatedAt = t
	}
	return p
}

func (d *DynamoAdapter) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"product_id": &types.AttributeValueMemberS{Value: id}}
}

func (d *DynamoAdapter) FindByID(ctx context.Context, id string) (*models.Product, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            d.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var dp ddbProduct
	if err := attributevalue.UnmarshalMap(out.Item, &dp); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	if dp.IsDeleted {
		return nil, ErrNotFound
	}
	return dp.toModel(), nil
}

func (d *DynamoAdapter) Create(ctx context.Context, product *models.Product) error {
	now := d.now()
	product.CreatedAt = now
	product.UpdatedAt = now
	product.Version = 1
	product.IsDeleted = false

	item, err := attributevalue.MarshalMap(toDDB(product))
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(product_id)"),
	})
	if err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

func (d *DynamoAdapter) Replace(ctx context.Context, product *models.Product, expectedVersion int64) error {
	current, err := d.FindByID(ctx, product.ID)
	if err != nil {
		return err
	}

	next := *product
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = d.now()
	next.Version = expectedVersion + 1
	next.IsDeleted = false

	item, err := attributevalue.MarshalMap(toDDB(&next))
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(product_id) AND is_deleted = :false AND version = :version"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":false":   &types.AttributeValueMemberBOOL{Value: false},
			":version": &types.AttributeValueMemberN{Value: strconv.FormatInt(expectedVersion, 10)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			if _, ferr := d.FindByID(ctx, product.ID); ferr != nil {
				return ferr
			}
			return ErrVersionConflict
		}
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}

	*product = next
	return nil
}

func (d *DynamoAdapter) SoftDelete(ctx context.Context, id string) error {
	_, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(d.table),
		Key:                 d.key(id),
		UpdateExpression:    aws.String("SET is_deleted = :true, updated_at = :now ADD version :one"),
		ConditionExpression: aws.String("attribute_exists(product_id) AND is_deleted = :false"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true":  &types.AttributeValueMemberBOOL{Value: true},
			":false": &types.AttributeValueMemberBOOL{Value: false},
			":now":   &types.AttributeValueMemberS{Value: d.now().Format(time.RFC3339Nano)},
			":one":   &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("update item failed: %w", err)
	}
	return nil
}

// scanFilter builds the FilterExpression shared by Find and Count.
func scanFilter(filter ProductFilter) (string, map[string]string, map[string]types.AttributeValue) {
	conds := []string{"#deleted = :false"}
	names := map[string]string{"#deleted": "is_deleted"}
	values := map[string]types.AttributeValue{":false": &types.AttributeValueMemberBOOL{Value: false}}

	for _, key := range []string{"name", "slug", "brand"} {
		v, ok := filter[key]
		if !ok {
			continue
		}
		attr := key + "_lc"
		conds = append(conds, fmt.Sprintf("#%s = :%s", attr, key))
		names["#"+attr] = attr
		values[":"+key] = &types.AttributeValueMemberS{Value: strings.ToLower(v)}
	}

	lo, hi := priceBounds(filter)
	if lo != nil || hi != nil {
		names["#price"] = "price"
	}
	if lo != nil {
		conds = append(conds, "#price >= :minPrice")
		values[":minPrice"] = &types.AttributeValueMemberN{Value: strconv.FormatFloat(*lo, 'f', -1, 64)}
	}
	if hi != nil {
		conds = append(conds, "#price <= :maxPrice")
		values[":maxPrice"] = &types.AttributeValueMemberN{Value: strconv.FormatFloat(*hi, 'f', -1, 64)}
	}

	return strings.Join(conds, " AND "), names, values
}

// Find scans every matching item, then orders and pages in memory.
func (d *DynamoAdapter) Find(ctx context.Context, filter ProductFilter, opts FindOptions) ([]*models.Product, error) {
	expr, names, values := scanFilter(filter)
	paginator := dynamodb.NewScanPaginator(d.client, &dynamodb.ScanInput{
		TableName:                 aws.String(d.table),
		FilterExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})

	var results []*models.Product
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan page failed: %w", err)
		}
		for _, it := range out.Items {
			var dp ddbProduct
			if err := attributevalue.UnmarshalMap(it, &dp); err != nil {
				return nil, fmt.Errorf("unmarshal item: %w", err)
			}
			results = append(results, dp.toModel())
		}
	}

	sortProducts(results, opts.Sort)
	return page(results, opts.Skip, opts.Limit), nil
}

func (d *DynamoAdapter) Count(ctx context.Context, filter ProductFilter) (int64, error) {
	expr, names, values := scanFilter(filter)
	paginator := dynamodb.NewScanPaginator(d.client, &dynamodb.ScanInput{
		TableName:                 aws.String(d.table),
		Select:                    types.SelectCount,
		FilterExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})

	var total int64
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("scan count failed: %w", err)
		}
		total += int64(out.Count)
	}
	return total, nil
}

// EnsureIndexes is a no-op: the table is provisioned by infrastructure code.
func (d *DynamoAdapter) EnsureIndexes(context.Context) error {
	return nil
}

// Put writes the item unconditionally.
func (d *DynamoAdapter) Put(ctx context.Context, product *models.Product) error {
	item, err := attributevalue.MarshalMap(toDDB(product))
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}
