package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrConcurrentPublish is returned when another writer published the same
// version of an index concurrently.
var ErrConcurrentPublish = errors.New("s3: concurrent publish detected")

// currentPointer is the sentinel sort key holding the latest published version.
const currentPointer = "CURRENT"

// DDBClient is the subset of the DynamoDB API the catalog uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Catalog maps logical index names to their latest published blob.
//
// The table uses index_name as the partition key and version as the sort key.
// Publishing writes an immutable item for the new version, then flips the
// CURRENT pointer with a conditional write so concurrent publishers of the
// same version fail instead of clobbering each other.
type Catalog struct {
	client DDBClient
	table  string
}

// NewCatalog creates a catalog backed by the given DynamoDB table.
func NewCatalog(client DDBClient, table string) *Catalog {
	return &Catalog{client: client, table: table}
}

// Publish records blobName as version of the named index and moves the
// CURRENT pointer to it. The blob must already be fully written.
func (c *Catalog) Publish(ctx context.Context, indexName string, version uint64, blobName string) error {
	versionKey := formatVersion(version)

	// The per-version item is immutable once written.
	_, err := c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.table),
		Item: map[string]ddbtypes.AttributeValue{
			"index_name": &ddbtypes.AttributeValueMemberS{Value: indexName},
			"version":    &ddbtypes.AttributeValueMemberS{Value: versionKey},
			"blob_name":  &ddbtypes.AttributeValueMemberS{Value: blobName},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var cond *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return ErrConcurrentPublish
		}
		return fmt.Errorf("s3: publish version item: %w", err)
	}

	// Flip CURRENT only forward; a stale publisher loses the race.
	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.table),
		Item: map[string]ddbtypes.AttributeValue{
			"index_name": &ddbtypes.AttributeValueMemberS{Value: indexName},
			"version":    &ddbtypes.AttributeValueMemberS{Value: currentPointer},
			"target":     &ddbtypes.AttributeValueMemberS{Value: versionKey},
			"blob_name":  &ddbtypes.AttributeValueMemberS{Value: blobName},
		},
		ConditionExpression: aws.String("attribute_not_exists(version) OR target < :target"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":target": &ddbtypes.AttributeValueMemberS{Value: versionKey},
		},
	})
	if err != nil {
		var cond *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return ErrConcurrentPublish
		}
		return fmt.Errorf("s3: move current pointer: %w", err)
	}

	return nil
}

// Latest returns the blob name and version the CURRENT pointer resolves to.
func (c *Catalog) Latest(ctx context.Context, indexName string) (blobName string, version uint64, err error) {
	out, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.table),
		Key: map[string]ddbtypes.AttributeValue{
			"index_name": &ddbtypes.AttributeValueMemberS{Value: indexName},
			"version":    &ddbtypes.AttributeValueMemberS{Value: currentPointer},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", 0, fmt.Errorf("s3: read current pointer: %w", err)
	}
	if out.Item == nil {
		return "", 0, fmt.Errorf("s3: index %q: %w", indexName, errors.New("not published"))
	}

	blobAttr, ok := out.Item["blob_name"].(*ddbtypes.AttributeValueMemberS)
	if !ok {
		return "", 0, fmt.Errorf("s3: index %q: malformed catalog item", indexName)
	}
	targetAttr, ok := out.Item["target"].(*ddbtypes.AttributeValueMemberS)
	if !ok {
		return "", 0, fmt.Errorf("s3: index %q: malformed catalog item", indexName)
	}
	version, err = parseVersion(targetAttr.Value)
	if err != nil {
		return "", 0, fmt.Errorf("s3: index %q: %w", indexName, err)
	}

	return blobAttr.Value, version, nil
}

// Unpublish deletes the CURRENT pointer. Per-version items remain so that an
// operator can roll back by republishing an older version.
func (c *Catalog) Unpublish(ctx context.Context, indexName string) error {
	_, err := c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(c.table),
		Key: map[string]ddbtypes.AttributeValue{
			"index_name": &ddbtypes.AttributeValueMemberS{Value: indexName},
			"version":    &ddbtypes.AttributeValueMemberS{Value: currentPointer},
		},
	})
	if err != nil {
		return fmt.Errorf("s3: unpublish: %w", err)
	}
	return nil
}

// formatVersion renders versions as fixed-width strings so that DynamoDB's
// lexicographic ordering matches numeric ordering.
func formatVersion(v uint64) string {
	return fmt.Sprintf("v%020d", v)
}

func parseVersion(s string) (uint64, error) {
	if len(s) < 2 || s[0] != 'v' {
		return 0, fmt.Errorf("bad version key %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad version key %q", s)
	}
	return v, nil
}
