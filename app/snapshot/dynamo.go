package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoBackend
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// dynamoItem is one stored record. pk is "<instance id>#<key>" so several
// installations can share a table.
type dynamoItem struct {
	PK         string `dynamodbav:"pk"`
	Value      []byte `dynamodbav:"value"`
	InstanceID string `dynamodbav:"instance_id,omitempty"`
	UpdatedAt  int64  `dynamodbav:"updated_at"`
}

// DynamoBackend stores records in a DynamoDB table with a string partition key "pk"
type DynamoBackend struct {
	client     DynamoAPI
	table      string
	instanceID string
	now        func() time.Time
}

// NewDynamoBackend loads the default AWS configuration and creates a backend
func NewDynamoBackend(ctx context.Context, table, instanceID string) (*DynamoBackend, error) {
	if table == "" {
		return nil, fmt.Errorf("dynamodb table name is empty")
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewDynamoBackendWithClient(dynamodb.NewFromConfig(cfg), table, instanceID), nil
}

// NewDynamoBackendWithClient creates a backend around an existing client
func NewDynamoBackendWithClient(client DynamoAPI, table, instanceID string) *DynamoBackend {
	return &DynamoBackend{
		client:     client,
		table:      table,
		instanceID: instanceID,
		now:        time.Now,
	}
}

func (d *DynamoBackend) pk(key string) string {
	if d.instanceID == "" {
		return key
	}
	return d.instanceID + "#" + key
}

func (d *DynamoBackend) itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: d.pk(key)},
	}
}

// Get implements Backend
func (d *DynamoBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            d.itemKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get snapshot item: %w", err)
	}
	if len(result.Item) == 0 {
		return nil, false, nil
	}
	var item dynamoItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal snapshot item: %w", err)
	}
	return item.Value, true, nil
}

// Set implements Backend
func (d *DynamoBackend) Set(ctx context.Context, key string, value []byte) error {
	item, err := attributevalue.MarshalMap(dynamoItem{
		PK:         d.pk(key),
		Value:      value,
		InstanceID: d.instanceID,
		UpdatedAt:  d.now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot item: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put snapshot item: %w", err)
	}
	return nil
}

// Remove implements Backend
func (d *DynamoBackend) Remove(ctx context.Context, key string) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.table),
		Key:       d.itemKey(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot item: %w", err)
	}
	return nil
}
