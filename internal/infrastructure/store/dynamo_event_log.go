package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/example/ec-orders/internal/domain/order"
)

// DynamoEventLog stores the order audit trail in DynamoDB. The table uses
// order_id as the partition key and created_at as the sort key; GSI1 has a
// fixed partition key so the full trail can be scanned in time order.
type DynamoEventLog struct {
	client    *dynamodb.Client
	tableName string
	publisher Publisher
}

type dynamoEvent struct {
	OrderID   string `dynamodbav:"order_id"`
	CreatedAt string `dynamodbav:"created_at"`
	ID        string `dynamodbav:"id"`
	EventType string `dynamodbav:"event_type"`
	Message   string `dynamodbav:"message"`
	Metadata  string `dynamodbav:"metadata"`
	GSI1PK    string `dynamodbav:"gsi1pk"`
}

func NewDynamoEventLog(client *dynamodb.Client, tableName string, publisher Publisher) *DynamoEventLog {
	return &DynamoEventLog{
		client:    client,
		tableName: tableName,
		publisher: publisher,
	}
}

func (l *DynamoEventLog) Record(ctx context.Context, orderID, eventType, message string, metadata map[string]any) (*order.Event, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}

	event := &order.Event{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		EventType: eventType,
		Message:   message,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}

	item := dynamoEvent{
		OrderID:   orderID,
		CreatedAt: event.CreatedAt.Format(time.RFC3339Nano),
		ID:        event.ID,
		EventType: eventType,
		Message:   message,
		Metadata:  string(metaJSON),
		GSI1PK:    "EVENTS",
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.tableName),
		Item:      av,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to put event: %w", err)
	}

	if l.publisher != nil {
		if err := l.publisher.Publish(ctx, orderID, event); err != nil {
			return nil, err
		}
	}

	return event, nil
}

func (l *DynamoEventLog) ListByOrder(ctx context.Context, orderID string) ([]*order.Event, error) {
	result, err := l.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(l.tableName),
		KeyConditionExpression: aws.String("order_id = :oid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":oid": &types.AttributeValueMemberS{Value: orderID},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	return l.unmarshalEvents(result.Items)
}

func (l *DynamoEventLog) HasEvent(ctx context.Context, orderID, eventType string) (bool, error) {
	result, err := l.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(l.tableName),
		KeyConditionExpression: aws.String("order_id = :oid"),
		FilterExpression:       aws.String("event_type = :et"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":oid": &types.AttributeValueMemberS{Value: orderID},
			":et":  &types.AttributeValueMemberS{Value: eventType},
		},
		Select: types.SelectCount,
	})
	if err != nil {
		return false, fmt.Errorf("failed to query events: %w", err)
	}

	return result.Count > 0, nil
}

// ListAll returns the full audit trail across orders via GSI1, oldest first.
func (l *DynamoEventLog) ListAll(ctx context.Context) ([]*order.Event, error) {
	result, err := l.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(l.tableName),
		IndexName:              aws.String("GSI1"),
		KeyConditionExpression: aws.String("gsi1pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: "EVENTS"},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	return l.unmarshalEvents(result.Items)
}

func (l *DynamoEventLog) unmarshalEvents(items []map[string]types.AttributeValue) ([]*order.Event, error) {
	events := make([]*order.Event, 0, len(items))

	for _, item := range items {
		var de dynamoEvent
		if err := attributevalue.UnmarshalMap(item, &de); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event: %w", err)
		}

		createdAt, _ := time.Parse(time.RFC3339Nano, de.CreatedAt)

		var metadata map[string]any
		if de.Metadata != "" {
			if err := json.Unmarshal([]byte(de.Metadata), &metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event metadata: %w", err)
			}
		}

		events = append(events, &order.Event{
			ID:        de.ID,
			OrderID:   de.OrderID,
			EventType: de.EventType,
			Message:   de.Message,
			Metadata:  metadata,
			CreatedAt: createdAt,
		})
	}

	return events, nil
}
