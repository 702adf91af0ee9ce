package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shefaa-icu/internal/domain"
)

const notificationsByStaff = "staff_id-created_at-index"

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNotificationRepo(client *dynamodb.Client, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

func (r *NotificationRepo) Put(ctx context.Context, n *domain.Notification) error {
	return putItem(ctx, r.client, r.tableName, n)
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	n, ok, err := getItem[domain.Notification](ctx, r.client, r.tableName, strKey("notification_id", notificationID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	return n, nil
}

// List returns the newest notifications of a staff member.
func (r *NotificationRepo) List(ctx context.Context, staffID string, limit int32) ([]domain.Notification, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(notificationsByStaff),
		KeyConditionExpression:    aws.String("staff_id = :sid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":sid": strVal(staffID)},
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(limit),
	})
	if err != nil {
		return nil, err
	}
	var notifications []domain.Notification
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// ListUnread queries the staff_id-created_at GSI and filters for read=0.
func (r *NotificationRepo) ListUnread(ctx context.Context, staffID string) ([]domain.Notification, error) {
	return queryAll[domain.Notification](ctx, r.client, r.unreadQuery(staffID))
}

func (r *NotificationRepo) CountUnread(ctx context.Context, staffID string) (int, error) {
	input := r.unreadQuery(staffID)
	input.Select = types.SelectCount
	total := 0
	p := dynamodb.NewQueryPaginator(r.client, input)
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		total += int(out.Count)
	}
	return total, nil
}

func (r *NotificationRepo) MarkAsRead(ctx context.Context, notificationID string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldRead: 1})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("notification_id", notificationID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *NotificationRepo) unreadQuery(staffID string) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String(notificationsByStaff),
		KeyConditionExpression:   aws.String("staff_id = :sid"),
		FilterExpression:         aws.String("#r = :zero"),
		ExpressionAttributeNames: map[string]string{"#r": fieldRead},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sid":  strVal(staffID),
			":zero": numVal(0),
		},
		ScanIndexForward: aws.Bool(false),
	}
}
