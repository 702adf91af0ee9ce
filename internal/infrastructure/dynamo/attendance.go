package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shefaa-icu/internal/domain"
)

// AttendanceRepo stores check-in/check-out logs.
// PK: staff_id, SK: work_date, GSI: work_date-index.
type AttendanceRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAttendanceRepo(client *dynamodb.Client, tableName string) *AttendanceRepo {
	return &AttendanceRepo{client: client, tableName: tableName}
}

// CheckIn creates the day's log; a second check-in the same day is a conflict.
func (r *AttendanceRepo) CheckIn(ctx context.Context, l *domain.AttendanceLog) error {
	item, err := attributevalue.MarshalMap(l)
	if err != nil {
		return fmt.Errorf("marshal attendance log: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(work_date)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("already checked in today: %w", domain.ErrConflict)
	}
	return err
}

func (r *AttendanceRepo) Get(ctx context.Context, staffID, workDate string) (*domain.AttendanceLog, error) {
	l, ok, err := getItem[domain.AttendanceLog](ctx, r.client, r.tableName, compositeKey("staff_id", staffID, "work_date", workDate))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no check-in recorded for %s: %w", workDate, domain.ErrNotFound)
	}
	return l, nil
}

// CheckOut closes an open log exactly once.
func (r *AttendanceRepo) CheckOut(ctx context.Context, staffID, workDate string, at time.Time, workedMinutes int) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldCheckOut:   at,
		fieldWorkedMins: workedMinutes,
	})
	if err != nil {
		return err
	}
	ue.Names["#co"] = fieldCheckOut
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey("staff_id", staffID, "work_date", workDate),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(work_date) AND attribute_not_exists(#co)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("already checked out today: %w", domain.ErrConflict)
	}
	return err
}

func (r *AttendanceRepo) ListByDate(ctx context.Context, workDate string) ([]domain.AttendanceLog, error) {
	return queryAll[domain.AttendanceLog](ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("work_date-index"),
		KeyConditionExpression:    aws.String("work_date = :d"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":d": strVal(workDate)},
	})
}

// ListByStaff returns one staff member's logs between from and to inclusive.
func (r *AttendanceRepo) ListByStaff(ctx context.Context, staffID, from, to string) ([]domain.AttendanceLog, error) {
	return queryAll[domain.AttendanceLog](ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("staff_id = :s AND work_date BETWEEN :from AND :to"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s":    strVal(staffID),
			":from": strVal(from),
			":to":   strVal(to),
		},
	})
}
