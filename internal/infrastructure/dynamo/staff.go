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

// StaffRepo provides typed DynamoDB operations for the staff table.
// Username and email uniqueness is held by guard items in the uniques table.
type StaffRepo struct {
	client       *dynamodb.Client
	tableName    string
	uniquesTable string
}

func NewStaffRepo(client *dynamodb.Client, tableName, uniquesTable string) *StaffRepo {
	return &StaffRepo{client: client, tableName: tableName, uniquesTable: uniquesTable}
}

// Create writes the staff item together with its username and email guards.
func (r *StaffRepo) Create(ctx context.Context, s *domain.Staff) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal staff: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(staff_id)"),
			}},
			putGuard(r.uniquesTable, guardKey("username", s.Username), s.StaffID),
			putGuard(r.uniquesTable, guardKey("email", s.Email), s.StaffID),
		},
	})
	if isTxCanceled(err) {
		return fmt.Errorf("username or email already in use: %w", domain.ErrConflict)
	}
	return err
}

func (r *StaffRepo) Get(ctx context.Context, staffID string) (*domain.Staff, error) {
	s, ok, err := getItem[domain.Staff](ctx, r.client, r.tableName, strKey("staff_id", staffID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("staff member not found: %w", domain.ErrNotFound)
	}
	return s, nil
}

func (r *StaffRepo) GetByUsername(ctx context.Context, username string) (*domain.Staff, error) {
	return r.queryGSI(ctx, "username-index", "username", username)
}

func (r *StaffRepo) GetByEmail(ctx context.Context, email string) (*domain.Staff, error) {
	return r.queryGSI(ctx, "email-index", "email", email)
}

// Update applies a partial update to an existing staff item.
func (r *StaffRepo) Update(ctx context.Context, staffID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(withUpdatedAt(updates))
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("staff_id", staffID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(staff_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("staff member not found: %w", domain.ErrNotFound)
	}
	return err
}

// ChangeEmail moves the email guard and applies updates in one transaction.
func (r *StaffRepo) ChangeEmail(ctx context.Context, staffID, oldEmail, newEmail string, updates map[string]interface{}) error {
	updates[fieldEmail] = newEmail
	ue, err := buildUpdateExpr(withUpdatedAt(updates))
	if err != nil {
		return err
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Update: &types.Update{
				TableName:                 aws.String(r.tableName),
				Key:                       strKey("staff_id", staffID),
				UpdateExpression:          aws.String(ue.Expr),
				ConditionExpression:       aws.String("attribute_exists(staff_id)"),
				ExpressionAttributeNames:  ue.Names,
				ExpressionAttributeValues: ue.Values,
			}},
			deleteGuard(r.uniquesTable, guardKey("email", oldEmail)),
			putGuard(r.uniquesTable, guardKey("email", newEmail), staffID),
		},
	})
	if isTxCanceled(err) {
		return fmt.Errorf("email already in use: %w", domain.ErrConflict)
	}
	return err
}

func (r *StaffRepo) SetEnable(ctx context.Context, staffID string, enable int) error {
	return r.Update(ctx, staffID, map[string]interface{}{fieldEnable: enable})
}

func (r *StaffRepo) SetPassword(ctx context.Context, staffID, hash string) error {
	return r.Update(ctx, staffID, map[string]interface{}{fieldPasswordHash: hash})
}

// ListActive returns enabled staff, optionally restricted to one role.
func (r *StaffRepo) ListActive(ctx context.Context, role string) ([]domain.Staff, error) {
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("enable-index"),
		KeyConditionExpression:    aws.String("#e = :one"),
		ExpressionAttributeNames:  map[string]string{"#e": fieldEnable},
		ExpressionAttributeValues: map[string]types.AttributeValue{":one": numVal(1)},
	}
	if role != "" {
		input.FilterExpression = aws.String("#r = :role")
		input.ExpressionAttributeNames["#r"] = "role"
		input.ExpressionAttributeValues[":role"] = strVal(role)
	}
	return queryAll[domain.Staff](ctx, r.client, input)
}

// List returns every staff member, active or not.
func (r *StaffRepo) List(ctx context.Context) ([]domain.Staff, error) {
	return scanAll[domain.Staff](ctx, r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
}

func (r *StaffRepo) queryGSI(ctx context.Context, index, attr, value string) (*domain.Staff, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": strVal(value)},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("staff member not found: %w", domain.ErrNotFound)
	}
	var s domain.Staff
	if err := attributevalue.UnmarshalMap(out.Items[0], &s); err != nil {
		return nil, err
	}
	return &s, nil
}
