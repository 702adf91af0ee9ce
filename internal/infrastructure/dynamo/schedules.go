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

// ScheduleRepo manages shift assignments.
// PK: shift_date, SK: slot ("<shift_type>#<staff_id>").
type ScheduleRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewScheduleRepo(client *dynamodb.Client, tableName string) *ScheduleRepo {
	return &ScheduleRepo{client: client, tableName: tableName}
}

// ListByDate returns every entry on one date, all shifts.
func (r *ScheduleRepo) ListByDate(ctx context.Context, date string) ([]domain.ScheduleEntry, error) {
	return queryAll[domain.ScheduleEntry](ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    aws.String("shift_date = :d"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":d": strVal(date)},
	})
}

func (r *ScheduleRepo) GetByID(ctx context.Context, entryID string) (*domain.ScheduleEntry, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("entry_id-index"),
		KeyConditionExpression:    aws.String("entry_id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":id": strVal(entryID)},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("schedule entry not found: %w", domain.ErrNotFound)
	}
	var e domain.ScheduleEntry
	if err := attributevalue.UnmarshalMap(out.Items[0], &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// InsertMany writes all entries or none. An entry whose slot is already
// taken cancels the whole transaction with domain.ErrConflict.
func (r *ScheduleRepo) InsertMany(ctx context.Context, entries []domain.ScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	items := make([]types.TransactWriteItem, 0, len(entries))
	for i := range entries {
		put, err := r.conditionalPut(&entries[i])
		if err != nil {
			return err
		}
		items = append(items, put)
	}
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if isTxCanceled(err) {
		return fmt.Errorf("a staff member was scheduled for this shift concurrently: %w", domain.ErrConflict)
	}
	return err
}

// UpdateNotes rewrites the notes of an entry whose key is unchanged.
func (r *ScheduleRepo) UpdateNotes(ctx context.Context, e *domain.ScheduleEntry) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldNotes:     e.Notes,
		fieldUpdatedAt: e.UpdatedAt,
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey("shift_date", e.Date, "slot", e.Slot),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(slot)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("schedule entry not found: %w", domain.ErrNotFound)
	}
	return err
}

// Move replaces old with next atomically; next's slot must be free.
func (r *ScheduleRepo) Move(ctx context.Context, old, next *domain.ScheduleEntry) error {
	put, err := r.conditionalPut(next)
	if err != nil {
		return err
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{
				TableName:           aws.String(r.tableName),
				Key:                 compositeKey("shift_date", old.Date, "slot", old.Slot),
				ConditionExpression: aws.String("attribute_exists(slot)"),
			}},
			put,
		},
	})
	if isTxCanceled(err) {
		return fmt.Errorf("staff member is already scheduled for that shift: %w", domain.ErrConflict)
	}
	return err
}

func (r *ScheduleRepo) Delete(ctx context.Context, e *domain.ScheduleEntry) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 compositeKey("shift_date", e.Date, "slot", e.Slot),
		ConditionExpression: aws.String("attribute_exists(slot)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("schedule entry not found: %w", domain.ErrNotFound)
	}
	return err
}

func (r *ScheduleRepo) conditionalPut(e *domain.ScheduleEntry) (types.TransactWriteItem, error) {
	e.Slot = domain.SlotKey(e.ShiftType, e.StaffID)
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("marshal schedule entry: %w", err)
	}
	return types.TransactWriteItem{Put: &types.Put{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(slot)"),
	}}, nil
}
