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

// RoomRepo provides typed DynamoDB operations for the rooms table.
// Assignment touches the patients table in the same transaction.
type RoomRepo struct {
	client        *dynamodb.Client
	tableName     string
	patientsTable string
	uniquesTable  string
}

func NewRoomRepo(client *dynamodb.Client, tableName, patientsTable, uniquesTable string) *RoomRepo {
	return &RoomRepo{client: client, tableName: tableName, patientsTable: patientsTable, uniquesTable: uniquesTable}
}

func (r *RoomRepo) Create(ctx context.Context, room *domain.Room) error {
	item, err := attributevalue.MarshalMap(room)
	if err != nil {
		return fmt.Errorf("marshal room: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(room_id)"),
			}},
			putGuard(r.uniquesTable, guardKey("room_number", room.RoomNumber), room.RoomID),
		},
	})
	if isTxCanceled(err) {
		return fmt.Errorf("room number %s already exists: %w", room.RoomNumber, domain.ErrConflict)
	}
	return err
}

func (r *RoomRepo) Get(ctx context.Context, roomID string) (*domain.Room, error) {
	room, ok, err := getItem[domain.Room](ctx, r.client, r.tableName, strKey("room_id", roomID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("room not found: %w", domain.ErrNotFound)
	}
	return room, nil
}

func (r *RoomRepo) List(ctx context.Context) ([]domain.Room, error) {
	return scanAll[domain.Room](ctx, r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
}

func (r *RoomRepo) Update(ctx context.Context, roomID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(withUpdatedAt(updates))
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("room_id", roomID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(room_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("room not found: %w", domain.ErrNotFound)
	}
	return err
}

// Delete removes an unoccupied room and releases its number.
func (r *RoomRepo) Delete(ctx context.Context, room *domain.Room) error {
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{
				TableName:           aws.String(r.tableName),
				Key:                 strKey("room_id", room.RoomID),
				ConditionExpression: aws.String("attribute_exists(room_id) AND attribute_not_exists(patient_id)"),
			}},
			deleteGuard(r.uniquesTable, guardKey("room_number", room.RoomNumber)),
		},
	})
	if isTxCanceled(err) {
		return fmt.Errorf("cannot delete a room with an assigned patient: %w", domain.ErrConflict)
	}
	return err
}

// Assign links a patient and a room. Both sides are conditioned so a room
// holds at most one patient and a patient occupies at most one room.
func (r *RoomRepo) Assign(ctx context.Context, roomID string, p *domain.Patient) error {
	now, err := attributevalue.Marshal(time.Now().UTC())
	if err != nil {
		return err
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Update: &types.Update{
				TableName:           aws.String(r.tableName),
				Key:                 strKey("room_id", roomID),
				UpdateExpression:    aws.String("SET #p = :pid, #pn = :pname, #s = :occupied, #u = :now"),
				ConditionExpression: aws.String("attribute_exists(room_id) AND attribute_not_exists(#p) AND #s <> :maint"),
				ExpressionAttributeNames: map[string]string{
					"#p": fieldPatientID, "#pn": fieldPatientName, "#s": fieldStatus, "#u": fieldUpdatedAt,
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":pid":      strVal(p.PatientID),
					":pname":    strVal(p.FullName),
					":occupied": strVal(domain.RoomOccupied),
					":maint":    strVal(domain.RoomMaintenance),
					":now":      now,
				},
			}},
			{Update: &types.Update{
				TableName:           aws.String(r.patientsTable),
				Key:                 strKey("patient_id", p.PatientID),
				UpdateExpression:    aws.String("SET #r = :rid, #u = :now"),
				ConditionExpression: aws.String("attribute_exists(patient_id) AND attribute_not_exists(#r) AND #s = :admitted"),
				ExpressionAttributeNames: map[string]string{
					"#r": fieldRoomID, "#s": fieldStatus, "#u": fieldUpdatedAt,
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":rid":      strVal(roomID),
					":admitted": strVal(domain.PatientAdmitted),
					":now":      now,
				},
			}},
		},
	})
	if isTxCanceled(err) {
		return fmt.Errorf("room or patient is no longer available: %w", domain.ErrConflict)
	}
	return err
}

// Release clears the room and, when patientID is set, the patient's room link.
func (r *RoomRepo) Release(ctx context.Context, roomID, patientID string) error {
	now, err := attributevalue.Marshal(time.Now().UTC())
	if err != nil {
		return err
	}
	items := []types.TransactWriteItem{
		{Update: &types.Update{
			TableName:           aws.String(r.tableName),
			Key:                 strKey("room_id", roomID),
			UpdateExpression:    aws.String("SET #s = :available, #u = :now REMOVE #p, #pn"),
			ConditionExpression: aws.String("attribute_exists(room_id)"),
			ExpressionAttributeNames: map[string]string{
				"#p": fieldPatientID, "#pn": fieldPatientName, "#s": fieldStatus, "#u": fieldUpdatedAt,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":available": strVal(domain.RoomAvailable),
				":now":       now,
			},
		}},
	}
	if patientID != "" {
		items = append(items, types.TransactWriteItem{Update: &types.Update{
			TableName:                 aws.String(r.patientsTable),
			Key:                       strKey("patient_id", patientID),
			UpdateExpression:          aws.String("SET #u = :now REMOVE #r"),
			ConditionExpression:       aws.String("attribute_exists(patient_id)"),
			ExpressionAttributeNames:  map[string]string{"#r": fieldRoomID, "#u": fieldUpdatedAt},
			ExpressionAttributeValues: map[string]types.AttributeValue{":now": now},
		}})
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if isTxCanceled(err) {
		return fmt.Errorf("room or patient not found: %w", domain.ErrNotFound)
	}
	return err
}
