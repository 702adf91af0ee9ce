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

// VitalRepo stores vital sign readings. GSI: patient_id-recorded_at-index.
type VitalRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVitalRepo(client *dynamodb.Client, tableName string) *VitalRepo {
	return &VitalRepo{client: client, tableName: tableName}
}

func (r *VitalRepo) Put(ctx context.Context, v *domain.Vital) error {
	return putItem(ctx, r.client, r.tableName, v)
}

// ListByPatient returns the newest readings first.
func (r *VitalRepo) ListByPatient(ctx context.Context, patientID string, limit int32) ([]domain.Vital, error) {
	return queryNewest[domain.Vital](ctx, r.client, r.tableName, "patient_id-recorded_at-index", patientID, limit)
}

// MedicationRepo stores prescriptions. GSI: patient_id-index.
type MedicationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewMedicationRepo(client *dynamodb.Client, tableName string) *MedicationRepo {
	return &MedicationRepo{client: client, tableName: tableName}
}

func (r *MedicationRepo) Put(ctx context.Context, m *domain.Medication) error {
	return putItem(ctx, r.client, r.tableName, m)
}

func (r *MedicationRepo) Get(ctx context.Context, medicationID string) (*domain.Medication, error) {
	m, ok, err := getItem[domain.Medication](ctx, r.client, r.tableName, strKey("medication_id", medicationID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("medication not found: %w", domain.ErrNotFound)
	}
	return m, nil
}

func (r *MedicationRepo) ListByPatient(ctx context.Context, patientID string) ([]domain.Medication, error) {
	return queryAll[domain.Medication](ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("patient_id-index"),
		KeyConditionExpression:    aws.String("patient_id = :p"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":p": strVal(patientID)},
	})
}

// UpdateActive applies updates only while the medication is still active.
func (r *MedicationRepo) UpdateActive(ctx context.Context, medicationID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(withUpdatedAt(updates))
	if err != nil {
		return err
	}
	ue.Names["#st"] = fieldStatus
	ue.Values[":active"] = strVal(domain.MedicationActive)
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("medication_id", medicationID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(medication_id) AND #st = :active"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("medication is not active: %w", domain.ErrConflict)
	}
	return err
}

// NoteRepo stores clinical notes. GSI: patient_id-created_at-index.
type NoteRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNoteRepo(client *dynamodb.Client, tableName string) *NoteRepo {
	return &NoteRepo{client: client, tableName: tableName}
}

func (r *NoteRepo) Put(ctx context.Context, n *domain.ClinicalNote) error {
	return putItem(ctx, r.client, r.tableName, n)
}

func (r *NoteRepo) ListByPatient(ctx context.Context, patientID string, limit int32) ([]domain.ClinicalNote, error) {
	return queryNewest[domain.ClinicalNote](ctx, r.client, r.tableName, "patient_id-created_at-index", patientID, limit)
}

func putItem(ctx context.Context, client *dynamodb.Client, table string, v interface{}) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal %s item: %w", table, err)
	}
	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	return err
}

// queryNewest reads one page of a patient_id-keyed GSI in descending sort order.
func queryNewest[T any](ctx context.Context, client *dynamodb.Client, table, index, patientID string, limit int32) ([]T, error) {
	out, err := client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(table),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("patient_id = :p"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":p": strVal(patientID)},
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(limit),
	})
	if err != nil {
		return nil, err
	}
	var items []T
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, err
	}
	return items, nil
}
