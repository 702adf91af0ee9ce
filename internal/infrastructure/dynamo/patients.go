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

// PatientRepo provides typed DynamoDB operations for the patients table.
type PatientRepo struct {
	client       *dynamodb.Client
	tableName    string
	uniquesTable string
}

func NewPatientRepo(client *dynamodb.Client, tableName, uniquesTable string) *PatientRepo {
	return &PatientRepo{client: client, tableName: tableName, uniquesTable: uniquesTable}
}

// Create writes the patient with a guard on its patient code.
// A taken code surfaces as domain.ErrConflict so the caller can pick another.
func (r *PatientRepo) Create(ctx context.Context, p *domain.Patient) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal patient: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(patient_id)"),
			}},
			putGuard(r.uniquesTable, guardKey("patient_code", p.PatientCode), p.PatientID),
		},
	})
	if isTxCanceled(err) {
		return fmt.Errorf("patient code %s already taken: %w", p.PatientCode, domain.ErrConflict)
	}
	return err
}

func (r *PatientRepo) Get(ctx context.Context, patientID string) (*domain.Patient, error) {
	p, ok, err := getItem[domain.Patient](ctx, r.client, r.tableName, strKey("patient_id", patientID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("patient not found: %w", domain.ErrNotFound)
	}
	return p, nil
}

// ListByStatus queries the status-index; an empty status scans the table.
func (r *PatientRepo) ListByStatus(ctx context.Context, status string) ([]domain.Patient, error) {
	if status == "" {
		return scanAll[domain.Patient](ctx, r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	}
	return queryAll[domain.Patient](ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("status-index"),
		KeyConditionExpression:    aws.String("#s = :s"),
		ExpressionAttributeNames:  map[string]string{"#s": fieldStatus},
		ExpressionAttributeValues: map[string]types.AttributeValue{":s": strVal(status)},
	})
}

func (r *PatientRepo) Update(ctx context.Context, patientID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(withUpdatedAt(updates))
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("patient_id", patientID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(patient_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("patient not found: %w", domain.ErrNotFound)
	}
	return err
}
