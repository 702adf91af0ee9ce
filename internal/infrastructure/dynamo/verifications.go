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

// VerificationRepo holds one-time codes and verified markers.
// PK: otp_key ("<purpose>#<email>"), SK: kind ("code" | "verified"), TTL: expires_at.
type VerificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVerificationRepo(client *dynamodb.Client, tableName string) *VerificationRepo {
	return &VerificationRepo{client: client, tableName: tableName}
}

func (r *VerificationRepo) Put(ctx context.Context, v *domain.OTPRecord) error {
	return putItem(ctx, r.client, r.tableName, v)
}

func (r *VerificationRepo) Get(ctx context.Context, key, kind string) (*domain.OTPRecord, error) {
	v, ok, err := getItemConsistent[domain.OTPRecord](ctx, r.client, r.tableName, compositeKey("otp_key", key, "kind", kind))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	return v, nil
}

// Consume deletes the record only if it still exists, so exactly one caller wins.
func (r *VerificationRepo) Consume(ctx context.Context, key, kind string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 compositeKey("otp_key", key, "kind", kind),
		ConditionExpression: aws.String("attribute_exists(otp_key)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("verification already used: %w", domain.ErrNotFound)
	}
	return err
}

func (r *VerificationRepo) Delete(ctx context.Context, key, kind string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("otp_key", key, "kind", kind),
	})
	return err
}

// IncrementAttempts atomically bumps the failed-attempt counter and returns the new value.
func (r *VerificationRepo) IncrementAttempts(ctx context.Context, key, kind string) (int, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey("otp_key", key, "kind", kind),
		UpdateExpression:          aws.String("ADD #a :one"),
		ConditionExpression:       aws.String("attribute_exists(otp_key)"),
		ExpressionAttributeNames:  map[string]string{"#a": fieldAttempts},
		ExpressionAttributeValues: map[string]types.AttributeValue{":one": numVal(1)},
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if isConditionFailed(err) {
		return 0, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	var attempts int
	if err := attributevalue.Unmarshal(out.Attributes[fieldAttempts], &attempts); err != nil {
		return 0, err
	}
	return attempts, nil
}
