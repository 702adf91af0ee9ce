package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shefaa-icu/internal/config"
)

// Bootstrap creates all DynamoDB tables and GSIs if they don't already exist.
// Safe to call on every startup; existing tables are skipped.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables) {
	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Staff),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attrS("staff_id"), attrS("username"), attrS("email"), attrN("enable"),
		},
		KeySchema: hashKey("staff_id"),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi("username-index", "username", ""),
			gsi("email-index", "email", ""),
			gsi("enable-index", "enable", ""),
		},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:            aws.String(tables.Uniques),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{attrS("unique_key")},
		KeySchema:            hashKey("unique_key"),
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:            aws.String(tables.Patients),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{attrS("patient_id"), attrS("status")},
		KeySchema:            hashKey("patient_id"),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi("status-index", "status", ""),
		},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:            aws.String(tables.Rooms),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{attrS("room_id")},
		KeySchema:            hashKey("room_id"),
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Schedules),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attrS("shift_date"), attrS("slot"), attrS("entry_id"),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("shift_date"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("slot"), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi("entry_id-index", "entry_id", ""),
		},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Vitals),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attrS("vital_id"), attrS("patient_id"), attrS("recorded_at"),
		},
		KeySchema: hashKey("vital_id"),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi("patient_id-recorded_at-index", "patient_id", "recorded_at"),
		},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:            aws.String(tables.Medications),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{attrS("medication_id"), attrS("patient_id")},
		KeySchema:            hashKey("medication_id"),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi("patient_id-index", "patient_id", ""),
		},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.ClinicalNotes),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attrS("note_id"), attrS("patient_id"), attrS("created_at"),
		},
		KeySchema: hashKey("note_id"),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi("patient_id-created_at-index", "patient_id", "created_at"),
		},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:            aws.String(tables.AttendanceLogs),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{attrS("staff_id"), attrS("work_date")},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("staff_id"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("work_date"), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi("work_date-index", "work_date", ""),
		},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Notifications),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attrS("notification_id"), attrS("staff_id"), attrS("created_at"),
		},
		KeySchema: hashKey("notification_id"),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(notificationsByStaff, "staff_id", "created_at"),
		},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:            aws.String(tables.OTPCodes),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{attrS("otp_key"), attrS("kind")},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("otp_key"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("kind"), KeyType: types.KeyTypeRange},
		},
	})
	enableTTL(ctx, client, tables.OTPCodes, "expires_at")
}

func attrS(name string) types.AttributeDefinition {
	return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
}

func attrN(name string) types.AttributeDefinition {
	return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeN}
}

func hashKey(name string) []types.KeySchemaElement {
	return []types.KeySchemaElement{{AttributeName: aws.String(name), KeyType: types.KeyTypeHash}}
}

// gsi builds a GSI descriptor. If sortKey is empty, only a hash key is added.
func gsi(indexName, hashKey, sortKey string) types.GlobalSecondaryIndex {
	ks := []types.KeySchemaElement{
		{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
	}
	if sortKey != "" {
		ks = append(ks, types.KeySchemaElement{
			AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange,
		})
	}
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(indexName),
		KeySchema:  ks,
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

func createTable(ctx context.Context, client *dynamodb.Client, input *dynamodb.CreateTableInput) {
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		// ResourceInUseException means the table already exists.
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			slog.Warn("could not create table", "table", *input.TableName, "err", err)
		}
	} else {
		slog.Info("created table", "table", *input.TableName)
	}
}

func enableTTL(ctx context.Context, client *dynamodb.Client, tableName, ttlAttr string) {
	_, err := client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			Enabled:       aws.Bool(true),
			AttributeName: aws.String(ttlAttr),
		},
	})
	if err != nil {
		slog.Warn("could not enable TTL", "table", tableName, "err", err)
	}
}
