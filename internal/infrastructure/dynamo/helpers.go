package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// compositeKey builds a DynamoDB primary key with two string attributes (PK + SK).
func compositeKey(pkName, pkValue, skName, skValue string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		pkName: &types.AttributeValueMemberS{Value: pkValue},
		skName: &types.AttributeValueMemberS{Value: skValue},
	}
}

func strVal(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

func numVal(n int) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", n)}
}

// updateExpr is a SET/REMOVE expression with its placeholder maps.
type updateExpr struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// buildUpdateExpr converts a map of field->value into a DynamoDB SET/REMOVE expression.
// Fields are emitted in sorted order so the expression is deterministic.
func buildUpdateExpr(updates map[string]interface{}) (*updateExpr, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ue := &updateExpr{
		Names:  make(map[string]string, len(keys)),
		Values: make(map[string]types.AttributeValue, len(keys)),
	}
	var sets, removes []string
	for i, k := range keys {
		nameKey := fmt.Sprintf("#f%d", i)
		ue.Names[nameKey] = k
		// A nil value removes the attribute.
		if updates[k] == nil {
			removes = append(removes, nameKey)
			continue
		}
		valueKey := fmt.Sprintf(":v%d", i)
		av, err := attributevalue.Marshal(updates[k])
		if err != nil {
			return nil, fmt.Errorf("marshal field %s: %w", k, err)
		}
		ue.Values[valueKey] = av
		sets = append(sets, nameKey+" = "+valueKey)
	}
	var clauses []string
	if len(sets) > 0 {
		clauses = append(clauses, "SET "+strings.Join(sets, ", "))
	}
	if len(removes) > 0 {
		clauses = append(clauses, "REMOVE "+strings.Join(removes, ", "))
	}
	ue.Expr = strings.Join(clauses, " ")
	return ue, nil
}

// withUpdatedAt stamps updated_at on a partial update map.
func withUpdatedAt(updates map[string]interface{}) map[string]interface{} {
	updates[fieldUpdatedAt] = time.Now().UTC()
	return updates
}

// guardKey builds the key of a uniqueness guard item, e.g. "email#a@b.com".
func guardKey(kind, value string) string {
	return kind + "#" + strings.ToLower(strings.TrimSpace(value))
}

// putGuard reserves a unique value inside a transaction.
func putGuard(table, key, ownerID string) types.TransactWriteItem {
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(table),
			Item: map[string]types.AttributeValue{
				"unique_key": strVal(key),
				"owner_id":   strVal(ownerID),
			},
			ConditionExpression: aws.String("attribute_not_exists(unique_key)"),
		},
	}
}

// deleteGuard releases a unique value inside a transaction.
func deleteGuard(table, key string) types.TransactWriteItem {
	return types.TransactWriteItem{
		Delete: &types.Delete{
			TableName: aws.String(table),
			Key:       strKey("unique_key", key),
		},
	}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func isTxCanceled(err error) bool {
	var tce *types.TransactionCanceledException
	return errors.As(err, &tce)
}

// queryAll follows LastEvaluatedKey until the query is exhausted.
func queryAll[T any](ctx context.Context, client *dynamodb.Client, input *dynamodb.QueryInput) ([]T, error) {
	var result []T
	p := dynamodb.NewQueryPaginator(client, input)
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var page []T
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		result = append(result, page...)
	}
	return result, nil
}

// scanAll reads every item of a table.
func scanAll[T any](ctx context.Context, client *dynamodb.Client, input *dynamodb.ScanInput) ([]T, error) {
	var result []T
	p := dynamodb.NewScanPaginator(client, input)
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var page []T
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		result = append(result, page...)
	}
	return result, nil
}

// getItem fetches one item by key; found is false when the item does not exist.
func getItem[T any](ctx context.Context, client *dynamodb.Client, table string, key map[string]types.AttributeValue) (*T, bool, error) {
	return readItem[T](ctx, client, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       key,
	})
}

// getItemConsistent is getItem with a strongly consistent read, for items that
// are read back right after being written.
func getItemConsistent[T any](ctx context.Context, client *dynamodb.Client, table string, key map[string]types.AttributeValue) (*T, bool, error) {
	return readItem[T](ctx, client, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
}

func readItem[T any](ctx context.Context, client *dynamodb.Client, in *dynamodb.GetItemInput) (*T, bool, error) {
	out, err := client.GetItem(ctx, in)
	if err != nil {
		return nil, false, err
	}
	if out.Item == nil {
		return nil, false, nil
	}
	var v T
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, false, err
	}
	return &v, true, nil
}
