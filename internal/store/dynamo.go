// Package store persists customer records in DynamoDB.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/jpanderson91/aws-delivery-demo-app/internal/customer"
)

// ErrTableUnavailable is returned when the table name cannot be resolved.
var ErrTableUnavailable = errors.New("table name unavailable")

// DynamoAPI captures the subset of the DynamoDB client API we use. This
// enables unit testing with a mock.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// TableNamer supplies the target table name.
type TableNamer interface {
	TableName(ctx context.Context) (string, error)
}

// Dynamo is the DynamoDB-backed customer store.
type Dynamo struct {
	client DynamoAPI
	tables TableNamer
}

func NewDynamo(client DynamoAPI, tables TableNamer) *Dynamo {
	return &Dynamo{client: client, tables: tables}
}

func (d *Dynamo) table(ctx context.Context) (string, error) {
	name, err := d.tables.TableName(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTableUnavailable, err)
	}
	return name, nil
}

// Put writes c as a single item. The write is conditional on the key not
// existing yet, so an existing customer is never overwritten.
func (d *Dynamo) Put(ctx context.Context, c customer.Customer) error {
	table, err := d.table(ctx)
	if err != nil {
		return err
	}

	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal customer %s: %w", c.CustomerID, err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(customer_id)"),
	})
	if err != nil {
		var exists *types.ConditionalCheckFailedException
		if errors.As(err, &exists) {
			return fmt.Errorf("customer %s already exists: %w", c.CustomerID, err)
		}
		return fmt.Errorf("dynamodb put %s: %w", table, err)
	}
	return nil
}

// Scan returns up to limit customers in no particular order. DynamoDB may
// cut a page short (1 MB page size), so pages are followed until limit items
// are collected or the table is exhausted.
func (d *Dynamo) Scan(ctx context.Context, limit int) ([]customer.Customer, error) {
	out := []customer.Customer{}
	if limit <= 0 {
		return out, nil
	}

	table, err := d.table(ctx)
	if err != nil {
		return nil, err
	}

	var startKey map[string]types.AttributeValue
	for len(out) < limit {
		page, err := d.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(table),
			Limit:             aws.Int32(int32(limit - len(out))),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("dynamodb scan %s: %w", table, err)
		}

		var items []customer.Customer
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal scan page: %w", err)
		}
		out = append(out, items...)

		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		startKey = page.LastEvaluatedKey
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ErrorCode returns the AWS error code carried by err, or "" when err did
// not come from an AWS API call.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
