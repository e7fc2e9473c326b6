package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/jpanderson91/aws-delivery-demo-app/internal/customer"
)

// --- mocks ---

type mockDynamo struct {
	items    []map[string]types.AttributeValue
	pageSize int // 0 means pages are bounded only by Limit
	putErr   error
	scanErr  error
	puts     []*dynamodb.PutItemInput
	scans    []*dynamodb.ScanInput
}

func (m *mockDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.puts = append(m.puts, in)
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.items = append(m.items, in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDynamo) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	m.scans = append(m.scans, in)
	if m.scanErr != nil {
		return nil, m.scanErr
	}

	start := 0
	if k, ok := in.ExclusiveStartKey["customer_id"].(*types.AttributeValueMemberS); ok {
		for i, it := range m.items {
			if it["customer_id"].(*types.AttributeValueMemberS).Value == k.Value {
				start = i + 1
				break
			}
		}
	}

	n := int(aws.ToInt32(in.Limit))
	if m.pageSize > 0 && m.pageSize < n {
		n = m.pageSize
	}
	end := start + n
	if end > len(m.items) {
		end = len(m.items)
	}

	page := m.items[start:end]
	out := &dynamodb.ScanOutput{Items: page, Count: int32(len(page))}
	if end < len(m.items) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{"customer_id": page[len(page)-1]["customer_id"]}
	}
	return out, nil
}

type tableName string

func (t tableName) TableName(context.Context) (string, error) { return string(t), nil }

type failingTables struct{ err error }

func (f failingTables) TableName(context.Context) (string, error) { return "", f.err }

func sample(i int) customer.Customer {
	return customer.Customer{
		CustomerID: fmt.Sprintf("id-%d", i),
		Name:       fmt.Sprintf("Customer %d", i),
		Email:      fmt.Sprintf("c%d@example.com", i),
		Company:    "",
		CreatedAt:  "2025-01-01T00:00:00Z",
		ExpiresAt:  1738281600,
	}
}

func seeded(t *testing.T, n int) *mockDynamo {
	t.Helper()
	m := &mockDynamo{}
	d := NewDynamo(m, tableName("customers"))
	for i := 0; i < n; i++ {
		if err := d.Put(context.Background(), sample(i)); err != nil {
			t.Fatalf("seed put: %v", err)
		}
	}
	m.puts = nil
	return m
}

// --- tests ---

func TestPut(t *testing.T) {
	m := &mockDynamo{}
	d := NewDynamo(m, tableName("customers"))

	c := sample(1)
	c.Company = "Acme Corp"
	if err := d.Put(context.Background(), c); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if len(m.puts) != 1 {
		t.Fatalf("expected 1 PutItem call, got %d", len(m.puts))
	}
	in := m.puts[0]
	if aws.ToString(in.TableName) != "customers" {
		t.Errorf("TableName = %q", aws.ToString(in.TableName))
	}
	if aws.ToString(in.ConditionExpression) != "attribute_not_exists(customer_id)" {
		t.Errorf("ConditionExpression = %q", aws.ToString(in.ConditionExpression))
	}

	for _, attr := range []string{"customer_id", "name", "email", "company", "created_at"} {
		if _, ok := in.Item[attr].(*types.AttributeValueMemberS); !ok {
			t.Errorf("attribute %s missing or not a string: %#v", attr, in.Item[attr])
		}
	}
	ttl, ok := in.Item["expires_at"].(*types.AttributeValueMemberN)
	if !ok {
		t.Fatalf("expires_at must be a number for DynamoDB TTL, got %#v", in.Item["expires_at"])
	}
	if ttl.Value != "1738281600" {
		t.Errorf("expires_at = %s", ttl.Value)
	}
}

func TestPutStoresEmptyCompany(t *testing.T) {
	m := &mockDynamo{}
	if err := NewDynamo(m, tableName("customers")).Put(context.Background(), sample(1)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, ok := m.puts[0].Item["company"].(*types.AttributeValueMemberS)
	if !ok || got.Value != "" {
		t.Fatalf("company = %#v, want empty string attribute", m.puts[0].Item["company"])
	}
}

func TestPutErrors(t *testing.T) {
	t.Run("conditional check failed", func(t *testing.T) {
		m := &mockDynamo{putErr: &types.ConditionalCheckFailedException{Message: aws.String("exists")}}
		err := NewDynamo(m, tableName("customers")).Put(context.Background(), sample(1))
		var ccf *types.ConditionalCheckFailedException
		if !errors.As(err, &ccf) {
			t.Fatalf("error = %v, want ConditionalCheckFailedException in chain", err)
		}
	})

	t.Run("throttled", func(t *testing.T) {
		throttled := &smithy.GenericAPIError{Code: "ProvisionedThroughputExceededException", Message: "slow down"}
		m := &mockDynamo{putErr: throttled}
		err := NewDynamo(m, tableName("customers")).Put(context.Background(), sample(1))
		if !errors.Is(err, throttled) {
			t.Fatalf("error = %v, want wrapped API error", err)
		}
		if ErrorCode(err) != "ProvisionedThroughputExceededException" {
			t.Fatalf("ErrorCode() = %q", ErrorCode(err))
		}
	})

	t.Run("table unavailable", func(t *testing.T) {
		m := &mockDynamo{}
		cause := errors.New("ssm: access denied")
		err := NewDynamo(m, failingTables{cause}).Put(context.Background(), sample(1))
		if !errors.Is(err, ErrTableUnavailable) || !errors.Is(err, cause) {
			t.Fatalf("error = %v, want ErrTableUnavailable wrapping cause", err)
		}
		if len(m.puts) != 0 {
			t.Fatalf("PutItem called %d times without a table", len(m.puts))
		}
	})
}

func TestScan(t *testing.T) {
	tests := []struct {
		name      string
		stored    int
		pageSize  int
		limit     int
		want      int
		wantCalls int
	}{
		{name: "limit below table size", stored: 5, limit: 1, want: 1, wantCalls: 1},
		{name: "limit above table size", stored: 3, limit: 10, want: 3, wantCalls: 1},
		{name: "empty table", stored: 0, limit: 20, want: 0, wantCalls: 1},
		{name: "short pages are followed", stored: 5, pageSize: 2, limit: 4, want: 4, wantCalls: 2},
		{name: "short pages until exhausted", stored: 5, pageSize: 2, limit: 20, want: 5, wantCalls: 3},
		{name: "zero limit", stored: 5, limit: 0, want: 0, wantCalls: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := seeded(t, tt.stored)
			m.pageSize = tt.pageSize

			got, err := NewDynamo(m, tableName("customers")).Scan(context.Background(), tt.limit)
			if err != nil {
				t.Fatalf("Scan() error = %v", err)
			}
			if got == nil {
				t.Fatal("Scan() returned nil slice")
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
			if len(m.scans) != tt.wantCalls {
				t.Errorf("scan calls = %d, want %d", len(m.scans), tt.wantCalls)
			}
			for _, in := range m.scans {
				if aws.ToInt32(in.Limit) <= 0 || int(aws.ToInt32(in.Limit)) > tt.limit {
					t.Errorf("scan Limit = %d outside (0, %d]", aws.ToInt32(in.Limit), tt.limit)
				}
			}
		})
	}
}

func TestScanRoundTrip(t *testing.T) {
	m := &mockDynamo{}
	d := NewDynamo(m, tableName("customers"))

	want := sample(7)
	want.Company = "Acme Corp"
	if err := d.Put(context.Background(), want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := d.Scan(context.Background(), 10)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("Scan() = %+v, want [%+v]", got, want)
	}
}

func TestScanErrors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		cause := errors.New("timeout")
		m := &mockDynamo{scanErr: cause}
		_, err := NewDynamo(m, tableName("customers")).Scan(context.Background(), 5)
		if !errors.Is(err, cause) {
			t.Fatalf("error = %v, want wrapped cause", err)
		}
		if errors.Is(err, ErrTableUnavailable) {
			t.Fatal("scan failure reported as table unavailable")
		}
	})

	t.Run("table unavailable", func(t *testing.T) {
		m := &mockDynamo{}
		_, err := NewDynamo(m, failingTables{errors.New("no param")}).Scan(context.Background(), 5)
		if !errors.Is(err, ErrTableUnavailable) {
			t.Fatalf("error = %v, want ErrTableUnavailable", err)
		}
	})
}

func TestErrorCodeNonAWS(t *testing.T) {
	if got := ErrorCode(errors.New("plain")); got != "" {
		t.Fatalf("ErrorCode() = %q, want empty", got)
	}
}
