// Package customer defines the customer record and the create-request input.
package customer

import (
	"time"

	"github.com/google/uuid"
)

// Customer is the stored record. The DynamoDB table is keyed by CustomerID
// and expires items through the ExpiresAt TTL attribute.
type Customer struct {
	CustomerID string `json:"customer_id" dynamodbav:"customer_id"`
	Name       string `json:"name" dynamodbav:"name"`
	Email      string `json:"email" dynamodbav:"email"`
	Company    string `json:"company" dynamodbav:"company"` // "" when not supplied
	CreatedAt  string `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt  int64  `json:"expires_at" dynamodbav:"expires_at"` // Unix seconds
}

// NewID returns a random (v4) UUID.
func NewID() string {
	return uuid.NewString()
}

// New builds a record from validated input. The creation time is truncated
// to whole seconds so ExpiresAt - CreatedAt is exactly ttlDays days.
func New(in Input, id string, now time.Time, ttlDays int) Customer {
	created := now.UTC().Truncate(time.Second)
	expires := created.AddDate(0, 0, ttlDays)

	return Customer{
		CustomerID: id,
		Name:       in.Name,
		Email:      in.Email,
		Company:    in.Company,
		CreatedAt:  created.Format(time.RFC3339),
		ExpiresAt:  expires.Unix(),
	}
}
