package config

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ParameterAPI is the subset of the SSM client API we use.
type ParameterAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// TableSource resolves the table name from an SSM parameter and keeps it
// for the life of the process. Only a successful lookup is kept; after a
// failure the next call asks SSM again.
type TableSource struct {
	client ParameterAPI
	param  string

	mu   sync.Mutex
	name string
}

func NewTableSource(client ParameterAPI, param string) *TableSource {
	return &TableSource{client: client, param: param}
}

// StaticTable returns a source that always yields name.
func StaticTable(name string) *TableSource {
	return &TableSource{name: name}
}

// NewTableSourceFor picks the static override when cfg.TableName is set and
// the SSM-backed source otherwise.
func NewTableSourceFor(cfg Config, client ParameterAPI) *TableSource {
	if cfg.TableName != "" {
		return StaticTable(cfg.TableName)
	}
	return NewTableSource(client, cfg.TableNameParam)
}

func (s *TableSource) TableName(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.name != "" {
		return s.name, nil
	}
	if s.client == nil {
		return "", errors.New("no parameter client configured")
	}

	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{Name: aws.String(s.param)})
	if err != nil {
		return "", fmt.Errorf("ssm get %s: %w", s.param, err)
	}
	if out.Parameter == nil || aws.ToString(out.Parameter.Value) == "" {
		return "", fmt.Errorf("ssm parameter %s is empty", s.param)
	}

	s.name = aws.ToString(out.Parameter.Value)
	return s.name, nil
}
