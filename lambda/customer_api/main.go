package main

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog"

	"github.com/jpanderson91/aws-delivery-demo-app/internal/api"
	"github.com/jpanderson91/aws-delivery-demo-app/internal/config"
	"github.com/jpanderson91/aws-delivery-demo-app/internal/logger"
	"github.com/jpanderson91/aws-delivery-demo-app/internal/store"
)

// clients groups the AWS SDK clients the function uses.
type clients struct {
	dynamo store.DynamoAPI
	ssm    config.ParameterAPI
}

// newClients is a var so tests can swap in mocks.
var newClients = func(ctx context.Context, cfg config.Config) (clients, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithHTTPClient(awshttp.NewBuildableClient().WithTimeout(cfg.StoreTimeout)),
		awsconfig.WithRetryMaxAttempts(cfg.StoreMaxAttempts),
	)
	if err != nil {
		return clients{}, err
	}
	return clients{
		dynamo: dynamodb.NewFromConfig(awsCfg),
		ssm:    ssm.NewFromConfig(awsCfg),
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.LogLevel)

	h, err := newHandler(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init")
	}
	log.Info().Str("stage", cfg.Stage).Int("ttl_days", cfg.TTLDays).Msg("cold start")

	lambda.Start(h)
}

// newHandler wires the clients, the table name source and the store into
// the proxy handler. The table name itself is resolved lazily on first use.
func newHandler(ctx context.Context, cfg config.Config, log zerolog.Logger) (func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error), error) {
	c, err := newClients(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	tables := config.NewTableSourceFor(cfg, c.ssm)
	router := api.NewHandler(store.NewDynamo(c.dynamo, tables), cfg, log)

	return func(ctx context.Context, evt events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		req, err := toRequest(ctx, evt)
		if err != nil {
			log.Warn().Err(err).Str("request_id", req.RequestID).Msg("undecodable body")
		}
		return toResponse(router.Handle(ctx, req)), nil
	}, nil
}

// toRequest converts a proxy event. A body flagged as base64 that fails to
// decode is passed through as an empty body, which the create operation
// reports as malformed input.
func toRequest(ctx context.Context, evt events.APIGatewayProxyRequest) (api.Request, error) {
	req := api.Request{
		Method:    evt.HTTPMethod,
		Path:      evt.Path,
		Headers:   evt.Headers,
		Query:     evt.QueryStringParameters,
		Body:      []byte(evt.Body),
		RequestID: evt.RequestContext.RequestID,
	}
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		req.RequestID = lc.AwsRequestID
	}
	if req.Query == nil && len(evt.MultiValueQueryStringParameters) > 0 {
		req.Query = make(map[string]string, len(evt.MultiValueQueryStringParameters))
		for k, v := range evt.MultiValueQueryStringParameters {
			if len(v) > 0 {
				req.Query[k] = v[0]
			}
		}
	}
	if evt.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(evt.Body)
		if err != nil {
			req.Body = nil
			return req, fmt.Errorf("decode base64 body: %w", err)
		}
		req.Body = b
	}
	return req, nil
}

func toResponse(r api.Response) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: r.StatusCode,
		Headers:    r.Headers,
		Body:       string(r.Body),
	}
}
