package main

import (
	"fmt"

	aws "github.com/pulumi/pulumi-aws/sdk/v6/go/aws"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/apigateway"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/dynamodb"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/iam"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/lambda"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ssm"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		project := ctx.Project()
		stack := ctx.Stack()

		// Create a single AWS provider with default tags applied to all supported resources.
		prov, err := aws.NewProvider(ctx, "prov", &aws.ProviderArgs{
			DefaultTags: &aws.ProviderDefaultTagsArgs{
				Tags: pulumi.StringMap{
					"Project":   pulumi.String(project),
					"Stack":     pulumi.String(stack),
					"ManagedBy": pulumi.String("Pulumi"),
				},
			},
		})
		if err != nil {
			return err
		}
		awsOpts := pulumi.Provider(prov)

		// Name of the SSM parameter the function reads the table name from
		tableNameParam := "/demo-app/dynamodb/table-name"
		if v, ok := ctx.GetConfig("demo-app:tableNameParam"); ok && v != "" {
			tableNameParam = v
		}

		// Record retention in days (configurable; default 30)
		ttlDays := "30"
		if v, ok := ctx.GetConfig("demo-app:ttlDays"); ok && v != "" {
			ttlDays = v
		}

		logLevel := "info"
		if v, ok := ctx.GetConfig("demo-app:logLevel"); ok && v != "" {
			logLevel = v
		}

		table, err := dynamodb.NewTable(ctx, fmt.Sprintf("%s-%s-customers", project, stack), &dynamodb.TableArgs{
			BillingMode: pulumi.String("PAY_PER_REQUEST"),
			HashKey:     pulumi.String("customer_id"),
			Attributes: dynamodb.TableAttributeArray{
				&dynamodb.TableAttributeArgs{
					Name: pulumi.String("customer_id"),
					Type: pulumi.String("S"),
				},
			},
			Ttl: &dynamodb.TableTtlArgs{
				AttributeName: pulumi.String("expires_at"),
				Enabled:       pulumi.Bool(true),
			},
			PointInTimeRecovery: &dynamodb.TablePointInTimeRecoveryArgs{
				Enabled: pulumi.Bool(true),
			},
		}, awsOpts)
		if err != nil {
			return err
		}

		param, err := ssm.NewParameter(ctx, fmt.Sprintf("%s-%s-table-name", project, stack), &ssm.ParameterArgs{
			Name:  pulumi.String(tableNameParam),
			Type:  pulumi.String("String"),
			Value: table.Name,
		}, awsOpts)
		if err != nil {
			return err
		}

		// Lambda assume role policy
		lambdaAssumeRolePolicy, err := iam.GetPolicyDocument(ctx, &iam.GetPolicyDocumentArgs{
			Statements: []iam.GetPolicyDocumentStatement{
				{
					Effect: pulumi.StringRef("Allow"),
					Principals: []iam.GetPolicyDocumentStatementPrincipal{
						{
							Type: "Service",
							Identifiers: []string{
								"lambda.amazonaws.com",
							},
						},
					},
					Actions: []string{
						"sts:AssumeRole",
					},
				},
			},
		}, nil)
		if err != nil {
			return err
		}

		apiRole, err := iam.NewRole(ctx, fmt.Sprintf("%s-%s-customer-api-role", project, stack), &iam.RoleArgs{
			AssumeRolePolicy: pulumi.String(lambdaAssumeRolePolicy.Json),
		}, awsOpts)
		if err != nil {
			return err
		}
		_, err = iam.NewRolePolicyAttachment(ctx, fmt.Sprintf("%s-%s-customer-api-basic", project, stack), &iam.RolePolicyAttachmentArgs{
			Role:      apiRole.Name,
			PolicyArn: pulumi.String("arn:aws:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"),
		}, awsOpts)
		if err != nil {
			return err
		}
		_, err = iam.NewRolePolicy(ctx, fmt.Sprintf("%s-%s-customer-api-data", project, stack), &iam.RolePolicyArgs{
			Role: apiRole.ID(),
			Policy: pulumi.All(table.Arn, param.Arn).ApplyT(func(vals []interface{}) string {
				tableArn := vals[0].(string)
				paramArn := vals[1].(string)
				policyDoc, err := iam.GetPolicyDocument(ctx, &iam.GetPolicyDocumentArgs{
					Statements: []iam.GetPolicyDocumentStatement{
						{
							Effect: pulumi.StringRef("Allow"),
							Actions: []string{
								"dynamodb:PutItem",
								"dynamodb:Scan",
							},
							Resources: []string{tableArn},
						},
						{
							Effect: pulumi.StringRef("Allow"),
							Actions: []string{
								"ssm:GetParameter",
							},
							Resources: []string{paramArn},
						},
					},
				}, nil)
				if err != nil {
					panic(err)
				}
				return policyDoc.Json
			}).(pulumi.StringOutput),
		}, awsOpts)
		if err != nil {
			return err
		}

		apiZip := pulumi.NewFileArchive("../dist/customer_api.zip")
		apiFn, err := lambda.NewFunction(ctx, fmt.Sprintf("%s-%s-customer-api", project, stack), &lambda.FunctionArgs{
			Role:          apiRole.Arn,
			Runtime:       pulumi.String("provided.al2"),
			Handler:       pulumi.String("bootstrap"),
			Architectures: pulumi.ToStringArray([]string{"arm64"}),
			Code:          apiZip,
			Timeout:       pulumi.Int(15),
			MemorySize:    pulumi.Int(128),
			Environment: &lambda.FunctionEnvironmentArgs{
				Variables: pulumi.StringMap{
					"TABLE_NAME_PARAM": param.Name,
					"TTL_DAYS":         pulumi.String(ttlDays),
					"LOG_LEVEL":        pulumi.String(logLevel),
					"STAGE":            pulumi.String(stack),
				},
			},
		}, awsOpts)
		if err != nil {
			return err
		}

		restAPI, err := apigateway.NewRestApi(ctx, fmt.Sprintf("%s-%s-api", project, stack), &apigateway.RestApiArgs{
			Description: pulumi.String("Customer API"),
		}, awsOpts)
		if err != nil {
			return err
		}
		customers, err := apigateway.NewResource(ctx, fmt.Sprintf("%s-%s-customers", project, stack), &apigateway.ResourceArgs{
			RestApi:  restAPI.ID(),
			ParentId: restAPI.RootResourceId,
			PathPart: pulumi.String("customers"),
		}, awsOpts)
		if err != nil {
			return err
		}

		// One ANY method with a Lambda proxy integration per resource; routing happens in the function
		resources := []struct {
			name string
			id   pulumi.StringInput
		}{
			{"root", restAPI.RootResourceId},
			{"customers", customers.ID().ToStringOutput()},
		}
		var integrations []pulumi.Resource
		for _, r := range resources {
			name, resourceID := r.name, r.id
			method, err := apigateway.NewMethod(ctx, fmt.Sprintf("%s-%s-%s-any", project, stack, name), &apigateway.MethodArgs{
				RestApi:       restAPI.ID(),
				ResourceId:    resourceID,
				HttpMethod:    pulumi.String("ANY"),
				Authorization: pulumi.String("NONE"),
			}, awsOpts)
			if err != nil {
				return err
			}
			integration, err := apigateway.NewIntegration(ctx, fmt.Sprintf("%s-%s-%s-proxy", project, stack, name), &apigateway.IntegrationArgs{
				RestApi:               restAPI.ID(),
				ResourceId:            resourceID,
				HttpMethod:            method.HttpMethod,
				IntegrationHttpMethod: pulumi.String("POST"),
				Type:                  pulumi.String("AWS_PROXY"),
				Uri:                   apiFn.InvokeArn,
			}, awsOpts)
			if err != nil {
				return err
			}
			integrations = append(integrations, method, integration)
		}

		deployment, err := apigateway.NewDeployment(ctx, fmt.Sprintf("%s-%s-deployment", project, stack), &apigateway.DeploymentArgs{
			RestApi: restAPI.ID(),
		}, awsOpts, pulumi.DependsOn(integrations))
		if err != nil {
			return err
		}
		stage, err := apigateway.NewStage(ctx, fmt.Sprintf("%s-%s-stage", project, stack), &apigateway.StageArgs{
			RestApi:    restAPI.ID(),
			Deployment: deployment.ID(),
			StageName:  pulumi.String(stack),
		}, awsOpts)
		if err != nil {
			return err
		}

		// Allow API Gateway to invoke the customer API Lambda
		_, err = lambda.NewPermission(ctx, fmt.Sprintf("%s-%s-customer-api-perm", project, stack), &lambda.PermissionArgs{
			Action:    pulumi.String("lambda:InvokeFunction"),
			Function:  apiFn.Name,
			Principal: pulumi.String("apigateway.amazonaws.com"),
			SourceArn: pulumi.Sprintf("%s/*/*", restAPI.ExecutionArn),
		}, awsOpts)
		if err != nil {
			return err
		}

		ctx.Export("apiUrl", stage.InvokeUrl)
		ctx.Export("tableName", table.Name)
		ctx.Export("tableNameParam", param.Name)
		ctx.Export("customerApiLambda", apiFn.Name)
		ctx.Export("region", aws.GetRegionOutput(ctx, aws.GetRegionOutputArgs{}).Name())
		return nil
	})
}
