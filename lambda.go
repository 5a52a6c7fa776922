package nutrition

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	echoadapter "github.com/awslabs/aws-lambda-go-api-proxy/echo"
	"github.com/rs/zerolog/log"
)

type LambdaFunc func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// LambdaHandler proxies API Gateway requests to the echo engine
func LambdaHandler(adapter *echoadapter.EchoLambda) LambdaFunc {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		log.Info().Str("method", req.HTTPMethod).Str("path", req.Path).Msg("lambda")
		return adapter.ProxyWithContext(ctx, req)
	}
}
