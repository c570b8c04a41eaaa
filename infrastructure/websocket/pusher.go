// Package websocket pushes messages to API Gateway WebSocket connections.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wmsadmin/application/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
)

// PostToConnectionAPI is the part of the management API client the pusher uses
type PostToConnectionAPI interface {
	PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

// APIGatewayPusher implements ports.ConnectionPusher
type APIGatewayPusher struct {
	client PostToConnectionAPI
}

func NewAPIGatewayPusher(client PostToConnectionAPI) *APIGatewayPusher {
	return &APIGatewayPusher{client: client}
}

// NewClient builds a management API client for a stage endpoint such as
// "abc.execute-api.ap-northeast-1.amazonaws.com/prod".
func NewClient(cfg aws.Config, endpoint string) *apigatewaymanagementapi.Client {
	if !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	return apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
}

// Push posts data to the connection. A GoneException is reported as
// ports.ErrConnectionGone.
func (p *APIGatewayPusher) Push(ctx context.Context, connectionID string, data []byte) error {
	_, err := p.client.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         data,
	})
	if err == nil {
		return nil
	}
	var gone *types.GoneException
	if errors.As(err, &gone) {
		return fmt.Errorf("%w: %s", ports.ErrConnectionGone, connectionID)
	}
	return fmt.Errorf("post to connection %s: %w", connectionID, err)
}
