// Command ws-notify receives codes.batch_committed events from EventBridge
// and pushes them to every open WebSocket connection.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"wmsadmin/application/services"
	"wmsadmin/infrastructure/config"
	"wmsadmin/infrastructure/di"
	"wmsadmin/infrastructure/websocket"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

// broadcaster is the part of NotificationService this command needs.
type broadcaster interface {
	Broadcast(ctx context.Context, eventType string, data json.RawMessage) error
}

type notifyHandler struct {
	notifications broadcaster
	logger        *zap.Logger
}

func (h *notifyHandler) handle(ctx context.Context, event events.CloudWatchEvent) error {
	if event.DetailType == "" || len(event.Detail) == 0 {
		return fmt.Errorf("event %s has no detail", event.ID)
	}
	h.logger.Info("Broadcasting event",
		zap.String("eventID", event.ID),
		zap.String("detailType", event.DetailType),
	)
	return h.notifications.Broadcast(ctx, event.DetailType, event.Detail)
}

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.WebSocketEndpoint == "" {
		log.Fatal("WEBSOCKET_ENDPOINT is required")
	}
	container, _, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	awsCfg, err := di.ProvideAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	pusher := websocket.NewAPIGatewayPusher(websocket.NewClient(awsCfg, cfg.WebSocketEndpoint))
	h := &notifyHandler{
		notifications: services.NewNotificationService(container.Connections, pusher, container.Logger),
		logger:        container.Logger,
	}
	lambda.Start(h.handle)
}
