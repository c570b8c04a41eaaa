// Command ws-connect handles the $connect and $disconnect routes of the
// WebSocket API. Clients pass their access token as ?token=.
package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"wmsadmin/application/ports"
	"wmsadmin/domain/core/entities"
	"wmsadmin/infrastructure/config"
	"wmsadmin/infrastructure/di"
	"wmsadmin/pkg/auth"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

type connectHandler struct {
	connections ports.ConnectionStore
	validator   *auth.JWTValidator
	logger      *zap.Logger
	now         func() time.Time
}

func (h *connectHandler) handle(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connID := req.RequestContext.ConnectionID

	if req.RequestContext.RouteKey == "$disconnect" {
		if err := h.connections.Delete(ctx, connID); err != nil {
			h.logger.Error("Failed to delete connection", zap.String("connectionID", connID), zap.Error(err))
			return respond(http.StatusInternalServerError, `{"error":"internal server error"}`), nil
		}
		return respond(http.StatusOK, ""), nil
	}

	token := req.QueryStringParameters["token"]
	if token == "" {
		return respond(http.StatusUnauthorized, `{"error":"unauthorized"}`), nil
	}
	claims, err := h.validator.ValidateToken(token)
	if err != nil {
		h.logger.Warn("WebSocket authentication failed", zap.String("connectionID", connID), zap.Error(err))
		return respond(http.StatusUnauthorized, `{"error":"unauthorized"}`), nil
	}

	conn := entities.Connection{
		ConnectionID: connID,
		Username:     claims.Username,
		ConnectedAt:  h.now(),
	}
	if err := h.connections.Save(ctx, conn); err != nil {
		h.logger.Error("Failed to store connection", zap.String("connectionID", connID), zap.Error(err))
		return respond(http.StatusInternalServerError, `{"error":"internal server error"}`), nil
	}

	h.logger.Info("WebSocket connection established",
		zap.String("connectionID", connID),
		zap.String("userID", claims.Username),
	)
	return respond(http.StatusOK, ""), nil
}

func respond(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{StatusCode: status, Body: body}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	container, _, err := di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	h := &connectHandler{
		connections: container.Connections,
		validator:   container.JWTValidator,
		logger:      container.Logger,
		now:         time.Now,
	}
	lambda.Start(h.handle)
}
