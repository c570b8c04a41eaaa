package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"wmsadmin/infrastructure/persistence/memory"
	"wmsadmin/pkg/auth"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*connectHandler, *memory.InMemoryConnectionStore, string) {
	t.Helper()
	jwtCfg := auth.JWTConfig{SecretKey: "test-secret", Issuer: "wmsadmin", AccessExpiry: time.Hour, RefreshExpiry: time.Hour}
	gen, err := auth.NewJWTGenerator(jwtCfg)
	require.NoError(t, err)
	validator, err := auth.NewJWTValidator(jwtCfg)
	require.NoError(t, err)
	pair, err := gen.GenerateTokenPair(auth.UserContext{UserID: "1", Username: "admin"})
	require.NoError(t, err)

	store := memory.NewInMemoryConnectionStore()
	return &connectHandler{
		connections: store,
		validator:   validator,
		logger:      zap.NewNop(),
		now:         func() time.Time { return time.Unix(1700000000, 0) },
	}, store, pair.AccessToken
}

func wsRequest(route, connID string, query map[string]string) events.APIGatewayWebsocketProxyRequest {
	return events.APIGatewayWebsocketProxyRequest{
		RequestContext:        events.APIGatewayWebsocketProxyRequestContext{RouteKey: route, ConnectionID: connID},
		QueryStringParameters: query,
	}
}

func TestConnectStoresConnection(t *testing.T) {
	h, store, token := newHandler(t)
	ctx := context.Background()

	resp, err := h.handle(ctx, wsRequest("$connect", "c1", map[string]string{"token": token}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	conns, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, "admin", conns[0].Username)

	resp, err = h.handle(ctx, wsRequest("$disconnect", "c1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	conns, _ = store.List(ctx)
	assert.Empty(t, conns)
}

func TestConnectRejectsBadToken(t *testing.T) {
	h, store, _ := newHandler(t)
	ctx := context.Background()

	for _, q := range []map[string]string{nil, {"token": "garbage"}} {
		resp, err := h.handle(ctx, wsRequest("$connect", "c2", q))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	conns, _ := store.List(ctx)
	assert.Empty(t, conns)
}
