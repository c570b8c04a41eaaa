package websocket

import (
	"context"
	"errors"
	"testing"

	"wmsadmin/application/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	err  error
	last *apigatewaymanagementapi.PostToConnectionInput
}

func (f *fakeAPI) PostToConnection(_ context.Context, in *apigatewaymanagementapi.PostToConnectionInput, _ ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error) {
	f.last = in
	if f.err != nil {
		return nil, f.err
	}
	return &apigatewaymanagementapi.PostToConnectionOutput{}, nil
}

func TestAPIGatewayPusher(t *testing.T) {
	ctx := context.Background()

	api := &fakeAPI{}
	p := NewAPIGatewayPusher(api)
	require.NoError(t, p.Push(ctx, "conn-1", []byte(`{"type":"x"}`)))
	assert.Equal(t, "conn-1", aws.ToString(api.last.ConnectionId))
	assert.JSONEq(t, `{"type":"x"}`, string(api.last.Data))

	api.err = &types.GoneException{Message: aws.String("gone")}
	err := p.Push(ctx, "conn-2", nil)
	assert.ErrorIs(t, err, ports.ErrConnectionGone)

	api.err = errors.New("throttled")
	err = p.Push(ctx, "conn-3", nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ports.ErrConnectionGone))
}
