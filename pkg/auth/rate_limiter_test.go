package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowLimiter(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewSlidingWindowLimiter(2, time.Minute)
	l.now = func() time.Time { return clock }
	ip := WithPrefix(l, "ip")

	for i := 0; i < 2; i++ {
		ok, err := ip.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := ip.Allow(ctx, "10.0.0.1")
	assert.False(t, ok)

	ok, _ = ip.Allow(ctx, "10.0.0.2")
	assert.True(t, ok, "keys are independent")

	clock = clock.Add(61 * time.Second)
	ok, _ = ip.Allow(ctx, "10.0.0.1")
	assert.True(t, ok, "window slides")

	require.NoError(t, ip.Reset(ctx, "10.0.0.1"))
	ok, _ = ip.Allow(ctx, "10.0.0.1")
	assert.True(t, ok)

	clock = clock.Add(2 * time.Minute)
	_, _ = l.Allow(ctx, "other")
	assert.Equal(t, 1, l.keys(), "expired keys are dropped")
}

type fakeUpdater struct {
	count int
	err   error
	last  *dynamodb.UpdateItemInput
}

func (f *fakeUpdater) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.last = in
	if f.err != nil {
		return nil, f.err
	}
	f.count++
	return &dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{
		"Count": &types.AttributeValueMemberN{Value: "1"},
	}}, nil
}

func (f *fakeUpdater) DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDistributedRateLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("allowed", func(t *testing.T) {
		f := &fakeUpdater{}
		l := NewDistributedRateLimiter(f, "codes", 5, time.Minute, "LOGIN")

		ok, err := l.Allow(ctx, "10.0.0.1")

		require.NoError(t, err)
		assert.True(t, ok)
		pk := f.last.Key["PK"].(*types.AttributeValueMemberS).Value
		assert.Equal(t, "RATELIMIT#LOGIN#10.0.0.1", pk)
	})

	t.Run("limit reached", func(t *testing.T) {
		l := NewDistributedRateLimiter(&fakeUpdater{err: &types.ConditionalCheckFailedException{}}, "codes", 5, time.Minute, "LOGIN")

		ok, err := l.Allow(ctx, "10.0.0.1")

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("fails open", func(t *testing.T) {
		l := NewDistributedRateLimiter(&fakeUpdater{err: errors.New("throttled")}, "codes", 5, time.Minute, "LOGIN")

		ok, err := l.Allow(ctx, "10.0.0.1")

		assert.Error(t, err)
		assert.True(t, ok)
	})
}
