package dynamodb

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// commitResource is the single resource guarded by the commit lock.
const commitResource = "codes-commit"

// DistributedCommitLock serializes batch commits across instances with a
// lock item written under a condition. An expired holder is taken over.
type DistributedCommitLock struct {
	client    API
	tableName string
	ttl       time.Duration
	owner     string
	now       func() time.Time
	logger    *zap.Logger
}

// NewDistributedCommitLock creates a lock whose holders expire after ttl
func NewDistributedCommitLock(client API, tableName string, ttl time.Duration, logger *zap.Logger) *DistributedCommitLock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &DistributedCommitLock{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
		owner:     uuid.NewString(),
		now:       time.Now,
		logger:    logger,
	}
}

func lockKey() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: "LOCK#" + commitResource},
		attrSK: &types.AttributeValueMemberS{Value: "LOCK"},
	}
}

// Acquire retries with backoff until the lock is held or ctx is done
func (l *DistributedCommitLock) Acquire(ctx context.Context) (func(), error) {
	retry := 50 * time.Millisecond
	for {
		lockID, err := l.tryAcquire(ctx)
		if err == nil {
			return func() { l.release(lockID) }, nil
		}
		if !isConditionFailed(err) {
			return nil, fmt.Errorf("acquire commit lock: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retry):
			if retry < time.Second {
				retry = time.Duration(float64(retry) * 1.5)
			}
		}
	}
}

func (l *DistributedCommitLock) tryAcquire(ctx context.Context) (string, error) {
	now := l.now()
	expiresAt := now.Add(l.ttl)
	lockID := fmt.Sprintf("%s_%d", l.owner, now.UnixNano())

	item := lockKey()
	item["LockID"] = &types.AttributeValueMemberS{Value: lockID}
	item["Owner"] = &types.AttributeValueMemberS{Value: l.owner}
	item["AcquiredAt"] = &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)}
	item["ExpiresAtUnix"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt.UnixMilli(), 10)}
	item["TTL"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt.Unix(), 10)}

	_, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(l.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) OR ExpiresAtUnix < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.UnixMilli(), 10)},
		},
	})
	if err != nil {
		return "", err
	}
	l.logger.Debug("Commit lock acquired", zap.String("lockID", lockID))
	return lockID, nil
}

// release runs on a fresh context so a canceled request still frees the lock.
func (l *DistributedCommitLock) release(lockID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := l.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(l.tableName),
		Key:                 lockKey(),
		ConditionExpression: aws.String("LockID = :lockId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lockId": &types.AttributeValueMemberS{Value: lockID},
		},
	})
	switch {
	case err == nil:
		l.logger.Debug("Commit lock released", zap.String("lockID", lockID))
	case isConditionFailed(err):
		l.logger.Warn("Commit lock expired before release", zap.String("lockID", lockID))
	default:
		l.logger.Error("Failed to release commit lock", zap.String("lockID", lockID), zap.Error(err))
	}
}
