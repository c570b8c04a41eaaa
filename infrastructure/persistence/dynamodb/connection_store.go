package dynamodb

import (
	"context"
	"strings"
	"time"

	"wmsadmin/domain/core/entities"
	apperrors "wmsadmin/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const connectionPrefix = "CONNECTION#"

// connectionItem uses the composite key PK=CONNECTION#<id>, SK=METADATA.
type connectionItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
	entities.Connection
}

// ConnectionStore keeps WebSocket connections in their own table
type ConnectionStore struct {
	client    API
	tableName string
	ttl       time.Duration
}

// NewConnectionStore creates a store whose items expire after ttl
func NewConnectionStore(client API, tableName string, ttl time.Duration) *ConnectionStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &ConnectionStore{client: client, tableName: tableName, ttl: ttl}
}

func connectionKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: connectionPrefix + id},
		attrSK: &types.AttributeValueMemberS{Value: "METADATA"},
	}
}

func (s *ConnectionStore) Save(ctx context.Context, conn entities.Connection) error {
	if conn.ExpiresAt == 0 {
		conn.ExpiresAt = conn.ConnectedAt.Add(s.ttl).Unix()
	}
	item, err := attributevalue.MarshalMap(connectionItem{
		PK:         connectionPrefix + conn.ConnectionID,
		SK:         "METADATA",
		Connection: conn,
	})
	if err != nil {
		return apperrors.NewInternalError("encode connection").WithCause(err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return apperrors.NewDatabaseError("save connection", err)
	}
	return nil
}

func (s *ConnectionStore) Delete(ctx context.Context, connectionID string) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       connectionKey(connectionID),
	}); err != nil {
		return apperrors.NewDatabaseError("delete connection", err)
	}
	return nil
}

// List scans the table for connections that have not expired
func (s *ConnectionStore) List(ctx context.Context) ([]entities.Connection, error) {
	filter := expression.Name(attrPK).BeginsWith(connectionPrefix).
		And(expression.Name("ExpiresAt").GreaterThan(expression.Value(time.Now().Unix())))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, apperrors.NewInternalError("build scan").WithCause(err)
	}

	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                 aws.String(s.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var out []entities.Connection
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apperrors.NewDatabaseError("scan connections", err)
		}
		for _, raw := range page.Items {
			var item connectionItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				continue
			}
			if item.ConnectionID == "" {
				item.ConnectionID = strings.TrimPrefix(item.PK, connectionPrefix)
			}
			out = append(out, item.Connection)
		}
	}
	return out, nil
}
