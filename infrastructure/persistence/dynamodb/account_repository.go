package dynamodb

import (
	"context"

	"wmsadmin/domain/core/entities"
	apperrors "wmsadmin/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Accounts are stored as PK=ACCOUNT#<username> with a PROFILE item and a
// separate FAILURES counter item, so unknown usernames get counters too.
const (
	accountPrefix = "ACCOUNT#"
	profileSK     = "PROFILE"
	failuresSK    = "FAILURES"
)

type profileItem struct {
	PK           string   `dynamodbav:"PK"`
	SK           string   `dynamodbav:"SK"`
	ID           string   `dynamodbav:"ID"`
	Username     string   `dynamodbav:"Username"`
	Name         string   `dynamodbav:"Name"`
	Email        string   `dynamodbav:"Email,omitempty"`
	PasswordHash string   `dynamodbav:"PasswordHash"`
	Roles        []string `dynamodbav:"Roles,stringset,omitempty"`
	Permissions  []string `dynamodbav:"Permissions,stringset,omitempty"`
}

type failuresItem struct {
	FailedAttempts int  `dynamodbav:"FailedAttempts"`
	Locked         bool `dynamodbav:"Locked"`
}

// AccountRepository implements ports.AccountRepository on DynamoDB
type AccountRepository struct {
	client    API
	tableName string
}

func NewAccountRepository(client API, tableName string) *AccountRepository {
	return &AccountRepository{client: client, tableName: tableName}
}

func accountKey(username, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: accountPrefix + username},
		attrSK: &types.AttributeValueMemberS{Value: sk},
	}
}

// SeedAccounts writes profiles that do not exist yet
func (r *AccountRepository) SeedAccounts(ctx context.Context, accounts []entities.Account) error {
	for _, a := range accounts {
		item, err := attributevalue.MarshalMap(profileItem{
			PK:           accountPrefix + a.Username,
			SK:           profileSK,
			ID:           a.ID,
			Username:     a.Username,
			Name:         a.Name,
			Email:        a.Email,
			PasswordHash: a.PasswordHash,
			Roles:        a.Roles,
			Permissions:  a.Permissions,
		})
		if err != nil {
			return apperrors.NewInternalError("encode account").WithCause(err)
		}
		_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(r.tableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		})
		if err != nil && !isConditionFailed(err) {
			return apperrors.NewDatabaseError("seed account", err)
		}
	}
	return nil
}

func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*entities.Account, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            accountKey(username, profileSK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("get account", err)
	}
	if out.Item == nil {
		return nil, apperrors.NewNotFoundError("account")
	}
	var p profileItem
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, apperrors.NewInternalError("decode account").WithCause(err)
	}

	f, err := r.failures(ctx, username)
	if err != nil {
		return nil, err
	}
	return &entities.Account{
		ID:             p.ID,
		Username:       p.Username,
		Name:           p.Name,
		Email:          p.Email,
		PasswordHash:   p.PasswordHash,
		Roles:          p.Roles,
		Permissions:    p.Permissions,
		FailedAttempts: f.FailedAttempts,
		Locked:         f.Locked,
	}, nil
}

func (r *AccountRepository) failures(ctx context.Context, username string) (failuresItem, error) {
	var f failuresItem
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            accountKey(username, failuresSK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return f, apperrors.NewDatabaseError("get failures", err)
	}
	if out.Item != nil {
		if err := attributevalue.UnmarshalMap(out.Item, &f); err != nil {
			return f, apperrors.NewInternalError("decode failures").WithCause(err)
		}
	}
	return f, nil
}

// RecordFailure atomically increments the counter and sets Locked once the
// count reaches threshold.
func (r *AccountRepository) RecordFailure(ctx context.Context, username string, threshold int) (*entities.Account, error) {
	update := expression.Add(expression.Name("FailedAttempts"), expression.Value(1))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return nil, apperrors.NewInternalError("build update").WithCause(err)
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       accountKey(username, failuresSK),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("record failure", err)
	}
	var f failuresItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &f); err != nil {
		return nil, apperrors.NewInternalError("decode failures").WithCause(err)
	}

	if threshold > 0 && f.FailedAttempts >= threshold && !f.Locked {
		_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:        aws.String(r.tableName),
			Key:              accountKey(username, failuresSK),
			UpdateExpression: aws.String("SET Locked = :t"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":t": &types.AttributeValueMemberBOOL{Value: true},
			},
		})
		if err != nil {
			return nil, apperrors.NewDatabaseError("lock account", err)
		}
		f.Locked = true
	}

	return &entities.Account{
		Username:       username,
		FailedAttempts: f.FailedAttempts,
		Locked:         f.Locked,
	}, nil
}

func (r *AccountRepository) ResetFailures(ctx context.Context, username string) error {
	if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       accountKey(username, failuresSK),
	}); err != nil {
		return apperrors.NewDatabaseError("reset failures", err)
	}
	return nil
}
