package dynamodb

import (
	"context"
	"fmt"
	"strconv"

	"wmsadmin/domain/core/aggregates"
	"wmsadmin/domain/core/entities"
	"wmsadmin/domain/core/valueobjects"
	apperrors "wmsadmin/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MaxTransactItems is the TransactWriteItems limit.
const MaxTransactItems = 100

// Rows live in one partition per level, sorted by zero padded id. Each row
// has a companion key item so natural keys stay unique under concurrent
// commits.
const (
	attrPK      = "PK"
	attrSK      = "SK"
	attrLockVer = "lockVer"
)

func levelPK(level valueobjects.Level) string { return "CODES#" + string(level) }

func rowSK(id int) string { return fmt.Sprintf("ID#%08d", id) }

func keyPK(level valueobjects.Level, key string) string { return "CODEKEY#" + string(level) + "#" + key }

const keySK = "KEY"

func majorKey(m entities.MajorCategory) string { return m.MajorCatNo }

func midKey(m entities.MidCategory) string { return m.MajorCatNo + "#" + m.MidCatCode }

func subKey(s entities.SubCategory) string {
	return s.MajorCatNo + "#" + s.MidCatCode + "#" + s.SubcatCode
}

// Row attributes use the JSON field names of the entities.
func encodeOpts(o *attributevalue.EncoderOptions) { o.TagKey = "json" }

func decodeOpts(o *attributevalue.DecoderOptions) { o.TagKey = "json" }

// CodesRepository implements ports.CodesRepository on DynamoDB
type CodesRepository struct {
	client    API
	tableName string
	logger    *zap.Logger
}

func NewCodesRepository(client API, tableName string, logger *zap.Logger) *CodesRepository {
	return &CodesRepository{client: client, tableName: tableName, logger: logger}
}

// LoadTree queries the three level partitions in parallel
func (r *CodesRepository) LoadTree(ctx context.Context) (*entities.CodesTree, error) {
	tree := entities.NewCodesTree()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.queryLevel(ctx, valueobjects.LevelMajor, &tree.MajorCategories)
	})
	g.Go(func() error {
		return r.queryLevel(ctx, valueobjects.LevelMid, &tree.MidCategories)
	})
	g.Go(func() error {
		return r.queryLevel(ctx, valueobjects.LevelSub, &tree.SubCategories)
	})

	if err := g.Wait(); err != nil {
		return nil, apperrors.NewDatabaseError("load tree", err)
	}
	if tree.MajorCategories == nil {
		tree.MajorCategories = []entities.MajorCategory{}
	}
	if tree.MidCategories == nil {
		tree.MidCategories = []entities.MidCategory{}
	}
	if tree.SubCategories == nil {
		tree.SubCategories = []entities.SubCategory{}
	}
	tree.Sort()
	return tree, nil
}

func (r *CodesRepository) queryLevel(ctx context.Context, level valueobjects.Level, out interface{}) error {
	keyCond := expression.Key(attrPK).Equal(expression.Value(levelPK(level)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("query %s: %w", level, err)
		}
		items = append(items, page.Items...)
	}
	if err := attributevalue.UnmarshalListOfMapsWithOptions(items, out, decodeOpts); err != nil {
		return fmt.Errorf("decode %s rows: %w", level, err)
	}
	return nil
}

// Commit writes the change set as one transaction
func (r *CodesRepository) Commit(ctx context.Context, cs *aggregates.ChangeSet) error {
	items, err := r.transactItems(cs)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	if len(items) > MaxTransactItems {
		return apperrors.ErrBatchTooLarge.WithDetail("items", len(items))
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		if isTransactionConflict(err) {
			r.logger.Info("Commit lost a write condition", zap.Error(err))
			return apperrors.ErrConcurrentModification.WithCause(err)
		}
		return apperrors.NewDatabaseError("commit", err)
	}
	return nil
}

// SeedIfEmpty writes tree in transactions of at most MaxTransactItems when
// the major partition is empty.
func (r *CodesRepository) SeedIfEmpty(ctx context.Context, tree *entities.CodesTree) (bool, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: levelPK(valueobjects.LevelMajor)},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return false, apperrors.NewDatabaseError("check seed", err)
	}
	if len(out.Items) > 0 {
		return false, nil
	}

	items, err := r.transactItems(&aggregates.ChangeSet{
		MajorCreates: tree.MajorCategories,
		MidCreates:   tree.MidCategories,
		SubCreates:   tree.SubCategories,
	})
	if err != nil {
		return false, err
	}
	for start := 0; start < len(items); start += MaxTransactItems {
		end := start + MaxTransactItems
		if end > len(items) {
			end = len(items)
		}
		if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items[start:end]}); err != nil {
			return false, apperrors.NewDatabaseError("seed", err)
		}
	}
	return true, nil
}

func (r *CodesRepository) transactItems(cs *aggregates.ChangeSet) ([]types.TransactWriteItem, error) {
	var items []types.TransactWriteItem
	add := func(level valueobjects.Level, id int, key string, row interface{}) error {
		put, err := r.createItems(level, id, key, row)
		if err != nil {
			return err
		}
		items = append(items, put...)
		return nil
	}
	update := func(level valueobjects.Level, id, expected int, row interface{}) error {
		put, err := r.updateItem(level, id, expected, row)
		if err != nil {
			return err
		}
		items = append(items, put)
		return nil
	}
	remove := func(level valueobjects.Level, id, expected int, key string) error {
		del, err := r.deleteItems(level, id, expected, key)
		if err != nil {
			return err
		}
		items = append(items, del...)
		return nil
	}

	for _, m := range cs.MajorCreates {
		if err := add(valueobjects.LevelMajor, m.MajorCatID, majorKey(m), m); err != nil {
			return nil, err
		}
	}
	for _, m := range cs.MidCreates {
		if err := add(valueobjects.LevelMid, m.MidCatID, midKey(m), m); err != nil {
			return nil, err
		}
	}
	for _, s := range cs.SubCreates {
		if err := add(valueobjects.LevelSub, s.ID, subKey(s), s); err != nil {
			return nil, err
		}
	}
	for _, ch := range cs.MajorUpdates {
		if err := update(valueobjects.LevelMajor, ch.Row.MajorCatID, ch.ExpectedLockVer, ch.Row); err != nil {
			return nil, err
		}
	}
	for _, ch := range cs.MidUpdates {
		if err := update(valueobjects.LevelMid, ch.Row.MidCatID, ch.ExpectedLockVer, ch.Row); err != nil {
			return nil, err
		}
	}
	for _, ch := range cs.SubUpdates {
		if err := update(valueobjects.LevelSub, ch.Row.ID, ch.ExpectedLockVer, ch.Row); err != nil {
			return nil, err
		}
	}
	for _, ch := range cs.MajorDeletes {
		if err := remove(valueobjects.LevelMajor, ch.Row.MajorCatID, ch.ExpectedLockVer, majorKey(ch.Row)); err != nil {
			return nil, err
		}
	}
	for _, ch := range cs.MidDeletes {
		if err := remove(valueobjects.LevelMid, ch.Row.MidCatID, ch.ExpectedLockVer, midKey(ch.Row)); err != nil {
			return nil, err
		}
	}
	for _, ch := range cs.SubDeletes {
		if err := remove(valueobjects.LevelSub, ch.Row.ID, ch.ExpectedLockVer, subKey(ch.Row)); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (r *CodesRepository) marshalRow(level valueobjects.Level, id int, row interface{}) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMapWithOptions(row, encodeOpts)
	if err != nil {
		return nil, fmt.Errorf("encode %s %d: %w", level, id, err)
	}
	item[attrPK] = &types.AttributeValueMemberS{Value: levelPK(level)}
	item[attrSK] = &types.AttributeValueMemberS{Value: rowSK(id)}
	return item, nil
}

func (r *CodesRepository) createItems(level valueobjects.Level, id int, key string, row interface{}) ([]types.TransactWriteItem, error) {
	item, err := r.marshalRow(level, id, row)
	if err != nil {
		return nil, err
	}
	absent, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(attrPK))).
		Build()
	if err != nil {
		return nil, err
	}
	keyItem := map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: keyPK(level, key)},
		attrSK: &types.AttributeValueMemberS{Value: keySK},
		"id":   &types.AttributeValueMemberN{Value: strconv.Itoa(id)},
	}
	return []types.TransactWriteItem{
		{Put: &types.Put{
			TableName:                aws.String(r.tableName),
			Item:                     item,
			ConditionExpression:      absent.Condition(),
			ExpressionAttributeNames: absent.Names(),
		}},
		{Put: &types.Put{
			TableName:                aws.String(r.tableName),
			Item:                     keyItem,
			ConditionExpression:      absent.Condition(),
			ExpressionAttributeNames: absent.Names(),
		}},
	}, nil
}

func lockVerCondition(expected int) (expression.Expression, error) {
	return expression.NewBuilder().
		WithCondition(expression.Name(attrLockVer).Equal(expression.Value(expected))).
		Build()
}

func (r *CodesRepository) updateItem(level valueobjects.Level, id, expected int, row interface{}) (types.TransactWriteItem, error) {
	item, err := r.marshalRow(level, id, row)
	if err != nil {
		return types.TransactWriteItem{}, err
	}
	cond, err := lockVerCondition(expected)
	if err != nil {
		return types.TransactWriteItem{}, err
	}
	return types.TransactWriteItem{Put: &types.Put{
		TableName:                 aws.String(r.tableName),
		Item:                      item,
		ConditionExpression:       cond.Condition(),
		ExpressionAttributeNames:  cond.Names(),
		ExpressionAttributeValues: cond.Values(),
	}}, nil
}

func (r *CodesRepository) deleteItems(level valueobjects.Level, id, expected int, key string) ([]types.TransactWriteItem, error) {
	cond, err := lockVerCondition(expected)
	if err != nil {
		return nil, err
	}
	return []types.TransactWriteItem{
		{Delete: &types.Delete{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				attrPK: &types.AttributeValueMemberS{Value: levelPK(level)},
				attrSK: &types.AttributeValueMemberS{Value: rowSK(id)},
			},
			ConditionExpression:       cond.Condition(),
			ExpressionAttributeNames:  cond.Names(),
			ExpressionAttributeValues: cond.Values(),
		}},
		{Delete: &types.Delete{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				attrPK: &types.AttributeValueMemberS{Value: keyPK(level, key)},
				attrSK: &types.AttributeValueMemberS{Value: keySK},
			},
		}},
	}, nil
}
