package handlers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"wmsadmin/application/commands"
	"wmsadmin/application/commands/bus"
	"wmsadmin/application/dto"
	"wmsadmin/domain/core/aggregates"
	"wmsadmin/domain/core/entities"
	"wmsadmin/domain/events"
	apperrors "wmsadmin/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var saveTime = time.Date(2025, 11, 15, 9, 30, 0, 0, time.UTC)

func handlerTree() *entities.CodesTree {
	tree := entities.NewCodesTree()
	tree.MajorCategories = []entities.MajorCategory{
		{MajorCatID: 1, MajorCatNo: "001", MajorCatName: "大分類-001", LockVer: 1},
	}
	tree.MidCategories = []entities.MidCategory{
		{MidCatID: 1, MajorCatID: 1, MajorCatNo: "001", MidCatCode: "A01", CodeDesc: "中分類", LockVer: 2},
	}
	return tree
}

type handlerFixture struct {
	repo    *MockCodesRepository
	lock    *MockCommitLock
	bus     *MockEventBus
	cache   *MockCache
	metrics *MockMetrics
	handler *BatchSaveHandler
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		repo:    new(MockCodesRepository),
		lock:    new(MockCommitLock),
		bus:     new(MockEventBus),
		cache:   new(MockCache),
		metrics: new(MockMetrics),
	}
	f.handler = NewBatchSaveHandler(f.repo, f.lock, f.bus, f.cache, f.metrics, nil, zap.NewNop())
	f.handler.now = func() time.Time { return saveTime }
	return f
}

func TestBatchSaveHandler_Success(t *testing.T) {
	// Arrange
	f := newHandlerFixture()
	f.lock.On("Acquire", mock.Anything).Return(nil)
	f.repo.On("LoadTree", mock.Anything).Return(handlerTree(), nil)
	f.repo.On("Commit", mock.Anything, mock.MatchedBy(func(cs *aggregates.ChangeSet) bool {
		return len(cs.MajorCreates) == 1 && len(cs.MidUpdates) == 1 && cs.Actor == "manager"
	})).Return(nil)
	f.cache.On("Clear", mock.Anything).Return(nil)
	f.metrics.On("RecordBatch", mock.Anything, OutcomeSaved, mock.Anything, 1, 1, 0).Return()

	var published []events.DomainEvent
	f.bus.On("PublishBatch", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		published = args.Get(1).([]events.DomainEvent)
	}).Return(nil)

	cmd := commands.BatchSaveCommand{
		Actor: "manager",
		Request: dto.BatchSaveRequest{
			Creates: []dto.CreateItem{{Type: "major", MajorCatNo: "002", MajorCatName: "新大分類"}},
			Updates: []dto.UpdateItem{{Type: "mid", MidCatID: 1, CodeDesc: "改名", LockVer: 2}},
		},
	}

	// Act
	resp, err := f.handler.Save(context.Background(), cmd)
	f.handler.Wait()

	// Assert
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, dto.MsgBatchSaved, resp.Message)
	assert.True(t, strings.HasPrefix(resp.TrackingID, "TRK-"))
	assert.Empty(t, resp.Errors)
	assert.Equal(t, 1, f.lock.released)

	require.Len(t, published, 3)
	assert.Equal(t, events.TypeBatchCommitted, published[2].GetEventType())
	committed := published[2].(events.BatchCommitted)
	assert.Equal(t, resp.TrackingID, committed.TrackingID)
	assert.Equal(t, 1, committed.Creates)

	f.repo.AssertExpectations(t)
	f.cache.AssertExpectations(t)
	f.metrics.AssertExpectations(t)
}

func TestBatchSaveHandler_RejectionDoesNotCommit(t *testing.T) {
	f := newHandlerFixture()
	f.lock.On("Acquire", mock.Anything).Return(nil)
	f.repo.On("LoadTree", mock.Anything).Return(handlerTree(), nil)
	f.metrics.On("RecordBatch", mock.Anything, OutcomeRejected, mock.Anything, 0, 0, 0).Return()

	resp, err := f.handler.Save(context.Background(), commands.BatchSaveCommand{
		Request: dto.BatchSaveRequest{
			Deletes: []dto.DeleteItem{{Type: "major", MajorCatID: 1, LockVer: 1}},
		},
	})
	f.handler.Wait()

	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, dto.MsgBatchRejected, resp.Message)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, apperrors.CodeHasChildren, resp.Errors[0].Code)
	require.Len(t, resp.FailedItems, 1)
	assert.Equal(t, "delete", resp.FailedItems[0].Type)
	assert.Equal(t, "1", resp.FailedItems[0].Index)
	assert.False(t, resp.HasLockConflict())

	f.repo.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
	f.bus.AssertNotCalled(t, "PublishBatch", mock.Anything, mock.Anything)
	f.cache.AssertNotCalled(t, "Clear", mock.Anything)
	assert.Equal(t, 1, f.lock.released)
}

func TestBatchSaveHandler_StaleLockVer(t *testing.T) {
	f := newHandlerFixture()
	f.lock.On("Acquire", mock.Anything).Return(nil)
	f.repo.On("LoadTree", mock.Anything).Return(handlerTree(), nil)
	f.metrics.On("RecordBatch", mock.Anything, OutcomeRejected, mock.Anything, 0, 0, 0).Return()

	resp, err := f.handler.Save(context.Background(), commands.BatchSaveCommand{
		Request: dto.BatchSaveRequest{
			Updates: []dto.UpdateItem{{Type: "mid", MidCatID: 1, CodeDesc: "改名", LockVer: 1}},
		},
	})

	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.True(t, resp.HasLockConflict())
	assert.Equal(t, aggregates.MsgLockConflict, resp.Errors[0].Message)
}

func TestBatchSaveHandler_CommitRace(t *testing.T) {
	tests := []struct {
		name      string
		commitErr error
		wantCode  string
	}{
		{"concurrent modification", apperrors.ErrConcurrentModification.WithDetail("id", 1), apperrors.CodeOptimisticLockConflict},
		{"store transaction limit", apperrors.ErrBatchTooLarge, apperrors.CodeBatchTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture()
			f.lock.On("Acquire", mock.Anything).Return(nil)
			f.repo.On("LoadTree", mock.Anything).Return(handlerTree(), nil)
			f.repo.On("Commit", mock.Anything, mock.Anything).Return(tt.commitErr)
			f.metrics.On("RecordBatch", mock.Anything, OutcomeRejected, mock.Anything, 0, 0, 0).Return()

			resp, err := f.handler.Save(context.Background(), commands.BatchSaveCommand{
				Request: dto.BatchSaveRequest{
					Updates: []dto.UpdateItem{{Type: "major", MajorCatID: 1, MajorCatName: "改名", LockVer: 1}},
				},
			})

			require.NoError(t, err)
			assert.False(t, resp.Success)
			require.Len(t, resp.Errors, 1)
			assert.Equal(t, tt.wantCode, resp.Errors[0].Code)
			f.bus.AssertNotCalled(t, "PublishBatch", mock.Anything, mock.Anything)
		})
	}
}

func TestBatchSaveHandler_InfrastructureErrors(t *testing.T) {
	t.Run("lock unavailable", func(t *testing.T) {
		f := newHandlerFixture()
		f.lock.On("Acquire", mock.Anything).Return(errors.New("timeout"))
		f.metrics.On("RecordBatch", mock.Anything, OutcomeError, mock.Anything, 0, 0, 0).Return()

		resp, err := f.handler.Save(context.Background(), commands.BatchSaveCommand{})

		assert.Nil(t, resp)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable))
		f.repo.AssertNotCalled(t, "LoadTree", mock.Anything)
	})

	t.Run("commit failure", func(t *testing.T) {
		f := newHandlerFixture()
		f.lock.On("Acquire", mock.Anything).Return(nil)
		f.repo.On("LoadTree", mock.Anything).Return(handlerTree(), nil)
		f.repo.On("Commit", mock.Anything, mock.Anything).Return(errors.New("disk full"))
		f.metrics.On("RecordBatch", mock.Anything, OutcomeError, mock.Anything, 0, 0, 0).Return()

		resp, err := f.handler.Save(context.Background(), commands.BatchSaveCommand{
			Request: dto.BatchSaveRequest{
				Creates: []dto.CreateItem{{Type: "major", MajorCatNo: "002", MajorCatName: "新"}},
			},
		})

		assert.Nil(t, resp)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDatabase))
		assert.Equal(t, 1, f.lock.released)
	})
}

func TestBatchSaveHandler_EmptyBatchSkipsCommit(t *testing.T) {
	f := newHandlerFixture()
	f.lock.On("Acquire", mock.Anything).Return(nil)
	f.repo.On("LoadTree", mock.Anything).Return(handlerTree(), nil)
	f.cache.On("Clear", mock.Anything).Return(nil)
	f.bus.On("PublishBatch", mock.Anything, mock.Anything).Return(nil)
	f.metrics.On("RecordBatch", mock.Anything, OutcomeSaved, mock.Anything, 0, 0, 0).Return()

	resp, err := f.handler.Save(context.Background(), commands.BatchSaveCommand{})
	f.handler.Wait()

	require.NoError(t, err)
	assert.True(t, resp.Success)
	f.repo.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
}

func TestBatchSaveHandler_ThroughCommandBus(t *testing.T) {
	f := newHandlerFixture()
	f.lock.On("Acquire", mock.Anything).Return(nil)
	f.repo.On("LoadTree", mock.Anything).Return(handlerTree(), nil)
	f.repo.On("Commit", mock.Anything, mock.Anything).Return(nil)
	f.cache.On("Clear", mock.Anything).Return(nil)
	f.bus.On("PublishBatch", mock.Anything, mock.Anything).Return(errors.New("bus down"))
	f.metrics.On("RecordBatch", mock.Anything, OutcomeSaved, mock.Anything, 1, 0, 0).Return()

	b := bus.NewCommandBus(bus.ValidationMiddleware())
	require.NoError(t, b.Register(commands.BatchSaveCommand{}, f.handler))

	result, err := b.Send(context.Background(), commands.BatchSaveCommand{
		Actor: "admin",
		Request: dto.BatchSaveRequest{
			Creates: []dto.CreateItem{{MajorCatNo: "002", MajorCatName: "新"}},
		},
	})
	f.handler.Wait()

	require.NoError(t, err)
	resp, ok := result.(*dto.BatchSaveResponse)
	require.True(t, ok)
	assert.True(t, resp.Success)
	f.bus.AssertExpectations(t)
}
