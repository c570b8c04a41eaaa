package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wmsadmin/application/commands"
	"wmsadmin/application/commands/bus"
	"wmsadmin/application/dto"
	"wmsadmin/application/ports"
	"wmsadmin/domain/config"
	"wmsadmin/domain/core/aggregates"
	"wmsadmin/domain/core/valueobjects"
	"wmsadmin/domain/events"
	apperrors "wmsadmin/pkg/errors"

	"go.uber.org/zap"
)

// Batch outcomes reported to the metrics recorder.
const (
	OutcomeSaved    = "saved"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// MsgStoreBatchTooLarge is returned when the store cannot hold the change
// set in one transaction.
const MsgStoreBatchTooLarge = "批次資料量超過單次交易上限"

const defaultPublishTimeout = 5 * time.Second

// BatchSaveHandler plans a batch against a fresh snapshot under the commit
// lock, commits it and announces the result.
type BatchSaveHandler struct {
	repo     ports.CodesRepository
	lock     ports.CommitLock
	eventBus ports.EventBus
	cache    ports.Cache
	metrics  ports.MetricsRecorder
	rules    *config.CodesRules
	logger   *zap.Logger

	now            func() time.Time
	publishTimeout time.Duration
	publishing     sync.WaitGroup
}

// NewBatchSaveHandler creates a new batch save handler. eventBus, cache and
// metrics may be nil.
func NewBatchSaveHandler(
	repo ports.CodesRepository,
	lock ports.CommitLock,
	eventBus ports.EventBus,
	cache ports.Cache,
	metrics ports.MetricsRecorder,
	rules *config.CodesRules,
	logger *zap.Logger,
) *BatchSaveHandler {
	if rules == nil {
		rules = config.DefaultCodesRules()
	}
	return &BatchSaveHandler{
		repo:           repo,
		lock:           lock,
		eventBus:       eventBus,
		cache:          cache,
		metrics:        metrics,
		rules:          rules,
		logger:         logger,
		now:            time.Now,
		publishTimeout: defaultPublishTimeout,
	}
}

// Handle implements bus.CommandHandler
func (h *BatchSaveHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.BatchSaveCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command %T", cmd)
	}
	return h.Save(ctx, c)
}

// Save runs one batch. A rejected batch is not an error: the response
// carries Success false with the errors and failed items.
func (h *BatchSaveHandler) Save(ctx context.Context, cmd commands.BatchSaveCommand) (*dto.BatchSaveResponse, error) {
	start := h.now()
	trackingID := valueobjects.NewTrackingID(start)
	batch := cmd.Request.ToBatch()

	logger := h.logger.With(
		zap.String("trackingId", trackingID.String()),
		zap.String("userID", cmd.Actor),
		zap.Int("creates", len(batch.Creates)),
		zap.Int("updates", len(batch.Updates)),
		zap.Int("deletes", len(batch.Deletes)),
	)

	release, err := h.lock.Acquire(ctx)
	if err != nil {
		h.record(ctx, OutcomeError, start, 0, 0, 0)
		return nil, apperrors.NewUnavailableError("commit lock").WithCause(err)
	}
	defer release()

	tree, err := h.repo.LoadTree(ctx)
	if err != nil {
		h.record(ctx, OutcomeError, start, 0, 0, 0)
		return nil, apperrors.NewDatabaseError("load tree", err)
	}

	catalog, err := aggregates.NewCatalog(tree, h.rules)
	if err != nil {
		return nil, apperrors.NewInternalError("build catalog").WithCause(err)
	}

	cs, err := catalog.PlanBatch(batch, cmd.Actor, start)
	if err != nil {
		return h.reject(ctx, logger, trackingID, start, err)
	}

	if !cs.IsEmpty() {
		if err := h.repo.Commit(ctx, cs); err != nil {
			switch {
			case errors.Is(err, apperrors.ErrConcurrentModification):
				return h.reject(ctx, logger, trackingID, start,
					aggregates.Reject(apperrors.CodeOptimisticLockConflict, "lockVer", aggregates.MsgLockConflict))
			case errors.Is(err, apperrors.ErrBatchTooLarge):
				return h.reject(ctx, logger, trackingID, start,
					aggregates.Reject(apperrors.CodeBatchTooLarge, "", MsgStoreBatchTooLarge))
			}
			logger.Error("Batch commit failed", zap.Error(err))
			h.record(ctx, OutcomeError, start, 0, 0, 0)
			return nil, apperrors.NewDatabaseError("commit batch", err)
		}
	}

	if h.cache != nil {
		if err := h.cache.Clear(ctx); err != nil {
			logger.Warn("Failed to invalidate query cache", zap.Error(err))
		}
	}

	creates, updates, deletes := cs.Counts()
	pending := catalog.GetUncommittedEvents()
	pending = append(pending, events.NewBatchCommitted(trackingID, cs.Actor, creates, updates, deletes, start))
	catalog.MarkEventsAsCommitted()
	h.publish(logger, pending)

	h.record(ctx, OutcomeSaved, start, creates, updates, deletes)
	logger.Info("Batch saved")
	return dto.NewBatchSuccess(trackingID), nil
}

// Wait blocks until every background publish has finished.
func (h *BatchSaveHandler) Wait() {
	h.publishing.Wait()
}

func (h *BatchSaveHandler) reject(ctx context.Context, logger *zap.Logger, trackingID valueobjects.TrackingID, start time.Time, err error) (*dto.BatchSaveResponse, error) {
	rej, ok := aggregates.AsRejection(err)
	if !ok {
		h.record(ctx, OutcomeError, start, 0, 0, 0)
		return nil, apperrors.NewInternalError("plan batch").WithCause(err)
	}
	logger.Info("Batch rejected",
		zap.Int("errors", len(rej.Errors)),
		zap.Bool("lockConflict", rej.HasLockConflict()),
	)
	h.record(ctx, OutcomeRejected, start, 0, 0, 0)
	return dto.NewBatchFailure(trackingID, rej), nil
}

// publish sends events off the request path. Failures are logged only.
func (h *BatchSaveHandler) publish(logger *zap.Logger, pending []events.DomainEvent) {
	if h.eventBus == nil || len(pending) == 0 {
		return
	}
	h.publishing.Add(1)
	go func() {
		defer h.publishing.Done()
		ctx, cancel := context.WithTimeout(context.Background(), h.publishTimeout)
		defer cancel()
		if err := h.eventBus.PublishBatch(ctx, pending); err != nil {
			logger.Warn("Failed to publish batch events", zap.Int("events", len(pending)), zap.Error(err))
		}
	}()
}

func (h *BatchSaveHandler) record(ctx context.Context, outcome string, start time.Time, creates, updates, deletes int) {
	if h.metrics == nil {
		return
	}
	h.metrics.RecordBatch(ctx, outcome, h.now().Sub(start), creates, updates, deletes)
}
