package handlers

import (
	"context"
	"fmt"

	"wmsadmin/application/ports"
	"wmsadmin/application/queries"
	"wmsadmin/application/queries/bus"
	"wmsadmin/domain/versioning"
	apperrors "wmsadmin/pkg/errors"

	"go.uber.org/zap"
)

// GetCodesTreeHandler loads the full tree
type GetCodesTreeHandler struct {
	repo   ports.CodesRepository
	logger *zap.Logger
}

// NewGetCodesTreeHandler creates a new tree handler
func NewGetCodesTreeHandler(repo ports.CodesRepository, logger *zap.Logger) *GetCodesTreeHandler {
	return &GetCodesTreeHandler{repo: repo, logger: logger}
}

// Handle implements bus.QueryHandler
func (h *GetCodesTreeHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	if _, ok := q.(queries.GetCodesTreeQuery); !ok {
		return nil, fmt.Errorf("unexpected query %T", q)
	}
	return h.Get(ctx)
}

// Get returns the tree ordered by surrogate id together with its version
func (h *GetCodesTreeHandler) Get(ctx context.Context) (*queries.GetCodesTreeResult, error) {
	tree, err := h.repo.LoadTree(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("load tree", err)
	}
	tree.Sort()

	version, err := versioning.NewTreeVersion(tree)
	if err != nil {
		return nil, apperrors.NewInternalError("compute tree version").WithCause(err)
	}

	h.logger.Debug("Loaded codes tree",
		zap.Int("majors", version.MajorCount),
		zap.Int("mids", version.MidCount),
		zap.Int("subs", version.SubCount),
	)
	return &queries.GetCodesTreeResult{Tree: tree, Version: version}, nil
}
