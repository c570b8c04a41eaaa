package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"wmsadmin/application/commands"
	"wmsadmin/application/commands/bus"
	"wmsadmin/application/dto"
	"wmsadmin/application/queries"
	querybus "wmsadmin/application/queries/bus"
	"wmsadmin/pkg/auth"
	"wmsadmin/pkg/common"
	apperrors "wmsadmin/pkg/errors"

	"go.uber.org/zap"
)

// CodesHandler serves the tree, search and batch endpoints
type CodesHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *apperrors.ErrorHandler
	logger     *zap.Logger
}

// NewCodesHandler creates a new codes handler
func NewCodesHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *apperrors.ErrorHandler,
	logger *zap.Logger,
) *CodesHandler {
	return &CodesHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// GetTree handles GET /codes/tree. The response carries an ETag of the
// tree content; a matching If-None-Match gets 304.
func (h *CodesHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetCodesTreeQuery{})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	tree, ok := result.(*queries.GetCodesTreeResult)
	if !ok {
		h.errors.Handle(w, r, apperrors.NewInternalError(fmt.Sprintf("unexpected tree result %T", result)))
		return
	}

	etag := tree.Version.ETag()
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if tree.Version.Matches(r.Header.Get("If-None-Match")) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	common.RespondJSON(w, http.StatusOK, tree.Tree)
}

// Search handles GET /codes/search
func (h *CodesHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := dto.SearchCodesRequest{
		Keyword:    q.Get("keyword"),
		MajorCatNo: q.Get("majorCatNo"),
		MidCatCode: q.Get("midCatCode"),
	}
	var err error
	if req.Page, err = intParam(q.Get("page")); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("page must be a number"))
		return
	}
	if req.PageSize, err = intParam(q.Get("pageSize")); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("pageSize must be a number"))
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.SearchCodesQuery{SearchCodesRequest: req})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// BatchSave handles POST /codes/batch. A rejected batch is answered with
// 422, or 409 when it lost an optimistic lock check.
func (h *CodesHandler) BatchSave(w http.ResponseWriter, r *http.Request) {
	var req dto.BatchSaveRequest
	if err := common.ParseJSONBody(w, r, &req); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.BatchSaveCommand{
		Request: req,
		Actor:   auth.UsernameFromContext(r.Context()),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	resp, ok := result.(*dto.BatchSaveResponse)
	if !ok {
		h.errors.Handle(w, r, apperrors.NewInternalError(fmt.Sprintf("unexpected batch result %T", result)))
		return
	}

	status := http.StatusOK
	switch {
	case resp.Success:
	case resp.HasLockConflict():
		status = http.StatusConflict
	default:
		status = http.StatusUnprocessableEntity
	}
	if !resp.Success {
		h.logger.Info("Batch rejected",
			zap.String("trackingId", resp.TrackingID),
			zap.Int("errors", len(resp.Errors)),
			zap.Int("status", status),
		)
	}
	common.RespondJSON(w, status, resp)
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
