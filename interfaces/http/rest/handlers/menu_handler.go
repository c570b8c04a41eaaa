package handlers

import (
	"net/http"

	"wmsadmin/application/dto"
	"wmsadmin/application/services"
	"wmsadmin/pkg/auth"
	"wmsadmin/pkg/common"
	apperrors "wmsadmin/pkg/errors"
	"wmsadmin/pkg/utils"
)

// MenuHandler serves the role filtered menu tree
type MenuHandler struct {
	menus  *services.MenuService
	errors *apperrors.ErrorHandler
}

func NewMenuHandler(menus *services.MenuService, errorHandler *apperrors.ErrorHandler) *MenuHandler {
	return &MenuHandler{menus: menus, errors: errorHandler}
}

func grantsOf(r *http.Request) (services.Grants, error) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		return services.Grants{}, apperrors.NewUnauthorizedError("Unauthorized")
	}
	return services.Grants{Roles: user.Roles, Permissions: user.Permissions}, nil
}

// List handles GET /menus
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	g, err := grantsOf(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"mainMenus": h.menus.MenusFor(g),
	})
}

// Lookup handles GET /menus/lookup?path=
func (h *MenuHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	g, err := grantsOf(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		h.errors.Handle(w, r, apperrors.NewValidationError("path is required"))
		return
	}
	item, ok := h.menus.Lookup(g, path)
	if !ok {
		h.errors.Handle(w, r, apperrors.NewNotFoundError("menu item"))
		return
	}
	common.RespondJSON(w, http.StatusOK, item)
}

// AuditHandler accepts audit events reported by clients
type AuditHandler struct {
	audit  *services.AuditService
	errors *apperrors.ErrorHandler
}

func NewAuditHandler(audit *services.AuditService, errorHandler *apperrors.ErrorHandler) *AuditHandler {
	return &AuditHandler{audit: audit, errors: errorHandler}
}

// Log handles POST /audit/log. Login events are accepted without a token;
// the others need one.
func (h *AuditHandler) Log(w http.ResponseWriter, r *http.Request) {
	var req dto.AuditLogRequest
	if err := common.ParseJSONBody(w, r, &req); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError(err.Error()))
		return
	}
	trackingID, err := h.audit.RecordRequest(r.Context(), req, auth.UsernameFromContext(r.Context()))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"trackingId": trackingID.String(),
	})
}
