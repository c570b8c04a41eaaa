package handlers

import (
	"net/http"

	"wmsadmin/application/dto"
	"wmsadmin/application/services"
	"wmsadmin/pkg/auth"
	"wmsadmin/pkg/common"
	apperrors "wmsadmin/pkg/errors"
	"wmsadmin/pkg/utils"

	"go.uber.org/zap"
)

// AuthHandler serves login, refresh and logout
type AuthHandler struct {
	auth   *services.AuthService
	errors *apperrors.ErrorHandler
	logger *zap.Logger
}

func NewAuthHandler(authService *services.AuthService, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, errors: errorHandler, logger: logger}
}

// Login handles POST /auth/login. Wrong credentials answer 401 and a locked
// account 423, both with the login response body so the client can show
// the message and failure count.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := common.ParseJSONBody(w, r, &req); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	resp, err := h.auth.Login(r.Context(), req)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	status := http.StatusOK
	switch {
	case resp.IsLocked:
		status = http.StatusLocked
	case !resp.Success:
		status = http.StatusUnauthorized
	}
	common.RespondJSON(w, status, resp)
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := common.ParseJSONBody(w, r, &req); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError(err.Error()))
		return
	}
	resp, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, resp)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, apperrors.NewUnauthorizedError("Unauthorized"))
		return
	}
	trackingID := h.auth.Logout(r.Context(), user)
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"trackingId": trackingID.String(),
	})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, apperrors.NewUnauthorizedError("Unauthorized"))
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"id":          user.UserID,
		"username":    user.Username,
		"name":        user.Name,
		"roles":       user.Roles,
		"permissions": user.Permissions,
	})
}
