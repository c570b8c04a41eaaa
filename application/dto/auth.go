package dto

import "wmsadmin/domain/core/entities"

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=128"`
}

// LoginResponse covers both outcomes of a login attempt.
type LoginResponse struct {
	Success      bool               `json:"success"`
	Token        string             `json:"token,omitempty"`
	RefreshToken string             `json:"refreshToken,omitempty"`
	User         *entities.UserInfo `json:"user,omitempty"`
	Requires2FA  bool               `json:"requires2FA"`
	ErrorCount   int                `json:"errorCount,omitempty"`
	IsLocked     bool               `json:"isLocked,omitempty"`
	Message      string             `json:"message,omitempty"`
	TrackingID   string             `json:"trackingId,omitempty"`
}

// RefreshRequest is the body of POST /api/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// AuditLogRequest is the body of POST /api/audit/log.
type AuditLogRequest struct {
	EventType  string                 `json:"eventType" validate:"required"`
	UserID     string                 `json:"userId,omitempty"`
	Username   string                 `json:"username,omitempty"`
	IPAddress  string                 `json:"ipAddress,omitempty"`
	UserAgent  string                 `json:"userAgent,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	ErrorCount int                    `json:"errorCount,omitempty"`
	IsLocked   bool                   `json:"isLocked,omitempty"`
	TrackingID string                 `json:"trackingId,omitempty"`
	Timestamp  string                 `json:"timestamp,omitempty"`
}
