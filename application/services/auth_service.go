package services

import (
	"context"
	"fmt"

	"wmsadmin/application/dto"
	"wmsadmin/application/ports"
	"wmsadmin/domain/core/entities"
	"wmsadmin/domain/core/valueobjects"
	"wmsadmin/pkg/auth"
	apperrors "wmsadmin/pkg/errors"

	"go.uber.org/zap"
)

// Login outcomes reported to the metrics recorder.
const (
	LoginSuccess = "success"
	LoginFailed  = "failed"
	LoginLocked  = "locked"
)

// Login messages shown to the user.
const (
	MsgInvalidCredentials = "您輸入的帳號或密碼不正確，請重新輸入。"
	msgLockedFormat       = "您已連續輸入錯誤達 %d 次，帳號已被鎖定。請與管理人員聯繫。"
)

// LockedMessage is shown once threshold consecutive failures lock an account.
func LockedMessage(threshold int) string {
	return fmt.Sprintf(msgLockedFormat, threshold)
}

// AuthService checks local credentials and issues tokens
type AuthService struct {
	accounts  ports.AccountRepository
	tokens    *auth.JWTGenerator
	validator *auth.JWTValidator
	audit     *AuditService
	metrics   ports.MetricsRecorder
	threshold int
	logger    *zap.Logger
}

// NewAuthService creates a new auth service. metrics may be nil.
func NewAuthService(
	accounts ports.AccountRepository,
	tokens *auth.JWTGenerator,
	validator *auth.JWTValidator,
	audit *AuditService,
	metrics ports.MetricsRecorder,
	threshold int,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		accounts:  accounts,
		tokens:    tokens,
		validator: validator,
		audit:     audit,
		metrics:   metrics,
		threshold: threshold,
		logger:    logger,
	}
}

// Login authenticates req. Wrong credentials and locked accounts are not
// errors; they come back as a response with Success false.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	account, err := s.accounts.FindByUsername(ctx, req.Username)
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}

	if account != nil && account.Locked {
		return s.locked(ctx, req.Username, account.FailedAttempts), nil
	}

	if account == nil || !auth.CheckPassword(account.PasswordHash, req.Password) {
		failed, err := s.accounts.RecordFailure(ctx, req.Username, s.threshold)
		if err != nil {
			return nil, err
		}
		if failed.Locked {
			return s.locked(ctx, req.Username, failed.FailedAttempts), nil
		}
		trackingID := s.audit.Record(ctx, AuditEvent{
			Type:       valueobjects.AuditLoginFailed,
			Username:   req.Username,
			ErrorCount: failed.FailedAttempts,
		})
		s.recordLogin(ctx, LoginFailed)
		return &dto.LoginResponse{
			Success:    false,
			Message:    MsgInvalidCredentials,
			ErrorCount: failed.FailedAttempts,
			TrackingID: trackingID.String(),
		}, nil
	}

	if err := s.accounts.ResetFailures(ctx, account.Username); err != nil {
		return nil, err
	}
	info := account.Info()
	resp, err := s.issue(info)
	if err != nil {
		return nil, err
	}
	resp.TrackingID = s.audit.Record(ctx, AuditEvent{
		Type:     valueobjects.AuditLoginSuccess,
		UserID:   info.ID,
		Username: info.Username,
	}).String()
	s.recordLogin(ctx, LoginSuccess)
	s.logger.Info("Login succeeded", zap.String("userID", info.Username))
	return resp, nil
}

// Refresh exchanges a valid refresh token for a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	claims, err := s.validator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("invalid refresh token").WithCause(err)
	}
	account, err := s.accounts.FindByUsername(ctx, claims.Username)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("account no longer exists").WithCause(err)
	}
	if account.Locked {
		return nil, apperrors.NewUnauthorizedError(LockedMessage(s.threshold))
	}
	info := account.Info()
	resp, err := s.issue(info)
	if err != nil {
		return nil, err
	}
	resp.TrackingID = s.audit.Record(ctx, AuditEvent{
		Type:     valueobjects.AuditSessionExtended,
		UserID:   info.ID,
		Username: info.Username,
	}).String()
	return resp, nil
}

// Logout records the end of a session. Tokens are stateless, so the client
// discards them.
func (s *AuthService) Logout(ctx context.Context, user *auth.UserContext) valueobjects.TrackingID {
	return s.audit.Record(ctx, AuditEvent{
		Type:     valueobjects.AuditLogout,
		UserID:   user.UserID,
		Username: user.Username,
	})
}

func (s *AuthService) locked(ctx context.Context, username string, attempts int) *dto.LoginResponse {
	trackingID := s.audit.Record(ctx, AuditEvent{
		Type:       valueobjects.AuditLoginLocked,
		Username:   username,
		ErrorCount: attempts,
		IsLocked:   true,
	})
	s.recordLogin(ctx, LoginLocked)
	s.logger.Warn("Login attempt on locked account", zap.String("userID", username))
	return &dto.LoginResponse{
		Success:    false,
		Message:    LockedMessage(s.threshold),
		ErrorCount: attempts,
		IsLocked:   true,
		TrackingID: trackingID.String(),
	}
}

func (s *AuthService) issue(info entities.UserInfo) (*dto.LoginResponse, error) {
	pair, err := s.tokens.GenerateTokenPair(auth.UserContext{
		UserID:      info.ID,
		Username:    info.Username,
		Name:        info.Name,
		Roles:       info.Roles,
		Permissions: info.Permissions,
	})
	if err != nil {
		return nil, apperrors.NewInternalError("sign token").WithCause(err)
	}
	return &dto.LoginResponse{
		Success:      true,
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         &info,
		Requires2FA:  false,
	}, nil
}

func (s *AuthService) recordLogin(ctx context.Context, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordLogin(ctx, outcome)
	}
}
