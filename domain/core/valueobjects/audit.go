package valueobjects

// AuditEventType names a security event.
type AuditEventType string

const (
	AuditLoginSuccess     AuditEventType = "LOGIN_SUCCESS"
	AuditLoginFailed      AuditEventType = "LOGIN_FAILED"
	AuditLoginLocked      AuditEventType = "LOGIN_LOCKED"
	AuditLogout           AuditEventType = "LOGOUT"
	Audit2FASend          AuditEventType = "2FA_SEND"
	Audit2FAVerifySuccess AuditEventType = "2FA_VERIFY_SUCCESS"
	Audit2FAVerifyFailed  AuditEventType = "2FA_VERIFY_FAILED"
	AuditAutoLogout       AuditEventType = "AUTO_LOGOUT"
	AuditSessionExtended  AuditEventType = "SESSION_EXTENDED"
)

var auditEventTypes = map[AuditEventType]bool{
	AuditLoginSuccess:     true,
	AuditLoginFailed:      true,
	AuditLoginLocked:      true,
	AuditLogout:           true,
	Audit2FASend:          true,
	Audit2FAVerifySuccess: true,
	Audit2FAVerifyFailed:  true,
	AuditAutoLogout:       true,
	AuditSessionExtended:  true,
}

func (t AuditEventType) IsValid() bool { return auditEventTypes[t] }

// PreAuth reports whether the event may be recorded without a session.
func (t AuditEventType) PreAuth() bool {
	return t == AuditLoginSuccess || t == AuditLoginFailed || t == AuditLoginLocked
}
