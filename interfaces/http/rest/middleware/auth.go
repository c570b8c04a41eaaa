package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"wmsadmin/application/services"
	"wmsadmin/pkg/auth"
	"wmsadmin/pkg/common"

	"go.uber.org/zap"
)

// Authenticate rejects requests without a valid bearer access token and
// puts the caller's user context on the request.
func Authenticate(validator *auth.JWTValidator, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				respondUnauthorized(w, "Missing authentication token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("Invalid token",
					zap.Error(err),
					zap.String("ip", getClientIP(r)),
					zap.String("path", r.URL.Path),
				)
				switch {
				case errors.Is(err, auth.ErrExpiredToken):
					respondUnauthorized(w, "Token has expired")
				case errors.Is(err, auth.ErrInvalidSignature):
					respondUnauthorized(w, "Invalid token signature")
				default:
					respondUnauthorized(w, "Invalid token")
				}
				return
			}

			logger.Debug("Request authenticated",
				zap.String("userID", claims.Username),
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method),
			)
			next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), claims.User())))
		})
	}
}

// OptionalAuthenticate attaches the user when a valid token is present and
// lets anonymous requests through. An invalid token is still rejected.
func OptionalAuthenticate(validator *auth.JWTValidator, logger *zap.Logger) func(next http.Handler) http.Handler {
	required := Authenticate(validator, logger)
	return func(next http.Handler) http.Handler {
		authed := required(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if extractToken(r) == "" {
				next.ServeHTTP(w, r)
				return
			}
			authed.ServeHTTP(w, r)
		})
	}
}

// ClientInfo records the caller's IP and user agent for audit events.
func ClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := common.WithClient(r.Context(), getClientIP(r), r.UserAgent())
		if id := common.ExtractRequestID(r); id != "" {
			ctx = common.WithRequestID(ctx, id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken reads a bearer token from the Authorization header.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// getClientIP extracts the client IP address
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

// respondUnauthorized sends an unauthorized response
func respondUnauthorized(w http.ResponseWriter, message string) {
	respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// respondWithError writes the same envelope as the error handler
func respondWithError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"type":    errType,
		"message": message,
	})
}

// RequireRole creates middleware that requires any of roles
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return require(func(g services.Grants) bool {
		for _, want := range roles {
			for _, have := range g.Roles {
				if have == want {
					return true
				}
			}
		}
		return false
	})
}

// RequirePermission creates middleware that requires a module permission.
// Wildcard and read grants count, as in the menu.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return require(func(g services.Grants) bool { return g.HasPermission(permission) })
}

func require(allowed func(services.Grants) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.GetUserFromContext(r.Context())
			if err != nil {
				respondUnauthorized(w, "Unauthorized")
				return
			}
			if !allowed(services.Grants{Roles: user.Roles, Permissions: user.Permissions}) {
				respondWithError(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
