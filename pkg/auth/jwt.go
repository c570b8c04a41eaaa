package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMissingToken     = errors.New("missing authentication token")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrWrongTokenType   = errors.New("wrong token type")
)

// Token types carried in the typ claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims represents the JWT claims
type Claims struct {
	UserID      string   `json:"uid"`
	Username    string   `json:"username"`
	Name        string   `json:"name,omitempty"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	TokenType   string   `json:"typ"`
	jwt.RegisteredClaims
}

// JWTConfig holds the shared HS256 settings
type JWTConfig struct {
	SecretKey     string
	Issuer        string
	Audience      []string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// JWTValidator handles JWT validation
type JWTValidator struct {
	secretKey []byte
	issuer    string
	audience  []string
	now       func() time.Time
}

// NewJWTValidator creates a new JWT validator
func NewJWTValidator(config JWTConfig) (*JWTValidator, error) {
	if config.SecretKey == "" {
		return nil, errors.New("secret key required for HS256")
	}
	return &JWTValidator{
		secretKey: []byte(config.SecretKey),
		issuer:    config.Issuer,
		audience:  config.Audience,
		now:       time.Now,
	}, nil
}

// ValidateToken validates an access token and returns the claims
func (v *JWTValidator) ValidateToken(tokenString string) (*Claims, error) {
	return v.validate(tokenString, TokenTypeAccess)
}

// ValidateRefreshToken validates a refresh token and returns the claims
func (v *JWTValidator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return v.validate(tokenString, TokenTypeRefresh)
}

func (v *JWTValidator) validate(tokenString, tokenType string) (*Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if len(v.audience) > 0 {
		opts = append(opts, jwt.WithAudience(v.audience[0]))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secretKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrSignatureInvalid) || errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrInvalidSignature
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.Username == "" {
		return nil, fmt.Errorf("%w: missing username", ErrInvalidClaims)
	}
	if claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// JWTGenerator generates JWT tokens
type JWTGenerator struct {
	secretKey     []byte
	issuer        string
	audience      []string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	now           func() time.Time
}

// NewJWTGenerator creates a new JWT generator
func NewJWTGenerator(config JWTConfig) (*JWTGenerator, error) {
	if config.SecretKey == "" {
		return nil, errors.New("secret key required for HS256")
	}
	g := &JWTGenerator{
		secretKey:     []byte(config.SecretKey),
		issuer:        config.Issuer,
		audience:      config.Audience,
		accessExpiry:  config.AccessExpiry,
		refreshExpiry: config.RefreshExpiry,
		now:           time.Now,
	}
	if g.accessExpiry <= 0 {
		g.accessExpiry = 8 * time.Hour
	}
	if g.refreshExpiry <= 0 {
		g.refreshExpiry = 7 * 24 * time.Hour
	}
	return g, nil
}

// UserContext represents user information from JWT
type UserContext struct {
	UserID      string
	Username    string
	Name        string
	Roles       []string
	Permissions []string
}

// TokenPair is an access token with its refresh token
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// GenerateTokenPair signs an access and a refresh token for user
func (g *JWTGenerator) GenerateTokenPair(user UserContext) (*TokenPair, error) {
	now := g.now()
	access, err := g.sign(user, TokenTypeAccess, now, g.accessExpiry)
	if err != nil {
		return nil, err
	}
	refresh, err := g.sign(user, TokenTypeRefresh, now, g.refreshExpiry)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: now.Add(g.accessExpiry)}, nil
}

func (g *JWTGenerator) sign(user UserContext, tokenType string, now time.Time, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID:      user.UserID,
		Username:    user.Username,
		Name:        user.Name,
		Roles:       user.Roles,
		Permissions: user.Permissions,
		TokenType:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   user.Username,
			Audience:  g.audience,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secretKey)
}

// User converts validated claims back into a user context
func (c *Claims) User() *UserContext {
	return &UserContext{
		UserID:      c.UserID,
		Username:    c.Username,
		Name:        c.Name,
		Roles:       c.Roles,
		Permissions: c.Permissions,
	}
}

type contextKey string

const UserContextKey contextKey = "user"

// GetUserFromContext extracts user from context
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(UserContextKey).(*UserContext)
	if !ok || user == nil {
		return nil, errors.New("user not found in context")
	}
	return user, nil
}

// SetUserInContext adds user to context
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// UsernameFromContext returns the authenticated username, or "".
func UsernameFromContext(ctx context.Context) string {
	if user, err := GetUserFromContext(ctx); err == nil {
		return user.Username
	}
	return ""
}
