package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wmsadmin/application/dto"
	"wmsadmin/infrastructure/config"
	"wmsadmin/infrastructure/di"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Environment:           "test",
		LogLevel:              "error",
		StorageBackend:        config.StorageMemory,
		SeedData:              true,
		AWSRegion:             "ap-northeast-1",
		JWTSecret:             "test-secret",
		JWTIssuer:             "wmsadmin",
		JWTExpiry:             time.Hour,
		RefreshExpiry:         24 * time.Hour,
		LoginLockoutThreshold: 6,
		LoginRateLimit:        30,
		EnableMetrics:         true,
		IsLambda:              true,
	}
	c, cleanup, err := di.InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return NewRouterFromContainer(c).Setup()
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler, username, password string) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp dto.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Token
}

func TestProbes(t *testing.T) {
	h := newTestServer(t)

	assert.Equal(t, http.StatusOK, doJSON(t, h, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, h, http.MethodGet, "/ready", "", nil).Code)

	rec := doJSON(t, h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestReadinessFailure(t *testing.T) {
	h := NewRouter(Deps{Ready: func(context.Context) error { return errors.New("down") }}).Setup()
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, h, http.MethodGet, "/ready", "", nil).Code)
}

func TestLoginFailureStatus(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "admin", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp dto.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, 1, resp.ErrorCount)
}

func TestCodesRoutesRequireToken(t *testing.T) {
	h := newTestServer(t)

	for _, path := range []string{"/api/codes/tree", "/api/codes/search", "/api/menus", "/api/v1/codes/tree"} {
		rec := doJSON(t, h, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestTreeETag(t *testing.T) {
	h := newTestServer(t)
	token := login(t, h, "user", "User@123")

	rec := doJSON(t, h, http.MethodGet, "/api/codes/tree", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/api/codes/tree", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestBatchSaveStatuses(t *testing.T) {
	h := newTestServer(t)
	token := login(t, h, "admin", "Admin@123")

	ok := doJSON(t, h, http.MethodPost, "/api/codes/batch", token, dto.BatchSaveRequest{
		Creates: []dto.CreateItem{{Type: "major", MajorCatNo: "Z01", MajorCatName: "新大分類"}},
	})
	require.Equal(t, http.StatusOK, ok.Code, ok.Body.String())

	dup := doJSON(t, h, http.MethodPost, "/api/codes/batch", token, dto.BatchSaveRequest{
		Creates: []dto.CreateItem{{Type: "major", MajorCatNo: "Z01", MajorCatName: "重複"}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, dup.Code)

	var resp dto.BatchSaveResponse
	require.NoError(t, json.Unmarshal(dup.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Errors)
}

func TestBatchSaveRejectsUnknownFields(t *testing.T) {
	h := newTestServer(t)
	token := login(t, h, "admin", "Admin@123")

	rec := doJSON(t, h, http.MethodPost, "/api/codes/batch", token, map[string]interface{}{"bogus": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMenusFilteredByGrant(t *testing.T) {
	h := newTestServer(t)

	decode := func(rec *httptest.ResponseRecorder) []json.RawMessage {
		var body struct {
			MainMenus []json.RawMessage `json:"mainMenus"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body.MainMenus
	}

	admin := decode(doJSON(t, h, http.MethodGet, "/api/menus", login(t, h, "admin", "Admin@123"), nil))
	user := decode(doJSON(t, h, http.MethodGet, "/api/menus", login(t, h, "user", "User@123"), nil))
	assert.NotEmpty(t, user)
	assert.Greater(t, len(admin), len(user))
}

func TestAuditLogAuthRules(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/audit/log", "", dto.AuditLogRequest{EventType: "LOGIN_FAILED", Username: "x"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/audit/log", "", dto.AuditLogRequest{EventType: "LOGOUT"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/audit/log", "not-a-token", dto.AuditLogRequest{EventType: "LOGIN_FAILED"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLegacyRouterHeaders(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v1", rec.Header().Get("X-API-Version"))

	rec = doJSON(t, h, http.MethodGet, "/api/v1/codes/search?keyword=001", login(t, h, "user", "User@123"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.SearchCodesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotZero(t, resp.Total)
}
