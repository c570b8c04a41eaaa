package codesclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"wmsadmin/application/dto"
	"wmsadmin/domain/core/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_LoginKeepsToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var req dto.LoginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if req.Password != "Admin@123" {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(dto.LoginResponse{Success: false, ErrorCount: 1, Message: "bad"})
				return
			}
			_ = json.NewEncoder(w).Encode(dto.LoginResponse{Success: true, Token: "tok"})
		case "/api/codes/tree":
			gotAuth = r.Header.Get("Authorization")
			_ = json.NewEncoder(w).Encode(entities.CodesTree{
				MajorCategories: []entities.MajorCategory{{MajorCatID: 1, MajorCatNo: "A01"}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL + "/api/")
	ctx := context.Background()

	resp, err := c.Login(ctx, "admin", "wrong")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, 1, resp.ErrorCount)
	assert.Empty(t, c.Token())

	_, err = c.Login(ctx, "", "x")
	assert.Error(t, err)

	resp, err = c.Login(ctx, "admin", "Admin@123")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "tok", c.Token())

	tree, err := c.GetCodesTree(ctx)
	require.NoError(t, err)
	assert.Len(t, tree.MajorCategories, 1)
	assert.Equal(t, "Bearer tok", gotAuth)
}

func TestClient_BatchSaveStatuses(t *testing.T) {
	status := http.StatusUnprocessableEntity
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusInternalServerError {
			_, _ = w.Write([]byte(`{"error":true,"type":"INTERNAL","message":"boom","code":"X"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(dto.BatchSaveResponse{
			Success: false,
			Message: dto.MsgBatchRejected,
			Errors:  []dto.BatchError{{Field: "majorCatNo", Message: "m", Code: "DUPLICATE_KEY"}},
		})
	}))
	defer srv.Close()
	c := New(srv.URL)
	ctx := context.Background()

	resp, err := c.BatchSave(ctx, dto.BatchSaveRequest{})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	require.Len(t, resp.Errors, 1)

	status = http.StatusConflict
	_, err = c.BatchSave(ctx, dto.BatchSaveRequest{})
	require.NoError(t, err)

	status = http.StatusInternalServerError
	_, err = c.BatchSave(ctx, dto.BatchSaveRequest{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.Status)
	assert.Equal(t, "X", apiErr.Code)
	assert.Equal(t, "boom", apiErr.Message)
}

func TestClient_SearchQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/codes/search", r.URL.Path)
		assert.Equal(t, "a 1", r.URL.Query().Get("keyword"))
		assert.Equal(t, "A01", r.URL.Query().Get("majorCatNo"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Empty(t, r.URL.Query().Get("pageSize"))
		_ = json.NewEncoder(w).Encode(dto.SearchCodesResponse{Total: 3, Page: 2, PageSize: 20, TotalPages: 1})
	}))
	defer srv.Close()

	resp, err := New(srv.URL).Search(context.Background(), dto.SearchCodesRequest{Keyword: "a 1", MajorCatNo: "A01", Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Total)
}
