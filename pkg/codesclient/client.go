// Package codesclient is a Go client for the codes maintenance API. It
// satisfies editsession.Transport.
package codesclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"wmsadmin/application/dto"
	"wmsadmin/domain/core/entities"
	"wmsadmin/domain/core/valueobjects"
	"wmsadmin/pkg/editsession"
	apperrors "wmsadmin/pkg/errors"
	"wmsadmin/pkg/utils"
)

var _ editsession.Transport = (*Client)(nil)

// APIError is a non-2xx answer the client could not map onto a typed body.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("codes api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("codes api: %d: %s", e.Status, e.Message)
}

// Client calls the REST API under baseURL, for example
// http://localhost:8080/api.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets a bearer token obtained earlier.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the bearer token in use.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(t string) {
	c.mu.Lock()
	c.token = t
	c.mu.Unlock()
}

// Login authenticates and keeps the returned token for later calls. A
// rejected login is not an error: the response carries the message, the
// failure count and the lock flag.
func (c *Client) Login(ctx context.Context, username, password string) (*dto.LoginResponse, error) {
	req := dto.LoginRequest{Username: username, Password: password}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	var resp dto.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &resp, http.StatusUnauthorized, http.StatusLocked); err != nil {
		return nil, err
	}
	if resp.Success {
		c.setToken(resp.Token)
	}
	return &resp, nil
}

// Refresh exchanges a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	var resp dto.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", dto.RefreshRequest{RefreshToken: refreshToken}, &resp); err != nil {
		return nil, err
	}
	if resp.Success {
		c.setToken(resp.Token)
	}
	return &resp, nil
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return err
	}
	c.setToken("")
	return nil
}

func (c *Client) GetCodesTree(ctx context.Context) (*entities.CodesTree, error) {
	var tree entities.CodesTree
	if err := c.do(ctx, http.MethodGet, "/codes/tree", nil, &tree); err != nil {
		return nil, err
	}
	return &tree, nil
}

// Search runs a keyword search. Zero paging values use the server defaults.
func (c *Client) Search(ctx context.Context, req dto.SearchCodesRequest) (*dto.SearchCodesResponse, error) {
	q := url.Values{}
	q.Set("keyword", req.Keyword)
	if req.MajorCatNo != "" {
		q.Set("majorCatNo", req.MajorCatNo)
	}
	if req.MidCatCode != "" {
		q.Set("midCatCode", req.MidCatCode)
	}
	if req.Page > 0 {
		q.Set("page", strconv.Itoa(req.Page))
	}
	if req.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(req.PageSize))
	}
	var resp dto.SearchCodesResponse
	if err := c.do(ctx, http.MethodGet, "/codes/search?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BatchSave submits one batch. Rejected batches come back as a response
// with Success false, not as an error.
func (c *Client) BatchSave(ctx context.Context, req dto.BatchSaveRequest) (*dto.BatchSaveResponse, error) {
	var resp dto.BatchSaveResponse
	if err := c.do(ctx, http.MethodPost, "/codes/batch", req, &resp, http.StatusUnprocessableEntity, http.StatusConflict); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Menus returns the main menus visible to the current user.
func (c *Client) Menus(ctx context.Context) ([]entities.MainMenu, error) {
	var resp struct {
		MainMenus []entities.MainMenu `json:"mainMenus"`
	}
	if err := c.do(ctx, http.MethodGet, "/menus", nil, &resp); err != nil {
		return nil, err
	}
	return resp.MainMenus, nil
}

// LogAudit reports a client side audit event such as AUTO_LOGOUT.
func (c *Client) LogAudit(ctx context.Context, req dto.AuditLogRequest) (valueobjects.TrackingID, error) {
	var resp struct {
		Success    bool   `json:"success"`
		TrackingID string `json:"trackingId"`
	}
	if err := c.do(ctx, http.MethodPost, "/audit/log", req, &resp); err != nil {
		return "", err
	}
	return valueobjects.TrackingID(resp.TrackingID), nil
}

// do sends body as JSON and decodes the answer into out. Statuses listed in
// typed are decoded into out as well.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, typed ...int) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t := c.Token(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	for _, s := range typed {
		ok = ok || resp.StatusCode == s
	}
	if !ok {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body apperrors.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil || body.Message == "" {
		return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return &APIError{Status: resp.StatusCode, Code: body.Code, Message: body.Message}
}
