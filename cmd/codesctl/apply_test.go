package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wmsadmin/infrastructure/config"
	"wmsadmin/infrastructure/di"
	"wmsadmin/interfaces/http/rest"
	"wmsadmin/pkg/codesclient"
	"wmsadmin/pkg/editsession"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *codesclient.Client {
	t.Helper()
	c, cleanup, err := di.InitializeContainer(context.Background(), &config.Config{
		Environment:           "test",
		LogLevel:              "error",
		StorageBackend:        config.StorageMemory,
		SeedData:              true,
		JWTSecret:             "test-secret",
		JWTIssuer:             "wmsadmin",
		JWTExpiry:             time.Hour,
		RefreshExpiry:         time.Hour,
		LoginLockoutThreshold: 6,
		LoginRateLimit:        30,
		IsLambda:              true,
	})
	require.NoError(t, err)
	t.Cleanup(cleanup)

	srv := httptest.NewServer(rest.NewRouterFromContainer(c).Setup())
	t.Cleanup(srv.Close)

	client := codesclient.New(srv.URL + "/api")
	resp, err := client.Login(context.Background(), "admin", "Admin@123")
	require.NoError(t, err)
	require.True(t, resp.Success)
	return client
}

func TestParsePlan(t *testing.T) {
	tests := []struct {
		name string
		in   string
		err  string
	}{
		{"empty", "edits: []", "no edits"},
		{"unknown op", "edits:\n  - op: rename\n    major: '001'", "unknown op"},
		{"missing major", "edits:\n  - op: delete\n    mid: '001'", "major is required"},
		{"sub without mid", "edits:\n  - op: delete\n    major: '001'\n    sub: '001'", "sub needs mid"},
		{"unknown field", "edits:\n  - op: add\n    major: Z01\n    colour: red", "parse edits"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parsePlan(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}

	p, err := parsePlan(strings.NewReader("edits:\n  - op: update\n    major: '001'\n    mid: '002'\n    set: {desc: x, value1: 1.5}"))
	require.NoError(t, err)
	require.Len(t, p.Edits, 1)
	assert.Equal(t, "mid", p.Edits[0].level())
	assert.Equal(t, 1.5, *p.Edits[0].Set.Value1)
}

const editsYAML = `
edits:
  - op: add
    major: Z01
    set: {name: 新大分類}
  - op: add
    major: Z01
    mid: M01
    set: {desc: 新中分類, value1: 2.5}
  - op: add
    major: Z01
    mid: M01
    sub: S01
    set: {desc: 新細分類}
  - op: update
    major: "001"
    mid: "002"
    set: {desc: 已更新}
  - op: delete
    major: "001"
    mid: "001"
    sub: "003"
`

func TestApplyPlan(t *testing.T) {
	ctx := context.Background()
	client := newServer(t)

	p, err := parsePlan(strings.NewReader(editsYAML))
	require.NoError(t, err)

	s := editsession.New(client)
	require.NoError(t, s.Load(ctx))

	var batches []string
	err = newApplier(s, func(res *editsession.SaveResult) {
		batches = append(batches, res.TrackingID)
	}).apply(ctx, p)
	require.NoError(t, err)
	assert.Len(t, batches, 3)
	assert.False(t, s.HasUnsavedChanges())

	tree, err := client.GetCodesTree(ctx)
	require.NoError(t, err)

	var mid, updated bool
	for _, m := range tree.MidCategories {
		if m.MajorCatNo == "Z01" && m.MidCatCode == "M01" {
			mid = true
			require.NotNil(t, m.Value1)
			assert.Equal(t, 2.5, *m.Value1)
		}
		if m.MajorCatNo == "001" && m.MidCatCode == "002" {
			updated = m.CodeDesc == "已更新"
		}
	}
	assert.True(t, mid)
	assert.True(t, updated)

	var sub, deleted = false, true
	for _, sc := range tree.SubCategories {
		if sc.MajorCatNo == "Z01" && sc.MidCatCode == "M01" && sc.SubcatCode == "S01" {
			sub = true
		}
		if sc.MajorCatNo == "001" && sc.MidCatCode == "001" && sc.SubcatCode == "003" {
			deleted = false
		}
	}
	assert.True(t, sub)
	assert.True(t, deleted)
}

func TestApplyStopsOnRejectedBatch(t *testing.T) {
	ctx := context.Background()
	client := newServer(t)

	p, err := parsePlan(strings.NewReader("edits:\n  - op: add\n    major: '001'\n    set: {name: 重複}"))
	require.NoError(t, err)

	s := editsession.New(client)
	require.NoError(t, s.Load(ctx))

	err = newApplier(s, nil).apply(ctx, p)
	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.False(t, rejected.Result.Submitted)
	assert.NotEmpty(t, rejected.Result.Errors)
	assert.True(t, s.HasPendingCreate())
}

func TestApplyMissingRow(t *testing.T) {
	ctx := context.Background()
	client := newServer(t)

	p, err := parsePlan(strings.NewReader("edits:\n  - op: delete\n    major: '999'"))
	require.NoError(t, err)

	s := editsession.New(client)
	require.NoError(t, s.Load(ctx))
	assert.ErrorIs(t, newApplier(s, nil).apply(ctx, p), editsession.ErrRowNotFound)
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, encode(&buf, "yaml", map[string]interface{}{"majorCatNo": "Z01"}))
	assert.Equal(t, "majorCatNo: Z01\n", buf.String())

	assert.Error(t, encode(&buf, "xml", nil))
}
