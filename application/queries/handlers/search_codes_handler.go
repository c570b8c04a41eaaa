package handlers

import (
	"context"
	"fmt"
	"strings"

	"wmsadmin/application/dto"
	"wmsadmin/application/ports"
	"wmsadmin/application/queries"
	"wmsadmin/application/queries/bus"
	"wmsadmin/domain/core/entities"
	"wmsadmin/domain/core/valueobjects"
	"wmsadmin/pkg/common"
	apperrors "wmsadmin/pkg/errors"

	"go.uber.org/zap"
)

// SearchCodesHandler runs keyword searches over the stored tree
type SearchCodesHandler struct {
	repo   ports.CodesRepository
	logger *zap.Logger
}

// NewSearchCodesHandler creates a new search handler
func NewSearchCodesHandler(repo ports.CodesRepository, logger *zap.Logger) *SearchCodesHandler {
	return &SearchCodesHandler{repo: repo, logger: logger}
}

// Handle implements bus.QueryHandler
func (h *SearchCodesHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.SearchCodesQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query %T", q)
	}
	return h.Search(ctx, query)
}

// Search returns one page of hits, majors first, then mids, then subs.
func (h *SearchCodesHandler) Search(ctx context.Context, q queries.SearchCodesQuery) (*dto.SearchCodesResponse, error) {
	tree, err := h.repo.LoadTree(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("load tree", err)
	}
	tree.Sort()

	results := Match(tree, q.SearchCodesRequest)
	page := common.PaginationParams{Page: q.Page, PageSize: q.PageSize}.Normalize()
	start, end := page.Window(len(results))

	h.logger.Debug("Searched codes",
		zap.String("keyword", q.Keyword),
		zap.Int("total", len(results)),
	)
	return &dto.SearchCodesResponse{
		Results:    results[start:end],
		Total:      len(results),
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: common.CalculateTotalPages(len(results), page.PageSize),
	}, nil
}

// Match finds every row whose code or name contains the keyword, ignoring
// case. An empty keyword matches nothing. majorCatNo narrows all levels and
// midCatCode narrows mids and subs.
func Match(tree *entities.CodesTree, req dto.SearchCodesRequest) []dto.SearchCodeResult {
	results := []dto.SearchCodeResult{}
	keyword := strings.ToLower(req.Keyword)
	if keyword == "" {
		return results
	}
	contains := func(s string) bool { return strings.Contains(strings.ToLower(s), keyword) }

	for i := range tree.MajorCategories {
		m := tree.MajorCategories[i]
		if req.MajorCatNo != "" && m.MajorCatNo != req.MajorCatNo {
			continue
		}
		if fields := matched(contains, m.MajorCatNo, "majorCatNo", m.MajorCatName, "majorCatName"); len(fields) > 0 {
			results = append(results, dto.SearchCodeResult{Type: valueobjects.LevelMajor, Major: &m, MatchedFields: fields})
		}
	}
	for i := range tree.MidCategories {
		m := tree.MidCategories[i]
		if req.MajorCatNo != "" && m.MajorCatNo != req.MajorCatNo {
			continue
		}
		if req.MidCatCode != "" && m.MidCatCode != req.MidCatCode {
			continue
		}
		if fields := matched(contains, m.MidCatCode, "midCatCode", m.CodeDesc, "codeDesc"); len(fields) > 0 {
			results = append(results, dto.SearchCodeResult{Type: valueobjects.LevelMid, Mid: &m, MatchedFields: fields})
		}
	}
	for i := range tree.SubCategories {
		s := tree.SubCategories[i]
		if req.MajorCatNo != "" && s.MajorCatNo != req.MajorCatNo {
			continue
		}
		if req.MidCatCode != "" && s.MidCatCode != req.MidCatCode {
			continue
		}
		if fields := matched(contains, s.SubcatCode, "subcatCode", s.CodeDesc, "codeDesc"); len(fields) > 0 {
			results = append(results, dto.SearchCodeResult{Type: valueobjects.LevelSub, Sub: &s, MatchedFields: fields})
		}
	}
	return results
}

// matched takes value/name pairs in reporting order.
func matched(contains func(string) bool, pairs ...string) []string {
	var fields []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if contains(pairs[i]) {
			fields = append(fields, pairs[i+1])
		}
	}
	return fields
}
