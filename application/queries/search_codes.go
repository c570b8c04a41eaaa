package queries

import (
	"fmt"
	"unicode/utf8"

	"wmsadmin/application/dto"
	apperrors "wmsadmin/pkg/errors"
)

const maxKeywordLength = 100

// SearchCodesQuery is a keyword search across the three levels
type SearchCodesQuery struct {
	dto.SearchCodesRequest
}

// Validate validates the SearchCodesQuery
func (q SearchCodesQuery) Validate() error {
	if utf8.RuneCountInString(q.Keyword) > maxKeywordLength {
		return apperrors.NewValidationError(fmt.Sprintf("keyword must be at most %d characters", maxKeywordLength))
	}
	if q.Page < 0 || q.PageSize < 0 {
		return apperrors.NewValidationError("page and pageSize must not be negative")
	}
	return nil
}

// CacheKey identifies one page of one search
func (q SearchCodesQuery) CacheKey() string {
	return fmt.Sprintf("codes:search:%q:%q:%q:%d:%d", q.Keyword, q.MajorCatNo, q.MidCatCode, q.Page, q.PageSize)
}
