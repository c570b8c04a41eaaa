package queries

import (
	"wmsadmin/domain/core/entities"
	"wmsadmin/domain/versioning"
)

// TreeCacheKey is the cache entry of the full tree.
const TreeCacheKey = "codes:tree"

// GetCodesTreeQuery asks for every row of the three levels
type GetCodesTreeQuery struct{}

// Validate validates the GetCodesTreeQuery
func (q GetCodesTreeQuery) Validate() error { return nil }

// CacheKey marks the tree as cacheable until the next commit
func (q GetCodesTreeQuery) CacheKey() string { return TreeCacheKey }

// GetCodesTreeResult is the tree and its content version
type GetCodesTreeResult struct {
	Tree    *entities.CodesTree
	Version *versioning.TreeVersion
}
