package versioning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"wmsadmin/domain/core/entities"
)

// TreeVersion fingerprints one snapshot of the code tree.
type TreeVersion struct {
	Checksum   string `json:"checksum"`
	MajorCount int    `json:"major_count"`
	MidCount   int    `json:"mid_count"`
	SubCount   int    `json:"sub_count"`
}

// NewTreeVersion hashes tree. The tree must already be in id order, which
// every repository guarantees.
func NewTreeVersion(tree *entities.CodesTree) (*TreeVersion, error) {
	if tree == nil {
		return nil, fmt.Errorf("tree cannot be nil")
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tree for checksum: %w", err)
	}
	hash := sha256.Sum256(data)
	return &TreeVersion{
		Checksum:   hex.EncodeToString(hash[:]),
		MajorCount: len(tree.MajorCategories),
		MidCount:   len(tree.MidCategories),
		SubCount:   len(tree.SubCategories),
	}, nil
}

// ETag renders the checksum as a strong HTTP entity tag.
func (v *TreeVersion) ETag() string {
	return `"` + v.Checksum[:16] + `"`
}

// Matches reports whether an If-None-Match header value names this version.
func (v *TreeVersion) Matches(ifNoneMatch string) bool {
	return ifNoneMatch != "" && (ifNoneMatch == v.ETag() || ifNoneMatch == "*")
}

// TreeDiff is the per-level row count change between two versions.
type TreeDiff struct {
	Majors int `json:"majors"`
	Mids   int `json:"mids"`
	Subs   int `json:"subs"`
}

// CompareVersions returns the row count deltas from v1 to v2.
func CompareVersions(v1, v2 *TreeVersion) (*TreeDiff, error) {
	if v1 == nil || v2 == nil {
		return nil, fmt.Errorf("versions cannot be nil")
	}
	return &TreeDiff{
		Majors: v2.MajorCount - v1.MajorCount,
		Mids:   v2.MidCount - v1.MidCount,
		Subs:   v2.SubCount - v1.SubCount,
	}, nil
}
