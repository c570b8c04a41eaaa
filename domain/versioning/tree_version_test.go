package versioning

import (
	"testing"

	"wmsadmin/domain/core/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeVersion(t *testing.T) {
	tree := entities.NewCodesTree()
	tree.MajorCategories = append(tree.MajorCategories, entities.MajorCategory{MajorCatID: 1, MajorCatNo: "001", LockVer: 1})

	v1, err := NewTreeVersion(tree)
	require.NoError(t, err)
	again, err := NewTreeVersion(tree.Clone())
	require.NoError(t, err)
	assert.Equal(t, v1.Checksum, again.Checksum)
	assert.True(t, v1.Matches(again.ETag()))
	assert.False(t, v1.Matches(""))

	tree.MajorCategories[0].LockVer = 2
	tree.MidCategories = append(tree.MidCategories, entities.MidCategory{MidCatID: 1, MajorCatNo: "001"})
	v2, err := NewTreeVersion(tree)
	require.NoError(t, err)
	assert.NotEqual(t, v1.Checksum, v2.Checksum)

	diff, err := CompareVersions(v1, v2)
	require.NoError(t, err)
	assert.Equal(t, &TreeDiff{Mids: 1}, diff)

	_, err = NewTreeVersion(nil)
	assert.Error(t, err)
}
