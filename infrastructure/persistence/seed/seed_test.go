package seed

import (
	"testing"
	"time"

	"wmsadmin/domain/config"
	"wmsadmin/pkg/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree(t *testing.T) {
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	rules := config.TestCodesRules()

	tree := Tree(rules, now)

	require.Len(t, tree.MajorCategories, 5)
	require.Len(t, tree.MidCategories, 20)
	require.Len(t, tree.SubCategories, 60)

	mid := tree.MidCategories[5]
	assert.Equal(t, 6, mid.MidCatID)
	assert.Equal(t, 2, mid.MajorCatID)
	assert.Equal(t, "002", mid.MajorCatNo)
	assert.Equal(t, "中分類-002-002", mid.CodeDesc)

	sub := tree.SubCategories[len(tree.SubCategories)-1]
	assert.Equal(t, 60, sub.ID)
	assert.Equal(t, 20, sub.MidCatID)
	assert.Equal(t, "細分類-005-004-003", sub.CodeDesc)
	assert.Equal(t, "20250304050607", sub.CreatedDate)
	assert.Equal(t, SeedActor, sub.ModifiedBy)
	assert.Equal(t, 1, sub.LockVer)
}

func TestAccounts(t *testing.T) {
	accounts, err := Accounts()
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	admin := accounts[0]
	assert.Equal(t, "admin", admin.Username)
	assert.Equal(t, []string{"*"}, admin.Permissions)
	assert.True(t, auth.CheckPassword(admin.PasswordHash, "Admin@123"))
	assert.False(t, auth.CheckPassword(admin.PasswordHash, "admin"))

	assert.Len(t, accounts[1].Permissions, 7)
}
