// Package seed builds the demo data shared by the memory and sqlite stores.
package seed

import (
	"fmt"
	"time"

	"wmsadmin/domain/config"
	"wmsadmin/domain/core/entities"
	"wmsadmin/pkg/auth"
)

// SeedActor is recorded as creator of every seeded row.
const SeedActor = "admin"

// Tree returns rules.SeedMajors majors, each with rules.SeedMidsPerMajor
// mids, each with rules.SeedSubsPerMid subs. Surrogate ids run from 1 per
// level in creation order.
func Tree(rules *config.CodesRules, now time.Time) *entities.CodesTree {
	tree := entities.NewCodesTree()
	midID, subID := 0, 0

	for i := 1; i <= rules.SeedMajors; i++ {
		majorNo := fmt.Sprintf("%03d", i)
		major := entities.MajorCategory{
			MajorCatID:   i,
			MajorCatNo:   majorNo,
			MajorCatName: "大分類-" + majorNo,
			LockVer:      1,
		}
		major.Stamp(SeedActor, now)
		tree.MajorCategories = append(tree.MajorCategories, major)

		for j := 1; j <= rules.SeedMidsPerMajor; j++ {
			midID++
			midCode := fmt.Sprintf("%03d", j)
			mid := entities.MidCategory{
				MidCatID:   midID,
				MajorCatID: i,
				MajorCatNo: majorNo,
				MidCatCode: midCode,
				CodeDesc:   fmt.Sprintf("中分類-%s-%s", majorNo, midCode),
				Value1:     entities.Float(0),
				Value2:     entities.Float(0),
				LockVer:    1,
			}
			mid.Stamp(SeedActor, now)
			tree.MidCategories = append(tree.MidCategories, mid)

			for k := 1; k <= rules.SeedSubsPerMid; k++ {
				subID++
				subCode := fmt.Sprintf("%03d", k)
				sub := entities.SubCategory{
					ID:         subID,
					MidCatID:   midID,
					MajorCatNo: majorNo,
					MidCatCode: midCode,
					SubcatCode: subCode,
					CodeDesc:   fmt.Sprintf("細分類-%s-%s-%s", majorNo, midCode, subCode),
					LockVer:    1,
				}
				sub.Stamp(SeedActor, now)
				tree.SubCategories = append(tree.SubCategories, sub)
			}
		}
	}
	return tree
}

// ModulePermissions are the permissions of the seven warehouse modules.
var ModulePermissions = []string{
	"basic-operations",
	"routine-operations",
	"inventory-operations",
	"customer-operations",
	"relocation-operations",
	"audit-operations",
	"warehouse-admin-operations",
}

type accountSeed struct {
	id, username, password, name string
	roles, permissions           []string
}

var defaultAccounts = []accountSeed{
	{"1", "admin", "Admin@123", "系統管理員", []string{"admin"}, []string{"*"}},
	{"2", "manager", "Manager@123", "主管", []string{"manager"}, ModulePermissions},
	{"3", "user", "User@123", "一般使用者", []string{"user"},
		[]string{"basic-operations", "routine-operations", "inventory-operations:read"}},
}

// Accounts returns the local login accounts with bcrypt hashed passwords.
func Accounts() ([]entities.Account, error) {
	out := make([]entities.Account, 0, len(defaultAccounts))
	for _, a := range defaultAccounts {
		hash, err := auth.HashPassword(a.password)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", a.username, err)
		}
		out = append(out, entities.Account{
			ID:           a.id,
			Username:     a.username,
			Name:         a.name,
			PasswordHash: hash,
			Roles:        append([]string{}, a.roles...),
			Permissions:  append([]string{}, a.permissions...),
		})
	}
	return out, nil
}
