package services

import (
	"strings"

	"wmsadmin/application/ports"
	"wmsadmin/domain/core/entities"
)

// wildcardPermission grants every permission.
const wildcardPermission = "*"

// MenuService filters the navigation menus for a caller
type MenuService struct {
	source ports.MenuSource
}

// NewMenuService creates a new menu service
func NewMenuService(source ports.MenuSource) *MenuService {
	return &MenuService{source: source}
}

// Grants is what a caller holds.
type Grants struct {
	Roles       []string
	Permissions []string
}

// HasPermission reports whether grants satisfy permission. "*" satisfies
// everything and "x:read" satisfies a requirement of "x".
func (g Grants) HasPermission(permission string) bool {
	for _, p := range g.Permissions {
		if p == wildcardPermission || p == permission {
			return true
		}
		if base, _, ok := strings.Cut(p, ":"); ok && base == permission {
			return true
		}
	}
	return false
}

func (g Grants) hasRole(role string) bool {
	for _, r := range g.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// allows applies any-of semantics to both lists. An empty list places no
// restriction.
func (g Grants) allows(roles, permissions []string) bool {
	if len(roles) > 0 {
		ok := false
		for _, r := range roles {
			if g.hasRole(r) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(permissions) > 0 {
		for _, p := range permissions {
			if g.HasPermission(p) {
				return true
			}
		}
		return false
	}
	return true
}

// MenusFor returns the main menus visible to grants. Groups whose children
// are all hidden are dropped, and so are main menus left without items.
func (s *MenuService) MenusFor(g Grants) []entities.MainMenu {
	all := s.source.Menus().MainMenus
	out := make([]entities.MainMenu, 0, len(all))
	for _, m := range all {
		if !g.allows(m.RequiredRoles, m.RequiredPermissions) {
			continue
		}
		m.Items = filterItems(m.Items, g)
		if len(m.Items) == 0 {
			continue
		}
		out = append(out, m)
	}
	return out
}

func filterItems(items []entities.MenuItem, g Grants) []entities.MenuItem {
	out := make([]entities.MenuItem, 0, len(items))
	for _, it := range items {
		if !g.allows(it.RequiredRoles, it.RequiredPermissions) {
			continue
		}
		if len(it.Children) > 0 {
			it.Children = filterItems(it.Children, g)
			if len(it.Children) == 0 {
				continue
			}
		}
		out = append(out, it)
	}
	return out
}

// FindByPath searches every level of menus for the item at path.
func FindByPath(menus []entities.MainMenu, path string) (*entities.MenuItem, bool) {
	for i := range menus {
		if it, ok := findItem(menus[i].Items, path); ok {
			return it, true
		}
	}
	return nil, false
}

func findItem(items []entities.MenuItem, path string) (*entities.MenuItem, bool) {
	for i := range items {
		if items[i].Path == path {
			return &items[i], true
		}
		if it, ok := findItem(items[i].Children, path); ok {
			return it, true
		}
	}
	return nil, false
}

// Lookup finds path among the menus visible to grants.
func (s *MenuService) Lookup(g Grants, path string) (*entities.MenuItem, bool) {
	return FindByPath(s.MenusFor(g), path)
}
