package entities

// MenuItem is a navigation entry. An item with children is a group.
type MenuItem struct {
	ID                  string     `json:"id" yaml:"id"`
	Label               string     `json:"label" yaml:"label"`
	LabelEn             string     `json:"labelEn,omitempty" yaml:"labelEn,omitempty"`
	Path                string     `json:"path,omitempty" yaml:"path,omitempty"`
	Icon                string     `json:"icon,omitempty" yaml:"icon,omitempty"`
	Children            []MenuItem `json:"children,omitempty" yaml:"children,omitempty"`
	RequiredPermissions []string   `json:"requiredPermissions,omitempty" yaml:"requiredPermissions,omitempty"`
	RequiredRoles       []string   `json:"requiredRoles,omitempty" yaml:"requiredRoles,omitempty"`
}

// MainMenu is a top level module.
type MainMenu struct {
	ID                  string     `json:"id" yaml:"id"`
	Label               string     `json:"label" yaml:"label"`
	LabelEn             string     `json:"labelEn" yaml:"labelEn"`
	Icon                string     `json:"icon,omitempty" yaml:"icon,omitempty"`
	Items               []MenuItem `json:"items" yaml:"items"`
	RequiredPermissions []string   `json:"requiredPermissions,omitempty" yaml:"requiredPermissions,omitempty"`
	RequiredRoles       []string   `json:"requiredRoles,omitempty" yaml:"requiredRoles,omitempty"`
}

// MenuConfig is the whole menu definition file.
type MenuConfig struct {
	MainMenus []MainMenu `json:"mainMenus" yaml:"mainMenus"`
}
