package entities

// Account is a local login account.
type Account struct {
	ID             string   `json:"id"`
	Username       string   `json:"username"`
	Name           string   `json:"name"`
	Email          string   `json:"email,omitempty"`
	PasswordHash   string   `json:"-"`
	Roles          []string `json:"roles"`
	Permissions    []string `json:"permissions"`
	FailedAttempts int      `json:"-"`
	Locked         bool     `json:"-"`
}

// UserInfo is the public view returned on login.
type UserInfo struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Name        string   `json:"name"`
	Email       string   `json:"email,omitempty"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

func (a *Account) Info() UserInfo {
	return UserInfo{
		ID:          a.ID,
		Username:    a.Username,
		Name:        a.Name,
		Email:       a.Email,
		Roles:       append([]string{}, a.Roles...),
		Permissions: append([]string{}, a.Permissions...),
	}
}
