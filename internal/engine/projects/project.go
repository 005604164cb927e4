package projects

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

type Permission string

const (
	PermissionView           Permission = "VIEW"
	PermissionEdit           Permission = "EDIT"
	PermissionDelete         Permission = "DELETE"
	PermissionManageUsers    Permission = "MANAGE_USERS"
	PermissionManageSettings Permission = "MANAGE_SETTINGS"
)

// AllPermissions is the grant a project creator receives.
func AllPermissions() PermissionSet {
	return PermissionSet{
		PermissionView,
		PermissionEdit,
		PermissionDelete,
		PermissionManageUsers,
		PermissionManageSettings,
	}
}

// PermissionSet is stored as a JSON array in a TEXT column.
type PermissionSet []Permission

func (s PermissionSet) Has(p Permission) bool {
	for _, held := range s {
		if held == p {
			return true
		}
	}
	return false
}

// Value implements the driver.Valuer interface for PermissionSet
func (s PermissionSet) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for PermissionSet
func (s *PermissionSet) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("unsupported type for PermissionSet")
	}
}

type Project struct {
	ID          string  `json:"id"`
	TenantID    string  `json:"tenant_id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
}

// Grant ties one user to one project with a permission set. At most one
// grant row exists per (user, project) pair.
type Grant struct {
	ID          string        `json:"id"`
	ProjectID   string        `json:"project_id"`
	UserID      string        `json:"user_id"`
	Permissions PermissionSet `json:"permissions"`
	CreatedAt   int64         `json:"created_at"`
	UpdatedAt   int64         `json:"updated_at"`
}

// Collaborator is the per-user permission summary embedded in project
// responses.
type Collaborator struct {
	UserID      string        `json:"userId"`
	Permissions PermissionSet `json:"permissions"`
}

// ProjectWithAccess is a project as seen by one caller: the project row, the
// caller's own permissions and the full collaborator list.
type ProjectWithAccess struct {
	Project
	Permissions PermissionSet  `json:"permissions"`
	Users       []Collaborator `json:"users"`
}

type Directory struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"project_id"`
	ParentID    *string `json:"parent_id,omitempty"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	IsRoot      bool    `json:"is_root"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
}

type Prompt struct {
	ID          string  `json:"id"`
	DirectoryID string  `json:"directory_id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Content     string  `json:"content"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
}
