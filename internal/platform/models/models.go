package models

type Tenant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// User is the local row for an identity-provider account. ExternalID is the
// provider's stable subject id; local rows are created by the registration
// flow, never auto-provisioned from a token.
type User struct {
	ID         string  `json:"id"`
	ExternalID string  `json:"external_id"`
	Email      string  `json:"email"`
	Name       *string `json:"name,omitempty"`
	AvatarURL  *string `json:"avatar_url,omitempty"`
	CreatedAt  int64   `json:"created_at"`
	UpdatedAt  int64   `json:"updated_at"`
}

type TenantMembership struct {
	UserID      string `json:"user_id"`
	TenantID    string `json:"tenant_id"`
	IsSuperUser bool   `json:"is_super_user"`
	CreatedAt   int64  `json:"created_at"`

	Tenant *Tenant `json:"tenant,omitempty"`
	User   *User   `json:"user,omitempty"`
}
