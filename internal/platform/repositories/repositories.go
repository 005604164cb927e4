package repositories

import (
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
	"promptdepot/internal/platform/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the local row for an identity-provider account. The
// registration flow may be retried by the client, so a duplicate external id
// returns the existing row instead of surfacing the constraint violation. A
// constraint hit on another column (the email unique index) finds no row
// under this external id and surfaces the original error.
func (r *UserRepository) Create(user *models.User) (*models.User, error) {
	_, err := r.db.Exec(`
		INSERT INTO users (id, external_id, email, name, avatar_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.ExternalID, user.Email, user.Name, user.AvatarURL, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			existing, getErr := r.GetByExternalID(user.ExternalID)
			if getErr != nil {
				return nil, getErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(id string) (*models.User, error) {
	return r.getBy("id", id)
}

func (r *UserRepository) GetByExternalID(externalID string) (*models.User, error) {
	return r.getBy("external_id", externalID)
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	return r.getBy("email", email)
}

func (r *UserRepository) getBy(column, value string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRow(`
		SELECT id, external_id, email, name, avatar_url, created_at, updated_at
		FROM users WHERE `+column+` = ?
	`, value).Scan(&user.ID, &user.ExternalID, &user.Email, &user.Name, &user.AvatarURL, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) Update(user *models.User) error {
	_, err := r.db.Exec(`
		UPDATE users SET email = ?, name = ?, avatar_url = ?, updated_at = ?
		WHERE external_id = ?
	`, user.Email, user.Name, user.AvatarURL, time.Now().Unix(), user.ExternalID)
	return err
}

func (r *UserRepository) Delete(externalID string) error {
	_, err := r.db.Exec(`DELETE FROM users WHERE external_id = ?`, externalID)
	return err
}

type TenantRepository struct {
	db *sql.DB
}

func NewTenantRepository(db *sql.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) Create(tenant *models.Tenant) error {
	_, err := r.db.Exec(`
		INSERT INTO tenants (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, tenant.ID, tenant.Name, tenant.CreatedAt, tenant.UpdatedAt)
	return err
}

func (r *TenantRepository) GetByID(id string) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	err := r.db.QueryRow(`
		SELECT id, name, created_at, updated_at FROM tenants WHERE id = ?
	`, id).Scan(&tenant.ID, &tenant.Name, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return tenant, nil
}

// AddMember grants tenant membership. Idempotent: a duplicate
// (user_id, tenant_id) pair returns the existing membership row.
func (r *TenantRepository) AddMember(m *models.TenantMembership) (*models.TenantMembership, error) {
	_, err := r.db.Exec(`
		INSERT INTO user_tenants (user_id, tenant_id, is_super_user, created_at)
		VALUES (?, ?, ?, ?)
	`, m.UserID, m.TenantID, m.IsSuperUser, m.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			existing, getErr := r.GetMembership(m.UserID, m.TenantID)
			if getErr != nil {
				return nil, getErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}
	return m, nil
}

func (r *TenantRepository) GetMembership(userID, tenantID string) (*models.TenantMembership, error) {
	m := &models.TenantMembership{}
	err := r.db.QueryRow(`
		SELECT user_id, tenant_id, is_super_user, created_at
		FROM user_tenants WHERE user_id = ? AND tenant_id = ?
	`, userID, tenantID).Scan(&m.UserID, &m.TenantID, &m.IsSuperUser, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// ListForUser returns the caller's memberships with each tenant embedded.
func (r *TenantRepository) ListForUser(userID string) ([]*models.TenantMembership, error) {
	rows, err := r.db.Query(`
		SELECT ut.user_id, ut.tenant_id, ut.is_super_user, ut.created_at,
		       t.id, t.name, t.created_at, t.updated_at
		FROM user_tenants ut
		JOIN tenants t ON t.id = ut.tenant_id
		WHERE ut.user_id = ?
		ORDER BY ut.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memberships := []*models.TenantMembership{}
	for rows.Next() {
		m := &models.TenantMembership{Tenant: &models.Tenant{}}
		if err := rows.Scan(&m.UserID, &m.TenantID, &m.IsSuperUser, &m.CreatedAt,
			&m.Tenant.ID, &m.Tenant.Name, &m.Tenant.CreatedAt, &m.Tenant.UpdatedAt); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// ListMembers returns every member of a tenant with the user row embedded.
func (r *TenantRepository) ListMembers(tenantID string) ([]*models.TenantMembership, error) {
	rows, err := r.db.Query(`
		SELECT ut.user_id, ut.tenant_id, ut.is_super_user, ut.created_at,
		       u.id, u.external_id, u.email, u.name, u.avatar_url, u.created_at, u.updated_at
		FROM user_tenants ut
		JOIN users u ON u.id = ut.user_id
		WHERE ut.tenant_id = ?
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []*models.TenantMembership{}
	for rows.Next() {
		m := &models.TenantMembership{User: &models.User{}}
		if err := rows.Scan(&m.UserID, &m.TenantID, &m.IsSuperUser, &m.CreatedAt,
			&m.User.ID, &m.User.ExternalID, &m.User.Email, &m.User.Name, &m.User.AvatarURL,
			&m.User.CreatedAt, &m.User.UpdatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// IsUniqueViolation reports whether err is a sqlite constraint failure.
// Handlers use it to map duplicate-row inserts to a conflict response.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
