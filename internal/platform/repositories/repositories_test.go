package repositories

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"promptdepot/internal/platform/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE tenants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE users (
		id TEXT PRIMARY KEY,
		external_id TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		name TEXT,
		avatar_url TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE user_tenants (
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		tenant_id TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		is_super_user INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, tenant_id)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

func TestUserRepository_CreateIdempotent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewUserRepository(db)
	now := time.Now().Unix()

	first, err := repo.Create(&models.User{
		ID: "usr_1", ExternalID: "ext_1", Email: "one@example.com", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	// A retried registration with the same external id returns the existing
	// row instead of a constraint error.
	second, err := repo.Create(&models.User{
		ID: "usr_2", ExternalID: "ext_1", Email: "one@example.com", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Duplicate create must not error: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("Expected existing row %s, got %s", first.ID, second.ID)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		t.Fatalf("Failed to count users: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected a single user row, got %d", count)
	}
}

func TestUserRepository_CreateEmailCollision(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewUserRepository(db)
	now := time.Now().Unix()

	if _, err := repo.Create(&models.User{
		ID: "usr_1", ExternalID: "ext_1", Email: "same@example.com", CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	// Same email under a different external id is a real conflict, not a
	// retried registration. It must surface the constraint error, never a
	// nil user with a nil error.
	user, err := repo.Create(&models.User{
		ID: "usr_2", ExternalID: "ext_2", Email: "same@example.com", CreatedAt: now, UpdatedAt: now,
	})
	if err == nil {
		t.Fatal("Expected constraint error for colliding email")
	}
	if user != nil {
		t.Errorf("Expected nil user on conflict, got %+v", user)
	}
	if !IsUniqueViolation(err) {
		t.Errorf("Expected a unique violation, got %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		t.Fatalf("Failed to count users: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected a single user row, got %d", count)
	}
}

func TestUserRepository_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewUserRepository(db)
	user, err := repo.GetByExternalID("ext_nope")
	if err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}
	if user != nil {
		t.Errorf("Expected nil user, got %+v", user)
	}
}

func TestTenantRepository_Membership(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tenantRepo := NewTenantRepository(db)
	userRepo := NewUserRepository(db)
	now := time.Now().Unix()

	if err := tenantRepo.Create(&models.Tenant{ID: "tnt_1", Name: "Acme", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("Failed to create tenant: %v", err)
	}
	if _, err := userRepo.Create(&models.User{
		ID: "usr_1", ExternalID: "ext_1", Email: "one@example.com", CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	membership := &models.TenantMembership{UserID: "usr_1", TenantID: "tnt_1", IsSuperUser: true, CreatedAt: now}
	if _, err := tenantRepo.AddMember(membership); err != nil {
		t.Fatalf("Failed to add member: %v", err)
	}
	// Duplicate pair resolves to the existing membership.
	if _, err := tenantRepo.AddMember(membership); err != nil {
		t.Fatalf("Duplicate membership must not error: %v", err)
	}

	memberships, err := tenantRepo.ListForUser("usr_1")
	if err != nil {
		t.Fatalf("Failed to list memberships: %v", err)
	}
	if len(memberships) != 1 {
		t.Fatalf("Expected 1 membership, got %d", len(memberships))
	}
	if memberships[0].Tenant == nil || memberships[0].Tenant.Name != "Acme" {
		t.Errorf("Tenant not embedded: %+v", memberships[0])
	}
	if !memberships[0].IsSuperUser {
		t.Error("Expected super user flag to round-trip")
	}

	members, err := tenantRepo.ListMembers("tnt_1")
	if err != nil {
		t.Fatalf("Failed to list members: %v", err)
	}
	if len(members) != 1 || members[0].User == nil || members[0].User.Email != "one@example.com" {
		t.Errorf("User not embedded in member listing: %+v", members)
	}
}
