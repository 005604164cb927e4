package projects

import (
	"database/sql"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) BeginTx() (*sql.Tx, error) {
	return r.db.Begin()
}

func (r *Repository) CreateProjectTx(tx *sql.Tx, project *Project) error {
	_, err := tx.Exec(`
		INSERT INTO projects (id, tenant_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, project.ID, project.TenantID, project.Name, project.Description, project.CreatedAt, project.UpdatedAt)
	return err
}

func (r *Repository) CreateGrantTx(tx *sql.Tx, grant *Grant) error {
	_, err := tx.Exec(`
		INSERT INTO project_users (id, project_id, user_id, permissions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, grant.ID, grant.ProjectID, grant.UserID, grant.Permissions, grant.CreatedAt, grant.UpdatedAt)
	return err
}

func (r *Repository) CreateGrant(grant *Grant) error {
	_, err := r.db.Exec(`
		INSERT INTO project_users (id, project_id, user_id, permissions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, grant.ID, grant.ProjectID, grant.UserID, grant.Permissions, grant.CreatedAt, grant.UpdatedAt)
	return err
}

func (r *Repository) GetProject(id string) (*Project, error) {
	row := r.db.QueryRow(`
		SELECT id, tenant_id, name, description, created_at, updated_at
		FROM projects WHERE id = ?
	`, id)
	project, err := scanProject(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return project, nil
}

// DeleteProject removes the project row. Grants, directories and prompts go
// with it through the schema's ON DELETE CASCADE references.
func (r *Repository) DeleteProject(id string) error {
	_, err := r.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
	return err
}

// GetGrant returns the (user, project) grant row, or nil when no grant
// exists.
func (r *Repository) GetGrant(userID, projectID string) (*Grant, error) {
	grant := &Grant{}
	err := r.db.QueryRow(`
		SELECT id, project_id, user_id, permissions, created_at, updated_at
		FROM project_users WHERE user_id = ? AND project_id = ?
	`, userID, projectID).Scan(&grant.ID, &grant.ProjectID, &grant.UserID, &grant.Permissions, &grant.CreatedAt, &grant.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return grant, nil
}

func (r *Repository) UpdateGrantPermissions(userID, projectID string, permissions PermissionSet) error {
	res, err := r.db.Exec(`
		UPDATE project_users SET permissions = ?, updated_at = strftime('%s','now')
		WHERE user_id = ? AND project_id = ?
	`, permissions, userID, projectID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *Repository) DeleteGrant(userID, projectID string) error {
	_, err := r.db.Exec(`
		DELETE FROM project_users WHERE user_id = ? AND project_id = ?
	`, userID, projectID)
	return err
}

// ListGrantsByProject returns every collaborator grant for a project.
func (r *Repository) ListGrantsByProject(projectID string) ([]*Grant, error) {
	rows, err := r.db.Query(`
		SELECT id, project_id, user_id, permissions, created_at, updated_at
		FROM project_users WHERE project_id = ?
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grants := []*Grant{}
	for rows.Next() {
		grant := &Grant{}
		if err := rows.Scan(&grant.ID, &grant.ProjectID, &grant.UserID, &grant.Permissions, &grant.CreatedAt, &grant.UpdatedAt); err != nil {
			return nil, err
		}
		grants = append(grants, grant)
	}
	return grants, rows.Err()
}

// ListProjectsForUser returns every project the user holds a grant on,
// paired with that grant, newest project first.
func (r *Repository) ListProjectsForUser(userID string) ([]*Project, []*Grant, error) {
	rows, err := r.db.Query(`
		SELECT p.id, p.tenant_id, p.name, p.description, p.created_at, p.updated_at,
		       pu.id, pu.project_id, pu.user_id, pu.permissions, pu.created_at, pu.updated_at
		FROM project_users pu
		JOIN projects p ON p.id = pu.project_id
		WHERE pu.user_id = ?
		ORDER BY p.created_at DESC
	`, userID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var projectsList []*Project
	var grants []*Grant
	for rows.Next() {
		project := &Project{}
		grant := &Grant{}
		var description sql.NullString
		if err := rows.Scan(&project.ID, &project.TenantID, &project.Name, &description, &project.CreatedAt, &project.UpdatedAt,
			&grant.ID, &grant.ProjectID, &grant.UserID, &grant.Permissions, &grant.CreatedAt, &grant.UpdatedAt); err != nil {
			return nil, nil, err
		}
		if description.Valid {
			val := description.String
			project.Description = &val
		}
		projectsList = append(projectsList, project)
		grants = append(grants, grant)
	}
	return projectsList, grants, rows.Err()
}

func (r *Repository) CreateDirectory(dir *Directory) error {
	_, err := r.db.Exec(`
		INSERT INTO directories (id, project_id, parent_id, name, description, is_root, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, dir.ID, dir.ProjectID, dir.ParentID, dir.Name, dir.Description, dir.IsRoot, dir.CreatedAt, dir.UpdatedAt)
	return err
}

// GetDirectoryInProject resolves a directory only when it belongs to the
// given project. Cross-project references come back as nil.
func (r *Repository) GetDirectoryInProject(id, projectID string) (*Directory, error) {
	row := r.db.QueryRow(`
		SELECT id, project_id, parent_id, name, description, is_root, created_at, updated_at
		FROM directories WHERE id = ? AND project_id = ?
	`, id, projectID)
	dir, err := scanDirectory(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return dir, nil
}

// ListDirectories returns a project's directories with the presentation
// ordering baked in: roots first, then alphabetical by name.
func (r *Repository) ListDirectories(projectID string) ([]*Directory, error) {
	rows, err := r.db.Query(`
		SELECT id, project_id, parent_id, name, description, is_root, created_at, updated_at
		FROM directories WHERE project_id = ?
		ORDER BY is_root DESC, name ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dirs := []*Directory{}
	for rows.Next() {
		dir, err := scanDirectory(rows)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, dir)
	}
	return dirs, rows.Err()
}

func (r *Repository) CreatePrompt(prompt *Prompt) error {
	_, err := r.db.Exec(`
		INSERT INTO prompts (id, directory_id, name, description, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, prompt.ID, prompt.DirectoryID, prompt.Name, prompt.Description, prompt.Content, prompt.CreatedAt, prompt.UpdatedAt)
	return err
}

// ListPromptsForProject returns every prompt under any of the project's
// directories, ordered by name for stable presentation.
func (r *Repository) ListPromptsForProject(projectID string) ([]*Prompt, error) {
	rows, err := r.db.Query(`
		SELECT p.id, p.directory_id, p.name, p.description, p.content, p.created_at, p.updated_at
		FROM prompts p
		JOIN directories d ON d.id = p.directory_id
		WHERE d.project_id = ?
		ORDER BY p.name ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prompts := []*Prompt{}
	for rows.Next() {
		prompt, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, prompt)
	}
	return prompts, rows.Err()
}

// GetPromptWithDirectory resolves a prompt together with its owning
// directory, or nil, nil, nil when the prompt does not exist.
func (r *Repository) GetPromptWithDirectory(promptID string) (*Prompt, *Directory, error) {
	row := r.db.QueryRow(`
		SELECT p.id, p.directory_id, p.name, p.description, p.content, p.created_at, p.updated_at,
		       d.id, d.project_id, d.parent_id, d.name, d.description, d.is_root, d.created_at, d.updated_at
		FROM prompts p
		JOIN directories d ON d.id = p.directory_id
		WHERE p.id = ?
	`, promptID)

	prompt := &Prompt{}
	dir := &Directory{}
	var promptDesc, dirDesc, parentID sql.NullString
	err := row.Scan(
		&prompt.ID, &prompt.DirectoryID, &prompt.Name, &promptDesc, &prompt.Content, &prompt.CreatedAt, &prompt.UpdatedAt,
		&dir.ID, &dir.ProjectID, &parentID, &dir.Name, &dirDesc, &dir.IsRoot, &dir.CreatedAt, &dir.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if promptDesc.Valid {
		val := promptDesc.String
		prompt.Description = &val
	}
	if dirDesc.Valid {
		val := dirDesc.String
		dir.Description = &val
	}
	if parentID.Valid {
		val := parentID.String
		dir.ParentID = &val
	}
	return prompt, dir, nil
}

func scanProject(s interface {
	Scan(dest ...interface{}) error
}) (*Project, error) {
	project := &Project{}
	var description sql.NullString

	err := s.Scan(
		&project.ID,
		&project.TenantID,
		&project.Name,
		&description,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		val := description.String
		project.Description = &val
	}
	return project, nil
}

func scanDirectory(s interface {
	Scan(dest ...interface{}) error
}) (*Directory, error) {
	dir := &Directory{}
	var parentID, description sql.NullString

	err := s.Scan(
		&dir.ID,
		&dir.ProjectID,
		&parentID,
		&dir.Name,
		&description,
		&dir.IsRoot,
		&dir.CreatedAt,
		&dir.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		val := parentID.String
		dir.ParentID = &val
	}
	if description.Valid {
		val := description.String
		dir.Description = &val
	}
	return dir, nil
}

func scanPrompt(s interface {
	Scan(dest ...interface{}) error
}) (*Prompt, error) {
	prompt := &Prompt{}
	var description sql.NullString

	err := s.Scan(
		&prompt.ID,
		&prompt.DirectoryID,
		&prompt.Name,
		&description,
		&prompt.Content,
		&prompt.CreatedAt,
		&prompt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		val := description.String
		prompt.Description = &val
	}
	return prompt, nil
}
