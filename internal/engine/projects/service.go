package projects

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// ErrNotFound covers both a genuinely absent row and a caller without VIEW.
// Read paths must not reveal which of the two happened.
var ErrNotFound = errors.New("project not found or access denied")

// ErrPermissionDenied is returned when an explicit capability check fails on
// a write path.
var ErrPermissionDenied = errors.New("permission denied")

// ErrDirectoryNotFound is returned when a parent or target directory does
// not exist in the caller's project. Cross-project references land here.
var ErrDirectoryNotFound = errors.New("directory not found in this project")

type Service struct {
	repo     *Repository
	maxDepth int
}

func NewService(repo *Repository, maxDepth int) *Service {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Service{repo: repo, maxDepth: maxDepth}
}

type CreateProjectInput struct {
	Name        string
	Description *string
	TenantID    string
}

// Create inserts the project and the creator's full-permission grant in one
// transaction. A missing tenant surfaces as the foreign-key failure from the
// storage layer.
func (s *Service) Create(input CreateProjectInput, creatorUserID string) (*ProjectWithAccess, error) {
	now := time.Now().Unix()
	project := &Project{
		ID:          "prj_" + uuid.NewString(),
		TenantID:    input.TenantID,
		Name:        input.Name,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	grant := &Grant{
		ID:          "pug_" + uuid.NewString(),
		ProjectID:   project.ID,
		UserID:      creatorUserID,
		Permissions: AllPermissions(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx, err := s.repo.BeginTx()
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	defer tx.Rollback()

	if err := s.repo.CreateProjectTx(tx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	if err := s.repo.CreateGrantTx(tx, grant); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return &ProjectWithAccess{
		Project:     *project,
		Permissions: grant.Permissions,
		Users:       []Collaborator{{UserID: grant.UserID, Permissions: grant.Permissions}},
	}, nil
}

// ListForUser returns every project where the caller holds VIEW, each with
// the caller's own permissions and the full collaborator list.
func (s *Service) ListForUser(userID string) ([]*ProjectWithAccess, error) {
	projectRows, grants, err := s.repo.ListProjectsForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user projects: %w", err)
	}

	result := []*ProjectWithAccess{}
	for i, project := range projectRows {
		if !grants[i].Permissions.Has(PermissionView) {
			continue
		}
		users, err := s.collaborators(project.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch user projects: %w", err)
		}
		result = append(result, &ProjectWithAccess{
			Project:     *project,
			Permissions: grants[i].Permissions,
			Users:       users,
		})
	}
	return result, nil
}

// Get is the single-project read. It returns ErrNotFound both when the
// project does not exist and when the caller lacks VIEW.
func (s *Service) Get(projectID, userID string) (*ProjectWithAccess, error) {
	grant, err := s.viewGrant(projectID, userID)
	if err != nil {
		return nil, err
	}

	project, err := s.repo.GetProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}
	if project == nil {
		return nil, ErrNotFound
	}

	users, err := s.collaborators(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}

	return &ProjectWithAccess{
		Project:     *project,
		Permissions: grant.Permissions,
		Users:       users,
	}, nil
}

// ProjectDetails is a project with its depth-bounded directory forest.
type ProjectDetails struct {
	ProjectWithAccess
	Directories []*Node `json:"directories"`
}

// Details returns the project with the assembled directory/prompt tree. The
// permission check happens here; the hierarchy builder itself never sees an
// unauthorized caller.
func (s *Service) Details(projectID, userID string) (*ProjectDetails, error) {
	access, err := s.Get(projectID, userID)
	if err != nil {
		return nil, err
	}

	dirs, err := s.directoriesWithPrompts(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project details: %w", err)
	}

	return &ProjectDetails{
		ProjectWithAccess: *access,
		Directories:       BuildHierarchy(dirs, s.maxDepth),
	}, nil
}

// Delete removes the project and, through the storage layer's cascading
// references, its grants and directory/prompt tree.
func (s *Service) Delete(projectID, userID string) error {
	grant, err := s.repo.GetGrant(userID, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if grant == nil || !grant.Permissions.Has(PermissionDelete) {
		return fmt.Errorf("failed to delete project: %w", ErrPermissionDenied)
	}
	if err := s.repo.DeleteProject(projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// AddUser creates a grant row. Concurrent duplicate calls are safe: a
// uniqueness violation on (user_id, project_id) is resolved by returning the
// row that won the race.
func (s *Service) AddUser(projectID, userID string, permissions PermissionSet) (*Grant, error) {
	now := time.Now().Unix()
	grant := &Grant{
		ID:          "pug_" + uuid.NewString(),
		ProjectID:   projectID,
		UserID:      userID,
		Permissions: permissions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateGrant(grant); err != nil {
		if isUniqueViolation(err) {
			existing, getErr := s.repo.GetGrant(userID, projectID)
			if getErr != nil {
				return nil, fmt.Errorf("failed to add user to project: %w", getErr)
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("failed to add user to project: %w", err)
	}
	return grant, nil
}

func (s *Service) UpdateUserPermissions(projectID, userID string, permissions PermissionSet) error {
	if err := s.repo.UpdateGrantPermissions(userID, projectID, permissions); err != nil {
		return fmt.Errorf("failed to update user project permissions: %w", err)
	}
	return nil
}

func (s *Service) RemoveUser(projectID, userID string) error {
	if err := s.repo.DeleteGrant(userID, projectID); err != nil {
		return fmt.Errorf("failed to remove user from project: %w", err)
	}
	return nil
}

type CreateDirectoryInput struct {
	Name        string
	Description *string
	ParentID    *string
}

// CreateDirectory requires EDIT. A parent reference must resolve within the
// same project; isRoot is derived from the absence of a parent and never
// revalidated afterward.
func (s *Service) CreateDirectory(projectID, userID string, input CreateDirectoryInput) (*Node, error) {
	if err := s.requirePermission(projectID, userID, PermissionEdit, "create directory"); err != nil {
		return nil, err
	}

	if input.ParentID != nil {
		parent, err := s.repo.GetDirectoryInProject(*input.ParentID, projectID)
		if err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		if parent == nil {
			return nil, fmt.Errorf("failed to create directory: %w", ErrDirectoryNotFound)
		}
	}

	now := time.Now().Unix()
	dir := &Directory{
		ID:          "dir_" + uuid.NewString(),
		ProjectID:   projectID,
		ParentID:    input.ParentID,
		Name:        input.Name,
		Description: input.Description,
		IsRoot:      input.ParentID == nil,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateDirectory(dir); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Node{
		ID:          dir.ID,
		Name:        dir.Name,
		Description: dir.Description,
		IsRoot:      dir.IsRoot,
		Type:        "directory",
		CreatedAt:   dir.CreatedAt,
		UpdatedAt:   dir.UpdatedAt,
		Children:    []*Node{},
		Prompts:     []PromptLeaf{},
	}, nil
}

type CreatePromptInput struct {
	Name        string
	Description *string
	Content     string
	DirectoryID string
}

// CreatePrompt requires EDIT. The target directory must belong to the same
// project.
func (s *Service) CreatePrompt(projectID, userID string, input CreatePromptInput) (*PromptLeaf, error) {
	if err := s.requirePermission(projectID, userID, PermissionEdit, "create prompt"); err != nil {
		return nil, err
	}

	dir, err := s.repo.GetDirectoryInProject(input.DirectoryID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create prompt: %w", err)
	}
	if dir == nil {
		return nil, fmt.Errorf("failed to create prompt: %w", ErrDirectoryNotFound)
	}

	now := time.Now().Unix()
	prompt := &Prompt{
		ID:          "pmt_" + uuid.NewString(),
		DirectoryID: input.DirectoryID,
		Name:        input.Name,
		Description: input.Description,
		Content:     input.Content,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreatePrompt(prompt); err != nil {
		return nil, fmt.Errorf("failed to create prompt: %w", err)
	}

	return &PromptLeaf{
		ID:          prompt.ID,
		Name:        prompt.Name,
		Description: prompt.Description,
		Type:        "prompt",
		CreatedAt:   prompt.CreatedAt,
		UpdatedAt:   prompt.UpdatedAt,
	}, nil
}

// DirectoryOption is the flat directory entry used by selection dropdowns.
type DirectoryOption struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	IsRoot      bool    `json:"isRoot"`
	ParentID    *string `json:"parentId,omitempty"`
}

// ListDirectories returns the project's directories as a flat list. A caller
// without VIEW gets an empty list, not an error.
func (s *Service) ListDirectories(projectID, userID string) ([]DirectoryOption, error) {
	grant, err := s.repo.GetGrant(userID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project directories: %w", err)
	}
	if grant == nil || !grant.Permissions.Has(PermissionView) {
		return []DirectoryOption{}, nil
	}

	dirs, err := s.repo.ListDirectories(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project directories: %w", err)
	}

	options := []DirectoryOption{}
	for _, dir := range dirs {
		options = append(options, DirectoryOption{
			ID:          dir.ID,
			Name:        dir.Name,
			Description: dir.Description,
			IsRoot:      dir.IsRoot,
			ParentID:    dir.ParentID,
		})
	}
	return options, nil
}

// PromptDetails is a prompt with its content and resolved directory name.
type PromptDetails struct {
	PromptLeaf
	Content       string `json:"content"`
	DirectoryID   string `json:"directoryId"`
	DirectoryName string `json:"directoryName"`
}

// GetPrompt returns prompt details when the caller holds VIEW on the owning
// project, ErrNotFound otherwise.
func (s *Service) GetPrompt(promptID, userID string) (*PromptDetails, error) {
	prompt, dir, err := s.repo.GetPromptWithDirectory(promptID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prompt details: %w", err)
	}
	if prompt == nil {
		return nil, ErrNotFound
	}

	if _, err := s.viewGrant(dir.ProjectID, userID); err != nil {
		return nil, err
	}

	return &PromptDetails{
		PromptLeaf: PromptLeaf{
			ID:          prompt.ID,
			Name:        prompt.Name,
			Description: prompt.Description,
			Type:        "prompt",
			CreatedAt:   prompt.CreatedAt,
			UpdatedAt:   prompt.UpdatedAt,
		},
		Content:       prompt.Content,
		DirectoryID:   dir.ID,
		DirectoryName: dir.Name,
	}, nil
}

// Authorize reports whether the caller holds the given permission on the
// project. Used by the route layer for grant-management endpoints.
func (s *Service) Authorize(projectID, userID string, p Permission) error {
	grant, err := s.repo.GetGrant(userID, projectID)
	if err != nil {
		return fmt.Errorf("failed to check project access: %w", err)
	}
	if grant == nil || !grant.Permissions.Has(p) {
		return ErrPermissionDenied
	}
	return nil
}

// viewGrant resolves the caller's grant and enforces VIEW, folding "no
// grant" and "no VIEW flag" into the same ErrNotFound.
func (s *Service) viewGrant(projectID, userID string) (*Grant, error) {
	grant, err := s.repo.GetGrant(userID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check project access: %w", err)
	}
	if grant == nil || !grant.Permissions.Has(PermissionView) {
		return nil, ErrNotFound
	}
	return grant, nil
}

func (s *Service) requirePermission(projectID, userID string, p Permission, op string) error {
	grant, err := s.repo.GetGrant(userID, projectID)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if grant == nil || !grant.Permissions.Has(p) {
		return fmt.Errorf("failed to %s: %w", op, ErrPermissionDenied)
	}
	return nil
}

func (s *Service) collaborators(projectID string) ([]Collaborator, error) {
	grants, err := s.repo.ListGrantsByProject(projectID)
	if err != nil {
		return nil, err
	}
	users := []Collaborator{}
	for _, g := range grants {
		users = append(users, Collaborator{UserID: g.UserID, Permissions: g.Permissions})
	}
	return users, nil
}

func (s *Service) directoriesWithPrompts(projectID string) ([]*DirectoryWithPrompts, error) {
	dirs, err := s.repo.ListDirectories(projectID)
	if err != nil {
		return nil, err
	}
	prompts, err := s.repo.ListPromptsForProject(projectID)
	if err != nil {
		return nil, err
	}

	byDirectory := make(map[string][]*Prompt, len(dirs))
	for _, p := range prompts {
		byDirectory[p.DirectoryID] = append(byDirectory[p.DirectoryID], p)
	}

	annotated := make([]*DirectoryWithPrompts, 0, len(dirs))
	for _, dir := range dirs {
		annotated = append(annotated, &DirectoryWithPrompts{
			Directory: *dir,
			Prompts:   byDirectory[dir.ID],
		})
	}
	return annotated, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
