package handlers

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	apiContext "promptdepot/internal/api/context"
	"promptdepot/internal/engine/projects"
	"promptdepot/internal/pkg/errors"
	"promptdepot/internal/pkg/validator"
	"promptdepot/internal/platform/audit"
	"promptdepot/internal/platform/models"
)

type ProjectHandler struct {
	service *projects.Service
	audit   *audit.Logger
}

func NewProjectHandler(service *projects.Service, auditLogger *audit.Logger) *ProjectHandler {
	return &ProjectHandler{service: service, audit: auditLogger}
}

func currentUser(r *http.Request) *models.User {
	return r.Context().Value(apiContext.CurrentUser).(*models.User)
}

func routeParam(r *http.Request, name string) string {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	return params.ByName(name)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeServiceError maps engine sentinels to wire responses. Reads that fail
// authorization look identical to reads of absent projects.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case stderrors.Is(err, projects.ErrNotFound):
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Project not found or access denied", nil)
	case stderrors.Is(err, projects.ErrPermissionDenied):
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient project permissions", nil)
	case stderrors.Is(err, projects.ErrDirectoryNotFound):
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Directory not found or does not belong to this project", nil)
	default:
		log.Error().Err(err).Msg("project operation failed")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
	}
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	list, err := h.service.ListForUser(user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Projects retrieved successfully",
		"projects": list,
	})
}

type CreateProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	TenantID    string  `json:"tenantId"`
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if err := validator.Name(req.Name); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}
	if err := validator.Description(req.Description); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}
	if req.TenantID == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "tenantId is required", nil)
		return
	}

	project, err := h.service.Create(projects.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		TenantID:    req.TenantID,
	}, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.audit.Record(user.ID, "project.create", "project", project.ID, map[string]interface{}{"name": project.Name})

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Project created successfully",
		"project": project,
	})
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	projectID := routeParam(r, "project_id")

	project, err := h.service.Get(projectID, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Project retrieved successfully",
		"project": project,
	})
}

func (h *ProjectHandler) GetDetails(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	projectID := routeParam(r, "project_id")

	details, err := h.service.Details(projectID, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Project details retrieved successfully",
		"project": details,
	})
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	projectID := routeParam(r, "project_id")

	if err := h.service.Delete(projectID, user.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	h.audit.Record(user.ID, "project.delete", "project", projectID, nil)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Project deleted successfully",
	})
}

type CreateDirectoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	ParentID    *string `json:"parentId,omitempty"`
}

func (h *ProjectHandler) CreateDirectory(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	projectID := routeParam(r, "project_id")

	var req CreateDirectoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if err := validator.Name(req.Name); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}
	if err := validator.Description(req.Description); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	directory, err := h.service.CreateDirectory(projectID, user.ID, projects.CreateDirectoryInput{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.audit.Record(user.ID, "directory.create", "directory", directory.ID, map[string]interface{}{"project_id": projectID})

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Directory created successfully",
		"directory": directory,
	})
}

type CreatePromptRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Content     string  `json:"content"`
	DirectoryID string  `json:"directoryId"`
}

func (h *ProjectHandler) CreatePrompt(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	projectID := routeParam(r, "project_id")

	var req CreatePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if err := validator.Name(req.Name); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}
	if err := validator.Description(req.Description); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}
	if req.DirectoryID == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "directoryId is required", nil)
		return
	}

	prompt, err := h.service.CreatePrompt(projectID, user.ID, projects.CreatePromptInput{
		Name:        req.Name,
		Description: req.Description,
		Content:     req.Content,
		DirectoryID: req.DirectoryID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.audit.Record(user.ID, "prompt.create", "prompt", prompt.ID, map[string]interface{}{"project_id": projectID})

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Prompt created successfully",
		"prompt":  prompt,
	})
}

func (h *ProjectHandler) ListDirectories(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	projectID := routeParam(r, "project_id")

	directories, err := h.service.ListDirectories(projectID, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Directories retrieved successfully",
		"directories": directories,
	})
}

func (h *ProjectHandler) GetPrompt(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	promptID := routeParam(r, "prompt_id")

	prompt, err := h.service.GetPrompt(promptID, user.ID)
	if err != nil {
		if stderrors.Is(err, projects.ErrNotFound) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Prompt not found or access denied", nil)
			return
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Prompt details retrieved successfully",
		"prompt":  prompt,
	})
}

type AddUserRequest struct {
	UserID      string                 `json:"userId"`
	Permissions projects.PermissionSet `json:"permissions"`
}

func (h *ProjectHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	projectID := routeParam(r, "project_id")

	if err := h.service.Authorize(projectID, user.ID, projects.PermissionManageUsers); err != nil {
		writeServiceError(w, err)
		return
	}

	var req AddUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.UserID == "" || len(req.Permissions) == 0 {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "userId and permissions are required", nil)
		return
	}

	grant, err := h.service.AddUser(projectID, req.UserID, req.Permissions)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.audit.Record(user.ID, "project.user.add", "project", projectID, map[string]interface{}{"target_user": req.UserID})

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User added to project successfully",
		"grant":   grant,
	})
}

type UpdateUserPermissionsRequest struct {
	Permissions projects.PermissionSet `json:"permissions"`
}

func (h *ProjectHandler) UpdateUserPermissions(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	projectID := routeParam(r, "project_id")
	targetUserID := routeParam(r, "user_id")

	if err := h.service.Authorize(projectID, user.ID, projects.PermissionManageUsers); err != nil {
		writeServiceError(w, err)
		return
	}

	var req UpdateUserPermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if len(req.Permissions) == 0 {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "permissions are required", nil)
		return
	}

	if err := h.service.UpdateUserPermissions(projectID, targetUserID, req.Permissions); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "User has no grant on this project", nil)
			return
		}
		writeServiceError(w, err)
		return
	}

	h.audit.Record(user.ID, "project.user.update", "project", projectID, map[string]interface{}{"target_user": targetUserID})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User permissions updated successfully",
	})
}

func (h *ProjectHandler) RemoveUser(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	projectID := routeParam(r, "project_id")
	targetUserID := routeParam(r, "user_id")

	if err := h.service.Authorize(projectID, user.ID, projects.PermissionManageUsers); err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.service.RemoveUser(projectID, targetUserID); err != nil {
		writeServiceError(w, err)
		return
	}

	h.audit.Record(user.ID, "project.user.remove", "project", projectID, map[string]interface{}{"target_user": targetUserID})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User removed from project successfully",
	})
}
