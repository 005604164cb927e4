package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"promptdepot/internal/pkg/errors"
	"promptdepot/internal/pkg/validator"
	"promptdepot/internal/platform/models"
	"promptdepot/internal/platform/repositories"
)

type TenantHandler struct {
	tenantRepo *repositories.TenantRepository
}

func NewTenantHandler(tenantRepo *repositories.TenantRepository) *TenantHandler {
	return &TenantHandler{tenantRepo: tenantRepo}
}

type CreateTenantRequest struct {
	Name string `json:"name"`
}

// Create makes a tenant and enrolls the creator as its super user.
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if err := validator.Name(req.Name); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	now := time.Now().Unix()
	tenant := &models.Tenant{
		ID:        "tnt_" + uuid.NewString(),
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.tenantRepo.Create(tenant); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create tenant", nil)
		return
	}

	if _, err := h.tenantRepo.AddMember(&models.TenantMembership{
		UserID:      user.ID,
		TenantID:    tenant.ID,
		IsSuperUser: true,
		CreatedAt:   now,
	}); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to add user to tenant", nil)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Tenant created successfully",
		"tenant":  tenant,
	})
}

// List returns the caller's tenant memberships.
func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	memberships, err := h.tenantRepo.ListForUser(user.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to fetch tenants", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Tenants retrieved successfully",
		"tenants": memberships,
	})
}
