package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	apiContext "promptdepot/internal/api/context"
	"promptdepot/internal/pkg/errors"
	"promptdepot/internal/pkg/validator"
	"promptdepot/internal/platform/identity"
	"promptdepot/internal/platform/models"
	"promptdepot/internal/platform/repositories"
)

// AuthHandler bridges the external identity provider to the local user
// registry. Signup and login happen against the provider on the client; this
// server only keeps the local row in sync.
type AuthHandler struct {
	userRepo *repositories.UserRepository
}

func NewAuthHandler(userRepo *repositories.UserRepository) *AuthHandler {
	return &AuthHandler{userRepo: userRepo}
}

type RegisterUserRequest struct {
	ExternalID string  `json:"externalId"`
	Email      string  `json:"email"`
	Name       *string `json:"name,omitempty"`
	AvatarURL  *string `json:"avatar,omitempty"`
}

// Register creates the local user row after a successful provider signup.
// Retried registrations return the existing row.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.ExternalID == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "externalId is required", nil)
		return
	}
	if err := validator.Email(req.Email); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	now := time.Now().Unix()
	user, err := h.userRepo.Create(&models.User{
		ID:         "usr_" + uuid.NewString(),
		ExternalID: req.ExternalID,
		Email:      req.Email,
		Name:       req.Name,
		AvatarURL:  req.AvatarURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		if repositories.IsUniqueViolation(err) {
			errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "A user with this email is already registered", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create user", nil)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User created successfully",
		"user":    user,
	})
}

// Me returns the local user row for the verified token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	claims := r.Context().Value(apiContext.Claims).(*identity.Claims)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": user,
		"identity": map[string]interface{}{
			"id":             claims.Subject,
			"email":          claims.Email,
			"emailConfirmed": claims.EmailVerified,
		},
	})
}

// Info returns the raw verified claims.
func (h *AuthHandler) Info(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*identity.Claims)
	writeJSON(w, http.StatusOK, claims)
}

// Logout is stateless: the token stays valid until its TTL, the client drops
// it from storage.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Logout successful. Please remove token from client storage.",
	})
}
