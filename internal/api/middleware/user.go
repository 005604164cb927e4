package middleware

import (
	"context"
	"net/http"

	apiContext "promptdepot/internal/api/context"
	"promptdepot/internal/pkg/errors"
	"promptdepot/internal/platform/identity"
	"promptdepot/internal/platform/repositories"
)

// UserMiddleware maps verified identity claims to the local user row. A
// valid token without a local row is a 404, not auto-provisioning: the
// client must finish the registration flow first.
type UserMiddleware struct {
	userRepo *repositories.UserRepository
}

func NewUserMiddleware(userRepo *repositories.UserRepository) *UserMiddleware {
	return &UserMiddleware{userRepo: userRepo}
}

func (m *UserMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(apiContext.Claims).(*identity.Claims)
		if !ok {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No authentication claims found", nil)
			return
		}

		user, err := m.userRepo.GetByExternalID(claims.Subject)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load user", nil)
			return
		}
		if user == nil {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "User not found in database. Please complete signup process.", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.CurrentUser, user)
		next(w, r.WithContext(ctx))
	}
}
