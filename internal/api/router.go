package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "promptdepot/internal/api/context"
	"promptdepot/internal/api/handlers"
	"promptdepot/internal/api/middleware"
)

type Dependencies struct {
	AuthHandler    *handlers.AuthHandler
	TenantHandler  *handlers.TenantHandler
	ProjectHandler *handlers.ProjectHandler
	HealthHandler  *handlers.HealthHandler
	AuthMiddleware *middleware.AuthMiddleware
	UserMiddleware *middleware.UserMiddleware
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	authMid := deps.AuthMiddleware
	userMid := deps.UserMiddleware

	router.GET("/health", wrap(deps.HealthHandler.Check))

	// Identity bridging. Register is public: it runs right after provider
	// signup, before the client holds a usable session.
	router.POST("/api/auth/users", wrap(deps.AuthHandler.Register))
	router.GET("/api/auth/me",
		chain(deps.AuthHandler.Me, authMid.Handle, userMid.Handle))
	router.GET("/api/auth",
		chain(deps.AuthHandler.Info, authMid.Handle))
	router.DELETE("/api/auth/logout",
		chain(deps.AuthHandler.Logout, authMid.Handle))

	// Tenants
	router.POST("/api/tenants",
		chain(deps.TenantHandler.Create, authMid.Handle, userMid.Handle))
	router.GET("/api/tenants",
		chain(deps.TenantHandler.List, authMid.Handle, userMid.Handle))

	// Projects
	router.GET("/api/projects",
		chain(deps.ProjectHandler.List, authMid.Handle, userMid.Handle))
	router.POST("/api/projects",
		chain(deps.ProjectHandler.Create, authMid.Handle, userMid.Handle))
	router.GET("/api/projects/:project_id",
		chain(deps.ProjectHandler.Get, authMid.Handle, userMid.Handle))
	router.DELETE("/api/projects/:project_id",
		chain(deps.ProjectHandler.Delete, authMid.Handle, userMid.Handle))
	router.GET("/api/projects/:project_id/details",
		chain(deps.ProjectHandler.GetDetails, authMid.Handle, userMid.Handle))

	// Directories and prompts
	router.POST("/api/projects/:project_id/directories",
		chain(deps.ProjectHandler.CreateDirectory, authMid.Handle, userMid.Handle))
	router.GET("/api/projects/:project_id/directories",
		chain(deps.ProjectHandler.ListDirectories, authMid.Handle, userMid.Handle))
	router.POST("/api/projects/:project_id/prompts",
		chain(deps.ProjectHandler.CreatePrompt, authMid.Handle, userMid.Handle))
	router.GET("/api/projects/:project_id/prompts/:prompt_id",
		chain(deps.ProjectHandler.GetPrompt, authMid.Handle, userMid.Handle))

	// Project collaborators
	router.POST("/api/projects/:project_id/users",
		chain(deps.ProjectHandler.AddUser, authMid.Handle, userMid.Handle))
	router.PATCH("/api/projects/:project_id/users/:user_id",
		chain(deps.ProjectHandler.UpdateUserPermissions, authMid.Handle, userMid.Handle))
	router.DELETE("/api/projects/:project_id/users/:user_id",
		chain(deps.ProjectHandler.RemoveUser, authMid.Handle, userMid.Handle))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
