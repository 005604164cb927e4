package main

import (
	"fmt"
	"log"
	"net/http"

	"promptdepot/internal/api"
	"promptdepot/internal/api/handlers"
	"promptdepot/internal/api/middleware"
	"promptdepot/internal/engine/projects"
	"promptdepot/internal/pkg/logger"
	"promptdepot/internal/platform/audit"
	"promptdepot/internal/platform/config"
	"promptdepot/internal/platform/database"
	"promptdepot/internal/platform/identity"
	"promptdepot/internal/platform/repositories"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	appDB := database.NewAppDB(db)

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	tenantRepo := repositories.NewTenantRepository(db)
	projectRepo := projects.NewRepository(db)

	// Services
	verifier := identity.NewVerifier(cfg.Identity)
	projectSvc := projects.NewService(projectRepo, cfg.Hierarchy.MaxDepth)
	auditLogger := audit.NewLogger(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo)
	tenantHandler := handlers.NewTenantHandler(tenantRepo)
	projectHandler := handlers.NewProjectHandler(projectSvc, auditLogger)
	healthHandler := handlers.NewHealthHandler(appDB)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(verifier)
	userMiddleware := middleware.NewUserMiddleware(userRepo)

	deps := &api.Dependencies{
		AuthHandler:    authHandler,
		TenantHandler:  tenantHandler,
		ProjectHandler: projectHandler,
		HealthHandler:  healthHandler,
		AuthMiddleware: authMiddleware,
		UserMiddleware: userMiddleware,
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      middleware.CORS(cfg.CORS, router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
