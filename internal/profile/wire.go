package profile

import (
	"database/sql"

	"go.uber.org/zap"

	"storefront/internal/profile/controller"
	"storefront/internal/profile/repository"
	"storefront/internal/profile/service"
	"storefront/internal/response"
)

type Module struct {
	Registry   *service.ProfileRegistry
	Controller *controller.ProfileController
}

func NewModule(db *sql.DB, resp *response.Writer, logger *zap.Logger) *Module {
	repo := repository.NewMySQLProfileRepository(db)
	registry := service.NewProfileRegistry(repo, logger)
	return &Module{
		Registry:   registry,
		Controller: controller.NewProfileController(registry, resp, logger),
	}
}
