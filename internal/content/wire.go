package content

import (
	"database/sql"

	"go.uber.org/zap"

	"storefront/internal/content/controller"
	"storefront/internal/content/repository"
	"storefront/internal/content/service"
	"storefront/internal/response"
)

type Module struct {
	Registry   *service.ContentRegistry
	Controller *controller.ContentController
}

func NewModule(db *sql.DB, resp *response.Writer, logger *zap.Logger) *Module {
	repo := repository.NewMySQLContentRepository(db)
	registry := service.NewContentRegistry(repo, logger)
	return &Module{
		Registry:   registry,
		Controller: controller.NewContentController(registry, resp, logger),
	}
}
