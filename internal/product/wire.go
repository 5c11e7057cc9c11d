package product

import (
	"database/sql"

	"go.uber.org/zap"

	"storefront/internal/product/controller"
	"storefront/internal/product/repository"
	"storefront/internal/product/service"
	"storefront/internal/response"
)

type Module struct {
	Catalog    *service.CatalogService
	Controller *controller.CatalogController
}

func NewModule(db *sql.DB, resp *response.Writer, logger *zap.Logger) *Module {
	catalog := service.NewCatalogService(
		repository.NewMySQLRepository(db),
		repository.NewMySQLNewItemRepository(db),
		logger,
	)
	return &Module{
		Catalog:    catalog,
		Controller: controller.NewCatalogController(catalog, resp, logger),
	}
}
