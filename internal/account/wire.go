package account

import (
	"database/sql"

	"go.uber.org/zap"

	"storefront/internal/account/controller"
	"storefront/internal/account/repository"
	"storefront/internal/account/service"
	"storefront/internal/auth"
	"storefront/internal/response"
)

type Module struct {
	Registry   *service.AccountRegistry
	Controller *controller.AccountController
}

func NewModule(
	db *sql.DB,
	profiles service.ProfileRegistry,
	bcryptCost int,
	tokens *auth.TokenService,
	authMiddleware *auth.Middleware,
	resp *response.Writer,
	logger *zap.Logger,
) *Module {
	repo := repository.NewMySQLAccountRepository(db)
	registry := service.NewAccountRegistry(repo, profiles, service.NewBcryptHasher(bcryptCost), logger)
	return &Module{
		Registry:   registry,
		Controller: controller.NewAccountController(registry, tokens, authMiddleware, resp, logger),
	}
}
