package order

import (
	"database/sql"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/order/controller"
	"storefront/internal/order/events"
	"storefront/internal/order/repository"
	"storefront/internal/order/service"
	"storefront/internal/order/usecase"
	"storefront/internal/response"
)

type Module struct {
	PlaceOrder *usecase.PlaceOrderUseCase
	Service    *service.OrderService
	Controller *controller.OrderController
}

type ProfileRegistry interface {
	usecase.ProfileRegistry
	service.ProfileFinder
}

type Dependencies struct {
	DB        *sql.DB
	Config    config.OrderConfig
	Profiles  ProfileRegistry
	Catalog   usecase.Catalog
	Notifier  usecase.Notifier
	Publisher events.Publisher
	Response  *response.Writer
	Logger    *zap.Logger
}

func NewModule(deps Dependencies) *Module {
	repo := repository.NewMySQLOrderRepository(deps.DB)

	placeOrder := usecase.NewPlaceOrderUseCase(
		repo,
		deps.Profiles,
		deps.Catalog,
		deps.Notifier,
		deps.Publisher,
		deps.Logger,
	)

	orderSvc := service.NewOrderService(
		deps.DB,
		repo,
		deps.Profiles,
		deps.Publisher,
		deps.Logger,
		deps.Config.StatusTxTimeout,
		deps.Config.MaxRetryAttempts,
	)

	return &Module{
		PlaceOrder: placeOrder,
		Service:    orderSvc,
		Controller: controller.NewOrderController(placeOrder, orderSvc, deps.Response, deps.Logger),
	}
}
