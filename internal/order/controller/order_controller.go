package controller

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/dto"
	apperrors "storefront/internal/errors"
	"storefront/internal/infrastructure/logger"
	"storefront/internal/order/usecase"
	"storefront/internal/response"
	"storefront/internal/validation"
)

type PlaceOrderUseCase interface {
	PlaceOrder(ctx context.Context, requester usecase.Requester, cart usecase.Cart) (*usecase.PlaceOrderResult, error)
}

type OrderService interface {
	Get(ctx context.Context, id uint) (*domain.Order, error)
	ListForAccount(ctx context.Context, accountID uint) ([]domain.Order, error)
	ChangeStatus(ctx context.Context, id uint, status string) (*domain.Order, error)
}

type OrderController struct {
	placeOrder PlaceOrderUseCase
	orders     OrderService
	resp       *response.Writer
	logger     *zap.Logger
}

func NewOrderController(placeOrder PlaceOrderUseCase, orders OrderService, resp *response.Writer, logger *zap.Logger) *OrderController {
	return &OrderController{placeOrder: placeOrder, orders: orders, resp: resp, logger: logger}
}

type orderItemRequest struct {
	ProductID uint             `json:"productId"`
	Name      string           `json:"name" validate:"max=200"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price"`
	Total     *decimal.Decimal `json:"total"`
}

// placeOrderRequest carries contact fields for guests; they are ignored
// for authenticated callers, whose profile is used instead.
type placeOrderRequest struct {
	Name       string             `json:"name" validate:"max=200"`
	Phone      string             `json:"phone" validate:"max=20"`
	Address    string             `json:"address"`
	Items      []orderItemRequest `json:"items" validate:"max=100,dive"`
	TotalPrice *decimal.Decimal   `json:"totalPrice"`
}

type changeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (c *OrderController) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if !c.resp.DecodeJSON(w, r, &req) {
		return
	}
	if details := validation.Struct(req); len(details) > 0 {
		c.resp.Validation(w, r, "order validation failed", details...)
		return
	}

	var requester usecase.Requester = usecase.Anonymous{Name: req.Name, Phone: req.Phone, Address: req.Address}
	if id := auth.IdentityFrom(r.Context()); id != nil {
		requester = usecase.Identified{AccountID: id.AccountID}
	}

	cart := usecase.Cart{TotalPrice: req.TotalPrice, Items: make([]usecase.CartItem, 0, len(req.Items))}
	for _, item := range req.Items {
		cart.Items = append(cart.Items, usecase.CartItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Total:     item.Total,
		})
	}

	result, err := c.placeOrder.PlaceOrder(r.Context(), requester, cart)
	if err != nil {
		logger.FromContext(r.Context(), c.logger).Info("order rejected", zap.Error(err))
		c.resp.Error(w, r, err)
		return
	}

	c.resp.JSON(w, http.StatusCreated, dto.PlaceOrderResponse{
		OrderResponse:  dto.NewOrderResponse(result.Order),
		ProfileCreated: result.ProfileCreated,
	})
}

func (c *OrderController) ListMine(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r.Context())
	if id == nil {
		c.resp.Error(w, r, apperrors.NewUnauthorizedError(apperrors.CodeAuthRequired, "authentication required"))
		return
	}

	orders, err := c.orders.ListForAccount(r.Context(), id.AccountID)
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}

	out := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, dto.NewOrderResponse(&orders[i]))
	}
	c.resp.JSON(w, http.StatusOK, out)
}

func (c *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	orderID, ok := c.resp.PathID(w, r, "id")
	if !ok {
		return
	}

	order, err := c.orders.Get(r.Context(), orderID)
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}
	c.resp.JSON(w, http.StatusOK, dto.NewOrderResponse(order))
}

func (c *OrderController) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := c.resp.PathID(w, r, "id")
	if !ok {
		return
	}

	var req changeStatusRequest
	if !c.resp.DecodeJSON(w, r, &req) {
		return
	}
	if details := validation.Struct(req); len(details) > 0 {
		c.resp.Validation(w, r, "status is required", details...)
		return
	}

	order, err := c.orders.ChangeStatus(r.Context(), orderID, req.Status)
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}
	c.resp.JSON(w, http.StatusOK, dto.NewOrderResponse(order))
}
