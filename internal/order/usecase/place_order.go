package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/errors"
	profileservice "storefront/internal/profile/service"
)

// Requester identifies who is checking out. It is either Identified or Anonymous.
type Requester interface {
	isRequester()
}

// Identified is a logged-in account; its linked profile supplies the contact data.
type Identified struct {
	AccountID uint
}

// Anonymous is a guest checkout carrying its own contact data.
type Anonymous struct {
	Name    string
	Phone   string
	Address string
}

func (Identified) isRequester() {}
func (Anonymous) isRequester() {}

// CartItem is one submitted line. Nil Price or Total and an empty Name are
// filled from the catalog or derived; everything else is kept as sent.
type CartItem struct {
	ProductID uint
	Name      string
	Quantity  int
	Price     *decimal.Decimal
	Total     *decimal.Decimal
}

type Cart struct {
	Items      []CartItem
	TotalPrice *decimal.Decimal
}

type PlaceOrderResult struct {
	Order          *domain.Order
	Profile        *domain.Profile
	ProfileCreated bool
}

type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	SetNotificationMessageID(ctx context.Context, id uint, messageID string) error
}

type ProfileRegistry interface {
	FindByAccount(ctx context.Context, accountID uint) (*domain.Profile, error)
	CreateOrAttach(ctx context.Context, contact profileservice.Contact, accountID *uint) (*domain.Profile, bool, error)
}

type Catalog interface {
	ProductsByID(ctx context.Context, ids []uint) (map[uint]domain.Product, error)
}

type Notifier interface {
	Notify(ctx context.Context, order *domain.Order, profile *domain.Profile) *string
}

type OrderEvents interface {
	OrderPlaced(ctx context.Context, order *domain.Order, profile *domain.Profile)
}

type PlaceOrderUseCase struct {
	orders   OrderRepository
	profiles ProfileRegistry
	catalog  Catalog
	notifier Notifier
	events   OrderEvents
	logger   *zap.Logger
	now      func() time.Time
}

func NewPlaceOrderUseCase(
	orders OrderRepository,
	profiles ProfileRegistry,
	catalog Catalog,
	notifier Notifier,
	events OrderEvents,
	logger *zap.Logger,
) *PlaceOrderUseCase {
	return &PlaceOrderUseCase{
		orders:   orders,
		profiles: profiles,
		catalog:  catalog,
		notifier: notifier,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// PlaceOrder validates the cart, settles the buyer's profile and stores a
// pending order. Notification and event publishing happen afterwards and
// never fail the call.
func (uc *PlaceOrderUseCase) PlaceOrder(ctx context.Context, requester Requester, cart Cart) (*PlaceOrderResult, error) {
	logger := uc.logger.With(zap.Int("itemCount", len(cart.Items)))

	var profile *domain.Profile
	var anonymous *Anonymous

	switch r := requester.(type) {
	case Identified:
		logger = logger.With(zap.Uint("accountId", r.AccountID))
		p, err := uc.profiles.FindByAccount(ctx, r.AccountID)
		if err != nil {
			return nil, err
		}
		if missing := profileMissingFields(p); len(missing) > 0 {
			return nil, errors.NewValidationError("profile must be completed before checkout", errors.ValidationDetail{
				Field:   "profile",
				Message: "missing " + strings.Join(missing, ", "),
				Code:    errors.CodeProfileIncomplete,
			})
		}
		profile = p
	case Anonymous:
		anonymous = &r
	default:
		return nil, errors.NewInternalError(fmt.Sprintf("unsupported requester %T", requester), nil)
	}

	logger.Info("place order started", zap.Bool("anonymous", anonymous != nil))

	var details []errors.ValidationDetail
	if anonymous != nil {
		details = append(details, validateContact(*anonymous)...)
	}
	details = append(details, validateCart(cart)...)
	if len(details) > 0 {
		return nil, errors.NewValidationError("order validation failed", details...)
	}

	items, details, err := uc.snapshotItems(ctx, cart.Items)
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		return nil, errors.NewValidationError("order validation failed", details...)
	}

	profileCreated := false
	if anonymous != nil {
		p, created, err := uc.profiles.CreateOrAttach(ctx, profileservice.Contact{
			Name:    anonymous.Name,
			Phone:   anonymous.Phone,
			Address: anonymous.Address,
		}, nil)
		if err != nil {
			return nil, err
		}
		profile, profileCreated = p, created
	}

	now := uc.now().UTC().Truncate(time.Microsecond)
	order := &domain.Order{
		ProfileID:  profile.ID,
		Items:      items,
		TotalPrice: *cart.TotalPrice,
		Status:     domain.OrderStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.orders.Create(ctx, order); err != nil {
		logger.Error("failed to store order", zap.Uint("profileId", profile.ID), zap.Error(err))
		return nil, errors.NewInternalError("storing order", err)
	}

	logger = logger.With(zap.Uint("orderId", order.ID), zap.Uint("profileId", profile.ID))
	logger.Info("order placed", zap.String("total", order.TotalPrice.StringFixed(2)), zap.Bool("profileCreated", profileCreated))

	uc.notify(ctx, order, profile, logger)
	uc.events.OrderPlaced(ctx, order, profile)

	return &PlaceOrderResult{Order: order, Profile: profile, ProfileCreated: profileCreated}, nil
}

func (uc *PlaceOrderUseCase) notify(ctx context.Context, order *domain.Order, profile *domain.Profile, logger *zap.Logger) {
	messageID := uc.notifier.Notify(ctx, order, profile)
	if messageID == nil {
		logger.Warn("order notification not delivered")
		return
	}

	if err := uc.orders.SetNotificationMessageID(ctx, order.ID, *messageID); err != nil {
		logger.Warn("failed to store notification message id", zap.String("messageId", *messageID), zap.Error(err))
		return
	}
	order.NotificationMessageID = messageID
}

// snapshotItems builds the stored item list. Values sent by the client are
// kept; a missing name or price is taken from the catalog and a missing
// line total is price times quantity.
func (uc *PlaceOrderUseCase) snapshotItems(ctx context.Context, cartItems []CartItem) ([]domain.OrderItem, []errors.ValidationDetail, error) {
	var lookup []uint
	for _, item := range cartItems {
		if item.ProductID != 0 && (strings.TrimSpace(item.Name) == "" || item.Price == nil) {
			lookup = append(lookup, item.ProductID)
		}
	}

	products := map[uint]domain.Product{}
	if len(lookup) > 0 {
		found, err := uc.catalog.ProductsByID(ctx, lookup)
		if err != nil {
			return nil, nil, errors.NewInternalError("loading catalog products", err)
		}
		products = found
	}

	var details []errors.ValidationDetail
	items := make([]domain.OrderItem, 0, len(cartItems))
	for i, ci := range cartItems {
		product, known := products[ci.ProductID]
		item := domain.OrderItem{
			ProductID: ci.ProductID,
			Name:      strings.TrimSpace(ci.Name),
			Quantity:  ci.Quantity,
		}

		if item.Name == "" {
			if !known {
				details = append(details, errors.ValidationDetail{
					Field:   fmt.Sprintf("items[%d].name", i),
					Message: "name is required for items not in the catalog",
					Code:    errors.CodeUnknownProduct,
				})
				continue
			}
			item.Name = product.Name
		}

		switch {
		case ci.Price != nil:
			item.Price = *ci.Price
		case known:
			item.Price = product.Price
		default:
			details = append(details, errors.ValidationDetail{
				Field:   fmt.Sprintf("items[%d].price", i),
				Message: "price is required for items not in the catalog",
				Code:    errors.CodeUnknownProduct,
			})
			continue
		}

		if ci.Total != nil {
			item.Total = *ci.Total
		} else {
			item.Total = item.Price.Mul(decimal.NewFromInt(int64(ci.Quantity)))
			if d := validateAmount(fmt.Sprintf("items[%d].total", i), item.Total); d != nil {
				details = append(details, *d)
				continue
			}
		}
		items = append(items, item)
	}

	return items, details, nil
}

func validateContact(a Anonymous) []errors.ValidationDetail {
	var details []errors.ValidationDetail
	if strings.TrimSpace(a.Name) == "" {
		details = append(details, errors.ValidationDetail{Field: "name", Message: "name is required", Code: errors.CodeMissingName})
	}
	if profileservice.NormalizePhone(a.Phone) == "" {
		details = append(details, errors.ValidationDetail{Field: "phone", Message: "phone is required", Code: errors.CodeMissingPhone})
	}
	if strings.TrimSpace(a.Address) == "" {
		details = append(details, errors.ValidationDetail{Field: "address", Message: "address is required", Code: errors.CodeMissingAddress})
	}
	return details
}

func validateCart(cart Cart) []errors.ValidationDetail {
	var details []errors.ValidationDetail
	if len(cart.Items) == 0 {
		details = append(details, errors.ValidationDetail{Field: "items", Message: "cart is empty", Code: errors.CodeEmptyCart})
	}
	if cart.TotalPrice == nil || !cart.TotalPrice.IsPositive() {
		details = append(details, errors.ValidationDetail{Field: "totalPrice", Message: "total price must be greater than zero", Code: errors.CodeMissingTotal})
	} else if d := validateAmount("totalPrice", *cart.TotalPrice); d != nil {
		details = append(details, *d)
	}
	for i, item := range cart.Items {
		if item.Quantity < 1 {
			details = append(details, errors.ValidationDetail{
				Field:   fmt.Sprintf("items[%d].quantity", i),
				Message: "quantity must be at least 1",
				Code:    errors.CodeInvalidQuantity,
			})
		}
		if item.Price != nil {
			if item.Price.IsNegative() {
				details = append(details, errors.ValidationDetail{Field: fmt.Sprintf("items[%d].price", i), Message: "price must not be negative"})
			} else if d := validateAmount(fmt.Sprintf("items[%d].price", i), *item.Price); d != nil {
				details = append(details, *d)
			}
		}
		if item.Total != nil {
			if item.Total.IsNegative() {
				details = append(details, errors.ValidationDetail{Field: fmt.Sprintf("items[%d].total", i), Message: "total must not be negative"})
			} else if d := validateAmount(fmt.Sprintf("items[%d].total", i), *item.Total); d != nil {
				details = append(details, *d)
			}
		}
	}
	return details
}

// Amounts are stored as DECIMAL(10,2) and must fit without rounding.
var maxAmount = decimal.RequireFromString("99999999.99")

func validateAmount(field string, d decimal.Decimal) *errors.ValidationDetail {
	if !d.Equal(d.Round(2)) {
		return &errors.ValidationDetail{Field: field, Message: field + " must have at most 2 decimal places", Code: errors.CodeInvalidAmount}
	}
	if d.Abs().GreaterThan(maxAmount) {
		return &errors.ValidationDetail{Field: field, Message: field + " must be at most 99999999.99", Code: errors.CodeInvalidAmount}
	}
	return nil
}

func profileMissingFields(p *domain.Profile) []string {
	if p == nil {
		return []string{"name", "phone", "address"}
	}
	return p.MissingContactFields()
}
