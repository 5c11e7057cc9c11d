package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	accountcontroller "storefront/internal/account/controller"
	"storefront/internal/auth"
	contentcontroller "storefront/internal/content/controller"
	ordercontroller "storefront/internal/order/controller"
	productcontroller "storefront/internal/product/controller"
	profilecontroller "storefront/internal/profile/controller"
	"storefront/internal/response"
)

// Handlers groups the feature controllers mounted by the router.
type Handlers struct {
	Catalog  *productcontroller.CatalogController
	Accounts *accountcontroller.AccountController
	Profiles *profilecontroller.ProfileController
	Orders   *ordercontroller.OrderController
	Content  *contentcontroller.ContentController
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

var _ Pinger = (*sql.DB)(nil)

type RouterConfig struct {
	RequestTimeout time.Duration
	DB             Pinger
	Auth           *auth.Middleware
	Response       *response.Writer
	Logger         *zap.Logger
}

func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(Trace(cfg.Logger))
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(Recover(cfg.Response, cfg.Logger))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/healthz", health(cfg.DB, cfg.Response))

	guard := cfg.Auth.Guard
	r.Group(func(r chi.Router) {
		r.Use(cfg.Auth.Identify)

		r.With(guard(auth.OpListProducts)).Get("/products", h.Catalog.List)
		r.With(guard(auth.OpCreateProduct)).Post("/products", h.Catalog.Create)
		r.With(guard(auth.OpSearchProducts)).Post("/products/search", h.Catalog.Search)
		r.With(guard(auth.OpGetProduct)).Get("/products/{id}", h.Catalog.Get)
		r.With(guard(auth.OpUpdateProduct)).Patch("/products/{id}", h.Catalog.Update)
		r.With(guard(auth.OpDeleteProduct)).Delete("/products/{id}", h.Catalog.Delete)
		r.With(guard(auth.OpListNewItems)).Get("/new-items", h.Catalog.NewItems)

		r.Route("/auth", func(r chi.Router) {
			r.With(guard(auth.OpRegister)).Post("/register", h.Accounts.Register)
			r.With(guard(auth.OpLogin)).Post("/login", h.Accounts.Login)
			r.With(guard(auth.OpLogout)).Post("/logout", h.Accounts.Logout)
			r.With(guard(auth.OpMe)).Get("/me", h.Accounts.Me)
		})

		r.Route("/profiles", func(r chi.Router) {
			r.With(guard(auth.OpGetOwnProfile)).Get("/me", h.Profiles.GetMine)
			r.With(guard(auth.OpUpdateOwnProfile)).Patch("/me", h.Profiles.UpdateMine)
			r.With(guard(auth.OpProfileByPhone)).Get("/by-phone", h.Profiles.ByPhone)
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(guard(auth.OpPlaceOrder)).Post("/", h.Orders.PlaceOrder)
			r.With(guard(auth.OpListOwnOrders)).Get("/mine", h.Orders.ListMine)
			r.With(guard(auth.OpGetOrder)).Get("/{id}", h.Orders.Get)
			r.With(guard(auth.OpUpdateOrderStatus)).Patch("/{id}/status", h.Orders.ChangeStatus)
		})

		r.Route("/editable-content", func(r chi.Router) {
			read := r.With(guard(auth.OpReadContent))
			write := r.With(guard(auth.OpWriteContent))
			remove := r.With(guard(auth.OpDeleteContent))

			read.Get("/", h.Content.List)
			read.Get("/by-key", h.Content.ByKey)
			read.Get("/by-page", h.Content.ByPage)
			read.Get("/pages", h.Content.Pages)
			read.Get("/{id}", h.Content.Get)
			write.Post("/", h.Content.Upsert)
			write.Post("/bulk-update", h.Content.BulkUpdate)
			write.Post("/bulk-create", h.Content.BulkCreate)
			write.Patch("/{id}", h.Content.Update)
			remove.Delete("/bulk-delete", h.Content.BulkDelete)
			remove.Delete("/{id}", h.Content.Delete)
		})
	})

	return r
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func health(db Pinger, resp *response.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			resp.JSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "unknown"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			resp.JSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Database: "unreachable"})
			return
		}
		resp.JSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "up"})
	}
}
