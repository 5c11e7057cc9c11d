package controller

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/dto"
	"storefront/internal/product/service"
	"storefront/internal/response"
	"storefront/internal/validation"
)

type Catalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id uint) (*domain.Product, error)
	SearchProducts(ctx context.Context, ids []uint) ([]domain.Product, []uint, error)
	ListNewItems(ctx context.Context) ([]domain.NewItem, error)
	CreateProduct(ctx context.Context, in service.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uint, in service.ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
}

type CatalogController struct {
	catalog Catalog
	resp    *response.Writer
	logger  *zap.Logger
}

func NewCatalogController(catalog Catalog, resp *response.Writer, logger *zap.Logger) *CatalogController {
	return &CatalogController{catalog: catalog, resp: resp, logger: logger}
}

type productRequest struct {
	Name        *string          `json:"name" validate:"omitempty,max=200"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Image       *string          `json:"image" validate:"omitempty,max=500"`
}

func (req productRequest) input() service.ProductInput {
	return service.ProductInput{Name: req.Name, Description: req.Description, Price: req.Price, Image: req.Image}
}

type searchProductsRequest struct {
	ProductIDs []uint `json:"productIds" validate:"required,min=1,max=100,dive,gt=0"`
}

type searchProductsResponse struct {
	Products []dto.ProductResponse `json:"products"`
	NotFound []uint                `json:"notFound"`
}

func (c *CatalogController) List(w http.ResponseWriter, r *http.Request) {
	products, err := c.catalog.ListProducts(r.Context())
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}
	c.resp.JSON(w, http.StatusOK, dto.NewProductResponses(products))
}

func (c *CatalogController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := c.resp.PathID(w, r, "id")
	if !ok {
		return
	}
	p, err := c.catalog.GetProduct(r.Context(), id)
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}
	c.resp.JSON(w, http.StatusOK, dto.NewProductResponse(*p))
}

func (c *CatalogController) Search(w http.ResponseWriter, r *http.Request) {
	var req searchProductsRequest
	if !c.decode(w, r, &req) {
		return
	}

	found, notFound, err := c.catalog.SearchProducts(r.Context(), req.ProductIDs)
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}
	c.resp.JSON(w, http.StatusOK, searchProductsResponse{
		Products: dto.NewProductResponses(found),
		NotFound: notFound,
	})
}

func (c *CatalogController) NewItems(w http.ResponseWriter, r *http.Request) {
	items, err := c.catalog.ListNewItems(r.Context())
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}
	c.resp.JSON(w, http.StatusOK, dto.NewNewItemResponses(items))
}

func (c *CatalogController) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !c.decode(w, r, &req) {
		return
	}
	p, err := c.catalog.CreateProduct(r.Context(), req.input())
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}
	c.resp.JSON(w, http.StatusCreated, dto.NewProductResponse(*p))
}

func (c *CatalogController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := c.resp.PathID(w, r, "id")
	if !ok {
		return
	}
	var req productRequest
	if !c.decode(w, r, &req) {
		return
	}
	p, err := c.catalog.UpdateProduct(r.Context(), id, req.input())
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}
	c.resp.JSON(w, http.StatusOK, dto.NewProductResponse(*p))
}

func (c *CatalogController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := c.resp.PathID(w, r, "id")
	if !ok {
		return
	}
	if err := c.catalog.DeleteProduct(r.Context(), id); err != nil {
		c.resp.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CatalogController) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !c.resp.DecodeJSON(w, r, dst) {
		return false
	}
	if details := validation.Struct(dst); len(details) > 0 {
		c.resp.Validation(w, r, "product validation failed", details...)
		return false
	}
	return true
}
