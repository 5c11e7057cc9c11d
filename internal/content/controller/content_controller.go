package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"storefront/internal/content/service"
	"storefront/internal/domain"
	"storefront/internal/dto"
	"storefront/internal/response"
	"storefront/internal/validation"
)

type ContentRegistry interface {
	List(ctx context.Context, page string) ([]domain.EditableContent, error)
	ByKey(ctx context.Context, key string) (*domain.EditableContent, error)
	ByPage(ctx context.Context, page string) ([]domain.EditableContent, error)
	Pages(ctx context.Context) ([]domain.PageCount, error)
	Get(ctx context.Context, id uint) (*domain.EditableContent, error)
	Upsert(ctx context.Context, key string, patch domain.ContentPatch) (*domain.EditableContent, bool, error)
	Update(ctx context.Context, id uint, key *string, patch domain.ContentPatch) (*domain.EditableContent, error)
	Delete(ctx context.Context, id uint) error
	BulkUpsert(ctx context.Context, items []service.BulkItem) (*service.BulkResult, error)
	BulkCreate(ctx context.Context, items []service.BulkItem) (*service.BulkResult, error)
	BulkDelete(ctx context.Context, keys []string) (int64, error)
}

type ContentController struct {
	registry ContentRegistry
	resp     *response.Writer
	logger   *zap.Logger
}

func NewContentController(registry ContentRegistry, resp *response.Writer, logger *zap.Logger) *ContentController {
	return &ContentController{registry: registry, resp: resp, logger: logger}
}

type contentRequest struct {
	Key     *string            `json:"key" validate:"omitempty,max=200"`
	Content *string            `json:"content"`
	Page    dto.OptionalString `json:"page"`
}

func (req contentRequest) patch() domain.ContentPatch {
	return domain.ContentPatch{Content: req.Content, Page: req.Page.Value, PageSet: req.Page.Set}
}

type bulkRequest struct {
	Contents []contentRequest `json:"contents" validate:"max=500"`
}

type bulkDeleteRequest struct {
	Keys []string `json:"keys" validate:"max=500"`
}

type listResponse struct {
	Results []dto.ContentResponse            `json:"results"`
	Grouped map[string][]dto.ContentResponse `json:"grouped"`
	Total   int                              `json:"total"`
}

type bulkUpdateResponse struct {
	Updated []dto.ContentResponse `json:"updated"`
	Errors  []service.ItemError   `json:"errors"`
	Total   int                   `json:"total"`
	Success bool                  `json:"success"`
}

type bulkCreateResponse struct {
	Created []dto.ContentResponse `json:"created"`
	Errors  []service.ItemError   `json:"errors"`
	Total   int                   `json:"total"`
	Success bool                  `json:"success"`
}

type bulkDeleteResponse struct {
	Deleted int64    `json:"deleted"`
	Keys    []string `json:"keys"`
}

func (c *ContentController) List(w http.ResponseWriter, r *http.Request) {
	items, err := c.registry.List(r.Context(), r.URL.Query().Get("page"))
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}

	grouped := make(map[string][]dto.ContentResponse)
	for page, group := range service.Group(items) {
		grouped[page] = dto.NewContentResponses(group)
	}

	c.resp.JSON(w, http.StatusOK, listResponse{
		Results: dto.NewContentResponses(items),
		Grouped: grouped,
		Total:   len(items),
	})
}

func (c *ContentController) ByKey(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	item, err := c.registry.ByKey(r.Context(), key)
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}
	if item == nil {
		c.resp.JSON(w, http.StatusOK, dto.NewMissingContentResponse(key))
		return
	}
	c.resp.JSON(w, http.StatusOK, dto.NewContentResponse(*item))
}

func (c *ContentController) ByPage(w http.ResponseWriter, r *http.Request) {
	items, err := c.registry.ByPage(r.Context(), r.URL.Query().Get("page"))
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}
	c.resp.JSON(w, http.StatusOK, dto.NewContentResponses(items))
}

func (c *ContentController) Pages(w http.ResponseWriter, r *http.Request) {
	counts, err := c.registry.Pages(r.Context())
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}
	c.resp.JSON(w, http.StatusOK, dto.NewPageCountResponses(counts))
}

func (c *ContentController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := c.resp.PathID(w, r, "id")
	if !ok {
		return
	}
	item, err := c.registry.Get(r.Context(), id)
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}
	c.resp.JSON(w, http.StatusOK, dto.NewContentResponse(*item))
}

// Upsert answers 201 when the key was new and 200 when an existing record was updated.
func (c *ContentController) Upsert(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if !c.decode(w, r, &req) {
		return
	}

	var key string
	if req.Key != nil {
		key = *req.Key
	}
	item, created, err := c.registry.Upsert(r.Context(), key, req.patch())
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.resp.JSON(w, status, dto.NewContentResponse(*item))
}

func (c *ContentController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := c.resp.PathID(w, r, "id")
	if !ok {
		return
	}
	var req contentRequest
	if !c.decode(w, r, &req) {
		return
	}

	item, err := c.registry.Update(r.Context(), id, req.Key, req.patch())
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}
	c.resp.JSON(w, http.StatusOK, dto.NewContentResponse(*item))
}

func (c *ContentController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := c.resp.PathID(w, r, "id")
	if !ok {
		return
	}
	if err := c.registry.Delete(r.Context(), id); err != nil {
		c.resp.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *ContentController) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if !c.decode(w, r, &req) {
		return
	}

	result, err := c.registry.BulkUpsert(r.Context(), bulkItems(req))
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}
	c.resp.JSON(w, http.StatusOK, bulkUpdateResponse{
		Updated: dto.NewContentResponses(result.Applied),
		Errors:  result.Errors,
		Total:   result.Total,
		Success: len(result.Errors) == 0,
	})
}

func (c *ContentController) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if !c.decode(w, r, &req) {
		return
	}

	result, err := c.registry.BulkCreate(r.Context(), bulkItems(req))
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}
	c.resp.JSON(w, http.StatusCreated, bulkCreateResponse{
		Created: dto.NewContentResponses(result.Applied),
		Errors:  result.Errors,
		Total:   result.Total,
		Success: len(result.Errors) == 0,
	})
}

func (c *ContentController) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if !c.decode(w, r, &req) {
		return
	}

	deleted, err := c.registry.BulkDelete(r.Context(), req.Keys)
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}
	c.resp.JSON(w, http.StatusOK, bulkDeleteResponse{Deleted: deleted, Keys: req.Keys})
}

func (c *ContentController) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !c.resp.DecodeJSON(w, r, dst) {
		return false
	}
	if details := validation.Struct(dst); len(details) > 0 {
		c.resp.Validation(w, r, "content validation failed", details...)
		return false
	}
	return true
}

func bulkItems(req bulkRequest) []service.BulkItem {
	items := make([]service.BulkItem, 0, len(req.Contents))
	for _, entry := range req.Contents {
		item := service.BulkItem{Patch: entry.patch()}
		if entry.Key != nil {
			item.Key = *entry.Key
		}
		items = append(items, item)
	}
	return items
}
