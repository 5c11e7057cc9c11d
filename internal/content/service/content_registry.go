package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/errors"
	"storefront/internal/infrastructure/mysql"
)

const (
	maxKeyLength  = 200
	maxPageLength = 100
)

type Repository interface {
	List(ctx context.Context, page string) ([]domain.EditableContent, error)
	ListByPage(ctx context.Context, page string) ([]domain.EditableContent, error)
	PageCounts(ctx context.Context) ([]domain.PageCount, error)
	FindByID(ctx context.Context, id uint) (*domain.EditableContent, error)
	FindByKey(ctx context.Context, key string) (*domain.EditableContent, error)
	Create(ctx context.Context, c *domain.EditableContent) error
	Update(ctx context.Context, c *domain.EditableContent) error
	Delete(ctx context.Context, id uint) error
	DeleteByKeys(ctx context.Context, keys []string) (int64, error)
}

// BulkItem is one entry of a bulk write.
type BulkItem struct {
	Key   string
	Patch domain.ContentPatch
}

// ItemError reports why a single bulk entry was not applied.
type ItemError struct {
	Key   string `json:"key,omitempty"`
	Error string `json:"error"`
}

type BulkResult struct {
	Applied []domain.EditableContent
	Errors  []ItemError
	Total   int
}

type ContentRegistry struct {
	repo   Repository
	logger *zap.Logger
}

func NewContentRegistry(repo Repository, logger *zap.Logger) *ContentRegistry {
	return &ContentRegistry{repo: repo, logger: logger}
}

func (s *ContentRegistry) List(ctx context.Context, page string) ([]domain.EditableContent, error) {
	items, err := s.repo.List(ctx, strings.TrimSpace(page))
	if err != nil {
		return nil, errors.NewInternalError("listing content", err)
	}
	return items, nil
}

// Group buckets records by page name, using the global page for unbound records.
func Group(items []domain.EditableContent) map[string][]domain.EditableContent {
	grouped := make(map[string][]domain.EditableContent)
	for _, c := range items {
		page := c.PageOrGlobal()
		grouped[page] = append(grouped[page], c)
	}
	return grouped
}

// ByKey returns nil without error when no record has the key.
func (s *ContentRegistry) ByKey(ctx context.Context, key string) (*domain.EditableContent, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.NewValidationError("key is required", errors.ValidationDetail{Field: "key", Message: "key is required"})
	}
	c, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		if _, ok := errors.IsNotFoundError(err); ok {
			return nil, nil
		}
		return nil, errors.NewInternalError("loading content", err)
	}
	return c, nil
}

func (s *ContentRegistry) ByPage(ctx context.Context, page string) ([]domain.EditableContent, error) {
	page = strings.TrimSpace(page)
	if page == "" {
		return nil, errors.NewValidationError("page is required", errors.ValidationDetail{Field: "page", Message: "page is required"})
	}
	items, err := s.repo.ListByPage(ctx, page)
	if err != nil {
		return nil, errors.NewInternalError("listing content by page", err)
	}
	return items, nil
}

func (s *ContentRegistry) Pages(ctx context.Context) ([]domain.PageCount, error) {
	counts, err := s.repo.PageCounts(ctx)
	if err != nil {
		return nil, errors.NewInternalError("counting content pages", err)
	}
	return counts, nil
}

func (s *ContentRegistry) Get(ctx context.Context, id uint) (*domain.EditableContent, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if _, ok := errors.IsNotFoundError(err); ok {
			return nil, err
		}
		return nil, errors.NewInternalError("loading content", err)
	}
	return c, nil
}

// Upsert creates the record for key or applies patch to the existing one.
// The boolean reports whether a record was created.
func (s *ContentRegistry) Upsert(ctx context.Context, key string, patch domain.ContentPatch) (*domain.EditableContent, bool, error) {
	key = strings.TrimSpace(key)
	if details := validateWrite(key, patch); len(details) > 0 {
		return nil, false, errors.NewValidationError("invalid content", details...)
	}

	for attempt := 0; attempt < 2; attempt++ {
		existing, err := s.repo.FindByKey(ctx, key)
		if err == nil {
			patch.Apply(existing)
			if err := s.repo.Update(ctx, existing); err != nil {
				return nil, false, errors.NewInternalError("updating content", err)
			}
			return existing, false, nil
		}
		if _, ok := errors.IsNotFoundError(err); !ok {
			return nil, false, errors.NewInternalError("loading content", err)
		}

		created, err := s.insert(ctx, key, patch)
		if err == nil {
			s.logger.Info("content created", zap.String("key", key), zap.Uint("contentId", created.ID))
			return created, true, nil
		}
		if !mysql.IsDuplicateEntry(err) {
			return nil, false, errors.NewInternalError("creating content", err)
		}
		s.logger.Debug("concurrent content insert, re-reading", zap.String("key", key))
	}
	return nil, false, errors.NewInternalError("content could not be stored after concurrent writes", nil)
}

// Create inserts a new record and fails with KEY_EXISTS when the key is taken.
func (s *ContentRegistry) Create(ctx context.Context, key string, patch domain.ContentPatch) (*domain.EditableContent, error) {
	key = strings.TrimSpace(key)
	if details := validateWrite(key, patch); len(details) > 0 {
		return nil, errors.NewValidationError("invalid content", details...)
	}

	created, err := s.insert(ctx, key, patch)
	if err != nil {
		if mysql.IsDuplicateEntry(err) {
			return nil, keyExists(key)
		}
		return nil, errors.NewInternalError("creating content", err)
	}
	return created, nil
}

// Update applies patch and an optional new key to the record with id.
func (s *ContentRegistry) Update(ctx context.Context, id uint, key *string, patch domain.ContentPatch) (*domain.EditableContent, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if key != nil {
		existing.Key = strings.TrimSpace(*key)
	}
	if details := validateWrite(existing.Key, patch); len(details) > 0 {
		return nil, errors.NewValidationError("invalid content", details...)
	}
	patch.Apply(existing)

	if err := s.repo.Update(ctx, existing); err != nil {
		if mysql.IsDuplicateEntry(err) {
			return nil, keyExists(existing.Key)
		}
		if _, ok := errors.IsNotFoundError(err); ok {
			return nil, err
		}
		return nil, errors.NewInternalError("updating content", err)
	}
	return existing, nil
}

func (s *ContentRegistry) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if _, ok := errors.IsNotFoundError(err); ok {
			return err
		}
		return errors.NewInternalError("deleting content", err)
	}
	s.logger.Info("content deleted", zap.Uint("contentId", id))
	return nil
}

// BulkUpsert upserts every item. Failures are reported per item and do not
// stop the remaining items.
func (s *ContentRegistry) BulkUpsert(ctx context.Context, items []BulkItem) (*BulkResult, error) {
	if len(items) == 0 {
		return nil, emptyBulk("contents")
	}

	result := &BulkResult{Applied: []domain.EditableContent{}, Errors: []ItemError{}, Total: len(items)}
	for _, item := range items {
		if strings.TrimSpace(item.Key) == "" {
			result.Errors = append(result.Errors, ItemError{Error: "key is required"})
			continue
		}
		c, _, err := s.Upsert(ctx, item.Key, item.Patch)
		if err != nil {
			result.Errors = append(result.Errors, s.itemError(item.Key, err))
			continue
		}
		result.Applied = append(result.Applied, *c)
	}

	s.logBulk("bulk content upsert", result)
	return result, nil
}

// BulkCreate inserts every item; an existing key is reported as an item error.
func (s *ContentRegistry) BulkCreate(ctx context.Context, items []BulkItem) (*BulkResult, error) {
	if len(items) == 0 {
		return nil, emptyBulk("contents")
	}

	result := &BulkResult{Applied: []domain.EditableContent{}, Errors: []ItemError{}, Total: len(items)}
	for _, item := range items {
		if strings.TrimSpace(item.Key) == "" {
			result.Errors = append(result.Errors, ItemError{Error: "key is required"})
			continue
		}
		c, err := s.Create(ctx, item.Key, item.Patch)
		if err != nil {
			result.Errors = append(result.Errors, s.itemError(item.Key, err))
			continue
		}
		result.Applied = append(result.Applied, *c)
	}

	s.logBulk("bulk content create", result)
	return result, nil
}

// BulkDelete removes the records for keys and returns how many were removed.
func (s *ContentRegistry) BulkDelete(ctx context.Context, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, emptyBulk("keys")
	}
	n, err := s.repo.DeleteByKeys(ctx, keys)
	if err != nil {
		return 0, errors.NewInternalError("deleting content", err)
	}
	s.logger.Info("bulk content delete", zap.Int("requested", len(keys)), zap.Int64("deleted", n))
	return n, nil
}

func (s *ContentRegistry) insert(ctx context.Context, key string, patch domain.ContentPatch) (*domain.EditableContent, error) {
	c := &domain.EditableContent{Key: key}
	patch.Apply(c)
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ContentRegistry) logBulk(msg string, result *BulkResult) {
	s.logger.Info(msg,
		zap.Int("total", result.Total),
		zap.Int("applied", len(result.Applied)),
		zap.Int("failed", len(result.Errors)),
	)
}

func validateWrite(key string, patch domain.ContentPatch) []errors.ValidationDetail {
	var details []errors.ValidationDetail
	if key == "" {
		details = append(details, errors.ValidationDetail{Field: "key", Message: "key is required"})
	} else if utf8.RuneCountInString(key) > maxKeyLength {
		details = append(details, errors.ValidationDetail{Field: "key", Message: "key must be at most 200 characters"})
	}
	if patch.PageSet && patch.Page != nil && utf8.RuneCountInString(*patch.Page) > maxPageLength {
		details = append(details, errors.ValidationDetail{Field: "page", Message: "page must be at most 100 characters"})
	}
	return details
}

func keyExists(key string) error {
	return errors.NewConflictError(errors.CodeKeyExists, "content with key "+key+" already exists")
}

func emptyBulk(field string) error {
	return errors.NewValidationError(field+" must not be empty", errors.ValidationDetail{Field: field, Message: field + " must not be empty"})
}

func (s *ContentRegistry) itemError(key string, err error) ItemError {
	if _, ok := errors.IsInternalError(err); ok {
		s.logger.Error("bulk content item failed", zap.String("key", key), zap.Error(err))
		return ItemError{Key: key, Error: "content could not be stored"}
	}
	return ItemError{Key: key, Error: err.Error()}
}
