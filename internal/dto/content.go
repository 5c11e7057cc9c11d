package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"storefront/internal/domain"
)

type ContentResponse struct {
	ID        *uint      `json:"id,omitempty"`
	Key       string     `json:"key"`
	Content   string     `json:"content"`
	Page      *string    `json:"page"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

func NewContentResponse(c domain.EditableContent) ContentResponse {
	id, created, updated := c.ID, c.CreatedAt, c.UpdatedAt
	return ContentResponse{
		ID:        &id,
		Key:       c.Key,
		Content:   c.Content,
		Page:      c.Page,
		CreatedAt: &created,
		UpdatedAt: &updated,
	}
}

// NewMissingContentResponse is returned by key lookups that find nothing.
func NewMissingContentResponse(key string) ContentResponse {
	return ContentResponse{Key: key, Content: "", Page: nil}
}

func NewContentResponses(items []domain.EditableContent) []ContentResponse {
	out := make([]ContentResponse, 0, len(items))
	for _, c := range items {
		out = append(out, NewContentResponse(c))
	}
	return out
}

// OptionalString tells an absent JSON field apart from an explicit null.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

type PageCountResponse struct {
	Page         string `json:"page"`
	ContentCount int    `json:"contentCount"`
}

func NewPageCountResponses(counts []domain.PageCount) []PageCountResponse {
	out := make([]PageCountResponse, 0, len(counts))
	for _, pc := range counts {
		out = append(out, PageCountResponse{Page: pc.Page, ContentCount: pc.ContentCount})
	}
	return out
}
