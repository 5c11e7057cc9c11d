package domain

import "time"

// GlobalContentPage groups content records that are not bound to a page.
const GlobalContentPage = "Global"

type EditableContent struct {
	ID        uint
	Key       string
	Content   string
	Page      *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c EditableContent) PageOrGlobal() string {
	if c.Page == nil || *c.Page == "" {
		return GlobalContentPage
	}
	return *c.Page
}

// ContentPatch lists the fields a write supplies. Page is only applied when
// PageSet is true, so a null page can be distinguished from an absent one.
type ContentPatch struct {
	Content *string
	Page    *string
	PageSet bool
}

// Apply copies the supplied fields onto c.
func (p ContentPatch) Apply(c *EditableContent) {
	if p.Content != nil {
		c.Content = *p.Content
	}
	if p.PageSet {
		c.Page = p.Page
	}
}

// PageCount is the number of content records bound to a page.
type PageCount struct {
	Page         string
	ContentCount int
}
