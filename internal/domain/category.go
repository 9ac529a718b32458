package domain

import "time"

// Category groups posts under a named heading. Category names flow into the
// search documents of their posts, so renames trigger reindexing.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryWithCount is a category joined with its post count for listings.
type CategoryWithCount struct {
	Category
	PostCount int64 `json:"post_count"`
}
