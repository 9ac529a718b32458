package domain

import "time"

// Post represents a blog post.
type Post struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CategoryID  int64     `json:"category_id"`
	UserID      int64     `json:"user_id"`
	IsPublished bool      `json:"is_published"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PostWithRelations is a post joined with the names of its category and
// author. This is the shape the search index and the API serve.
type PostWithRelations struct {
	Post
	CategoryName string `json:"category_name"`
	UserName     string `json:"user_name"`
}

// Publish marks the post as published.
func (p *Post) Publish() {
	p.IsPublished = true
	p.UpdatedAt = time.Now()
}

// Unpublish hides the post from public listings and search.
func (p *Post) Unpublish() {
	p.IsPublished = false
	p.UpdatedAt = time.Now()
}

// HasImage returns true if the post has an uploaded cover image.
func (p *Post) HasImage() bool {
	return p.Image != ""
}
