// Package search provides full-text search over blog posts using Bleve.
// The index is a derived view of the database: post and category writes
// enqueue tasks that keep it synchronized.
package search

import (
	"strconv"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
)

// PostDocument is the document structure for the post index.
//
// Category and author names are denormalized into each document so a single
// query can match on them. The cost is that category renames must reindex
// every post in the category.
type PostDocument struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name"`
	UserID       int64  `json:"user_id"`
	UserName     string `json:"user_name"`
	IsPublished  bool   `json:"is_published"`
	Image        string `json:"image,omitempty"`
	CreatedAt    string `json:"created_at"` // ISO-8601
	UpdatedAt    string `json:"updated_at"` // ISO-8601
}

// DocID returns the Bleve document key for the post.
func (d *PostDocument) DocID() string {
	return strconv.FormatInt(d.ID, 10)
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *PostDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":            d.ID,
		"name":          d.Name,
		"name_keyword":  d.Name,
		"slug":          d.Slug,
		"description":   d.Description,
		"category_id":   d.CategoryID,
		"category_name": d.CategoryName,
		"user_id":       d.UserID,
		"user_name":     d.UserName,
		"is_published":  d.IsPublished,
		"created_at":    d.CreatedAt,
		"updated_at":    d.UpdatedAt,
	}

	if d.Image != "" {
		m["image"] = d.Image
	}

	return m
}

// PostToDocument converts a post with its joined relation names into an
// index document. Timestamps are serialized as ISO-8601 in UTC.
func PostToDocument(p *domain.PostWithRelations) *PostDocument {
	return &PostDocument{
		ID:           p.ID,
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  p.Description,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
		UserID:       p.UserID,
		UserName:     p.UserName,
		IsPublished:  p.IsPublished,
		Image:        p.Image,
		CreatedAt:    p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
