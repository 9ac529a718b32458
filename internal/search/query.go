package search

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a post search.
type SearchParams struct {
	Query      string // Free-text query; empty matches all published posts
	CategoryID int64  // Exact category filter when > 0

	// Pagination
	Limit  int
	Offset int
}

// SearchResult holds a page of search hits.
type SearchResult struct {
	Query  string    `json:"query"`
	Total  uint64    `json:"total"`
	TookMs int64     `json:"took_ms"`
	Hits   []PostHit `json:"hits"`
}

// PostHit is a single matched post, populated from stored fields so the
// caller can render results without a database round trip.
type PostHit struct {
	ID           int64   `json:"id"`
	Score        float64 `json:"score"`
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	Description  string  `json:"description"`
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name"`
	UserID       int64   `json:"user_id"`
	UserName     string  `json:"user_name"`
	Image        string  `json:"image,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// SearchPosts executes a search over published posts. Draft posts never
// appear in results regardless of the query.
func (s *Index) SearchPosts(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.index == nil {
		return nil, fmt.Errorf("index is not open")
	}

	searchQuery := buildSearchQuery(params)
	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)

	// Newest first, text query or not. Listings stay in a stable recency
	// order so a matching older post never jumps ahead of a newer one.
	searchRequest.SortBy([]string{"-created_at"})

	searchRequest.Fields = []string{
		"id", "name", "slug", "description", "category_id", "category_name",
		"user_id", "user_name", "image", "created_at", "updated_at",
	}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]PostHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		postHit := PostHit{Score: hit.Score}

		if v, ok := hit.Fields["id"].(float64); ok {
			postHit.ID = int64(v)
		}
		if v, ok := hit.Fields["name"].(string); ok {
			postHit.Name = v
		}
		if v, ok := hit.Fields["slug"].(string); ok {
			postHit.Slug = v
		}
		if v, ok := hit.Fields["description"].(string); ok {
			postHit.Description = v
		}
		if v, ok := hit.Fields["category_id"].(float64); ok {
			postHit.CategoryID = int64(v)
		}
		if v, ok := hit.Fields["category_name"].(string); ok {
			postHit.CategoryName = v
		}
		if v, ok := hit.Fields["user_id"].(float64); ok {
			postHit.UserID = int64(v)
		}
		if v, ok := hit.Fields["user_name"].(string); ok {
			postHit.UserName = v
		}
		if v, ok := hit.Fields["image"].(string); ok {
			postHit.Image = v
		}
		if v, ok := hit.Fields["created_at"].(string); ok {
			postHit.CreatedAt = v
		}
		if v, ok := hit.Fields["updated_at"].(string); ok {
			postHit.UpdatedAt = v
		}

		result.Hits = append(result.Hits, postHit)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params. Every search is
// constrained to published posts; the text query and category filter are
// ANDed on top.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	publishedQuery := bleve.NewBoolFieldQuery(true)
	publishedQuery.SetField("is_published")
	queries = append(queries, publishedQuery)

	if params.Query != "" {
		textQueries := []query.Query{}

		// Title match carries the most weight.
		nameMatch := bleve.NewMatchQuery(params.Query)
		nameMatch.SetField("name")
		nameMatch.SetBoost(2.0)
		textQueries = append(textQueries, nameMatch)

		descMatch := bleve.NewMatchQuery(params.Query)
		descMatch.SetField("description")
		textQueries = append(textQueries, descMatch)

		categoryMatch := bleve.NewMatchQuery(params.Query)
		categoryMatch.SetField("category_name")
		textQueries = append(textQueries, categoryMatch)

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if params.CategoryID > 0 {
		// Exact numeric match expressed as an inclusive [id, id] range.
		val := float64(params.CategoryID)
		inclusive := true
		categoryQuery := bleve.NewNumericRangeInclusiveQuery(&val, &val, &inclusive, &inclusive)
		categoryQuery.SetField("category_id")
		queries = append(queries, categoryQuery)
	}

	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}
