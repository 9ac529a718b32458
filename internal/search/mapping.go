package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for post documents.
//
// The mapping is designed with these priorities:
//  1. Full-text search on name, description, and category name with
//     English stemming and stopwords
//  2. Exact keyword fields for slugs and sorting
//  3. Numeric fields for exact ID filtering
//  4. Datetime fields for recency sorting
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// --- Text fields (full-text searchable) ---

	// Name - primary search target
	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = en.AnalyzerName
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	// Name keyword twin - exact matching and alphabetical sorting
	nameKeywordFieldMapping := bleve.NewTextFieldMapping()
	nameKeywordFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("name_keyword", nameKeywordFieldMapping)

	// Description - searchable and stored so hits can be served without a
	// database round trip
	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	descFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	// Category name - denormalized, searchable
	categoryNameFieldMapping := bleve.NewTextFieldMapping()
	categoryNameFieldMapping.Analyzer = en.AnalyzerName
	categoryNameFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("category_name", categoryNameFieldMapping)

	// Author name - denormalized and stored so hits carry it, but the
	// standard query does not match on it
	userNameFieldMapping := bleve.NewTextFieldMapping()
	userNameFieldMapping.Analyzer = en.AnalyzerName
	userNameFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("user_name", userNameFieldMapping)

	// --- Keyword fields (exact match) ---

	slugFieldMapping := bleve.NewTextFieldMapping()
	slugFieldMapping.Analyzer = keyword.Name
	slugFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("slug", slugFieldMapping)

	imageFieldMapping := bleve.NewTextFieldMapping()
	imageFieldMapping.Analyzer = keyword.Name
	imageFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("image", imageFieldMapping)

	// --- Numeric fields (exact filtering) ---

	idFieldMapping := bleve.NewNumericFieldMapping()
	idFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	categoryIDFieldMapping := bleve.NewNumericFieldMapping()
	categoryIDFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("category_id", categoryIDFieldMapping)

	userIDFieldMapping := bleve.NewNumericFieldMapping()
	userIDFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("user_id", userIDFieldMapping)

	// --- Boolean fields ---

	publishedFieldMapping := bleve.NewBooleanFieldMapping()
	publishedFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("is_published", publishedFieldMapping)

	// --- Datetime fields (recency sorting) ---

	createdAtFieldMapping := bleve.NewDateTimeFieldMapping()
	createdAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdAtFieldMapping)

	updatedAtFieldMapping := bleve.NewDateTimeFieldMapping()
	updatedAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("updated_at", updatedAtFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
