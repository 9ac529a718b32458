package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// Index wraps a Bleve index with post-specific operations.
//
// Write operations return a bool instead of an error: the index is a
// derived view, so callers treat failures as "the write did not land" and
// the queue retries or logs. The underlying errors are logged here.
//
// Thread safety: all public methods are safe for concurrent use. The mutex
// protects against index corruption during create/delete operations.
type Index struct {
	index  bleve.Index // nil after DeleteIndex until the next CreateIndex
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	Path   string       // Directory for index storage
	Logger *slog.Logger // Logger for operations (stderr text if nil)
}

// mappingVersion is incremented whenever the index mapping changes.
// This triggers an automatic rebuild on startup when the version doesn't match.
const mappingVersion = "1"

// NewIndex creates or opens the post index at opts.Path.
// A corrupted index or one with an outdated mapping is removed and recreated.
func NewIndex(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create index parent dir: %w", err)
	}

	versionPath := versionFilePath(opts.Path)

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(opts.Path); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil {
			logger.Info("search index has no version file, will rebuild with current mapping",
				"new_version", mappingVersion,
			)
			needsRebuild = true
		} else if string(existingVersion) != mappingVersion {
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(opts.Path)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate",
				"path", opts.Path,
				"error", err,
			)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(opts.Path); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		index, err = bleve.New(opts.Path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); writeErr != nil {
			logger.Warn("failed to write search version file", "error", writeErr)
		}
		logger.Info("created new search index", "path", opts.Path, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", opts.Path)
	}

	return &Index{
		index:  index,
		path:   opts.Path,
		logger: logger,
	}, nil
}

func versionFilePath(indexPath string) string {
	return filepath.Join(filepath.Dir(indexPath), "posts.version")
}

// Close closes the index and releases resources.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	return err
}

// IndexExists reports whether an index exists on disk.
func (s *Index) IndexExists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// CreateIndex drops any existing index and creates a fresh, empty one.
// Returns false if the rebuild failed; the previous index is gone either way.
func (s *Index) CreateIndex() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		if err := s.index.Close(); err != nil {
			s.logger.Error("close index before recreate", "error", err)
			return false
		}
		s.index = nil
	}

	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Error("remove old index", "path", s.path, "error", err)
		return false
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		s.logger.Error("create index", "path", s.path, "error", err)
		return false
	}
	if err := os.WriteFile(versionFilePath(s.path), []byte(mappingVersion), 0o644); err != nil {
		s.logger.Warn("failed to write search version file", "error", err)
	}

	s.index = index
	s.logger.Info("recreated search index", "path", s.path)
	return true
}

// DeleteIndex closes and removes the index from disk. Deleting an index
// that does not exist succeeds.
func (s *Index) DeleteIndex() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		if err := s.index.Close(); err != nil {
			s.logger.Error("close index before delete", "error", err)
			return false
		}
		s.index = nil
	}

	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Error("remove index", "path", s.path, "error", err)
		return false
	}
	if err := os.Remove(versionFilePath(s.path)); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("remove search version file", "error", err)
	}

	s.logger.Info("deleted search index", "path", s.path)
	return true
}

// RefreshIndex verifies the index is open and readable. Bleve commits
// writes synchronously, so a successful round trip means all prior writes
// are visible to searches.
func (s *Index) RefreshIndex() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.index == nil {
		s.logger.Error("refresh index: index is not open")
		return false
	}
	if _, err := s.index.DocCount(); err != nil {
		s.logger.Error("refresh index", "error", err)
		return false
	}
	return true
}

// IndexPost indexes a single post document. Indexing the same post twice
// replaces the previous document (upsert).
func (s *Index) IndexPost(doc *PostDocument) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.index == nil {
		s.logger.Error("index post: index is not open", "post_id", doc.ID)
		return false
	}
	// Index as a map so field names match the mapping (lowercase).
	if err := s.index.Index(doc.DocID(), doc.ToMap()); err != nil {
		s.logger.Error("index post", "post_id", doc.ID, "error", err)
		return false
	}
	return true
}

// UpdatePost replaces the document for a post. Identical to IndexPost
// because Bleve writes are upserts; kept as a separate method so update
// flows read naturally at call sites.
func (s *Index) UpdatePost(doc *PostDocument) bool {
	return s.IndexPost(doc)
}

// DeletePost removes a post from the index. Deleting a post that is not
// indexed returns false.
func (s *Index) DeletePost(postID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.index == nil {
		s.logger.Error("delete post: index is not open", "post_id", postID)
		return false
	}

	docID := (&PostDocument{ID: postID}).DocID()

	// Bleve's Delete is a no-op for missing documents, but callers need to
	// know whether anything was actually removed.
	doc, err := s.index.Document(docID)
	if err != nil {
		s.logger.Error("look up post before delete", "post_id", postID, "error", err)
		return false
	}
	if doc == nil {
		s.logger.Warn("delete post: not indexed", "post_id", postID)
		return false
	}

	if err := s.index.Delete(docID); err != nil {
		s.logger.Error("delete post", "post_id", postID, "error", err)
		return false
	}
	return true
}

// BulkIndexPosts indexes documents in batches. An empty slice is a
// successful no-op. This is significantly faster than calling IndexPost in
// a loop; documents are processed in chunks to limit memory pressure
// during full reindexes.
func (s *Index) BulkIndexPosts(docs []*PostDocument) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(docs) == 0 {
		return true
	}
	if s.index == nil {
		s.logger.Error("bulk index: index is not open")
		return false
	}

	const batchSize = 500

	for i := 0; i < len(docs); i += batchSize {
		end := i + batchSize
		if end > len(docs) {
			end = len(docs)
		}

		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.DocID(), doc.ToMap()); err != nil {
				s.logger.Error("batch index post", "post_id", doc.ID, "error", err)
				return false
			}
		}

		if err := s.index.Batch(batch); err != nil {
			s.logger.Error("commit index batch", "from", i, "to", end, "error", err)
			return false
		}
	}

	return true
}

// DocumentCount returns the total number of indexed documents.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return 0, fmt.Errorf("index is not open")
	}
	return s.index.DocCount()
}
