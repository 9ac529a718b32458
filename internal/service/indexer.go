package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/queue"
	"github.com/inkwellapp/inkwell-server/internal/search"
	"github.com/inkwellapp/inkwell-server/internal/store"
)

// IndexerService consumes index synchronization tasks and applies them to the
// search index. It is the only component that writes to the index.
//
// Failure handling is asymmetric on purpose. Store errors are returned to the
// queue so the task retries with backoff. Index write failures are already
// logged by the index itself and are terminal: the index swallows its errors
// into a boolean, so retrying would not see a different outcome, and the next
// write or a full reindex repairs the document.
type IndexerService struct {
	store  store.Store
	index  *search.Index
	logger *slog.Logger
}

// NewIndexerService creates a new indexer service.
func NewIndexerService(st store.Store, index *search.Index, logger *slog.Logger) *IndexerService {
	return &IndexerService{
		store:  st,
		index:  index,
		logger: logger,
	}
}

// RegisterHandlers wires the indexer's task handlers into the queue.
func (s *IndexerService) RegisterHandlers(q *queue.Queue) {
	q.Register(domain.TaskTypeIndexPost, s.handleIndexPost)
	q.Register(domain.TaskTypeUpdatePost, s.handleUpdatePost)
	q.Register(domain.TaskTypeDeletePost, s.handleDeletePost)
	q.Register(domain.TaskTypeUpdateCategoryPosts, s.handleUpdateCategoryPosts)
	q.Register(domain.TaskTypeReindexAll, s.handleReindexAll)
}

// handleIndexPost indexes a newly created post.
func (s *IndexerService) handleIndexPost(ctx context.Context, task *domain.Task) error {
	var payload domain.PostTaskPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	return s.indexPostWith(ctx, payload.PostID, s.index.IndexPost)
}

// handleUpdatePost reindexes an updated post. Uses the upsert-safe write so
// an update task that outruns its create task still lands the document.
func (s *IndexerService) handleUpdatePost(ctx context.Context, task *domain.Task) error {
	var payload domain.PostTaskPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	return s.indexPostWith(ctx, payload.PostID, s.index.UpdatePost)
}

// handleDeletePost removes a post from the index.
func (s *IndexerService) handleDeletePost(ctx context.Context, task *domain.Task) error {
	var payload domain.PostTaskPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	s.RemovePost(ctx, payload.PostID)
	return nil
}

// handleUpdateCategoryPosts reindexes every post in a category.
func (s *IndexerService) handleUpdateCategoryPosts(ctx context.Context, task *domain.Task) error {
	var payload domain.CategoryTaskPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	return s.ReindexCategory(ctx, payload.CategoryID)
}

// handleReindexAll rebuilds the entire index from the store.
func (s *IndexerService) handleReindexAll(ctx context.Context, _ *domain.Task) error {
	return s.ReindexAll(ctx)
}

// IndexPostByID loads a post and upserts its index document. A post that no
// longer exists is removed from the index instead, since a delete may have
// landed between enqueue and execution.
func (s *IndexerService) IndexPostByID(ctx context.Context, postID int64) error {
	return s.indexPostWith(ctx, postID, s.index.IndexPost)
}

func (s *IndexerService) indexPostWith(ctx context.Context, postID int64, write func(*search.PostDocument) bool) error {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Debug("post gone before indexing, removing from index", "post_id", postID)
			s.RemovePost(ctx, postID)
			return nil
		}
		return fmt.Errorf("load post %d: %w", postID, err)
	}

	if ok := write(search.PostToDocument(post)); !ok {
		s.logger.Warn("index write failed", "post_id", postID)
		return nil
	}

	s.logger.Debug("indexed post", "post_id", postID, "slug", post.Slug)
	return nil
}

// RemovePost deletes a post's document from the index. Removing a document
// that was never indexed is not an error.
func (s *IndexerService) RemovePost(_ context.Context, postID int64) {
	if ok := s.index.DeletePost(postID); !ok {
		s.logger.Debug("post was not in the index", "post_id", postID)
	}
}

// ReindexCategory reindexes all posts in a category, tolerating individual
// post failures so one bad row doesn't wedge the whole fan-out.
func (s *IndexerService) ReindexCategory(ctx context.Context, categoryID int64) error {
	postIDs, err := s.store.ListPostIDsByCategory(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("list posts for category %d: %w", categoryID, err)
	}

	var failed int
	for _, postID := range postIDs {
		if err := s.indexPostWith(ctx, postID, s.index.UpdatePost); err != nil {
			s.logger.Warn("failed to reindex post",
				"post_id", postID,
				"category_id", categoryID,
				"error", err,
			)
			failed++
		}
	}

	s.logger.Info("reindexed category posts",
		"category_id", categoryID,
		"total", len(postIDs),
		"failed", failed,
	)
	return nil
}

// ReindexAll drops the index and rebuilds it from every post in the store.
// An empty store leaves a valid empty index.
func (s *IndexerService) ReindexAll(ctx context.Context) error {
	posts, _, err := s.store.ListPosts(ctx, store.ListPostsParams{})
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}

	if ok := s.index.CreateIndex(); !ok {
		return domainerrors.Internal("failed to recreate search index")
	}

	docs := make([]*search.PostDocument, 0, len(posts))
	for _, post := range posts {
		docs = append(docs, search.PostToDocument(post))
	}

	if ok := s.index.BulkIndexPosts(docs); !ok {
		return domainerrors.Internal("failed to bulk index posts")
	}

	s.logger.Info("rebuilt search index", "documents", len(docs))
	return nil
}

// RefreshIndex forces the index to settle pending writes.
func (s *IndexerService) RefreshIndex(_ context.Context) error {
	if ok := s.index.RefreshIndex(); !ok {
		return domainerrors.Internal("failed to refresh search index")
	}
	return nil
}
