package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/store"
)

// postColumns is the ordered list of columns selected in post queries.
// Must match the scan order in scanPost.
const postColumns = `p.id, p.name, p.slug, p.description, p.category_id, p.user_id,
	p.is_published, p.image, p.created_at, p.updated_at, c.name, u.name`

const postJoins = ` FROM posts p
	JOIN categories c ON c.id = p.category_id
	JOIN users u ON u.id = p.user_id`

// scanPost scans a joined post row into a domain.PostWithRelations.
func scanPost(scanner interface{ Scan(dest ...any) error }) (*domain.PostWithRelations, error) {
	var p domain.PostWithRelations

	var (
		createdAt   string
		updatedAt   string
		isPublished int
		image       sql.NullString
	)

	err := scanner.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.CategoryID,
		&p.UserID,
		&isPublished,
		&image,
		&createdAt,
		&updatedAt,
		&p.CategoryName,
		&p.UserName,
	)
	if err != nil {
		return nil, err
	}

	p.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	p.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	p.IsPublished = isPublished != 0
	if image.Valid {
		p.Image = image.String
	}

	return &p, nil
}

// CreatePost inserts a post and sets its generated ID.
// Returns store.ErrAlreadyExists if the slug is taken.
func (s *Store) CreatePost(ctx context.Context, p *domain.Post) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (
			name, slug, description, category_id, user_id,
			is_published, image, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name,
		p.Slug,
		p.Description,
		p.CategoryID,
		p.UserID,
		boolToInt(p.IsPublished),
		nullString(p.Image),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return store.ErrNotFound
		}
		return err
	}

	p.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	return nil
}

// GetPost retrieves a post with its category and author names.
// Returns store.ErrNotFound if the post does not exist.
func (s *Store) GetPost(ctx context.Context, id int64) (*domain.PostWithRelations, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+postColumns+postJoins+` WHERE p.id = ?`, id)

	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetPostBySlug retrieves a post by its slug.
// Returns store.ErrNotFound if the post does not exist.
func (s *Store) GetPostBySlug(ctx context.Context, slug string) (*domain.PostWithRelations, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+postColumns+postJoins+` WHERE p.slug = ?`, slug)

	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPosts returns a page of posts, newest first, plus the total row count
// for the filter.
func (s *Store) ListPosts(ctx context.Context, params store.ListPostsParams) ([]*domain.PostWithRelations, int64, error) {
	where := " WHERE 1=1"
	var args []any

	if params.PublishedOnly {
		where += " AND p.is_published = 1"
	}
	if params.CategoryID > 0 {
		where += " AND p.category_id = ?"
		args = append(args, params.CategoryID)
	}

	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*)`+postJoins+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	query := `SELECT ` + postColumns + postJoins + where + ` ORDER BY p.created_at DESC, p.id DESC`
	if params.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(params.Limit) + " OFFSET " + strconv.Itoa(params.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []*domain.PostWithRelations
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// UpdatePost performs a full row update on an existing post.
// Returns store.ErrNotFound if the post does not exist.
func (s *Store) UpdatePost(ctx context.Context, p *domain.Post) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE posts SET
			name = ?,
			slug = ?,
			description = ?,
			category_id = ?,
			user_id = ?,
			is_published = ?,
			image = ?,
			updated_at = ?
		WHERE id = ?`,
		p.Name,
		p.Slug,
		p.Description,
		p.CategoryID,
		p.UserID,
		boolToInt(p.IsPublished),
		nullString(p.Image),
		formatTime(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return store.ErrNotFound
		}
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeletePost removes a post.
// Returns store.ErrNotFound if the post does not exist.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
