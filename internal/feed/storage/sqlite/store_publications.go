package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/openfeed/internal/feed/domain"
	"github.com/louisbranch/openfeed/internal/feed/storage"
)

// CreatePost assigns the next per-owner post id, stores the post, and appends
// its reference to the global timeline in one transaction.
func (s *Store) CreatePost(ctx context.Context, post storage.Post) (storage.Post, error) {
	if err := ctx.Err(); err != nil {
		return storage.Post{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Post{}, fmt.Errorf("storage is not configured")
	}
	owner := strings.TrimSpace(post.Owner)
	if owner == "" {
		return storage.Post{}, fmt.Errorf("post owner is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.Post{}, fmt.Errorf("begin create post: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Per-owner monotonic counter, not wall-clock derived: two posts in the
	// same clock tick still get distinct ids.
	var nextID int64
	if err := tx.QueryRowContext(
		ctx,
		`SELECT COALESCE(MAX(post_id) + 1, 0) FROM posts WHERE owner_username = ?`,
		owner,
	).Scan(&nextID); err != nil {
		return storage.Post{}, fmt.Errorf("next post id: %w", err)
	}

	createdAt := toMillis(post.CreatedAt)
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO posts (owner_username, post_id, content, created_at) VALUES (?, ?, ?, ?)`,
		owner,
		nextID,
		post.Content,
		createdAt,
	); err != nil {
		if isForeignKeyViolation(err) {
			return storage.Post{}, storage.ErrNotFound
		}
		return storage.Post{}, fmt.Errorf("create post: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO timeline (owner_username, post_id, created_at) VALUES (?, ?, ?)`,
		owner,
		nextID,
		createdAt,
	); err != nil {
		return storage.Post{}, fmt.Errorf("append timeline: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return storage.Post{}, fmt.Errorf("commit create post: %w", err)
	}

	post.Owner = owner
	post.ID = nextID
	post.CreatedAt = fromMillis(createdAt)
	return post, nil
}

// CreateComment assigns the next per-owner comment id and stores the comment
// with its target post reference in one transaction. The stored row doubles
// as the target post's back-reference, so the two sides can never diverge.
func (s *Store) CreateComment(ctx context.Context, comment storage.Comment) (storage.Comment, error) {
	if err := ctx.Err(); err != nil {
		return storage.Comment{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Comment{}, fmt.Errorf("storage is not configured")
	}
	owner := strings.TrimSpace(comment.Owner)
	targetOwner := strings.TrimSpace(comment.Target.Owner)
	if owner == "" {
		return storage.Comment{}, fmt.Errorf("comment owner is required")
	}
	if comment.Target.Kind != domain.KindPost {
		return storage.Comment{}, storage.ErrNotFound
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.Comment{}, fmt.Errorf("begin create comment: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var found int
	err = tx.QueryRowContext(
		ctx,
		`SELECT 1 FROM posts WHERE owner_username = ? AND post_id = ?`,
		targetOwner,
		comment.Target.ID,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Comment{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Comment{}, fmt.Errorf("check target post: %w", err)
	}

	var nextID int64
	if err := tx.QueryRowContext(
		ctx,
		`SELECT COALESCE(MAX(comment_id) + 1, 0) FROM comments WHERE owner_username = ?`,
		owner,
	).Scan(&nextID); err != nil {
		return storage.Comment{}, fmt.Errorf("next comment id: %w", err)
	}

	createdAt := toMillis(comment.CreatedAt)
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO comments (owner_username, comment_id, content, target_owner_username, target_post_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		owner,
		nextID,
		comment.Content,
		targetOwner,
		comment.Target.ID,
		createdAt,
	); err != nil {
		if isForeignKeyViolation(err) {
			return storage.Comment{}, storage.ErrNotFound
		}
		return storage.Comment{}, fmt.Errorf("create comment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return storage.Comment{}, fmt.Errorf("commit create comment: %w", err)
	}

	comment.Owner = owner
	comment.ID = nextID
	comment.Target.Owner = targetOwner
	comment.CreatedAt = fromMillis(createdAt)
	return comment, nil
}

// AddLike records a like edge after resolving the target publication. The
// unique key over (liker, target ref) excludes the timestamp, so duplicate
// detection compares the reference alone.
func (s *Store) AddLike(ctx context.Context, like storage.Like) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	liker := strings.TrimSpace(like.Liker)
	targetOwner := strings.TrimSpace(like.Target.Owner)
	if liker == "" {
		return fmt.Errorf("liker is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add like: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var targetQuery string
	switch like.Target.Kind {
	case domain.KindPost:
		targetQuery = `SELECT 1 FROM posts WHERE owner_username = ? AND post_id = ?`
	case domain.KindComment:
		targetQuery = `SELECT 1 FROM comments WHERE owner_username = ? AND comment_id = ?`
	default:
		return storage.ErrNotFound
	}

	var found int
	err = tx.QueryRowContext(ctx, targetQuery, targetOwner, like.Target.ID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check like target: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO likes (liker_username, target_owner_username, target_kind, target_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		liker,
		targetOwner,
		int64(like.Target.Kind),
		like.Target.ID,
		toMillis(like.CreatedAt),
	); err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("add like: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add like: %w", err)
	}
	return nil
}

// RemoveLike deletes the like edge matching the exact target reference.
func (s *Store) RemoveLike(ctx context.Context, liker string, target domain.Ref) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM likes
		  WHERE liker_username = ? AND target_owner_username = ? AND target_kind = ? AND target_id = ?`,
		strings.TrimSpace(liker),
		strings.TrimSpace(target.Owner),
		int64(target.Kind),
		target.ID,
	)
	if err != nil {
		return fmt.Errorf("remove like: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove like: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
