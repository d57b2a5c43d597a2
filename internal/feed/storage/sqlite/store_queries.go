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

const postViewColumns = `p.owner_username, p.post_id, p.content, p.created_at,
	(SELECT COUNT(*) FROM likes l
	  WHERE l.target_owner_username = p.owner_username AND l.target_kind = ? AND l.target_id = p.post_id),
	(SELECT COUNT(*) FROM comments c
	  WHERE c.target_owner_username = p.owner_username AND c.target_post_id = p.post_id),
	EXISTS(SELECT 1 FROM likes l
	  WHERE l.liker_username = ? AND l.target_owner_username = p.owner_username AND l.target_kind = ? AND l.target_id = p.post_id)`

const commentViewColumns = `c.owner_username, c.comment_id, c.content, c.target_owner_username, c.target_post_id, c.created_at,
	(SELECT COUNT(*) FROM likes l
	  WHERE l.target_owner_username = c.owner_username AND l.target_kind = ? AND l.target_id = c.comment_id),
	EXISTS(SELECT 1 FROM likes l
	  WHERE l.liker_username = ? AND l.target_owner_username = c.owner_username AND l.target_kind = ? AND l.target_id = c.comment_id)`

func scanPostView(row interface{ Scan(...any) error }) (storage.PostView, error) {
	var view storage.PostView
	var createdAt int64
	err := row.Scan(
		&view.Owner,
		&view.ID,
		&view.Content,
		&createdAt,
		&view.LikeCount,
		&view.CommentCount,
		&view.ViewerLiked,
	)
	if err != nil {
		return storage.PostView{}, err
	}
	view.CreatedAt = fromMillis(createdAt)
	return view, nil
}

func scanCommentView(row interface{ Scan(...any) error }) (storage.CommentView, error) {
	var view storage.CommentView
	var createdAt int64
	err := row.Scan(
		&view.Owner,
		&view.ID,
		&view.Content,
		&view.Target.Owner,
		&view.Target.ID,
		&createdAt,
		&view.LikeCount,
		&view.ViewerLiked,
	)
	if err != nil {
		return storage.CommentView{}, err
	}
	view.Target.Kind = domain.KindPost
	view.CreatedAt = fromMillis(createdAt)
	return view, nil
}

func (s *Store) listPostViews(ctx context.Context, query string, args ...any) ([]storage.PostView, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	views := []storage.PostView{}
	for rows.Next() {
		view, err := scanPostView(rows)
		if err != nil {
			return nil, fmt.Errorf("list posts: %w", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return views, nil
}

func (s *Store) listCommentViews(ctx context.Context, query string, args ...any) ([]storage.CommentView, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	views := []storage.CommentView{}
	for rows.Next() {
		view, err := scanCommentView(rows)
		if err != nil {
			return nil, fmt.Errorf("list comments: %w", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return views, nil
}

func (s *Store) queryGuard(ctx context.Context, limit, offset int) (proceed bool, err error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	if limit < 1 || offset < 0 {
		return false, nil
	}
	return true, nil
}

// GetPostView returns one post with engagement resolved for the viewer.
func (s *Store) GetPostView(ctx context.Context, owner, viewer string, postID int64) (storage.PostView, error) {
	if err := ctx.Err(); err != nil {
		return storage.PostView{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.PostView{}, fmt.Errorf("storage is not configured")
	}

	kindPost := int64(domain.KindPost)
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+postViewColumns+`
		   FROM posts p
		  WHERE p.owner_username = ? AND p.post_id = ?`,
		kindPost, strings.TrimSpace(viewer), kindPost,
		strings.TrimSpace(owner), postID,
	)
	view, err := scanPostView(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.PostView{}, storage.ErrNotFound
		}
		return storage.PostView{}, fmt.Errorf("get post: %w", err)
	}
	return view, nil
}

// ListPostComments returns one page of a post's comments, newest first.
func (s *Store) ListPostComments(ctx context.Context, owner string, postID int64, viewer string, limit, offset int) ([]storage.CommentView, error) {
	proceed, err := s.queryGuard(ctx, limit, offset)
	if err != nil || !proceed {
		return []storage.CommentView{}, err
	}

	kindComment := int64(domain.KindComment)
	return s.listCommentViews(
		ctx,
		`SELECT `+commentViewColumns+`
		   FROM comments c
		  WHERE c.target_owner_username = ? AND c.target_post_id = ?
		  ORDER BY c.rowid DESC
		  LIMIT ? OFFSET ?`,
		kindComment, strings.TrimSpace(viewer), kindComment,
		strings.TrimSpace(owner), postID, limit, offset,
	)
}

// ListAccountPosts returns one page of an account's posts, newest first.
func (s *Store) ListAccountPosts(ctx context.Context, owner, viewer string, limit, offset int) ([]storage.PostView, error) {
	proceed, err := s.queryGuard(ctx, limit, offset)
	if err != nil || !proceed {
		return []storage.PostView{}, err
	}

	kindPost := int64(domain.KindPost)
	return s.listPostViews(
		ctx,
		`SELECT `+postViewColumns+`
		   FROM posts p
		  WHERE p.owner_username = ?
		  ORDER BY p.post_id DESC
		  LIMIT ? OFFSET ?`,
		kindPost, strings.TrimSpace(viewer), kindPost,
		strings.TrimSpace(owner), limit, offset,
	)
}

// ListAccountComments returns one page of an account's comments, newest first.
func (s *Store) ListAccountComments(ctx context.Context, owner, viewer string, limit, offset int) ([]storage.CommentView, error) {
	proceed, err := s.queryGuard(ctx, limit, offset)
	if err != nil || !proceed {
		return []storage.CommentView{}, err
	}

	kindComment := int64(domain.KindComment)
	return s.listCommentViews(
		ctx,
		`SELECT `+commentViewColumns+`
		   FROM comments c
		  WHERE c.owner_username = ?
		  ORDER BY c.comment_id DESC
		  LIMIT ? OFFSET ?`,
		kindComment, strings.TrimSpace(viewer), kindComment,
		strings.TrimSpace(owner), limit, offset,
	)
}

// ListAccountLikedPosts returns one page of posts the account has liked,
// newest like first.
func (s *Store) ListAccountLikedPosts(ctx context.Context, username, viewer string, limit, offset int) ([]storage.PostView, error) {
	proceed, err := s.queryGuard(ctx, limit, offset)
	if err != nil || !proceed {
		return []storage.PostView{}, err
	}

	kindPost := int64(domain.KindPost)
	return s.listPostViews(
		ctx,
		`SELECT `+postViewColumns+`
		   FROM likes ll
		   JOIN posts p ON p.owner_username = ll.target_owner_username AND p.post_id = ll.target_id
		  WHERE ll.liker_username = ? AND ll.target_kind = ?
		  ORDER BY ll.seq DESC
		  LIMIT ? OFFSET ?`,
		kindPost, strings.TrimSpace(viewer), kindPost,
		strings.TrimSpace(username), kindPost, limit, offset,
	)
}

// ListAccountLikedComments returns one page of comments the account has
// liked, newest like first.
func (s *Store) ListAccountLikedComments(ctx context.Context, username, viewer string, limit, offset int) ([]storage.CommentView, error) {
	proceed, err := s.queryGuard(ctx, limit, offset)
	if err != nil || !proceed {
		return []storage.CommentView{}, err
	}

	kindComment := int64(domain.KindComment)
	return s.listCommentViews(
		ctx,
		`SELECT `+commentViewColumns+`
		   FROM likes ll
		   JOIN comments c ON c.owner_username = ll.target_owner_username AND c.comment_id = ll.target_id
		  WHERE ll.liker_username = ? AND ll.target_kind = ?
		  ORDER BY ll.seq DESC
		  LIMIT ? OFFSET ?`,
		kindComment, strings.TrimSpace(viewer), kindComment,
		strings.TrimSpace(username), kindComment, limit, offset,
	)
}

// ListGlobalTimeline returns one page of the global post log, newest first.
func (s *Store) ListGlobalTimeline(ctx context.Context, viewer string, limit, offset int) ([]storage.PostView, error) {
	proceed, err := s.queryGuard(ctx, limit, offset)
	if err != nil || !proceed {
		return []storage.PostView{}, err
	}

	kindPost := int64(domain.KindPost)
	return s.listPostViews(
		ctx,
		`SELECT `+postViewColumns+`
		   FROM timeline t
		   JOIN posts p ON p.owner_username = t.owner_username AND p.post_id = t.post_id
		  ORDER BY t.seq DESC
		  LIMIT ? OFFSET ?`,
		kindPost, strings.TrimSpace(viewer), kindPost,
		limit, offset,
	)
}

// ListFollowingTimeline returns one page of posts by accounts the username
// follows, newest first.
func (s *Store) ListFollowingTimeline(ctx context.Context, username, viewer string, limit, offset int) ([]storage.PostView, error) {
	proceed, err := s.queryGuard(ctx, limit, offset)
	if err != nil || !proceed {
		return []storage.PostView{}, err
	}

	kindPost := int64(domain.KindPost)
	return s.listPostViews(
		ctx,
		`SELECT `+postViewColumns+`
		   FROM timeline t
		   JOIN posts p ON p.owner_username = t.owner_username AND p.post_id = t.post_id
		  WHERE t.owner_username IN (
			SELECT target_username FROM follow_edges WHERE follower_username = ?
		  )
		  ORDER BY t.seq DESC
		  LIMIT ? OFFSET ?`,
		kindPost, strings.TrimSpace(viewer), kindPost,
		strings.TrimSpace(username), limit, offset,
	)
}
