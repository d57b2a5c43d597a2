package service

import (
	"context"
	"log"

	"github.com/louisbranch/openfeed/internal/feed/storage"
	"github.com/louisbranch/openfeed/internal/platform/pagination"
)

// Queries never fail: invalid windows and storage errors degrade to empty
// results so feed rendering keeps working.

// Account resolves a profile by username. The boolean reports whether the
// username is registered.
func (s *Service) Account(ctx context.Context, username string) (storage.Account, bool) {
	if s == nil || s.store == nil {
		return storage.Account{}, false
	}
	account, err := s.store.GetAccount(ctx, username)
	if err != nil {
		return storage.Account{}, false
	}
	return account, true
}

// GlobalTimeline returns one page of the global timeline, newest first.
func (s *Service) GlobalTimeline(ctx context.Context, viewer string, pageSize, page int) []storage.PostView {
	limit, offset, ok := s.queryWindow(pageSize, page)
	if !ok {
		return []storage.PostView{}
	}
	views, err := s.store.ListGlobalTimeline(ctx, viewer, limit, offset)
	if err != nil {
		log.Printf("global timeline: %v", err)
		return []storage.PostView{}
	}
	return views
}

// FollowingTimeline returns one page of posts from accounts the username
// follows, newest first.
func (s *Service) FollowingTimeline(ctx context.Context, username, viewer string, pageSize, page int) []storage.PostView {
	limit, offset, ok := s.queryWindow(pageSize, page)
	if !ok {
		return []storage.PostView{}
	}
	views, err := s.store.ListFollowingTimeline(ctx, username, viewer, limit, offset)
	if err != nil {
		log.Printf("following timeline: %v", err)
		return []storage.PostView{}
	}
	return views
}

// AccountPosts returns one page of an account's posts, newest first.
func (s *Service) AccountPosts(ctx context.Context, username, viewer string, pageSize, page int) []storage.PostView {
	limit, offset, ok := s.queryWindow(pageSize, page)
	if !ok {
		return []storage.PostView{}
	}
	views, err := s.store.ListAccountPosts(ctx, username, viewer, limit, offset)
	if err != nil {
		log.Printf("account posts: %v", err)
		return []storage.PostView{}
	}
	return views
}

// AccountComments returns one page of an account's comments, newest first.
func (s *Service) AccountComments(ctx context.Context, username, viewer string, pageSize, page int) []storage.CommentView {
	limit, offset, ok := s.queryWindow(pageSize, page)
	if !ok {
		return []storage.CommentView{}
	}
	views, err := s.store.ListAccountComments(ctx, username, viewer, limit, offset)
	if err != nil {
		log.Printf("account comments: %v", err)
		return []storage.CommentView{}
	}
	return views
}

// AccountLikedPosts returns one page of posts the account has liked, in
// reverse like order.
func (s *Service) AccountLikedPosts(ctx context.Context, username, viewer string, pageSize, page int) []storage.PostView {
	limit, offset, ok := s.queryWindow(pageSize, page)
	if !ok {
		return []storage.PostView{}
	}
	views, err := s.store.ListAccountLikedPosts(ctx, username, viewer, limit, offset)
	if err != nil {
		log.Printf("account liked posts: %v", err)
		return []storage.PostView{}
	}
	return views
}

// AccountLikedComments returns one page of comments the account has liked,
// in reverse like order.
func (s *Service) AccountLikedComments(ctx context.Context, username, viewer string, pageSize, page int) []storage.CommentView {
	limit, offset, ok := s.queryWindow(pageSize, page)
	if !ok {
		return []storage.CommentView{}
	}
	views, err := s.store.ListAccountLikedComments(ctx, username, viewer, limit, offset)
	if err != nil {
		log.Printf("account liked comments: %v", err)
		return []storage.CommentView{}
	}
	return views
}

// AccountFollowers returns one page of follower usernames, newest edge first.
func (s *Service) AccountFollowers(ctx context.Context, username string, pageSize, page int) []string {
	limit, offset, ok := s.queryWindow(pageSize, page)
	if !ok {
		return []string{}
	}
	followers, err := s.store.ListFollowers(ctx, username, limit, offset)
	if err != nil {
		log.Printf("account followers: %v", err)
		return []string{}
	}
	return followers
}

// AccountFollowing returns one page of followed usernames, newest edge first.
func (s *Service) AccountFollowing(ctx context.Context, username string, pageSize, page int) []string {
	limit, offset, ok := s.queryWindow(pageSize, page)
	if !ok {
		return []string{}
	}
	following, err := s.store.ListFollowing(ctx, username, limit, offset)
	if err != nil {
		log.Printf("account following: %v", err)
		return []string{}
	}
	return following
}

// GetPost resolves a single post view plus one page of its comments. The
// boolean reports whether the post exists.
func (s *Service) GetPost(ctx context.Context, username, viewer string, postID int64, pageSize, page int) (storage.PostView, []storage.CommentView, bool) {
	if s == nil || s.store == nil {
		return storage.PostView{}, nil, false
	}
	view, err := s.store.GetPostView(ctx, username, viewer, postID)
	if err != nil {
		return storage.PostView{}, nil, false
	}

	comments := []storage.CommentView{}
	if limit, offset, ok := s.queryWindow(pageSize, page); ok {
		comments, err = s.store.ListPostComments(ctx, username, postID, viewer, limit, offset)
		if err != nil {
			log.Printf("post comments: %v", err)
			comments = []storage.CommentView{}
		}
	}
	return view, comments, true
}

func (s *Service) queryWindow(pageSize, page int) (limit, offset int, ok bool) {
	if s == nil || s.store == nil {
		return 0, 0, false
	}
	return pagination.Normalize(pageSize, page)
}
