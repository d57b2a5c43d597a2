// Package storage defines persistence contracts for feed state.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/openfeed/internal/feed/domain"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
var ErrAlreadyExists = errors.New("record already exists")

// Account stores one registered account: the registry entry plus its profile
// metadata.
type Account struct {
	Username  string
	Identity  string
	Name      string
	AvatarURI string
	Bio       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FollowEdge stores one directed follow relationship. A single edge record is
// both the follower's "following" entry and the target's "followers" entry.
type FollowEdge struct {
	Follower  string
	Target    string
	CreatedAt time.Time
}

// Post stores one immutable post publication.
type Post struct {
	Owner     string
	ID        int64
	Content   string
	CreatedAt time.Time
}

// Comment stores one immutable comment publication and its target post Ref.
type Comment struct {
	Owner     string
	ID        int64
	Content   string
	Target    domain.Ref
	CreatedAt time.Time
}

// Like stores one like edge from an account to a publication Ref.
type Like struct {
	Liker     string
	Target    domain.Ref
	CreatedAt time.Time
}

// PostView is a post together with its engagement, resolved for one viewer.
type PostView struct {
	Post
	LikeCount    int64
	CommentCount int64
	ViewerLiked  bool
}

// CommentView is a comment together with its engagement, resolved for one
// viewer.
type CommentView struct {
	Comment
	LikeCount   int64
	ViewerLiked bool
}

// RegistryStore persists the append-only username registry. Accounts are
// permanent: no contract method removes or renames a registration.
type RegistryStore interface {
	// CreateAccount registers a username, initializes its profile, and
	// creates the initial follow edges in one atomic step. It returns
	// ErrAlreadyExists when the username is registered and an error wrapping
	// ErrNotFound naming the target when a follow target is unregistered.
	CreateAccount(ctx context.Context, account Account, follows []string) error
	// ResolveIdentity returns the identity controlling a username, or
	// ErrNotFound when the username is unregistered.
	ResolveIdentity(ctx context.Context, username string) (string, error)
	// GetAccount returns the full account record for a username.
	GetAccount(ctx context.Context, username string) (Account, error)
}

// ProfileStore persists profile metadata and the follow graph.
type ProfileStore interface {
	UpdateAccountName(ctx context.Context, username, value string, updatedAt time.Time) error
	UpdateAccountBio(ctx context.Context, username, value string, updatedAt time.Time) error
	UpdateAccountAvatar(ctx context.Context, username, value string, updatedAt time.Time) error
	// AddFollow creates one directed edge. It returns ErrAlreadyExists when
	// the edge is present and ErrNotFound when either endpoint is
	// unregistered. The duplicate check and the insert are one atomic step.
	AddFollow(ctx context.Context, edge FollowEdge) error
	// RemoveFollow deletes one directed edge, returning ErrNotFound when no
	// such edge exists.
	RemoveFollow(ctx context.Context, follower, target string) error
	ListFollowers(ctx context.Context, username string, limit, offset int) ([]string, error)
	ListFollowing(ctx context.Context, username string, limit, offset int) ([]string, error)
}

// PublicationStore persists per-owner append-only post/comment/like logs.
type PublicationStore interface {
	// CreatePost assigns the next per-owner post id, stores the post, and
	// appends its Ref to the global timeline in one atomic step.
	CreatePost(ctx context.Context, post Post) (Post, error)
	// CreateComment assigns the next per-owner comment id and stores the
	// comment with its target Ref. The stored row is simultaneously the
	// target post's back-reference. Returns ErrNotFound when the target post
	// does not exist.
	CreateComment(ctx context.Context, comment Comment) (Comment, error)
	// AddLike records a like edge. Duplicate detection compares the target
	// Ref only, never the like timestamp. Returns ErrAlreadyExists for a
	// duplicate and ErrNotFound when the target publication is missing.
	AddLike(ctx context.Context, like Like) error
	// RemoveLike deletes the like edge for the exact target Ref, returning
	// ErrNotFound when no such like exists.
	RemoveLike(ctx context.Context, liker string, target domain.Ref) error

	GetPostView(ctx context.Context, owner, viewer string, postID int64) (PostView, error)
	ListPostComments(ctx context.Context, owner string, postID int64, viewer string, limit, offset int) ([]CommentView, error)
	ListAccountPosts(ctx context.Context, owner, viewer string, limit, offset int) ([]PostView, error)
	ListAccountComments(ctx context.Context, owner, viewer string, limit, offset int) ([]CommentView, error)
	ListAccountLikedPosts(ctx context.Context, username, viewer string, limit, offset int) ([]PostView, error)
	ListAccountLikedComments(ctx context.Context, username, viewer string, limit, offset int) ([]CommentView, error)
}

// TimelineStore reads the append-only global post log newest-first.
type TimelineStore interface {
	ListGlobalTimeline(ctx context.Context, viewer string, limit, offset int) ([]PostView, error)
	ListFollowingTimeline(ctx context.Context, username, viewer string, limit, offset int) ([]PostView, error)
}
