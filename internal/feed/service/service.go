// Package service implements the feed operations on top of feed storage,
// translating storage outcomes into the platform error taxonomy.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/openfeed/internal/errors"
	"github.com/louisbranch/openfeed/internal/feed/domain"
	"github.com/louisbranch/openfeed/internal/feed/storage"
)

type feedStore interface {
	storage.RegistryStore
	storage.ProfileStore
	storage.PublicationStore
	storage.TimelineStore
}

// Service exposes the feed mutations and queries.
type Service struct {
	store feedStore
	clock func() time.Time
}

// NewService creates a feed service backed by feed storage.
func NewService(store feedStore) *Service {
	return &Service{
		store: store,
		clock: time.Now,
	}
}

func (s *Service) now() time.Time {
	if s != nil && s.clock != nil {
		return s.clock()
	}
	return time.Now()
}

// requireOwner checks that the acting identity owns the username.
func (s *Service) requireOwner(ctx context.Context, identity, username string) error {
	registered, err := s.store.ResolveIdentity(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeUsernameNotRegistered, "username is not registered").
				WithMetadata(map[string]string{"username": username})
		}
		return fmt.Errorf("resolve identity: %w", err)
	}
	if registered != identity {
		return apperrors.New(apperrors.CodeNotOwner, "identity does not own username").
			WithMetadata(map[string]string{"username": username})
	}
	return nil
}

// requireRegistered checks that the username exists in the registry.
func (s *Service) requireRegistered(ctx context.Context, username string) error {
	if _, err := s.store.ResolveIdentity(ctx, username); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeUsernameNotRegistered, "username is not registered").
				WithMetadata(map[string]string{"username": username})
		}
		return fmt.Errorf("resolve identity: %w", err)
	}
	return nil
}

// CreateProfile registers a username for an identity and initializes its
// profile and follow edges in one transaction.
func (s *Service) CreateProfile(ctx context.Context, identity, username, name, avatarURI string, follow []string) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("feed store is not configured")
	}
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return fmt.Errorf("identity is required")
	}
	if err := domain.ValidateUsername(username); err != nil {
		return err
	}
	if err := domain.ValidateName(name); err != nil {
		return err
	}
	if err := domain.ValidateAvatarURI(avatarURI); err != nil {
		return err
	}
	if err := domain.ValidateFollowList(username, follow); err != nil {
		return err
	}

	now := s.now()
	err := s.store.CreateAccount(ctx, storage.Account{
		Username:  username,
		Identity:  identity,
		Name:      name,
		AvatarURI: avatarURI,
		CreatedAt: now,
		UpdatedAt: now,
	}, follow)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrAlreadyExists):
		return apperrors.New(apperrors.CodeUsernameTaken, "username is already taken").
			WithMetadata(map[string]string{"username": username})
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.New(apperrors.CodeUsernameNotRegistered, "follow target is not registered")
	default:
		return fmt.Errorf("create profile: %w", err)
	}
}

// UpdateName overwrites the display name on an owned profile.
func (s *Service) UpdateName(ctx context.Context, identity, username, name string) error {
	if err := domain.ValidateName(name); err != nil {
		return err
	}
	return s.updateProfile(ctx, identity, username, name, s.store.UpdateAccountName)
}

// UpdateBio overwrites the bio on an owned profile.
func (s *Service) UpdateBio(ctx context.Context, identity, username, bio string) error {
	if err := domain.ValidateBio(bio); err != nil {
		return err
	}
	return s.updateProfile(ctx, identity, username, bio, s.store.UpdateAccountBio)
}

// UpdateAvatar overwrites the avatar URI on an owned profile.
func (s *Service) UpdateAvatar(ctx context.Context, identity, username, avatarURI string) error {
	if err := domain.ValidateAvatarURI(avatarURI); err != nil {
		return err
	}
	return s.updateProfile(ctx, identity, username, avatarURI, s.store.UpdateAccountAvatar)
}

func (s *Service) updateProfile(ctx context.Context, identity, username, value string, update func(context.Context, string, string, time.Time) error) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("feed store is not configured")
	}
	if err := s.requireOwner(ctx, identity, username); err != nil {
		return err
	}
	if err := update(ctx, username, value, s.now()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeUsernameNotRegistered, "username is not registered").
				WithMetadata(map[string]string{"username": username})
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// Follow creates a follow edge from an owned username to a target.
func (s *Service) Follow(ctx context.Context, identity, follower, target string) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("feed store is not configured")
	}
	if follower == target {
		return apperrors.New(apperrors.CodeSelfReference, "cannot follow yourself")
	}
	if err := s.requireOwner(ctx, identity, follower); err != nil {
		return err
	}

	err := s.store.AddFollow(ctx, storage.FollowEdge{
		Follower:  follower,
		Target:    target,
		CreatedAt: s.now(),
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrAlreadyExists):
		return apperrors.New(apperrors.CodeAlreadyFollowing, "already following target").
			WithMetadata(map[string]string{"target": target})
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.New(apperrors.CodeUsernameNotRegistered, "username is not registered").
			WithMetadata(map[string]string{"username": target})
	default:
		return fmt.Errorf("follow: %w", err)
	}
}

// Unfollow removes a follow edge from an owned username to a target.
func (s *Service) Unfollow(ctx context.Context, identity, follower, target string) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("feed store is not configured")
	}
	if follower == target {
		return apperrors.New(apperrors.CodeSelfReference, "cannot unfollow yourself")
	}
	if err := s.requireOwner(ctx, identity, follower); err != nil {
		return err
	}
	if err := s.requireRegistered(ctx, target); err != nil {
		return err
	}

	if err := s.store.RemoveFollow(ctx, follower, target); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeNotFollowing, "not following target").
				WithMetadata(map[string]string{"target": target})
		}
		return fmt.Errorf("unfollow: %w", err)
	}
	return nil
}

// CreatePost appends a post to an owned account and the global timeline.
func (s *Service) CreatePost(ctx context.Context, identity, username, content string) (storage.Post, error) {
	if s == nil || s.store == nil {
		return storage.Post{}, fmt.Errorf("feed store is not configured")
	}
	if err := domain.ValidateContent(content); err != nil {
		return storage.Post{}, err
	}
	if err := s.requireOwner(ctx, identity, username); err != nil {
		return storage.Post{}, err
	}

	post, err := s.store.CreatePost(ctx, storage.Post{
		Owner:     username,
		Content:   content,
		CreatedAt: s.now(),
	})
	if err != nil {
		return storage.Post{}, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// CreateComment appends a comment to an owned account, targeting a post.
func (s *Service) CreateComment(ctx context.Context, identity, username, content, targetOwner string, targetPostID int64) (storage.Comment, error) {
	if s == nil || s.store == nil {
		return storage.Comment{}, fmt.Errorf("feed store is not configured")
	}
	if err := domain.ValidateContent(content); err != nil {
		return storage.Comment{}, err
	}
	if err := s.requireOwner(ctx, identity, username); err != nil {
		return storage.Comment{}, err
	}
	if err := s.requireRegistered(ctx, targetOwner); err != nil {
		return storage.Comment{}, err
	}

	comment, err := s.store.CreateComment(ctx, storage.Comment{
		Owner:   username,
		Content: content,
		Target: domain.Ref{
			Owner: targetOwner,
			Kind:  domain.KindPost,
			ID:    targetPostID,
		},
		CreatedAt: s.now(),
	})
	switch {
	case err == nil:
		return comment, nil
	case errors.Is(err, storage.ErrNotFound):
		return storage.Comment{}, apperrors.New(apperrors.CodePublicationNotFound, "target post not found").
			WithMetadata(map[string]string{"owner": targetOwner})
	default:
		return storage.Comment{}, fmt.Errorf("create comment: %w", err)
	}
}

// Like records a like from an owned username on a post or comment.
func (s *Service) Like(ctx context.Context, identity, liker string, target domain.Ref) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("feed store is not configured")
	}
	if target.Kind != domain.KindPost && target.Kind != domain.KindComment {
		return apperrors.New(apperrors.CodeInvalidPublicationKind, "publication kind is invalid")
	}
	if err := s.requireOwner(ctx, identity, liker); err != nil {
		return err
	}
	if err := s.requireRegistered(ctx, target.Owner); err != nil {
		return err
	}

	err := s.store.AddLike(ctx, storage.Like{
		Liker:     liker,
		Target:    target,
		CreatedAt: s.now(),
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrAlreadyExists):
		return apperrors.New(apperrors.CodeAlreadyLiked, "publication is already liked")
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.New(apperrors.CodePublicationNotFound, "publication not found").
			WithMetadata(map[string]string{"owner": target.Owner})
	default:
		return fmt.Errorf("like: %w", err)
	}
}

// Unlike removes a like from an owned username on a post or comment.
func (s *Service) Unlike(ctx context.Context, identity, liker string, target domain.Ref) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("feed store is not configured")
	}
	if target.Kind != domain.KindPost && target.Kind != domain.KindComment {
		return apperrors.New(apperrors.CodeInvalidPublicationKind, "publication kind is invalid")
	}
	if err := s.requireOwner(ctx, identity, liker); err != nil {
		return err
	}
	if err := s.requireRegistered(ctx, target.Owner); err != nil {
		return err
	}

	if err := s.store.RemoveLike(ctx, liker, target); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeNotLiked, "publication is not liked")
		}
		return fmt.Errorf("unlike: %w", err)
	}
	return nil
}
