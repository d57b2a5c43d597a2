package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/openfeed/internal/feed/storage"
)

// CreateAccount registers a username, initializes its profile, and creates
// the initial follow edges in one transaction.
func (s *Store) CreateAccount(ctx context.Context, account storage.Account, follows []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	username := strings.TrimSpace(account.Username)
	identity := strings.TrimSpace(account.Identity)
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if identity == "" {
		return fmt.Errorf("identity is required")
	}
	createdAt := account.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create account: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO registry (username, identity, created_at) VALUES (?, ?, ?)`,
		username,
		identity,
		toMillis(createdAt),
	); err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("register username: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO profiles (username, name, avatar_uri, bio, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		username,
		account.Name,
		account.AvatarURI,
		account.Bio,
		toMillis(createdAt),
		toMillis(createdAt),
	); err != nil {
		return fmt.Errorf("create profile: %w", err)
	}

	for _, target := range follows {
		target = strings.TrimSpace(target)
		var found int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM registry WHERE username = ?`, target).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("follow %q: %w", target, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("check follow target %q: %w", target, err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO follow_edges (follower_username, target_username, created_at) VALUES (?, ?, ?)`,
			username,
			target,
			toMillis(createdAt),
		); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("follow %q: %w", target, storage.ErrAlreadyExists)
			}
			return fmt.Errorf("create follow edge %q: %w", target, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create account: %w", err)
	}
	return nil
}

// ResolveIdentity returns the identity controlling a username.
func (s *Store) ResolveIdentity(ctx context.Context, username string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s == nil || s.sqlDB == nil {
		return "", fmt.Errorf("storage is not configured")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return "", storage.ErrNotFound
	}

	var identity string
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT identity FROM registry WHERE username = ?`,
		username,
	).Scan(&identity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("resolve identity: %w", err)
	}
	return identity, nil
}

// GetAccount returns the registry entry and profile metadata for a username.
func (s *Store) GetAccount(ctx context.Context, username string) (storage.Account, error) {
	if err := ctx.Err(); err != nil {
		return storage.Account{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Account{}, fmt.Errorf("storage is not configured")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return storage.Account{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT r.username, r.identity, p.name, p.avatar_uri, p.bio, p.created_at, p.updated_at
		   FROM registry r
		   JOIN profiles p ON p.username = r.username
		  WHERE r.username = ?`,
		username,
	)

	var account storage.Account
	var createdAt int64
	var updatedAt int64
	err := row.Scan(
		&account.Username,
		&account.Identity,
		&account.Name,
		&account.AvatarURI,
		&account.Bio,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Account{}, storage.ErrNotFound
		}
		return storage.Account{}, fmt.Errorf("get account: %w", err)
	}
	account.CreatedAt = fromMillis(createdAt)
	account.UpdatedAt = fromMillis(updatedAt)
	return account, nil
}

// UpdateAccountName overwrites the profile display name.
func (s *Store) UpdateAccountName(ctx context.Context, username, value string, updatedAt time.Time) error {
	return s.updateProfileField(ctx, "name", username, value, updatedAt)
}

// UpdateAccountBio overwrites the profile bio.
func (s *Store) UpdateAccountBio(ctx context.Context, username, value string, updatedAt time.Time) error {
	return s.updateProfileField(ctx, "bio", username, value, updatedAt)
}

// UpdateAccountAvatar overwrites the profile avatar URI.
func (s *Store) UpdateAccountAvatar(ctx context.Context, username, value string, updatedAt time.Time) error {
	return s.updateProfileField(ctx, "avatar_uri", username, value, updatedAt)
}

func (s *Store) updateProfileField(ctx context.Context, column, username, value string, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return storage.ErrNotFound
	}

	// column is one of three fixed profile columns, never user input.
	result, err := s.sqlDB.ExecContext(
		ctx,
		fmt.Sprintf(`UPDATE profiles SET %s = ?, updated_at = ? WHERE username = ?`, column),
		value,
		toMillis(updatedAt.UTC()),
		username,
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AddFollow creates one directed follow edge. The unique key on the edge pair
// makes the duplicate check and the insert a single atomic step.
func (s *Store) AddFollow(ctx context.Context, edge storage.FollowEdge) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	follower := strings.TrimSpace(edge.Follower)
	target := strings.TrimSpace(edge.Target)
	if follower == "" || target == "" {
		return storage.ErrNotFound
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add follow: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Both endpoints must be registered before the edge exists.
	for _, username := range []string{follower, target} {
		var found int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM registry WHERE username = ?`, username).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("follow endpoint %q: %w", username, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("check follow endpoint %q: %w", username, err)
		}
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO follow_edges (follower_username, target_username, created_at) VALUES (?, ?, ?)`,
		follower,
		target,
		toMillis(edge.CreatedAt.UTC()),
	); err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("add follow: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add follow: %w", err)
	}
	return nil
}

// RemoveFollow deletes one directed follow edge.
func (s *Store) RemoveFollow(ctx context.Context, follower, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM follow_edges WHERE follower_username = ? AND target_username = ?`,
		strings.TrimSpace(follower),
		strings.TrimSpace(target),
	)
	if err != nil {
		return fmt.Errorf("remove follow: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove follow: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListFollowers returns one page of follower usernames, newest edge first.
func (s *Store) ListFollowers(ctx context.Context, username string, limit, offset int) ([]string, error) {
	return s.listEdgeEndpoints(
		ctx,
		`SELECT follower_username FROM follow_edges
		  WHERE target_username = ?
		  ORDER BY seq DESC
		  LIMIT ? OFFSET ?`,
		username, limit, offset,
	)
}

// ListFollowing returns one page of followed usernames, newest edge first.
func (s *Store) ListFollowing(ctx context.Context, username string, limit, offset int) ([]string, error) {
	return s.listEdgeEndpoints(
		ctx,
		`SELECT target_username FROM follow_edges
		  WHERE follower_username = ?
		  ORDER BY seq DESC
		  LIMIT ? OFFSET ?`,
		username, limit, offset,
	)
}

func (s *Store) listEdgeEndpoints(ctx context.Context, query, username string, limit, offset int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit < 1 || offset < 0 {
		return []string{}, nil
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, strings.TrimSpace(username), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list follow edges: %w", err)
	}
	defer rows.Close()

	usernames := make([]string, 0, limit)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list follow edges: %w", err)
		}
		usernames = append(usernames, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list follow edges: %w", err)
	}
	return usernames, nil
}
