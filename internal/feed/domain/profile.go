package domain

import (
	"fmt"
	"unicode/utf8"

	apperrors "github.com/louisbranch/openfeed/internal/errors"
)

// Field length limits for profile metadata.
const (
	MinUsernameLength = 1
	MaxUsernameLength = 32
	MaxNameLength     = 60
	MaxAvatarLength   = 256
	MaxBioLength      = 160
)

func invalidLength(field string, max int) error {
	return apperrors.New(
		apperrors.CodeInvalidLength,
		fmt.Sprintf("%s must be at most %d characters", field, max),
	).WithMetadata(map[string]string{"field": field})
}

// ValidateUsername checks username length bounds.
func ValidateUsername(username string) error {
	length := utf8.RuneCountInString(username)
	if length < MinUsernameLength {
		return apperrors.New(apperrors.CodeInvalidLength, "username is required").
			WithMetadata(map[string]string{"field": "username"})
	}
	if length > MaxUsernameLength {
		return invalidLength("username", MaxUsernameLength)
	}
	return nil
}

// ValidateName checks display name length bounds.
func ValidateName(name string) error {
	if utf8.RuneCountInString(name) > MaxNameLength {
		return invalidLength("name", MaxNameLength)
	}
	return nil
}

// ValidateAvatarURI checks avatar URI length bounds.
func ValidateAvatarURI(avatarURI string) error {
	if utf8.RuneCountInString(avatarURI) > MaxAvatarLength {
		return invalidLength("avatar_uri", MaxAvatarLength)
	}
	return nil
}

// ValidateBio checks bio length bounds.
func ValidateBio(bio string) error {
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return invalidLength("bio", MaxBioLength)
	}
	return nil
}

// ValidateFollowList rejects self-references and duplicate targets in an
// initial follow list before any edge is created.
func ValidateFollowList(username string, follows []string) error {
	seen := make(map[string]bool, len(follows))
	for _, target := range follows {
		if target == username {
			return apperrors.New(apperrors.CodeSelfReference, "cannot follow your own account")
		}
		if seen[target] {
			return apperrors.New(apperrors.CodeAlreadyFollowing, fmt.Sprintf("duplicate follow target %q", target))
		}
		seen[target] = true
	}
	return nil
}
