// Package errors provides structured, machine-readable error handling for
// feed operations.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Registry errors
	CodeUsernameTaken         Code = "USERNAME_TAKEN"
	CodeUsernameNotRegistered Code = "USERNAME_NOT_REGISTERED"

	// Ownership errors
	CodeNotOwner Code = "NOT_OWNER"

	// Validation errors
	CodeInvalidLength          Code = "INVALID_LENGTH"
	CodeSelfReference          Code = "SELF_REFERENCE"
	CodeInvalidPublicationKind Code = "INVALID_PUBLICATION_KIND"

	// Follow graph errors
	CodeAlreadyFollowing Code = "ALREADY_FOLLOWING"
	CodeNotFollowing     Code = "NOT_FOLLOWING"

	// Publication errors
	CodePublicationNotFound Code = "PUBLICATION_NOT_FOUND"
	CodeAlreadyLiked        Code = "ALREADY_LIKED"
	CodeNotLiked            Code = "NOT_LIKED"
)

// HTTPStatus maps domain codes to HTTP status codes for API responses.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodeInvalidLength,
		CodeSelfReference,
		CodeInvalidPublicationKind:
		return http.StatusBadRequest

	// Conflict - state already holds, or precondition state missing
	case CodeUsernameTaken,
		CodeAlreadyFollowing,
		CodeNotFollowing,
		CodeAlreadyLiked,
		CodeNotLiked:
		return http.StatusConflict

	// Not found - missing registry entries or publications
	case CodeUsernameNotRegistered,
		CodePublicationNotFound:
		return http.StatusNotFound

	// Forbidden - caller does not control the account
	case CodeNotOwner:
		return http.StatusForbidden

	default:
		return http.StatusInternalServerError
	}
}
