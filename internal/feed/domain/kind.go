package domain

import apperrors "github.com/louisbranch/openfeed/internal/errors"

// Kind identifies which publication family a Ref points at.
type Kind int

const (
	// KindUnspecified represents an invalid publication kind value.
	KindUnspecified Kind = iota
	// KindPost identifies a post publication.
	KindPost
	// KindComment identifies a comment publication.
	KindComment
)

// String returns the wire label for the kind.
func (k Kind) String() string {
	switch k {
	case KindPost:
		return "post"
	case KindComment:
		return "comment"
	default:
		return "unspecified"
	}
}

// ParseKind converts an untrusted wire label into a publication kind.
func ParseKind(value string) (Kind, error) {
	switch value {
	case "post":
		return KindPost, nil
	case "comment":
		return KindComment, nil
	default:
		return KindUnspecified, apperrors.New(apperrors.CodeInvalidPublicationKind, "publication kind must be post or comment")
	}
}
