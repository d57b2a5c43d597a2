package domain

// Ref points at a publication in another account's store without duplicating
// it. ID is the stable per-owner publication id, never a transient position.
type Ref struct {
	Owner string
	Kind  Kind
	ID    int64
}
