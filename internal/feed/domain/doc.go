// Package domain defines the core entities and validation rules for the
// social-content model.
//
// The model is centered around a few concepts:
//
// # Registry
//
// Usernames map to identities permanently. Registration is append-only:
// there is no rename and no removal, so a resolved identity can be cached
// for the lifetime of the process.
//
// # Profile
//
// Each identity owns exactly one profile keyed by its username. Profiles
// carry display metadata (name, avatar, bio) and the follow graph, whose
// edges are directed and recorded once per follower/target pair.
//
// # Publications
//
// Posts, comments, and likes are publications. Each lives in its creator's
// store and is addressed by a Ref: the owner's username, a publication kind,
// and a stable per-owner id. Posts and comments are immutable once created;
// only their engagement (comments, likes) grows or shrinks.
package domain
